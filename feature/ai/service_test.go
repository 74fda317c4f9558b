package ai

import (
	"context"
	"testing"
	"time"

	"github.com/privasearch/search/feature/search"
	"github.com/privasearch/search/feature/session"
	"github.com/privasearch/search/pkg/engine"
	"github.com/privasearch/search/types"
)

// fakeEngine is a minimal engine.Engine stand-in that returns a fixed hit
// set for any query, letting feature/ai and feature/news tests exercise
// the real search.Service fan-out without network access.
type fakeEngine struct {
	name string
	hits []types.Hit
}

func (f *fakeEngine) Name() string                     { return f.name }
func (f *fakeEngine) Categories() []engine.Category     { return []engine.Category{engine.CategoryGeneral, engine.CategoryNews, engine.CategoryVideos} }
func (f *fakeEngine) BuildRequest(q string, o engine.SearchOptions) engine.RequestConfig {
	return engine.RequestConfig{URL: "fake://" + q}
}
func (f *fakeEngine) ParseResponse(body []byte, o engine.SearchOptions) types.EngineResult {
	return types.EngineResult{}
}
func (f *fakeEngine) Search(ctx context.Context, query string, opts engine.SearchOptions) (*engine.SearchResponse, error) {
	return &engine.SearchResponse{Query: query, Results: f.hits}, nil
}
func (f *fakeEngine) Healthz(ctx context.Context) error { return nil }

func newTestSearchService(t *testing.T, hits []types.Hit) *search.Service {
	t.Helper()
	reg := engine.NewRegistry()
	reg.Register(&fakeEngine{name: "fake", hits: hits}, types.EngineDescriptor{
		Name:       "fake",
		Categories: map[types.Category]bool{types.CategoryGeneral: true, types.CategoryNews: true, types.CategoryVideos: true},
		MaxPage:    100,
		TimeoutMs:  2000,
		Weight:     1.0,
		Enabled:    true,
	})
	return search.NewService(search.ServiceConfig{Registry: reg})
}

func TestAskComposesGroundedReply(t *testing.T) {
	hits := []types.Hit{
		{URL: "https://example.com/a", Title: "A", Snippet: "about A"},
		{URL: "https://example.com/b", Title: "B", Snippet: "about B"},
	}
	sessions := session.New()
	sess := sessions.Create(context.Background(), "user-1")
	svc := New(sessions, newTestSearchService(t, hits), "user-1")

	msg, err := svc.Ask(context.Background(), sess.ID, "what is A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Role != types.RoleAssistant {
		t.Fatalf("expected assistant reply, got role %q", msg.Role)
	}
	if len(msg.Citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(msg.Citations))
	}

	got, _ := sessions.Get(context.Background(), sess.ID)
	if len(got.Messages) != 2 {
		t.Fatalf("expected user+assistant messages recorded, got %d", len(got.Messages))
	}
}

func TestAskWithNoHitsStillReplies(t *testing.T) {
	sessions := session.New()
	sess := sessions.Create(context.Background(), "user-1")
	svc := New(sessions, newTestSearchService(t, nil), "user-1")

	msg, err := svc.Ask(context.Background(), sess.ID, "obscure query")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msg.Citations) != 0 {
		t.Fatalf("expected no citations, got %d", len(msg.Citations))
	}
	if msg.Content == "" {
		t.Fatal("expected a fallback reply even with zero hits")
	}
}

func TestStreamEmitsExpectedEventSequence(t *testing.T) {
	hits := []types.Hit{{URL: "https://example.com/a", Title: "A", Snippet: "about A"}}
	sessions := session.New()
	sess := sessions.Create(context.Background(), "user-1")
	svc := New(sessions, newTestSearchService(t, hits), "user-1")

	var seen []types.StreamEventType
	for ev := range svc.Stream(context.Background(), sess.ID, "what is A") {
		seen = append(seen, ev.Type)
	}

	if len(seen) == 0 || seen[0] != types.StreamStart {
		t.Fatalf("expected first event to be start, got %v", seen)
	}
	if seen[len(seen)-1] != types.StreamDone {
		t.Fatalf("expected last event to be done, got %v", seen)
	}
	var sawCitation, sawToken bool
	for _, e := range seen {
		if e == types.StreamCitation {
			sawCitation = true
		}
		if e == types.StreamToken {
			sawToken = true
		}
	}
	if !sawCitation || !sawToken {
		t.Fatalf("expected citation and token events in sequence, got %v", seen)
	}
}

func TestStreamClosesPromptlyOnCancellation(t *testing.T) {
	hits := []types.Hit{{URL: "https://example.com/a", Title: "A"}}
	sessions := session.New()
	sess := sessions.Create(context.Background(), "user-1")
	svc := New(sessions, newTestSearchService(t, hits), "user-1")

	ctx, cancel := context.WithCancel(context.Background())
	ch := svc.Stream(ctx, sess.ID, "what is A")

	ev, ok := <-ch
	if !ok || ev.Type != types.StreamStart {
		t.Fatalf("expected a start event, got %v ok=%v", ev, ok)
	}
	cancel()

	// Drain without reading further (simulating a consumer that walked
	// away); the goroutine must still observe ctx.Done and close the
	// channel rather than leak, bounded by a generous timeout.
	done := make(chan struct{})
	go func() {
		for range ch {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected stream channel to close promptly after cancellation")
	}
}
