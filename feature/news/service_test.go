package news

import (
	"context"
	"testing"
	"time"

	"github.com/privasearch/search/feature/search"
	"github.com/privasearch/search/pkg/engine"
	"github.com/privasearch/search/store"
	"github.com/privasearch/search/types"
)

type fakeEngine struct {
	name string
	hits []types.Hit
}

func (f *fakeEngine) Name() string                 { return f.name }
func (f *fakeEngine) Categories() []engine.Category { return []engine.Category{engine.CategoryGeneral, engine.CategoryNews, engine.CategoryVideos} }
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

func newTestSearchService(hits []types.Hit) *search.Service {
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

type fakeHistoryStore struct {
	records []store.SearchHistory
}

func (f *fakeHistoryStore) Record(ctx context.Context, h store.SearchHistory) error {
	f.records = append(f.records, h)
	return nil
}
func (f *fakeHistoryStore) List(ctx context.Context, userID string, limit int) ([]store.SearchHistory, error) {
	if len(f.records) == 0 {
		return nil, nil
	}
	if limit > len(f.records) {
		limit = len(f.records)
	}
	return f.records[len(f.records)-limit:], nil
}
func (f *fakeHistoryStore) Clear(ctx context.Context, userID string) error {
	f.records = nil
	return nil
}

func TestBuildHomeFeedCoversEveryCategory(t *testing.T) {
	hits := []types.Hit{{URL: "https://example.com/a", Title: "A"}}
	svc := New(Config{Search: newTestSearchService(hits)})

	feed, err := svc.BuildHomeFeed(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, cat := range []types.Category{types.CategoryNews, types.CategoryGeneral, types.CategoryVideos} {
		if len(feed.Categories[cat]) == 0 {
			t.Errorf("expected hits for category %s", cat)
		}
	}
	if len(feed.TopStories) == 0 {
		t.Error("expected non-empty top stories from the news category")
	}
	if feed.GeneratedAt.IsZero() {
		t.Error("expected GeneratedAt to be set")
	}
}

func TestBuildHomeFeedForYouUsesHistory(t *testing.T) {
	hits := []types.Hit{{URL: "https://example.com/a", Title: "A"}}
	hist := &fakeHistoryStore{records: []store.SearchHistory{{Query: "golang", UserID: "user-1", CreatedAt: time.Now()}}}
	svc := New(Config{Search: newTestSearchService(hits), History: hist})

	feed, err := svc.BuildHomeFeed(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(feed.ForYou) == 0 {
		t.Error("expected for-you shelf to be populated from history")
	}
}

func TestBuildHomeFeedNoHistoryYieldsEmptyForYou(t *testing.T) {
	hits := []types.Hit{{URL: "https://example.com/a", Title: "A"}}
	svc := New(Config{Search: newTestSearchService(hits)})

	feed, err := svc.BuildHomeFeed(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(feed.ForYou) != 0 {
		t.Error("expected empty for-you shelf with no history store configured")
	}
}
