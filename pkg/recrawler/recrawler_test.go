package recrawler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/privasearch/search/types"
)

func TestDomainHealthThreshold(t *testing.T) {
	h := newDomainHealth(3)
	if h.isDead("slow.example") {
		t.Fatal("fresh domain should not be dead")
	}
	if h.recordFailure("slow.example") {
		t.Fatal("1st failure should not mark dead")
	}
	if h.recordFailure("slow.example") {
		t.Fatal("2nd failure should not mark dead")
	}
	if !h.recordFailure("slow.example") {
		t.Fatal("3rd failure should mark dead at threshold 3")
	}
	if !h.isDead("slow.example") {
		t.Fatal("domain should be dead after threshold failures")
	}
}

func TestDomainHealthSuccessResetsCount(t *testing.T) {
	h := newDomainHealth(3)
	h.recordFailure("flaky.example")
	h.recordFailure("flaky.example")
	h.recordSuccess("flaky.example")
	if h.recordFailure("flaky.example") {
		t.Fatal("failure count should have reset after success")
	}
}

func TestDomainHealthMarkDead(t *testing.T) {
	h := newDomainHealth(3)
	h.markDead("dead.example")
	if !h.isDead("dead.example") {
		t.Fatal("markDead should take effect immediately")
	}
}

func TestSeedsForDomains(t *testing.T) {
	seeds := []types.SeedURL{
		{URL: "https://a.example/1", Domain: "a.example"},
		{URL: "https://b.example/1", Domain: "b.example"},
		{URL: "https://a.example/2", Domain: "a.example"},
	}
	alive := map[string]bool{"a.example": true}
	out := seedsForDomains(seeds, alive)
	if len(out) != 2 {
		t.Fatalf("expected 2 survivors, got %d", len(out))
	}
	for _, s := range out {
		if s.Domain != "a.example" {
			t.Fatalf("unexpected survivor domain %s", s.Domain)
		}
	}
}

func TestWithBackoffSucceedsEventually(t *testing.T) {
	attempts := 0
	err := withBackoff(context.Background(), 5, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithBackoffExhaustsRetries(t *testing.T) {
	calls := 0
	err := withBackoff(context.Background(), 2, func() error {
		calls++
		return errors.New("permanent")
	})
	if err == nil {
		t.Fatal("expected fatal error after exhausting retries")
	}
	if calls != 3 {
		t.Fatalf("expected 1 initial + 2 retries = 3 calls, got %d", calls)
	}
}

func TestWithBackoffRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := withBackoff(ctx, 5, func() error { return errors.New("boom") })
	if err == nil {
		t.Fatal("expected error on cancelled context")
	}
}

// fakeResultStore and fakeStateStore are minimal in-memory stand-ins for
// store.CrawlResultStore/CrawlStateStore, letting batchWriter tests run
// without sqlite.
type fakeResultStore struct {
	mu      sync.Mutex
	batches [][]types.CrawlResult
	failN   int
}

func (f *fakeResultStore) SaveBatch(ctx context.Context, results []types.CrawlResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failN > 0 {
		f.failN--
		return errors.New("simulated flush failure")
	}
	cp := append([]types.CrawlResult(nil), results...)
	f.batches = append(f.batches, cp)
	return nil
}

type fakeStateStore struct {
	mu      sync.Mutex
	states  map[string]types.CrawlState
	batches int
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{states: make(map[string]types.CrawlState)}
}

func (f *fakeStateStore) Get(ctx context.Context, url string) (types.CrawlState, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.states[url]
	return s, ok, nil
}

func (f *fakeStateStore) Save(ctx context.Context, s types.CrawlState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[s.URL] = s
	return nil
}

func (f *fakeStateStore) SaveBatch(ctx context.Context, states []types.CrawlState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches++
	for _, s := range states {
		f.states[s.URL] = s
	}
	return nil
}

func (f *fakeStateStore) Processed(ctx context.Context, since time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for url, s := range f.states {
		if !s.LastCrawledAt.Before(since) {
			out = append(out, url)
		}
	}
	return out, nil
}

func TestBatchWriterFlushesOnBatchSizeAndAtEnd(t *testing.T) {
	results := &fakeResultStore{}
	states := newFakeStateStore()
	cfg := Config{BatchSize: 2, MaxWriteRetries: 1}.WithDefaults()
	cfg.BatchSize = 2
	w := newBatchWriter(cfg, results, states)

	in := make(chan outcome, 3)
	in <- outcome{result: &types.CrawlResult{URL: "https://a.example/1"}, state: types.CrawlState{URL: "https://a.example/1"}}
	in <- outcome{result: &types.CrawlResult{URL: "https://a.example/2"}, state: types.CrawlState{URL: "https://a.example/2"}}
	in <- outcome{result: &types.CrawlResult{URL: "https://a.example/3"}, state: types.CrawlState{URL: "https://a.example/3"}}
	close(in)

	stats, err := w.run(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Fetched != 3 {
		t.Fatalf("expected 3 fetched, got %d", stats.Fetched)
	}
	if len(results.batches) != 2 {
		t.Fatalf("expected 2 flushed batches (2+1), got %d", len(results.batches))
	}
}

func TestBatchWriterCountsErrored(t *testing.T) {
	results := &fakeResultStore{}
	states := newFakeStateStore()
	cfg := Config{BatchSize: 10}.WithDefaults()
	w := newBatchWriter(cfg, results, states)

	in := make(chan outcome, 2)
	in <- outcome{result: &types.CrawlResult{URL: "https://a.example/1", Error: "timeout"}}
	in <- outcome{result: &types.CrawlResult{URL: "https://a.example/2"}}
	close(in)

	stats, err := w.run(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Errored != 1 || stats.Fetched != 1 {
		t.Fatalf("expected 1 errored and 1 fetched, got %+v", stats)
	}
}

func TestBatchWriterPropagatesFatalFlushFailure(t *testing.T) {
	results := &fakeResultStore{failN: 10}
	states := newFakeStateStore()
	cfg := Config{BatchSize: 1, MaxWriteRetries: 1}.WithDefaults()
	cfg.BatchSize = 1
	w := newBatchWriter(cfg, results, states)

	in := make(chan outcome, 1)
	in <- outcome{result: &types.CrawlResult{URL: "https://a.example/1"}}
	close(in)

	start := time.Now()
	_, err := w.run(context.Background(), in)
	if err == nil {
		t.Fatal("expected fatal error after retries exhausted")
	}
	if time.Since(start) < 100*time.Millisecond {
		t.Fatal("expected backoff to have delayed retries")
	}
}

func TestResumeProcessedFiltersByWindow(t *testing.T) {
	states := newFakeStateStore()
	now := time.Now().UTC()
	_ = states.Save(context.Background(), types.CrawlState{URL: "https://a.example/old", LastCrawledAt: now.Add(-48 * time.Hour)})
	_ = states.Save(context.Background(), types.CrawlState{URL: "https://a.example/new", LastCrawledAt: now})

	processed, err := resumeProcessed(context.Background(), states, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !processed["https://a.example/new"] {
		t.Fatal("expected recent URL to be in processed set")
	}
	if processed["https://a.example/old"] {
		t.Fatal("expected stale URL to be excluded from processed set")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()
	if cfg.Workers != 200 || cfg.DNSWorkers != 2000 || cfg.BatchSize != 5000 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Mode != FetchFull {
		t.Fatalf("expected default mode full, got %s", cfg.Mode)
	}
}
