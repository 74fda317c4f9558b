package ftslocal

import (
	"context"
	"testing"

	"github.com/privasearch/search/pkg/engine"
	"github.com/privasearch/search/pkg/ftsindex"
	"github.com/privasearch/search/store"
	"github.com/privasearch/search/types"
)

type fakeDriver struct {
	hits []ftsindex.SearchHit
	err  error
}

func (f *fakeDriver) Index(ctx context.Context, doc types.IndexDocument) error      { return nil }
func (f *fakeDriver) IndexBatch(ctx context.Context, docs []types.IndexDocument) error { return nil }
func (f *fakeDriver) Search(ctx context.Context, query string, limit int) ([]ftsindex.SearchHit, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.hits) {
		return f.hits[:limit], nil
	}
	return f.hits, nil
}
func (f *fakeDriver) Delete(ctx context.Context, docID string) error { return nil }
func (f *fakeDriver) Count(ctx context.Context) (int64, error)       { return int64(len(f.hits)), nil }
func (f *fakeDriver) Close() error                                   { return nil }

type fakeIndexStore struct {
	docs map[string]store.Document
}

func (f *fakeIndexStore) Upsert(ctx context.Context, doc store.Document) error { return nil }
func (f *fakeIndexStore) UpsertBatch(ctx context.Context, docs []store.Document) error {
	return nil
}
func (f *fakeIndexStore) Delete(ctx context.Context, url string) error { return nil }
func (f *fakeIndexStore) Get(ctx context.Context, url string) (store.Document, error) {
	d, ok := f.docs[url]
	if !ok {
		return store.Document{}, context.DeadlineExceeded
	}
	return d, nil
}
func (f *fakeIndexStore) Count(ctx context.Context) (int64, error) { return int64(len(f.docs)), nil }

func TestSearchResolvesDocsAndPreservesScore(t *testing.T) {
	driver := &fakeDriver{hits: []ftsindex.SearchHit{
		{DocID: "https://example.com/a", Score: 1.5},
		{DocID: "https://example.com/b", Score: 0.9},
	}}
	docs := &fakeIndexStore{docs: map[string]store.Document{
		"https://example.com/a": {URL: "https://example.com/a", Title: "A", Description: "about A"},
		"https://example.com/b": {URL: "https://example.com/b", Title: "B", Description: "about B"},
	}}
	e := New("ftslocal", driver, docs)

	resp, err := e.Search(context.Background(), "a", engine.SearchOptions{PerPage: 10, Category: engine.CategoryGeneral})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].Title != "A" || resp.Results[0].Score != 1.5 {
		t.Fatalf("unexpected first hit: %+v", resp.Results[0])
	}
}

func TestSearchSkipsUnresolvableDocs(t *testing.T) {
	driver := &fakeDriver{hits: []ftsindex.SearchHit{
		{DocID: "https://example.com/missing", Score: 1.0},
	}}
	docs := &fakeIndexStore{docs: map[string]store.Document{}}
	e := New("ftslocal", driver, docs)

	resp, err := e.Search(context.Background(), "q", engine.SearchOptions{PerPage: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("expected 0 results for an unresolvable doc, got %d", len(resp.Results))
	}
}

func TestHealthzReflectsDriverError(t *testing.T) {
	e := New("ftslocal", &fakeDriver{}, &fakeIndexStore{docs: map[string]store.Document{}})
	if err := e.Healthz(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

var _ engine.Engine = (*Engine)(nil)
