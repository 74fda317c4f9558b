package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/privasearch/search/store"
	"github.com/privasearch/search/types"
)

type fakeSmallWeb struct {
	entries []types.SmallWebEntry
}

func (f *fakeSmallWeb) Upsert(ctx context.Context, e types.SmallWebEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeSmallWeb) Search(ctx context.Context, query, sourceType string, limit int) ([]types.SmallWebEntry, error) {
	var out []types.SmallWebEntry
	for _, e := range f.entries {
		if e.SourceType != sourceType {
			continue
		}
		out = append(out, e)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type fakeIndex struct {
	docs map[string]store.Document
}

func (f *fakeIndex) Upsert(ctx context.Context, doc store.Document) error {
	if f.docs == nil {
		f.docs = map[string]store.Document{}
	}
	f.docs[doc.URL] = doc
	return nil
}
func (f *fakeIndex) UpsertBatch(ctx context.Context, docs []store.Document) error { return nil }
func (f *fakeIndex) Delete(ctx context.Context, url string) error                 { return nil }
func (f *fakeIndex) Get(ctx context.Context, url string) (store.Document, error) {
	return f.docs[url], nil
}
func (f *fakeIndex) Count(ctx context.Context) (int64, error) { return int64(len(f.docs)), nil }

func TestIndexMirrorsIntoSmallWebAndFullTextIndex(t *testing.T) {
	sw := &fakeSmallWeb{}
	idx := &fakeIndex{}
	s := NewService(sw, idx)

	if err := s.Index(context.Background(), "https://blog.example/post", "A post", "a snippet", "blog.example", "web", time.Time{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sw.entries) != 1 {
		t.Fatalf("expected 1 small-web entry, got %d", len(sw.entries))
	}
	if sw.entries[0].ID == "" {
		t.Fatalf("expected a generated ID")
	}
	doc, ok := idx.docs["https://blog.example/post"]
	if !ok {
		t.Fatalf("expected the entry mirrored into the full-text index")
	}
	if doc.Title != "A post" {
		t.Fatalf("expected mirrored doc title %q, got %q", "A post", doc.Title)
	}
}

func TestSearchWebFiltersBySourceType(t *testing.T) {
	sw := &fakeSmallWeb{entries: []types.SmallWebEntry{
		{URL: "https://a.example", SourceType: "web"},
		{URL: "https://b.example", SourceType: "news"},
	}}
	s := NewService(sw, nil)

	results, err := s.SearchWeb(context.Background(), "q", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Entry.URL != "https://a.example" {
		t.Fatalf("expected only the web entry, got %v", results)
	}
}

func TestSearchNewsFiltersBySourceType(t *testing.T) {
	sw := &fakeSmallWeb{entries: []types.SmallWebEntry{
		{URL: "https://a.example", SourceType: "web"},
		{URL: "https://b.example", SourceType: "news"},
	}}
	s := NewService(sw, nil)

	results, err := s.SearchNews(context.Background(), "q", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Entry.URL != "https://b.example" {
		t.Fatalf("expected only the news entry, got %v", results)
	}
}

func TestIndexWithoutLocalIndexSkipsMirroring(t *testing.T) {
	sw := &fakeSmallWeb{}
	s := NewService(sw, nil)

	if err := s.Index(context.Background(), "https://a.example", "t", "s", "a.example", "web", time.Time{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sw.entries) != 1 {
		t.Fatalf("expected the small-web upsert to still happen, got %d entries", len(sw.entries))
	}
}
