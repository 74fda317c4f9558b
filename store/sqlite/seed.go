package sqlite

import (
	"context"
	"fmt"

	"github.com/privasearch/search/store"
	"github.com/privasearch/search/types"
)

// builtinExternalBangs are the process-startup external-redirect bang
// entries from §4.4/§8: a "!trigger" that rewrites straight to an
// upstream search URL rather than through meta-search. They're seeded
// into the bangs table under the empty user ID, the same slot the bang
// resolver's store fallback looks up after the built-in in-process table
// (category/time/ai/lucky triggers handled directly in feature/bang).
var builtinExternalBangs = []types.Bang{
	{Trigger: "yt", Name: "YouTube", URLTemplate: "https://www.youtube.com/results?search_query={query}", IsExternal: true},
	{Trigger: "w", Name: "Wikipedia", URLTemplate: "https://en.wikipedia.org/wiki/Special:Search?search={query}", IsExternal: true},
	{Trigger: "gh", Name: "GitHub", URLTemplate: "https://github.com/search?q={query}", IsExternal: true},
	{Trigger: "a", Name: "Amazon", URLTemplate: "https://www.amazon.com/s?k={query}", IsExternal: true},
	{Trigger: "so", Name: "Stack Overflow", URLTemplate: "https://stackoverflow.com/search?q={query}", IsExternal: true},
	{Trigger: "maps", Name: "Google Maps", URLTemplate: "https://www.google.com/maps/search/{query}", IsExternal: true},
	{Trigger: "tr", Name: "Google Translate", URLTemplate: "https://translate.google.com/?text={query}", IsExternal: true},
}

// SeedBuiltinBangs idempotently inserts the built-in external bang table.
// Safe to call on every process start; existing rows are left untouched.
func (s *Store) SeedBuiltinBangs(ctx context.Context) error {
	for _, b := range builtinExternalBangs {
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM bangs WHERE user_id = '' AND trigger = ?`, b.Trigger).Scan(&exists); err != nil {
			return fmt.Errorf("sqlite: seed bangs check %q: %w", b.Trigger, err)
		}
		if exists > 0 {
			continue
		}
		if _, err := s.Bang().Create(ctx, b); err != nil {
			return fmt.Errorf("sqlite: seed bang %q: %w", b.Trigger, err)
		}
	}
	return nil
}

// SeedKnowledge inserts a handful of knowledge-panel entities used by
// tests and local demos.
func (s *Store) SeedKnowledge(ctx context.Context) error {
	entities := []store.Entity{
		{
			Name:        "Go",
			Type:        "programming_language",
			Description: "Go is an open source programming language that makes it easy to build simple, reliable, and efficient software.",
			Facts:       map[string]any{"designed_by": "Robert Griesemer, Rob Pike, Ken Thompson", "first_appeared": "2009"},
			Links:       []types.Link{{Title: "go.dev", URL: "https://go.dev"}},
		},
	}
	for _, e := range entities {
		if err := s.Knowledge().Upsert(ctx, e); err != nil {
			return fmt.Errorf("sqlite: seed knowledge %q: %w", e.Name, err)
		}
	}
	return nil
}

// SeedDocuments inserts a handful of documents into the local full-text
// index so SearchStore.Search has something to find without a remote
// engine.
func (s *Store) SeedDocuments(ctx context.Context) error {
	docs := []store.Document{
		{URL: "https://go.dev/", Title: "The Go Programming Language", Content: "Go is an open source programming language", Domain: "go.dev"},
		{URL: "https://pkg.go.dev/", Title: "Go Packages", Content: "Discover packages for your Go programming needs", Domain: "pkg.go.dev"},
		{URL: "https://go.dev/doc/tutorial/getting-started", Title: "Getting Started - The Go Programming Language", Content: "A tutorial to get started programming in Go", Domain: "go.dev"},
	}
	return s.Index().UpsertBatch(ctx, docs)
}

// SeedCurrencyRates inserts a handful of fixed exchange rates for tests
// and offline demos; production deployments refresh this table from the
// out-of-scope rate-feed job described in §4.5.
func (s *Store) SeedCurrencyRates(ctx context.Context) error {
	rates := map[[2]string]float64{
		{"USD", "EUR"}: 0.92,
		{"USD", "GBP"}: 0.79,
		{"USD", "JPY"}: 149.50,
	}
	for pair, rate := range rates {
		if err := s.Currency().SetRate(ctx, pair[0], pair[1], rate); err != nil {
			return fmt.Errorf("sqlite: seed currency rate %s->%s: %w", pair[0], pair[1], err)
		}
	}
	return nil
}

// SeedDictionary inserts a handful of dictionary entries for tests.
func (s *Store) SeedDictionary(ctx context.Context) error {
	entries := []store.DictionaryEntry{
		{Word: "ubiquitous", Definition: "present, appearing, or found everywhere", Synonyms: []string{"omnipresent", "pervasive"}},
		{Word: "ephemeral", Definition: "lasting for a very short time", Synonyms: []string{"transient", "fleeting"}},
	}
	for _, e := range entries {
		if err := s.Dictionary().Upsert(ctx, e); err != nil {
			return fmt.Errorf("sqlite: seed dictionary %q: %w", e.Word, err)
		}
	}
	return nil
}
