// Package enrich surfaces independent web/news sources alongside the
// mainstream engine results and feeds discovered pages into the local
// index.
package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/privasearch/search/store"
	"github.com/privasearch/search/types"
)

// EnrichmentResult is one small-web entry surfaced to the caller, paired
// with the source type it was retrieved under.
type EnrichmentResult struct {
	Entry types.SmallWebEntry
}

// Service searches and maintains the small-web corpus.
type Service struct {
	smallWeb store.SmallWebStore
	index    store.IndexStore
}

// NewService returns a Service backed by the given stores.
func NewService(smallWeb store.SmallWebStore, index store.IndexStore) *Service {
	return &Service{smallWeb: smallWeb, index: index}
}

// SearchWeb returns small-web entries of source type "web" matching query.
func (s *Service) SearchWeb(ctx context.Context, query string, limit int) ([]EnrichmentResult, error) {
	entries, err := s.smallWeb.Search(ctx, query, "web", limit)
	if err != nil {
		return nil, fmt.Errorf("enrich: search web: %w", err)
	}
	return toEnrichmentResults(entries), nil
}

// SearchNews returns small-web entries of source type "news" matching query.
func (s *Service) SearchNews(ctx context.Context, query string, limit int) ([]EnrichmentResult, error) {
	entries, err := s.smallWeb.Search(ctx, query, "news", limit)
	if err != nil {
		return nil, fmt.Errorf("enrich: search news: %w", err)
	}
	return toEnrichmentResults(entries), nil
}

// Index registers a discovered small-web page so future SearchWeb/
// SearchNews calls can surface it, and mirrors it into the local
// full-text IndexStore so it also participates in general-category
// fan-out via the local engine.
func (s *Service) Index(ctx context.Context, url, title, snippet, domain, sourceType string, publishedAt time.Time) error {
	entry := types.SmallWebEntry{
		ID:          generateID(),
		URL:         url,
		Title:       title,
		Snippet:     snippet,
		SourceType:  sourceType,
		Domain:      domain,
		PublishedAt: publishedAt,
	}
	if err := s.smallWeb.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("enrich: index small web entry %s: %w", url, err)
	}
	if s.index != nil {
		doc := store.Document{
			URL:         url,
			Title:       title,
			Description: snippet,
			Domain:      domain,
			ContentType: "text/html",
		}
		if err := s.index.Upsert(ctx, doc); err != nil {
			return fmt.Errorf("enrich: mirror %s into index: %w", url, err)
		}
	}
	return nil
}

// generateID returns a fresh small-web entry identifier.
func generateID() string {
	return uuid.NewString()
}

func toEnrichmentResults(entries []types.SmallWebEntry) []EnrichmentResult {
	out := make([]EnrichmentResult, len(entries))
	for i, e := range entries {
		out[i] = EnrichmentResult{Entry: e}
	}
	return out
}
