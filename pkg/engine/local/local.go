// Package local wraps the locally indexed corpus (store.SearchStore) as
// an engine.Engine so it participates in fan-out alongside remote
// scrapers. It performs no network I/O: BuildRequest/ParseResponse are
// not meaningful here, and Search goes straight to the store.
package local

import (
	"context"
	"fmt"

	"github.com/privasearch/search/pkg/engine"
	"github.com/privasearch/search/store"
	"github.com/privasearch/search/types"
)

// Engine adapts a store.SearchStore to the engine.Engine contract.
type Engine struct {
	store store.SearchStore
}

// New returns a local Engine backed by the given SearchStore.
func New(s store.SearchStore) *Engine {
	return &Engine{store: s}
}

func (e *Engine) Name() string { return "local" }

func (e *Engine) Categories() []engine.Category { return []engine.Category{engine.CategoryGeneral} }

// BuildRequest is a no-op: the local engine has no outbound HTTP request,
// but it still satisfies the interface for registry uniformity.
func (e *Engine) BuildRequest(query string, opts engine.SearchOptions) engine.RequestConfig {
	return engine.RequestConfig{URL: "local://" + query}
}

// ParseResponse always returns a zero-hit result; local results are
// produced by Search directly against the store; ParseResponse exists
// only to satisfy engine.Engine.
func (e *Engine) ParseResponse(body []byte, opts engine.SearchOptions) types.EngineResult {
	return types.EngineResult{Diagnostics: types.EngineDiagnostics{Engine: e.Name()}}
}

func (e *Engine) Search(ctx context.Context, query string, opts engine.SearchOptions) (*engine.SearchResponse, error) {
	docs, total, err := e.store.Search(ctx, query, store.SearchOptions{
		Page:        opts.Page,
		PerPage:     opts.PerPage,
		Site:        opts.SiteInclude,
		ExcludeSite: opts.SiteExclude,
		Language:    opts.Language,
		Verbatim:    opts.Verbatim,
	})
	if err != nil {
		return nil, fmt.Errorf("local: search %q: %w", query, err)
	}
	hits := make([]types.Hit, 0, len(docs))
	for i, d := range docs {
		hits = append(hits, types.Hit{
			URL:      d.URL,
			Title:    d.Title,
			Snippet:  d.Description,
			Engine:   e.Name(),
			Score:    1.0 - float64(i)*0.01,
			Category: opts.Category,
		})
	}
	return &engine.SearchResponse{
		Query:        query,
		Results:      hits,
		Page:         opts.Page,
		PerPage:      opts.PerPage,
		TotalResults: total,
	}, nil
}

func (e *Engine) Healthz(ctx context.Context) error {
	_, err := e.store.Suggest(ctx, "", 1)
	return err
}

var _ engine.Engine = (*Engine)(nil)
