// Package ftslocal adapts a pkg/ftsindex.Driver to the engine.Engine
// contract, the same shape pkg/engine/local uses for the sqlite-backed
// local index. Registering this engine alongside (or instead of) "local"
// is how SPEC_FULL.md §4.9's alternate-driver path (bluge vs sqlite FTS5)
// reaches the metasearch coordinator: the coordinator only ever sees an
// Engine, never the driver underneath it.
package ftslocal

import (
	"context"
	"fmt"

	"github.com/privasearch/search/pkg/engine"
	"github.com/privasearch/search/pkg/ftsindex"
	"github.com/privasearch/search/store"
	"github.com/privasearch/search/types"
)

// Engine adapts an ftsindex.Driver plus the store.IndexStore holding
// document metadata (title/description) to engine.Engine.
type Engine struct {
	name   string
	driver ftsindex.Driver
	docs   store.IndexStore
}

// New returns an Engine named name, searching driver and resolving each
// hit's DocID against docs for display fields.
func New(name string, driver ftsindex.Driver, docs store.IndexStore) *Engine {
	return &Engine{name: name, driver: driver, docs: docs}
}

func (e *Engine) Name() string { return e.name }

func (e *Engine) Categories() []engine.Category { return []engine.Category{engine.CategoryGeneral} }

// BuildRequest is a no-op: ftslocal has no outbound HTTP request, but it
// still satisfies the interface for registry uniformity.
func (e *Engine) BuildRequest(query string, opts engine.SearchOptions) engine.RequestConfig {
	return engine.RequestConfig{URL: "ftslocal://" + query}
}

// ParseResponse always returns a zero-hit result; results come from
// Search directly against the driver.
func (e *Engine) ParseResponse(body []byte, opts engine.SearchOptions) types.EngineResult {
	return types.EngineResult{Diagnostics: types.EngineDiagnostics{Engine: e.Name()}}
}

func (e *Engine) Search(ctx context.Context, query string, opts engine.SearchOptions) (*engine.SearchResponse, error) {
	limit := opts.PerPage
	if limit <= 0 {
		limit = 10
	}
	hits, err := e.driver.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ftslocal: search %q: %w", query, err)
	}

	results := make([]types.Hit, 0, len(hits))
	for _, h := range hits {
		doc, err := e.docs.Get(ctx, h.DocID)
		if err != nil {
			continue
		}
		results = append(results, types.Hit{
			URL:      doc.URL,
			Title:    doc.Title,
			Snippet:  doc.Description,
			Engine:   e.Name(),
			Score:    h.Score,
			Category: opts.Category,
		})
	}
	return &engine.SearchResponse{
		Query:        query,
		Results:      results,
		Page:         opts.Page,
		PerPage:      opts.PerPage,
		TotalResults: len(results),
	}, nil
}

func (e *Engine) Healthz(ctx context.Context) error {
	_, err := e.driver.Count(ctx)
	return err
}

var _ engine.Engine = (*Engine)(nil)
