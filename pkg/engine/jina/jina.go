// Package jina implements an engine.Engine wrapping Jina AI's Reader
// proxy (r.jina.ai), which fetches a URL and returns cleaned, LLM-friendly
// text. It is used by the AI summarizer bang and by instant-answer
// enrichment rather than by the general fan-out — it takes a URL, not a
// query.
package jina

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/privasearch/search/pkg/engine"
	"github.com/privasearch/search/types"
)

const readerBase = "https://r.jina.ai/"

// Engine is the Jina Reader adapter.
type Engine struct {
	client *http.Client
}

// New returns a jina Engine using http.DefaultClient unless client is
// provided.
func New(client *http.Client) *Engine {
	if client == nil {
		client = http.DefaultClient
	}
	return &Engine{client: client}
}

func (e *Engine) Name() string { return "jina" }

func (e *Engine) Categories() []engine.Category { return []engine.Category{engine.CategoryGeneral} }

// BuildRequest treats query as the target URL to read, per the reader
// bang's contract (§4.4's AI bangs resolve the URL before calling this).
func (e *Engine) BuildRequest(query string, opts engine.SearchOptions) engine.RequestConfig {
	return engine.RequestConfig{
		Method: http.MethodGet,
		URL:    readerBase + strings.TrimPrefix(query, "https://"),
		Headers: map[string]string{
			"Accept":       "text/plain",
			"X-Return-Format": "text",
		},
	}
}

// ParseResponse wraps the reader's cleaned text as a single synthetic Hit
// carrying the full extracted content in Snippet. If the reader ever
// returns raw HTML instead of pre-cleaned text, it is stripped with
// goquery before wrapping.
func (e *Engine) ParseResponse(body []byte, opts engine.SearchOptions) types.EngineResult {
	text := string(body)
	if looksLikeHTML(text) {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
			text = strings.TrimSpace(doc.Text())
		}
	}
	if text == "" {
		return types.EngineResult{Diagnostics: types.EngineDiagnostics{Engine: e.Name(), Error: "empty reader response"}}
	}
	return types.EngineResult{
		Hits: []types.Hit{{
			Title:   "Reader extract",
			Snippet: text,
			Engine:  e.Name(),
			Score:   1.0,
		}},
		Diagnostics: types.EngineDiagnostics{Engine: e.Name()},
	}
}

func looksLikeHTML(s string) bool {
	trimmed := strings.TrimSpace(s)
	return strings.HasPrefix(trimmed, "<!DOCTYPE") || strings.HasPrefix(trimmed, "<html")
}

func (e *Engine) Search(ctx context.Context, query string, opts engine.SearchOptions) (*engine.SearchResponse, error) {
	cfg := e.BuildRequest(query, opts)
	body, err := engine.Fetch(ctx, e.client, cfg)
	if err != nil {
		return nil, fmt.Errorf("jina: read %q: %w", query, err)
	}
	res := e.ParseResponse(body, opts)
	return &engine.SearchResponse{Query: query, Results: res.Hits}, nil
}

func (e *Engine) Healthz(ctx context.Context) error {
	_, err := engine.Fetch(ctx, e.client, engine.RequestConfig{Method: http.MethodGet, URL: readerBase + "https://example.com"})
	return err
}

var _ engine.Engine = (*Engine)(nil)
