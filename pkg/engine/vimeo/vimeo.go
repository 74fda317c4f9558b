// Package vimeo implements a search engine.Engine against Vimeo's public
// oEmbed-adjacent JSON search endpoint.
package vimeo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/privasearch/search/pkg/engine"
	"github.com/privasearch/search/types"
)

const searchURL = "https://vimeo.com/_next/search"

// Engine is the Vimeo video-vertical adapter.
type Engine struct {
	client *http.Client
}

// New returns a vimeo Engine using http.DefaultClient unless client is
// provided.
func New(client *http.Client) *Engine {
	if client == nil {
		client = http.DefaultClient
	}
	return &Engine{client: client}
}

func (e *Engine) Name() string { return "vimeo" }

func (e *Engine) Categories() []engine.Category { return []engine.Category{engine.CategoryVideos} }

func (e *Engine) BuildRequest(query string, opts engine.SearchOptions) engine.RequestConfig {
	q := url.Values{}
	q.Set("q", query)
	q.Set("type", "videos")
	q.Set("page", strconv.Itoa(opts.Page))
	return engine.RequestConfig{
		Method: http.MethodGet,
		URL:    searchURL + "?" + q.Encode(),
		Headers: map[string]string{
			"Accept": "application/json",
		},
	}
}

func (e *Engine) ParseResponse(body []byte, opts engine.SearchOptions) types.EngineResult {
	if !gjson.ValidBytes(body) {
		return types.EngineResult{Diagnostics: types.EngineDiagnostics{Engine: e.Name(), Error: "invalid json body"}}
	}
	results := gjson.GetBytes(body, "results")
	var hits []types.Hit
	i := 0
	results.ForEach(func(_, v gjson.Result) bool {
		clip := v.Get("clip")
		link := clip.Get("link").String()
		title := clip.Get("name").String()
		if link == "" || title == "" {
			return true
		}
		hits = append(hits, types.Hit{
			URL:      link,
			Title:    title,
			Snippet:  clip.Get("description").String(),
			Engine:   e.Name(),
			Score:    1.0 - float64(i)*0.02,
			Category: engine.CategoryVideos,
			Media: types.OptionalMedia{
				ThumbnailURL: clip.Get("pictures.base_link").String(),
				DurationSecs: int(clip.Get("duration").Int()),
				Channel:      clip.Get("user.name").String(),
				Views:        clip.Get("stats.plays").Int(),
			},
		})
		i++
		return true
	})
	return types.EngineResult{Hits: hits, Diagnostics: types.EngineDiagnostics{Engine: e.Name()}}
}

func (e *Engine) Search(ctx context.Context, query string, opts engine.SearchOptions) (*engine.SearchResponse, error) {
	cfg := e.BuildRequest(query, opts)
	body, err := engine.Fetch(ctx, e.client, cfg)
	if err != nil {
		return nil, fmt.Errorf("vimeo: search %q: %w", query, err)
	}
	res := e.ParseResponse(body, opts)
	return &engine.SearchResponse{Query: query, Results: res.Hits, Page: opts.Page, PerPage: opts.PerPage}, nil
}

func (e *Engine) Healthz(ctx context.Context) error {
	_, err := engine.Fetch(ctx, e.client, engine.RequestConfig{Method: http.MethodGet, URL: "https://vimeo.com/"})
	return err
}

var _ engine.Engine = (*Engine)(nil)
