// Package peertube implements a search engine.Engine against the Sepia
// Search federated index (search.joinpeertube.org), which aggregates
// public PeerTube instances behind one JSON API and needs no API key.
package peertube

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

const searchURL = "https://sepiasearch.org/api/v1/search/videos"

// Engine is the PeerTube/Sepia-Search video-vertical adapter.
type Engine struct {
	client *http.Client
}

// New returns a peertube Engine using http.DefaultClient unless client is
// provided.
func New(client *http.Client) *Engine {
	if client == nil {
		client = http.DefaultClient
	}
	return &Engine{client: client}
}

func (e *Engine) Name() string { return "peertube" }

func (e *Engine) Categories() []engine.Category { return []engine.Category{engine.CategoryVideos} }

func (e *Engine) BuildRequest(query string, opts engine.SearchOptions) engine.RequestConfig {
	q := url.Values{}
	q.Set("search", query)
	q.Set("count", strconv.Itoa(opts.PerPage))
	q.Set("start", strconv.Itoa((opts.Page-1)*opts.PerPage))
	q.Set("sort", "-match")
	if opts.SafeSearch >= 1 {
		q.Set("nsfw", "false")
	}
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
	data := gjson.GetBytes(body, "data")
	var hits []types.Hit
	i := 0
	data.ForEach(func(_, v gjson.Result) bool {
		watchURL := v.Get("url").String()
		title := v.Get("name").String()
		if watchURL == "" || title == "" {
			return true
		}
		hits = append(hits, types.Hit{
			URL:      watchURL,
			Title:    title,
			Snippet:  v.Get("description").String(),
			Engine:   e.Name(),
			Score:    1.0 - float64(i)*0.02,
			Category: engine.CategoryVideos,
			Media: types.OptionalMedia{
				ThumbnailURL: v.Get("thumbnailUrl").String(),
				DurationSecs: int(v.Get("duration").Int()),
				Channel:      v.Get("channel.displayName").String(),
				Views:        v.Get("views").Int(),
				PublishedAt:  v.Get("publishedAt").String(),
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
		return nil, fmt.Errorf("peertube: search %q: %w", query, err)
	}
	res := e.ParseResponse(body, opts)
	return &engine.SearchResponse{Query: query, Results: res.Hits, Page: opts.Page, PerPage: opts.PerPage}, nil
}

func (e *Engine) Healthz(ctx context.Context) error {
	_, err := engine.Fetch(ctx, e.client, engine.RequestConfig{Method: http.MethodGet, URL: searchURL + "?search=health&count=1"})
	return err
}

var _ engine.Engine = (*Engine)(nil)
