// Package duckduckgo implements a search engine.Engine against DuckDuckGo's
// no-JS HTML endpoint (html.duckduckgo.com), which requires no API key and
// serves unpersonalized results.
package duckduckgo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/privasearch/search/pkg/engine"
	"github.com/privasearch/search/types"
)

const baseURL = "https://html.duckduckgo.com/html/"

// Engine is the DuckDuckGo HTML scraper.
type Engine struct {
	client *http.Client
}

// New returns a duckduckgo Engine using http.DefaultClient unless client
// is provided.
func New(client *http.Client) *Engine {
	if client == nil {
		client = http.DefaultClient
	}
	return &Engine{client: client}
}

func (e *Engine) Name() string { return "duckduckgo" }

func (e *Engine) Categories() []engine.Category {
	return []engine.Category{engine.CategoryGeneral, engine.CategoryNews}
}

func (e *Engine) BuildRequest(query string, opts engine.SearchOptions) engine.RequestConfig {
	q := url.Values{}
	q.Set("q", query)
	if opts.Region != "" {
		q.Set("kl", opts.Region)
	}
	if opts.SafeSearch == 0 {
		q.Set("kp", "-2")
	} else if opts.SafeSearch >= 2 {
		q.Set("kp", "1")
	}
	if opts.TimeRange != "" && opts.TimeRange != "any" {
		q.Set("df", timeRangeCode(opts.TimeRange))
	}
	return engine.RequestConfig{
		Method: http.MethodPost,
		URL:    baseURL,
		Headers: map[string]string{
			"User-Agent":   "Mozilla/5.0 (compatible; privasearch/1.0)",
			"Content-Type": "application/x-www-form-urlencoded",
		},
		Body: []byte(q.Encode()),
	}
}

func timeRangeCode(tr string) string {
	switch tr {
	case "day":
		return "d"
	case "week":
		return "w"
	case "month":
		return "m"
	case "year":
		return "y"
	default:
		return ""
	}
}

func (e *Engine) ParseResponse(body []byte, opts engine.SearchOptions) types.EngineResult {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return types.EngineResult{Diagnostics: types.EngineDiagnostics{Engine: e.Name(), Error: err.Error()}}
	}
	var hits []types.Hit
	doc.Find("div.result").Each(func(i int, sel *goquery.Selection) {
		link := sel.Find("a.result__a").First()
		href, ok := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if !ok || href == "" || title == "" {
			return
		}
		snippet := strings.TrimSpace(sel.Find("a.result__snippet").First().Text())
		hits = append(hits, types.Hit{
			URL:      href,
			Title:    title,
			Snippet:  snippet,
			Engine:   e.Name(),
			Score:    1.0 - float64(i)*0.02,
			Category: opts.Category,
		})
	})
	return types.EngineResult{Hits: hits, Diagnostics: types.EngineDiagnostics{Engine: e.Name()}}
}

func (e *Engine) Search(ctx context.Context, query string, opts engine.SearchOptions) (*engine.SearchResponse, error) {
	cfg := e.BuildRequest(query, opts)
	body, err := engine.Fetch(ctx, e.client, cfg)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: search %q: %w", query, err)
	}
	res := e.ParseResponse(body, opts)
	return &engine.SearchResponse{Query: query, Results: res.Hits, Page: opts.Page, PerPage: opts.PerPage}, nil
}

func (e *Engine) Healthz(ctx context.Context) error {
	_, err := engine.Fetch(ctx, e.client, engine.RequestConfig{Method: http.MethodGet, URL: "https://html.duckduckgo.com/html/?q=health"})
	return err
}

var _ engine.Engine = (*Engine)(nil)
