// Package bing implements a search engine.Engine that scrapes Bing's
// HTML results page.
package bing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/privasearch/search/pkg/engine"
	"github.com/privasearch/search/types"
)

const baseURL = "https://www.bing.com/search"

// Engine is the bing.com HTML scraper.
type Engine struct {
	client *http.Client
}

// New returns a bing Engine using http.DefaultClient unless client is
// provided.
func New(client *http.Client) *Engine {
	if client == nil {
		client = http.DefaultClient
	}
	return &Engine{client: client}
}

func (e *Engine) Name() string { return "bing" }

func (e *Engine) Categories() []engine.Category {
	return []engine.Category{engine.CategoryGeneral, engine.CategoryImages, engine.CategoryNews}
}

func (e *Engine) BuildRequest(query string, opts engine.SearchOptions) engine.RequestConfig {
	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(opts.PerPage))
	if opts.Page > 1 {
		q.Set("first", strconv.Itoa((opts.Page-1)*opts.PerPage+1))
	}
	if opts.Language != "" {
		q.Set("setlang", opts.Language)
	}
	if opts.TimeRange != "" && opts.TimeRange != "any" {
		q.Set("filters", `ex1:"ez5_`+timeRangeCode(opts.TimeRange)+`"`)
	}
	switch opts.Category {
	case engine.CategoryImages:
		return engine.RequestConfig{
			Method: http.MethodGet,
			URL:    "https://www.bing.com/images/search?" + q.Encode(),
			Headers: map[string]string{
				"User-Agent": "Mozilla/5.0 (compatible; privasearch/1.0)",
			},
		}
	case engine.CategoryNews:
		return engine.RequestConfig{
			Method: http.MethodGet,
			URL:    "https://www.bing.com/news/search?" + q.Encode(),
			Headers: map[string]string{
				"User-Agent": "Mozilla/5.0 (compatible; privasearch/1.0)",
			},
		}
	}
	return engine.RequestConfig{
		Method: http.MethodGet,
		URL:    baseURL + "?" + q.Encode(),
		Headers: map[string]string{
			"User-Agent": "Mozilla/5.0 (compatible; privasearch/1.0)",
		},
	}
}

func timeRangeCode(tr string) string {
	switch tr {
	case "day":
		return "1"
	case "week":
		return "7"
	case "month":
		return "30"
	case "year":
		return "365"
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
	doc.Find("li.b_algo").Each(func(i int, sel *goquery.Selection) {
		link := sel.Find("h2 a").First()
		href, ok := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if !ok || href == "" || title == "" {
			return
		}
		snippet := strings.TrimSpace(sel.Find("div.b_caption p").First().Text())
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
		return nil, fmt.Errorf("bing: search %q: %w", query, err)
	}
	res := e.ParseResponse(body, opts)
	return &engine.SearchResponse{Query: query, Results: res.Hits, Page: opts.Page, PerPage: opts.PerPage}, nil
}

func (e *Engine) Healthz(ctx context.Context) error {
	_, err := engine.Fetch(ctx, e.client, engine.RequestConfig{Method: http.MethodGet, URL: baseURL + "?q=health"})
	return err
}

var _ engine.Engine = (*Engine)(nil)
