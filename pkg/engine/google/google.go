// Package google implements a search engine.Engine that scrapes Google's
// HTML results page. It issues no API-key requests and carries no session
// state across queries, consistent with the platform's privacy posture.
package google

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/privasearch/search/pkg/engine"
	"github.com/privasearch/search/types"
)

const baseURL = "https://www.google.com/search"

var resultSelector = cascadia.MustCompile("div.g, div[data-hveid]")

// Engine is the google.com HTML scraper.
type Engine struct {
	client *http.Client
}

// New returns a google Engine using http.DefaultClient unless client is
// provided.
func New(client *http.Client) *Engine {
	if client == nil {
		client = http.DefaultClient
	}
	return &Engine{client: client}
}

func (e *Engine) Name() string { return "google" }

func (e *Engine) Categories() []engine.Category {
	return []engine.Category{engine.CategoryGeneral, engine.CategoryImages, engine.CategoryNews}
}

func (e *Engine) BuildRequest(query string, opts engine.SearchOptions) engine.RequestConfig {
	q := url.Values{}
	q.Set("q", query)
	q.Set("num", strconv.Itoa(opts.PerPage))
	if opts.Page > 1 {
		q.Set("start", strconv.Itoa((opts.Page-1)*opts.PerPage))
	}
	if opts.Language != "" {
		q.Set("hl", opts.Language)
	}
	switch opts.Category {
	case engine.CategoryImages:
		q.Set("tbm", "isch")
	case engine.CategoryNews:
		q.Set("tbm", "nws")
	}
	if opts.SafeSearch >= 2 {
		q.Set("safe", "active")
	}
	if opts.TimeRange != "" && opts.TimeRange != "any" {
		q.Set("tbs", "qdr:"+timeRangeCode(opts.TimeRange))
	}
	if opts.SiteInclude != "" {
		q.Set("q", q.Get("q")+" site:"+opts.SiteInclude)
	}
	return engine.RequestConfig{
		Method: http.MethodGet,
		URL:    baseURL + "?" + q.Encode(),
		Headers: map[string]string{
			"User-Agent": "Mozilla/5.0 (compatible; privasearch/1.0)",
			"Accept":     "text/html",
		},
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
	doc.FindMatcher(resultSelector).Each(func(i int, sel *goquery.Selection) {
		link := sel.Find("a[href]").First()
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}
		title := strings.TrimSpace(sel.Find("h3").First().Text())
		if title == "" {
			return
		}
		snippet := strings.TrimSpace(sel.Find("div[data-sncf], span.aCOpRe, div.VwiC3b").First().Text())
		hits = append(hits, types.Hit{
			URL:      cleanGoogleURL(href),
			Title:    title,
			Snippet:  snippet,
			Engine:   e.Name(),
			Score:    1.0 - float64(i)*0.02,
			Category: opts.Category,
		})
	})
	return types.EngineResult{
		Hits:        hits,
		Diagnostics: types.EngineDiagnostics{Engine: e.Name()},
	}
}

// cleanGoogleURL strips Google's "/url?q=" redirect wrapper when present.
func cleanGoogleURL(href string) string {
	if !strings.HasPrefix(href, "/url?") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if q := u.Query().Get("q"); q != "" {
		return q
	}
	return href
}

func (e *Engine) Search(ctx context.Context, query string, opts engine.SearchOptions) (*engine.SearchResponse, error) {
	cfg := e.BuildRequest(query, opts)
	body, err := engine.Fetch(ctx, e.client, cfg)
	if err != nil {
		return nil, fmt.Errorf("google: search %q: %w", query, err)
	}
	res := e.ParseResponse(body, opts)
	return &engine.SearchResponse{
		Query:   query,
		Results: res.Hits,
		Page:    opts.Page,
		PerPage: opts.PerPage,
	}, nil
}

func (e *Engine) Healthz(ctx context.Context) error {
	_, err := engine.Fetch(ctx, e.client, engine.RequestConfig{Method: http.MethodGet, URL: baseURL + "?q=health"})
	return err
}

var _ engine.Engine = (*Engine)(nil)
