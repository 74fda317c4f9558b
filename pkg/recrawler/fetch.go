package recrawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/RadhiFadlillah/whatlanggo"

	"github.com/privasearch/search/types"
)

// maxBodyBytes caps how much of a response the full-fetch mode reads, the
// same defensive limit pkg/engine.Fetch applies to remote SERP bodies.
const maxBodyBytes = 4 << 20

// fetchPool is stage 2: F workers consuming URLs whose domain survived DNS
// prefetch, each bounded by a per-domain semaphore and cfg.Timeout.
type fetchPool struct {
	cfg       Config
	transport *transportPool
	health    *domainHealth
}

func newFetchPool(cfg Config, transport *transportPool, health *domainHealth) *fetchPool {
	return &fetchPool{cfg: cfg, transport: transport, health: health}
}

// outcome is what one fetch produces: either a CrawlResult to hand to the
// writer, or a CrawlState delta recording a failed attempt.
type outcome struct {
	result *types.CrawlResult
	state  types.CrawlState
}

// run drains seeds, fetching each with cfg.Mode, and forwards outcomes to
// out. It closes out once seeds is drained and every worker has exited.
func (p *fetchPool) run(ctx context.Context, seeds <-chan types.SeedURL, out chan<- outcome) {
	workers := p.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	done := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for seed := range seeds {
				if ctx.Err() != nil {
					return
				}
				if p.health.isDead(seed.Domain) {
					continue
				}
				o := p.fetchOne(ctx, seed)
				select {
				case out <- o:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	for i := 0; i < workers; i++ {
		<-done
	}
	close(out)
}

// fetchOne performs a single fetch under the per-domain semaphore and
// cfg.Timeout, per §4.10 stage 2.
func (p *fetchPool) fetchOne(ctx context.Context, seed types.SeedURL) outcome {
	sem := p.transport.semaphoreFor(seed.Domain)
	if err := sem.Acquire(ctx, 1); err != nil {
		return outcome{state: failedState(seed.URL, 0)}
	}
	defer sem.Release(1)

	if err := p.transport.limiterFor(seed.Domain).Wait(ctx); err != nil {
		return outcome{state: failedState(seed.URL, 0)}
	}

	reqCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	start := time.Now()
	result, err := p.doFetch(reqCtx, seed)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		st := failedState(seed.URL, 0)
		if result != nil {
			st.LastStatus = result.StatusCode
		}
		return outcome{state: st, result: errorResult(seed.URL, err, elapsed)}
	}
	result.FetchTimeMs = elapsed
	result.CrawledAt = time.Now().UTC()
	return outcome{
		result: result,
		state: types.CrawlState{
			URL:           seed.URL,
			Attempts:      1,
			LastStatus:    result.StatusCode,
			LastCrawledAt: result.CrawledAt,
		},
	}
}

func (p *fetchPool) doFetch(ctx context.Context, seed types.SeedURL) (*types.CrawlResult, error) {
	method := http.MethodGet
	switch p.cfg.Mode {
	case FetchHeadOnly:
		method = http.MethodHead
	case FetchStatusOnly:
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, seed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("recrawler: build request for %s: %w", seed.URL, err)
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	client := p.transport.clientFor(seed.Domain, p.cfg.Timeout)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recrawler: fetch %s: %w", seed.URL, err)
	}
	defer resp.Body.Close()

	result := &types.CrawlResult{
		URL:         seed.URL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if loc := resp.Header.Get("Location"); loc != "" {
		result.RedirectURL = loc
	}

	if p.cfg.Mode == FetchStatusOnly || p.cfg.Mode == FetchHeadOnly {
		result.ContentLength = resp.ContentLength
		return result, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return result, fmt.Errorf("recrawler: read body from %s: %w", seed.URL, err)
	}
	result.ContentLength = int64(len(body))
	extractMeta(result, body)
	return result, nil
}

// extractMeta populates title/description/language on result from an HTML
// body, using goquery the same way pkg/engine's HTML scrapers parse SERP
// markup and whatlanggo the same way pkg/ftsindex detects document
// language before tokenization.
func extractMeta(result *types.CrawlResult, body []byte) {
	if !strings.Contains(result.ContentType, "html") && result.ContentType != "" {
		return
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return
	}
	result.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		result.Description = strings.TrimSpace(desc)
	}
	if text := strings.TrimSpace(doc.Find("body").Text()); text != "" {
		info := whatlanggo.Detect(text)
		result.Language = info.Lang.String()
	}
}

func failedState(url string, lastStatus int) types.CrawlState {
	return types.CrawlState{URL: url, Attempts: 1, LastStatus: lastStatus, LastCrawledAt: time.Now().UTC()}
}

func errorResult(url string, err error, elapsedMs int64) *types.CrawlResult {
	return &types.CrawlResult{
		URL:         url,
		Error:       err.Error(),
		FetchTimeMs: elapsedMs,
		CrawledAt:   time.Now().UTC(),
	}
}

// seedsForDomains filters seeds down to those whose domain appears in
// alive, preserving seeds' original order.
func seedsForDomains(seeds []types.SeedURL, alive map[string]bool) []types.SeedURL {
	out := make([]types.SeedURL, 0, len(seeds))
	for _, s := range seeds {
		if alive[s.Domain] {
			out = append(out, s)
		}
	}
	return out
}
