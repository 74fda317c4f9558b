// Package search is the meta-search coordinator and top-level search
// service: concurrent per-engine fan-out, merge/rank/dedup, the result
// cache, and the orchestration that wires bang resolution, widgets, and
// instant answers around it.
package search

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/privasearch/search/pkg/engine"
	"github.com/privasearch/search/types"
)

// MetaSearchConfig tunes the fan-out coordinator (SPEC_FULL.md §4.7 / §6).
type MetaSearchConfig struct {
	// RequestBudget bounds the whole fan-out; exceeding it cancels every
	// outstanding engine task. Default 10s.
	RequestBudget time.Duration
	// EarlyReturn is how long the coordinator waits after the first
	// result before considering an early return. Default 300ms.
	EarlyReturn time.Duration
	// MinEngines is how many successful results must be in hand before
	// the early-return timer is allowed to end collection. Default 2.
	MinEngines int
	Logger     zerolog.Logger
}

func (c MetaSearchConfig) withDefaults() MetaSearchConfig {
	if c.RequestBudget <= 0 {
		c.RequestBudget = 10 * time.Second
	}
	if c.EarlyReturn <= 0 {
		c.EarlyReturn = 300 * time.Millisecond
	}
	if c.MinEngines <= 0 {
		c.MinEngines = 2
	}
	return c
}

// MetaSearch is the C7 coordinator: it fans a query out to every
// registered engine serving the query's category, collects results under
// a request budget and an early-return policy, and merges/ranks/paginates
// the survivors.
type MetaSearch struct {
	registry *engine.Registry
	cfg      MetaSearchConfig
}

// NewMetaSearch returns a MetaSearch bound to registry, applying cfg's
// defaults for any zero-valued field.
func NewMetaSearch(registry *engine.Registry, cfg MetaSearchConfig) *MetaSearch {
	return &MetaSearch{registry: registry, cfg: cfg.withDefaults()}
}

// engineOutcome is what one engine task pushes onto the results channel.
type engineOutcome struct {
	result types.EngineResult
}

// Search runs the full fan-out/merge/rank/paginate pipeline for q and
// returns the MergedResult. It never returns an error for engine-level
// failure: per §4.7, all-engines-failed still yields a 200-shaped success
// with zero hits and EnginesFailed set. The only error path is the
// caller's own context already being done before fan-out starts.
func (m *MetaSearch) Search(ctx context.Context, q types.Query) (types.MergedResult, error) {
	if err := ctx.Err(); err != nil {
		return types.MergedResult{}, err
	}
	start := time.Now()

	engines := m.selectEngines(q)
	ctx, cancel := context.WithTimeout(ctx, m.cfg.RequestBudget)
	defer cancel()

	results, enginesDispatched := m.dispatch(ctx, q, engines)

	descriptors := make(map[string]types.EngineDescriptor, enginesDispatched)
	for _, e := range engines {
		if d, ok := m.registry.Descriptor(e.Name()); ok {
			descriptors[e.Name()] = d
		}
	}

	mergedHits, engineSet, enginesFailed := merge(results, descriptors)
	mergedHits = applyCategoryFilters(q.Category(), mergedHits, q)

	page, pageInfo, total := paginate(mergedHits, q.Page(), q.PerPage())

	return types.MergedResult{
		Query:         q.Text(),
		Category:      q.Category(),
		Results:       page,
		TotalResults:  total,
		Engines:       engineSet,
		PageInfo:      pageInfo,
		ElapsedMs:     time.Since(start).Milliseconds(),
		EnginesFailed: enginesFailed,
	}, nil
}

// selectEngines filters the registry's category view down to engines that
// can serve q's requested page (§4.7 "Engine selection").
func (m *MetaSearch) selectEngines(q types.Query) []engine.Engine {
	candidates := m.registry.ByCategory(q.Category())
	out := make([]engine.Engine, 0, len(candidates))
	for _, e := range candidates {
		d, ok := m.registry.Descriptor(e.Name())
		if !ok {
			continue
		}
		if d.MaxPage > 0 && q.Page() > d.MaxPage {
			continue
		}
		out = append(out, e)
	}
	return out
}

// dispatch runs each engine as an independent concurrent task bounded by
// its own per-engine timeout, collects into a bounded channel, and stops
// collecting per the early-return policy in §4.7. Tasks whose results
// arrive after collection ends are simply dropped; there is no further
// side effect to undo beyond the already-aborted HTTP request.
func (m *MetaSearch) dispatch(ctx context.Context, q types.Query, engines []engine.Engine) ([]types.EngineResult, int) {
	if len(engines) == 0 {
		return nil, 0
	}
	resultsCh := make(chan engineOutcome, len(engines))
	opts := buildSearchOptions(q)

	var wg sync.WaitGroup
	for _, e := range engines {
		d, _ := m.registry.Descriptor(e.Name())
		wg.Add(1)
		go m.runEngine(ctx, &wg, resultsCh, e, d, q.Text(), opts)
	}
	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	var (
		collected     []types.EngineResult
		earlyTimer    <-chan time.Time
		firstArrived  bool
		successCount  int
	)
	for {
		select {
		case out, ok := <-resultsCh:
			if !ok {
				return collected, len(engines)
			}
			collected = append(collected, out.result)
			if out.result.Diagnostics.Error == "" {
				successCount++
			}
			if !firstArrived {
				firstArrived = true
				earlyTimer = time.After(m.cfg.EarlyReturn)
			}
		case <-earlyTimer:
			if successCount >= m.cfg.MinEngines {
				return collected, len(engines)
			}
			earlyTimer = nil
		case <-ctx.Done():
			return collected, len(engines)
		}
	}
}

// runEngine executes one engine's search under a timeout equal to
// min(engine.timeoutMs, remaining request budget), as required by §4.7's
// per-engine budget rule.
func (m *MetaSearch) runEngine(ctx context.Context, wg *sync.WaitGroup, out chan<- engineOutcome, e engine.Engine, d types.EngineDescriptor, query string, opts engine.SearchOptions) {
	defer wg.Done()

	timeout := time.Duration(d.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	engCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	t0 := time.Now()
	resp, err := e.Search(engCtx, query, opts)
	elapsed := time.Since(t0).Milliseconds()

	var result types.EngineResult
	if err != nil {
		errMsg := err.Error()
		if engCtx.Err() == context.DeadlineExceeded {
			errMsg = "timeout"
		}
		result = types.EngineResult{Diagnostics: types.EngineDiagnostics{Engine: e.Name(), ElapsedMs: elapsed, Error: errMsg}}
	} else {
		hits := resp.Results
		for i := range hits {
			if hits[i].Engine == "" {
				hits[i].Engine = e.Name()
			}
		}
		result = types.EngineResult{Hits: hits, Diagnostics: types.EngineDiagnostics{Engine: e.Name(), ElapsedMs: elapsed}}
	}

	select {
	case out <- engineOutcome{result: result}:
	case <-ctx.Done():
	}
}

// buildSearchOptions flattens a types.Query into the engine-facing
// SearchOptions every adapter's BuildRequest consumes.
func buildSearchOptions(q types.Query) engine.SearchOptions {
	return engine.SearchOptions{
		Category:    q.Category(),
		Page:        q.Page(),
		PerPage:     q.PerPage(),
		Language:    q.Locale(),
		SafeSearch:  safeSearchLevel(q.SafeSearch()),
		TimeRange:   string(q.TimeRange()),
		Verbatim:    q.Verbatim(),
		SiteInclude: q.SiteInclude(),
		SiteExclude: q.SiteExclude(),
		FileType:    q.FileType(),
		Filters:     q.Filters(),
	}
}

func safeSearchLevel(s types.SafeSearch) int {
	switch s {
	case types.SafeSearchOff:
		return 0
	case types.SafeSearchStrict:
		return 2
	default:
		return 1
	}
}
