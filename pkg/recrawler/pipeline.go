package recrawler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/privasearch/search/store"
	"github.com/privasearch/search/types"
)

// Stores bundles the three persistence interfaces the pipeline needs.
type Stores struct {
	Seeds   store.CrawlSeedStore
	State   store.CrawlStateStore
	Results store.CrawlResultStore
}

// Pipeline is the C10 recrawler: seed store → DNS prefetch pool → fetch
// pool → batch writer, wired per SPEC_FULL.md §4.10.
type Pipeline struct {
	cfg    Config
	stores Stores
	log    zerolog.Logger
}

// New returns a Pipeline reading seeds/state/results from stores and
// applying cfg's defaults for any zero-valued field.
func New(stores Stores, cfg Config, log zerolog.Logger) *Pipeline {
	return &Pipeline{cfg: cfg.WithDefaults(), stores: stores, log: log}
}

// Run pulls up to limit pending seeds and refetches them, returning once
// every seed has been attempted, the writer has flushed its final batch,
// or ctx is cancelled. A fatal write failure aborts the run and is
// returned; individual fetch failures never are (§4.10, §7).
func (p *Pipeline) Run(ctx context.Context, limit int) (Stats, error) {
	seeds, err := p.stores.Seeds.PendingSeeds(ctx, limit)
	if err != nil {
		return Stats{}, fmt.Errorf("recrawler: load seeds: %w", err)
	}
	if p.cfg.Resume {
		seeds = p.filterResumed(ctx, seeds)
	}
	if len(seeds) == 0 {
		return Stats{}, nil
	}

	health := newDomainHealth(p.cfg.DomainFailThreshold)
	transport := newTransportPool(p.cfg)

	if p.cfg.TwoPass {
		seeds = p.probeDomainsAndFilter(ctx, seeds, health, transport)
	}

	alive := p.resolveDomains(ctx, seeds, health)
	survivors := seedsForDomains(seeds, alive)
	skipped := len(seeds) - len(survivors)
	if skipped > 0 {
		p.log.Info().Int("skipped", skipped).Msg("recrawler: skipped seeds in dead domains")
	}

	stats, err := p.fetchAndWrite(ctx, survivors, health, transport)
	stats.DomainsSkipped = skipped
	return stats, err
}

// filterResumed drops seeds the writer already flushed earlier in this
// run window, per §4.10 "Resume".
func (p *Pipeline) filterResumed(ctx context.Context, seeds []types.SeedURL) []types.SeedURL {
	processed, err := resumeProcessed(ctx, p.stores.State, p.cfg.resumeSince())
	if err != nil {
		p.log.Warn().Err(err).Msg("recrawler: resume lookup failed, continuing without it")
		return seeds
	}
	if len(processed) == 0 {
		return seeds
	}
	out := make([]types.SeedURL, 0, len(seeds))
	for _, s := range seeds {
		if !processed[s.URL] {
			out = append(out, s)
		}
	}
	return out
}

// probeDomainsAndFilter implements the optional two-pass mode: one
// statusOnly request per domain up front, marking domains that fail dead
// before the full fetch pass runs (§4.10 "Optional two-pass mode").
func (p *Pipeline) probeDomainsAndFilter(ctx context.Context, seeds []types.SeedURL, health *domainHealth, transport *transportPool) []types.SeedURL {
	probed := make(map[string]bool)
	probeCfg := p.cfg
	probeCfg.Mode = FetchStatusOnly
	prober := newFetchPool(probeCfg, transport, health)

	for _, s := range seeds {
		if probed[s.Domain] {
			continue
		}
		probed[s.Domain] = true
		o := prober.fetchOne(ctx, s)
		if o.result == nil || o.result.Error != "" || o.result.StatusCode >= 500 {
			health.markDead(s.Domain)
		}
	}
	return seedsForDomains(seeds, aliveDomains(seeds, health))
}

func aliveDomains(seeds []types.SeedURL, health *domainHealth) map[string]bool {
	out := make(map[string]bool)
	for _, s := range seeds {
		if !health.isDead(s.Domain) {
			out[s.Domain] = true
		}
	}
	return out
}

// resolveDomains runs the DNS prefetch pool over every unique domain in
// seeds and returns the set that resolved successfully.
func (p *Pipeline) resolveDomains(ctx context.Context, seeds []types.SeedURL, health *domainHealth) map[string]bool {
	domains := make([]string, 0, len(seeds))
	seen := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		if !seen[s.Domain] {
			seen[s.Domain] = true
			domains = append(domains, s.Domain)
		}
	}

	pool := newDNSPool(p.cfg, health)
	in := uniqueDomains(ctx, domains)
	out := make(chan string, len(domains))
	go pool.run(ctx, in, out)

	alive := make(map[string]bool, len(domains))
	for d := range out {
		alive[d] = true
	}
	return alive
}

// fetchAndWrite runs the fetch pool and batch writer concurrently: the
// writer drains the fetch pool's outcome channel as it fills, so no stage
// blocks on another beyond the channel's bounded capacity (§5
// "Backpressure").
func (p *Pipeline) fetchAndWrite(ctx context.Context, seeds []types.SeedURL, health *domainHealth, transport *transportPool) (Stats, error) {
	if len(seeds) == 0 {
		return Stats{}, nil
	}
	seedCh := make(chan types.SeedURL, min(len(seeds), p.cfg.Workers*2))
	outcomeCh := make(chan outcome, p.cfg.Workers*2)

	go func() {
		defer close(seedCh)
		for _, s := range seeds {
			select {
			case seedCh <- s:
			case <-ctx.Done():
				return
			}
		}
	}()

	fetch := newFetchPool(p.cfg, transport, health)
	go fetch.run(ctx, seedCh, outcomeCh)

	writer := newBatchWriter(p.cfg, p.stores.Results, p.stores.State)
	return writer.run(ctx, outcomeCh)
}
