package recrawler

import (
	"context"
	"sync"

	"github.com/phuslu/fastdns"
	"github.com/rs/dnscache"
)

// domainHealth tracks consecutive DNS-failure counts per domain and the
// set of domains marked dead once the count reaches the configured
// threshold (§4.10 stage 1, §5 "per-domain connection cap" neighbors).
// Access is synchronized by a single mutex; the prefetch pool is sized in
// the thousands of goroutines, not the millions, so a mutex outperforms
// sharding here without adding complexity.
type domainHealth struct {
	mu        sync.Mutex
	failures  map[string]int
	dead      map[string]bool
	threshold int
}

func newDomainHealth(threshold int) *domainHealth {
	return &domainHealth{
		failures:  make(map[string]int),
		dead:      make(map[string]bool),
		threshold: threshold,
	}
}

// recordFailure increments domain's failure count and returns true if this
// failure pushed it over the threshold, marking it dead.
func (h *domainHealth) recordFailure(domain string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dead[domain] {
		return true
	}
	h.failures[domain]++
	if h.failures[domain] >= h.threshold {
		h.dead[domain] = true
		return true
	}
	return false
}

// recordSuccess resets domain's failure count; a live resolution means the
// domain is not (yet) dead.
func (h *domainHealth) recordSuccess(domain string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.failures, domain)
}

func (h *domainHealth) isDead(domain string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dead[domain]
}

// markDead forces domain into the dead set, used when the fetch stage
// itself discovers a domain is unreachable rather than DNS resolution.
func (h *domainHealth) markDead(domain string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dead[domain] = true
}

// resolver resolves a domain to at least one address, preferring the fast
// UDP client and caching successful lookups so the fetch stage's dialer
// never blocks on a repeat resolution.
type resolver struct {
	fast  *fastdns.Client
	cache *dnscache.Resolver
}

func newResolver() *resolver {
	return &resolver{
		fast: &fastdns.Client{
			Addr: "1.1.1.1:53",
		},
		cache: &dnscache.Resolver{},
	}
}

// lookupHost resolves domain, trying the fast client first and falling
// back to the cached stdlib resolver (which also remembers the result for
// the net/http dialer to reuse) on any error.
func (r *resolver) lookupHost(ctx context.Context, domain string) ([]string, error) {
	if addrs, err := r.fast.LookupNetIP(ctx, "ip", domain); err == nil && len(addrs) > 0 {
		out := make([]string, len(addrs))
		for i, a := range addrs {
			out[i] = a.String()
		}
		return out, nil
	}
	return r.cache.LookupHost(ctx, domain)
}

// dnsPool is stage 1: D workers draining unique domains from in, resolving
// each, and forwarding only domains whose resolution succeeded (and whose
// failure count hasn't crossed the threshold) onto out.
type dnsPool struct {
	workers  int
	resolver *resolver
	health   *domainHealth
}

func newDNSPool(cfg Config, health *domainHealth) *dnsPool {
	return &dnsPool{
		workers:  cfg.DNSWorkers,
		resolver: newResolver(),
		health:   health,
	}
}

// run drains in, resolving each domain, and forwards alive domains onto
// out. It returns once in is closed and every worker has drained it, then
// closes out.
func (p *dnsPool) run(ctx context.Context, in <-chan string, out chan<- string) {
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for domain := range in {
				if ctx.Err() != nil {
					return
				}
				if p.health.isDead(domain) {
					continue
				}
				if _, err := p.resolver.lookupHost(ctx, domain); err != nil {
					p.health.recordFailure(domain)
					continue
				}
				p.health.recordSuccess(domain)
				select {
				case out <- domain:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	wg.Wait()
	close(out)
}

// uniqueDomains pulls each SeedURL's domain onto a channel exactly once in
// first-seen order, feeding the DNS pool without duplicate lookups for
// domains with many seed URLs.
func uniqueDomains(ctx context.Context, domains []string) <-chan string {
	out := make(chan string, len(domains))
	go func() {
		defer close(out)
		seen := make(map[string]bool, len(domains))
		for _, d := range domains {
			if d == "" || seen[d] {
				continue
			}
			seen[d] = true
			select {
			case out <- d:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
