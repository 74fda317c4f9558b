package recrawler

import (
	"hash/fnv"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// requestsPerSecondPerDomain paces fetches to a single domain independently
// of the connection-count cap, so a domain with spare connection slots
// still can't be hammered faster than this.
const requestsPerSecondPerDomain = 4

// transportPool shards reusable HTTP transports by domain (§5 "Engine HTTP
// transports: sharded by domain") and bounds concurrent in-flight requests
// to any one domain with a semaphore (§5 "per-domain connection cap"), plus
// a per-domain rate limiter that paces request starts.
type transportPool struct {
	shards    []*http.Transport
	maxConns  int64
	semaphore sync.Map // domain string -> *semaphore.Weighted
	limiters  sync.Map // domain string -> *rate.Limiter
}

func newTransportPool(cfg Config) *transportPool {
	shards := make([]*http.Transport, cfg.TransportShards)
	for i := range shards {
		shards[i] = &http.Transport{
			MaxIdleConns:        cfg.MaxConnsPerDomain * 4,
			MaxIdleConnsPerHost: cfg.MaxConnsPerDomain,
			MaxConnsPerHost:     cfg.MaxConnsPerDomain,
			IdleConnTimeout:     90 * time.Second,
		}
	}
	return &transportPool{shards: shards, maxConns: int64(cfg.MaxConnsPerDomain)}
}

// shardFor returns the transport assigned to domain, deterministically
// hashed so every request to the same domain reuses the same connection
// pool.
func (p *transportPool) shardFor(domain string) *http.Transport {
	h := fnv.New32a()
	_, _ = h.Write([]byte(domain))
	return p.shards[h.Sum32()%uint32(len(p.shards))]
}

// semaphoreFor returns the weighted semaphore capping concurrent in-flight
// requests to domain, creating it on first use. Reads of an already-
// populated entry are lock-free per sync.Map's documented fast path; only
// the first caller for a given domain pays the LoadOrStore cost.
func (p *transportPool) semaphoreFor(domain string) *semaphore.Weighted {
	if v, ok := p.semaphore.Load(domain); ok {
		return v.(*semaphore.Weighted)
	}
	sem := semaphore.NewWeighted(p.maxConns)
	actual, _ := p.semaphore.LoadOrStore(domain, sem)
	return actual.(*semaphore.Weighted)
}

// clientFor returns an *http.Client bound to domain's transport shard with
// timeout applied.
func (p *transportPool) clientFor(domain string, timeout time.Duration) *http.Client {
	return &http.Client{Transport: p.shardFor(domain), Timeout: timeout}
}

// limiterFor returns the rate.Limiter pacing requests to domain, creating
// it on first use.
func (p *transportPool) limiterFor(domain string) *rate.Limiter {
	if v, ok := p.limiters.Load(domain); ok {
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(rate.Limit(requestsPerSecondPerDomain), requestsPerSecondPerDomain)
	actual, _ := p.limiters.LoadOrStore(domain, lim)
	return actual.(*rate.Limiter)
}
