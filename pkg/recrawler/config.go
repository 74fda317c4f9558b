// Package recrawler implements the C10 three-stage refetch pipeline: a DNS
// prefetch pool that filters dead domains, a fetch pool that refetches a
// known seed set, and a single-writer batcher that flushes results and
// state deltas to durable stores.
package recrawler

import "time"

// FetchMode selects how much of each response the fetch pool reads.
type FetchMode string

const (
	// FetchStatusOnly issues the request and closes the body immediately.
	FetchStatusOnly FetchMode = "status_only"
	// FetchHeadOnly issues a HEAD request.
	FetchHeadOnly FetchMode = "head_only"
	// FetchFull issues a GET and extracts title/description/language.
	FetchFull FetchMode = "full"
)

// Config tunes every stage of the pipeline per SPEC_FULL.md §4.10 / §6.
type Config struct {
	// Workers is the fetch pool size. Default 200.
	Workers int
	// DNSWorkers is the DNS prefetch pool size. Default 2000.
	DNSWorkers int
	// Timeout bounds a single fetch request. Default 5s.
	Timeout time.Duration
	// BatchSize is how many results the writer accumulates before
	// flushing. Default 5000.
	BatchSize int
	// TransportShards is the number of sharded HTTP transports the fetch
	// pool draws connections from, hashed by domain. Default 64.
	TransportShards int
	// MaxConnsPerDomain bounds concurrent in-flight requests to one
	// domain via a semaphore. Default 8.
	MaxConnsPerDomain int
	// DomainFailThreshold is the consecutive-DNS-failure count after
	// which a domain is marked dead and its remaining URLs skipped.
	// Default 3.
	DomainFailThreshold int
	// Mode selects how much of each response the fetch pool reads.
	// Default FetchFull.
	Mode FetchMode
	// TwoPass enables the optional discovery pass: one statusOnly probe
	// per domain before the full fetch, to filter dead domains early.
	TwoPass bool
	// Resume, when true, has the writer read already-processed URLs from
	// the state store at startup so the seed reader can skip them.
	Resume bool
	// UserAgent is sent on every fetch request.
	UserAgent string
	// MaxWriteRetries bounds the writer's exponential backoff before a
	// flush failure is treated as fatal. Default 5.
	MaxWriteRetries int
	// ResumeWindow bounds how far back the resume path looks for URLs
	// already processed. Default 24h.
	ResumeWindow time.Duration
}

// resumeSince returns the cutoff resume lookups use: now minus
// ResumeWindow.
func (c Config) resumeSince() time.Time {
	window := c.ResumeWindow
	if window <= 0 {
		window = 24 * time.Hour
	}
	return time.Now().Add(-window)
}

// WithDefaults returns a copy of c with every zero-valued field set to its
// SPEC_FULL.md §6 default.
func (c Config) WithDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 200
	}
	if c.DNSWorkers <= 0 {
		c.DNSWorkers = 2000
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 5000
	}
	if c.TransportShards <= 0 {
		c.TransportShards = 64
	}
	if c.MaxConnsPerDomain <= 0 {
		c.MaxConnsPerDomain = 8
	}
	if c.DomainFailThreshold <= 0 {
		c.DomainFailThreshold = 3
	}
	if c.Mode == "" {
		c.Mode = FetchFull
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (compatible; PrivaSearchRecrawler/1.0)"
	}
	if c.MaxWriteRetries <= 0 {
		c.MaxWriteRetries = 5
	}
	return c
}
