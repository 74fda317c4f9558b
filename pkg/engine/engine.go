// Package engine defines the uniform contract every search backend —
// remote scraper, JSON API client, or local index — conforms to, plus the
// process-wide registry of engine descriptors and constructors.
package engine

import (
	"context"

	"github.com/privasearch/search/types"
)

// Category re-exports the shared category enum so engine packages don't
// need to import types directly for the common case.
type Category = types.Category

const (
	CategoryGeneral = types.CategoryGeneral
	CategoryImages  = types.CategoryImages
	CategoryVideos  = types.CategoryVideos
	CategoryNews    = types.CategoryNews
	CategoryMaps    = types.CategoryMaps
	CategoryMusic   = types.CategoryMusic
	CategoryFiles   = types.CategoryFiles
	CategoryIT      = types.CategoryIT
	CategoryScience = types.CategoryScience
	CategorySocial  = types.CategorySocial
)

// SearchOptions carries the per-request parameters an engine needs to
// build its upstream request. It is a flattened, engine-friendly subset
// of types.Query.
type SearchOptions struct {
	Category    Category
	Page        int
	PerPage     int
	Language    string
	Region      string
	SafeSearch  int // 0 off, 1 moderate, 2 strict
	TimeRange   string
	Verbatim    bool
	SiteInclude string
	SiteExclude string
	FileType    string
	Filters     map[string]string
}

// SearchResponse is what Engine.Search returns: the raw per-engine result
// list plus timing, before the coordinator merges and ranks it.
type SearchResponse struct {
	Query        string
	Results      []types.Hit
	SearchTimeMs float64
	Page         int
	PerPage      int
	TotalResults int
}

// RequestConfig is the pure description of an outbound HTTP request an
// engine wants to make. BuildRequest never performs I/O itself; the
// caller (or Engine.Search, for convenience) executes it.
type RequestConfig struct {
	URL     string
	Method  string
	Headers map[string]string
	Cookies map[string]string
	Body    []byte
}

// Engine is the contract every search backend implements. BuildRequest and
// ParseResponse are pure: BuildRequest never performs I/O, and
// ParseResponse never panics — a malformed or empty body yields a zero-hit
// EngineResult, never an error.
type Engine interface {
	// Name is the engine's unique registry key.
	Name() string
	// Categories lists the verticals this engine serves.
	Categories() []Category
	// BuildRequest is a pure function of query and params.
	BuildRequest(query string, opts SearchOptions) RequestConfig
	// ParseResponse is a pure function; on unrecognized or empty body it
	// returns a zero-hit result rather than an error.
	ParseResponse(body []byte, opts SearchOptions) types.EngineResult
	// Search executes BuildRequest, performs the HTTP round-trip, and
	// feeds the body to ParseResponse. Convenience wrapper used by
	// callers (including the metasearch coordinator) that don't need to
	// separate the pure and I/O halves.
	Search(ctx context.Context, query string, opts SearchOptions) (*SearchResponse, error)
	// Healthz performs a cheap liveness check against the upstream, used
	// by tests and operational tooling. Engines with no natural health
	// endpoint return nil unconditionally.
	Healthz(ctx context.Context) error
}

// Descriptor is the registry-owned metadata paired with each Engine.
type Descriptor = types.EngineDescriptor
