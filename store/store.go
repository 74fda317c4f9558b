// Package store defines the persistence-layer contracts used by the
// feature packages. Concrete backends (store/sqlite) implement these
// interfaces; feature code depends only on the interfaces so tests can
// substitute in-memory fakes.
package store

import (
	"context"
	"time"

	"github.com/privasearch/search/types"
)

// SearchOptions narrows a full-text search over the local index.
type SearchOptions struct {
	Page        int
	PerPage     int
	Site        string
	ExcludeSite string
	Language    string
	Verbatim    bool
}

// Document is one full-text-indexed page.
type Document struct {
	ID          string
	URL         string
	Title       string
	Content     string
	Description string
	Domain      string
	Language    string
	ContentType string
	Favicon     string
	WordCount   int
	IndexedAt   time.Time
}

// SearchStore runs full-text queries against the local index.
type SearchStore interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]Document, int, error)
	Suggest(ctx context.Context, prefix string, limit int) ([]string, error)
	// RecordQuery registers a query's terms into the suggestion index so
	// future Suggest calls can surface it by prefix.
	RecordQuery(ctx context.Context, query string) error
}

// IndexStore manages the document corpus backing SearchStore.
type IndexStore interface {
	Upsert(ctx context.Context, doc Document) error
	UpsertBatch(ctx context.Context, docs []Document) error
	Delete(ctx context.Context, url string) error
	Get(ctx context.Context, url string) (Document, error)
	Count(ctx context.Context) (int64, error)
}

// CacheStore persists fingerprinted MergedResult artifacts.
type CacheStore interface {
	Get(ctx context.Context, fingerprint string) (types.CacheEntry, bool, error)
	Set(ctx context.Context, entry types.CacheEntry) error
	Delete(ctx context.Context, fingerprint string) error
	Purge(ctx context.Context, olderThan time.Time) (int64, error)
}

// BangStore manages user-defined and built-in bang shortcuts.
type BangStore interface {
	Get(ctx context.Context, userID, trigger string) (types.Bang, bool, error)
	List(ctx context.Context, userID string) ([]types.Bang, error)
	Create(ctx context.Context, b types.Bang) (types.Bang, error)
	Delete(ctx context.Context, userID string, id int64) error
}

// Entity is a knowledge-panel subject.
type Entity struct {
	Name        string
	Type        string
	Description string
	Image       string
	Facts       map[string]any
	Links       []types.Link
}

// KnowledgeStore looks up entities for the knowledge panel widget.
type KnowledgeStore interface {
	Lookup(ctx context.Context, name string) (Entity, bool, error)
	Upsert(ctx context.Context, e Entity) error
}

// WidgetStore persists per-user widget preferences and cached enrichment
// artifacts (related searches, cheat sheets).
type WidgetStore interface {
	GetSettings(ctx context.Context, userID string) ([]types.WidgetSetting, error)
	SaveSetting(ctx context.Context, s types.WidgetSetting) error
	GetRelatedSearches(ctx context.Context, queryHash string) ([]string, bool, error)
	SaveRelatedSearches(ctx context.Context, queryHash string, related []string) error
	GetCheatSheet(ctx context.Context, language string) (types.CheatSheet, bool, error)
}

// SmallWebStore indexes independent web/news entries surfaced alongside
// mainstream results by the enrichment pipeline.
type SmallWebStore interface {
	Upsert(ctx context.Context, e types.SmallWebEntry) error
	Search(ctx context.Context, query string, sourceType string, limit int) ([]types.SmallWebEntry, error)
}

// SearchHistory is one recorded query event for a user.
type SearchHistory struct {
	ID        int64
	UserID    string
	Query     string
	Category  types.Category
	CreatedAt time.Time
}

// HistoryStore records and retrieves per-user search history.
type HistoryStore interface {
	Record(ctx context.Context, h SearchHistory) error
	List(ctx context.Context, userID string, limit int) ([]SearchHistory, error)
	Clear(ctx context.Context, userID string) error
}

// SearchLens is a named, reusable set of site include/exclude filters.
type SearchLens struct {
	ID        int64
	UserID    string
	Name      string
	Sites     []string
	BuiltIn   bool
	CreatedAt time.Time
}

// UserPreference is one user's persisted search settings.
type UserPreference struct {
	UserID         string
	SafeSearch     types.SafeSearch
	Locale         string
	PreferredEngines []string
	UpdatedAt      time.Time
}

// PreferenceStore manages per-user settings and saved lenses.
type PreferenceStore interface {
	Get(ctx context.Context, userID string) (UserPreference, bool, error)
	Save(ctx context.Context, p UserPreference) error
	ListLenses(ctx context.Context, userID string) ([]SearchLens, error)
	SaveLens(ctx context.Context, l SearchLens) (SearchLens, error)
	DeleteLens(ctx context.Context, userID string, id int64) error
}

// CurrencyStore looks up exchange rates refreshed by an out-of-scope job.
type CurrencyStore interface {
	Rate(ctx context.Context, from, to string) (float64, bool, error)
	SetRate(ctx context.Context, from, to string, rate float64) error
}

// DictionaryEntry is one word's definition and synonym list.
type DictionaryEntry struct {
	Word       string
	Definition string
	Synonyms   []string
}

// DictionaryStore looks up word definitions for the instant-answer
// dictionary feature.
type DictionaryStore interface {
	Lookup(ctx context.Context, word string) (DictionaryEntry, bool, error)
	Upsert(ctx context.Context, e DictionaryEntry) error
}

// CrawlSeedStore manages the recrawler's known-URL frontier.
type CrawlSeedStore interface {
	AddSeeds(ctx context.Context, seeds []types.SeedURL) error
	PendingSeeds(ctx context.Context, limit int) ([]types.SeedURL, error)
	MarkDomainDead(ctx context.Context, domain string) error
}

// CrawlStateStore persists per-URL fetch history across recrawler runs,
// enabling resume.
type CrawlStateStore interface {
	Get(ctx context.Context, url string) (types.CrawlState, bool, error)
	Save(ctx context.Context, s types.CrawlState) error
	SaveBatch(ctx context.Context, states []types.CrawlState) error
	// Processed returns every URL crawled at or after since, so a resumed
	// run can skip seeds its writer already flushed.
	Processed(ctx context.Context, since time.Time) ([]string, error)
}

// CrawlResultStore persists fetched page artifacts for downstream indexing.
type CrawlResultStore interface {
	SaveBatch(ctx context.Context, results []types.CrawlResult) error
}
