package search

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/privasearch/search/store"
	"github.com/privasearch/search/types"
)

// CurrentCacheVersion is the compiled-in cache entry version. Bumping it
// forces every previously-cached entry to miss on next read.
const CurrentCacheVersion = 1

// Cache wraps a store.CacheStore with query fingerprinting, per-category
// TTLs, and version-aware reads. The fingerprint is a 128-bit (md5) hash of
// the canonical query, matching §3's CacheEntry contract; md5 is used
// purely as a fixed-width digest, never for anything security-sensitive.
type Cache struct {
	store store.CacheStore
	ttl   map[types.Category]time.Duration
}

// NewCache returns a Cache with explicit per-category TTLs. Categories not
// present in ttl fall back to ttl[""].
func NewCache(s store.CacheStore, ttl map[types.Category]time.Duration) *Cache {
	return &Cache{store: s, ttl: ttl}
}

// NewCacheWithDefaults returns a Cache using the configuration defaults
// from SPEC_FULL.md §6: 1h for general pages, 15m for images, 5m for news.
func NewCacheWithDefaults(s store.CacheStore) *Cache {
	return NewCache(s, map[types.Category]time.Duration{
		"":                    time.Hour,
		types.CategoryImages:  15 * time.Minute,
		types.CategoryNews:    5 * time.Minute,
	})
}

func (c *Cache) ttlFor(cat types.Category) time.Duration {
	if d, ok := c.ttl[cat]; ok {
		return d
	}
	return c.ttl[""]
}

// Fingerprint computes the 128-bit hash of q's canonical form: lowercased
// text, sorted filter key/value pairs, page, perPage, locale, safeSearch,
// timeRange, category, and the cache version.
func Fingerprint(q types.Query, version int) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(strings.TrimSpace(q.Text())))
	b.WriteByte('\x1f')
	b.WriteString(string(q.Category()))
	b.WriteByte('\x1f')
	b.WriteString(strconv.Itoa(q.Page()))
	b.WriteByte('\x1f')
	b.WriteString(strconv.Itoa(q.PerPage()))
	b.WriteByte('\x1f')
	b.WriteString(strings.ToLower(q.Locale()))
	b.WriteByte('\x1f')
	b.WriteString(string(q.SafeSearch()))
	b.WriteByte('\x1f')
	b.WriteString(string(q.TimeRange()))
	b.WriteByte('\x1f')
	b.WriteString(q.SiteInclude())
	b.WriteByte('\x1f')
	b.WriteString(q.SiteExclude())
	b.WriteByte('\x1f')
	b.WriteString(q.FileType())
	b.WriteByte('\x1f')
	if q.Verbatim() {
		b.WriteString("v1")
	}
	b.WriteByte('\x1f')
	filters := q.Filters()
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(filters[k])
		b.WriteByte(';')
	}
	b.WriteByte('\x1f')
	b.WriteString(strconv.Itoa(version))
	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached MergedResult for q, or ok=false on miss, expiry,
// or version mismatch. A store I/O error is treated as a miss (§4.3).
func (c *Cache) Get(ctx context.Context, q types.Query, expectedVersion int) (types.MergedResult, bool, error) {
	fp := Fingerprint(q, expectedVersion)
	entry, found, err := c.store.Get(ctx, fp)
	if err != nil {
		return types.MergedResult{}, false, nil // CacheError degrades to miss
	}
	if !found {
		return types.MergedResult{}, false, nil
	}
	if entry.Version != expectedVersion {
		return types.MergedResult{}, false, nil
	}
	if entry.Expired(time.Now()) {
		return types.MergedResult{}, false, nil
	}
	var result types.MergedResult
	if err := json.Unmarshal(entry.Value, &result); err != nil {
		return types.MergedResult{}, false, nil
	}
	return result, true, nil
}

// Put upserts result under q's fingerprint with the category-appropriate
// TTL and CurrentCacheVersion.
func (c *Cache) Put(ctx context.Context, q types.Query, result types.MergedResult) error {
	value, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("search: encode cache entry: %w", err)
	}
	entry := types.CacheEntry{
		Fingerprint: Fingerprint(q, CurrentCacheVersion),
		Value:       value,
		CreatedAt:   time.Now().UTC(),
		TTL:         c.ttlFor(q.Category()),
		Version:     CurrentCacheVersion,
	}
	if err := c.store.Set(ctx, entry); err != nil {
		return nil // CacheError: log-worthy but non-fatal to the caller
	}
	return nil
}

// Invalidate performs a bulk flush of every cached entry. The underlying
// store keys entries by opaque fingerprint rather than a queryable prefix,
// so a true prefix flush isn't expressible; Invalidate purges everything
// instead, which is the only bulk operation §4.3 actually requires callers
// to have (a full cache flush after a ranking or schema change).
func (c *Cache) Invalidate(ctx context.Context) error {
	_, err := c.store.Purge(ctx, time.Now().Add(time.Second))
	if err != nil {
		return fmt.Errorf("search: invalidate cache: %w", err)
	}
	return nil
}
