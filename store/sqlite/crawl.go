package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/privasearch/search/store"
	"github.com/privasearch/search/types"
)

type crawlSeedView struct{ s *Store }

// CrawlSeeds returns the store.CrawlSeedStore view of this Store.
func (s *Store) CrawlSeeds() store.CrawlSeedStore { return crawlSeedView{s} }

func (v crawlSeedView) AddSeeds(ctx context.Context, seeds []types.SeedURL) error {
	tx, err := v.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: add seeds begin: %w", err)
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO crawl_seeds (url, domain) VALUES (?, ?)
		ON CONFLICT(url) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("sqlite: add seeds prepare: %w", err)
	}
	defer stmt.Close()
	for _, s := range seeds {
		if _, err := stmt.ExecContext(ctx, s.URL, s.Domain); err != nil {
			return fmt.Errorf("sqlite: add seed %s: %w", s.URL, err)
		}
	}
	return tx.Commit()
}

func (v crawlSeedView) PendingSeeds(ctx context.Context, limit int) ([]types.SeedURL, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := v.s.db.QueryContext(ctx, `
		SELECT cs.url, cs.domain FROM crawl_seeds cs
		LEFT JOIN crawl_state st ON st.url = cs.url
		WHERE cs.domain_dead = 0 AND (st.domain_dead IS NULL OR st.domain_dead = 0)
		ORDER BY COALESCE(st.last_crawled_at, '1970-01-01') ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: pending seeds: %w", err)
	}
	defer rows.Close()
	var out []types.SeedURL
	for rows.Next() {
		var s types.SeedURL
		if err := rows.Scan(&s.URL, &s.Domain); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (v crawlSeedView) MarkDomainDead(ctx context.Context, domain string) error {
	_, err := v.s.db.ExecContext(ctx, `UPDATE crawl_seeds SET domain_dead = 1 WHERE domain = ?`, domain)
	if err != nil {
		return fmt.Errorf("sqlite: mark domain dead: %w", err)
	}
	return nil
}

type crawlStateView struct{ s *Store }

// CrawlState returns the store.CrawlStateStore view of this Store.
func (s *Store) CrawlState() store.CrawlStateStore { return crawlStateView{s} }

func (v crawlStateView) Get(ctx context.Context, url string) (types.CrawlState, bool, error) {
	var (
		st          types.CrawlState
		domainDead  int
		lastCrawled sql.NullTime
	)
	err := v.s.db.QueryRowContext(ctx, `
		SELECT url, attempts, last_status, last_crawled_at, domain_dead
		FROM crawl_state WHERE url = ?`, url).
		Scan(&st.URL, &st.Attempts, &st.LastStatus, &lastCrawled, &domainDead)
	if errors.Is(err, sql.ErrNoRows) {
		return types.CrawlState{}, false, nil
	}
	if err != nil {
		return types.CrawlState{}, false, fmt.Errorf("sqlite: crawl state get: %w", err)
	}
	st.DomainDead = domainDead != 0
	if lastCrawled.Valid {
		st.LastCrawledAt = lastCrawled.Time
	}
	return st, true, nil
}

func (v crawlStateView) Save(ctx context.Context, s types.CrawlState) error {
	return v.saveOne(ctx, v.s.db, s)
}

func (v crawlStateView) SaveBatch(ctx context.Context, states []types.CrawlState) error {
	tx, err := v.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: save crawl state batch begin: %w", err)
	}
	defer tx.Rollback()
	for _, s := range states {
		if err := v.saveOne(ctx, tx, s); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (v crawlStateView) saveOne(ctx context.Context, ex execer, s types.CrawlState) error {
	domainDead := 0
	if s.DomainDead {
		domainDead = 1
	}
	var lastCrawled any
	if !s.LastCrawledAt.IsZero() {
		lastCrawled = s.LastCrawledAt
	}
	_, err := ex.ExecContext(ctx, `
		INSERT INTO crawl_state (url, attempts, last_status, last_crawled_at, domain_dead)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			attempts=excluded.attempts, last_status=excluded.last_status,
			last_crawled_at=excluded.last_crawled_at, domain_dead=excluded.domain_dead`,
		s.URL, s.Attempts, s.LastStatus, lastCrawled, domainDead)
	if err != nil {
		return fmt.Errorf("sqlite: save crawl state %s: %w", s.URL, err)
	}
	return nil
}

func (v crawlStateView) Processed(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := v.s.db.QueryContext(ctx, `
		SELECT url FROM crawl_state WHERE last_crawled_at >= ?`, since)
	if err != nil {
		return nil, fmt.Errorf("sqlite: crawl state processed: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type crawlResultView struct{ s *Store }

// CrawlResults returns the store.CrawlResultStore view of this Store.
func (s *Store) CrawlResults() store.CrawlResultStore { return crawlResultView{s} }

func (v crawlResultView) SaveBatch(ctx context.Context, results []types.CrawlResult) error {
	tx, err := v.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: save crawl results begin: %w", err)
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO crawl_results (url, status_code, content_type, content_length, title, description, language, redirect_url, fetch_time_ms, crawled_at, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			status_code=excluded.status_code, content_type=excluded.content_type, content_length=excluded.content_length,
			title=excluded.title, description=excluded.description, language=excluded.language,
			redirect_url=excluded.redirect_url, fetch_time_ms=excluded.fetch_time_ms,
			crawled_at=excluded.crawled_at, error=excluded.error`)
	if err != nil {
		return fmt.Errorf("sqlite: save crawl results prepare: %w", err)
	}
	defer stmt.Close()
	for _, r := range results {
		crawledAt := r.CrawledAt
		if crawledAt.IsZero() {
			crawledAt = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx, r.URL, r.StatusCode, r.ContentType, r.ContentLength, r.Title, r.Description,
			r.Language, r.RedirectURL, r.FetchTimeMs, crawledAt, r.Error); err != nil {
			return fmt.Errorf("sqlite: save crawl result %s: %w", r.URL, err)
		}
	}
	return tx.Commit()
}
