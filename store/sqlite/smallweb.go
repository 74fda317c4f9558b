package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/privasearch/search/store"
	"github.com/privasearch/search/types"
)

type smallWebView struct{ s *Store }

// SmallWeb returns the store.SmallWebStore view of this Store.
func (s *Store) SmallWeb() store.SmallWebStore { return smallWebView{s} }

func (v smallWebView) Upsert(ctx context.Context, e types.SmallWebEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := v.s.db.ExecContext(ctx, `
		INSERT INTO small_web_entries (id, url, title, snippet, source_type, domain, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, snippet=excluded.snippet, source_type=excluded.source_type,
			domain=excluded.domain, published_at=excluded.published_at`,
		e.ID, e.URL, e.Title, e.Snippet, e.SourceType, e.Domain, e.PublishedAt)
	if err != nil {
		return fmt.Errorf("sqlite: small web upsert: %w", err)
	}
	return nil
}

func (v smallWebView) Search(ctx context.Context, query string, sourceType string, limit int) ([]types.SmallWebEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	match := ftsMatchExpr(query, false)
	args := []any{match}
	where := "small_web_fts MATCH ?"
	if sourceType != "" {
		where += " AND e.source_type = ?"
		args = append(args, sourceType)
	}
	args = append(args, limit)
	rows, err := v.s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT e.id, e.url, e.title, e.snippet, e.source_type, e.domain, e.published_at
		FROM small_web_fts
		JOIN small_web_entries e ON e.rowid = small_web_fts.rowid
		WHERE %s
		ORDER BY bm25(small_web_fts)
		LIMIT ?`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: small web search: %w", err)
	}
	defer rows.Close()
	var out []types.SmallWebEntry
	for rows.Next() {
		var e types.SmallWebEntry
		if err := rows.Scan(&e.ID, &e.URL, &e.Title, &e.Snippet, &e.SourceType, &e.Domain, &e.PublishedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
