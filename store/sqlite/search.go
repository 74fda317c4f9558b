package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/privasearch/search/store"
)

// searchView implements store.SearchStore over the documents_fts table.
type searchView struct{ s *Store }

// Search returns the store.SearchStore view of this Store.
func (s *Store) Search() store.SearchStore { return searchView{s} }

func (v searchView) Search(ctx context.Context, query string, opts store.SearchOptions) ([]store.Document, int, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = 10
	}
	offset := (page - 1) * perPage

	match := ftsMatchExpr(query, opts.Verbatim)
	args := []any{match}
	where := []string{"documents_fts MATCH ?"}
	if opts.Site != "" {
		where = append(where, "d.domain = ?")
		args = append(args, opts.Site)
	}
	if opts.ExcludeSite != "" {
		where = append(where, "d.domain != ?")
		args = append(args, opts.ExcludeSite)
	}
	if opts.Language != "" {
		where = append(where, "d.language = ?")
		args = append(args, opts.Language)
	}
	whereClause := strings.Join(where, " AND ")

	countQuery := fmt.Sprintf(`
		SELECT count(*)
		FROM documents_fts
		JOIN documents d ON d.rowid = documents_fts.rowid
		WHERE %s`, whereClause)
	var total int
	if err := v.s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: count search results: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT d.id, d.url, d.title, d.content, d.description, d.domain, d.language,
		       d.content_type, d.favicon, d.word_count, d.indexed_at
		FROM documents_fts
		JOIN documents d ON d.rowid = documents_fts.rowid
		WHERE %s
		ORDER BY bm25(documents_fts)
		LIMIT ? OFFSET ?`, whereClause)
	listArgs := append(append([]any{}, args...), perPage, offset)
	rows, err := v.s.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: search: %w", err)
	}
	defer rows.Close()

	var docs []store.Document
	for rows.Next() {
		var d store.Document
		if err := rows.Scan(&d.ID, &d.URL, &d.Title, &d.Content, &d.Description,
			&d.Domain, &d.Language, &d.ContentType, &d.Favicon, &d.WordCount, &d.IndexedAt); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, total, rows.Err()
}

func (v searchView) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := v.s.db.QueryContext(ctx, `
		SELECT DISTINCT term FROM suggest_fts WHERE suggest_fts MATCH ? || '*' LIMIT ?`, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: suggest: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var term string
		if err := rows.Scan(&term); err != nil {
			return nil, err
		}
		out = append(out, term)
	}
	return out, rows.Err()
}

func (v searchView) RecordQuery(ctx context.Context, query string) error {
	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		return nil
	}
	_, err := v.s.db.ExecContext(ctx, `INSERT INTO suggest_fts (term) VALUES (?)`, term)
	if err != nil {
		return fmt.Errorf("sqlite: record query suggestion %q: %w", term, err)
	}
	return nil
}

// ftsMatchExpr builds an FTS5 MATCH expression. Verbatim queries are
// wrapped in quotes for an exact phrase match; otherwise every token is
// individually required.
func ftsMatchExpr(query string, verbatim bool) string {
	q := strings.TrimSpace(query)
	if verbatim {
		return `"` + strings.ReplaceAll(q, `"`, `""`) + `"`
	}
	fields := strings.Fields(q)
	for i, f := range fields {
		fields[i] = strings.ReplaceAll(f, `"`, `""`) + "*"
	}
	return strings.Join(fields, " AND ")
}

// indexView implements store.IndexStore over the documents table.
type indexView struct{ s *Store }

// Index returns the store.IndexStore view of this Store.
func (s *Store) Index() store.IndexStore { return indexView{s} }

func (v indexView) Upsert(ctx context.Context, doc store.Document) error {
	return v.s.upsertDocument(ctx, v.s.db, doc)
}

func (v indexView) UpsertBatch(ctx context.Context, docs []store.Document) error {
	tx, err := v.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin batch upsert: %w", err)
	}
	defer tx.Rollback()
	for _, d := range docs {
		if err := v.s.upsertDocument(ctx, tx, d); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) upsertDocument(ctx context.Context, ex execer, d store.Document) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.IndexedAt.IsZero() {
		d.IndexedAt = time.Now().UTC()
	}
	_, err := ex.ExecContext(ctx, `
		INSERT INTO documents (id, url, title, content, description, domain, language, content_type, favicon, word_count, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			title=excluded.title, content=excluded.content, description=excluded.description,
			domain=excluded.domain, language=excluded.language, content_type=excluded.content_type,
			favicon=excluded.favicon, word_count=excluded.word_count, indexed_at=excluded.indexed_at`,
		d.ID, d.URL, d.Title, d.Content, d.Description, d.Domain, d.Language, d.ContentType, d.Favicon, d.WordCount, d.IndexedAt)
	if err != nil {
		return fmt.Errorf("sqlite: upsert document %s: %w", d.URL, err)
	}
	return nil
}

func (v indexView) Delete(ctx context.Context, url string) error {
	_, err := v.s.db.ExecContext(ctx, `DELETE FROM documents WHERE url = ?`, url)
	if err != nil {
		return fmt.Errorf("sqlite: delete document %s: %w", url, err)
	}
	return nil
}

func (v indexView) Get(ctx context.Context, url string) (store.Document, error) {
	var d store.Document
	err := v.s.db.QueryRowContext(ctx, `
		SELECT id, url, title, content, description, domain, language, content_type, favicon, word_count, indexed_at
		FROM documents WHERE url = ?`, url).Scan(
		&d.ID, &d.URL, &d.Title, &d.Content, &d.Description, &d.Domain, &d.Language, &d.ContentType, &d.Favicon, &d.WordCount, &d.IndexedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Document{}, fmt.Errorf("sqlite: document %s: %w", url, sql.ErrNoRows)
	}
	if err != nil {
		return store.Document{}, fmt.Errorf("sqlite: get document %s: %w", url, err)
	}
	return d, nil
}

func (v indexView) Count(ctx context.Context) (int64, error) {
	var n int64
	err := v.s.db.QueryRowContext(ctx, `SELECT count(*) FROM documents`).Scan(&n)
	return n, err
}
