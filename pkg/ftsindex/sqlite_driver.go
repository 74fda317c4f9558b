package ftsindex

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/privasearch/search/types"
)

// sqliteDriver is the mandatory, durable Driver backed by FTS5. It owns
// its own table (distinct from store/sqlite's documents table) so the
// recrawler's index pipeline can run against a standalone database file
// when it isn't sharing the main store.
type sqliteDriver struct {
	db *sql.DB
}

// NewSQLiteDriver opens (creating if absent) an FTS5-backed Driver at path.
func NewSQLiteDriver(path string) (Driver, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", path))
	if err != nil {
		return nil, fmt.Errorf("ftsindex: open sqlite driver: %w", err)
	}
	db.SetMaxOpenConns(1)
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS fts_documents (
			id TEXT PRIMARY KEY, url TEXT NOT NULL, text TEXT NOT NULL, dump TEXT NOT NULL DEFAULT '',
			language TEXT NOT NULL DEFAULT '', language_score REAL NOT NULL DEFAULT 0, doc_date DATETIME
		)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_documents_fts USING fts5(
			text, content='fts_documents', content_rowid='rowid', tokenize='porter unicode61'
		)`,
		`CREATE TRIGGER IF NOT EXISTS fts_documents_ai AFTER INSERT ON fts_documents BEGIN
			INSERT INTO fts_documents_fts(rowid, text) VALUES (new.rowid, new.text);
		END`,
		`CREATE TRIGGER IF NOT EXISTS fts_documents_ad AFTER DELETE ON fts_documents BEGIN
			INSERT INTO fts_documents_fts(fts_documents_fts, rowid, text) VALUES ('delete', old.rowid, old.text);
		END`,
		`CREATE TRIGGER IF NOT EXISTS fts_documents_au AFTER UPDATE ON fts_documents BEGIN
			INSERT INTO fts_documents_fts(fts_documents_fts, rowid, text) VALUES ('delete', old.rowid, old.text);
			INSERT INTO fts_documents_fts(rowid, text) VALUES (new.rowid, new.text);
		END`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			db.Close()
			return nil, fmt.Errorf("ftsindex: sqlite schema: %w", err)
		}
	}
	return &sqliteDriver{db: db}, nil
}

func (d *sqliteDriver) Index(ctx context.Context, doc types.IndexDocument) error {
	return d.indexOne(ctx, d.db, doc)
}

func (d *sqliteDriver) IndexBatch(ctx context.Context, docs []types.IndexDocument) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ftsindex: sqlite batch begin: %w", err)
	}
	defer tx.Rollback()
	for _, doc := range docs {
		if err := d.indexOne(ctx, tx, doc); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (d *sqliteDriver) indexOne(ctx context.Context, ex execer, doc types.IndexDocument) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO fts_documents (id, url, text, dump, language, language_score, doc_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url=excluded.url, text=excluded.text, dump=excluded.dump,
			language=excluded.language, language_score=excluded.language_score, doc_date=excluded.doc_date`,
		doc.ID, doc.URL, doc.Text, doc.Dump, doc.Language, doc.LanguageScore, doc.Date)
	if err != nil {
		return fmt.Errorf("ftsindex: sqlite index %s: %w", doc.ID, err)
	}
	return nil
}

func (d *sqliteDriver) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.QueryContext(ctx, `
		SELECT d.id, bm25(fts_documents_fts) FROM fts_documents_fts
		JOIN fts_documents d ON d.rowid = fts_documents_fts.rowid
		WHERE fts_documents_fts MATCH ? ORDER BY bm25(fts_documents_fts) LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ftsindex: sqlite search: %w", err)
	}
	defer rows.Close()
	var out []SearchHit
	for rows.Next() {
		var h SearchHit
		var rawScore float64
		if err := rows.Scan(&h.DocID, &rawScore); err != nil {
			return nil, err
		}
		h.Score = -rawScore // bm25() is negative-is-better in sqlite; invert to positive-is-better
		out = append(out, h)
	}
	return out, rows.Err()
}

func (d *sqliteDriver) Delete(ctx context.Context, docID string) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM fts_documents WHERE id = ?`, docID)
	if err != nil {
		return fmt.Errorf("ftsindex: sqlite delete %s: %w", docID, err)
	}
	return nil
}

func (d *sqliteDriver) Count(ctx context.Context) (int64, error) {
	var n int64
	err := d.db.QueryRowContext(ctx, `SELECT count(*) FROM fts_documents`).Scan(&n)
	return n, err
}

func (d *sqliteDriver) Close() error { return d.db.Close() }
