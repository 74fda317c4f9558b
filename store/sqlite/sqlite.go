// Package sqlite implements the store interfaces on top of a single
// modernc.org/sqlite database, using FTS5 virtual tables for full-text
// search, suggestion, and small-web indexing.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/rs/zerolog"
)

// Store owns the database handle and exposes each concern as a narrow
// accessor, mirroring the teacher's one-struct-many-views layout.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithLogger overrides the default discard logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New opens (creating if absent) the sqlite database at path and returns a
// Store. Callers must call Ensure before first use and Close when done.
func New(path string, opts ...Option) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite: single-writer connection avoids SQLITE_BUSY under WAL
	s := &Store{db: db, log: zerolog.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the raw handle for migrations/tests that need it directly.
func (s *Store) DB() *sql.DB { return s.db }

// Ensure creates every table, index, and FTS5 virtual table the store
// needs. It is idempotent and safe to call on every process start.
func (s *Store) Ensure(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: ensure schema: %w", err)
		}
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		url TEXT UNIQUE NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		domain TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		content_type TEXT NOT NULL DEFAULT '',
		favicon TEXT NOT NULL DEFAULT '',
		word_count INTEGER NOT NULL DEFAULT 0,
		indexed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
		title, content, description,
		content='documents', content_rowid='rowid', tokenize='porter unicode61'
	)`,
	`CREATE TRIGGER IF NOT EXISTS documents_ai AFTER INSERT ON documents BEGIN
		INSERT INTO documents_fts(rowid, title, content, description)
		VALUES (new.rowid, new.title, new.content, new.description);
	END`,
	`CREATE TRIGGER IF NOT EXISTS documents_ad AFTER DELETE ON documents BEGIN
		INSERT INTO documents_fts(documents_fts, rowid, title, content, description)
		VALUES ('delete', old.rowid, old.title, old.content, old.description);
	END`,
	`CREATE TRIGGER IF NOT EXISTS documents_au AFTER UPDATE ON documents BEGIN
		INSERT INTO documents_fts(documents_fts, rowid, title, content, description)
		VALUES ('delete', old.rowid, old.title, old.content, old.description);
		INSERT INTO documents_fts(rowid, title, content, description)
		VALUES (new.rowid, new.title, new.content, new.description);
	END`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS suggest_fts USING fts5(term, tokenize='trigram')`,
	`CREATE TABLE IF NOT EXISTS cache_entries (
		fingerprint TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		created_at DATETIME NOT NULL,
		ttl_seconds INTEGER NOT NULL,
		version INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS bangs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL DEFAULT '',
		trigger TEXT NOT NULL,
		name TEXT NOT NULL,
		url_template TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		is_external INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, trigger)
	)`,
	`CREATE TABLE IF NOT EXISTS entities (
		name TEXT PRIMARY KEY,
		type TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT '',
		facts_json TEXT NOT NULL DEFAULT '{}',
		links_json TEXT NOT NULL DEFAULT '[]'
	)`,
	`CREATE TABLE IF NOT EXISTS widget_settings (
		user_id TEXT NOT NULL,
		widget_type TEXT NOT NULL,
		enabled INTEGER NOT NULL DEFAULT 1,
		position INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, widget_type)
	)`,
	`CREATE TABLE IF NOT EXISTS related_searches (
		query_hash TEXT PRIMARY KEY,
		related_json TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS cheat_sheets (
		language TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		sections_json TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS small_web_entries (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		snippet TEXT NOT NULL DEFAULT '',
		source_type TEXT NOT NULL DEFAULT 'web',
		domain TEXT NOT NULL DEFAULT '',
		published_at DATETIME
	)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS small_web_fts USING fts5(
		title, snippet, content='small_web_entries', content_rowid='rowid'
	)`,
	`CREATE TRIGGER IF NOT EXISTS small_web_ai AFTER INSERT ON small_web_entries BEGIN
		INSERT INTO small_web_fts(rowid, title, snippet) VALUES (new.rowid, new.title, new.snippet);
	END`,
	`CREATE TRIGGER IF NOT EXISTS small_web_ad AFTER DELETE ON small_web_entries BEGIN
		INSERT INTO small_web_fts(small_web_fts, rowid, title, snippet) VALUES ('delete', old.rowid, old.title, old.snippet);
	END`,
	`CREATE TRIGGER IF NOT EXISTS small_web_au AFTER UPDATE ON small_web_entries BEGIN
		INSERT INTO small_web_fts(small_web_fts, rowid, title, snippet) VALUES ('delete', old.rowid, old.title, old.snippet);
		INSERT INTO small_web_fts(rowid, title, snippet) VALUES (new.rowid, new.title, new.snippet);
	END`,
	`CREATE TABLE IF NOT EXISTS search_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		query TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'general',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_history_user ON search_history(user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS user_preferences (
		user_id TEXT PRIMARY KEY,
		safe_search TEXT NOT NULL DEFAULT 'moderate',
		locale TEXT NOT NULL DEFAULT '',
		preferred_engines_json TEXT NOT NULL DEFAULT '[]',
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS search_lenses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		sites_json TEXT NOT NULL DEFAULT '[]',
		built_in INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS currency_rates (
		from_code TEXT NOT NULL,
		to_code TEXT NOT NULL,
		rate REAL NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (from_code, to_code)
	)`,
	`CREATE TABLE IF NOT EXISTS dictionary_entries (
		word TEXT PRIMARY KEY COLLATE NOCASE,
		definition TEXT NOT NULL DEFAULT '',
		synonyms_json TEXT NOT NULL DEFAULT '[]'
	)`,
	`CREATE TABLE IF NOT EXISTS crawl_seeds (
		url TEXT PRIMARY KEY,
		domain TEXT NOT NULL,
		domain_dead INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_crawl_seeds_domain ON crawl_seeds(domain)`,
	`CREATE TABLE IF NOT EXISTS crawl_state (
		url TEXT PRIMARY KEY,
		attempts INTEGER NOT NULL DEFAULT 0,
		last_status INTEGER NOT NULL DEFAULT 0,
		last_crawled_at DATETIME,
		domain_dead INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS crawl_results (
		url TEXT PRIMARY KEY,
		status_code INTEGER NOT NULL DEFAULT 0,
		content_type TEXT NOT NULL DEFAULT '',
		content_length INTEGER NOT NULL DEFAULT 0,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		redirect_url TEXT NOT NULL DEFAULT '',
		fetch_time_ms INTEGER NOT NULL DEFAULT 0,
		crawled_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		error TEXT NOT NULL DEFAULT ''
	)`,
}
