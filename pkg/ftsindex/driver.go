// Package ftsindex abstracts the full-text index behind a pluggable
// Driver so the local search vertical can run on either the shared
// sqlite FTS5 database or a standalone bluge segment index.
package ftsindex

import (
	"context"

	"github.com/privasearch/search/types"
)

// SearchHit is one match returned by a Driver.
type SearchHit struct {
	DocID string
	Score float64
}

// Driver is a full-text index backend: index documents, search them,
// delete by ID, and report a document count.
type Driver interface {
	Index(ctx context.Context, doc types.IndexDocument) error
	IndexBatch(ctx context.Context, docs []types.IndexDocument) error
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
	Delete(ctx context.Context, docID string) error
	Count(ctx context.Context) (int64, error)
	Close() error
}

// DriverKind selects which Driver implementation to construct.
type DriverKind string

const (
	DriverSQLiteFTS5 DriverKind = "sqlite_fts5"
	DriverBluge      DriverKind = "bluge"
)
