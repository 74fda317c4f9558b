package ftsindex

import (
	"context"
	"fmt"

	"github.com/blugelabs/bluge"

	"github.com/privasearch/search/types"
)

// blugeDriver is the pluggable alternate Driver: a standalone segment-
// based BM25 index, demonstrating the segment/posting-list architecture
// as a second implementation of the same Driver contract the sqlite
// driver satisfies.
type blugeDriver struct {
	writer *bluge.Writer
}

// NewBlugeDriver opens (creating if absent) a bluge index directory at
// path as a Driver.
func NewBlugeDriver(path string) (Driver, error) {
	cfg := bluge.DefaultConfig(path)
	w, err := bluge.OpenWriter(cfg)
	if err != nil {
		return nil, fmt.Errorf("ftsindex: open bluge writer: %w", err)
	}
	return &blugeDriver{writer: w}, nil
}

func blugeDoc(doc types.IndexDocument) *bluge.Document {
	d := bluge.NewDocument(doc.ID)
	for _, tok := range tokenize(doc.Text) {
		d.AddField(bluge.NewTextField("text", tok).SearchTermPositions())
	}
	d.AddField(bluge.NewTextField("url", doc.URL).StoreValue())
	d.AddField(bluge.NewTextField("language", doc.Language))
	return d
}

func (d *blugeDriver) Index(ctx context.Context, doc types.IndexDocument) error {
	if err := d.writer.Update(bluge.NewDocument(doc.ID).ID(), blugeDoc(doc)); err != nil {
		return fmt.Errorf("ftsindex: bluge index %s: %w", doc.ID, err)
	}
	return nil
}

func (d *blugeDriver) IndexBatch(ctx context.Context, docs []types.IndexDocument) error {
	batch := bluge.NewBatch()
	for _, doc := range docs {
		batch.Update(bluge.NewDocument(doc.ID).ID(), blugeDoc(doc))
	}
	if err := d.writer.Batch(batch); err != nil {
		return fmt.Errorf("ftsindex: bluge batch index: %w", err)
	}
	return nil
}

func (d *blugeDriver) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 20
	}
	reader, err := d.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("ftsindex: bluge reader: %w", err)
	}
	defer reader.Close()

	mq := bluge.NewBooleanQuery()
	for _, tok := range tokenize(query) {
		mq.AddShould(bluge.NewTermQuery(tok).SetField("text"))
	}
	req := bluge.NewTopNSearch(limit, mq)
	iter, err := reader.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("ftsindex: bluge search: %w", err)
	}

	var out []SearchHit
	match, err := iter.Next()
	for err == nil && match != nil {
		var id string
		_ = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				id = string(value)
			}
			return true
		})
		out = append(out, SearchHit{DocID: id, Score: match.Score})
		match, err = iter.Next()
	}
	if err != nil {
		return nil, fmt.Errorf("ftsindex: bluge iterate: %w", err)
	}
	return out, nil
}

func (d *blugeDriver) Delete(ctx context.Context, docID string) error {
	if err := d.writer.Delete(bluge.NewDocument(docID).ID()); err != nil {
		return fmt.Errorf("ftsindex: bluge delete %s: %w", docID, err)
	}
	return nil
}

func (d *blugeDriver) Count(ctx context.Context) (int64, error) {
	reader, err := d.writer.Reader()
	if err != nil {
		return 0, fmt.Errorf("ftsindex: bluge reader: %w", err)
	}
	defer reader.Close()
	n, err := reader.Count()
	if err != nil {
		return 0, fmt.Errorf("ftsindex: bluge count: %w", err)
	}
	return int64(n), nil
}

func (d *blugeDriver) Close() error { return d.writer.Close() }
