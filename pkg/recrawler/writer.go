package recrawler

import (
	"context"
	"fmt"
	"time"

	"github.com/privasearch/search/store"
	"github.com/privasearch/search/types"
)

// batchWriter is stage 3: a single worker accumulating outcomes into
// batches of cfg.BatchSize and flushing results and state deltas to their
// respective stores, retrying a failed flush with exponential backoff
// before propagating a fatal error (§4.10 stage 3).
type batchWriter struct {
	cfg     Config
	results store.CrawlResultStore
	state   store.CrawlStateStore
}

func newBatchWriter(cfg Config, results store.CrawlResultStore, state store.CrawlStateStore) *batchWriter {
	return &batchWriter{cfg: cfg, results: results, state: state}
}

// Stats summarizes one pipeline run.
type Stats struct {
	Fetched       int
	Errored       int
	DomainsSkipped int
}

// run drains in, batching outcomes, and flushes each full batch (and the
// final partial one) until in is closed or ctx is cancelled. It returns
// the run's Stats, or a fatal error if a flush exhausts its retries.
func (w *batchWriter) run(ctx context.Context, in <-chan outcome) (Stats, error) {
	var (
		stats       Stats
		resultBatch = make([]types.CrawlResult, 0, w.cfg.BatchSize)
		stateBatch  = make([]types.CrawlState, 0, w.cfg.BatchSize)
	)

	flush := func() error {
		if len(resultBatch) > 0 {
			if err := w.flushWithRetry(ctx, resultBatch, stateBatch); err != nil {
				return err
			}
			resultBatch = resultBatch[:0]
			stateBatch = stateBatch[:0]
		} else if len(stateBatch) > 0 {
			if err := w.flushStateWithRetry(ctx, stateBatch); err != nil {
				return err
			}
			stateBatch = stateBatch[:0]
		}
		return nil
	}

	for o := range in {
		if o.result != nil {
			resultBatch = append(resultBatch, *o.result)
			if o.result.Error != "" {
				stats.Errored++
			} else {
				stats.Fetched++
			}
		} else {
			stats.Errored++
		}
		if o.state.URL != "" {
			stateBatch = append(stateBatch, o.state)
		}
		if len(resultBatch) >= w.cfg.BatchSize || len(stateBatch) >= w.cfg.BatchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}
	return stats, nil
}

func (w *batchWriter) flushWithRetry(ctx context.Context, results []types.CrawlResult, states []types.CrawlState) error {
	return withBackoff(ctx, w.cfg.MaxWriteRetries, func() error {
		if err := w.results.SaveBatch(ctx, results); err != nil {
			return err
		}
		if len(states) > 0 {
			return w.state.SaveBatch(ctx, states)
		}
		return nil
	})
}

func (w *batchWriter) flushStateWithRetry(ctx context.Context, states []types.CrawlState) error {
	return withBackoff(ctx, w.cfg.MaxWriteRetries, func() error {
		return w.state.SaveBatch(ctx, states)
	})
}

// withBackoff retries fn with exponential backoff (100ms, 200ms, 400ms, …)
// up to maxRetries times before returning the last error, wrapped so the
// caller can tell a fatal write failure apart from a transient one by its
// message alone.
func withBackoff(ctx context.Context, maxRetries int, fn func() error) error {
	var lastErr error
	delay := 100 * time.Millisecond
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if attempt == maxRetries {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return fmt.Errorf("recrawler: flush failed after %d retries: %w", maxRetries, lastErr)
}

// resumeProcessed returns the set of URLs already written in the current
// run window, used to skip seeds the seed reader would otherwise refetch
// (§4.10 "Resume").
func resumeProcessed(ctx context.Context, state store.CrawlStateStore, since time.Time) (map[string]bool, error) {
	urls, err := state.Processed(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("recrawler: resume lookup: %w", err)
	}
	out := make(map[string]bool, len(urls))
	for _, u := range urls {
		out[u] = true
	}
	return out, nil
}
