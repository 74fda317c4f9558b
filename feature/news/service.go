// Package news composes per-category meta-search calls into a HomeFeed:
// top stories, a preview per category, and a for-you shelf derived from
// read history. It is a thin layer over feature/search per SPEC_FULL.md
// §4.11 (C11): every hit on the feed came from a normal search.Service
// call, just fanned out across categories instead of pages.
package news

import (
	"context"
	"sync"
	"time"

	"github.com/privasearch/search/feature/search"
	"github.com/privasearch/search/store"
	"github.com/privasearch/search/types"
)

const topStoriesLimit = 10
const previewLimit = 5
const forYouLimit = 5

// Service builds HomeFeeds from a search.Service and, optionally, a user's
// recorded history.
type Service struct {
	search     *search.Service
	history    store.HistoryStore
	categories []types.Category
}

// Config wires a Service's collaborators. Categories defaults to
// {news, general, videos} when empty.
type Config struct {
	Search     *search.Service
	History    store.HistoryStore
	Categories []types.Category
}

// New returns a Service per cfg.
func New(cfg Config) *Service {
	cats := cfg.Categories
	if len(cats) == 0 {
		cats = []types.Category{types.CategoryNews, types.CategoryGeneral, types.CategoryVideos}
	}
	return &Service{search: cfg.Search, history: cfg.History, categories: cats}
}

// BuildHomeFeed runs one meta-search per category concurrently (the same
// fan-out shape feature/search's own service.go uses for widget/instant
// enrichment) plus a for-you query derived from userID's most recent
// search history term, and composes the results into a HomeFeed.
func (s *Service) BuildHomeFeed(ctx context.Context, userID string) (types.HomeFeed, error) {
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		categories = make(map[types.Category][]types.Hit, len(s.categories))
		firstErr   error
	)

	record := func(cat types.Category, hits []types.Hit, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		categories[cat] = hits
	}

	for _, cat := range s.categories {
		cat := cat
		wg.Add(1)
		go func() {
			defer wg.Done()
			hits, err := s.previewFor(ctx, userID, cat, previewLimit)
			record(cat, hits, err)
		}()
	}

	var forYou []types.Hit
	wg.Add(1)
	go func() {
		defer wg.Done()
		forYou = s.forYouFor(ctx, userID)
	}()

	wg.Wait()
	if firstErr != nil {
		return types.HomeFeed{}, firstErr
	}

	topStories := categories[types.CategoryNews]
	if len(topStories) > topStoriesLimit {
		topStories = topStories[:topStoriesLimit]
	}

	return types.HomeFeed{
		TopStories:  topStories,
		Categories:  categories,
		ForYou:      forYou,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// previewTerm is the broad placeholder query used for a category's home
// feed preview; types.NewQuery rejects empty text, and a home feed has no
// user-typed query to run, so every category searches this term instead.
const previewTerm = "today"

func (s *Service) previewFor(ctx context.Context, userID string, cat types.Category, limit int) ([]types.Hit, error) {
	res, err := s.search.Search(ctx, userID, types.QueryParams{Text: previewTerm, Category: cat, PerPage: limit}, false, 0)
	if err != nil {
		return nil, err
	}
	if res.Merged == nil {
		return nil, nil
	}
	return res.Merged.Results, nil
}

// forYouFor derives a for-you shelf from userID's most recent search
// history term, degrading to an empty shelf when no history store is
// configured or the user has none yet.
func (s *Service) forYouFor(ctx context.Context, userID string) []types.Hit {
	if s.history == nil || userID == "" {
		return nil
	}
	recent, err := s.history.List(ctx, userID, 1)
	if err != nil || len(recent) == 0 {
		return nil
	}
	res, err := s.search.Search(ctx, userID, types.QueryParams{Text: recent[0].Query, Category: types.CategoryGeneral, PerPage: forYouLimit}, false, 0)
	if err != nil || res.Merged == nil {
		return nil
	}
	return res.Merged.Results
}
