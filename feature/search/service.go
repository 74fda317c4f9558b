package search

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/privasearch/search/feature/bang"
	"github.com/privasearch/search/feature/enrich"
	"github.com/privasearch/search/feature/instant"
	"github.com/privasearch/search/feature/widget"
	"github.com/privasearch/search/pkg/engine"
	"github.com/privasearch/search/pkg/engine/local"
	"github.com/privasearch/search/store"
	"github.com/privasearch/search/types"
)

// luckyBangName is the display name feature/bang assigns the "!lucky"
// trigger; the search service special-cases it into a single-hit
// redirect rather than a normal result page (§4.4).
const luckyBangName = "I'm feeling lucky"

// Redirect is what Search returns when a bang resolves to an external URL
// or the lucky bang finds a top hit; the caller emits an HTTP redirect
// rather than a result page.
type Redirect struct {
	URL      string
	BangName string
}

// Result is the outcome of one Search call: exactly one of Redirect or
// Merged is set.
type Result struct {
	Redirect *Redirect
	Merged   *types.MergedResult
}

// ServiceConfig wires every collaborator the C8 search service
// orchestrates. Only Registry is required; the rest degrade gracefully
// when nil (no cache, no bang table beyond built-ins, no widgets, no
// instant answers, no history).
type ServiceConfig struct {
	Registry   *engine.Registry
	Cache      *Cache
	History    store.HistoryStore
	Suggest    store.SearchStore
	Bang       *bang.Service
	Widget     *widget.Service
	Instant    *instant.Service
	Enrich     *enrich.Service
	Knowledge  store.KnowledgeStore
	MetaSearch MetaSearchConfig
	Logger     zerolog.Logger
}

// Service is the C8 top-level entry point: cache check, bang resolution,
// meta-search fan-out, widget/instant enrichment, history recording, and
// cache store.
type Service struct {
	meta      *MetaSearch
	cache     *Cache
	history   store.HistoryStore
	suggest   store.SearchStore
	bang      *bang.Service
	widget    *widget.Service
	instant   *instant.Service
	enrich    *enrich.Service
	knowledge store.KnowledgeStore
	log       zerolog.Logger
}

// NewService constructs a Service from cfg.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		meta:      NewMetaSearch(cfg.Registry, cfg.MetaSearch),
		cache:     cfg.Cache,
		history:   cfg.History,
		suggest:   cfg.Suggest,
		bang:      cfg.Bang,
		widget:    cfg.Widget,
		instant:   cfg.Instant,
		enrich:    cfg.Enrich,
		knowledge: cfg.Knowledge,
		log:       cfg.Logger,
	}
}

// Stores bundles the persistence interfaces NewServiceWithDefaults needs;
// *sqlite.Store satisfies it directly.
type Stores struct {
	Search     store.SearchStore
	Cache      store.CacheStore
	History    store.HistoryStore
	Bang       store.BangStore
	Widget     store.WidgetStore
	Currency   store.CurrencyStore
	Dictionary store.DictionaryStore
	Knowledge  store.KnowledgeStore
	SmallWeb   store.SmallWebStore
	Index      store.IndexStore
}

// NewServiceWithDefaults builds a Service with exactly one engine — the
// local full-text index wrapping s.Search — and every feature wired to s.
// This is the fallback configuration used when no remote engines are
// configured (e.g. offline deployments, or the cache-miss path before any
// remote engine credentials are available).
func NewServiceWithDefaults(s Stores) *Service {
	reg := engine.NewRegistry()
	reg.Register(local.New(s.Search), types.EngineDescriptor{
		Name:       "local",
		Categories: map[types.Category]bool{types.CategoryGeneral: true},
		MaxPage:    1000,
		TimeoutMs:  2000,
		Weight:     1.0,
		Enabled:    true,
	})
	return NewService(ServiceConfig{
		Registry:  reg,
		Cache:     NewCacheWithDefaults(s.Cache),
		History:   s.History,
		Suggest:   s.Search,
		Bang:      bang.NewService(s.Bang),
		Widget:    widget.NewService(s.Widget),
		Instant:   instant.NewService(s.Currency, s.Dictionary),
		Enrich:    enrich.NewService(s.SmallWeb, s.Index),
		Knowledge: s.Knowledge,
	})
}

// Search runs the full §4.8 pipeline for a general-category query.
func (s *Service) Search(ctx context.Context, userID string, params types.QueryParams, refetch bool, expectedVersion int) (Result, error) {
	if params.Category == "" {
		params.Category = types.CategoryGeneral
	}
	q, err := types.NewQuery(params)
	if err != nil {
		return Result{}, types.NewValidationError(err.Error())
	}

	if !refetch && s.cache != nil {
		version := expectedVersion
		if version == 0 {
			version = CurrentCacheVersion
		}
		if cached, ok, _ := s.cache.Get(ctx, q, version); ok {
			return Result{Merged: &cached}, nil
		}
	}

	q, redirect, lucky, err := s.resolveBang(ctx, userID, q)
	if err != nil {
		return Result{}, err
	}
	if redirect != nil {
		return Result{Redirect: redirect}, nil
	}

	merged, err := s.searchAndEnrich(ctx, userID, q)
	if err != nil {
		return Result{}, err
	}

	if lucky && len(merged.Results) > 0 {
		return Result{Redirect: &Redirect{URL: merged.Results[0].URL, BangName: luckyBangName}}, nil
	}

	s.recordFireAndForget(q)

	if ctx.Err() == nil && s.cache != nil {
		_ = s.cache.Put(ctx, q, merged)
	}

	return Result{Merged: &merged}, nil
}

// resolveBang runs the bang resolver and translates its Result into
// either a rewritten query to keep searching with or a Redirect to return
// immediately, per §4.4. lucky reports whether the matched bang was the
// "!lucky" trigger, so the caller knows to redirect to the top hit rather
// than return a result page.
func (s *Service) resolveBang(ctx context.Context, userID string, q types.Query) (rewritten types.Query, redirect *Redirect, lucky bool, err error) {
	if s.bang == nil {
		return q, nil, false, nil
	}
	res, err := s.bang.Parse(ctx, userID, q)
	if err != nil {
		return q, nil, false, types.NewInternalError(err)
	}
	if !res.Matched {
		return q, nil, false, nil
	}
	if res.RedirectURL != "" {
		return q, &Redirect{URL: res.RedirectURL, BangName: res.BangName}, false, nil
	}
	if res.BangName == luckyBangName {
		return res.Query.WithPerPage(1), nil, true, nil
	}
	return res.Query, nil, false, nil
}

// searchAndEnrich runs meta-search concurrently with the pure/cheap
// widget and instant-answer detectors, merging their output once both
// complete (§4.8 step 5).
func (s *Service) searchAndEnrich(ctx context.Context, userID string, q types.Query) (types.MergedResult, error) {
	var (
		wg            sync.WaitGroup
		merged        types.MergedResult
		metaErr       error
		instantAnswer *types.InstantAnswer
		panel         *types.KnowledgePanel
		widgets       []types.Widget
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		merged, metaErr = s.meta.Search(ctx, q)
	}()

	if s.instant != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if a, ok, _ := s.instant.Detect(ctx, q.Text()); ok {
				instantAnswer = &a
			}
		}()
	}

	if s.knowledge != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p, ok := s.lookupKnowledgePanel(ctx, q.Text()); ok {
				panel = p
			}
		}()
	}

	wg.Wait()
	if metaErr != nil {
		return types.MergedResult{}, types.NewInternalError(metaErr)
	}

	if s.widget != nil {
		if w, err := s.widget.GenerateWidgets(ctx, userID, q.Text(), instantAnswer, panel); err == nil {
			widgets = w
		}
	}

	merged.InstantAnswer = instantAnswer
	merged.KnowledgePanel = panel
	merged.Widgets = widgets
	if s.widget != nil {
		if related, ok, _ := s.widget.GetRelatedSearches(ctx, q.Text()); ok {
			merged.RelatedSearches = related
		}
	}

	if s.enrich != nil && q.Category() == types.CategoryGeneral {
		s.appendSmallWebHits(ctx, &merged, q)
	}

	return merged, nil
}

// lookupKnowledgePanel resolves query's text directly against the
// knowledge store (§4.5's entity lookup rides the literal query text,
// not a derived entity-extraction step).
func (s *Service) lookupKnowledgePanel(ctx context.Context, query string) (*types.KnowledgePanel, bool) {
	e, ok, err := s.knowledge.Lookup(ctx, query)
	if err != nil || !ok {
		return nil, false
	}
	return &types.KnowledgePanel{
		Title:       e.Name,
		Subtitle:    e.Type,
		Description: e.Description,
		Image:       e.Image,
		Facts:       e.Facts,
		Links:       e.Links,
	}, true
}

// maxSmallWebHits bounds how many independent-web entries the enrichment
// step appends per search, so it augments the mainstream result set
// rather than crowding it out.
const maxSmallWebHits = 3

// appendSmallWebHits runs the §4.9 enrichment step: it surfaces
// independent web/news pages alongside the mainstream engines' results,
// tagging each with a "smallweb" engine label so callers can distinguish
// them from ranked search hits. merged.Results has already been paginated
// to q.PerPage() by the meta-search coordinator, so appended hits only
// fill whatever room is left on the page rather than growing it past the
// requested size (§8's results.length <= perPage invariant).
func (s *Service) appendSmallWebHits(ctx context.Context, merged *types.MergedResult, q types.Query) {
	perPage := q.PerPage()
	room := perPage - len(merged.Results)
	if perPage > 0 && room <= 0 {
		return
	}
	limit := maxSmallWebHits
	if perPage > 0 && room < limit {
		limit = room
	}

	results, err := s.enrich.SearchWeb(ctx, q.Text(), limit)
	if err != nil || len(results) == 0 {
		return
	}
	for _, r := range results {
		merged.Results = append(merged.Results, types.Hit{
			URL:      r.Entry.URL,
			Title:    r.Entry.Title,
			Snippet:  r.Entry.Snippet,
			Engine:   "smallweb",
			Category: q.Category(),
		})
	}
	merged.Engines = append(merged.Engines, "smallweb")
}

// recordFireAndForget records the query in search history and the
// suggestion index without blocking the caller or depending on the
// request context outliving the response (§4.8 step 6).
func (s *Service) recordFireAndForget(q types.Query) {
	if s.history == nil && s.suggest == nil {
		return
	}
	text, category := q.Text(), q.Category()
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if s.history != nil {
			_ = s.history.Record(bgCtx, store.SearchHistory{Query: text, Category: category})
		}
		if s.suggest != nil {
			_ = s.suggest.RecordQuery(bgCtx, text)
		}
	}()
}

// SearchImages runs the pipeline with category forced to images.
func (s *Service) SearchImages(ctx context.Context, userID, text string, page, perPage int) (Result, error) {
	return s.Search(ctx, userID, types.QueryParams{Text: text, Category: types.CategoryImages, Page: page, PerPage: perPage}, false, 0)
}

// SearchVideos runs the pipeline with category forced to videos.
func (s *Service) SearchVideos(ctx context.Context, userID, text string, page, perPage int) (Result, error) {
	return s.Search(ctx, userID, types.QueryParams{Text: text, Category: types.CategoryVideos, Page: page, PerPage: perPage}, false, 0)
}

// SearchNews runs the pipeline with category forced to news.
func (s *Service) SearchNews(ctx context.Context, userID, text string, page, perPage int) (Result, error) {
	return s.Search(ctx, userID, types.QueryParams{Text: text, Category: types.CategoryNews, Page: page, PerPage: perPage}, false, 0)
}
