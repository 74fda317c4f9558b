package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/gorilla/websocket"

	"github.com/privasearch/search/feature/ai"
	"github.com/privasearch/search/feature/bang"
	"github.com/privasearch/search/feature/canvas"
	"github.com/privasearch/search/feature/enrich"
	"github.com/privasearch/search/feature/instant"
	"github.com/privasearch/search/feature/news"
	"github.com/privasearch/search/feature/search"
	"github.com/privasearch/search/feature/session"
	"github.com/privasearch/search/feature/widget"
	"github.com/privasearch/search/pkg/engine"
	"github.com/privasearch/search/pkg/engine/bing"
	"github.com/privasearch/search/pkg/engine/duckduckgo"
	"github.com/privasearch/search/pkg/engine/ftslocal"
	"github.com/privasearch/search/pkg/engine/google"
	"github.com/privasearch/search/pkg/engine/jina"
	"github.com/privasearch/search/pkg/engine/local"
	"github.com/privasearch/search/pkg/engine/peertube"
	"github.com/privasearch/search/pkg/engine/vimeo"
	"github.com/privasearch/search/pkg/engine/youtube"
	"github.com/privasearch/search/pkg/ftsindex"
	"github.com/privasearch/search/store"
	"github.com/privasearch/search/store/sqlite"
	"github.com/privasearch/search/types"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the search HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

// registerEngines registers every network-backed engine that isn't
// explicitly disabled in cfg.Engines, plus the always-on local index.
func registerEngines(reg *engine.Registry, st *sqlite.Store, cfg Config) {
	client := &http.Client{Timeout: 10 * time.Second}

	type entry struct {
		name string
		eng  engine.Engine
		cats map[types.Category]bool
	}
	entries := []entry{
		{"google", google.New(client), map[types.Category]bool{types.CategoryGeneral: true, types.CategoryImages: true}},
		{"bing", bing.New(client), map[types.Category]bool{types.CategoryGeneral: true}},
		{"duckduckgo", duckduckgo.New(client), map[types.Category]bool{types.CategoryGeneral: true}},
		{"youtube", youtube.New(client), map[types.Category]bool{types.CategoryVideos: true}},
		{"vimeo", vimeo.New(client), map[types.Category]bool{types.CategoryVideos: true}},
		{"peertube", peertube.New(client), map[types.Category]bool{types.CategoryVideos: true}},
		{"jina", jina.New(client), map[types.Category]bool{types.CategoryGeneral: true}},
	}

	for _, e := range entries {
		weight := 1.0
		timeoutMs := 5000
		enabled := true
		if o, ok := cfg.Engines[e.name]; ok {
			if o.Enabled != nil {
				enabled = *o.Enabled
			}
			if o.Weight > 0 {
				weight = o.Weight
			}
			if o.TimeoutMs > 0 {
				timeoutMs = o.TimeoutMs
			}
		}
		if !enabled {
			continue
		}
		reg.Register(e.eng, types.EngineDescriptor{
			Name:       e.name,
			Categories: e.cats,
			MaxPage:    50,
			TimeoutMs:  timeoutMs,
			Weight:     weight,
			Enabled:    true,
		})
	}

	reg.Register(local.New(st.Search()), types.EngineDescriptor{
		Name:       "local",
		Categories: map[types.Category]bool{types.CategoryGeneral: true},
		MaxPage:    1000,
		TimeoutMs:  2000,
		Weight:     0.5,
		Enabled:    true,
	})

	if cfg.FTS.Driver == "bluge" {
		registerBlugeEngine(reg, st, cfg)
	}
}

// registerBlugeEngine wires the alternate bluge-backed full-text driver
// (SPEC_FULL.md §4.9) in as its own low-weight engine alongside "local",
// rather than replacing it — both read the same document corpus through
// store.IndexStore, just via different index implementations.
func registerBlugeEngine(reg *engine.Registry, st *sqlite.Store, cfg Config) {
	dataDir := cfg.FTS.DataDir
	if dataDir == "" {
		dataDir = "ftsindex-bluge"
	}
	driver, err := ftsindex.New(ftsindex.DriverBluge, dataDir)
	if err != nil {
		logger.Warn().Err(err).Msg("bluge index unavailable, skipping ftslocal engine")
		return
	}
	reg.Register(ftslocal.New("ftslocal", driver, st.Index()), types.EngineDescriptor{
		Name:       "ftslocal",
		Categories: map[types.Category]bool{types.CategoryGeneral: true},
		MaxPage:    1000,
		TimeoutMs:  2000,
		Weight:     0.3,
		Enabled:    true,
	})
}

func runServe(ctx context.Context, cfg Config) error {
	st, err := sqlite.New(cfg.DBPath, sqlite.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	if err := st.Ensure(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	reg := engine.NewRegistry()
	registerEngines(reg, st, cfg)

	svc := search.NewService(search.ServiceConfig{
		Registry: reg,
		Cache: search.NewCache(st.Cache(), map[types.Category]time.Duration{
			"":                   cfg.Cache.TTLDefault,
			types.CategoryImages: cfg.Cache.TTLImages,
			types.CategoryNews:   cfg.Cache.TTLNews,
		}),
		History:   st.History(),
		Suggest:   st.Search(),
		Bang:      bang.NewService(st.Bang()),
		Widget:    widget.NewService(st.Widget()),
		Instant:   instant.NewService(st.Currency(), st.Dictionary()),
		Enrich:    enrich.NewService(st.SmallWeb(), st.Index()),
		Knowledge: st.Knowledge(),
		Logger:    logger,
		MetaSearch: search.MetaSearchConfig{
			RequestBudget: time.Duration(cfg.MetaSearch.RequestBudgetMs) * time.Millisecond,
			EarlyReturn:   time.Duration(cfg.MetaSearch.EarlyReturnMs) * time.Millisecond,
			MinEngines:    cfg.MetaSearch.MinEngines,
			Logger:        logger,
		},
	})
	newsSvc := news.New(news.Config{Search: svc, History: st.History()})
	sessions := session.New()
	aiSvc := ai.New(sessions, svc, "")
	hub := canvas.NewHub()

	mux := http.NewServeMux()
	registerSearchRoutes(mux, svc, st.Search())
	registerFeedRoutes(mux, newsSvc)
	registerAIRoutes(mux, aiSvc, sessions)
	registerCanvasRoutes(mux, hub, sessions)

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	logger.Info().Str("addr", cfg.Addr).Msg("searchd listening")
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func registerSearchRoutes(mux *http.ServeMux, svc *search.Service, suggest store.SearchStore) {
	handle := func(cat types.Category) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			params := parseQueryParams(r, cat)
			userID := r.URL.Query().Get("user")
			refetch := r.URL.Query().Get("refetch") == "true"
			version, _ := strconv.Atoi(r.URL.Query().Get("version"))

			res, err := svc.Search(r.Context(), userID, params, refetch, version)
			if err != nil {
				writeError(w, statusForErr(err), err)
				return
			}
			if res.Redirect != nil {
				writeJSON(w, http.StatusOK, res.Redirect)
				return
			}
			writeJSON(w, http.StatusOK, res.Merged)
		}
	}
	mux.HandleFunc("/search", handle(types.CategoryGeneral))
	mux.HandleFunc("/search/images", handle(types.CategoryImages))
	mux.HandleFunc("/search/videos", handle(types.CategoryVideos))
	mux.HandleFunc("/search/news", handle(types.CategoryNews))

	mux.HandleFunc("/suggest", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		hits, err := suggest.Suggest(r.Context(), q, 10)
		if err != nil {
			writeError(w, statusForErr(err), err)
			return
		}
		writeJSON(w, http.StatusOK, hits)
	})
}

func registerFeedRoutes(mux *http.ServeMux, svc *news.Service) {
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user")
		feed, err := svc.BuildHomeFeed(r.Context(), userID)
		if err != nil {
			writeError(w, statusForErr(err), err)
			return
		}
		writeJSON(w, http.StatusOK, feed)
	})
}

func registerAIRoutes(mux *http.ServeMux, svc *ai.Service, sessions *session.Service) {
	mux.HandleFunc("/ai/ask", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			SessionID string `json:"sessionId"`
			Message   string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		msg, err := svc.Ask(r.Context(), body.SessionID, body.Message)
		if err != nil {
			writeError(w, statusForErr(err), err)
			return
		}
		writeJSON(w, http.StatusOK, msg)
	})
}

var canvasUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// registerCanvasRoutes wires the C11 canvas WebSocket stream: the upgrade
// handshake happens here (the excluded HTTP surface), everything past it
// runs through feature/canvas's connection-registry Hub.
func registerCanvasRoutes(mux *http.ServeMux, hub *canvas.Hub, sessions *session.Service) {
	mux.HandleFunc("/ws/canvas", func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session")
		if _, ok := sessions.Get(r.Context(), sessionID); !ok {
			http.Error(w, "unknown session", http.StatusNotFound)
			return
		}
		conn, err := canvasUpgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("canvas: websocket upgrade failed")
			return
		}
		unsubscribe := hub.Subscribe(sessionID, conn)
		defer unsubscribe()

		for {
			var block types.Block
			if err := conn.ReadJSON(&block); err != nil {
				return
			}
			saved, ok := sessions.AppendBlock(r.Context(), sessionID, block)
			if !ok {
				return
			}
			hub.Broadcast(sessionID, saved)
		}
	})
}

func parseQueryParams(r *http.Request, cat types.Category) types.QueryParams {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return types.QueryParams{
		Text:        q.Get("q"),
		Category:    cat,
		Page:        page,
		PerPage:     perPage,
		Locale:      q.Get("lang"),
		SafeSearch:  types.SafeSearch(q.Get("safe")),
		TimeRange:   types.TimeRange(q.Get("time")),
		Verbatim:    q.Get("verbatim") == "true",
		SiteInclude: q.Get("site"),
		SiteExclude: q.Get("exclude_site"),
		FileType:    q.Get("filetype"),
	}
}

func statusForErr(err error) int {
	var te *types.Error
	if errors.As(err, &te) {
		switch te.Kind {
		case types.KindValidation:
			return http.StatusBadRequest
		case types.KindNotFound:
			return http.StatusNotFound
		case types.KindRateLimited:
			return http.StatusTooManyRequests
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
