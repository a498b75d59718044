// Package adminapi is the local tooling endpoint used by the admin console:
// it generates static sites on demand and fronts the store endpoints.
package adminapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/xelns/xelns-web/internal/log"
	"github.com/xelns/xelns-web/internal/snapshot"
	"github.com/xelns/xelns-web/internal/storehttp"
)

const (
	DefaultPort = 8787

	// maxSnapshotBody bounds POST /generate-static.
	maxSnapshotBody = 20 << 20
)

// Generator writes a snapshot file and builds a site from it.
type Generator interface {
	WriteSnapshot(snap *snapshot.Snapshot) (string, error)
	Generate(ctx context.Context, snapshotPath string) (string, error)
}

// Metrics records generation runs.
type Metrics interface {
	ObserveGeneration(outcome string, seconds float64)
}

type Options struct {
	Generator Generator

	// Store serves /api/store* and /api/init-db*. Nil leaves them 404.
	Store   *storehttp.API
	Logger  log.Logger
	Metrics Metrics
}

type API struct {
	gen     Generator
	store   *storehttp.API
	logger  log.Logger
	metrics Metrics

	// one build at a time
	genMu sync.Mutex
}

func New(opts Options) *API {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	return &API{gen: opts.Generator, store: opts.Store, logger: opts.Logger, metrics: opts.Metrics}
}

// Handler returns the complete admin handler with permissive CORS.
func (api *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(api.answerOptions)

	r.Get("/health", api.HandleHealth)
	r.Post("/generate-static", api.HandleGenerate)

	if api.store != nil {
		store := http.HandlerFunc(api.store.HandleStore)
		initDB := http.HandlerFunc(api.store.HandleInitDB)
		r.Handle(storehttp.StorePath, store)
		r.Handle(storehttp.StorePath+"/*", store)
		r.Handle(storehttp.InitDBPath, initDB)
		r.Handle(storehttp.InitDBPath+"/*", initDB)
	}

	notFound := func(w http.ResponseWriter, r *http.Request) {
		api.writeJSON(r.Context(), w, http.StatusNotFound, reply{Error: "not_found"})
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	c := cors.New(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{http.MethodPost, http.MethodGet, http.MethodOptions},
		AllowedHeaders:     []string{"Content-Type"},
		OptionsPassthrough: true,
	})
	return c.Handler(r)
}

// answerOptions acknowledges every OPTIONS request, preflight or not.
func (api *API) answerOptions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			api.writeJSON(r.Context(), w, http.StatusOK, reply{OK: true})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type reply struct {
	OK     bool   `json:"ok"`
	OutDir string `json:"outDir,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (api *API) HandleHealth(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(r.Context(), w, http.StatusOK, reply{OK: true})
}

// HandleGenerate stores the posted snapshot and builds a site from it. A body
// that does not decode is treated as an empty snapshot.
func (api *API) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSnapshotBody))
	if err != nil {
		api.writeJSON(ctx, w, http.StatusRequestEntityTooLarge, reply{Error: err.Error()})
		return
	}
	snap, err := snapshot.Decode(raw)
	if err != nil {
		api.logger.Warn(ctx, "generate-static: body is not a snapshot, using empty", "error", err.Error())
		snap = &snapshot.Snapshot{}
	}

	api.genMu.Lock()
	defer api.genMu.Unlock()
	start := time.Now()

	p, err := api.gen.WriteSnapshot(snap)
	if err != nil {
		api.observe("error", start)
		api.logger.Error(ctx, err, "generate-static: write snapshot failed")
		api.writeJSON(ctx, w, http.StatusInternalServerError, reply{Error: err.Error()})
		return
	}
	outDir, err := api.gen.Generate(ctx, p)
	if err != nil {
		api.observe("error", start)
		api.logger.Error(ctx, err, "generate-static: generation failed", "snapshot", p)
		api.writeJSON(ctx, w, http.StatusInternalServerError, reply{Error: err.Error()})
		return
	}
	api.observe("ok", start)
	api.logger.Info(ctx, "generate-static: done", "snapshot", p, "out_dir", outDir)
	api.writeJSON(ctx, w, http.StatusOK, reply{OK: true, OutDir: outDir})
}

func (api *API) observe(outcome string, start time.Time) {
	if api.metrics != nil {
		api.metrics.ObserveGeneration(outcome, time.Since(start).Seconds())
	}
}

func (api *API) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		api.logger.Warn(ctx, "failed to encode JSON response", "error", err)
	}
}
