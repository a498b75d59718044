// Package storehttp serves the remote content store over HTTP:
//
//	GET  /api/store    current document ({} when never written)
//	POST /api/store    allow-list, stamp and overwrite
//	GET  /api/init-db  reset to {}
//
// Every response carries Cache-Control: no-store, max-age=0.
package storehttp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/xelns/xelns-web/internal/cryptoutil"
	"github.com/xelns/xelns-web/internal/log"
	"github.com/xelns/xelns-web/internal/remotestore"
)

const (
	StorePath  = "/api/store"
	InitDBPath = "/api/init-db"

	// DefaultMaxBody bounds a published document.
	DefaultMaxBody int64 = 20 << 20
)

// Store is the remote document the endpoints read and write.
type Store interface {
	Read(ctx context.Context) ([]byte, error)
	Publish(ctx context.Context, body []byte) (string, error)
	Reset(ctx context.Context) error
}

// Metrics counts endpoint outcomes.
type Metrics interface {
	IncStoreRequest(op, outcome string)
}

type Options struct {
	Store  Store
	Logger log.Logger

	// Token, when set, is required as a bearer token on POST /api/store and
	// GET /api/init-db. Reads stay public.
	Token string

	MaxBody int64

	// WriteLimit wraps the mutating handlers, usually a per-ip rate limiter.
	WriteLimit func(http.Handler) http.Handler

	Metrics Metrics
}

type API struct {
	store   Store
	logger  log.Logger
	token   string
	maxBody int64
	limit   func(http.Handler) http.Handler
	metrics Metrics
}

func New(opts Options) *API {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	if opts.MaxBody <= 0 {
		opts.MaxBody = DefaultMaxBody
	}
	if opts.WriteLimit == nil {
		opts.WriteLimit = func(h http.Handler) http.Handler { return h }
	}
	return &API{
		store:   opts.Store,
		logger:  opts.Logger,
		token:   opts.Token,
		maxBody: opts.MaxBody,
		limit:   opts.WriteLimit,
		metrics: opts.Metrics,
	}
}

// RegisterRoutes attaches the store endpoints to r. Methods are dispatched in
// the handlers so that unsupported ones get the JSON 405 body rather than the
// router's.
func (api *API) RegisterRoutes(r chi.Router) {
	r.HandleFunc(StorePath, api.HandleStore)
	r.HandleFunc(InitDBPath, api.HandleInitDB)
}

// Handler returns a standalone router with only the store endpoints.
func (api *API) Handler() http.Handler {
	r := chi.NewRouter()
	api.RegisterRoutes(r)
	return r
}

func (api *API) HandleStore(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	switch r.Method {
	case http.MethodGet:
		api.handleRead(w, r)
	case http.MethodPost:
		api.limit(http.HandlerFunc(api.handlePublish)).ServeHTTP(w, r)
	default:
		api.count("store", "method_not_allowed")
		api.writeJSON(r.Context(), w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
	}
}

func (api *API) HandleInitDB(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	if r.Method != http.MethodGet {
		api.count("init_db", "method_not_allowed")
		api.writeJSON(r.Context(), w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
		return
	}
	api.limit(http.HandlerFunc(api.handleReset)).ServeHTTP(w, r)
}

type errorBody struct {
	Error string `json:"error"`
}

type resultBody struct {
	Success     bool   `json:"success"`
	PublishedID string `json:"publishedId,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (api *API) handleRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := api.store.Read(ctx)
	if err != nil {
		api.logger.Error(ctx, err, "store read failed")
		api.count("read", "error")
		api.writeJSON(ctx, w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	api.count("read", "ok")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

func (api *API) handlePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !api.authorized(r) {
		api.count("publish", "unauthorized")
		api.writeJSON(ctx, w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, api.maxBody))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			api.count("publish", "too_large")
			api.writeJSON(ctx, w, http.StatusRequestEntityTooLarge, errorBody{Error: "request body too large"})
			return
		}
		api.count("publish", "error")
		api.writeJSON(ctx, w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	stamp, err := api.store.Publish(ctx, body)
	switch {
	case errors.Is(err, remotestore.ErrBadDocument):
		api.count("publish", "bad_request")
		api.writeJSON(ctx, w, http.StatusBadRequest, errorBody{Error: remotestore.ErrBadDocument.Error()})
		return
	case err != nil:
		api.logger.Error(ctx, err, "store publish failed")
		api.count("publish", "error")
		api.writeJSON(ctx, w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}

	api.count("publish", "ok")
	api.writeJSON(ctx, w, http.StatusOK, resultBody{Success: true, PublishedID: stamp})
}

func (api *API) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !api.authorized(r) {
		api.count("init_db", "unauthorized")
		api.writeJSON(ctx, w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}
	if err := api.store.Reset(ctx); err != nil {
		api.logger.Error(ctx, err, "store reset failed")
		api.count("init_db", "error")
		api.writeJSON(ctx, w, http.StatusInternalServerError, resultBody{Error: err.Error()})
		return
	}
	api.count("init_db", "ok")
	api.writeJSON(ctx, w, http.StatusOK, resultBody{Success: true})
}

func (api *API) authorized(r *http.Request) bool {
	if api.token == "" {
		return true
	}
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return cryptoutil.EqualSecret(got, api.token)
}

func (api *API) count(op, outcome string) {
	if api.metrics != nil {
		api.metrics.IncStoreRequest(op, outcome)
	}
}

func (api *API) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		api.logger.Warn(ctx, "failed to encode JSON response", "error", err)
	}
}
