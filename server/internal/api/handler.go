package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/simleague/standings/server/internal/auth"
	"github.com/simleague/standings/server/internal/ingest"
	"github.com/simleague/standings/server/internal/results"
	"github.com/simleague/standings/server/internal/standings"
	"github.com/simleague/standings/server/internal/store"
)

// maxBodyBytes caps the admin request body.
const maxBodyBytes = 64 << 10

// Loader runs one admin load. *ingest.Service implements it.
type Loader interface {
	Load(ctx context.Context, req ingest.Request) (standings.Summary, error)
}

// Reader reads the standings table. *store.Store implements it.
type Reader interface {
	List(ctx context.Context, limit int) ([]store.Standing, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// Options carries the optional parts of the HTTP surface.
type Options struct {
	// AllowedOrigin is sent as Access-Control-Allow-Origin. Empty means "*".
	AllowedOrigin string
	// Throttle limits the admin endpoints; nil disables throttling.
	Throttle *auth.Throttle
	// Database names the store driver in GET /healthz.
	Database string
	// Metrics is mounted at GET /metrics when set.
	Metrics http.Handler
	// Stream is mounted at GET /ws/standings when set.
	Stream http.Handler
}

// Handler serves the league HTTP API.
type Handler struct {
	loader Loader
	store  Reader
	opts   Options
	router *mux.Router
}

// New creates a Handler and registers all routes.
func New(loader Loader, st Reader, opts Options) *Handler {
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}
	h := &Handler{loader: loader, store: st, opts: opts, router: mux.NewRouter()}

	r := h.router
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.Use(h.cors)

	r.Handle("/load-result", h.admin(h.load(results.Race))).Methods(http.MethodPost, http.MethodOptions)
	r.Handle("/load-result-qualifier", h.admin(h.load(results.Qualifying))).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/standings", h.listStandings).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/standings.txt", h.standingsTable).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics).Methods(http.MethodGet)
	}
	if opts.Stream != nil {
		r.Handle("/ws/standings", opts.Stream).Methods(http.MethodGet)
	}

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// load returns the handler for POST /load-result and /load-result-qualifier.
func (h *Handler) load(kind results.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := decodeLoadRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}

		_, err = h.loader.Load(r.Context(), ingest.Request{
			Kind:     kind,
			Password: body.AdminPassword,
			Result:   body.Result,
		})
		if err != nil {
			code, detail := errorStatus(err)
			jsonErr(w, code, detail)
			return
		}
		jsonResp(w, http.StatusOK, "OK")
	}
}

// listStandings returns GET /standings?limit=N.
func (h *Handler) listStandings(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.rows(w, r)
	if !ok {
		return
	}
	jsonResp(w, http.StatusOK, ToStandings(rows))
}

// standingsTable returns GET /standings.txt?limit=N as a text table.
func (h *Handler) standingsTable(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.rows(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, standings.Table(rows)+"\n") //nolint:errcheck
}

// health returns GET /healthz: 200 when the database answers, 503 otherwise.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Database: h.opts.Database}
	if err := h.store.Ping(r.Context()); err != nil {
		slog.Warn("api: health check failed", "err", err)
		resp.Status = "unavailable"
		jsonResp(w, http.StatusServiceUnavailable, resp)
		return
	}
	n, err := h.store.Count(r.Context())
	if err != nil {
		slog.Warn("api: health count failed", "err", err)
		resp.Status = "unavailable"
		jsonResp(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Drivers = n
	jsonResp(w, http.StatusOK, resp)
}

// --- middleware -------------------------------------------------------------

func (h *Handler) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		hdr.Set("Access-Control-Allow-Origin", h.opts.AllowedOrigin)
		hdr.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		hdr.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) admin(next http.Handler) http.Handler {
	if h.opts.Throttle == nil {
		return next
	}
	return h.opts.Throttle.Middleware(next)
}

// --- helpers ----------------------------------------------------------------

// rows reads the table honouring the limit query parameter. It writes the
// error response itself and reports false on failure.
func (h *Handler) rows(w http.ResponseWriter, r *http.Request) ([]store.Standing, bool) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	rows, err := h.store.List(r.Context(), limit)
	if err != nil {
		slog.Error("api: list standings", "err", err)
		jsonErr(w, http.StatusInternalServerError, "failed to read standings")
		return nil, false
	}
	return rows, true
}

// decodeLoadRequest reads exactly one JSON object from r.
func decodeLoadRequest(r io.Reader) (LoadRequest, error) {
	var raw json.RawMessage
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return LoadRequest{}, errors.New("request body is required")
		}
		return LoadRequest{}, fmt.Errorf("invalid request body: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return LoadRequest{}, errors.New("invalid request body: unexpected data after JSON object")
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '{' {
		return LoadRequest{}, errors.New("invalid request body: expected a JSON object")
	}

	var body LoadRequest
	if err := json.Unmarshal(raw, &body); err != nil {
		return LoadRequest{}, fmt.Errorf("invalid request body: %w", err)
	}
	return body, nil
}

var errBadLimit = errors.New("limit must be a non-negative integer")

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return store.NoLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errBadLimit
	}
	return n, nil
}

// errorStatus maps a load error to its HTTP status and detail message.
func errorStatus(err error) (int, string) {
	var upErr *results.UpstreamError
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, "Invalid admin password"
	case errors.Is(err, results.ErrInvalidResultName):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, results.ErrNoResultsFound):
		return http.StatusNotFound, "No results found"
	case errors.As(err, &upErr):
		if upErr.StatusCode >= 400 && upErr.StatusCode < 600 {
			return upErr.StatusCode, "Failed to fetch results from the racing server"
		}
		return http.StatusBadGateway, "Failed to fetch results from the racing server"
	case errors.Is(err, results.ErrUpstreamUnavailable):
		return http.StatusBadGateway, "Racing server unavailable"
	case errors.Is(err, results.ErrMalformedData):
		return http.StatusBadGateway, "Racing server returned malformed results"
	default:
		return http.StatusInternalServerError, "Failed to update standings"
	}
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Detail: msg})
}
