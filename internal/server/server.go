package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/suhuf-hq/suhuf-ingest/internal/domain"
	"github.com/suhuf-hq/suhuf-ingest/internal/ingest"
	"github.com/suhuf-hq/suhuf-ingest/internal/logger"
	"github.com/suhuf-hq/suhuf-ingest/internal/runlog"
	"github.com/suhuf-hq/suhuf-ingest/internal/storage"
)

// Package server exposes the admin trigger surface over HTTP. Mutating
// endpoints are authenticated with a shared key in the X-Api-Key header.

const (
	apiKeyHeader      = "X-Api-Key"
	defaultHistory    = 20
	maxHistory        = 100
	shutdownGraceTime = 10 * time.Second
)

// Server hosts the sync trigger endpoints alongside health and metrics.
type Server struct {
	syncer  *ingest.Syncer
	store   storage.Store
	journal *runlog.Journal
	log     logger.Logger
	apiKey  string

	httpSrv *http.Server
}

// New builds the admin server. journal may be nil, in which case the history
// endpoint reports an empty list.
func New(addr, apiKey string, syncer *ingest.Syncer, store storage.Store, journal *runlog.Journal, log logger.Logger) *Server {
	if log == nil {
		log = logger.NopLogger{}
	}
	s := &Server{
		syncer:  syncer,
		store:   store,
		journal: journal,
		log:     log,
		apiKey:  apiKey,
	}
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sync", s.handleSync)
	mux.HandleFunc("/api/sync/history", s.handleSyncHistory)
	mux.HandleFunc("/api/seed", s.handleSeed)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())
	return s.withRequestLog(mux)
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.InfoObj("admin server listening", "addr", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGraceTime)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, map[string]any{"isRunning": s.syncer.IsRunning()})
	case http.MethodPost:
		if !s.authorize(w, r) {
			return
		}
		result, err := s.syncer.SyncAll(r.Context())
		if errors.Is(err, ingest.ErrSyncAlreadyRunning) {
			s.writeError(w, http.StatusConflict, "Sync is already running")
			return
		}
		if err != nil {
			s.log.ErrorObj("sync trigger failed", "error", err.Error())
			s.writeError(w, http.StatusInternalServerError, "Sync failed")
			return
		}
		s.writeJSON(w, http.StatusOK, runEnvelope(result, "Sync completed"))
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !s.authorize(w, r) {
		return
	}

	result, err := s.syncer.InitialSeed(r.Context())
	if errors.Is(err, ingest.ErrSyncAlreadyRunning) {
		s.writeError(w, http.StatusConflict, "Sync is already running")
		return
	}
	if err != nil {
		s.log.ErrorObj("seed trigger failed", "error", err.Error())
		s.writeError(w, http.StatusInternalServerError, "Seed failed")
		return
	}

	message := "Seed completed"
	if result.ArticlesAdded == 0 {
		message = "Database already seeded"
	}
	s.writeJSON(w, http.StatusOK, runEnvelope(result, message))
}

func (s *Server) handleSyncHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := defaultHistory
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistory)
	}

	runs := []domain.SyncResult{}
	if s.journal != nil {
		var err error
		runs, err = s.journal.Recent(limit)
		if err != nil {
			s.log.ErrorObj("run history read failed", "error", err.Error())
			s.writeError(w, http.StatusInternalServerError, "Failed to read sync history")
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if err := s.store.Ping(r.Context()); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "database": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type runStats struct {
	ArticlesAdded   int    `json:"articlesAdded"`
	ArticlesUpdated int    `json:"articlesUpdated"`
	Errors          int    `json:"errors"`
	Duration        string `json:"duration"`
}

type runResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Stats   runStats `json:"stats"`
	Errors  []string `json:"errors"`
}

func runEnvelope(result domain.SyncResult, message string) runResponse {
	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}
	return runResponse{
		Success: result.Success,
		Message: message,
		Stats: runStats{
			ArticlesAdded:   result.ArticlesAdded,
			ArticlesUpdated: result.ArticlesUpdated,
			Errors:          result.ErrorCount(),
			Duration:        fmt.Sprintf("%dms", result.DurationMs),
		},
		Errors: errs,
	}
}

// authorize checks the shared admin key. A server without a configured key
// refuses every mutating request rather than running open.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request) bool {
	if s.apiKey == "" {
		s.writeError(w, http.StatusInternalServerError, "Sync API key not configured")
		return false
	}
	if r.Header.Get(apiKeyHeader) != s.apiKey {
		s.writeError(w, http.StatusUnauthorized, "Unauthorized")
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.WarnObj("response encode failed", "error", err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.DebugObj("http request", "request", map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}
