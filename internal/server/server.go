// Package server exposes the analysis pipeline over HTTP: a batch upload
// endpoint, the streaming WebSocket endpoint, health probes, and the
// Prometheus metrics scrape endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/voxguard/voxguard/internal/analyze"
	"github.com/voxguard/voxguard/internal/config"
	"github.com/voxguard/voxguard/internal/health"
	"github.com/voxguard/voxguard/internal/history"
	"github.com/voxguard/voxguard/internal/observe"
	"github.com/voxguard/voxguard/internal/risk"
	"github.com/voxguard/voxguard/internal/stream"
	"github.com/voxguard/voxguard/pkg/audio"
	"github.com/voxguard/voxguard/pkg/dsp"
)

// maxUploadBytes caps batch upload size (10 minutes of 16 kHz mono PCM
// with headroom).
const maxUploadBytes = 32 << 20

// Server wires the pipeline components behind HTTP handlers.
type Server struct {
	cfg      *config.Config
	analyzer *analyze.Analyzer
	sessions *stream.Manager
	store    history.Store
	metrics  *observe.Metrics
	health   *health.Handler

	httpSrv *http.Server
}

// Config holds the Server dependencies.
type Config struct {
	Config   *config.Config
	Analyzer *analyze.Analyzer
	Sessions *stream.Manager
	Store    history.Store
	Metrics  *observe.Metrics
	Health   *health.Handler
}

// New assembles the Server and its route table.
func New(cfg Config) *Server {
	s := &Server{
		cfg:      cfg.Config,
		analyzer: cfg.Analyzer,
		sessions: cfg.Sessions,
		store:    cfg.Store,
		metrics:  cfg.Metrics,
		health:   cfg.Health,
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/calls", s.handleCalls)
	mux.HandleFunc("GET /ws", s.handleStream)
	mux.Handle("GET /metrics", promhttp.Handler())
	if s.health != nil {
		s.health.Register(mux)
	}

	s.httpSrv = &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           observe.Middleware(s.metrics)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if tls := s.cfg.Server.TLS; tls != nil {
			err = s.httpSrv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = s.httpSrv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// apiError is the JSON error body for the batch endpoints.
type apiError struct {
	Error string `json:"error"`
}

// handleAnalyze accepts a multipart upload ("audio" field, optional
// "intent" and "transcript" fields) and returns the full analysis
// record.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid multipart form: " + err.Error()})
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: `missing "audio" file field`})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "read upload: " + err.Error()})
		return
	}

	intent := risk.Intent(r.FormValue("intent"))
	transcript := r.FormValue("transcript")

	result, err := s.analyzer.AnalyzeFile(r.Context(), data, header.Filename, transcript, intent)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, audio.ErrNoDataChunk) || errors.Is(err, audio.ErrEmptyBuffer) || errors.Is(err, dsp.ErrTooShort) {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, apiError{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleCalls returns recent persisted call records, newest first.
func (s *Server) handleCalls(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusNotFound, apiError{Error: "call history is not enabled"})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, 500)
	}

	recs, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		observe.Logger(r.Context()).Error("history query failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "history unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// writeJSON encodes v with the given status. Encoding failures surface
// as a plain 500; the header was already written by then.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

// String renders the listen address for startup logging.
func (s *Server) String() string {
	return fmt.Sprintf("voxguard server on %s", s.cfg.Server.ListenAddr)
}
