// Package server is the HTTP shell around the QA pipeline. It adapts one
// ingress operation, ask(question) -> fragment stream, onto
// GET /api/qa?question= with a chunked text/plain response.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/teakb/teakb/internal/qa"
	"github.com/teakb/teakb/internal/types"
)

// maxQuestionLength bounds the question query parameter, in runes.
const maxQuestionLength = 500

// HealthFunc reports component health for the health endpoint.
type HealthFunc func(ctx context.Context) map[string]types.HealthStatus

// Config holds the HTTP server settings.
type Config struct {
	Address         string
	AllowedOrigins  []string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Server serves the QA gateway API.
type Server struct {
	pipeline *qa.Pipeline
	health   HealthFunc
	cfg      Config
	logger   *slog.Logger
	httpSrv  *http.Server
}

// New creates a server around pipeline. health may be nil, in which case the
// health endpoint only reports the process as up.
func New(pipeline *qa.Pipeline, health HealthFunc, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		pipeline: pipeline,
		health:   health,
		cfg:      cfg,
		logger:   logger.With("component", "server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/qa", s.handleQA)
	mux.HandleFunc("/api/health", s.handleHealth)

	s.httpSrv = &http.Server{
		Addr:        cfg.Address,
		Handler:     mux,
		ReadTimeout: cfg.ReadTimeout,
	}

	return s
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "address", s.cfg.Address)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		s.logger.Info("http server shutting down")
		return s.httpSrv.Shutdown(shutdownCtx)
	}
}

// handleQA streams the answer for a question as chunked UTF-8 text.
func (s *Server) handleQA(w http.ResponseWriter, r *http.Request) {
	requestID := s.requestID(r)
	w.Header().Set("X-Request-ID", requestID)
	s.applyCORS(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed,
			fmt.Sprintf("method %s not allowed", r.Method))
		return
	}

	question := r.URL.Query().Get("question")
	if question == "" {
		s.writeError(w, http.StatusBadRequest, "question parameter is required")
		return
	}
	if utf8.RuneCountInString(question) > maxQuestionLength {
		s.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("question exceeds %d characters", maxQuestionLength))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	logger := s.logger.With("request_id", requestID)
	logger.Info("question received", "question", question)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	for fragment := range s.pipeline.Ask(ctx, question) {
		if _, err := fmt.Fprint(w, fragment); err != nil {
			logger.Warn("client went away mid-stream", "error", err)
			return
		}
		flusher.Flush()
	}

	logger.Info("answer stream complete")
}

// handleHealth reports component health as JSON.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.applyCORS(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed,
			fmt.Sprintf("method %s not allowed", r.Method))
		return
	}

	components := map[string]types.HealthStatus{}
	if s.health != nil {
		components = s.health(r.Context())
	}

	status := http.StatusOK
	for _, hs := range components {
		if hs.IsUnhealthy() {
			status = http.StatusServiceUnavailable
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"components": components})
}

// requestID extracts the inbound request ID or generates one.
func (s *Server) requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.New().String()
}

// applyCORS applies CORS headers when the origin is allowed.
func (s *Server) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")

	allowed := false
	for _, allowedOrigin := range s.cfg.AllowedOrigins {
		if allowedOrigin == "*" || strings.EqualFold(allowedOrigin, origin) {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}

	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	} else {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	data, _ := json.Marshal(map[string]any{
		"error":  message,
		"status": statusCode,
	})
	w.Write(data)
}
