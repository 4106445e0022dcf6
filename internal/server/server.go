// Package server exposes the HTTP surface: the WebSocket streaming endpoint,
// the markets listing and a health check.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/tardis-dev/serum-vial/internal/platform/serum"
	"github.com/tardis-dev/serum-vial/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port int
}

// Server is the HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered.
func NewServer(cfg Config, registry *serum.Registry, hub *ws.Hub, logger *slog.Logger) *Server {
	logger = logger.With("component", "server")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /v1/markets", handleMarkets(registry))
	mux.HandleFunc("GET /v1/streams", hub.HandleWS)

	var h http.Handler = mux
	h = loggingMiddleware(logger)(h)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     h,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return &Server{httpServer: srv, logger: logger}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// marketInfo is the public shape of one market entry.
type marketInfo struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	ProgramID     string `json:"programId"`
	BaseDecimals  uint8  `json:"baseMintDecimals"`
	QuoteDecimals uint8  `json:"quoteMintDecimals"`
	TickSize      string `json:"tickSize"`
	MinOrderSize  string `json:"minOrderSize"`
	Deprecated    bool   `json:"deprecated"`
}

// handleMarkets lists the markets the instance serves.
// GET /v1/markets
func handleMarkets(registry *serum.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		markets := registry.List()
		out := make([]marketInfo, len(markets))
		for i, m := range markets {
			out[i] = marketInfo{
				Name:          m.Name,
				Address:       m.Address,
				ProgramID:     m.ProgramID,
				BaseDecimals:  m.BaseDecimals,
				QuoteDecimals: m.QuoteDecimals,
				TickSize:      m.TickSize.String(),
				MinOrderSize:  m.MinOrderSize.String(),
				Deprecated:    m.Deprecated,
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// loggingMiddleware logs every request with its duration and status.
func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the WebSocket upgrade work through the middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("server: response writer does not support hijacking")
	}
	return h.Hijack()
}
