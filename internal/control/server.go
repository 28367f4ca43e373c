// Package control serves a small local HTTP API for inspecting and poking a
// running panel.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mattjoyce/islet/internal/events"
	"github.com/mattjoyce/islet/internal/host"
)

// Runtime is the part of the host the API reads and drives.
type Runtime interface {
	Order() []string
	Snapshot(ctx context.Context) (host.Snapshot, error)
	RequestReload(reason string)
}

// EventSource lists buffered events and streams new ones.
type EventSource interface {
	Since(lastID int64) []events.Event
	Subscribe(ctx context.Context) <-chan events.Event
}

// Config holds API server configuration.
type Config struct {
	Listen string
	// SnapshotTimeout bounds how long a request waits for the UI loop.
	SnapshotTimeout time.Duration
}

// Server is the control API.
type Server struct {
	config    Config
	runtime   Runtime
	events    EventSource
	metrics   http.Handler
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a control API server. metrics may be nil.
func New(config Config, runtime Runtime, events EventSource, metrics http.Handler, logger *slog.Logger) *Server {
	if config.SnapshotTimeout <= 0 {
		config.SnapshotTimeout = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:    config,
		runtime:   runtime,
		events:    events,
		metrics:   metrics,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("control API starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("control API shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Routes builds the router.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/modules", s.handleModules)
	r.Get("/activities", s.handleActivities)
	r.Post("/reload", s.handleReload)
	r.Get("/events", s.handleEvents)
	r.Get("/events/stream", s.handleStream)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
