package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dedsfe/cinevibe/internal/logging"
	"github.com/dedsfe/cinevibe/internal/store"
	"github.com/dedsfe/cinevibe/internal/workers"
)

// Server exposes resolution over HTTP.
type Server struct {
	pool      *workers.Pool
	store     *store.Store
	token     string
	logger    *slog.Logger
	startedAt time.Time
}

// NewServer builds the API server. An empty token disables authentication.
func NewServer(pool *workers.Pool, st *store.Store, token string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		pool:      pool,
		store:     st,
		token:     strings.TrimSpace(token),
		logger:    logging.WithComponent(logger, "api"),
		startedAt: time.Now().UTC(),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/resolve", s.handleResolve)
			r.Post("/resolve/background", s.handleResolveBackground)
			r.Get("/resolve/background/{jobID}", s.handleJobStatus)
			r.Post("/batch-status", s.handleBatchStatus)
			r.Get("/cache/stats", s.handleCacheStats)
			r.Get("/status", s.handleStatus)
		})
	})
	return r
}

// Run serves on bind until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, bind string) error {
	httpServer := &http.Server{
		Addr:              bind,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	s.logger.Info("api listening", logging.String("bind", bind))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		if header != "Bearer "+s.token {
			writeError(w, http.StatusUnauthorized, "invalid or missing bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
