// Package server exposes the paper finder over HTTP as HTML form pages and a
// small JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/txrtlemrry/PaperFinder-App/internal/finder"
	"github.com/txrtlemrry/PaperFinder-App/internal/papers"
	"github.com/txrtlemrry/PaperFinder-App/internal/telemetry"
	"golang.org/x/time/rate"
)

const (
	shutdownTimeout = 30 * time.Second
	addSubjectBurst = 5
)

// Options configures a Server
type Options struct {
	DefaultYearRange string
	// AddSubjectRateLimit is in requests per second; zero means unlimited
	AddSubjectRateLimit float64
}

// Server handles the web interface
type Server struct {
	svc     *finder.Service
	logger  *logrus.Logger
	opts    Options
	limiter *rate.Limiter
}

// New creates a Server
func New(svc *finder.Service, logger *logrus.Logger, opts Options) *Server {
	if opts.DefaultYearRange == "" {
		opts.DefaultYearRange = papers.DefaultYearRange
	}
	limit := rate.Inf
	if opts.AddSubjectRateLimit > 0 {
		limit = rate.Limit(opts.AddSubjectRateLimit)
	}
	return &Server{
		svc:     svc,
		logger:  logger,
		opts:    opts,
		limiter: rate.NewLimiter(limit, addSubjectBurst),
	}
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(accessLog(s.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/", s.handleSearch)
	r.With(s.rateLimit).Post("/add_subject", s.handleAddSubject)
	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/subjects", s.handleAPISubjects)
		r.With(s.rateLimit).Post("/subjects", s.handleAPIAddSubject)
		r.Get("/links", s.handleAPILinks)
	})

	return telemetry.WrapHandler(r)
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.logger.WithField("request_id", RequestIDFromContext(r.Context())).Warn("Subject submission rate limited")
			http.Error(w, "too many subject submissions, try again shortly", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:           addr,
		Handler:        s.Handler(),
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	s.logger.WithField("addr", addr).Info("HTTP server listening")

	select {
	case err := <-serverErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutdown signal received, stopping HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	s.logger.Info("HTTP server stopped gracefully")
	return nil
}
