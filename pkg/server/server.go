// Package server exposes bill analysis over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/coolbeans/legiscompare/pkg/analysis"
	"github.com/coolbeans/legiscompare/pkg/billtext"
	"github.com/coolbeans/legiscompare/pkg/citation"
	"github.com/coolbeans/legiscompare/pkg/linkcheck"
)

// Analyzer runs analysis requests. *analysis.Processor implements it.
type Analyzer interface {
	Process(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

// Metrics records HTTP traffic and serves the scrape endpoint.
// *metrics.Collector implements it.
type Metrics interface {
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
	ObserveCitation(kind string, linked bool)
	Handler() http.Handler
}

// Server holds the handlers' dependencies.
type Server struct {
	analyzer       Analyzer
	fetcher        billtext.Fetcher
	renderer       *citation.Renderer
	checker        *linkcheck.Checker
	metrics        Metrics
	logger         *zap.Logger
	validate       *validator.Validate
	allowedOrigins []string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records request metrics and serves GET /metrics.
func WithMetrics(m Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithRenderer sets the citation renderer used by the link endpoints.
func WithRenderer(renderer *citation.Renderer) Option {
	return func(s *Server) {
		s.renderer = renderer
	}
}

// WithChecker sets the link checker.
func WithChecker(checker *linkcheck.Checker) Option {
	return func(s *Server) {
		s.checker = checker
	}
}

// WithAllowedOrigins sets the CORS origins.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// New creates a server.
func New(analyzer Analyzer, fetcher billtext.Fetcher, opts ...Option) *Server {
	s := &Server{
		analyzer:       analyzer,
		fetcher:        fetcher,
		renderer:       citation.DefaultRenderer,
		logger:         zap.NewNop(),
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		allowedOrigins: []string{"*"},
	}
	s.validate.RegisterTagNameFunc(jsonFieldName)
	for _, opt := range opts {
		opt(s)
	}
	if s.checker == nil {
		s.checker = linkcheck.NewChecker(linkcheck.DefaultConfig(), linkcheck.WithLogger(s.logger))
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(s.logger, s.metrics))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
	}))

	router.Get("/health", s.health)
	if s.metrics != nil {
		router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	router.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.AllowContentType("application/json"))
		r.Get("/fetch-bill-data", s.fetchBillData)
		r.Post("/process", s.process)
		r.Post("/report", s.renderReport)
		r.Post("/links", s.links)
		r.Post("/links/check", s.checkLinks)
		r.Post("/export-comment", s.exportComment)
	})

	return router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
