package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hongminglow/exam-results/internal/auth"
	"github.com/hongminglow/exam-results/internal/config"
	"github.com/hongminglow/exam-results/internal/http/handlers"
	"github.com/hongminglow/exam-results/internal/middleware"
	"github.com/hongminglow/exam-results/internal/storage"
)

// Deps are the stores the HTTP layer reads and writes.
type Deps struct {
	Users   storage.UserStore
	Results storage.ResultStore
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps, logger *slog.Logger) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewHandler(cfg, deps, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return &Server{inner: httpServer}
}

// NewHandler builds the routed handler tree. It registers metrics on a private
// registry so several handlers can coexist in one process.
func NewHandler(cfg config.Config, deps Deps, logger *slog.Logger) http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(registry)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	authenticator := auth.NewAuthenticator(deps.Users, tokens)
	authn := middleware.NewAuthenticator(tokens, authenticator, logger)
	guard := auth.NewGuard(cfg.StrictResultAccess)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(metrics.Handler)
	r.Use(chimw.Recoverer)

	handlers.NewHealthHandler(time.Now()).Register(r)
	handlers.NewAuthHandler(authenticator, deps.Users, logger).Register(r)
	handlers.NewResultHandler(deps.Results, guard, logger).Register(r, authn)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return middleware.CORS(cfg.CORSOrigins, r)
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
