// Package server provides HTTP server management and lifecycle handling for the chargemaster API.
// It wires the middleware chain, mounts the v1 routes and handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/giygas/chargemaster-api/config"
	"github.com/giygas/chargemaster-api/data"
	"github.com/giygas/chargemaster-api/handlers"
	"github.com/giygas/chargemaster-api/health"
	"github.com/giygas/chargemaster-api/interfaces"
	"github.com/giygas/chargemaster-api/logging"
	"github.com/giygas/chargemaster-api/metrics"
	"github.com/giygas/chargemaster-api/pricing"
	"github.com/giygas/chargemaster-api/validation"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server represents the HTTP server
type Server struct {
	server        *http.Server
	router        chi.Router
	dataContainer *data.DataContainer
	config        *config.Config
	httpHandler   interfaces.HTTPHandler
	healthChecker interfaces.HealthChecker
	rateLimiter   *RateLimiter

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new server instance serving the data held by dataContainer
func NewServer(cfg *config.Config, dataContainer *data.DataContainer) *Server {
	router := chi.NewRouter()

	defaultMode, err := pricing.ParseMode(cfg.DefaultPriceType, pricing.ModeGrossCharge)
	if err != nil {
		logging.Warn("Unknown default price type, using gross charge", "price_type", cfg.DefaultPriceType)
		defaultMode = pricing.ModeGrossCharge
	}

	healthChecker := health.NewHealthChecker(dataContainer, cfg.UpdateTimes)
	httpHandler := handlers.NewHTTPHandler(dataContainer, validation.NewDataValidator(), healthChecker, defaultMode)

	ctx, cancel := context.WithCancel(context.Background())

	server := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:        router,
		dataContainer: dataContainer,
		config:        cfg,
		httpHandler:   httpHandler,
		healthChecker: healthChecker,
		rateLimiter:   NewRateLimiter(defaultRate, defaultCapacity),
		ctx:           ctx,
		cancel:        cancel,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	allowDirect := s.config.Env == config.EnvDevelopment || s.config.Env == config.EnvTest

	s.router.Use(middleware.RequestID)
	s.router.Use(BlockDirectAccessMiddleware(allowDirect)) // before RealIPMiddleware to see the original RemoteAddr
	s.router.Use(RealIPMiddleware)
	s.router.Use(metrics.Metrics)
	s.router.Use(logging.LoggingMiddleware(requestLogger()))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5, "application/json"))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "If-None-Match"},
		ExposedHeaders:   []string{"ETag", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(s.rateLimiter.Middleware)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	h := s.httpHandler

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/hospital", h.ServeHospitalV1)
		r.Get("/items", h.SearchItemsV1)
		r.Get("/items/{id}", h.FindItemV1)
		r.Get("/parse", h.ParseDescriptionV1)
		r.Post("/estimates", h.CreateEstimateV1)
	})

	s.router.Get("/health", h.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.NotFound(h.ServeHTTP)
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed,
			fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path))
	})
}

// Start starts the server and blocks until it stops
func (s *Server) Start() error {
	if s.config.Env == config.EnvDevelopment {
		s.startProfilingServer()
	}

	s.rateLimiter.StartCleanup(s.ctx, rateLimiterCleanupInterval)

	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")
	s.cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if closeErr := s.server.Close(); closeErr != nil {
			logging.Error("Server close error", "error", closeErr)
			return errors.Join(err, closeErr)
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}

// requestLogger returns the global logger, or the slog default before the
// logging service is initialized
func requestLogger() *slog.Logger {
	if svc := logging.DefaultLoggingService; svc != nil && svc.Logger != nil {
		return svc.Logger
	}
	return slog.Default()
}

// startProfilingServer starts the pprof profiling server in development mode
func (s *Server) startProfilingServer() {
	go func() {
		logging.Info("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Warn("Profiling server failed", "error", err)
		}
	}()
}
