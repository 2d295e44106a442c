// Package api provides the HTTP API server and handlers for the Shelfmark application.
package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/listenupapp/shelfmark/internal/authz"
	"github.com/listenupapp/shelfmark/internal/config"
	"github.com/listenupapp/shelfmark/internal/http/response"
	"github.com/listenupapp/shelfmark/internal/ratelimit"
	"github.com/listenupapp/shelfmark/internal/service"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Services groups the business logic services used by the API server.
type Services struct {
	Auth            *service.AuthService
	Catalog         *service.CatalogService
	Ratings         *service.RatingService
	Search          *service.SearchService
	Recommendations *service.RecommendationService
	Dashboard       *service.DashboardService
	Seed            *service.SeedService
}

// HealthCheck probes one dependency for the health endpoint.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Options configures the HTTP surface.
type Options struct {
	CORSOrigins  []string
	CookieName   string
	CookieSecure bool
	RateLimit    config.RateLimitConfig
	HealthChecks []HealthCheck
}

// OptionsFromConfig derives server options from the application config.
func OptionsFromConfig(cfg *config.Config, checks ...HealthCheck) Options {
	return Options{
		CORSOrigins:  cfg.Server.CORSOrigins,
		CookieName:   cfg.Auth.CookieName,
		CookieSecure: cfg.Auth.CookieSecure,
		RateLimit:    cfg.RateLimit,
		HealthChecks: checks,
	}
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services    *Services
	enforcer    *authz.Enforcer
	opts        Options
	router      *chi.Mux
	api         huma.API
	authLimiter *ratelimit.KeyedRateLimiter
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, enforcer *authz.Enforcer, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		services: services,
		enforcer: enforcer,
		opts:     opts,
		router:   chi.NewRouter(),
		logger:   logger,
	}

	if opts.RateLimit.Enabled && opts.RateLimit.AuthPerSecond > 0 {
		s.authLimiter = ratelimit.New(opts.RateLimit.AuthPerSecond, max(opts.RateLimit.AuthBurst, 1))
	}

	s.setupMiddleware()
	s.setupHuma()
	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.authLimiter != nil {
		s.authLimiter.Stop()
	}
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(recoverer(s.logger))
	s.router.Use(requestLogger(s.logger))
	s.router.Use(metricsMiddleware)
	if len(s.opts.CORSOrigins) > 0 {
		s.router.Use(corsMiddleware(s.opts.CORSOrigins))
	}
	if s.opts.RateLimit.Enabled && s.opts.RateLimit.RequestsPerMinute > 0 {
		s.router.Use(globalRateLimit(s.opts.RateLimit.RequestsPerMinute, s.logger))
	}
	s.router.Use(authMiddleware(s.services.Auth, s.opts.CookieName))

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "route not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, s.logger)
	})

	s.router.Handle("/metrics", promhttp.Handler())
}

func (s *Server) setupHuma() {
	humaConfig := huma.DefaultConfig("Shelfmark API", Version)
	humaConfig.Info.Description = "Book catalog with ratings, reviews, reading lists, saved searches and recommendations."
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}

	jsonFormat := huma.Format{
		Marshal: func(w io.Writer, v any) error {
			return json.NewEncoder(w).Encode(v)
		},
		Unmarshal: json.Unmarshal,
	}
	humaConfig.Formats = map[string]huma.Format{
		"application/json": jsonFormat,
		"json":             jsonFormat,
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler(s.logger)
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerProfileRoutes()
	s.registerCatalogRoutes()
	s.registerRatingRoutes()
	s.registerSearchRoutes()
	s.registerRecommendationRoutes()
	s.registerDashboardRoutes()
	s.registerSeedRoutes()
}

// bearerSecurity marks an operation as requiring a token in the OpenAPI document.
var bearerSecurity = []map[string][]string{{"bearer": {}}}
