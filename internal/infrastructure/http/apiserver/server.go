// Package apiserver provides the JSON API HTTP server
package apiserver

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/alchemorsel/recipes/internal/infrastructure/config"
	"github.com/alchemorsel/recipes/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/recipes/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/recipes/internal/infrastructure/monitoring"
	"github.com/alchemorsel/recipes/internal/infrastructure/security"
	"github.com/alchemorsel/recipes/internal/ports/inbound"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"github.com/alchemorsel/recipes/pkg/healthcheck"
	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Dependencies are the collaborators the server routes to
type Dependencies struct {
	Recipes     inbound.RecipeService
	Steps       inbound.StepService
	Ingredients inbound.IngredientService
	Tags        inbound.TagService
	Users       inbound.UserService
	Sessions    inbound.SessionService
	Weekplans   inbound.WeekplanService

	Storage       outbound.StorageService
	Validator     handlers.Validator
	Authenticator *middleware.Authenticator
	LoginLimiter  middleware.Limiter
	Health        *healthcheck.HealthCheck
	Metrics       *monitoring.MetricsCollector
}

// Server is the API HTTP server
type Server struct {
	config *config.Config
	logger *zap.Logger
	deps   Dependencies
	router *chi.Mux
	server *http.Server
}

// NewServer creates the server and its routes
func NewServer(cfg *config.Config, log *zap.Logger, deps Dependencies) *Server {
	s := &Server{
		config: cfg,
		logger: log.Named("http"),
		deps:   deps,
	}
	if s.deps.LoginLimiter == nil {
		s.deps.LoginLimiter = security.NewLoginLimiter(cfg.Auth.LoginPerMinute, cfg.Auth.LoginBurst)
	}
	s.router = s.setupRoutes()

	var handler http.Handler = otelhttp.NewHandler(s.router, "http.server",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
	if cfg.Server.H2C {
		handler = h2c.NewHandler(handler, &http2.Server{IdleTimeout: cfg.Server.IdleTimeout})
	}

	s.server = &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ErrorLog:          zap.NewStdLog(s.logger),
	}
	return s
}

// setupRoutes configures the middleware chain and all routes
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Recoverer(s.logger))
	if s.deps.Metrics != nil {
		r.Use(s.deps.Metrics.HTTPMiddleware)
	}
	r.Use(middleware.Security(s.config.IsProduction()))
	r.Use(middleware.CORS(s.config.Server.AllowedOrigins))
	if s.config.Server.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(s.config.Server.RequestTimeout))
	}
	if s.config.Server.EnableCompression {
		r.Use(newCompressor().Handler)
	}

	if s.deps.Health != nil {
		r.Get("/health", s.deps.Health.Handler())
		r.Get("/health/live", s.deps.Health.LivenessHandler())
		r.Get("/health/ready", s.deps.Health.ReadinessHandler())
	}
	if s.deps.Metrics != nil {
		r.Handle("/metrics", s.deps.Metrics.Handler())
	}

	if s.deps.Storage != nil {
		files := handlers.NewFileHandlers(s.deps.Storage, s.logger)
		r.Get("/pictures/*", files.Pictures)
		r.Get("/avatars/*", files.Avatars)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if s.deps.Authenticator != nil {
			r.Use(s.deps.Authenticator.Middleware)
		}
		s.setupAPIV1Routes(r)
	})

	return r
}

// setupAPIV1Routes configures API v1 endpoints
func (s *Server) setupAPIV1Routes(r chi.Router) {
	maxUpload := s.config.Server.MaxUploadBytes
	sessionH := handlers.NewSessionHandlers(s.deps.Sessions, s.deps.Authenticator, s.deps.Validator, s.logger)
	recipeH := handlers.NewRecipeHandlers(s.deps.Recipes, s.deps.Steps, s.deps.Validator, maxUpload, s.logger)
	catalogH := handlers.NewCatalogHandlers(s.deps.Ingredients, s.deps.Tags, s.deps.Validator, s.logger)
	userH := handlers.NewUserHandlers(s.deps.Users, s.deps.Validator, maxUpload, s.logger)
	weekplanH := handlers.NewWeekplanHandlers(s.deps.Weekplans, s.deps.Validator, s.logger)

	r.Route("/session", func(r chi.Router) {
		r.With(middleware.RateLimit(s.deps.LoginLimiter, s.logger)).Post("/login", sessionH.Login)
		r.Post("/refresh", sessionH.Refresh)
		r.Delete("/", sessionH.Logout)
	})

	r.Route("/recipes", func(r chi.Router) {
		r.Get("/", recipeH.ListRecipes)
		r.Post("/", recipeH.CreateRecipe)
		r.Get("/count", recipeH.CountRecipes)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", recipeH.GetRecipe)
			r.Put("/", recipeH.UpdateRecipe)
			r.Delete("/", recipeH.DeleteRecipe)
			r.Get("/nutrition", recipeH.Nutrition)
			r.Get("/bring.json", recipeH.BringExport)
			r.Put("/image", recipeH.UploadImage)
			r.Get("/steps", recipeH.ListSteps)
			r.Post("/steps", recipeH.CreateStep)
			r.Get("/steps/count", recipeH.CountSteps)
		})
	})

	r.Route("/steps/{id}", func(r chi.Router) {
		r.Get("/", recipeH.GetStep)
		r.Put("/", recipeH.UpdateStep)
		r.Delete("/", recipeH.DeleteStep)
		r.Post("/move-up", recipeH.MoveStepUp)
		r.Post("/move-down", recipeH.MoveStepDown)
	})

	r.Route("/ingredients", func(r chi.Router) {
		r.Get("/", catalogH.ListIngredients)
		r.Post("/", catalogH.CreateIngredient)
		r.Get("/count", catalogH.CountIngredients)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", catalogH.GetIngredient)
			r.Put("/", catalogH.UpdateIngredient)
			r.Delete("/", catalogH.DeleteIngredient)
			r.Get("/units", catalogH.ListUnits)
			r.Post("/units", catalogH.CreateUnit)
		})
	})

	r.Route("/units/{id}", func(r chi.Router) {
		r.Put("/", catalogH.UpdateUnit)
		r.Delete("/", catalogH.DeleteUnit)
	})

	r.Route("/tags", func(r chi.Router) {
		r.Get("/", catalogH.ListTags)
		r.Post("/", catalogH.CreateTag)
		r.Get("/count", catalogH.CountTags)
		r.Get("/{id}", catalogH.GetTag)
		r.Put("/{id}", catalogH.UpdateTag)
		r.Delete("/{id}", catalogH.DeleteTag)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", userH.ListUsers)
		r.Post("/", userH.CreateUser)
		r.Get("/count", userH.CountUsers)
		r.Get("/{id}", userH.GetUser)
		r.Put("/{id}", userH.UpdateUser)
		r.Delete("/{id}", userH.DeleteUser)
		r.Put("/{id}/avatar", userH.UploadAvatar)
	})

	r.Route("/weekplans", func(r chi.Router) {
		r.Get("/", weekplanH.ListWeek)
		r.Post("/", weekplanH.AutoFill)
		r.Get("/shopping-list", weekplanH.ShoppingList)
		r.Get("/bring.json", weekplanH.BringExport)
		r.Get("/{id}", weekplanH.GetEntry)
		r.Delete("/{id}", weekplanH.DeleteEntry)
		r.Put("/{id}/replace", weekplanH.ReplaceRecipe)
		r.Put("/{id}/recipe", weekplanH.SetRecipe)
	})
}

// newCompressor negotiates brotli ahead of gzip and deflate
func newCompressor() *chimiddleware.Compressor {
	c := chimiddleware.NewCompressor(5,
		"application/json",
		"text/plain",
		"text/html",
		"text/css",
		"image/svg+xml",
	)
	c.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})
	return c
}

// Handler returns the full handler including tracing and h2c
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}

	s.logger.Info("Starting API server",
		zap.String("address", ln.Addr().String()),
		zap.Bool("h2c", s.config.Server.H2C),
		zap.Bool("compression", s.config.Server.EnableCompression),
	)

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.server.Shutdown(ctx)
}
