// Package container wires the application together with Uber FX
package container

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/alchemorsel/recipes/internal/application/ingredient"
	"github.com/alchemorsel/recipes/internal/application/recipe"
	"github.com/alchemorsel/recipes/internal/application/step"
	"github.com/alchemorsel/recipes/internal/application/tag"
	"github.com/alchemorsel/recipes/internal/application/user"
	"github.com/alchemorsel/recipes/internal/application/weekplan"
	"github.com/alchemorsel/recipes/internal/infrastructure/config"
	"github.com/alchemorsel/recipes/internal/infrastructure/events"
	"github.com/alchemorsel/recipes/internal/infrastructure/http/apiserver"
	"github.com/alchemorsel/recipes/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/recipes/internal/infrastructure/images"
	"github.com/alchemorsel/recipes/internal/infrastructure/monitoring"
	gormrepo "github.com/alchemorsel/recipes/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/recipes/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/recipes/internal/infrastructure/persistence/migrations"
	"github.com/alchemorsel/recipes/internal/infrastructure/persistence/postgres"
	"github.com/alchemorsel/recipes/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/recipes/internal/infrastructure/persistence/sqlite"
	"github.com/alchemorsel/recipes/internal/infrastructure/security"
	"github.com/alchemorsel/recipes/internal/infrastructure/storage"
	"github.com/alchemorsel/recipes/internal/ports/inbound"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"github.com/alchemorsel/recipes/pkg/healthcheck"
	"github.com/alchemorsel/recipes/pkg/logger"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Version is reported by the health endpoint
var Version = "dev"

// ConfigPath is the optional config file; empty searches the defaults
type ConfigPath string

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	DatabaseModule,
	CacheModule,
	StorageModule,
	MonitoringModule,

	// Repository modules
	RepositoryModule,

	// Service modules
	SecurityModule,
	ServiceModule,

	// HTTP modules
	HTTPModule,

	// Event modules
	EventModule,

	// Lifecycle hooks
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
)

// LoggerModule provides logging. The level follows app.log_level in the
// config file while running.
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, zap.AtomicLevel, error) {
		log, level, err := logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
		if err != nil {
			return nil, level, err
		}
		cfg.WatchLogLevel(level, log)
		return log, level, nil
	},
)

// Database bundles the GORM handle with the pool underneath it
type Database struct {
	fx.Out

	Gorm *gorm.DB
	SQL  *sql.DB
}

// DatabaseModule provides database connections
var DatabaseModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (Database, error) {
		switch cfg.Database.Driver {
		case "postgres":
			conn, err := postgres.Open(cfg.Database, cfg.App.Debug, log)
			if err != nil {
				return Database{}, err
			}
			if cfg.Database.Migrate {
				if err := migrateUp(conn.SQLDB, log); err != nil {
					conn.SQLDB.Close()
					return Database{}, err
				}
			}
			return Database{Gorm: conn.DB, SQL: conn.SQLDB}, nil
		default:
			db, err := sqlite.SetupDatabase(cfg.Database.URL, cfg.App.Debug, log)
			if err != nil {
				return Database{}, fmt.Errorf("failed to setup SQLite database: %w", err)
			}
			sqlDB, err := db.DB()
			if err != nil {
				return Database{}, err
			}
			return Database{Gorm: db, SQL: sqlDB}, nil
		}
	},
	gormrepo.NewTransactor,
)

// migrateUp applies pending migrations. The migrator is not closed since
// that would close the shared pool.
func migrateUp(db *sql.DB, log *zap.Logger) error {
	m, err := migrations.New(db, log)
	if err != nil {
		return err
	}
	return m.Up()
}

// CacheModule provides caching
var CacheModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (outbound.CacheRepository, error) {
		var (
			cache  outbound.CacheRepository
			closer io.Closer
		)
		switch cfg.Cache.Provider {
		case "redis":
			client, err := redis.NewClient(cfg.Cache, log)
			if err != nil {
				return nil, err
			}
			repo := redis.NewCacheRepository(client, log)
			cache, closer = repo, repo
		default:
			repo := memory.NewCacheRepository(cfg.Cache.CleanupPeriod)
			cache, closer = repo, repo
			log.Info("Using in-memory cache")
		}

		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return closer.Close()
			},
		})
		return cache, nil
	},
)

// StorageModule provides file storage for pictures and avatars
var StorageModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (outbound.StorageService, error) {
		return storage.New(cfg.Storage, log)
	},
)

// MonitoringModule provides metrics, tracing and health checks
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,
	fx.Annotate(
		func(m *monitoring.MetricsCollector) *monitoring.MetricsCollector { return m },
		fx.As(new(outbound.AutoFillRecorder)),
	),
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		tp, err := monitoring.NewTracingProvider(context.Background(), cfg.App, cfg.Tracing, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: tp.Shutdown})
		return tp, nil
	},
	NewHealthCheck,
)

// NewHealthCheck registers the database and cache checkers
func NewHealthCheck(sqlDB *sql.DB, cache outbound.CacheRepository, log *zap.Logger) *healthcheck.HealthCheck {
	health := healthcheck.New(Version, log)
	health.Register("database", healthcheck.NewDatabaseChecker(sqlDB))
	health.Register("cache", healthcheck.NewCacheChecker(cache))
	return health
}

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	gormrepo.NewRecipeRepository,
	gormrepo.NewStepRepository,
	gormrepo.NewIngredientRepository,
	gormrepo.NewUnitRepository,
	gormrepo.NewTagRepository,
	gormrepo.NewUserRepository,
	gormrepo.NewWeekplanRepository,
)

// SecurityModule provides hashing, tokens, validation and cookie handling
var SecurityModule = fx.Provide(
	fx.Annotate(security.NewPasswordHashingService, fx.As(new(outbound.PasswordHasher))),
	fx.Annotate(
		func(cfg *config.Config, log *zap.Logger) (*security.JWTService, error) {
			return security.NewJWTService(cfg.Auth, log)
		},
		fx.As(new(outbound.TokenService)),
	),
	security.NewValidationService,
	func(cfg *config.Config) *security.LoginLimiter {
		return security.NewLoginLimiter(cfg.Auth.LoginPerMinute, cfg.Auth.LoginBurst)
	},
	func(cfg *config.Config) *security.CookieSigner {
		return security.NewCookieSigner(cfg.Auth.CookieKey)
	},
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	fx.Annotate(recipe.NewRecipeService, fx.As(new(inbound.RecipeService))),
	fx.Annotate(step.NewStepService, fx.As(new(inbound.StepService))),
	fx.Annotate(ingredient.NewIngredientService, fx.As(new(inbound.IngredientService))),
	fx.Annotate(tag.NewTagService, fx.As(new(inbound.TagService))),
	fx.Annotate(user.NewUserService, fx.As(new(inbound.UserService))),
	fx.Annotate(user.NewSessionService, fx.As(new(inbound.SessionService))),
	fx.Annotate(weekplan.NewWeekplanService, fx.As(new(inbound.WeekplanService))),
)

// HTTPModule provides the API server
var HTTPModule = fx.Provide(
	func(
		sessions inbound.SessionService,
		signer *security.CookieSigner,
		cfg *config.Config,
		log *zap.Logger,
	) *middleware.Authenticator {
		return middleware.NewAuthenticator(sessions, signer, cfg.Auth.CookieName, cfg.IsProduction(), log)
	},
	NewAPIServer,
)

// ServerParams are the collaborators of the API server
type ServerParams struct {
	fx.In

	Config        *config.Config
	Logger        *zap.Logger
	Recipes       inbound.RecipeService
	Steps         inbound.StepService
	Ingredients   inbound.IngredientService
	Tags          inbound.TagService
	Users         inbound.UserService
	Sessions      inbound.SessionService
	Weekplans     inbound.WeekplanService
	Storage       outbound.StorageService
	Validator     *security.ValidationService
	Authenticator *middleware.Authenticator
	LoginLimiter  *security.LoginLimiter
	Health        *healthcheck.HealthCheck
	Metrics       *monitoring.MetricsCollector
}

// NewAPIServer builds the API server from the container
func NewAPIServer(p ServerParams) *apiserver.Server {
	return apiserver.NewServer(p.Config, p.Logger, apiserver.Dependencies{
		Recipes:       p.Recipes,
		Steps:         p.Steps,
		Ingredients:   p.Ingredients,
		Tags:          p.Tags,
		Users:         p.Users,
		Sessions:      p.Sessions,
		Weekplans:     p.Weekplans,
		Storage:       p.Storage,
		Validator:     p.Validator,
		Authenticator: p.Authenticator,
		LoginLimiter:  p.LoginLimiter,
		Health:        p.Health,
		Metrics:       p.Metrics,
	})
}

// EventModule provides the event dispatcher and the image pool listening
// on it
var EventModule = fx.Provide(
	events.NewDispatcher,
	fx.Annotate(
		func(d *events.Dispatcher) *events.Dispatcher { return d },
		fx.As(new(outbound.EventPublisher)),
	),
	func(cfg *config.Config, store outbound.StorageService, metrics *monitoring.MetricsCollector, dispatcher *events.Dispatcher, log *zap.Logger) *images.Pool {
		pool := images.NewPool(cfg.Images, store, metrics, log)
		pool.Subscribe(dispatcher.Register)
		return pool
	},
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// RegisterLifecycleHooks starts the image pool and the API server, and
// stops them in reverse order
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	sqlDB *sql.DB,
	tracing *monitoring.TracingProvider,
	pool *images.Pool,
	server *apiserver.Server,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting recipes application",
				zap.String("name", cfg.App.Name),
				zap.String("version", Version),
				zap.String("environment", cfg.App.Environment),
				zap.Bool("tracing", tracing.Enabled()),
			)

			pool.Start()
			return server.Start()
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping recipes application")

			if err := server.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}
			if err := pool.Stop(ctx); err != nil {
				log.Error("Failed to drain image jobs", zap.Error(err))
			}
			if err := sqlDB.Close(); err != nil {
				log.Error("Failed to close database connection", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}
