// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Images   ImagesConfig   `mapstructure:"images"`
	Tracing  TracingConfig  `mapstructure:"tracing"`

	v *viper.Viper
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Listen            string        `mapstructure:"listen"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes    int64         `mapstructure:"max_upload_bytes"`
	H2C               bool          `mapstructure:"h2c"`
	EnableCompression bool          `mapstructure:"enable_compression"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	URL             string        `mapstructure:"url"`
	Replicas        []string      `mapstructure:"replicas"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	SlowThreshold   time.Duration `mapstructure:"slow_query_threshold"`
	Migrate         bool          `mapstructure:"migrate"`
}

// CacheConfig selects and configures the cache backend
type CacheConfig struct {
	Provider      string        `mapstructure:"provider"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
	CleanupPeriod time.Duration `mapstructure:"cleanup_period"`
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
	CookieName     string        `mapstructure:"cookie_name"`
	CookieKey      string        `mapstructure:"cookie_key"`
	LoginPerMinute int           `mapstructure:"login_per_minute"`
	LoginBurst     int           `mapstructure:"login_burst"`
}

// StorageConfig contains file storage configuration
type StorageConfig struct {
	Provider   string `mapstructure:"provider"`
	PictureDir string `mapstructure:"picture_dir"`
	AvatarDir  string `mapstructure:"avatar_dir"`
	S3Bucket   string `mapstructure:"s3_bucket"`
	S3Region   string `mapstructure:"s3_region"`
	S3Endpoint string `mapstructure:"s3_endpoint"`
}

// ImagesConfig sizes the variant worker pool
type ImagesConfig struct {
	Workers       int `mapstructure:"workers"`
	QueueSize     int `mapstructure:"queue_size"`
	ThumbnailSize int `mapstructure:"thumbnail_size"`
	LargeSize     int `mapstructure:"large_size"`
}

// TracingConfig contains OpenTelemetry configuration
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	Insecure     bool    `mapstructure:"insecure"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

// directEnv are variables read without the RECIPES_ prefix
var directEnv = map[string]string{
	"database.url":        "DATABASE_URL",
	"server.listen":       "LISTEN",
	"auth.jwt_secret":     "JWT_SECRET",
	"storage.picture_dir": "PICTURE_DIR",
	"storage.avatar_dir":  "AVATAR_DIR",
	"auth.cookie_key":     "COOKIE_KEY",
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/recipes")
	}

	v.SetEnvPrefix("RECIPES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range directEnv {
		// the prefixed name is checked first
		if err := v.BindEnv(key, "RECIPES_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine, defaults and env cover everything
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.v = v

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Recipes")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	// Server defaults
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.max_upload_bytes", 10<<20) // 10MB
	v.SetDefault("server.h2c", false)
	v.SetDefault("server.enable_compression", true)
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "file:recipes.db?_foreign_keys=on")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("database.slow_query_threshold", "200ms")
	v.SetDefault("database.migrate", true)

	// Cache defaults
	v.SetDefault("cache.provider", "memory")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", "30m")
	v.SetDefault("cache.cleanup_period", "5m")

	// Auth defaults
	v.SetDefault("auth.token_ttl", "720h") // 30 days
	v.SetDefault("auth.cookie_name", "recipes_auth")
	v.SetDefault("auth.login_per_minute", 10)
	v.SetDefault("auth.login_burst", 5)

	// Storage defaults
	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.picture_dir", "./data/pictures")
	v.SetDefault("storage.avatar_dir", "./data/avatars")

	// Image defaults
	v.SetDefault("images.workers", 2)
	v.SetDefault("images.queue_size", 64)
	v.SetDefault("images.thumbnail_size", 300)
	v.SetDefault("images.large_size", 1200)

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.otlp_endpoint", "localhost:4318")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.sample_rate", 0.1)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	if c.Auth.JWTSecret == "" && c.IsProduction() {
		return fmt.Errorf("auth.jwt_secret is required in production")
	}
	if c.Auth.CookieKey != "" && len(c.Auth.CookieKey) < 32 {
		return fmt.Errorf("auth.cookie_key must be at least 32 bytes")
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}

	switch c.Cache.Provider {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown cache.provider %q", c.Cache.Provider)
	}

	switch c.Storage.Provider {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("storage.s3_bucket is required for the s3 provider")
		}
	default:
		return fmt.Errorf("unknown storage.provider %q", c.Storage.Provider)
	}

	if c.Images.Workers < 1 {
		return fmt.Errorf("images.workers must be at least 1")
	}
	if c.Images.QueueSize < 1 {
		return fmt.Errorf("images.queue_size must be at least 1")
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// WatchLogLevel applies app.log_level changes in the config file to level.
// It does nothing when no config file was read.
func (c *Config) WatchLogLevel(level zap.AtomicLevel, logger *zap.Logger) {
	if c.v == nil || c.v.ConfigFileUsed() == "" {
		return
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		raw := c.v.GetString("app.log_level")
		var next zapcore.Level
		if err := next.UnmarshalText([]byte(raw)); err != nil {
			logger.Warn("Ignoring invalid log level", zap.String("level", raw), zap.String("file", e.Name))
			return
		}
		if next == level.Level() {
			return
		}
		level.SetLevel(next)
		logger.Info("Log level changed", zap.Stringer("level", next), zap.String("file", e.Name))
	})
	c.v.WatchConfig()
}
