package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: Recipes\n"))

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "memory", cfg.Cache.Provider)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 720*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "recipes_auth", cfg.Auth.CookieName)
	assert.Equal(t, 300, cfg.Images.ThumbnailSize)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
app:
  environment: production
server:
  listen: ":9000"
  h2c: true
database:
  driver: postgres
auth:
  jwt_secret: from-file
images:
  workers: 4
`)
	t.Setenv("DATABASE_URL", "postgres://recipes@db/recipes")
	t.Setenv("LISTEN", ":7000")
	t.Setenv("PICTURE_DIR", "/srv/pictures")
	t.Setenv("RECIPES_CACHE_PROVIDER", "redis")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, ":7000", cfg.Server.Listen)
	assert.True(t, cfg.Server.H2C)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://recipes@db/recipes", cfg.Database.URL)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, "/srv/pictures", cfg.Storage.PictureDir)
	assert.Equal(t, "redis", cfg.Cache.Provider)
	assert.Equal(t, 4, cfg.Images.Workers)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "app: [unterminated"))

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			App:      AppConfig{Name: "Recipes", Environment: "production"},
			Database: DatabaseConfig{Driver: "postgres", URL: "postgres://db"},
			Cache:    CacheConfig{Provider: "redis"},
			Auth:     AuthConfig{JWTSecret: "secret"},
			Storage:  StorageConfig{Provider: "local"},
			Images:   ImagesConfig{Workers: 1, QueueSize: 8},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing secret in production", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: "jwt_secret"},
		{name: "missing secret in development", mutate: func(c *Config) { c.Auth.JWTSecret = ""; c.App.Environment = "development" }},
		{name: "short cookie key", mutate: func(c *Config) { c.Auth.CookieKey = "short" }, wantErr: "cookie_key"},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "database.driver"},
		{name: "unknown cache", mutate: func(c *Config) { c.Cache.Provider = "memcached" }, wantErr: "cache.provider"},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Provider = "ftp" }, wantErr: "storage.provider"},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Storage.Provider = "s3" }, wantErr: "s3_bucket"},
		{name: "no workers", mutate: func(c *Config) { c.Images.Workers = 0 }, wantErr: "images.workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
