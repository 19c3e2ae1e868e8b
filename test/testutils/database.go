//go:build integration

package testutils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alchemorsel/recipes/internal/infrastructure/config"
	"github.com/alchemorsel/recipes/internal/infrastructure/persistence/migrations"
	"github.com/alchemorsel/recipes/internal/infrastructure/persistence/postgres"
	"github.com/docker/go-connections/nat"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// TestDatabase is a migrated PostgreSQL running in a container
type TestDatabase struct {
	Container testcontainers.Container
	Conn      *postgres.Connection
	DSN       string
	t         *testing.T
}

// DatabaseConfig holds test database configuration
type DatabaseConfig struct {
	Image    string
	Database string
	Username string
	Password string
	Port     string
}

// DefaultDatabaseConfig returns the default test database configuration
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Image:    "postgres:15-alpine",
		Database: "recipes_test",
		Username: "test_user",
		Password: "test_password",
		Port:     "5432",
	}
}

// SetupTestDatabase starts postgres, applies the migrations and terminates
// the container when the test ends
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()
	cfg := DefaultDatabaseConfig()
	ctx := context.Background()

	dsnFor := func(host string, port nat.Port) string {
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.Username, cfg.Password, host, port.Port(), cfg.Database)
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        cfg.Image,
			ExposedPorts: []string{cfg.Port + "/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       cfg.Database,
				"POSTGRES_USER":     cfg.Username,
				"POSTGRES_PASSWORD": cfg.Password,
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
				wait.ForSQL(nat.Port(cfg.Port+"/tcp"), "pgx", dsnFor),
			),
			Tmpfs: map[string]string{
				"/var/lib/postgresql/data": "rw,noexec,nosuid,size=512m",
			},
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start postgres container")

	td := &TestDatabase{Container: container, t: t}
	t.Cleanup(td.Cleanup)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, nat.Port(cfg.Port))
	require.NoError(t, err)
	td.DSN = dsnFor(host, port)

	td.Conn, err = postgres.Open(config.DatabaseConfig{
		Driver:          "postgres",
		URL:             td.DSN,
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	}, false, zap.NewNop())
	require.NoError(t, err, "Failed to connect to test database")

	m, err := migrations.New(td.Conn.SQLDB, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up(), "Failed to run migrations")

	return td
}

// TruncateAllTables removes all rows and resets the id sequences
func (td *TestDatabase) TruncateAllTables() {
	td.t.Helper()
	_, err := td.Conn.SQLDB.Exec(`TRUNCATE TABLE weekplans, step_ingredients, ingredient_units,
		ingredients, steps, fitting, recipes_tags, tags, recipes, users RESTART IDENTITY CASCADE`)
	require.NoError(td.t, err)
}

// Cleanup closes the pool and stops the container
func (td *TestDatabase) Cleanup() {
	if td.Conn != nil {
		td.Conn.SQLDB.Close()
	}
	if td.Container != nil {
		if err := td.Container.Terminate(context.Background()); err != nil {
			td.t.Logf("Failed to terminate postgres container: %v", err)
		}
	}
}
