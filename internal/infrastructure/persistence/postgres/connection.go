// Package postgres provides PostgreSQL database connection and management
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alchemorsel/recipes/internal/infrastructure/config"
	gormrepo "github.com/alchemorsel/recipes/internal/infrastructure/persistence/gorm"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// Connection holds the GORM handle and the pool underneath it. The pool is
// shared with the migrator.
type Connection struct {
	DB    *gorm.DB
	SQLDB *sql.DB
}

// OpenSQL opens a pgx-backed database/sql pool for url
func OpenSQL(url string) (*sql.DB, error) {
	connConfig, err := pgx.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	return stdlib.OpenDB(*connConfig), nil
}

// Open connects to PostgreSQL, configures the pool and registers read
// replicas when configured
func Open(cfg config.DatabaseConfig, debug bool, log *zap.Logger) (*Connection, error) {
	sqlDB, err := OpenSQL(cfg.URL)
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormrepo.NewLogger(log, cfg.SlowThreshold, debug),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if len(cfg.Replicas) > 0 {
		replicas := make([]gorm.Dialector, len(cfg.Replicas))
		for i, dsn := range cfg.Replicas {
			replicas[i] = postgres.Open(dsn)
		}

		resolver := dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		}).
			SetMaxOpenConns(cfg.MaxOpenConns).
			SetMaxIdleConns(cfg.MaxIdleConns).
			SetConnMaxLifetime(cfg.ConnMaxLifetime)
		if err := db.Use(resolver); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to register read replicas: %w", err)
		}
		log.Info("Read replicas configured", zap.Int("replica_count", len(cfg.Replicas)))
	}

	log.Info("Database connection established",
		zap.String("driver", "postgres"),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
		zap.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
	)

	return &Connection{DB: db, SQLDB: sqlDB}, nil
}
