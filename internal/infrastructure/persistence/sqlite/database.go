// Package sqlite provides SQLite database setup and configuration
package sqlite

import (
	"fmt"

	gormrepo "github.com/alchemorsel/recipes/internal/infrastructure/persistence/gorm"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupDatabase opens the SQLite database at dsn and migrates the schema.
// Foreign keys must be enabled in the dsn, e.g. "file:recipes.db?_foreign_keys=on".
func SetupDatabase(dsn string, debug bool, log *zap.Logger) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "file::memory:?cache=shared&_foreign_keys=on"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormrepo.NewLogger(log, 0, debug),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// one writer at a time keeps sqlite from reporting locked tables
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(gormrepo.AllModels()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("Database connection established", zap.String("driver", "sqlite"))
	return db, nil
}
