// Package migrations applies the embedded PostgreSQL schema with
// golang-migrate. SQLite databases are migrated by gorm instead.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

// Migration is one embedded schema change, e.g. 000001_init
type Migration struct {
	Version uint
	Name    string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

// Embedded lists the migrations shipped with the binary in version order.
// Every up file must have a matching down file.
func Embedded() ([]Migration, error) {
	src, err := iofs.New(sqlFiles, "sql")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	defer src.Close()

	var list []Migration
	version, err := src.First()
	for err == nil {
		name, readErr := identifier(src, version)
		if readErr != nil {
			return nil, readErr
		}
		list = append(list, Migration{Version: version, Name: name})
		version, err = src.Next(version)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to list embedded migrations: %w", err)
	}
	return list, nil
}

func identifier(src source.Driver, version uint) (string, error) {
	up, name, err := src.ReadUp(version)
	if err != nil {
		return "", fmt.Errorf("migration %d has no up file: %w", version, err)
	}
	up.Close()

	down, _, err := src.ReadDown(version)
	if err != nil {
		return "", fmt.Errorf("migration %06d_%s has no down file: %w", version, name, err)
	}
	down.Close()
	return name, nil
}

// Migrator applies the embedded migrations to one database
type Migrator struct {
	migrate  *migrate.Migrate
	embedded []Migration
	logger   *zap.Logger
}

// New creates a migrator for a postgres pool. Closing the migrator closes
// the pool.
func New(db *sql.DB, logger *zap.Logger) (*Migrator, error) {
	embedded, err := Embedded()
	if err != nil {
		return nil, err
	}

	src, err := iofs.New(sqlFiles, "sql")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable:  "schema_migrations",
		StatementTimeout: 5 * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return &Migrator{
		migrate:  m,
		embedded: embedded,
		logger:   logger.Named("migrations"),
	}, nil
}

// Pending lists the embedded migrations above the current schema version
func (m *Migrator) Pending() ([]Migration, error) {
	current, dirty, err := m.Version()
	if err != nil {
		return nil, err
	}
	if dirty {
		return nil, fmt.Errorf("schema version %d is dirty, fix it by hand and run `migrate force %d`", current, current)
	}
	return pendingAfter(m.embedded, current), nil
}

func pendingAfter(embedded []Migration, current uint) []Migration {
	var pending []Migration
	for _, mig := range embedded {
		if mig.Version > current {
			pending = append(pending, mig)
		}
	}
	return pending
}

// Up applies the pending migrations one file at a time
func (m *Migrator) Up() error {
	pending, err := m.Pending()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		current, _, _ := m.Version()
		m.logger.Info("Schema is up to date", zap.Uint("version", current))
		return nil
	}

	start := time.Now()
	for _, mig := range pending {
		stepStart := time.Now()
		if err := m.migrate.Steps(1); err != nil {
			return fmt.Errorf("failed to apply %s: %w", mig, err)
		}
		m.logger.Info("Applied migration",
			zap.Stringer("migration", mig),
			zap.Duration("took", time.Since(stepStart)),
		)
	}
	m.logger.Info("Schema migrated",
		zap.Int("applied", len(pending)),
		zap.Uint("version", pending[len(pending)-1].Version),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// Down reverts the most recent migration
func (m *Migrator) Down() error {
	current, _, err := m.Version()
	if err != nil {
		return err
	}
	if current == 0 {
		m.logger.Info("Nothing to roll back")
		return nil
	}

	if err := m.migrate.Steps(-1); err != nil {
		return fmt.Errorf("failed to roll back version %d: %w", current, err)
	}
	m.logger.Info("Reverted migration", zap.Stringer("migration", m.lookup(current)))
	return nil
}

func (m *Migrator) lookup(version uint) Migration {
	for _, mig := range m.embedded {
		if mig.Version == version {
			return mig
		}
	}
	return Migration{Version: version, Name: "unknown"}
}

// Version returns the current schema version, 0 before the first migration
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Force records version as applied and clears the dirty flag
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing schema version", zap.Int("version", version))

	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version: %w", err)
	}
	return nil
}

// Close releases the source and the database
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("failed to close source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("failed to close database: %w", dbErr)
	}
	return nil
}
