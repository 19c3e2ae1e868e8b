// Package main applies or rolls back the PostgreSQL schema
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/alchemorsel/recipes/internal/infrastructure/config"
	"github.com/alchemorsel/recipes/internal/infrastructure/persistence/migrations"
	"github.com/alchemorsel/recipes/internal/infrastructure/persistence/postgres"
	"github.com/alchemorsel/recipes/pkg/logger"
	"go.uber.org/zap"
)

const usage = `usage: migrate [-config file] <command>

commands:
  up          apply all pending migrations
  down        roll back the latest migration
  version     print the current schema version
  force N     mark version N as applied without running it`

func main() {
	configPath := flag.String("config", os.Getenv("RECIPES_CONFIG"), "Configuration file path")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*configPath, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("migrations only apply to postgres, database.driver is %q", cfg.Database.Driver)
	}

	log, _, err := logger.New(logger.Config{Level: cfg.App.LogLevel, Format: "console"})
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := postgres.OpenSQL(cfg.Database.URL)
	if err != nil {
		return err
	}

	m, err := migrations.New(db, log)
	if err != nil {
		db.Close()
		return err
	}
	defer m.Close()

	switch args[0] {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info("Schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	case "force":
		if len(args) < 2 {
			return fmt.Errorf("force needs a version")
		}
		var version int
		if _, err := fmt.Sscanf(args[1], "%d", &version); err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		return m.Force(version)
	default:
		return fmt.Errorf("unknown command %q\n\n%s", args[0], usage)
	}
}
