// Package main provides a standalone health check command for the recipes
// service, used by container health checks and monitoring scripts
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alchemorsel/recipes/internal/infrastructure/config"
	"github.com/alchemorsel/recipes/internal/infrastructure/persistence/postgres"
	"github.com/alchemorsel/recipes/internal/infrastructure/persistence/sqlite"
	"github.com/alchemorsel/recipes/pkg/healthcheck"
	"go.uber.org/zap"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

// Options holds command-line configuration
type Options struct {
	URL            string
	Timeout        time.Duration
	Verbose        bool
	OutputFormat   string
	ExpectedStatus string
	RetryCount     int
	RetryDelay     time.Duration
	ConfigPath     string
	LocalCheck     bool
}

func main() {
	opts := parseFlags()

	if opts.LocalCheck {
		os.Exit(runLocalHealthCheck(opts))
	}
	os.Exit(runRemoteHealthCheck(opts))
}

func parseFlags() Options {
	opts := Options{}

	flag.StringVar(&opts.URL, "url", envOr("HEALTH_CHECK_URL", "http://localhost:8080/health"), "Health check endpoint URL")
	flag.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "Request timeout")
	flag.BoolVar(&opts.Verbose, "verbose", false, "Verbose output")
	flag.StringVar(&opts.OutputFormat, "format", "text", "Output format: text, json")
	flag.StringVar(&opts.ExpectedStatus, "expect", "healthy", "Lowest accepted status: healthy, degraded")
	flag.IntVar(&opts.RetryCount, "retry", 0, "Number of retries on failure")
	flag.DurationVar(&opts.RetryDelay, "retry-delay", time.Second, "Delay between retries")
	flag.StringVar(&opts.ConfigPath, "config", os.Getenv("RECIPES_CONFIG"), "Configuration file path")
	flag.BoolVar(&opts.LocalCheck, "local", false, "Check the configured database directly instead of the HTTP endpoint")

	flag.Parse()
	return opts
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func runRemoteHealthCheck(opts Options) int {
	client := &http.Client{Timeout: opts.Timeout}

	var lastError error
	for attempt := 0; attempt <= opts.RetryCount; attempt++ {
		if attempt > 0 {
			if opts.Verbose {
				fmt.Printf("Retrying in %v... (attempt %d/%d)\n", opts.RetryDelay, attempt, opts.RetryCount)
			}
			time.Sleep(opts.RetryDelay)
		}

		resp, err := client.Get(opts.URL)
		if err != nil {
			lastError = err
			if opts.Verbose {
				fmt.Printf("Request failed: %v\n", err)
			}
			continue
		}

		var body map[string]interface{}
		err = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if err != nil {
			lastError = fmt.Errorf("decode response: %w", err)
			continue
		}

		status, _ := body["status"].(string)
		return output(healthcheck.Status(status), body, opts)
	}

	fmt.Printf("Health check failed after %d attempts: %v\n", opts.RetryCount+1, lastError)
	return exitCodeError
}

// runLocalHealthCheck pings the configured database with the same checker
// the server registers
func runLocalHealthCheck(opts Options) int {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		return exitCodeError
	}

	db, err := openDatabase(cfg)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return exitCodeFailure
	}
	defer db.Close()

	hc := healthcheck.New("local", zap.NewNop())
	hc.Register("database", healthcheck.NewDatabaseChecker(db))

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	result := hc.Check(ctx)
	return output(result.Status, result, opts)
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	if cfg.Database.Driver == "postgres" {
		return postgres.OpenSQL(cfg.Database.URL)
	}
	db, err := sqlite.SetupDatabase(cfg.Database.URL, false, zap.NewNop())
	if err != nil {
		return nil, err
	}
	return db.DB()
}

func output(status healthcheck.Status, result interface{}, opts Options) int {
	switch opts.OutputFormat {
	case "json":
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
	default:
		fmt.Printf("Status: %s\n", status)
		if opts.Verbose {
			data, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(data))
		}
	}

	switch status {
	case healthcheck.StatusHealthy:
		return exitCodeSuccess
	case healthcheck.StatusDegraded:
		if opts.ExpectedStatus == string(healthcheck.StatusDegraded) {
			return exitCodeSuccess
		}
	}
	return exitCodeFailure
}
