// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New(ctx) returns a Config holding every default.
//   - Load layers a YAML file and environment variables over the defaults.
//   - Errors are wrapped with this package's sentinels.
package config

import (
	"context"
	"fmt"
	"runtime"

	"github.com/okian/comparador/internal/adapters/repository"
	"github.com/okian/comparador/internal/domain/policy"
)

// Supported snapshot drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	Store    Store         `koanf:"store"`
	Analysis Analysis      `koanf:"analysis"`
	Policy   policy.Policy `koanf:"policy"`
}

// Store locates the snapshot database.
type Store struct {
	Driver          string `koanf:"driver"`
	DSN             string `koanf:"dsn"`
	PageSize        int    `koanf:"page_size"`
	StockTable      string `koanf:"stock_table"`
	CompetitorTable string `koanf:"competitor_table"`
	AvailableStatus string `koanf:"available_status"`
}

// Analysis tunes the analysis run.
type Analysis struct {
	// Concurrency bounds the vehicles analysed in parallel. Zero means one per CPU.
	Concurrency int `koanf:"concurrency"`
}

// New creates a Config holding the defaults. Context is accepted first to
// satisfy the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Addr:      ":9080",
		Store: Store{
			Driver:          DriverSQLite,
			DSN:             "file:comparador.db",
			PageSize:        repository.DefaultPageSize,
			StockTable:      repository.DefaultStockTable,
			CompetitorTable: repository.DefaultCompetitorTable,
			AvailableStatus: repository.DefaultAvailable,
		},
		Analysis: Analysis{
			Concurrency: runtime.NumCPU(),
		},
		Policy: policy.Default(),
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Store.Driver != DriverPostgres && c.Store.Driver != DriverSQLite:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, c.Store.Driver)
	case c.Store.DSN == "":
		return fmt.Errorf("%w: store.dsn must not be empty", ErrInvalidConfig)
	case c.Store.PageSize <= 0:
		return fmt.Errorf("%w: store.page_size must be positive", ErrInvalidConfig)
	case c.Analysis.Concurrency < 0:
		return fmt.Errorf("%w: analysis.concurrency must not be negative", ErrInvalidConfig)
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
