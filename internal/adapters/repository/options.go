package repository

import (
	"time"

	"github.com/okian/comparador/pkg/logger"
)

// Default snapshot locations.
const (
	DefaultStockTable      = "duc_scraper"
	DefaultCompetitorTable = "comparador_scraper"
	DefaultAvailable       = "DISPONIBLE"
)

// Option applies a configuration option to the SQLStore.
type Option func(*SQLStore)

// WithTables overrides the snapshot table names. Empty names keep the default.
func WithTables(stock, competitor string) Option {
	return func(s *SQLStore) {
		if stock != "" {
			s.stockTable = stock
		}
		if competitor != "" {
			s.competitorTable = competitor
		}
	}
}

// WithAvailableStatus sets the Disponibilidad value of sellable stock.
func WithAvailableStatus(status string) Option {
	return func(s *SQLStore) {
		if status != "" {
			s.available = status
		}
	}
}

// WithClock sets the time source used for day counts.
func WithClock(now func() time.Time) Option {
	return func(s *SQLStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *SQLStore) {
		if l != nil {
			s.log = l
		}
	}
}
