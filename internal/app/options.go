package service

import (
	"time"

	"github.com/okian/comparador/internal/adapters/repository"
	"github.com/okian/comparador/internal/domain/policy"
	"github.com/okian/comparador/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStockReader sets the stock snapshot source.
func WithStockReader(r repository.StockReader) Option {
	return func(s *Service) {
		s.stock = r
	}
}

// WithCompetitorReader sets the competitor snapshot source.
func WithCompetitorReader(r repository.CompetitorReader) Option {
	return func(s *Service) {
		s.competitors = r
	}
}

// WithPolicy sets the pricing policy.
func WithPolicy(p policy.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithClock sets the time source. Each run reads it once.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = now
		}
	}
}

// WithConcurrency bounds the vehicles analysed in parallel. Zero or less
// keeps the default.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithPageSize sets the competitor page size.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}
