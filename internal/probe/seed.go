package probe

import (
	"context"
	"fmt"

	"github.com/okian/comparador/internal/adapters/repository"
	"github.com/okian/comparador/pkg/logger"
)

// Seed writes a synthetic stock and competitor snapshot into a SQLite file.
// Existing tables are reused; rows are appended.
func Seed(ctx context.Context, cfg SeedConfig) error {
	if cfg.Vehicles < 0 || cfg.Competitors < 0 {
		return fmt.Errorf("seed: negative row count")
	}
	store, err := repository.Open(ctx, "sqlite", cfg.DB, repository.WithLogger(logger.Get()))
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Get().Error(ctx, "failed to close snapshot database", logger.Error(err))
		}
	}()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	g := newGenerator(cfg.Seed, cfg.Now)
	stock := g.stock(cfg.Vehicles)
	competitors := g.competitors(cfg.Competitors)

	if err := store.InsertStock(ctx, stock); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if err := store.InsertCompetitors(ctx, competitors); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	logger.Get().Info(ctx, "snapshot seeded",
		logger.String("db", cfg.DB),
		logger.Int("vehicles", len(stock)),
		logger.Int("competitors", len(competitors)),
		logger.Any("seed", cfg.Seed),
	)
	return nil
}
