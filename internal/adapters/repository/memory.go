package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/okian/comparador/internal/domain/model"
)

// MemoryStore serves fixed snapshots from memory. It backs tests and the
// probe's dry runs.
type MemoryStore struct {
	mu          sync.RWMutex
	stock       []model.StockVehicle
	competitors []model.CompetitorListing
	failure     error
}

// NewMemoryStore creates a store holding copies of the given snapshots.
func NewMemoryStore(stock []model.StockVehicle, competitors []model.CompetitorListing) *MemoryStore {
	return &MemoryStore{
		stock:       slices.Clone(stock),
		competitors: slices.Clone(competitors),
	}
}

// Fail makes every subsequent read return err wrapped in ErrUpstreamRead.
// A nil err restores normal reads.
func (m *MemoryStore) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failure = err
}

func (m *MemoryStore) err() error {
	if m.failure == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUpstreamRead, m.failure)
}

// ListStock returns the stock snapshot.
func (m *MemoryStore) ListStock(ctx context.Context) ([]model.StockVehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.err(); err != nil {
		return nil, err
	}
	return slices.Clone(m.stock), nil
}

// CompetitorPage returns eligible listings matching f, in insertion order.
func (m *MemoryStore) CompetitorPage(ctx context.Context, f CompetitorFilter, offset, limit int) ([]model.CompetitorListing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageSize, limit)
	}

	var out []model.CompetitorListing
	skipped := 0
	for _, c := range m.competitors {
		if !c.Status.Eligible() || (f.Source != "" && c.Source != f.Source) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
