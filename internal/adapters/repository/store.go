// Package repository reads the stock and competitor snapshots that the
// scrapers write to the shared database.
package repository

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/okian/comparador/internal/domain/dedupe"
	"github.com/okian/comparador/internal/domain/model"
	"github.com/okian/comparador/pkg/metrics"
)

// DefaultPageSize is the number of competitor rows requested per page.
const DefaultPageSize = 1000

// StockReader lists the vehicles currently available for sale.
type StockReader interface {
	ListStock(ctx context.Context) ([]model.StockVehicle, error)
}

// CompetitorFilter restricts the competitor snapshot.
type CompetitorFilter struct {
	Source string // empty means every source
}

// CompetitorReader reads the eligible competitor listings one page at a time,
// in a stable order.
type CompetitorReader interface {
	CompetitorPage(ctx context.Context, f CompetitorFilter, offset, limit int) ([]model.CompetitorListing, error)
}

// Pages yields pages of pageSize listings until a short page or an error.
func Pages(ctx context.Context, r CompetitorReader, f CompetitorFilter, pageSize int) iter.Seq2[[]model.CompetitorListing, error] {
	return func(yield func([]model.CompetitorListing, error) bool) {
		if pageSize <= 0 {
			yield(nil, fmt.Errorf("%w: %d", ErrInvalidPageSize, pageSize))
			return
		}
		for offset := 0; ; offset += pageSize {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			page, err := r.CompetitorPage(ctx, f, offset, pageSize)
			if err != nil {
				yield(nil, err)
				return
			}
			metrics.RecordSnapshotPage()
			if !yield(page, nil) || len(page) < pageSize {
				return
			}
		}
	}
}

// LoadCompetitors reads every page and drops listings already delivered by
// an earlier page, which offset pagination can produce when rows are written
// during the read.
func LoadCompetitors(ctx context.Context, r CompetitorReader, f CompetitorFilter, pageSize int) ([]model.CompetitorListing, error) {
	start := time.Now()
	seen := dedupe.New()
	var out []model.CompetitorListing

	for page, err := range Pages(ctx, r, f, pageSize) {
		if err != nil {
			if !errors.Is(err, ErrUpstreamRead) {
				err = fmt.Errorf("%w: %w", ErrUpstreamRead, err)
			}
			return nil, err
		}
		for _, l := range page {
			// Listings without any identity cannot be told apart and are all kept.
			if key := listingKey(l); key != "" && seen.SeenAndRecord(key) {
				continue
			}
			out = append(out, l)
		}
	}

	metrics.RecordSnapshotRead("competitor", len(out), float64(time.Since(start).Milliseconds()))
	return out, nil
}

// listingKey identifies a listing across pages, empty when it has no ID.
func listingKey(l model.CompetitorListing) string {
	switch {
	case l.ID != "":
		return l.ID
	case l.ListingID != "":
		return l.Source + "/" + l.ListingID
	default:
		return ""
	}
}
