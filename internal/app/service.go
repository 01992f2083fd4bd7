// Package service runs the pricing analysis over the current snapshots and
// implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/okian/comparador/internal/adapters/repository"
	"github.com/okian/comparador/internal/domain/matching"
	"github.com/okian/comparador/internal/domain/model"
	"github.com/okian/comparador/internal/domain/normalize"
	"github.com/okian/comparador/internal/domain/policy"
	"github.com/okian/comparador/internal/domain/pricing"
	"github.com/okian/comparador/internal/domain/tier"
	"github.com/okian/comparador/internal/domain/types"
	"github.com/okian/comparador/pkg/logger"
	"github.com/okian/comparador/pkg/metrics"
)

// Query selects and tunes one analysis.
type Query struct {
	Source        string         // competitor source; empty means all
	Model         string         // exact model, raw or canonical; empty means all
	Position      types.Position // empty means all
	CVTolerance   *int           // nil uses the policy default
	YearTolerance *float64       // nil uses the policy default
}

// Stats summarises the returned vehicles.
type Stats struct {
	OverallPosition float64         // (own avg − market avg) / market avg × 100, one decimal
	AvgOwnPrice     decimal.Decimal // over vehicles with a list price and a market average
	AvgMarketPrice  decimal.Decimal
	Opportunities   int // vehicles priced high
	Total           int
}

// Report is the result of Analyze.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	Percentiles tier.Table
	Stats       Stats
	Vehicles    []pricing.Analysis
}

// Service analyses the stock against the competitor snapshot. It holds no
// state between runs.
type Service struct {
	stock       repository.StockReader
	competitors repository.CompetitorReader
	policy      policy.Policy
	clock       func() time.Time
	concurrency int
	pageSize    int
	logger      logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		policy:      policy.Default(),
		clock:       time.Now,
		concurrency: runtime.NumCPU(),
		pageSize:    repository.DefaultPageSize,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("service")
	return s
}

// snapshot is one run's loaded and pre-processed data.
type snapshot struct {
	now         time.Time
	stock       []model.StockVehicle
	descriptors []model.ModelDescriptor
	ranges      []types.Range
	table       tier.Table
	pool        []matching.Candidate
	matcher     *matching.Matcher
	engine      *pricing.Engine
}

// Analyze prices every available vehicle and applies the query filters.
func (s *Service) Analyze(ctx context.Context, q Query) (Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := s.logger.With(logger.String("run_id", runID))

	snap, err := s.load(ctx, q)
	if err != nil {
		s.recordRun("list", err, start)
		log.Error(ctx, "analysis aborted", logger.Error(err))
		return Report{}, err
	}

	results := make([]pricing.Analysis, len(snap.stock))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range snap.stock {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.analyzeOne(snap, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.recordRun("list", err, start)
		return Report{}, err
	}

	vehicles := filter(results, q)
	report := Report{
		RunID:       runID,
		GeneratedAt: snap.now,
		Percentiles: snap.table,
		Stats:       summarize(vehicles),
		Vehicles:    vehicles,
	}

	s.recordRun("list", nil, start)
	log.Info(ctx, "analysis completed",
		logger.Int("stock", len(snap.stock)),
		logger.Int("competitors", len(snap.pool)),
		logger.Int("returned", len(vehicles)),
		logger.Duration("took", time.Since(start)),
	)
	return report, nil
}

// AnalyzeVehicle prices a single vehicle. Percentiles still come from the
// whole stock.
func (s *Service) AnalyzeVehicle(ctx context.Context, id string, q Query) (pricing.Analysis, error) {
	start := time.Now()
	snap, err := s.load(ctx, q)
	if err != nil {
		s.recordRun("vehicle", err, start)
		return pricing.Analysis{}, err
	}
	for i, v := range snap.stock {
		if v.ID == id {
			a := s.analyzeOne(snap, i)
			s.recordRun("vehicle", nil, start)
			return a, nil
		}
	}
	err = fmt.Errorf("%w: %s", ErrVehicleNotFound, id)
	s.recordRun("vehicle", err, start)
	return pricing.Analysis{}, err
}

func (s *Service) load(ctx context.Context, q Query) (*snapshot, error) {
	if s.stock == nil || s.competitors == nil {
		return nil, ErrNotConfigured
	}
	tol, err := s.tolerances(q)
	if err != nil {
		return nil, err
	}

	stock, err := s.stock.ListStock(ctx)
	if err != nil {
		return nil, err
	}
	listings, err := repository.LoadCompetitors(ctx, s.competitors, repository.CompetitorFilter{Source: q.Source}, s.pageSize)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	snap := &snapshot{
		now:         now,
		stock:       stock,
		descriptors: make([]model.ModelDescriptor, len(stock)),
		ranges:      make([]types.Range, len(stock)),
		pool:        make([]matching.Candidate, len(listings)),
		matcher:     matching.New(matching.WithTolerances(tol)),
		engine:      pricing.New(s.policy, now.Year()),
	}

	// The percentile pass completes before any vehicle is priced.
	priced := make([]tier.Priced, len(stock))
	for i, v := range stock {
		snap.descriptors[i] = normalize.Normalize(v.RawModel)
		snap.ranges[i] = tier.ClassifyRange(snap.descriptors[i])
		priced[i] = tier.Priced{Range: snap.ranges[i], OriginalNewPrice: v.OriginalNewPrice}
	}
	snap.table = tier.ComputePercentiles(priced, s.policy)

	for i, l := range listings {
		snap.pool[i] = matching.Candidate{Listing: l, Descriptor: normalize.Normalize(l.RawModel)}
	}
	return snap, nil
}

func (s *Service) tolerances(q Query) (matching.Tolerances, error) {
	tol := matching.Tolerances{CV: s.policy.CVTolerance, Year: s.policy.YearTolerance}
	if q.CVTolerance != nil {
		if *q.CVTolerance < 0 {
			return tol, fmt.Errorf("%w: toleranciaCv %d", ErrInvalidTolerance, *q.CVTolerance)
		}
		tol.CV = *q.CVTolerance
	}
	if q.YearTolerance != nil {
		y := *q.YearTolerance
		if y < 0 || math.IsNaN(y) || math.IsInf(y, 0) {
			return tol, fmt.Errorf("%w: toleranciaAño %v", ErrInvalidTolerance, y)
		}
		tol.Year = y
	}
	return tol, nil
}

func (s *Service) analyzeOne(snap *snapshot, i int) pricing.Analysis {
	v := snap.stock[i]
	desc := snap.descriptors[i]
	r := snap.ranges[i]
	eq, _ := tier.ClassifyEquipment(r, v.OriginalNewPrice, snap.table, s.policy)

	matched := snap.matcher.FindComparable(matching.Subject{Descriptor: desc, RegistrationYear: v.RegistrationYear}, snap.pool)
	comparables := make([]model.CompetitorListing, len(matched))
	for j, c := range matched {
		comparables[j] = c.Listing
	}

	a := snap.engine.Analyze(pricing.Input{
		Vehicle:     v,
		Descriptor:  desc,
		Range:       r,
		Equipment:   eq,
		Comparables: comparables,
	})
	metrics.RecordVehicleAnalyzed(a.CompetitorCount, string(a.Position), string(a.Trail.Branch))
	return a
}

func filter(all []pricing.Analysis, q Query) []pricing.Analysis {
	want := strings.TrimSpace(q.Model)
	out := make([]pricing.Analysis, 0, len(all))
	for _, a := range all {
		if want != "" && !strings.EqualFold(want, a.Vehicle.RawModel) && !strings.EqualFold(want, a.CanonicalModel) {
			continue
		}
		if q.Position != "" && a.Position != q.Position {
			continue
		}
		out = append(out, a)
	}
	return out
}

func summarize(vehicles []pricing.Analysis) Stats {
	st := Stats{Total: len(vehicles), AvgOwnPrice: decimal.Zero, AvgMarketPrice: decimal.Zero}
	var own, market []decimal.Decimal
	for _, a := range vehicles {
		if a.Position == types.PositionHigh {
			st.Opportunities++
		}
		if a.Vehicle.ListPrice.Valid && a.Market.AvgPrice.Valid {
			own = append(own, a.Vehicle.ListPrice.Decimal)
			market = append(market, a.Market.AvgPrice.Decimal)
		}
	}
	if len(own) == 0 {
		return st
	}
	ownAvg := decimal.Avg(own[0], own[1:]...)
	marketAvg := decimal.Avg(market[0], market[1:]...)
	st.AvgOwnPrice = ownAvg.Round(0)
	st.AvgMarketPrice = marketAvg.Round(0)
	if marketAvg.IsPositive() {
		st.OverallPosition = ownAvg.Sub(marketAvg).Div(marketAvg).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
	}
	return st
}

func (s *Service) recordRun(kind string, err error, start time.Time) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrUpstreamRead):
		outcome = "upstream_error"
		metrics.RecordErrorByComponent("service", "upstream_read")
	case errors.Is(err, ErrVehicleNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrInvalidTolerance):
		outcome = "invalid_query"
	default:
		outcome = "error"
		metrics.RecordErrorByComponent("service", "analysis")
	}
	metrics.RecordAnalysisRun(kind, outcome, float64(time.Since(start).Milliseconds()))
}
