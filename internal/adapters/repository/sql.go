package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/okian/comparador/internal/domain/model"
	"github.com/okian/comparador/internal/domain/normalize"
	"github.com/okian/comparador/internal/domain/parse"
	"github.com/okian/comparador/internal/domain/types"
	"github.com/okian/comparador/pkg/logger"
	"github.com/okian/comparador/pkg/metrics"
)

// SQLStore reads both snapshots from a Postgres or SQLite database. It only
// issues SELECT statements outside of EnsureSchema and the Insert helpers.
type SQLStore struct {
	db              *sqlx.DB
	stockTable      string
	competitorTable string
	available       string
	now             func() time.Time
	log             logger.Logger
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUpstreamRead, driver, err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", ErrUpstreamRead, driver, err)
	}
	return NewSQLStore(db, opts...), nil
}

// NewSQLStore wraps an open connection.
func NewSQLStore(db *sqlx.DB, opts ...Option) *SQLStore {
	s := &SQLStore{
		db:              db,
		stockTable:      DefaultStockTable,
		competitorTable: DefaultCompetitorTable,
		available:       DefaultAvailable,
		now:             time.Now,
		log:             logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("repository")
	return s
}

// Ping checks that the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// cell scans any column as text so the parse package can handle the value
// whatever type the scraper stored it as.
type cell struct {
	raw   any
	text  string
	valid bool
}

func (c *cell) Scan(v any) error {
	c.raw, c.valid = v, v != nil
	switch x := v.(type) {
	case nil:
		c.text = ""
	case []byte:
		c.text = string(x)
		c.raw = c.text
	case string:
		c.text = x
	case int64:
		c.text = strconv.FormatInt(x, 10)
	case float64:
		c.text = strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		c.text = strconv.FormatBool(x)
	case time.Time:
		c.text = x.Format(time.DateOnly)
	default:
		c.text = fmt.Sprint(x)
	}
	return nil
}

func (c cell) String() string { return strings.TrimSpace(c.text) }

func (c cell) intPtr() *int {
	if n, ok := parse.KmValue(c.raw); ok {
		return &n
	}
	return nil
}

func (c cell) year() *int {
	if y, ok := parse.RegistrationYear(c.text); ok {
		return &y
	}
	return nil
}

func (c cell) price() decimal.NullDecimal {
	return parse.Price(c.text)
}

type stockRow struct {
	ID           cell `db:"id"`
	Plate        cell `db:"matricula"`
	Model        cell `db:"modelo"`
	Version      cell `db:"version"`
	Registration cell `db:"fecha_matriculacion"`
	Published    cell `db:"fecha_publicacion"`
	Km           cell `db:"km"`
	Price        cell `db:"precio"`
	NewPrice     cell `db:"precio_nuevo"`
	URL          cell `db:"url"`
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// ListStock returns the available vehicles of the stock snapshot.
func (s *SQLStore) ListStock(ctx context.Context) ([]model.StockVehicle, error) {
	start := time.Now()
	query := s.db.Rebind(`SELECT
		"ID Anuncio" AS id,
		"Matrícula" AS matricula,
		"Modelo" AS modelo,
		"Versión" AS version,
		"Fecha primera matriculación" AS fecha_matriculacion,
		"Fecha primera publicación" AS fecha_publicacion,
		"KM" AS km,
		"Precio" AS precio,
		"Precio vehículo nuevo" AS precio_nuevo,
		"URL" AS url
	FROM ` + quote(s.stockTable) + `
	WHERE "Disponibilidad" = ? AND "Modelo" IS NOT NULL
	ORDER BY "ID Anuncio"`)

	var rows []stockRow
	if err := s.db.SelectContext(ctx, &rows, query, s.available); err != nil {
		metrics.RecordUpstreamError(s.stockTable)
		return nil, fmt.Errorf("%w: %s: %v", ErrUpstreamRead, s.stockTable, err)
	}

	now := s.now()
	out := make([]model.StockVehicle, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.vehicle(now))
	}
	metrics.RecordSnapshotRead(s.stockTable, len(out), float64(time.Since(start).Milliseconds()))
	s.log.Debug(ctx, "stock snapshot read", logger.Int("rows", len(out)), logger.Duration("took", time.Since(start)))
	return out, nil
}

func (r stockRow) vehicle(now time.Time) model.StockVehicle {
	v := model.StockVehicle{
		ID:               r.ID.String(),
		LicensePlate:     r.Plate.String(),
		RawModel:         normalize.ComposeStockModel(r.Model.String(), r.Version.String()),
		RegistrationDate: r.Registration.String(),
		RegistrationYear: r.Registration.year(),
		MileageKm:        r.Km.intPtr(),
		ListPrice:        r.Price.price(),
		OriginalNewPrice: r.NewPrice.price(),
		ListingURL:       r.URL.String(),
	}
	if t, ok := parse.Date(r.Published.text); ok {
		days := parse.DaysSince(t, now)
		v.DaysInStock = &days
	}
	return v
}

type competitorRow struct {
	ID                 cell `db:"id"`
	Source             cell `db:"source"`
	ListingID          cell `db:"id_anuncio"`
	Model              cell `db:"modelo"`
	Year               cell `db:"anio"`
	Km                 cell `db:"km"`
	Price              cell `db:"precio"`
	PreviousPrice      cell `db:"precio_anterior"`
	NewPrice           cell `db:"precio_nuevo"`
	OriginalNewPrice   cell `db:"precio_nuevo_original"`
	Dealer             cell `db:"concesionario"`
	URL                cell `db:"url"`
	DaysPublished      cell `db:"dias_publicado"`
	FirstSeen          cell `db:"primera_deteccion"`
	Status             cell `db:"estado_anuncio"`
	PriceDrops         cell `db:"numero_bajadas_precio"`
	PriceDroppedAmount cell `db:"importe_total_bajado"`
}

// CompetitorPage returns one page of eligible listings ordered by id.
func (s *SQLStore) CompetitorPage(ctx context.Context, f CompetitorFilter, offset, limit int) ([]model.CompetitorListing, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageSize, limit)
	}

	statuses := make([]string, 0, len(types.EligibleStatuses))
	for _, st := range types.EligibleStatuses {
		statuses = append(statuses, string(st))
	}
	args := []any{statuses}
	where := `estado_anuncio IN (?)`
	if f.Source != "" {
		where += ` AND source = ?`
		args = append(args, f.Source)
	}
	args = append(args, limit, offset)

	query, args, err := sqlx.In(`SELECT
		id, source, id_anuncio, modelo, "año" AS anio, km, precio, precio_anterior,
		precio_nuevo, precio_nuevo_original, concesionario, url, dias_publicado,
		primera_deteccion, estado_anuncio, numero_bajadas_precio, importe_total_bajado
	FROM `+quote(s.competitorTable)+`
	WHERE `+where+`
	ORDER BY id
	LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("build competitor query: %w", err)
	}

	var rows []competitorRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		metrics.RecordUpstreamError(s.competitorTable)
		return nil, fmt.Errorf("%w: %s: %v", ErrUpstreamRead, s.competitorTable, err)
	}

	now := s.now()
	out := make([]model.CompetitorListing, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.listing(now))
	}
	s.log.Debug(ctx, "competitor page read",
		logger.Int("offset", offset),
		logger.Int("rows", len(out)),
		logger.String("source", f.Source),
	)
	return out, nil
}

func (r competitorRow) listing(now time.Time) model.CompetitorListing {
	l := model.CompetitorListing{
		ID:                   r.ID.String(),
		ListingID:            r.ListingID.String(),
		Source:               r.Source.String(),
		RawModel:             r.Model.String(),
		DealerName:           r.Dealer.String(),
		RegistrationYear:     r.Year.year(),
		MileageKm:            r.Km.intPtr(),
		AskingPrice:          r.Price.price(),
		PreviousPrice:        r.PreviousPrice.price(),
		OriginalNewPrice:     r.OriginalNewPrice.price(),
		DaysPublished:        r.DaysPublished.intPtr(),
		TotalPriceDropAmount: r.PriceDroppedAmount.price(),
		Status:               types.ListingStatus(strings.ToLower(r.Status.String())),
		URL:                  r.URL.String(),
	}
	if !l.OriginalNewPrice.Valid {
		l.OriginalNewPrice = r.NewPrice.price()
	}
	if n := r.PriceDrops.intPtr(); n != nil {
		l.PriceDropCount = *n
	}
	if l.DaysPublished == nil {
		if t, ok := parse.Date(r.FirstSeen.text); ok {
			days := parse.DaysSince(t, now)
			l.DaysPublished = &days
		}
	}
	return l
}
