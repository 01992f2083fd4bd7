package repository

import (
	"context"
	"fmt"
	"slices"
)

// StockRecord is one row of the stock snapshot as the scraper writes it.
type StockRecord struct {
	ID           string `db:"id"`
	Plate        string `db:"matricula"`
	Model        string `db:"modelo"`
	Version      string `db:"version"`
	Registration string `db:"fecha_matriculacion"`
	Published    string `db:"fecha_publicacion"`
	Km           string `db:"km"`
	Price        string `db:"precio"`
	NewPrice     string `db:"precio_nuevo"`
	Availability string `db:"disponibilidad"`
	URL          string `db:"url"`
}

// CompetitorRecord is one row of the competitor snapshot.
type CompetitorRecord struct {
	ID                 int64    `db:"id"`
	Source             string   `db:"source"`
	ListingID          string   `db:"id_anuncio"`
	Model              string   `db:"modelo"`
	Year               *int     `db:"anio"`
	Km                 *int     `db:"km"`
	Price              *float64 `db:"precio"`
	PreviousPrice      *float64 `db:"precio_anterior"`
	NewPrice           *float64 `db:"precio_nuevo"`
	OriginalNewPrice   *float64 `db:"precio_nuevo_original"`
	Dealer             string   `db:"concesionario"`
	URL                string   `db:"url"`
	DaysPublished      *int     `db:"dias_publicado"`
	FirstSeen          string   `db:"primera_deteccion"`
	Status             string   `db:"estado_anuncio"`
	PriceDrops         int      `db:"numero_bajadas_precio"`
	PriceDroppedAmount *float64 `db:"importe_total_bajado"`
}

// EnsureSchema creates both snapshot tables when they do not exist. The
// production tables belong to the scrapers; this is for local databases and
// tests.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + quote(s.stockTable) + ` (
			"ID Anuncio" TEXT PRIMARY KEY,
			"Matrícula" TEXT,
			"Modelo" TEXT,
			"Versión" TEXT,
			"Fecha primera matriculación" TEXT,
			"Fecha primera publicación" TEXT,
			"KM" TEXT,
			"Precio" TEXT,
			"Precio vehículo nuevo" TEXT,
			"Disponibilidad" TEXT,
			"URL" TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS ` + quote(s.competitorTable) + ` (
			id BIGINT PRIMARY KEY,
			source TEXT,
			id_anuncio TEXT,
			modelo TEXT,
			"año" INTEGER,
			km INTEGER,
			precio NUMERIC,
			precio_anterior NUMERIC,
			precio_nuevo NUMERIC,
			precio_nuevo_original NUMERIC,
			concesionario TEXT,
			url TEXT,
			dias_publicado INTEGER,
			primera_deteccion TEXT,
			estado_anuncio TEXT,
			numero_bajadas_precio INTEGER DEFAULT 0,
			importe_total_bajado NUMERIC
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure snapshot schema: %w", err)
		}
	}
	return nil
}

// insertBatch bounds the rows per INSERT to stay under SQLite's bind
// variable limit.
const insertBatch = 500

// InsertStock writes stock rows.
func (s *SQLStore) InsertStock(ctx context.Context, records []StockRecord) error {
	for batch := range slices.Chunk(records, insertBatch) {
		if err := s.insertStock(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) insertStock(ctx context.Context, records []StockRecord) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO `+quote(s.stockTable)+` (
		"ID Anuncio", "Matrícula", "Modelo", "Versión", "Fecha primera matriculación",
		"Fecha primera publicación", "KM", "Precio", "Precio vehículo nuevo", "Disponibilidad", "URL"
	) VALUES (
		:id, :matricula, :modelo, :version, :fecha_matriculacion,
		:fecha_publicacion, :km, :precio, :precio_nuevo, :disponibilidad, :url
	)`, records)
	if err != nil {
		return fmt.Errorf("insert stock: %w", err)
	}
	return nil
}

// InsertCompetitors writes competitor rows.
func (s *SQLStore) InsertCompetitors(ctx context.Context, records []CompetitorRecord) error {
	for batch := range slices.Chunk(records, insertBatch) {
		if err := s.insertCompetitors(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) insertCompetitors(ctx context.Context, records []CompetitorRecord) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO `+quote(s.competitorTable)+` (
		id, source, id_anuncio, modelo, "año", km, precio, precio_anterior, precio_nuevo,
		precio_nuevo_original, concesionario, url, dias_publicado, primera_deteccion,
		estado_anuncio, numero_bajadas_precio, importe_total_bajado
	) VALUES (
		:id, :source, :id_anuncio, :modelo, :anio, :km, :precio, :precio_anterior, :precio_nuevo,
		:precio_nuevo_original, :concesionario, :url, :dias_publicado, :primera_deteccion,
		:estado_anuncio, :numero_bajadas_precio, :importe_total_bajado
	)`, records)
	if err != nil {
		return fmt.Errorf("insert competitors: %w", err)
	}
	return nil
}
