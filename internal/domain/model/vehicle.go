// Package model contains the records passed between the snapshot readers,
// the pricing domain and the HTTP layer.
package model

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okian/comparador/internal/domain/types"
)

var hundred = decimal.NewFromInt(100)

// StockVehicle is one unit of the dealer's own inventory, read from the daily
// snapshot. It is never mutated during an analysis run.
type StockVehicle struct {
	ID               string
	LicensePlate     string
	RawModel         string // model, trim token and power, e.g. "X3 xDrive20d 204"
	RegistrationDate string // as published, for display
	RegistrationYear *int
	MileageKm        *int
	ListPrice        decimal.NullDecimal
	OriginalNewPrice decimal.NullDecimal
	DaysInStock      *int
	ListingURL       string
}

// Discount is the current discount off the original list price, in percent.
func (v StockVehicle) Discount() (float64, bool) {
	return discount(v.OriginalNewPrice, v.ListPrice)
}

// CompetitorListing is one scraped listing from a competing dealer.
type CompetitorListing struct {
	ID                   string
	ListingID            string // id of the ad on its source portal
	Source               string // dealer-group tag of the scrape
	RawModel             string
	DealerName           string
	RegistrationYear     *int
	MileageKm            *int
	AskingPrice          decimal.NullDecimal
	PreviousPrice        decimal.NullDecimal
	OriginalNewPrice     decimal.NullDecimal
	DaysPublished        *int
	PriceDropCount       int
	TotalPriceDropAmount decimal.NullDecimal
	Status               types.ListingStatus
	URL                  string
}

// Discount is the asking price discount off the original list price, in percent.
func (c CompetitorListing) Discount() (float64, bool) {
	return discount(c.OriginalNewPrice, c.AskingPrice)
}

// PriceDrops returns the drop count and total dropped amount. Listings scraped
// before the counters existed only carry the previous price, so a single drop
// is inferred from it.
func (c CompetitorListing) PriceDrops() (int, decimal.Decimal) {
	count := c.PriceDropCount
	droppedByPrevious := c.PreviousPrice.Valid && c.AskingPrice.Valid &&
		c.PreviousPrice.Decimal.GreaterThan(c.AskingPrice.Decimal)

	if count <= 0 {
		count = 0
		if c.Status == types.StatusPriceDropped && droppedByPrevious {
			count = 1
		}
	}

	amount := decimal.Zero
	if c.TotalPriceDropAmount.Valid && c.TotalPriceDropAmount.Decimal.IsPositive() {
		amount = c.TotalPriceDropAmount.Decimal
	} else if count > 0 && droppedByPrevious {
		amount = c.PreviousPrice.Decimal.Sub(c.AskingPrice.Decimal)
	}
	return count, amount
}

func discount(newPrice, price decimal.NullDecimal) (float64, bool) {
	if !newPrice.Valid || !price.Valid || !newPrice.Decimal.IsPositive() || !price.Decimal.IsPositive() {
		return 0, false
	}
	return newPrice.Decimal.Sub(price.Decimal).Div(newPrice.Decimal).Mul(hundred).InexactFloat64(), true
}

// ModelDescriptor is the canonical identity extracted from a model string.
type ModelDescriptor struct {
	Base    string
	Variant string
	PowerHP *int
}

// String renders the descriptor as "base variant", the canonical model name.
func (d ModelDescriptor) String() string {
	return strings.TrimSpace(d.Base + " " + d.Variant)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// Price builds a valid NullDecimal.
func Price(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}
