package probe

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/okian/comparador/internal/adapters/repository"
	"github.com/okian/comparador/internal/domain/types"
)

type catalogEntry struct {
	brand    string
	model    string
	version  string
	kw       int
	hp       int
	newPrice float64
}

// catalog covers every range so the percentile table has samples for each.
var catalog = []catalogEntry{
	{"BMW", "Serie 1", "118i", 100, 136, 33000},
	{"BMW", "X1", "sDrive18d", 110, 150, 42000},
	{"MINI", "MINI Countryman", "Cooper S", 131, 178, 38000},
	{"BMW", "Serie 3", "320d", 140, 190, 48000},
	{"BMW", "X3", "xDrive20d", 140, 190, 59000},
	{"BMW", "i4", "eDrive40", 250, 340, 64000},
	{"BMW", "X5", "xDrive30d", 210, 286, 88000},
	{"BMW", "Serie 5", "520d", 145, 197, 62000},
}

var (
	dealers = []string{
		"Automóviles Fersan", "Autos Ibiza", "Motor Sport Levante", "Bertolín Premium",
		"Quadis Motor", "DUC Valencia",
	}
	sources  = []string{"coches.net", "autocasion", "wallapop"}
	statuses = []types.ListingStatus{
		types.StatusActive, types.StatusActive, types.StatusActive, types.StatusNew,
		types.StatusPriceDropped, types.StatusPriceRaised, types.StatusSold, types.StatusRemoved,
	}
)

// generator produces a synthetic snapshot. Output depends only on the seed
// and the reference date.
type generator struct {
	rnd *rand.Rand
	now time.Time
}

func newGenerator(seed uint64, now time.Time) *generator {
	return &generator{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), now: now}
}

// age returns a registration year and a mileage consistent with it.
func (g *generator) age() (int, int) {
	years := 1 + g.rnd.IntN(6)
	km := years*12000 + g.rnd.IntN(15000) - 5000
	if km < 500 {
		km = 500
	}
	return g.now.Year() - years, km
}

// price depreciates the new price by age and mileage, with noise.
func (g *generator) price(c catalogEntry, year, km int) float64 {
	age := float64(g.now.Year() - year)
	p := c.newPrice * math.Pow(0.88, age) * (1 - float64(km)/1_000_000)
	p *= 0.92 + g.rnd.Float64()*0.16
	return math.Round(p/100) * 100
}

// equipment spreads the original list price around the catalog price.
func (g *generator) equipment(c catalogEntry) float64 {
	return math.Round(c.newPrice*(0.85+g.rnd.Float64()*0.35)/100) * 100
}

func (g *generator) stock(n int) []repository.StockRecord {
	out := make([]repository.StockRecord, 0, n)
	for i := range n {
		c := catalog[g.rnd.IntN(len(catalog))]
		year, km := g.age()
		reg := time.Date(year, time.Month(1+g.rnd.IntN(12)), 1+g.rnd.IntN(28), 0, 0, 0, 0, time.UTC)
		published := g.now.AddDate(0, 0, -g.rnd.IntN(120))
		availability := repository.DefaultAvailable
		if g.rnd.IntN(10) == 0 {
			availability = "RESERVADO"
		}
		out = append(out, repository.StockRecord{
			ID:           fmt.Sprintf("S%05d", i+1),
			Plate:        fmt.Sprintf("%04d%s", g.rnd.IntN(10000), plateLetters(g.rnd)),
			Model:        c.model,
			Version:      fmt.Sprintf("%s %d kW (%d CV)", c.version, c.kw, c.hp),
			Registration: reg.Format("02 / 01 / 2006"),
			Published:    published.Format(time.DateOnly),
			Km:           thousands(km) + " km",
			Price:        thousands(int(g.price(c, year, km))) + " €",
			NewPrice:     thousands(int(g.equipment(c))) + " €",
			Availability: availability,
			URL:          fmt.Sprintf("https://stock.example/vehiculo/S%05d", i+1),
		})
	}
	return out
}

func (g *generator) competitors(n int) []repository.CompetitorRecord {
	out := make([]repository.CompetitorRecord, 0, n)
	for i := range n {
		c := catalog[g.rnd.IntN(len(catalog))]
		year, km := g.age()
		price := g.price(c, year, km)
		newPrice := g.equipment(c)
		days := g.rnd.IntN(150)
		r := repository.CompetitorRecord{
			ID:               int64(i + 1),
			Source:           sources[g.rnd.IntN(len(sources))],
			ListingID:        "C" + strconv.Itoa(100000+i),
			Model:            fmt.Sprintf("%s %s %s %d kW (%d CV)", c.brand, c.model, c.version, c.kw, c.hp),
			Year:             &year,
			Km:               &km,
			Price:            &price,
			OriginalNewPrice: &newPrice,
			Dealer:           dealers[g.rnd.IntN(len(dealers))],
			URL:              fmt.Sprintf("https://market.example/anuncio/%d", i+1),
			FirstSeen:        g.now.AddDate(0, 0, -days).Format(time.DateOnly),
			Status:           string(statuses[g.rnd.IntN(len(statuses))]),
		}
		if c.brand == "MINI" {
			r.Model = fmt.Sprintf("%s %s %d kW (%d CV)", c.model, c.version, c.kw, c.hp)
		}
		if g.rnd.IntN(2) == 0 {
			r.DaysPublished = &days
		}
		if r.Status == string(types.StatusPriceDropped) {
			drops := 1 + g.rnd.IntN(3)
			amount := float64(drops) * 500
			previous := price + amount
			r.PriceDrops = drops
			r.PriceDroppedAmount = &amount
			r.PreviousPrice = &previous
		}
		out = append(out, r)
	}
	return out
}

func plateLetters(rnd *rand.Rand) string {
	const letters = "BCDFGHJKLMNPRSTVWXYZ"
	b := make([]byte, 3)
	for i := range b {
		b[i] = letters[rnd.IntN(len(letters))]
	}
	return string(b)
}

// thousands formats n with dot separators, as the scraper stores prices.
func thousands(n int) string {
	s := strconv.Itoa(n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "." + s[i:]
	}
	return s
}
