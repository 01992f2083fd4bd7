// Package parse turns the scraped text fields of the snapshots into numeric
// and temporal values. Every function reports failure through its ok result
// or an invalid NullDecimal and never returns an error: a malformed field only
// lowers precision downstream.
package parse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// 1.234 or 12.345.678: dots are thousands separators.
	thousandsOnly = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+$`)
	bareYear      = regexp.MustCompile(`^\d{4}$`)
	kmSuffix      = regexp.MustCompile(`(?i)\s*kms?\.?\s*$`)
	priceNoise    = strings.NewReplacer("€", "", "EUR", "", " ", "", "\u00a0", "", "\t", "")
)

// Price parses a localized price such as "35.420,50 €", "35420.50" or "29.900".
func Price(text string) decimal.NullDecimal {
	s := priceNoise.Replace(strings.TrimSpace(text))
	if s == "" {
		return decimal.NullDecimal{}
	}
	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case thousandsOnly.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// Km parses a mileage string such as "44.986 km" or "500".
func Km(text string) (int, bool) {
	s := kmSuffix.ReplaceAllString(strings.TrimSpace(text), "")
	s = strings.NewReplacer(".", "", " ", "", "\u00a0", "").Replace(s)
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// KmValue accepts the mileage column as the driver returns it: an integer,
// a float, a string or raw bytes.
func KmValue(v any) (int, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case int:
		return x, x >= 0
	case int32:
		return int(x), x >= 0
	case int64:
		return int(x), x >= 0
	case float64:
		if math.IsNaN(x) || x < 0 {
			return 0, false
		}
		return int(math.Round(x)), true
	case string:
		return Km(x)
	case []byte:
		return Km(string(x))
	default:
		return 0, false
	}
}

// RegistrationYear returns the year of an ISO (YYYY-MM-DD) or
// "DD / MM / YYYY" date, or of a bare year as stored by the scraper.
func RegistrationYear(text string) (int, bool) {
	s := strings.TrimSpace(text)
	var part string
	switch {
	case s == "":
		return 0, false
	case bareYear.MatchString(s):
		part = s
	case strings.Contains(s, "-"):
		part = strings.SplitN(s, "-", 2)[0]
	default:
		parts := strings.Split(s, "/")
		if len(parts) != 3 {
			return 0, false
		}
		part = parts[2]
	}
	year, err := strconv.Atoi(strings.TrimSpace(part))
	if err != nil || year < 1900 || year > 2200 {
		return 0, false
	}
	return year, true
}

// Date parses the full date of an ISO timestamp or a "DD / MM / YYYY" value.
func Date(text string) (time.Time, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, false
	}
	if strings.Contains(s, "-") {
		if len(s) > len(time.DateOnly) {
			s = s[:len(time.DateOnly)]
		}
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}

	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	var ymd [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return time.Time{}, false
		}
		ymd[i] = n
	}
	day, month, year := ymd[0], ymd[1], ymd[2]
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes 31/02 into March; reject instead.
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, false
	}
	return t, true
}

// DaysSince is the number of whole days elapsed from since to now, never negative.
func DaysSince(since, now time.Time) int {
	d := now.Sub(since)
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}
