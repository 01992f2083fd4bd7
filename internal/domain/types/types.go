// Package types holds the closed enumerations shared by the pricing domain.
package types

import (
	"fmt"
	"strings"
)

// Range is the coarse market tier of a model line (gama).
type Range string

const (
	RangeBasic Range = "basica"
	RangeMid   Range = "media"
	RangeHigh  Range = "alta"
)

// Ranges lists every range in ascending order.
var Ranges = []Range{RangeBasic, RangeMid, RangeHigh}

// Equipment is the trim tier inferred from the original list price.
type Equipment string

const (
	EquipmentBasic   Equipment = "basico"
	EquipmentMid     Equipment = "medio"
	EquipmentPremium Equipment = "premium"
)

// Position is the verdict comparing a list price to the recommended price.
type Position string

const (
	PositionCompetitive Position = "competitivo"
	PositionFair        Position = "justo"
	PositionHigh        Position = "alto"
)

// ParsePosition accepts the wire values used by the estado filter.
func ParsePosition(s string) (Position, error) {
	switch p := Position(strings.ToLower(strings.TrimSpace(s))); p {
	case PositionCompetitive, PositionFair, PositionHigh:
		return p, nil
	default:
		return "", fmt.Errorf("unknown position %q", s)
	}
}

// ListingStatus is the lifecycle tag the scraper stores on each competitor listing.
type ListingStatus string

const (
	StatusActive       ListingStatus = "activo"
	StatusNew          ListingStatus = "nuevo"
	StatusPriceDropped ListingStatus = "precio_bajado"
	StatusPriceRaised  ListingStatus = "precio_subido"
	StatusSold         ListingStatus = "vendido"
	StatusRemoved      ListingStatus = "eliminado"
)

// EligibleStatuses are the statuses a listing must carry to be matched.
var EligibleStatuses = []ListingStatus{StatusActive, StatusNew, StatusPriceDropped, StatusPriceRaised}

// Eligible reports whether listings with this status take part in matching.
func (s ListingStatus) Eligible() bool {
	for _, e := range EligibleStatuses {
		if s == e {
			return true
		}
	}
	return false
}

// Branch names the recommendation policy path taken for a vehicle.
type Branch string

const (
	BranchNone       Branch = ""
	BranchStandard   Branch = "standard"
	BranchBonus      Branch = "premium_bonus"
	BranchAggressive Branch = "aggressive"
)
