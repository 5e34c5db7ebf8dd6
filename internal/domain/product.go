package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnitType is the unit a transactable price is quoted in
type UnitType string

const (
	UnitEach     UnitType = "ea"
	UnitKilogram UnitType = "kg"
)

// Valid reports whether u is one of the supported units
func (u UnitType) Valid() bool {
	return u == UnitEach || u == UnitKilogram
}

// ParseUnitType accepts the spellings stores use for each/kilogram units
func ParseUnitType(s string) (UnitType, bool) {
	switch s {
	case "ea", "each", "EA":
		return UnitEach, true
	case "kg", "KG", "kilogram":
		return UnitKilogram, true
	}
	return "", false
}

// Badge is a store-scoped promotion tag, e.g. "club-deal"
type Badge string

// CandidateUnit labels what a scanned price token was attached to
type CandidateUnit int

const (
	CandidateUnlabeled CandidateUnit = iota
	CandidateEach
	CandidateKilogram
	CandidatePerKgReference
)

func (u CandidateUnit) String() string {
	switch u {
	case CandidateEach:
		return "each"
	case CandidateKilogram:
		return "kilogram"
	case CandidatePerKgReference:
		return "per-kg-reference"
	default:
		return "unlabeled"
	}
}

// PriceCandidate is a numeric token found on a card. It only lives
// for the duration of one disambiguation pass.
type PriceCandidate struct {
	Value  decimal.Decimal
	Unit   CandidateUnit
	Source string // pattern family or locator that produced it
}

// PriceResult is the resolved price structure of a single card
type PriceResult struct {
	SalePrice     decimal.Decimal
	OriginalPrice decimal.Decimal
	UnitType      UnitType
	PricePerKg    decimal.NullDecimal
	Source        string
}

// Record is the canonical product record produced from one card
type Record struct {
	Store         string              `json:"store"`
	SKU           string              `json:"sku,omitempty"`
	Name          string              `json:"name"`
	Brand         string              `json:"brand,omitempty"`
	SalePrice     decimal.Decimal     `json:"sale_price"`
	OriginalPrice decimal.Decimal     `json:"original_price"`
	PricePerKg    decimal.NullDecimal `json:"price_per_kg"`
	UnitType      UnitType            `json:"unit_type"`
	Saving        decimal.Decimal     `json:"saving"`
	PercentOff    decimal.Decimal     `json:"percent_off"`
	Badges        []Badge             `json:"badges,omitempty"`
	DealType      string              `json:"deal_type,omitempty"`
	ScrapedAt     time.Time           `json:"scraped_at"`
}

// HasBadge reports whether the record carries the given tag
func (r *Record) HasBadge(b Badge) bool {
	for _, have := range r.Badges {
		if have == b {
			return true
		}
	}
	return false
}

// CardResult is the outcome of transforming one card: either a record
// or the reason it was rejected.
type CardResult struct {
	Record    *Record
	Rejection error
}

// Accepted reports whether the card produced a record
func (r CardResult) Accepted() bool {
	return r.Record != nil && r.Rejection == nil
}

// MasterRecord is one row of the cross-store dataset
type MasterRecord struct {
	Store         string              `json:"store"`
	SKU           *string             `json:"sku"`
	Name          string              `json:"name"`
	Brand         *string             `json:"brand"`
	Price         decimal.Decimal     `json:"price"`
	OriginalPrice decimal.NullDecimal `json:"original_price"`
	PricePerKg    decimal.NullDecimal `json:"price_per_kg"`
	UnitType      *string             `json:"unit_type"`
	Saving        decimal.NullDecimal `json:"saving"`
	PercentOff    decimal.NullDecimal `json:"percent_off"`
	DealType      *string             `json:"deal_type"`
	ScrapedAt     *time.Time          `json:"scraped_at"`
}
