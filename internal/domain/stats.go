package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ExtractionStats counts what happened to the cards of one store
type ExtractionStats struct {
	Pages    int            `json:"pages"`
	Cards    int            `json:"cards"`
	Accepted int            `json:"accepted"`
	Rejected map[string]int `json:"rejected"`
}

// Reject records one rejected card under its reason label
func (s *ExtractionStats) Reject(err error) {
	if s.Rejected == nil {
		s.Rejected = make(map[string]int)
	}
	s.Rejected[RejectionReason(err)]++
}

// RejectedTotal sums every rejection reason
func (s ExtractionStats) RejectedTotal() int {
	total := 0
	for _, n := range s.Rejected {
		total += n
	}
	return total
}

// RejectionRate is rejected cards over seen cards, 0 when no card was seen
func (s ExtractionStats) RejectionRate() float64 {
	if s.Cards == 0 {
		return 0
	}
	return float64(s.RejectedTotal()) / float64(s.Cards)
}

// Reasons returns the rejection labels in a stable order
func (s ExtractionStats) Reasons() []string {
	reasons := make([]string, 0, len(s.Rejected))
	for r := range s.Rejected {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	return reasons
}

// CleanStats counts what the cleanup stage dropped
type CleanStats struct {
	Input         int `json:"input"`
	BelowMinPrice int `json:"below_min_price"`
	InvalidName   int `json:"invalid_name"`
	Kept          int `json:"kept"`
}

// StoreReport summarizes one store's run
type StoreReport struct {
	Store      string          `json:"store"`
	Extraction ExtractionStats `json:"extraction"`
	Cleanup    CleanStats      `json:"cleanup"`
	FetchError string          `json:"fetch_error,omitempty"`
	Missing    bool            `json:"missing"`
}

// RunReport summarizes a whole pipeline run
type RunReport struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Stores     []StoreReport  `json:"stores"`
	Counts     map[string]int `json:"counts"`
	Missing    []string       `json:"missing_stores"`
	Total      int            `json:"total_products"`
}

// Dataset is the published cross-store artifact
type Dataset struct {
	UpdatedAt     time.Time      `json:"updated_at"`
	RunID         string         `json:"run_id,omitempty"`
	TotalProducts int            `json:"total_products"`
	Stores        map[string]int `json:"stores"`
	Products      []MasterRecord `json:"products"`
}

// PriceRange is the min/max price across a dataset
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// Metadata accompanies a published dataset
type Metadata struct {
	LastUpdated   time.Time     `json:"last_updated"`
	RunID         string        `json:"run_id,omitempty"`
	TotalProducts int           `json:"total_products"`
	Stores        []string      `json:"stores"`
	PriceRange    *PriceRange   `json:"price_range,omitempty"`
	MissingStores []string      `json:"missing_stores,omitempty"`
	Stats         []StoreReport `json:"stats,omitempty"`
}
