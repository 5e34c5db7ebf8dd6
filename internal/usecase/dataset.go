package usecase

import (
	"time"

	"github.com/churbro/backend/internal/domain"
)

// NewDataset wraps merged records into the published artifact
func NewDataset(records []domain.MasterRecord, runID string, at time.Time) *domain.Dataset {
	stores := make(map[string]int)
	for _, r := range records {
		stores[r.Store]++
	}
	if records == nil {
		records = []domain.MasterRecord{}
	}
	return &domain.Dataset{
		UpdatedAt:     at,
		RunID:         runID,
		TotalProducts: len(records),
		Stores:        stores,
		Products:      records,
	}
}

// NewMetadata summarizes a dataset; report may be nil when publishing without a run
func NewMetadata(ds *domain.Dataset, report *domain.RunReport) *domain.Metadata {
	meta := &domain.Metadata{
		LastUpdated:   ds.UpdatedAt,
		RunID:         ds.RunID,
		TotalProducts: ds.TotalProducts,
		Stores:        []string{},
	}

	seen := make(map[string]bool)
	for i, r := range ds.Products {
		if !seen[r.Store] {
			seen[r.Store] = true
			meta.Stores = append(meta.Stores, r.Store)
		}
		if i == 0 {
			meta.PriceRange = &domain.PriceRange{Min: r.Price, Max: r.Price}
			continue
		}
		if r.Price.LessThan(meta.PriceRange.Min) {
			meta.PriceRange.Min = r.Price
		}
		if r.Price.GreaterThan(meta.PriceRange.Max) {
			meta.PriceRange.Max = r.Price
		}
	}

	if report != nil {
		meta.MissingStores = report.Missing
		meta.Stats = report.Stores
	}
	return meta
}
