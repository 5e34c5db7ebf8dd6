package usecase

import (
	"fmt"

	"github.com/churbro/backend/internal/domain"
)

// MergeInput is one store's cleaned batch in its own schema; a nil Table marks it missing
type MergeInput struct {
	Store  string
	Schema domain.StoreSchema
	Table  *domain.Table
}

// MergeResult is the unified dataset plus what the merge observed
type MergeResult struct {
	Records []domain.MasterRecord
	Counts  map[string]int // display name -> rows
	Missing []string       // store keys without a batch
}

// Aggregator reconciles per-store schemas and concatenates batches.
// It neither deduplicates nor re-validates.
type Aggregator struct {
	projector *Projector
	strict    bool
}

// NewAggregator creates an aggregator; strict turns a missing batch into an error
func NewAggregator(strict bool) *Aggregator {
	return &Aggregator{projector: NewProjector(), strict: strict}
}

// Merge concatenates inputs in the given order, preserving row order within each store
func (a *Aggregator) Merge(inputs []MergeInput) (MergeResult, error) {
	result := MergeResult{Counts: make(map[string]int, len(inputs))}

	for _, in := range inputs {
		if in.Table == nil {
			if a.strict {
				return MergeResult{}, fmt.Errorf("%w: %s", domain.ErrMissingBatch, in.Store)
			}
			result.Missing = append(result.Missing, in.Store)
			continue
		}

		for i, row := range in.Table.Rows {
			m, err := a.projector.ToMaster(row, in.Schema)
			if err != nil {
				return MergeResult{}, fmt.Errorf("%s row %d: %w", in.Store, i+1, err)
			}
			result.Records = append(result.Records, m)
		}
		result.Counts[in.Schema.DisplayName] += len(in.Table.Rows)
	}
	return result, nil
}
