package usecase

import (
	"strings"

	"github.com/churbro/backend/internal/domain"
)

// CleanResult is a filtered, recomputed per-store batch
type CleanResult struct {
	Records []domain.Record
	Stats   domain.CleanStats
}

// Cleaner filters a store batch and recomputes its derived fields
type Cleaner struct{}

// NewCleaner creates a new cleanup stage
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Clean drops records below the store's minimum price or with invalid names,
// then recomputes saving, percent off and deal type. Input is not modified.
func (c *Cleaner) Clean(records []domain.Record, profile *domain.Profile) CleanResult {
	result := CleanResult{
		Records: make([]domain.Record, 0, len(records)),
		Stats:   domain.CleanStats{Input: len(records)},
	}

	for _, r := range records {
		if r.SalePrice.LessThan(profile.Cleanup.MinPrice) {
			result.Stats.BelowMinPrice++
			continue
		}
		if !ValidName(r.Name, profile.Cleanup.Name) {
			result.Stats.InvalidName++
			continue
		}
		result.Records = append(result.Records, Recompute(r, profile))
	}

	result.Stats.Kept = len(result.Records)
	return result
}

// Recompute derives saving, percent off, the optional sale badge and deal type
// from the price fields alone. Applying it twice yields the same record.
func Recompute(r domain.Record, profile *domain.Profile) domain.Record {
	r.Saving = Saving(r.SalePrice, r.OriginalPrice)
	r.PercentOff = PercentOff(r.Saving, r.OriginalPrice)

	badges := append([]domain.Badge(nil), r.Badges...)
	rules := profile.Cleanup
	if rules.SaleBadge != "" && rules.SaleBadgeMinSaving.Valid &&
		r.Saving.GreaterThan(rules.SaleBadgeMinSaving.Decimal) && !r.HasBadge(rules.SaleBadge) {
		badges = append(badges, rules.SaleBadge)
	}
	r.Badges = orderBadges(badges, profile)
	r.DealType = DealType(r.Badges, profile)
	return r
}

// DealType joins the labels of the badges, empty when there are none
func DealType(badges []domain.Badge, profile *domain.Profile) string {
	labels := make([]string, 0, len(badges))
	for _, b := range badges {
		labels = append(labels, profile.BadgeLabel(b))
	}
	return strings.Join(labels, ", ")
}

// orderBadges sorts tags into vocabulary order, dropping duplicates.
// Tags outside the vocabulary keep their relative order at the end.
func orderBadges(badges []domain.Badge, profile *domain.Profile) []domain.Badge {
	if len(badges) == 0 {
		return nil
	}
	seen := make(map[domain.Badge]bool, len(badges))
	for _, b := range badges {
		seen[b] = true
	}

	ordered := make([]domain.Badge, 0, len(seen))
	for _, b := range profile.BadgeOrder() {
		if seen[b] {
			ordered = append(ordered, b)
			delete(seen, b)
		}
	}
	for _, b := range badges {
		if seen[b] {
			ordered = append(ordered, b)
			delete(seen, b)
		}
	}
	return ordered
}
