package usecase

import (
	"time"

	"github.com/churbro/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Batch is the explicit accumulator of one store's extraction run
type Batch struct {
	Store   string
	Records []domain.Record
	Stats   domain.ExtractionStats
}

// Add folds one card result into the batch
func (b *Batch) Add(result domain.CardResult) {
	b.Stats.Cards++
	if !result.Accepted() {
		b.Stats.Reject(result.Rejection)
		return
	}
	b.Stats.Accepted++
	b.Records = append(b.Records, *result.Record)
}

// RecordBuilder composes the extractors into one canonical record per card
type RecordBuilder struct {
	names  *NameExtractor
	prices *PriceExtractor
	badges *BadgeClassifier
	ids    *IdentifierExtractor
	now    func() time.Time
}

// NewRecordBuilder creates a record builder; now stamps scraped_at and
// defaults to the wall clock in UTC
func NewRecordBuilder(now func() time.Time) *RecordBuilder {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &RecordBuilder{
		names:  NewNameExtractor(),
		prices: NewPriceExtractor(),
		badges: NewBadgeClassifier(),
		ids:    NewIdentifierExtractor(),
		now:    now,
	}
}

// Build transforms one card into a record or a rejection. It never panics
// on card content and never returns an error value outside the result.
func (b *RecordBuilder) Build(card domain.Card, profile *domain.Profile) domain.CardResult {
	name, ok := b.names.Extract(card, profile)
	if !ok {
		return domain.CardResult{Rejection: domain.ErrNoName}
	}

	badges := b.badges.Classify(card, profile)

	price, err := b.prices.Extract(card, profile, badges)
	if err != nil {
		return domain.CardResult{Rejection: err}
	}

	sku, _ := b.ids.Extract(card, profile)

	record := &domain.Record{
		Store:         profile.Store,
		SKU:           sku,
		Name:          name,
		Brand:         b.ids.Brand(card, name, profile),
		SalePrice:     price.SalePrice,
		OriginalPrice: price.OriginalPrice,
		PricePerKg:    price.PricePerKg,
		UnitType:      price.UnitType,
		Saving:        Saving(price.SalePrice, price.OriginalPrice),
		PercentOff:    decimal.Zero,
		Badges:        badges,
		ScrapedAt:     b.now(),
	}
	return domain.CardResult{Record: record}
}

// BuildAll transforms a page of cards into a fresh batch
func (b *RecordBuilder) BuildAll(cards []domain.Card, profile *domain.Profile) Batch {
	batch := Batch{Store: profile.Store}
	b.Collect(&batch, cards, profile)
	return batch
}

// Collect appends the results of more cards to an existing batch
func (b *RecordBuilder) Collect(batch *Batch, cards []domain.Card, profile *domain.Profile) {
	for _, card := range cards {
		batch.Add(b.Build(card, profile))
	}
}

// Saving is max(0, original - sale) rounded to cents
func Saving(sale, original decimal.Decimal) decimal.Decimal {
	saving := original.Sub(sale).Round(2)
	if saving.IsNegative() {
		return decimal.Zero
	}
	return saving
}

// PercentOff is saving over original as a percentage rounded to one place,
// 0 when original is not positive and clamped to [0, 100]
func PercentOff(saving, original decimal.Decimal) decimal.Decimal {
	if !original.IsPositive() {
		return decimal.Zero
	}
	pct := saving.Div(original).Mul(decimal.NewFromInt(100)).Round(1)
	switch {
	case pct.IsNegative():
		return decimal.Zero
	case pct.GreaterThan(decimal.NewFromInt(100)):
		return decimal.NewFromInt(100)
	}
	return pct
}
