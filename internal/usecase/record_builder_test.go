package usecase

import (
	"testing"
	"time"

	"github.com/churbro/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 17, 6, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestRecordBuilder_Build(t *testing.T) {
	builder := NewRecordBuilder(fixedClock)

	t.Run("accepted card", func(t *testing.T) {
		result := builder.Build(mustCard(t, newWorldClubCard), NewWorldProfile())
		require.True(t, result.Accepted())

		r := result.Record
		assert.Equal(t, StoreNewWorld, r.Store)
		assert.Equal(t, "5002", r.SKU)
		assert.Equal(t, "Lamb Leg Roast", r.Name)
		assertDecimal(t, "18.79", r.SalePrice)
		assertDecimal(t, "22.39", r.OriginalPrice)
		assertDecimal(t, "3.60", r.Saving)
		assertDecimal(t, "0", r.PercentOff)
		assert.Equal(t, []domain.Badge{BadgeClubDeal}, r.Badges)
		assert.Equal(t, fixedNow, r.ScrapedAt)
	})

	t.Run("dotted price without a badge", func(t *testing.T) {
		result := builder.Build(mustCard(t, newWorldDottedCard), NewWorldProfile())
		require.True(t, result.Accepted())

		r := result.Record
		assert.Equal(t, "Beef Mince 500g", r.Name)
		assertDecimal(t, "8.99", r.SalePrice)
		assertDecimal(t, "8.99", r.OriginalPrice)
		assert.Equal(t, domain.UnitEach, r.UnitType)
		assertDecimal(t, "0", r.Saving)
		assert.Empty(t, r.Badges)
		assert.False(t, r.PricePerKg.Valid)
	})

	t.Run("fixed brand and weighed unit", func(t *testing.T) {
		result := builder.Build(mustCard(t, madButcherKgCard), MadButcherProfile())
		require.True(t, result.Accepted())
		assert.Equal(t, "Mad Butcher", result.Record.Brand)
		assert.Equal(t, domain.UnitKilogram, result.Record.UnitType)
		assert.Equal(t, "77", result.Record.SKU)
	})

	t.Run("missing name", func(t *testing.T) {
		result := builder.Build(mustCard(t, `<div data-testid="product-1"><p>8 99 ea</p></div>`), NewWorldProfile())
		assert.False(t, result.Accepted())
		assert.ErrorIs(t, result.Rejection, domain.ErrNoName)
	})

	t.Run("missing price", func(t *testing.T) {
		result := builder.Build(mustCard(t, `<div data-testid="product-1"><h3>Beef Mince Special</h3></div>`), NewWorldProfile())
		assert.ErrorIs(t, result.Rejection, domain.ErrNoUnitPrice)
	})
}

func TestRecordBuilder_BuildAll(t *testing.T) {
	builder := NewRecordBuilder(fixedClock)
	profile := NewWorldProfile()

	cards := []domain.Card{
		mustCard(t, newWorldPlainCard),
		mustCard(t, `<div data-testid="product-1"><p>8 99 ea</p></div>`),
		mustCard(t, newWorldClubCard),
		mustCard(t, `<div data-testid="product-2"><h3>Christmas Hamper</h3><p>750 00 ea</p></div>`),
		mustCard(t, `<div data-testid="product-3"><h3>Beef Mince Special</h3></div>`),
	}

	batch := builder.BuildAll(cards, profile)
	assert.Equal(t, StoreNewWorld, batch.Store)
	assert.Equal(t, 5, batch.Stats.Cards)
	assert.Equal(t, 2, batch.Stats.Accepted)
	assert.Equal(t, map[string]int{"no_name": 1, "price_out_of_range": 1, "no_price": 1}, batch.Stats.Rejected)
	assert.Equal(t, batch.Stats.Cards, batch.Stats.Accepted+batch.Stats.RejectedTotal())

	require.Len(t, batch.Records, 2)
	assert.Equal(t, "Beef Mince 500g", batch.Records[0].Name)
	assert.Equal(t, "Lamb Leg Roast", batch.Records[1].Name)

	builder.Collect(&batch, cards[:1], profile)
	assert.Equal(t, 6, batch.Stats.Cards)
	assert.Len(t, batch.Records, 3)
}

func TestSavingAndPercentOff(t *testing.T) {
	tests := []struct {
		sale, original  string
		saving, percent string
	}{
		{"5.00", "7.00", "2.00", "28.6"},
		{"8.99", "8.99", "0", "0"},
		{"9.00", "7.00", "0", "0"},
		{"0.00", "4.00", "4.00", "100"},
		{"1.00", "0", "0", "0"},
	}
	for _, tt := range tests {
		saving := Saving(dec(tt.sale), dec(tt.original))
		assertDecimal(t, tt.saving, saving, tt.sale, tt.original)
		assertDecimal(t, tt.percent, PercentOff(saving, dec(tt.original)), tt.sale, tt.original)
	}
}
