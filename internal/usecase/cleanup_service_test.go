package usecase

import (
	"testing"

	"github.com/churbro/backend/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(store, name, sale, original string, badges ...domain.Badge) domain.Record {
	return domain.Record{
		Store:         store,
		Name:          name,
		SalePrice:     dec(sale),
		OriginalPrice: dec(original),
		UnitType:      domain.UnitEach,
		Badges:        badges,
		ScrapedAt:     fixedNow,
	}
}

func TestCleaner_Clean(t *testing.T) {
	cleaner := NewCleaner()

	t.Run("thresholds and names", func(t *testing.T) {
		profile := NewWorldProfile()
		input := []domain.Record{
			record(StoreNewWorld, "Beef Mince 500g", "8.99", "8.99"),
			record(StoreNewWorld, "Chicken Drumsticks", "2.99", "2.99"),
			record(StoreNewWorld, "Lamb Chops", "3.50", "4.00"),
			record(StoreNewWorld, "View more", "12.00", "12.00"),
		}

		result := cleaner.Clean(input, profile)
		assert.Equal(t, domain.CleanStats{Input: 4, BelowMinPrice: 1, InvalidName: 1, Kept: 2}, result.Stats)
		require.Len(t, result.Records, 2)
		assert.Equal(t, "Beef Mince 500g", result.Records[0].Name)
		assert.Equal(t, "Lamb Chops", result.Records[1].Name)
		assertDecimal(t, "0.50", result.Records[1].Saving)
		assertDecimal(t, "12.5", result.Records[1].PercentOff)
	})

	t.Run("sale badge above the saving threshold", func(t *testing.T) {
		profile := MadButcherProfile()
		input := []domain.Record{
			record(StoreMadButcher, "Beef Rump Steak", "5.00", "7.00"),
			record(StoreMadButcher, "Pork Loin Chops", "9.60", "10.00"),
		}

		result := cleaner.Clean(input, profile)
		require.Len(t, result.Records, 2)

		onSale := result.Records[0]
		assertDecimal(t, "2.00", onSale.Saving)
		assertDecimal(t, "28.6", onSale.PercentOff)
		assert.Equal(t, []domain.Badge{BadgeOnSale}, onSale.Badges)
		assert.Equal(t, "Sale", onSale.DealType)

		small := result.Records[1]
		assert.Empty(t, small.Badges)
		assert.Equal(t, "", small.DealType)
	})

	t.Run("input is not modified", func(t *testing.T) {
		profile := MadButcherProfile()
		input := []domain.Record{record(StoreMadButcher, "Beef Rump Steak", "5.00", "7.00")}
		cleaner.Clean(input, profile)
		assert.Empty(t, input[0].Badges)
		assert.True(t, input[0].Saving.IsZero())
	})

	t.Run("cleaned records satisfy the price invariants", func(t *testing.T) {
		profile := NewWorldProfile()
		input := []domain.Record{
			record(StoreNewWorld, "Beef Mince 500g", "8.99", "12.49", BadgeClubDeal),
			record(StoreNewWorld, "Lamb Leg Roast", "18.79", "18.79"),
		}
		for _, r := range cleaner.Clean(input, profile).Records {
			assert.True(t, r.SalePrice.GreaterThanOrEqual(profile.Cleanup.MinPrice))
			assert.True(t, r.Saving.Equal(r.OriginalPrice.Sub(r.SalePrice).Round(2)))
			assert.True(t, r.PercentOff.GreaterThanOrEqual(dec("0")) && r.PercentOff.LessThanOrEqual(dec("100")))
		}
	})
}

func TestRecompute_Idempotent(t *testing.T) {
	profiles := []*domain.Profile{NewWorldProfile(), MadButcherProfile()}
	for _, profile := range profiles {
		in := record(profile.Store, "Beef Rump Steak", "5.00", "7.00", BadgeSuperSaver, BadgeClubDeal)
		once := Recompute(in, profile)
		twice := Recompute(once, profile)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("%s: recompute not idempotent (-once +twice):\n%s", profile.Store, diff)
		}
	}
}

func TestDealType(t *testing.T) {
	profile := NewWorldProfile()

	r := Recompute(record(StoreNewWorld, "Beef Mince 500g", "8.99", "8.99", BadgeSuperSaver, BadgeClubDeal, BadgeClubDeal), profile)
	assert.Equal(t, []domain.Badge{BadgeClubDeal, BadgeSuperSaver}, r.Badges)
	assert.Equal(t, "Club Deal, Super Saver", r.DealType)

	assert.Equal(t, "", DealType(nil, profile))
	assert.Equal(t, "mystery", DealType([]domain.Badge{"mystery"}, profile))
}
