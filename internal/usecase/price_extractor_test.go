package usecase

import (
	"testing"

	"github.com/churbro/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceExtractor_Extract(t *testing.T) {
	extractor := NewPriceExtractor()

	tests := []struct {
		name      string
		fragment  string
		profile   *domain.Profile
		badges    []domain.Badge
		sale      string
		original  string
		unit      domain.UnitType
		perKg     string // empty means null
		wantError error
	}{
		{
			name:     "fallback picks the largest unlabeled amount",
			fragment: newWorldPlainCard,
			profile:  NewWorldProfile(),
			sale:     "8.99",
			original: "8.99",
			unit:     domain.UnitEach,
		},
		{
			name:     "sale and strikethrough elements",
			fragment: madButcherSaleCard,
			profile:  MadButcherProfile(),
			sale:     "5.00",
			original: "7.00",
			unit:     domain.UnitEach,
		},
		{
			name:     "club deal figure overrides the each price",
			fragment: newWorldClubCard,
			profile:  NewWorldProfile(),
			badges:   []domain.Badge{BadgeClubDeal},
			sale:     "18.79",
			original: "22.39",
			unit:     domain.UnitEach,
		},
		{
			name:     "club figure is read after the badge, on one line",
			fragment: newWorldClubMultiBuyCard,
			profile:  NewWorldProfile(),
			badges:   []domain.Badge{BadgeClubDeal},
			sale:     "18.79",
			original: "22.39",
			unit:     domain.UnitEach,
		},
		{
			name:     "dotted amount without a unit",
			fragment: newWorldDottedCard,
			profile:  NewWorldProfile(),
			sale:     "8.99",
			original: "8.99",
			unit:     domain.UnitEach,
		},
		{
			name:     "per-kg reference never undercuts a weighed price",
			fragment: newWorldKgCard,
			profile:  NewWorldProfile(),
			badges:   []domain.Badge{BadgeClubDeal},
			sale:     "9.99",
			original: "9.99",
			unit:     domain.UnitKilogram,
			perKg:    "23.49",
		},
		{
			name:     "per-kg figure next to a club badge does not become the each price",
			fragment: newWorldPerKgDecoyCard,
			profile:  NewWorldProfile(),
			badges:   []domain.Badge{BadgeClubDeal},
			sale:     "29.99",
			original: "29.99",
			unit:     domain.UnitEach,
			perKg:    "23.49",
		},
		{
			name:     "club text without the badge is not an override",
			fragment: newWorldClubCard,
			profile:  NewWorldProfile(),
			sale:     "22.39",
			original: "22.39",
			unit:     domain.UnitEach,
		},
		{
			name:     "split dollars and cents with a was price",
			fragment: woolworthsSplitCard,
			profile:  WoolworthsProfile(),
			sale:     "15.50",
			original: "18.00",
			unit:     domain.UnitEach,
		},
		{
			name:     "multi-buy totals are skipped",
			fragment: woolworthsMultiBuyCard,
			profile:  WoolworthsProfile(),
			sale:     "12.50",
			original: "12.50",
			unit:     domain.UnitEach,
		},
		{
			name:     "unit token labels kilogram prices",
			fragment: paknsaveKgCard,
			profile:  PaknSaveProfile(),
			sale:     "12.99",
			original: "12.99",
			unit:     domain.UnitKilogram,
			perKg:    "12.99",
		},
		{
			name:     "kg in the text marks a weighed product",
			fragment: madButcherKgCard,
			profile:  MadButcherProfile(),
			sale:     "24.99",
			original: "24.99",
			unit:     domain.UnitKilogram,
			perKg:    "24.99",
		},
		{
			name:      "no price at all",
			fragment:  `<div data-testid="product-1"><h3>Beef Mince Special</h3><p>Ask in store</p></div>`,
			profile:   NewWorldProfile(),
			wantError: domain.ErrNoUnitPrice,
		},
		{
			name:      "grouped thousands are not read as their last group",
			fragment:  `<div class="product post-88"><h2 class="woocommerce-loop-product__title">Whole Beef Side</h2><span class="price"><bdi>$1,299.00</bdi></span></div>`,
			profile:   MadButcherProfile(),
			wantError: domain.ErrPriceOutOfRange,
		},
		{
			name:      "price above the plausible bound",
			fragment:  `<div data-testid="product-1"><h3>Christmas Hamper</h3><p>750 00 ea</p></div>`,
			profile:   NewWorldProfile(),
			wantError: domain.ErrPriceOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustCard(t, tt.fragment)
			got, err := extractor.Extract(c, tt.profile, tt.badges)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			assertDecimal(t, tt.sale, got.SalePrice, "sale")
			assertDecimal(t, tt.original, got.OriginalPrice, "original")
			assert.Equal(t, tt.unit, got.UnitType)
			if tt.perKg == "" {
				assert.False(t, got.PricePerKg.Valid, "price_per_kg should be null")
			} else {
				require.True(t, got.PricePerKg.Valid, "price_per_kg should be set")
				assertDecimal(t, tt.perKg, got.PricePerKg.Decimal, "price_per_kg")
			}
			assert.True(t, got.SalePrice.LessThanOrEqual(got.OriginalPrice), "sale must not exceed original")
		})
	}
}

func TestPriceExtractor_WasBelowSaleIsIgnored(t *testing.T) {
	c := mustCard(t, `<div class="product-entry">
		<h3>Beef Schnitzel Crumbed</h3>
		<div class="product-price"><em class="price-dollars">15</em><span class="price-cents">50</span></div>
		<span class="was-price">was $12.00</span>
	</div>`)

	got, err := NewPriceExtractor().Extract(c, WoolworthsProfile(), nil)
	require.NoError(t, err)
	assertDecimal(t, "15.50", got.SalePrice)
	assertDecimal(t, "15.50", got.OriginalPrice)
}

func TestPriceExtractor_MultiBuyLocatorIsSkipped(t *testing.T) {
	c := mustCard(t, `<div class="product-entry">
		<h3>Beef Sausages Precooked</h3>
		<div class="product-price">3 for $10.00</div>
		<div class="price">$4.20</div>
	</div>`)

	got, err := NewPriceExtractor().Extract(c, WoolworthsProfile(), nil)
	require.NoError(t, err)
	assertDecimal(t, "4.20", got.SalePrice)
}

func TestPriceExtractor_BoundsAreInclusive(t *testing.T) {
	profile := NewWorldProfile()
	c := mustCard(t, `<div data-testid="product-1"><h3>Gourmet Hamper</h3><p>500 00 ea</p></div>`)

	got, err := NewPriceExtractor().Extract(c, profile, nil)
	require.NoError(t, err)
	assertDecimal(t, "500.00", got.SalePrice)
}

func TestScanTokens(t *testing.T) {
	t.Run("digit boundaries", func(t *testing.T) {
		tokens := scanTokens(amountPattern, "code 123456.789 then $4.50")
		require.Len(t, tokens, 1)
		assertDecimal(t, "4.50", tokens[0].value)
	})

	t.Run("unit group", func(t *testing.T) {
		tokens := scanTokens(paknsaveUnit, "8.99 EA and 12 50 kg")
		require.Len(t, tokens, 2)
		assert.Equal(t, "ea", tokens[0].unit)
		assert.Equal(t, "kg", tokens[1].unit)
		assertDecimal(t, "12.50", tokens[1].value)
	})

	t.Run("grouped thousands", func(t *testing.T) {
		tokens := scanTokens(amountPattern, "$1,299.00 or $12.50")
		require.Len(t, tokens, 2)
		assertDecimal(t, "1299.00", tokens[0].value)
		assertDecimal(t, "12.50", tokens[1].value)

		value, ok := firstAmount("was $2,450.99")
		require.True(t, ok)
		assertDecimal(t, "2450.99", value)
	})

	t.Run("tail of a grouped number", func(t *testing.T) {
		assert.Empty(t, scanTokens(foodstuffsGeneric, "1,299.00"))
	})

	t.Run("spaced badge figure stays on one line", func(t *testing.T) {
		tokens := scanTokens(badgeSpaced, "Save 2 100\n18 79")
		require.Len(t, tokens, 1)
		assertDecimal(t, "18.79", tokens[0].value)
	})

	t.Run("nil pattern", func(t *testing.T) {
		assert.Empty(t, scanTokens(nil, "8.99"))
	})
}

func TestPickCandidate(t *testing.T) {
	cands := candidates([]priceToken{{value: dec("4.00")}, {value: dec("2.50")}, {value: dec("9.10")}}, domain.CandidateUnlabeled, "test")

	tests := []struct {
		policy domain.PickPolicy
		want   string
	}{
		{domain.PickFirst, "4.00"},
		{"", "4.00"},
		{domain.PickLast, "9.10"},
		{domain.PickMin, "2.50"},
		{domain.PickMax, "9.10"},
	}
	for _, tt := range tests {
		got, ok := pickCandidate(cands, tt.policy)
		require.True(t, ok)
		assertDecimal(t, tt.want, got.Value, tt.policy)
	}

	_, ok := pickCandidate(nil, domain.PickMin)
	assert.False(t, ok)
}

func TestBadgeAdjacent(t *testing.T) {
	rules := NewWorldProfile().Price

	t.Run("dotted figure first", func(t *testing.T) {
		v, ok := badgeAdjacent("12 00\nClub Deal $23.49/1kg\n29 99 ea", rules)
		require.True(t, ok)
		assertDecimal(t, "23.49", v)
	})

	t.Run("figures before the keyword are ignored", func(t *testing.T) {
		_, ok := badgeAdjacent("18 79\nClub Deal", rules)
		assert.False(t, ok)
	})

	t.Run("no keyword", func(t *testing.T) {
		_, ok := badgeAdjacent("18 79\n22 39 ea", rules)
		assert.False(t, ok)
	})
}

func TestPerKgReferences(t *testing.T) {
	refs := perKgReferences("Club Deal $23.49/1kg\n29 99 ea", NewWorldProfile().Price)
	require.Len(t, refs, 1)
	assertDecimal(t, "23.49", refs[0].Value)
	assert.Equal(t, domain.CandidatePerKgReference, refs[0].Unit)
	assert.Equal(t, "per-kg-reference", refs[0].Unit.String())
	assert.Equal(t, "per-kg", refs[0].Source)

	assert.True(t, newAmountSet(refs).contains(dec("23.490")))
}
