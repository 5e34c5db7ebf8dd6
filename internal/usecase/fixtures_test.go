package usecase

import (
	"testing"

	"github.com/churbro/backend/internal/domain"
	"github.com/churbro/backend/internal/infrastructure/card"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// mustCard parses an HTML fragment into a card
func mustCard(t *testing.T, fragment string) domain.Card {
	t.Helper()
	c, err := card.Parse(fragment)
	require.NoError(t, err)
	return c
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// assertDecimal compares decimals by value so 5 and 5.00 are equal
func assertDecimal(t *testing.T, want string, got decimal.Decimal, msg ...interface{}) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("got %s, want %s %v", got, want, msg)
	}
}

const (
	newWorldPlainCard = `<div data-testid="product-5001">
		<h3>Beef Mince 500g</h3>
		<p>8 99</p>
		<p>$1.80/100g</p>
	</div>`

	newWorldDottedCard = `<div data-testid="product-5006">
		<h3>Beef Mince 500g</h3>
		<p>$8.99</p>
	</div>`

	newWorldClubMultiBuyCard = `<div data-testid="product-5007">
		<h3>Lamb Leg Roast</h3>
		<p>Club Deal</p>
		<p>Save 2 100</p>
		<p>18 79</p>
		<p>22 39 ea</p>
		<p>12 00</p>
	</div>`

	newWorldClubCard = `<div data-testid="product-5002">
		<h3>Lamb Leg Roast</h3>
		<p>Club Deal</p>
		<p>18 79</p>
		<p>22 39 ea</p>
	</div>`

	newWorldKgCard = `<div data-testid="product-5003">
		<h3>Pork Belly Roast</h3>
		<p>Club Deal</p>
		<p>$23.49 / 1kg</p>
		<p>9 99 kg</p>
	</div>`

	newWorldPerKgDecoyCard = `<div data-testid="product-5004">
		<h3>Beef Rib Eye Steak</h3>
		<p>Club Deal $23.49/1kg</p>
		<p>29 99 ea</p>
	</div>`

	madButcherSaleCard = `<div class="product post-123 type-product">
		<a class="woocommerce-LoopProduct-link" href="https://madbutcher.co.nz/product/rump">
			<h2 class="woocommerce-loop-product__title">Beef Rump Steak</h2>
		</a>
		<span class="price">
			<del><span class="woocommerce-Price-amount amount"><bdi>$7.00</bdi></span></del>
			<ins><span class="woocommerce-Price-amount amount"><bdi>$5.00</bdi></span></ins>
		</span>
	</div>`

	madButcherKgCard = `<div class="product post-77">
		<h2 class="woocommerce-loop-product__title">Beef Porterhouse per kg</h2>
		<span class="price"><bdi>$24.99</bdi></span>
	</div>`

	woolworthsSplitCard = `<div class="product-entry">
		<h3>Woolworths Beef Mince 1kg</h3>
		<div class="product-price"><em class="price-dollars">15</em><span class="price-cents">50</span></div>
		<span class="was-price">was $18.00</span>
		<a href="/shop/product/281764/beef-mince">View</a>
	</div>`

	woolworthsMultiBuyCard = `<div class="product-entry">
		<h3>Chicken Breast Fillets</h3>
		<p>2 for $20.00</p>
		<p>$12.50</p>
	</div>`

	paknsaveKgCard = `<div data-testid="product-5039965-KGM-000">
		<div data-testid="product-title">Pork Shoulder Roast</div>
		<p data-testid="product-subtitle">Fresh</p>
		<p>12 99 kg</p>
	</div>`
)
