package usecase

import (
	"fmt"
	"regexp"

	"github.com/churbro/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Store keys of the built-in profiles
const (
	StoreNewWorld   = "newworld"
	StorePaknSave   = "paknsave"
	StoreWoolworths = "woolworths"
	StoreMadButcher = "madbutcher"
)

// DefaultStoreOrder is the fixed order stores appear in the merged dataset
var DefaultStoreOrder = []string{StoreNewWorld, StorePaknSave, StoreWoolworths, StoreMadButcher}

// Badge tags of the built-in vocabularies
const (
	BadgeClubDeal    domain.Badge = "club-deal"
	BadgeSuperSaver  domain.Badge = "super-saver"
	BadgeEverydayLow domain.Badge = "everyday-low"
	BadgeExtraLow    domain.Badge = "extra-low"
	BadgeSuperDeal   domain.Badge = "super-deal"
	BadgeClubPrice   domain.Badge = "club-price"
	BadgeOnSpecial   domain.Badge = "on-special"
	BadgeOnSale      domain.Badge = "on-sale"
)

var (
	headingLocators = []string{"h3", "h2", "h1", "h4"}

	foodstuffsCallToAction = []string{"add", "view", "cart", "more", "details", "shop", "buy"}

	foodstuffsEach    = regexp.MustCompile(`(?i)(?P<d>\d{1,3})[.,\s]*(?P<c>\d{2})\s*(?:ea|each)\b`)
	foodstuffsKg      = regexp.MustCompile(`(?i)(?P<d>\d{1,3})[.,\s]*(?P<c>\d{2})\s*kg\b`)
	foodstuffsPerKg   = regexp.MustCompile(`(?i)\$?\s*(?P<d>\d{1,3})[.,\s]*(?P<c>\d{2})\s*/\s*(?:1\s*)?kg\b`)
	foodstuffsGeneric = regexp.MustCompile(`(?P<d>\d{1,3})[.,\s]+(?P<c>\d{2})`)

	// badge figures are read after the keyword; a spaced figure never spans lines
	clubDealKeyword = regexp.MustCompile(`(?i)club\s*deal`)
	badgeDotted     = regexp.MustCompile(`\$?\s*(?P<d>\d{1,3})\.(?P<c>\d{2})`)
	badgeSpaced     = regexp.MustCompile(`(?P<d>\d{1,3})[, \t]+(?P<c>\d{2})`)

	paknsaveUnit     = regexp.MustCompile(`(?i)(?P<d>\d+)[.,\s]*(?P<c>\d{2})\s*(?P<u>ea|kg|each)\b`)
	paknsavePerKg    = regexp.MustCompile(`(?i)\$?\s*(?P<d>\d+)[.,]?(?P<c>\d{2})\s*/\s*(?:1\s*)?kg\b`)
	paknsaveFallback = regexp.MustCompile(groupedDollars + `\.(?P<c>\d{2})`)

	woolworthsDollar = regexp.MustCompile(`\$` + groupedDollars + `\.(?P<c>\d{2})`)
	woolworthsWas    = regexp.MustCompile(`(?i)was\s+\$` + groupedDollars + `\.(?P<c>\d{2})`)
	woolworthsURL    = regexp.MustCompile(`/product/(\d+)`)

	madButcherDollar = regexp.MustCompile(`\$\s*` + groupedDollars + `\.(?P<c>\d{2})`)
	madButcherPost   = regexp.MustCompile(`\bpost-(\d+)\b`)
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// canonicalColumns builds the common column list, renaming the fields given in rename
func canonicalColumns(rename map[domain.Field]string, omit ...domain.Field) []domain.Column {
	skip := make(map[domain.Field]bool, len(omit))
	for _, f := range omit {
		skip[f] = true
	}
	var cols []domain.Column
	for _, f := range domain.MasterFields {
		if skip[f] {
			continue
		}
		name := string(f)
		if renamed, ok := rename[f]; ok {
			name = renamed
		}
		cols = append(cols, domain.Column{Name: name, Field: f})
	}
	return cols
}

// NewWorldProfile covers Foodstuffs "New World" listing cards
func NewWorldProfile() *domain.Profile {
	nameRules := domain.NameRules{
		MinLength:    6,
		CallToAction: foodstuffsCallToAction,
	}
	return &domain.Profile{
		Store:        StoreNewWorld,
		DisplayName:  "New World",
		CardSelector: `[data-testid*="product"]`,
		NameStrategies: []domain.NameStrategy{
			{Kind: domain.NameFromAnchors, Locators: []string{"a"}},
			{Kind: domain.NameFromLocator, Locators: headingLocators},
			{Kind: domain.NameFromLocator, Locators: []string{`[class*="name"]`, `[class*="title"]`}},
		},
		Name: nameRules,
		Price: domain.PriceRules{
			Strategies:     []domain.PriceStrategy{domain.StrategyEachToken, domain.StrategyKgToken, domain.StrategyFallback},
			TokenPick:      domain.PickLast,
			EachPattern:    foodstuffsEach,
			KgPattern:      foodstuffsKg,
			PerKgPattern:   foodstuffsPerKg,
			GenericPattern: foodstuffsGeneric,

			FallbackPattern: foodstuffsGeneric,
			FallbackPolicy:  domain.PickMax,

			MinPrice: money("0.50"),
			MaxPrice: money("500.00"),

			OverrideBadges: []domain.Badge{BadgeClubDeal},
			OverridePolicy: domain.PickMin,

			BadgeKeyword:          clubDealKeyword,
			BadgeAdjacentPatterns: []*regexp.Regexp{badgeDotted, badgeSpaced},
		},
		Badges: []domain.BadgeRule{
			{
				Tag:          BadgeClubDeal,
				Label:        "Club Deal",
				Phrases:      []string{"club deal", "clubdeal"},
				Words:        []string{"club"},
				IconKeywords: []string{"club"},
				AttrKeywords: []string{"club"},
			},
			{
				Tag:          BadgeSuperSaver,
				Label:        "Super Saver",
				Phrases:      []string{"super saver", "supersaver"},
				AllWords:     []string{"super", "saver"},
				IconKeywords: []string{"supersaver", "super-saver", "super saver", "saver"},
				AttrKeywords: []string{"super saver", "supersaver", "saver"},
			},
		},
		Identifier: domain.IdentifierRules{
			Attributes: []string{"data-stockcode", "data-sku", "data-product-id", "data-testid"},
		},
		Brand: domain.BrandRules{
			Locators: []string{`[class*="brand"]`, `[class*="Brand"]`},
		},
		Cleanup: domain.CleanupRules{
			MinPrice: money("3.50"),
			Name:     nameRules,
		},
		Schema: domain.StoreSchema{
			DisplayName: "New World",
			Columns:     canonicalColumns(map[domain.Field]string{domain.FieldPrice: "sale_price"}),
			BadgeColumns: []domain.BadgeColumn{
				{Name: "is_club_deal", Badge: BadgeClubDeal},
				{Name: "is_super_saver", Badge: BadgeSuperSaver},
			},
		},
		Fetch: domain.FetchRules{
			BaseURL:   "https://www.newworld.co.nz/shop/category/meat-poultry-and-seafood?store=dunedin",
			PageParam: "pg",
			MaxPages:  20,
		},
	}
}

// PaknSaveProfile covers Foodstuffs "PAK'nSAVE" listing cards
func PaknSaveProfile() *domain.Profile {
	nameRules := domain.NameRules{
		MinLength:    6,
		CallToAction: foodstuffsCallToAction,
	}
	return &domain.Profile{
		Store:        StorePaknSave,
		DisplayName:  "PAK'nSAVE",
		CardSelector: `[data-testid^="product-"]`,
		NameStrategies: []domain.NameStrategy{
			{Kind: domain.NameFromLocator, Locators: append([]string{`[data-testid="product-title"]`}, headingLocators...)},
			{Kind: domain.NameFromAnchors, Locators: []string{"a"}},
		},
		Name: nameRules,
		Price: domain.PriceRules{
			Strategies:   []domain.PriceStrategy{domain.StrategyUnitToken, domain.StrategyFallback},
			TokenPick:    domain.PickFirst,
			UnitPattern:  paknsaveUnit,
			PerKgPattern: paknsavePerKg,

			FallbackPattern: paknsaveFallback,
			FallbackPolicy:  domain.PickFirst,

			MinPrice: money("0.50"),
			MaxPrice: money("500.00"),
		},
		Badges: []domain.BadgeRule{
			{
				Tag:          BadgeEverydayLow,
				Label:        "Everyday Low",
				Phrases:      []string{"everyday low"},
				IconKeywords: []string{"everyday"},
				AttrKeywords: []string{"4701", "everyday low"},
			},
			{
				Tag:          BadgeExtraLow,
				Label:        "Extra Low",
				Phrases:      []string{"extra low"},
				IconKeywords: []string{"extra-low", "extralow"},
				AttrKeywords: []string{"6000", "extra low"},
			},
			{
				Tag:          BadgeSuperDeal,
				Label:        "Super Deal",
				Phrases:      []string{"super deal"},
				AllWords:     []string{"super", "deal"},
				AttrKeywords: []string{"super deal"},
			},
		},
		Identifier: domain.IdentifierRules{
			Attributes: []string{"data-testid", "data-product-id", "data-sku"},
		},
		Brand: domain.BrandRules{
			Locators: []string{`[data-testid="product-subtitle"]`, `[class*="brand"]`},
		},
		Cleanup: domain.CleanupRules{
			MinPrice: money("5.00"),
			Name:     nameRules,
		},
		Schema: domain.StoreSchema{
			DisplayName: "PAK'nSAVE",
			Columns: canonicalColumns(map[domain.Field]string{
				domain.FieldSKU:           "product_id",
				domain.FieldOriginalPrice: "promo_price",
				domain.FieldDealType:      "badge_type",
			}),
			BadgeColumns: []domain.BadgeColumn{
				{Name: "is_everyday_low", Badge: BadgeEverydayLow},
				{Name: "is_extra_low", Badge: BadgeExtraLow},
				{Name: "is_super_deal", Badge: BadgeSuperDeal},
			},
		},
		Fetch: domain.FetchRules{
			BaseURL:   "https://www.paknsave.co.nz/shop/category/meat-poultry-and-seafood?store=dunedin",
			PageParam: "pg",
			MaxPages:  20,
		},
	}
}

// WoolworthsProfile covers Woolworths NZ ".product-entry" cards
func WoolworthsProfile() *domain.Profile {
	nameRules := domain.NameRules{MinLength: 10}
	return &domain.Profile{
		Store:        StoreWoolworths,
		DisplayName:  "Woolworths",
		CardSelector: ".product-entry",
		NameStrategies: []domain.NameStrategy{
			{Kind: domain.NameFromLocator, Locators: headingLocators},
			{Kind: domain.NameFromLines, Locators: []string{`a[class*="product"]`}},
			{Kind: domain.NameFromAttribute, Attribute: "aria-label"},
			{Kind: domain.NameFromAttribute, Attribute: "title"},
		},
		Name: nameRules,
		Price: domain.PriceRules{
			Strategies:      []domain.PriceStrategy{domain.StrategySplitElements, domain.StrategyLocator, domain.StrategyFallback},
			DollarsLocators: []string{".price-dollars", `[class*="price-dollar"]`},
			CentsLocators:   []string{".price-cents", `[class*="price-cent"]`},
			PriceLocators:   []string{`[class*="product-price"]`, `[class*="current-price"]`, ".price"},

			FallbackPattern: woolworthsDollar,
			FallbackPolicy:  domain.PickMin,
			FallbackCeiling: decimal.NewNullDecimal(money("100.00")),
			MultiBuyGuard:   true,

			WasPattern:       woolworthsWas,
			OriginalLocators: []string{`[class*="was"]`, `[class*="crossed"]`, `[class*="original"]`, "del", "s"},

			MinPrice: money("1.00"),
			MaxPrice: money("500.00"),
		},
		Badges: []domain.BadgeRule{
			{
				Tag:          BadgeClubPrice,
				Label:        "Club Price",
				Phrases:      []string{"club price", "clubprice"},
				IconKeywords: []string{"club"},
				AttrKeywords: []string{"club price", "clubprice"},
			},
			{
				Tag:          BadgeOnSpecial,
				Label:        "On Special",
				Phrases:      []string{"on special", "special price"},
				Words:        []string{"special"},
				IconKeywords: []string{"special"},
				AttrKeywords: []string{"special"},
			},
		},
		Identifier: domain.IdentifierRules{
			Attributes: []string{"data-stockcode", "data-sku", "data-product-id", "stockcode"},
			URLPattern: woolworthsURL,
		},
		Brand: domain.BrandRules{
			HouseBrands: map[string]string{"woolworths": "Woolworths"},
		},
		Cleanup: domain.CleanupRules{
			MinPrice: money("5.00"),
			Name:     nameRules,
		},
		Schema: domain.StoreSchema{
			DisplayName: "Woolworths",
			Columns: canonicalColumns(
				map[domain.Field]string{domain.FieldPrice: "sale_price"},
				domain.FieldPricePerKg, domain.FieldUnitType,
			),
			BadgeColumns: []domain.BadgeColumn{
				{Name: "is_club_price", Badge: BadgeClubPrice},
				{Name: "is_on_special", Badge: BadgeOnSpecial},
			},
			Defaults: map[domain.Field]string{domain.FieldUnitType: string(domain.UnitEach)},
		},
		Fetch: domain.FetchRules{
			BaseURL:   "https://www.woolworths.co.nz/shop/browse/meat-poultry",
			PageParam: "page",
			MaxPages:  20,
		},
	}
}

// MadButcherProfile covers the Mad Butcher WooCommerce shop
func MadButcherProfile() *domain.Profile {
	return &domain.Profile{
		Store:        StoreMadButcher,
		DisplayName:  "Mad Butcher",
		CardSelector: ".product, .type-product, li.product-type-simple, li.product",
		NameStrategies: []domain.NameStrategy{
			{Kind: domain.NameFromLocator, Locators: []string{".woocommerce-loop-product__title", "h2", "h3", ".product-title"}},
			{Kind: domain.NameFromLines, Locators: []string{"a.woocommerce-LoopProduct-link", `a[href*="product"]`}},
			{Kind: domain.NameFromAnchors, Locators: []string{"a"}},
		},
		Name: domain.NameRules{
			MinLength: 5,
			Denylist: []string{
				"christmas hours", "opening hours", "holiday hours", "specials!", "specials",
				"closed", "contact us", "add to cart", "select options", "view details", "shop now",
			},
			RejectShortExclaim: true,
		},
		Price: domain.PriceRules{
			Strategies:    []domain.PriceStrategy{domain.StrategyLocator, domain.StrategyFallback},
			SaleLocators:  []string{".price ins bdi", ".price ins .woocommerce-Price-amount"},
			PriceLocators: []string{".price bdi", ".price .woocommerce-Price-amount"},

			FallbackPattern: madButcherDollar,
			FallbackPolicy:  domain.PickFirst,

			OriginalLocators:   []string{".price del bdi", ".price del .woocommerce-Price-amount"},
			KgTextMarksWeighed: true,

			MinPrice: money("1.00"),
			MaxPrice: money("500.00"),
		},
		Badges: []domain.BadgeRule{
			{
				Tag:     BadgeOnSale,
				Label:   "Sale",
				Phrases: []string{"sale!"},
			},
		},
		Identifier: domain.IdentifierRules{
			Attributes:   []string{"data-product-id", "data-product_id", "data-id"},
			ClassPattern: madButcherPost,
		},
		Brand: domain.BrandRules{Fixed: "Mad Butcher"},
		Cleanup: domain.CleanupRules{
			MinPrice: money("0.50"),
			Name: domain.NameRules{
				MinLength: 10,
				Denylist:  []string{"specials", "christmas", "hours", "closed", "contact"},
			},
			SaleBadge:          BadgeOnSale,
			SaleBadgeMinSaving: decimal.NewNullDecimal(money("0.50")),
		},
		Schema: domain.StoreSchema{
			DisplayName: "Mad Butcher",
			Columns:     canonicalColumns(map[domain.Field]string{domain.FieldDealType: "badge_type"}),
			BadgeColumns: []domain.BadgeColumn{
				{Name: "is_on_sale", Badge: BadgeOnSale},
			},
		},
		Fetch: domain.FetchRules{
			BaseURL:   "https://madbutcher.co.nz/dunedin/",
			PageParam: "product-page",
			MaxPages:  20,
		},
	}
}

// ProfileOverride carries configured adjustments to a built-in profile.
// Zero values leave the built-in setting untouched.
type ProfileOverride struct {
	BaseURL   string
	PageParam string
	MaxPages  int
	MinPrice  decimal.NullDecimal // cleanup threshold
	PriceMin  decimal.NullDecimal // extraction lower bound
	PriceMax  decimal.NullDecimal // extraction upper bound
}

// ProfileRegistry resolves store keys to extraction profiles
type ProfileRegistry struct {
	profiles map[string]*domain.Profile
	order    []string
}

// NewProfileRegistry creates a registry of the built-in profiles restricted to
// the given store order; an empty order selects every built-in store
func NewProfileRegistry(order []string) (*ProfileRegistry, error) {
	builtin := map[string]*domain.Profile{
		StoreNewWorld:   NewWorldProfile(),
		StorePaknSave:   PaknSaveProfile(),
		StoreWoolworths: WoolworthsProfile(),
		StoreMadButcher: MadButcherProfile(),
	}
	if len(order) == 0 {
		order = DefaultStoreOrder
	}

	r := &ProfileRegistry{profiles: make(map[string]*domain.Profile, len(order))}
	for _, store := range order {
		p, ok := builtin[store]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownStore, store)
		}
		if _, dup := r.profiles[store]; dup {
			continue
		}
		r.profiles[store] = p
		r.order = append(r.order, store)
	}
	return r, nil
}

// Get returns the profile of a store
func (r *ProfileRegistry) Get(store string) (*domain.Profile, error) {
	p, ok := r.profiles[store]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownStore, store)
	}
	return p, nil
}

// Stores returns the registered store keys in merge order
func (r *ProfileRegistry) Stores() []string {
	return append([]string(nil), r.order...)
}

// Ordered returns the registered profiles in merge order
func (r *ProfileRegistry) Ordered() []*domain.Profile {
	out := make([]*domain.Profile, 0, len(r.order))
	for _, store := range r.order {
		out = append(out, r.profiles[store])
	}
	return out
}

// Override applies configured adjustments to one store's profile
func (r *ProfileRegistry) Override(store string, o ProfileOverride) error {
	p, err := r.Get(store)
	if err != nil {
		return err
	}
	if o.BaseURL != "" {
		p.Fetch.BaseURL = o.BaseURL
	}
	if o.PageParam != "" {
		p.Fetch.PageParam = o.PageParam
	}
	if o.MaxPages > 0 {
		p.Fetch.MaxPages = o.MaxPages
	}
	if o.MinPrice.Valid {
		p.Cleanup.MinPrice = o.MinPrice.Decimal
	}
	if o.PriceMin.Valid {
		p.Price.MinPrice = o.PriceMin.Decimal
	}
	if o.PriceMax.Valid {
		p.Price.MaxPrice = o.PriceMax.Decimal
	}
	if p.Price.MinPrice.GreaterThan(p.Price.MaxPrice) {
		return fmt.Errorf("store %s: price bounds %s..%s are inverted", store, p.Price.MinPrice, p.Price.MaxPrice)
	}
	return nil
}
