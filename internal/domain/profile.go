package domain

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// NameStrategyKind selects how a name candidate is read from a card
type NameStrategyKind int

const (
	// NameFromLocator reads the first element matching the locators
	NameFromLocator NameStrategyKind = iota
	// NameFromLines reads the first matching element and tries each rendered line
	NameFromLines
	// NameFromAnchors iterates every element matching the locator
	NameFromAnchors
	// NameFromAttribute reads an attribute of the card itself
	NameFromAttribute
)

// NameStrategy is one step of the ordered name lookup
type NameStrategy struct {
	Kind      NameStrategyKind
	Locators  []string
	Attribute string
}

// NameRules is the validity predicate applied to name candidates
type NameRules struct {
	MinLength          int
	Denylist           []string // boilerplate phrases, case-insensitive substring
	CallToAction       []string // whole words such as "add" or "view"
	RejectShortExclaim bool     // reject "Specials!"-style short shouts
}

// PriceStrategy names one primary unit price strategy
type PriceStrategy string

const (
	StrategyEachToken     PriceStrategy = "each-token"
	StrategyKgToken       PriceStrategy = "kg-token"
	StrategyUnitToken     PriceStrategy = "unit-token"
	StrategySplitElements PriceStrategy = "split-elements"
	StrategyLocator       PriceStrategy = "locator"
	StrategyFallback      PriceStrategy = "fallback"
)

// PickPolicy chooses one value out of several candidates
type PickPolicy string

const (
	PickFirst PickPolicy = "first"
	PickLast  PickPolicy = "last"
	PickMin   PickPolicy = "min"
	PickMax   PickPolicy = "max"
)

// PriceRules parameterizes the price disambiguator for one store
type PriceRules struct {
	Strategies []PriceStrategy
	TokenPick  PickPolicy

	EachPattern    *regexp.Regexp
	KgPattern      *regexp.Regexp
	UnitPattern    *regexp.Regexp // each or kg, unit captured in group u
	PerKgPattern   *regexp.Regexp
	GenericPattern *regexp.Regexp

	FallbackPattern *regexp.Regexp
	FallbackPolicy  PickPolicy
	FallbackCeiling decimal.NullDecimal

	DollarsLocators []string
	CentsLocators   []string
	SaleLocators    []string
	PriceLocators   []string

	OriginalLocators []string
	WasPattern       *regexp.Regexp

	MultiBuyGuard      bool
	KgTextMarksWeighed bool

	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal

	OverrideBadges []Badge
	OverridePolicy PickPolicy

	// BadgeAdjacentPatterns are tried in order on the text after BadgeKeyword
	BadgeKeyword          *regexp.Regexp
	BadgeAdjacentPatterns []*regexp.Regexp
}

// InRange reports whether v lies within the inclusive plausible bounds
func (r PriceRules) InRange(v decimal.Decimal) bool {
	return v.GreaterThanOrEqual(r.MinPrice) && v.LessThanOrEqual(r.MaxPrice)
}

// BadgeRule describes how one promotion tag shows up on a card
type BadgeRule struct {
	Tag          Badge
	Label        string
	Phrases      []string
	Words        []string
	AllWords     []string
	IconKeywords []string
	AttrKeywords []string
}

// IdentifierRules locates the optional store identifier
type IdentifierRules struct {
	Attributes   []string
	ClassPattern *regexp.Regexp
	URLPattern   *regexp.Regexp
}

// BrandRules locates the optional brand
type BrandRules struct {
	Locators    []string
	Fixed       string
	HouseBrands map[string]string // lowercase name keyword -> brand
}

// CleanupRules holds the per-store cleanup thresholds
type CleanupRules struct {
	MinPrice           decimal.Decimal
	Name               NameRules
	SaleBadge          Badge
	SaleBadgeMinSaving decimal.NullDecimal
}

// FetchRules describes how listing pages are paginated
type FetchRules struct {
	BaseURL   string
	PageParam string
	MaxPages  int
}

// Profile is everything the extraction engine needs to know about one store
type Profile struct {
	Store        string
	DisplayName  string
	CardSelector string

	NameStrategies []NameStrategy
	Name           NameRules
	Price          PriceRules
	Badges         []BadgeRule
	Identifier     IdentifierRules
	Brand          BrandRules
	Cleanup        CleanupRules
	Schema         StoreSchema
	Fetch          FetchRules
}

// BadgeLabel returns the human readable label of a tag, or the tag itself
func (p *Profile) BadgeLabel(tag Badge) string {
	for _, rule := range p.Badges {
		if rule.Tag == tag {
			return rule.Label
		}
	}
	if tag == p.Cleanup.SaleBadge && tag != "" {
		return "Sale"
	}
	return string(tag)
}

// BadgeOrder returns the tags this store knows about, in vocabulary order
func (p *Profile) BadgeOrder() []Badge {
	tags := make([]Badge, 0, len(p.Badges)+1)
	for _, rule := range p.Badges {
		tags = append(tags, rule.Tag)
	}
	if p.Cleanup.SaleBadge != "" {
		known := false
		for _, t := range tags {
			if t == p.Cleanup.SaleBadge {
				known = true
				break
			}
		}
		if !known {
			tags = append(tags, p.Cleanup.SaleBadge)
		}
	}
	return tags
}
