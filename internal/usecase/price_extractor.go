package usecase

import (
	"github.com/churbro/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// PriceExtractor resolves the transactable price structure of a card.
// It is stateless; one instance serves every store.
type PriceExtractor struct{}

// NewPriceExtractor creates a new price extractor
func NewPriceExtractor() *PriceExtractor {
	return &PriceExtractor{}
}

// Extract resolves sale price, original price, unit and per-kg reference.
// Flow: primary unit price -> original price -> badge override -> guardrail -> bounds
func (e *PriceExtractor) Extract(card domain.Card, profile *domain.Profile, badges []domain.Badge) (domain.PriceResult, error) {
	rules := profile.Price
	text := card.Text()

	perKg := perKgReferences(text, rules)
	perKgSet := newAmountSet(perKg)

	primary, ok := e.primary(card, text, rules)
	if !ok {
		if onlyOutOfRange(text, rules) {
			return domain.PriceResult{}, domain.ErrPriceOutOfRange
		}
		return domain.PriceResult{}, domain.ErrNoUnitPrice
	}

	result := domain.PriceResult{
		SalePrice:     primary.Value,
		OriginalPrice: primary.Value,
		UnitType:      domain.UnitEach,
		Source:        primary.Source,
	}
	if primary.Unit == domain.CandidateKilogram {
		result.UnitType = domain.UnitKilogram
	}
	if rules.KgTextMarksWeighed && weighedPattern.MatchString(text) {
		result.UnitType = domain.UnitKilogram
	}

	// a "was" value below the sale price is noise, not a discount
	if original, ok := e.original(card, text, rules); ok && original.GreaterThanOrEqual(result.SalePrice) {
		result.OriginalPrice = original
	}

	if hasAnyBadge(badges, rules.OverrideBadges) {
		e.override(&result, text, rules, perKgSet)
	}

	// a per-kg comparison figure is never an each-unit discount
	if result.UnitType == domain.UnitEach && perKgSet.contains(result.SalePrice) {
		result.SalePrice = result.OriginalPrice
		result.Source = primary.Source
	}

	if !rules.InRange(result.SalePrice) {
		return domain.PriceResult{}, domain.ErrPriceOutOfRange
	}

	switch {
	case len(perKg) > 0:
		result.PricePerKg = decimal.NewNullDecimal(perKg[0].Value)
	case result.UnitType == domain.UnitKilogram:
		result.PricePerKg = decimal.NewNullDecimal(result.SalePrice)
	}

	return result, nil
}

// perKgReferences labels the per-kilogram comparison figures of a card
func perKgReferences(text string, rules domain.PriceRules) []domain.PriceCandidate {
	return candidates(scanTokens(rules.PerKgPattern, text), domain.CandidatePerKgReference, "per-kg")
}

// onlyOutOfRange reports whether the card shows plain amounts, none of them plausible
func onlyOutOfRange(text string, rules domain.PriceRules) bool {
	tokens := scanTokens(amountPattern, text)
	for _, tok := range tokens {
		if rules.InRange(tok.value) {
			return false
		}
	}
	return len(tokens) > 0
}

// primary walks the profile's ordered strategies until one yields a unit price
func (e *PriceExtractor) primary(card domain.Card, text string, rules domain.PriceRules) (domain.PriceCandidate, bool) {
	for _, strategy := range rules.Strategies {
		var (
			cand domain.PriceCandidate
			ok   bool
		)
		switch strategy {
		case domain.StrategyEachToken:
			cand, ok = pickCandidate(candidates(scanTokens(rules.EachPattern, text), domain.CandidateEach, string(strategy)), rules.TokenPick)
		case domain.StrategyKgToken:
			cand, ok = pickCandidate(candidates(scanTokens(rules.KgPattern, text), domain.CandidateKilogram, string(strategy)), rules.TokenPick)
		case domain.StrategyUnitToken:
			cand, ok = pickCandidate(candidates(scanTokens(rules.UnitPattern, text), domain.CandidateEach, string(strategy)), rules.TokenPick)
		case domain.StrategySplitElements:
			cand, ok = e.fromSplitElements(card, rules)
		case domain.StrategyLocator:
			cand, ok = e.fromLocators(card, rules.SaleLocators, rules)
			if !ok {
				cand, ok = e.fromLocators(card, rules.PriceLocators, rules)
			}
		case domain.StrategyFallback:
			cand, ok = e.fromFallback(text, rules)
		}
		if ok {
			return cand, true
		}
	}
	return domain.PriceCandidate{}, false
}

// fromSplitElements joins a dollars element and a cents element
func (e *PriceExtractor) fromSplitElements(card domain.Card, rules domain.PriceRules) (domain.PriceCandidate, bool) {
	dollarsEl, ok := card.First(rules.DollarsLocators...)
	if !ok {
		return domain.PriceCandidate{}, false
	}
	centsEl, ok := card.First(rules.CentsLocators...)
	if !ok {
		return domain.PriceCandidate{}, false
	}
	dollars, ok := firstDigitRun(dollarsEl.Text())
	if !ok {
		return domain.PriceCandidate{}, false
	}
	cents, ok := firstDigitRun(centsEl.Text())
	if !ok || len(cents) < 2 {
		return domain.PriceCandidate{}, false
	}

	value, err := decimal.NewFromString(dollars + "." + cents[:2])
	if err != nil || !rules.InRange(value) {
		return domain.PriceCandidate{}, false
	}
	return domain.PriceCandidate{Value: value, Unit: domain.CandidateEach, Source: string(domain.StrategySplitElements)}, true
}

// fromLocators reads the first plausible amount out of the located elements
func (e *PriceExtractor) fromLocators(card domain.Card, locators []string, rules domain.PriceRules) (domain.PriceCandidate, bool) {
	for _, locator := range locators {
		el, ok := card.First(locator)
		if !ok {
			continue
		}
		text := el.Text()
		if rules.MultiBuyGuard && multiBuyElement.MatchString(text) {
			continue
		}
		value, ok := firstAmount(text)
		if !ok || !rules.InRange(value) {
			continue
		}
		return domain.PriceCandidate{Value: value, Unit: domain.CandidateUnlabeled, Source: locator}, true
	}
	return domain.PriceCandidate{}, false
}

// fromFallback picks among unlabeled in-range tokens of the whole card text
func (e *PriceExtractor) fromFallback(text string, rules domain.PriceRules) (domain.PriceCandidate, bool) {
	var kept []priceToken
	for _, tok := range scanTokens(rules.FallbackPattern, text) {
		if !rules.InRange(tok.value) {
			continue
		}
		if rules.FallbackCeiling.Valid && tok.value.GreaterThan(rules.FallbackCeiling.Decimal) {
			continue
		}
		if rules.MultiBuyGuard && followsMultiBuy(text, tok.start) {
			continue
		}
		kept = append(kept, tok)
	}
	return pickCandidate(candidates(kept, domain.CandidateUnlabeled, string(domain.StrategyFallback)), rules.FallbackPolicy)
}

// original finds a structurally discounted ("was") amount
func (e *PriceExtractor) original(card domain.Card, text string, rules domain.PriceRules) (decimal.Decimal, bool) {
	if tokens := scanTokens(rules.WasPattern, text); len(tokens) > 0 {
		return tokens[0].value, true
	}
	for _, locator := range rules.OriginalLocators {
		el, ok := card.First(locator)
		if !ok {
			continue
		}
		if value, ok := firstAmount(el.Text()); ok {
			return value, true
		}
	}
	return decimal.Decimal{}, false
}

// override applies the two-step promotional price override in place
func (e *PriceExtractor) override(result *domain.PriceResult, text string, rules domain.PriceRules, perKg amountSet) {
	if v, ok := badgeAdjacent(text, rules); ok && rules.InRange(v) && v.LessThan(result.OriginalPrice) {
		result.SalePrice = v
		result.Source = "badge-adjacent"
		return
	}

	var below []priceToken
	for _, tok := range scanTokens(rules.GenericPattern, text) {
		if !rules.InRange(tok.value) || perKg.contains(tok.value) {
			continue
		}
		if tok.value.LessThan(result.OriginalPrice) {
			below = append(below, tok)
		}
	}

	policy := rules.OverridePolicy
	if policy == "" {
		policy = domain.PickMin
	}
	if cand, ok := pickCandidate(candidates(below, domain.CandidateUnlabeled, "badge-override"), policy); ok {
		result.SalePrice = cand.Value
		result.Source = cand.Source
	}
}

// badgeAdjacent returns the first figure after the badge keyword, trying each
// pattern in turn. A pattern whose first figure fails the checks is not retried.
func badgeAdjacent(text string, rules domain.PriceRules) (decimal.Decimal, bool) {
	if rules.BadgeKeyword == nil {
		return decimal.Decimal{}, false
	}
	loc := rules.BadgeKeyword.FindStringIndex(text)
	if loc == nil {
		return decimal.Decimal{}, false
	}
	after := text[loc[1]:]
	for _, pattern := range rules.BadgeAdjacentPatterns {
		if tokens := scanTokens(pattern, after); len(tokens) > 0 {
			return tokens[0].value, true
		}
	}
	return decimal.Decimal{}, false
}

func hasAnyBadge(have, want []domain.Badge) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
