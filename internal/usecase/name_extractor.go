package usecase

import (
	"strings"
	"unicode/utf8"

	"github.com/churbro/backend/internal/domain"
)

// currencyPrefixes are symbols a product name never starts with
const currencyPrefixes = "$£€¥"

// NameExtractor resolves a validated product name from a card
type NameExtractor struct{}

// NewNameExtractor creates a new name extractor
func NewNameExtractor() *NameExtractor {
	return &NameExtractor{}
}

// Extract returns the first candidate, in strategy order, that passes the
// store's name rules
func (n *NameExtractor) Extract(card domain.Card, profile *domain.Profile) (string, bool) {
	for _, strategy := range profile.NameStrategies {
		for _, candidate := range n.candidates(card, strategy) {
			if ValidName(candidate, profile.Name) {
				return candidate, true
			}
		}
	}
	return "", false
}

// candidates yields the normalized name candidates of one strategy
func (n *NameExtractor) candidates(card domain.Card, strategy domain.NameStrategy) []string {
	switch strategy.Kind {
	case domain.NameFromLocator:
		if el, ok := card.First(strategy.Locators...); ok {
			return []string{normalizeSpace(el.Text())}
		}
	case domain.NameFromLines:
		if el, ok := card.First(strategy.Locators...); ok {
			return splitLines(el.Text())
		}
	case domain.NameFromAnchors:
		var out []string
		for _, locator := range strategy.Locators {
			for _, el := range card.All(locator) {
				out = append(out, normalizeSpace(el.Text()))
			}
		}
		return out
	case domain.NameFromAttribute:
		if v, ok := card.Attr(strategy.Attribute); ok {
			return []string{normalizeSpace(v)}
		}
	}
	return nil
}

// ValidName applies the name validity predicate
func ValidName(name string, rules domain.NameRules) bool {
	name = strings.TrimSpace(name)
	length := utf8.RuneCountInString(name)
	if name == "" || length < rules.MinLength {
		return false
	}

	if startsWithAny(name, currencyPrefixes) {
		return false
	}

	if digitShare(name) > 0.5 {
		return false
	}

	if containsAny(name, rules.Denylist) {
		return false
	}
	for _, word := range rules.CallToAction {
		if containsWord(name, word) {
			return false
		}
	}

	if rules.RejectShortExclaim && length < 12 && strings.HasSuffix(name, "!") {
		return false
	}

	return hasLetterRun(name, 3)
}

func startsWithAny(s, runes string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return strings.ContainsRune(runes, r)
}
