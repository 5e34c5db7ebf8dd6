package usecase

import (
	"strings"

	"github.com/churbro/backend/internal/domain"
)

// signalAttributes carry structured promotion markers
var signalAttributes = []string{"data-badge", "data-promotion"}

// BadgeClassifier resolves the promotion tags present on a card.
// Classification never fails; a missing sub-element is simply no match.
type BadgeClassifier struct{}

// NewBadgeClassifier creates a new badge classifier
func NewBadgeClassifier() *BadgeClassifier {
	return &BadgeClassifier{}
}

// cardSignals is everything badge rules are matched against, lowercased once
type cardSignals struct {
	text  string
	icons []string // img alt and src
	attrs []string // aria-label, data-badge, data-promotion
}

// Classify returns the tags of the store vocabulary found on the card, in vocabulary order
func (b *BadgeClassifier) Classify(card domain.Card, profile *domain.Profile) []domain.Badge {
	signals := b.collect(card)

	var badges []domain.Badge
	for _, rule := range profile.Badges {
		if matchesRule(signals, rule) {
			badges = append(badges, rule.Tag)
		}
	}
	return badges
}

func (b *BadgeClassifier) collect(card domain.Card) cardSignals {
	s := cardSignals{text: strings.ToLower(card.Text())}

	for _, img := range card.All("img") {
		for _, name := range []string{"alt", "src"} {
			if v, ok := img.Attr(name); ok && v != "" {
				s.icons = append(s.icons, strings.ToLower(v))
			}
		}
	}

	if v, ok := card.Attr("aria-label"); ok {
		s.attrs = append(s.attrs, strings.ToLower(v))
	}
	for _, el := range card.All("[aria-label]") {
		if v, ok := el.Attr("aria-label"); ok {
			s.attrs = append(s.attrs, strings.ToLower(v))
		}
	}
	for _, name := range signalAttributes {
		if v, ok := card.Attr(name); ok {
			s.attrs = append(s.attrs, strings.ToLower(v))
		}
		for _, el := range card.All("[" + name + "]") {
			if v, ok := el.Attr(name); ok {
				s.attrs = append(s.attrs, strings.ToLower(v))
			}
		}
	}
	return s
}

// matchesRule is the logical OR of every signal kind
func matchesRule(s cardSignals, rule domain.BadgeRule) bool {
	if containsAny(s.text, rule.Phrases) {
		return true
	}
	for _, word := range rule.Words {
		if containsWord(s.text, word) {
			return true
		}
	}
	if len(rule.AllWords) > 0 {
		all := true
		for _, word := range rule.AllWords {
			if !containsWord(s.text, word) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	for _, v := range s.icons {
		if containsAny(v, rule.IconKeywords) {
			return true
		}
	}
	for _, v := range s.attrs {
		if containsAny(v, rule.AttrKeywords) {
			return true
		}
	}
	return false
}
