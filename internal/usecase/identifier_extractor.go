package usecase

import (
	"strings"

	"github.com/churbro/backend/internal/domain"
)

// IdentifierExtractor resolves the optional store identifier and brand of a card
type IdentifierExtractor struct{}

// NewIdentifierExtractor creates a new identifier extractor
func NewIdentifierExtractor() *IdentifierExtractor {
	return &IdentifierExtractor{}
}

// Extract tries attributes, then the class pattern, then the product URL
func (x *IdentifierExtractor) Extract(card domain.Card, profile *domain.Profile) (string, bool) {
	rules := profile.Identifier

	for _, name := range rules.Attributes {
		if id, ok := digitsOfAttr(card, name); ok {
			return id, true
		}
		if el, ok := card.First("[" + name + "]"); ok {
			if id, ok := digitsOfAttr(el, name); ok {
				return id, true
			}
		}
	}

	if rules.ClassPattern != nil {
		if class, ok := card.Attr("class"); ok {
			if m := rules.ClassPattern.FindStringSubmatch(class); len(m) > 1 {
				return m[1], true
			}
		}
	}

	if rules.URLPattern != nil {
		for _, href := range hrefs(card) {
			if m := rules.URLPattern.FindStringSubmatch(href); len(m) > 1 {
				return m[1], true
			}
		}
	}

	return "", false
}

// Brand resolves the brand from the profile's fixed value, locators or house brands
func (x *IdentifierExtractor) Brand(card domain.Card, name string, profile *domain.Profile) string {
	rules := profile.Brand
	if rules.Fixed != "" {
		return rules.Fixed
	}
	if len(rules.Locators) > 0 {
		if el, ok := card.First(rules.Locators...); ok {
			if brand := normalizeSpace(el.Text()); brand != "" && brand != name {
				return brand
			}
		}
	}
	lower := strings.ToLower(name)
	for keyword, brand := range rules.HouseBrands {
		if strings.Contains(lower, keyword) {
			return brand
		}
	}
	return ""
}

func digitsOfAttr(el domain.Element, name string) (string, bool) {
	v, ok := el.Attr(name)
	if !ok {
		return "", false
	}
	return firstDigitRun(v)
}

func hrefs(card domain.Card) []string {
	var out []string
	if v, ok := card.Attr("href"); ok {
		out = append(out, v)
	}
	for _, a := range card.All("a[href]") {
		if v, ok := a.Attr("href"); ok {
			out = append(out, v)
		}
	}
	return out
}
