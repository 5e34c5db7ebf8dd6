package usecase

import (
	"regexp"
	"strings"

	"github.com/churbro/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Price patterns name their parts: d = dollars, c = cents, u = optional unit word.
// Dollars written with thousands separators ("1,299") match groupedDollars.
const groupedDollars = `(?P<d>\d{1,3}(?:,\d{3})+|\d+)`

var (
	amountPattern   = regexp.MustCompile(`\$?\s*` + groupedDollars + `\.(?P<c>\d{2})`)
	multiBuyElement = regexp.MustCompile(`(?i)\d+\s*for\s*\$`)
	weighedPattern  = regexp.MustCompile(`(?i)/\s*kg|\bkg\b`)
)

// priceToken is one amount found in text, with its byte span
type priceToken struct {
	value decimal.Decimal
	unit  string
	start int
	end   int
}

// scanTokens returns every amount matched by re in text. The dollars group
// must not continue a longer digit run on the left (plain or comma grouped),
// nor the cents group on the right. Tokens that fail to parse are skipped.
func scanTokens(re *regexp.Regexp, text string) []priceToken {
	if re == nil {
		return nil
	}
	di, ci, ui := re.SubexpIndex("d"), re.SubexpIndex("c"), re.SubexpIndex("u")
	if di < 0 || ci < 0 {
		return nil
	}

	var tokens []priceToken
	for pos := 0; pos < len(text); {
		loc := re.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if loc[2*di] < 0 || loc[2*ci] < 0 {
			pos = advance(start, end)
			continue
		}
		dStart, dEnd := pos+loc[2*di], pos+loc[2*di+1]
		cStart, cEnd := pos+loc[2*ci], pos+loc[2*ci+1]

		if isDigitAt(text, dStart-1) || continuesGroup(text, dStart) || isDigitAt(text, cEnd) {
			pos = start + 1
			continue
		}

		dollars := strings.ReplaceAll(text[dStart:dEnd], ",", "")
		value, err := decimal.NewFromString(dollars + "." + text[cStart:cEnd])
		if err == nil {
			tok := priceToken{value: value, start: start, end: end}
			if ui >= 0 && loc[2*ui] >= 0 {
				tok.unit = strings.ToLower(text[pos+loc[2*ui] : pos+loc[2*ui+1]])
			}
			tokens = append(tokens, tok)
		}
		pos = advance(start, end)
	}
	return tokens
}

func advance(start, end int) int {
	if end > start {
		return end
	}
	return start + 1
}

func isDigitAt(s string, i int) bool {
	return i >= 0 && i < len(s) && s[i] >= '0' && s[i] <= '9'
}

// continuesGroup reports whether the digits at i follow a "<digit>," prefix,
// i.e. they are the tail of a grouped number like "1,299"
func continuesGroup(s string, i int) bool {
	return i >= 2 && s[i-1] == ',' && isDigitAt(s, i-2)
}

// firstAmount parses the first plain amount inside an element's text
func firstAmount(text string) (decimal.Decimal, bool) {
	tokens := scanTokens(amountPattern, text)
	if len(tokens) == 0 {
		return decimal.Decimal{}, false
	}
	return tokens[0].value, true
}

// candidates labels tokens for disambiguation
func candidates(tokens []priceToken, unit domain.CandidateUnit, source string) []domain.PriceCandidate {
	out := make([]domain.PriceCandidate, 0, len(tokens))
	for _, t := range tokens {
		u := unit
		switch t.unit {
		case "kg":
			u = domain.CandidateKilogram
		case "ea", "each":
			u = domain.CandidateEach
		}
		out = append(out, domain.PriceCandidate{Value: t.value, Unit: u, Source: source})
	}
	return out
}

// pickCandidate reduces candidates with a policy; an empty policy means first
func pickCandidate(cands []domain.PriceCandidate, policy domain.PickPolicy) (domain.PriceCandidate, bool) {
	if len(cands) == 0 {
		return domain.PriceCandidate{}, false
	}
	chosen := cands[0]
	switch policy {
	case domain.PickLast:
		chosen = cands[len(cands)-1]
	case domain.PickMin:
		for _, c := range cands[1:] {
			if c.Value.LessThan(chosen.Value) {
				chosen = c
			}
		}
	case domain.PickMax:
		for _, c := range cands[1:] {
			if c.Value.GreaterThan(chosen.Value) {
				chosen = c
			}
		}
	}
	return chosen, true
}

// amountSet is a lookup of amounts compared by value, so 23.5 and 23.50 collide
type amountSet map[string]struct{}

func newAmountSet(cands []domain.PriceCandidate) amountSet {
	set := make(amountSet, len(cands))
	for _, c := range cands {
		set[c.Value.StringFixed(2)] = struct{}{}
	}
	return set
}

func (s amountSet) contains(v decimal.Decimal) bool {
	_, ok := s[v.StringFixed(2)]
	return ok
}
