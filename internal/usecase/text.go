package usecase

import (
	"regexp"
	"strings"
	"unicode"
)

// Compiled regex patterns shared by the extractors
var (
	multiSpacePattern = regexp.MustCompile(`\s+`)
	digitRunPattern   = regexp.MustCompile(`\d+`)
	multiBuyPattern   = regexp.MustCompile(`(?i)\bfor\s*\$?\s*$`)
)

// normalizeSpace collapses all whitespace runs to single spaces and trims
func normalizeSpace(s string) string {
	return strings.TrimSpace(multiSpacePattern.ReplaceAllString(s, " "))
}

// splitLines returns the non-empty, space-normalized lines of s
func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = normalizeSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// containsWord reports whether word occurs in text bounded by non-alphanumerics.
// Both arguments are compared case-insensitively.
func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	text = strings.ToLower(text)
	word = strings.ToLower(word)

	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)
		if !isWordByteAt(text, start-1) && !isWordByteAt(text, end) {
			return true
		}
		offset = start + 1
	}
	return false
}

func isWordByteAt(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	c := s[i]
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

// containsAny reports whether any phrase is a case-insensitive substring of text
func containsAny(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// firstDigitRun returns the first run of digits in s
func firstDigitRun(s string) (string, bool) {
	run := digitRunPattern.FindString(s)
	return run, run != ""
}

// hasLetterRun reports whether s contains n consecutive letters
func hasLetterRun(s string, n int) bool {
	run := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			run++
			if run >= n {
				return true
			}
			continue
		}
		run = 0
	}
	return false
}

// digitShare is the fraction of runes in s that are decimal digits
func digitShare(s string) float64 {
	total, digits := 0, 0
	for _, r := range s {
		total++
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(digits) / float64(total)
}

// followsMultiBuy reports whether the text right before a token reads like "2 for $"
func followsMultiBuy(text string, tokenStart int) bool {
	from := tokenStart - 12
	if from < 0 {
		from = 0
	}
	return multiBuyPattern.MatchString(text[from:tokenStart])
}
