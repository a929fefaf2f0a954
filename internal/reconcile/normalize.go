// Package reconcile links marathon listings from the primary and secondary
// feeds into one record per event.
package reconcile

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

var (
	leadingYearRe    = regexp.MustCompile(`^\d{4}\s*`)
	leadingOrdinalRe = regexp.MustCompile(`^제\s*\d+회\s*`)
)

// DateLayout is the ISO date format both feeds are normalized to.
const DateLayout = "2006-01-02"

// NormalizeName reduces a free-text event name to a comparable form:
//  1. Lowercase
//  2. Strip a leading 4-digit year ("2026 ")
//  3. Strip a leading edition marker ("제22회 ")
//  4. Drop runes other than letters, digits, underscore, whitespace and Hangul syllables
//  5. Collapse whitespace and trim
//
// Steps repeat until the name stops changing, so the result is a fixpoint.
// Only leading years are stripped; "서울 마라톤 2026" keeps its year.
func NormalizeName(raw string) string {
	name := raw
	for {
		next := normalizeOnce(name)
		if next == name {
			return next
		}
		name = next
	}
}

func normalizeOnce(name string) string {
	name = strings.ToLower(name)
	name = leadingYearRe.ReplaceAllString(name, "")
	name = leadingOrdinalRe.ReplaceAllString(name, "")
	name = strings.Map(keepNameRune, name)
	return strings.Join(strings.Fields(name), " ")
}

func keepNameRune(r rune) rune {
	switch {
	case r >= 0xAC00 && r <= 0xD7A3:
		return r
	case unicode.IsLetter(r), unicode.IsNumber(r), r == '_':
		return r
	case unicode.IsSpace(r):
		return r
	default:
		return -1
	}
}

// ParseDate parses a YYYY-MM-DD date. Single-digit months and days are
// accepted. Unparseable input reports false; it is never an error.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-1-2", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
