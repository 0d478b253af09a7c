package usecase

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	multipleSpacesRegex = regexp.MustCompile(`\s+`)

	// bidi marks, zero-width characters and non-breaking spaces that marketplaces
	// sprinkle into prices and detail bullets
	invisibleReplacer = strings.NewReplacer(
		"\u200e", "",
		"\u200f", "",
		"\u200b", "",
		"\ufeff", "",
		"\u00a0", " ",
		"\u202f", " ",
		"\u2007", " ",
	)
)

// normalizeText composes accents (so "ç" written as c + U+0327 still matches the
// rule tables), drops invisible marks, folds non-breaking spaces and collapses whitespace.
// Compatibility folding is avoided on purpose: it would turn "Nº" into "No".
func normalizeText(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)
	s = invisibleReplacer.Replace(s)
	s = multipleSpacesRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// cutAtSeparator keeps the text before the first occurrence of any separator
func cutAtSeparator(s string, separators ...string) string {
	for _, sep := range separators {
		if idx := strings.Index(s, sep); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

// stripPhrases removes boilerplate phrases case-insensitively
func stripPhrases(s string, phrases []*regexp.Regexp) string {
	for _, phrase := range phrases {
		s = phrase.ReplaceAllString(s, " ")
	}
	return strings.TrimSpace(multipleSpacesRegex.ReplaceAllString(s, " "))
}

// splitFragments breaks a larger body of text into sentence-sized fragments.
// A period only ends a fragment when followed by whitespace, so "2.5K" stays whole.
func splitFragments(body string) []string {
	parts := fragmentBoundaryRegex.Split(body, -1)
	fragments := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := normalizeText(part); trimmed != "" {
			fragments = append(fragments, trimmed)
		}
	}
	return fragments
}

var fragmentBoundaryRegex = regexp.MustCompile(`[\n\r|•·]+|[.!?;]\s+`)

func strPtr(s string) *string {
	return &s
}
