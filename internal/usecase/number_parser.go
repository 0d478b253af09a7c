package usecase

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Package-level compiled regex patterns for number parsing
var (
	nonNumericRegex = regexp.MustCompile(`[^0-9.,]`)
	nonDigitRegex   = regexp.MustCompile(`[^0-9]`)

	// first number-looking token in a string, e.g. "4,5" in "4,5 de 5 estrelas"
	numberTokenRegex = regexp.MustCompile(`\d[\d.,]*`)
)

// ParseLocaleNumber converts marketplace-formatted numeric or currency text into a number.
//
// Separator rules:
//   - both "." and "," present: the rightmost one is the decimal separator
//   - only ",": decimal separator, so more than one "," is rejected
//   - only ".": decimal when at most two digits follow the last ".", grouping otherwise
//
// It returns false when nothing parseable remains or the value is not finite.
func ParseLocaleNumber(text string) (float64, bool) {
	cleaned := nonNumericRegex.ReplaceAllString(text, "")
	// a leading separator is a decimal mark (",99", ".5"); only trailing ones are noise
	cleaned = strings.TrimRight(cleaned, ".,")
	if cleaned == "" {
		return 0, false
	}

	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(cleaned, ",") > 1 {
			return 0, false
		}
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case lastDot >= 0:
		if len(cleaned)-lastDot-1 > 2 {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
	}

	// a second decimal separator left over means the text was not a number
	if strings.Count(cleaned, ".") > 1 {
		return 0, false
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

// ParseFirstNumber parses the first number token found in text, e.g. a rating
// inside "4,5 de 5 estrelas".
func ParseFirstNumber(text string) (float64, bool) {
	token := numberTokenRegex.FindString(text)
	if token == "" {
		return 0, false
	}
	return ParseLocaleNumber(token)
}

// ParseInteger parses the first integer token in text with every separator removed.
// Counts and ranks are never fractional, so "1.234" and "1,234" both yield 1234.
func ParseInteger(text string) (int, bool) {
	token := numberTokenRegex.FindString(text)
	if token == "" {
		return 0, false
	}
	digits := nonDigitRegex.ReplaceAllString(token, "")
	if digits == "" {
		return 0, false
	}
	value, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return value, true
}
