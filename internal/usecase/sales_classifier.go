package usecase

import (
	"math"
	"regexp"
	"strings"

	"github.com/marketlens/backend/internal/domain"
)

const (
	// DefaultApproximateUplift scales "more than N" / "N+" counts, which are floors
	DefaultApproximateUplift = 1.10
	// DefaultMaxSalesUnits is the upper sanity bound for a classified count
	DefaultMaxSalesUnits = 50_000_000
	minSalesUnits        = 1
)

// Building blocks shared by the rule tables
const (
	salesQuantity   = `(\d[\d.,]*)`
	salesMultiplier = `(milh(?:ão|ões|ao|oes)|million|mil|thousand|k|m)\b`
	salesFloorWords = `\b(?:more than|over|above|mais de|acima de)`
	salesFiller     = `(?:\s*(?:units?|unidades?|items?|itens|people|pessoas))?`
	salesVerbs      = `(?:bought|sold|purchased|purchases|compras?|compraram|comprad[oa]s?|vendid[oa]s?|vendas?)\b`
)

// salesRule is one tagged row of a classifier phase
type salesRule struct {
	name    string
	pattern *regexp.Regexp
	// extraction semantics, ignored by the admission and exclusion phases
	multiplier  bool
	approximate bool
}

func rx(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + pattern)
}

// admissionRules pair a quantity with a sales verb. At least one must match.
var admissionRules = []salesRule{
	{name: "floor_quantity_verb", pattern: rx(salesFloorWords + `\s+\d[\d.,]*\s*(?:` + salesMultiplier + `)?` + salesFiller + `\s*(?:de\s+)?` + salesVerbs)},
	{name: "quantity_verb", pattern: rx(`\d[\d.,]*\s*(?:` + salesMultiplier + `)?\s*\+?` + salesFiller + `\s*(?:de\s+)?` + salesVerbs)},
}

// exclusionRules tag text that belongs to another semantic domain. Any match rejects.
var exclusionRules = []salesRule{
	{name: "currency", pattern: rx(`R\$|US\$|\$|€|£|¥|\b(?:brl|usd|eur|reais|pre[çc]o|price)\b`)},
	{name: "identifier", pattern: rx(`\b(?:asin|sku|isbn(?:-1[03])?|ean|upc|gtin|mpn|modelo?|model number|c[óo]digo|part number|ref)\b|\bid\s*[:#]`)},
	{name: "rating", pattern: rx(`estrelas?|\bstars?\b|avalia[çc](?:ão|ões|ao|oes)|\breviews?\b|\bratings?\b|classifica[çc](?:ão|ões|ao|oes)|opini(?:ão|ões|ao|oes)|\d(?:[.,]\d+)?\s*de\s*5\b|out of 5`)},
	{name: "shipping", pattern: rx(`\d\s*(?:kg|g|gramas?|lbs?|oz|cm|mm|ml|l|litros?|pol)\b|\d\s*x\s*\d|\b(?:peso|weight|dimens(?:ões|oes|ions?)|frete|shipping|entrega|delivery|envio)\b`)},
	{name: "warranty", pattern: rx(`\b(?:garantia|warranty|devolu[çc](?:ão|ões|ao|oes)|returns?|reembolso|refund)\b`)},
	{name: "rank", pattern: rx(`#\s*\d|\bn[º°]\s*\d|\d\s*[º°ª]|best\s*sellers?\s*rank|\branking\b|mais vendidos?\s+(?:em|na|no)\b`)},
	{name: "opaque_id", pattern: regexp.MustCompile(`\d{8,}`)},
}

// extractionRules capture (quantity, multiplier?). Checked in order; first match wins.
var extractionRules = []salesRule{
	{
		name:        "floor_phrase_multiplier",
		pattern:     rx(salesFloorWords + `\s+` + salesQuantity + `\s*` + salesMultiplier),
		multiplier:  true,
		approximate: true,
	},
	{
		name:        "multiplier_plus",
		pattern:     rx(salesQuantity + `\s*` + salesMultiplier + `\s*\+`),
		multiplier:  true,
		approximate: true,
	},
	{
		name:        "plus_multiplier",
		pattern:     rx(`\+\s*` + salesQuantity + `\s*` + salesMultiplier),
		multiplier:  true,
		approximate: true,
	},
	{
		name:       "multiplier",
		pattern:    rx(salesQuantity + `\s*` + salesMultiplier + salesFiller + `\s*(?:de\s+)?` + salesVerbs),
		multiplier: true,
	},
	{
		name:        "floor_phrase",
		pattern:     rx(salesFloorWords + `\s+` + salesQuantity),
		approximate: true,
	},
	{
		name:        "quantity_plus",
		pattern:     rx(salesQuantity + `\s*\+` + salesFiller + `\s*` + salesVerbs),
		approximate: true,
	},
	{
		name:        "plus_quantity",
		pattern:     rx(`\+\s*` + salesQuantity + salesFiller + `\s*` + salesVerbs),
		approximate: true,
	},
	{
		name:    "plain_quantity",
		pattern: rx(salesQuantity + salesFiller + `\s*` + salesVerbs),
	},
}

// groupedCountRegex matches integer counts written with thousands groups, e.g. "1,234" or "12.500"
var groupedCountRegex = regexp.MustCompile(`^\d{1,3}(?:[.,]\d{3})+$`)

// SalesClassifierConfig holds the tunables of the classifier
type SalesClassifierConfig struct {
	ApproximateUplift float64
	MaxUnits          int
}

// SalesClassifier decides whether a short text fragment asserts a sales count.
// It favours precision: a missed count is acceptable, a wrong one is not.
type SalesClassifier struct {
	uplift   float64
	maxUnits int
}

// SalesTrace explains a classification decision rule by rule
type SalesTrace struct {
	Admission  string  `json:"admission,omitempty"`
	Exclusion  string  `json:"exclusion,omitempty"`
	Extraction string  `json:"extraction,omitempty"`
	Quantity   float64 `json:"quantity,omitempty"`
	Units      int     `json:"units,omitempty"`
	Rejected   string  `json:"rejected,omitempty"`
}

// NewSalesClassifier creates a classifier, falling back to defaults for unset values
func NewSalesClassifier(config SalesClassifierConfig) *SalesClassifier {
	uplift := config.ApproximateUplift
	if uplift <= 0 {
		uplift = DefaultApproximateUplift
	}
	maxUnits := config.MaxUnits
	if maxUnits <= 0 {
		maxUnits = DefaultMaxSalesUnits
	}
	return &SalesClassifier{uplift: uplift, maxUnits: maxUnits}
}

// Classify returns the sales signal asserted by text, or nil
func (c *SalesClassifier) Classify(text string) *domain.SalesSignal {
	signal, _ := c.Explain(text)
	return signal
}

// ClassifyText splits a larger body into fragments and returns the first signal found
func (c *SalesClassifier) ClassifyText(body string) *domain.SalesSignal {
	for _, fragment := range splitFragments(body) {
		if signal := c.Classify(fragment); signal != nil {
			return signal
		}
	}
	return nil
}

// Explain classifies text and reports which rule decided each phase
func (c *SalesClassifier) Explain(text string) (*domain.SalesSignal, SalesTrace) {
	var trace SalesTrace
	fragment := normalizeText(text)
	if fragment == "" {
		trace.Rejected = "empty"
		return nil, trace
	}

	// Phase A: admission
	for _, rule := range admissionRules {
		if rule.pattern.MatchString(fragment) {
			trace.Admission = rule.name
			break
		}
	}
	if trace.Admission == "" {
		trace.Rejected = "not_admitted"
		return nil, trace
	}

	// Phase B: exclusion takes precedence over admission
	for _, rule := range exclusionRules {
		if rule.pattern.MatchString(fragment) {
			trace.Exclusion = rule.name
			trace.Rejected = "excluded"
			return nil, trace
		}
	}

	// Phase C: extraction
	for _, rule := range extractionRules {
		match := rule.pattern.FindStringSubmatch(fragment)
		if match == nil {
			continue
		}
		trace.Extraction = rule.name

		quantity, ok := parseSalesQuantity(match[1], rule.multiplier)
		if !ok {
			trace.Rejected = "unparseable_quantity"
			return nil, trace
		}
		if rule.multiplier && len(match) > 2 {
			quantity *= multiplierValue(match[2])
		}
		if rule.approximate {
			quantity *= c.uplift
		}
		trace.Quantity = math.Round(quantity*100) / 100

		// the floored count must land in [minSalesUnits, maxUnits]
		if quantity < minSalesUnits || quantity >= float64(c.maxUnits)+1 {
			trace.Rejected = "out_of_range"
			return nil, trace
		}
		units := int(math.Floor(quantity + 1e-9))
		trace.Units = units

		return &domain.SalesSignal{
			Units:       units,
			RawText:     fragment,
			Approximate: rule.approximate,
		}, trace
	}

	trace.Rejected = "no_extraction_rule"
	return nil, trace
}

// parseSalesQuantity parses the captured quantity. Without a multiplier word the count
// is an integer, so a thousands-grouped token drops its separators before parsing.
func parseSalesQuantity(raw string, withMultiplier bool) (float64, bool) {
	raw = strings.Trim(raw, ".,")
	if !withMultiplier && groupedCountRegex.MatchString(raw) {
		raw = strings.NewReplacer(".", "", ",", "").Replace(raw)
	}
	return ParseLocaleNumber(raw)
}

func multiplierValue(word string) float64 {
	switch strings.ToLower(word) {
	case "k", "mil", "thousand":
		return 1_000
	case "m", "million", "milhão", "milhões", "milhao", "milhoes":
		return 1_000_000
	}
	return 1
}
