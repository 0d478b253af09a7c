package usecase

import (
	"regexp"
	"strings"

	"github.com/marketlens/backend/internal/domain"
	"go.uber.org/zap"
)

// rankEntryRegex finds the start of each "#N in Category" entry. The marker comes either
// before the number ("#", "Nº", "N°") or right after it ("1º", "2ª").
var rankEntryRegex = regexp.MustCompile(
	`(?i)(?:#\s*|\bn[º°]\s*)(\d[\d.,]*)\s+(?:(?:best\s*sellers?|mais\s+vendidos?)\s+)?(?:in|em)\s+` +
		`|(\d[\d.,]*)\s*[º°ª]\s+(?:(?:best\s*sellers?|mais\s+vendidos?)\s+)?(?:in|em)\s+`,
)

// maxRankEntries is how many entries a ranking keeps: primary and secondary
const maxRankEntries = 2

// RankingParser reads best-seller rankings. The dedicated cascade locates the ranking
// section proper; the fallback cascade locates a secondary widget that only ever
// contributes a primary entry.
type RankingParser struct {
	Dedicated Cascade
	Fallback  Cascade
}

// NewRankingParser wires both cascades so that a located section without any
// parseable entry counts as a miss and the next strategy is tried.
func NewRankingParser(dedicated, fallback []Strategy) RankingParser {
	keepParseable := func(raw string) string {
		if len(ParseRankingText(raw)) == 0 {
			return ""
		}
		return raw
	}
	return RankingParser{
		Dedicated: Cascade{Field: "ranking", Strategies: dedicated, PostProcess: keepParseable},
		Fallback:  Cascade{Field: "ranking_fallback", Strategies: fallback, PostProcess: keepParseable},
	}
}

// Parse reads the ranking of node
func (p RankingParser) Parse(node domain.ContentNode) domain.Ranking {
	ranking, _ := p.parse(node, zap.NewNop())
	return ranking
}

// parse also reports the strategy that produced the ranking, or "" when none did
func (p RankingParser) parse(node domain.ContentNode, logger *zap.Logger) (domain.Ranking, string) {
	var ranking domain.Ranking

	if section := p.Dedicated.extract(node, logger); section.Found() {
		entries := ParseRankingText(*section.Value)
		ranking.Primary = &entries[0]
		if len(entries) > 1 {
			ranking.Secondary = &entries[1]
		}
		return ranking, section.StrategyUsed
	}

	if widget := p.Fallback.extract(node, logger); widget.Found() {
		entries := ParseRankingText(*widget.Value)
		ranking.Primary = &entries[0]
		return ranking, widget.StrategyUsed
	}

	return ranking, ""
}

// ParseText reads the entries of a ranking section's text
func (p RankingParser) ParseText(text string) []domain.RankCategoryPair {
	return ParseRankingText(text)
}

// ParseRankingText returns at most two ranking entries in document order. Entries whose
// rank is not a positive integer or whose category is empty are skipped.
func ParseRankingText(text string) []domain.RankCategoryPair {
	text = normalizeText(text)
	if text == "" {
		return nil
	}

	matches := rankEntryRegex.FindAllStringSubmatchIndex(text, -1)
	entries := make([]domain.RankCategoryPair, 0, maxRankEntries)
	for i, m := range matches {
		numberStart, numberEnd := m[2], m[3]
		if numberStart < 0 {
			numberStart, numberEnd = m[4], m[5]
		}
		rank, ok := ParseInteger(text[numberStart:numberEnd])
		if !ok || rank <= 0 {
			continue
		}

		categoryEnd := len(text)
		if i+1 < len(matches) {
			categoryEnd = matches[i+1][0]
		}
		category := cleanRankCategory(text[m[1]:categoryEnd])
		if category == "" {
			continue
		}

		kind := domain.RankPrimary
		if len(entries) > 0 {
			kind = domain.RankSecondary
		}
		entries = append(entries, domain.RankCategoryPair{Rank: rank, Category: category, Kind: kind})
		if len(entries) == maxRankEntries {
			break
		}
	}
	return entries
}

// cleanRankCategory drops the "(See Top 100 in ...)" tail and trailing separators
func cleanRankCategory(raw string) string {
	category := cutAtSeparator(raw, "(", "|", ";", "\n")
	return strings.TrimRight(strings.TrimSpace(category), " ,.-–:")
}
