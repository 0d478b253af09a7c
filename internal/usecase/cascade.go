package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/marketlens/backend/internal/domain"
	"go.uber.org/zap"
)

// Strategy is one way of locating a raw field value inside a content node.
// Locate returns "" when nothing was found; an error counts as the strategy failing.
type Strategy struct {
	ID     string
	Locate func(node domain.ContentNode) (string, error)
}

// Cascade tries its strategies strictly in order and keeps the first non-empty result
type Cascade struct {
	Field       string
	Strategies  []Strategy
	PostProcess func(raw string) string
}

// Extract runs the cascade against node. An exhausted cascade yields a nil Value.
func (c Cascade) Extract(node domain.ContentNode) domain.FieldExtractionResult {
	return c.extract(node, zap.NewNop())
}

func (c Cascade) extract(node domain.ContentNode, logger *zap.Logger) domain.FieldExtractionResult {
	result := domain.FieldExtractionResult{
		Attempts: make([]domain.ExtractionAttempt, 0, len(c.Strategies)),
	}
	if node == nil {
		return result
	}

	for _, strategy := range c.Strategies {
		raw, err := runStrategy(strategy, node)
		if err != nil {
			logger.Debug("strategy failed",
				zap.String("field", c.Field),
				zap.String("strategy", strategy.ID),
				zap.Error(err))
			result.Attempts = append(result.Attempts, domain.ExtractionAttempt{StrategyID: strategy.ID, Error: err.Error()})
			continue
		}

		attempt := domain.ExtractionAttempt{StrategyID: strategy.ID}
		raw = strings.TrimSpace(raw)
		if raw != "" {
			attempt.RawText = strPtr(raw)
		}

		value := raw
		if value != "" && c.PostProcess != nil {
			value = strings.TrimSpace(c.PostProcess(value))
		}
		if value == "" {
			result.Attempts = append(result.Attempts, attempt)
			continue
		}

		attempt.Success = true
		result.Attempts = append(result.Attempts, attempt)
		result.Value = strPtr(value)
		result.RawText = raw
		result.StrategyUsed = strategy.ID
		return result
	}

	return result
}

// runStrategy invokes one strategy, turning a panic into an error
func runStrategy(strategy Strategy, node domain.ContentNode) (raw string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy %s panicked: %v", strategy.ID, r)
		}
	}()
	if strategy.Locate == nil {
		return "", fmt.Errorf("strategy %s has no locator", strategy.ID)
	}
	return strategy.Locate(node)
}

// Common locators shared by both layouts

var labelValueRegex = regexp.MustCompile(`^[^:：]*[:：]\s*(.+)$`)

// firstText returns the text of the first node matching pattern that has any
func firstText(pattern string) func(domain.ContentNode) (string, error) {
	return func(node domain.ContentNode) (string, error) {
		for _, match := range node.Find(pattern) {
			if text := normalizeText(match.Text()); text != "" {
				return text, nil
			}
		}
		return "", nil
	}
}

// firstAttr returns an attribute of the first node matching pattern that carries it
func firstAttr(pattern, attr string) func(domain.ContentNode) (string, error) {
	return func(node domain.ContentNode) (string, error) {
		for _, match := range node.Find(pattern) {
			if value, ok := match.Attr(attr); ok && strings.TrimSpace(value) != "" {
				return strings.TrimSpace(value), nil
			}
		}
		return "", nil
	}
}

// firstLink resolves the href of the first matching anchor against the document URL
func firstLink(pattern string) func(domain.ContentNode) (string, error) {
	return func(node domain.ContentNode) (string, error) {
		for _, match := range node.Find(pattern) {
			if href, ok := match.Attr("href"); ok && strings.TrimSpace(href) != "" {
				return node.ResolveLink(strings.TrimSpace(href)), nil
			}
		}
		return "", nil
	}
}

// ownAttr reads an attribute of the node itself, e.g. data-asin on a listing row
func ownAttr(attr string) func(domain.ContentNode) (string, error) {
	return func(node domain.ContentNode) (string, error) {
		value, _ := node.Attr(attr)
		return strings.TrimSpace(value), nil
	}
}

// labeledRow scans key/value rows (detail tables, bullet lists) for a row whose label
// matches one of labels and returns the value part.
func labeledRow(rowPattern, labelPattern, valuePattern string, labels ...string) func(domain.ContentNode) (string, error) {
	return func(node domain.ContentNode) (string, error) {
		for _, row := range node.Find(rowPattern) {
			label := rowLabel(row, labelPattern)
			if label == "" || !labelMatches(label, labels) {
				continue
			}
			if valuePattern != "" {
				for _, value := range row.Find(valuePattern) {
					if text := normalizeText(value.Text()); text != "" {
						return text, nil
					}
				}
				continue
			}
			// single-cell bullet "Label : value"
			if match := labelValueRegex.FindStringSubmatch(normalizeText(row.Text())); match != nil {
				return strings.TrimSpace(match[1]), nil
			}
		}
		return "", nil
	}
}

func rowLabel(row domain.ContentNode, labelPattern string) string {
	if labelPattern == "" {
		return normalizeText(row.Text())
	}
	for _, label := range row.Find(labelPattern) {
		if text := normalizeText(label.Text()); text != "" {
			return text
		}
	}
	return ""
}

func labelMatches(label string, labels []string) bool {
	label = strings.ToLower(strings.Trim(label, " :："))
	for _, want := range labels {
		if strings.HasPrefix(label, strings.ToLower(want)) {
			return true
		}
	}
	return false
}
