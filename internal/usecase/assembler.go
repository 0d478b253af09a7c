package usecase

import (
	"fmt"
	"math"

	"github.com/marketlens/backend/internal/domain"
	"go.uber.org/zap"
)

// Assembler turns one content node into a ProductRecord. It is stateless per call,
// so a single Assembler may be shared across goroutines.
type Assembler struct {
	layout     Layout
	classifier *SalesClassifier
	logger     *zap.Logger
}

// NewAssembler creates an assembler for a layout. A nil classifier uses the defaults,
// a nil logger discards output.
func NewAssembler(layout Layout, classifier *SalesClassifier, logger *zap.Logger) *Assembler {
	if classifier == nil {
		classifier = NewSalesClassifier(SalesClassifierConfig{})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		layout:     layout,
		classifier: classifier,
		logger:     logger.With(zap.String("layout", string(layout.Name))),
	}
}

// Layout returns the layout the assembler reads
func (a *Assembler) Layout() Layout {
	return a.layout
}

// Assemble extracts a record from node. It never panics and never fails: fields that
// cannot be located stay nil.
func (a *Assembler) Assemble(node domain.ContentNode) domain.ProductRecord {
	return a.assemble(node, nil)
}

// AssembleAt extracts a record from a listing row at a 1-based position
func (a *Assembler) AssembleAt(node domain.ContentNode, position int) domain.ProductRecord {
	return a.assemble(node, &position)
}

func (a *Assembler) assemble(node domain.ContentNode, position *int) (record domain.ProductRecord) {
	record = domain.ProductRecord{
		Marketplace: a.layout.Name,
		Position:    position,
		Provenance:  make(map[string]string),
	}
	if node == nil {
		return record
	}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("record assembly aborted", zap.Any("panic", r))
		}
	}()

	a.isolate(FieldID, func() { record.ID = a.text(node, a.layout.ID, record.Provenance) })
	a.isolate(FieldLink, func() { record.Link = a.text(node, a.layout.Link, record.Provenance) })
	a.isolate(FieldTitle, func() { record.Title = a.text(node, a.layout.Title, record.Provenance) })
	a.isolate(FieldBrand, func() { record.Brand = a.text(node, a.layout.Brand, record.Provenance) })
	a.isolate(FieldPrice, func() {
		record.Price.Text = a.text(node, a.layout.Price, record.Provenance)
		if record.Price.Text != nil {
			if value, ok := ParseLocaleNumber(*record.Price.Text); ok {
				record.Price.Numeric = &value
			}
		}
	})
	a.isolate(FieldRating, func() {
		record.Rating.Text = a.text(node, a.layout.Rating, record.Provenance)
		if record.Rating.Text != nil {
			if value, ok := ParseFirstNumber(*record.Rating.Text); ok {
				record.Rating.Numeric = &value
			}
		}
	})
	a.isolate(FieldReviewCount, func() {
		if text := a.text(node, a.layout.ReviewCount, record.Provenance); text != nil {
			if count, ok := ParseInteger(*text); ok {
				record.ReviewCount = &count
			}
		}
	})
	a.isolate(FieldSales, func() { record.Sales = a.sales(node, record.Provenance) })
	a.isolate(FieldRanking, func() {
		ranking, strategy := a.layout.Ranking.parse(node, a.logger)
		record.Ranking = ranking
		if strategy != "" {
			record.Provenance[FieldRanking] = strategy
		}
	})
	a.isolate(FieldCategory, func() {
		record.Category = a.text(node, a.layout.Category, record.Provenance)
		if record.Category == nil && record.Ranking.Primary != nil {
			record.Category = strPtr(record.Ranking.Primary.Category)
			record.Provenance[FieldCategory] = FieldRanking
		}
	})
	a.isolate(FieldSellerName, func() { record.Seller.Name = a.text(node, a.layout.SellerName, record.Provenance) })
	a.isolate(FieldSellerLink, func() { record.Seller.Link = a.text(node, a.layout.SellerLink, record.Provenance) })
	a.isolate("sponsorship", func() {
		record.Sponsored = a.sponsored(node)
		record.Organic = a.hasOrganicMarker(node) || !record.Sponsored
	})

	record.RevenueEstimate = estimateRevenue(record.Price.Numeric, record.Sales)
	return record
}

// isolate runs one field's extraction behind its own panic boundary
func (a *Assembler) isolate(field string, extract func()) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Debug("field extraction failed",
				zap.String("field", field),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	extract()
}

func (a *Assembler) text(node domain.ContentNode, cascade Cascade, provenance map[string]string) *string {
	result := cascade.extract(node, a.logger)
	if !result.Found() {
		return nil
	}
	provenance[cascade.Field] = result.StrategyUsed
	return result.Value
}

// sales keeps the first located candidate the classifier admits
func (a *Assembler) sales(node domain.ContentNode, provenance map[string]string) *domain.SalesSignal {
	var signal *domain.SalesSignal
	cascade := a.layout.Sales
	cascade.PostProcess = func(raw string) string {
		signal = a.classifier.ClassifyText(raw)
		if signal == nil {
			return ""
		}
		return signal.RawText
	}

	result := cascade.extract(node, a.logger)
	if !result.Found() {
		return nil
	}
	provenance[FieldSales] = result.StrategyUsed
	return signal
}

func (a *Assembler) sponsored(node domain.ContentNode) bool {
	for _, marker := range a.layout.SelfSponsorMarkers {
		if node.Matches(marker) {
			return true
		}
	}
	for _, marker := range a.layout.SponsorMarkers {
		if len(node.Find(marker)) > 0 {
			return true
		}
	}
	return false
}

func (a *Assembler) hasOrganicMarker(node domain.ContentNode) bool {
	for _, marker := range a.layout.OrganicMarkers {
		if node.Matches(marker) {
			return true
		}
	}
	return false
}

// estimateRevenue is price times units, rounded to cents. Either input missing means
// there is no estimate.
func estimateRevenue(price *float64, sales *domain.SalesSignal) *float64 {
	if price == nil || sales == nil {
		return nil
	}
	revenue := math.Round(*price*float64(sales.Units)*100) / 100
	return &revenue
}
