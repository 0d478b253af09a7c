package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/marketlens/backend/internal/domain"
	"go.uber.org/zap"
)

// ExtractionServiceConfig holds configuration for the extraction service
type ExtractionServiceConfig struct {
	ApproximateUplift float64
	MaxSalesUnits     int
	DefaultLayout     string
}

// ExtractionRequest carries one page of markup to extract from
type ExtractionRequest struct {
	Layout string
	URL    string
	Body   []byte
}

// ExtractionService parses pages and assembles product records from them
type ExtractionService struct {
	parser        domain.DocumentParser
	classifier    *SalesClassifier
	assemblers    map[domain.Layout]*Assembler
	defaultLayout domain.Layout
	logger        *zap.Logger
}

// NewExtractionService creates an extraction service with one assembler per layout
func NewExtractionService(
	parser domain.DocumentParser,
	config ExtractionServiceConfig,
	logger *zap.Logger,
) *ExtractionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	classifier := NewSalesClassifier(SalesClassifierConfig{
		ApproximateUplift: config.ApproximateUplift,
		MaxUnits:          config.MaxSalesUnits,
	})

	defaultLayout := domain.Layout(strings.ToLower(config.DefaultLayout))
	if defaultLayout == "" {
		defaultLayout = domain.LayoutPrimary
	}

	return &ExtractionService{
		parser:     parser,
		classifier: classifier,
		assemblers: map[domain.Layout]*Assembler{
			domain.LayoutPrimary:   NewAssembler(PrimaryLayout(), classifier, logger),
			domain.LayoutSecondary: NewAssembler(SecondaryLayout(), classifier, logger),
		},
		defaultLayout: defaultLayout,
		logger:        logger,
	}
}

// Assembler returns the assembler for a layout name; "" selects the default layout
func (s *ExtractionService) Assembler(layout string) (*Assembler, error) {
	name := domain.Layout(strings.ToLower(strings.TrimSpace(layout)))
	if name == "" {
		name = s.defaultLayout
	}
	assembler, ok := s.assemblers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownLayout, layout)
	}
	return assembler, nil
}

// ExtractDetail assembles the record of a product detail page
func (s *ExtractionService) ExtractDetail(ctx context.Context, req ExtractionRequest) (*domain.ProductRecord, error) {
	assembler, node, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	record := assembler.Assemble(node)
	s.logger.Debug("detail extracted",
		zap.String("layout", string(record.Marketplace)),
		zap.String("url", req.URL),
		zap.Int("fields", len(record.Provenance)))
	return &record, nil
}

// ExtractListing assembles one record per listing row, numbering rows from 1 in
// document order
func (s *ExtractionService) ExtractListing(ctx context.Context, req ExtractionRequest) ([]domain.ProductRecord, error) {
	assembler, node, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	rows := node.Find(assembler.Layout().ListingRow)
	records := make([]domain.ProductRecord, 0, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records = append(records, assembler.AssembleAt(row, i+1))
	}

	s.logger.Debug("listing extracted",
		zap.String("layout", string(assembler.Layout().Name)),
		zap.String("url", req.URL),
		zap.Int("rows", len(records)))
	return records, nil
}

// ExplainSales classifies text and returns the rule trace behind the decision
func (s *ExtractionService) ExplainSales(text string) (*domain.SalesSignal, SalesTrace) {
	return s.classifier.Explain(text)
}

func (s *ExtractionService) prepare(ctx context.Context, req ExtractionRequest) (*Assembler, domain.ContentNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	assembler, err := s.Assembler(req.Layout)
	if err != nil {
		return nil, nil, err
	}
	if len(strings.TrimSpace(string(req.Body))) == 0 {
		return nil, nil, domain.ErrEmptyDocument
	}
	node, err := s.parser.Parse(req.Body, req.URL)
	if err != nil {
		return nil, nil, err
	}
	return assembler, node, nil
}
