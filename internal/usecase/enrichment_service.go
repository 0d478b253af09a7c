package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marketlens/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EnrichmentServiceConfig holds configuration for the enrichment service
type EnrichmentServiceConfig struct {
	CacheTTL      time.Duration
	MaxConcurrent int
}

// EnrichmentService fetches detail pages for a batch of products and assembles a
// record for each. One product failing never fails the batch.
type EnrichmentService struct {
	extractor     *ExtractionService
	fetcher       domain.PageFetcher
	cache         domain.CacheRepository
	cacheTTL      time.Duration
	maxConcurrent int
	logger        *zap.Logger
}

// NewEnrichmentService creates an enrichment service with dependencies
func NewEnrichmentService(
	extractor *ExtractionService,
	fetcher domain.PageFetcher,
	cache domain.CacheRepository,
	config EnrichmentServiceConfig,
	logger *zap.Logger,
) *EnrichmentService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 6 * time.Hour
	}
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &EnrichmentService{
		extractor:     extractor,
		fetcher:       fetcher,
		cache:         cache,
		cacheTTL:      cacheTTL,
		maxConcurrent: maxConcurrent,
		logger:        logger.Named("enrichment"),
	}
}

// Enrich returns one result per ref, in input order. Failed fetches leave a nil record
// and an error message on that result. The returned error is only set for an unknown
// layout or a cancelled context.
func (s *EnrichmentService) Enrich(ctx context.Context, layout string, refs []domain.ProductRef) ([]domain.EnrichmentResult, error) {
	assembler, err := s.extractor.Assembler(layout)
	if err != nil {
		return nil, err
	}
	layoutName := assembler.Layout().Name

	results := make([]domain.EnrichmentResult, len(refs))
	var g errgroup.Group
	g.SetLimit(s.maxConcurrent)

	for i, ref := range refs {
		i, ref := i, ref
		results[i].Ref = ref
		g.Go(func() error {
			results[i] = s.enrichOne(ctx, layoutName, ref)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (s *EnrichmentService) enrichOne(ctx context.Context, layout domain.Layout, ref domain.ProductRef) domain.EnrichmentResult {
	result := domain.EnrichmentResult{Ref: ref}
	if ref.URL == "" {
		result.Error = domain.ErrInvalidRequest.Error()
		return result
	}

	cacheKey := generateCacheKey(layout, ref)

	var cached domain.ProductRecord
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		result.Record = &cached
		result.Cached = true
		return result
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		s.logger.Debug("cache read failed", zap.String("key", cacheKey), zap.Error(err))
	}

	if err := ctx.Err(); err != nil {
		result.Error = err.Error()
		return result
	}

	body, err := s.fetcher.FetchPage(ctx, ref.URL)
	if err != nil {
		s.logger.Warn("detail fetch failed",
			zap.String("id", ref.ID),
			zap.String("url", ref.URL),
			zap.Error(err))
		result.Error = err.Error()
		return result
	}

	record, err := s.extractor.ExtractDetail(ctx, ExtractionRequest{
		Layout: string(layout),
		URL:    ref.URL,
		Body:   body,
	})
	if err != nil {
		s.logger.Warn("detail extraction failed",
			zap.String("id", ref.ID),
			zap.String("url", ref.URL),
			zap.Error(err))
		result.Error = err.Error()
		return result
	}

	if record.ID == nil && ref.ID != "" {
		record.ID = strPtr(ref.ID)
		record.Provenance[FieldID] = "request"
	}

	if err := s.cache.Set(ctx, cacheKey, record, s.cacheTTL); err != nil {
		// caching is best effort
		s.logger.Debug("cache write failed", zap.String("key", cacheKey), zap.Error(err))
	}

	result.Record = record
	return result
}

// generateCacheKey builds the cache key of a product's detail record.
// Format: "product:{layout}:{id}", falling back to the URL when the id is unknown.
func generateCacheKey(layout domain.Layout, ref domain.ProductRef) string {
	id := ref.ID
	if id == "" {
		id = ref.URL
	}
	return fmt.Sprintf("product:%s:%s", layout, id)
}
