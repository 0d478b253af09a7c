package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marketlens/backend/internal/domain"
	"github.com/marketlens/backend/internal/usecase"
	"go.uber.org/zap"
)

// Extractor assembles product records from raw page markup
type Extractor interface {
	ExtractDetail(ctx context.Context, req usecase.ExtractionRequest) (*domain.ProductRecord, error)
	ExtractListing(ctx context.Context, req usecase.ExtractionRequest) ([]domain.ProductRecord, error)
	ExplainSales(text string) (*domain.SalesSignal, usecase.SalesTrace)
}

// Enricher fetches and extracts detail pages for a batch of products
type Enricher interface {
	Enrich(ctx context.Context, layout string, refs []domain.ProductRef) ([]domain.EnrichmentResult, error)
}

// HandlerConfig bounds request sizes
type HandlerConfig struct {
	MaxBodyBytes int64
	MaxBatch     int
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	extractor    Extractor
	enricher     Enricher
	maxBodyBytes int64
	maxBatch     int
	logger       *zap.Logger
}

// EnrichRequest is the body of POST /api/v1/products/enrich
type EnrichRequest struct {
	Layout   string              `json:"layout"`
	Products []domain.ProductRef `json:"products" binding:"required,min=1,dive"`
}

// ClassifyRequest is the body of POST /api/v1/classify/sales
type ClassifyRequest struct {
	Text string `json:"text" binding:"required"`
}

// NewHandler creates a new HTTP handler
func NewHandler(extractor Extractor, enricher Enricher, config HandlerConfig, logger *zap.Logger) *Handler {
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = 10 << 20
	}
	if config.MaxBatch <= 0 {
		config.MaxBatch = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		extractor:    extractor,
		enricher:     enricher,
		maxBodyBytes: config.MaxBodyBytes,
		maxBatch:     config.MaxBatch,
		logger:       logger,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "marketlens-backend",
		"version": "1.0.0",
	})
}

// ExtractDetail assembles the record of the detail page posted as the request body
func (h *Handler) ExtractDetail(c *gin.Context) {
	req, ok := h.readPage(c)
	if !ok {
		return
	}

	record, err := h.extractor.ExtractDetail(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// ExtractListing assembles one record per row of the search page posted as the request body
func (h *Handler) ExtractListing(c *gin.Context) {
	req, ok := h.readPage(c)
	if !ok {
		return
	}

	records, err := h.extractor.ExtractListing(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": records,
		"count": len(records),
	})
}

// EnrichProducts fetches detail pages for a batch of products
func (h *Handler) EnrichProducts(c *gin.Context) {
	if h.enricher == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "enrichment is not configured"})
		return
	}

	var req EnrichRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Products) > h.maxBatch {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("at most %d products per request", h.maxBatch),
		})
		return
	}

	results, err := h.enricher.Enrich(c.Request.Context(), req.Layout, req.Products)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// ClassifySales runs the sales classifier on a single text fragment
func (h *Handler) ClassifySales(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	signal, trace := h.extractor.ExplainSales(req.Text)
	c.JSON(http.StatusOK, gin.H{
		"signal": signal,
		"trace":  trace,
	})
}

// readPage reads the raw markup body along with the layout and url query parameters
func (h *Handler) readPage(c *gin.Context) (usecase.ExtractionRequest, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "page body too large"})
			return usecase.ExtractionRequest{}, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read request body"})
		return usecase.ExtractionRequest{}, false
	}

	return usecase.ExtractionRequest{
		Layout: c.Query("layout"),
		URL:    c.Query("url"),
		Body:   body,
	}, true
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUnknownLayout),
		errors.Is(err, domain.ErrEmptyDocument),
		errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
