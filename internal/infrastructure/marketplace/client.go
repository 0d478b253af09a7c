// Package marketplace fetches product detail pages from marketplace hosts.
package marketplace

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/marketlens/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	maxAttempts = 3
	// maxPageBytes bounds how much of a detail page is read into memory
	maxPageBytes = 8 << 20
)

// ClientConfig holds the fetcher's tunables
type ClientConfig struct {
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
	RatePerSecond  float64
	Burst          int
}

// Client retrieves detail pages with a shared rate limit and retries on transient failures
type Client struct {
	httpClient     *http.Client
	rateLimiter    *rate.Limiter
	userAgent      string
	acceptLanguage string
	logger         *zap.Logger
	debug          bool
	// sleep waits between attempts; replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

var _ domain.PageFetcher = (*Client)(nil)

// NewClient creates a marketplace client. Zero config values fall back to defaults.
func NewClient(config ClientConfig, logger *zap.Logger) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 20 * time.Second
	}
	if config.RatePerSecond <= 0 {
		config.RatePerSecond = 2
	}
	if config.Burst <= 0 {
		config.Burst = 4
	}
	if config.UserAgent == "" {
		config.UserAgent = "Mozilla/5.0 (compatible; MarketLens/1.0)"
	}
	if config.AcceptLanguage == "" {
		config.AcceptLanguage = "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient:     &http.Client{Timeout: config.Timeout},
		rateLimiter:    rate.NewLimiter(rate.Limit(config.RatePerSecond), config.Burst),
		userAgent:      config.UserAgent,
		acceptLanguage: config.AcceptLanguage,
		logger:         logger.Named("marketplace"),
		sleep:          sleepContext,
	}
}

// SetDebug enables per-attempt request logging
func (c *Client) SetDebug(enabled bool) {
	c.debug = enabled
}

// FetchPage returns the body of a detail page.
// 404 maps to domain.ErrPageNotFound; exhausted retries and other client errors map to
// domain.ErrFetchFailed.
func (c *Client) FetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
		}

		body, retry, err := c.fetchOnce(ctx, pageURL)
		if err == nil {
			if c.debug {
				c.logger.Debug("page fetched",
					zap.String("url", pageURL),
					zap.Int("attempt", attempt),
					zap.Int("bytes", len(body)))
			}
			return body, nil
		}
		if !retry {
			return nil, err
		}

		lastErr = err
		c.logger.Warn("page fetch attempt failed",
			zap.String("url", pageURL),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < maxAttempts {
			if err := c.sleep(ctx, exponentialBackoff(attempt)); err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
			}
		}
	}
	return nil, lastErr
}

// fetchOnce performs a single request and reports whether a failure is worth retrying
func (c *Client) fetchOnce(ctx context.Context, pageURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", c.acceptLanguage)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, fmt.Errorf("%w: %v", domain.ErrFetchFailed, ctx.Err())
		}
		return nil, true, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
		if err != nil {
			return nil, true, fmt.Errorf("%w: read body: %v", domain.ErrFetchFailed, err)
		}
		return body, false, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, domain.ErrPageNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, true, fmt.Errorf("%w: status %d", domain.ErrFetchFailed, resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("%w: status %d", domain.ErrFetchFailed, resp.StatusCode)
	}
}

// exponentialBackoff returns the wait before the next attempt: 500ms, 1s, 2s
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
