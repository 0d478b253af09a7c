package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnknownLayout is returned when a layout name does not match a supported marketplace
	ErrUnknownLayout = errors.New("unknown marketplace layout")

	// ErrEmptyDocument is returned when there is no markup to extract from
	ErrEmptyDocument = errors.New("empty document")

	// ErrPageNotFound is returned when the marketplace answers 404 for a detail page
	ErrPageNotFound = errors.New("page not found")

	// ErrFetchFailed is returned when a detail page request fails after retries
	ErrFetchFailed = errors.New("page fetch failed")

	// ErrRateLimited is returned when the fetch limiter refuses to wait
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
