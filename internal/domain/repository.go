package domain

import (
	"context"
	"time"
)

// ContentNode is a read-only handle to one unit of marketplace content
// (a listing row or a detail page). Implementations must be safe for
// concurrent reads.
type ContentNode interface {
	// Text returns the full text content of the node and its descendants.
	Text() string
	// Find returns the descendant nodes matching a structural pattern, in document order.
	Find(pattern string) []ContentNode
	// Matches reports whether the node itself matches a structural pattern.
	Matches(pattern string) bool
	// Attr returns an attribute of the node itself.
	Attr(name string) (string, bool)
	// ResolveLink resolves a hyperlink target against the node's document URL.
	ResolveLink(href string) string
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// PageFetcher retrieves raw detail-page markup
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) ([]byte, error)
}

// DocumentParser turns raw page markup into its root content node
type DocumentParser interface {
	Parse(body []byte, pageURL string) (ContentNode, error)
}
