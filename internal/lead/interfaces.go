package lead

import (
	"context"
	"time"
)

// Store holds the current set of business records. Implementations keep an
// ordered id sequence alongside the id lookup so positional addressing works.
type Store interface {
	ReplaceAll(ctx context.Context, records []Business) error
	List(ctx context.Context) ([]Business, error)
	Get(ctx context.Context, id string) (Business, error)
	GetByIndex(ctx context.Context, index int) (Business, error)
	SetWebsite(ctx context.Context, id string, url string) (Business, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// Searcher issues one query against the external search provider.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchItem, error)
	Configured() bool
}

// SearchItem is a single provider result.
type SearchItem struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Discoverer finds a candidate website for a business.
type Discoverer interface {
	Discover(ctx context.Context, businessName string, location string) DiscoveryResult
}

// Verifier checks that a candidate URL is reachable and not blocking
// automated access. Failures are reported as false, never as errors.
type Verifier interface {
	Verify(ctx context.Context, rawURL string) bool
}

// Generator produces text from a prompt via the external generation provider.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Publisher pushes domain events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Hasher computes digests for artifact naming/integrity.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces record IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
