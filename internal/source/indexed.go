package source

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// Locator resolves a feed and date to a ref.
type Locator interface {
	Locate(ctx context.Context, feed, date string) (string, error)
}

// Indexed combines an external index with a ref opener. Refs starting with
// http:// or https:// are downloaded; anything else is read as a local path.
type Indexed struct {
	index  Locator
	client *http.Client
}

// NewIndexed creates a source backed by index.
func NewIndexed(index Locator, timeout time.Duration) *Indexed {
	return &Indexed{index: index, client: newClient(timeout)}
}

// Locate asks the index.
func (s *Indexed) Locate(ctx context.Context, feed, date string) (string, error) {
	return s.index.Locate(ctx, feed, date)
}

// Open reads ref as a URL or a file path.
func (s *Indexed) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if isURL(ref) {
		return openURL(ctx, s.client, ref)
	}
	return openFile(ref)
}

func isURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
