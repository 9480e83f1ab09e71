package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrReadOnlyBackend indicates a write-class operation against a backend
// that only supports reads. Permanent.
var ErrReadOnlyBackend = errors.New("backend is read-only")

// HTTPBackend serves http:// and https:// locators via GET requests.
// It is read-only: the cache namespace must live on a writable scheme.
type HTTPBackend struct {
	client *http.Client
}

// NewHTTPBackend creates a backend using the given client.
// A nil client falls back to http.DefaultClient; timeouts are the client's
// concern, not the backend's.
func NewHTTPBackend(client *http.Client) *HTTPBackend {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPBackend{client: client}
}

// Open issues a GET for the locator and returns the response body.
// Network failures and non-2xx responses are transient I/O errors; a locator
// that cannot form a request is a permanent validation error.
func (b *HTTPBackend) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid locator %q: %w", locator, err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, &IOError{Locator: locator, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &IOError{Locator: locator, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	return resp.Body, nil
}

// Write is not supported.
func (b *HTTPBackend) Write(ctx context.Context, locator string, data []byte) error {
	return fmt.Errorf("%s: %w", locator, ErrReadOnlyBackend)
}

// EnsureDir is not supported.
func (b *HTTPBackend) EnsureDir(ctx context.Context, locator string) error {
	return fmt.Errorf("%s: %w", locator, ErrReadOnlyBackend)
}

// List is not supported.
func (b *HTTPBackend) List(ctx context.Context, locator string) ([]EntryInfo, error) {
	return nil, fmt.Errorf("%s: %w", locator, ErrReadOnlyBackend)
}

// Remove is not supported.
func (b *HTTPBackend) Remove(ctx context.Context, locator string) error {
	return fmt.Errorf("%s: %w", locator, ErrReadOnlyBackend)
}
