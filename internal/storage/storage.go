// Package storage provides scheme-keyed access to the locations chalk reads
// documents from and writes its cache to. Each URL scheme maps to a Backend
// implementation; a Registry resolves locators like file:///a.txt or
// s3://bucket/doc.pdf to the backend configured for their scheme.
//
// Backends classify failures: transient I/O problems are wrapped in IOError
// so the fetch pipeline can retry them, while locator and scheme validation
// failures are returned plain and must never be retried.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// ErrEmptyLocator indicates an empty locator string. Permanent.
var ErrEmptyLocator = errors.New("locator cannot be empty")

// EntryInfo describes a single entry in a listed namespace.
// A zero ModTime means the backend could not determine the entry's creation
// or modification time; the evictor treats such entries as fresh.
type EntryInfo struct {
	Path    string // full locator of the entry
	ModTime time.Time
}

// Backend is the per-scheme contract for reading and writing documents.
// Implementations interpret the full locator, including the scheme prefix.
type Backend interface {
	// Open returns a reader for the locator's content.
	Open(ctx context.Context, locator string) (io.ReadCloser, error)

	// Write persists data under the locator, overwriting previous content.
	Write(ctx context.Context, locator string, data []byte) error

	// EnsureDir idempotently creates the namespace named by the locator,
	// including parents. A no-op for backends without directories.
	EnsureDir(ctx context.Context, locator string) error

	// List returns the entries directly under the locator.
	List(ctx context.Context, locator string) ([]EntryInfo, error)

	// Remove deletes the entry at the locator.
	Remove(ctx context.Context, locator string) error
}

// IOError marks a transient I/O failure: backend unreachable, read or write
// error. The fetch pipeline retries these with backoff.
type IOError struct {
	Locator string
	Err     error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to access %s: %v", e.Locator, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is an I/O failure worth retrying.
func IsTransient(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}

// SplitLocator splits a locator into its scheme and path parts.
// Fails with ErrEmptyLocator for empty input and a plain validation error
// for locators without a scheme prefix.
func SplitLocator(locator string) (scheme, path string, err error) {
	if locator == "" {
		return "", "", ErrEmptyLocator
	}
	scheme, path, ok := strings.Cut(locator, "://")
	if !ok || scheme == "" {
		return "", "", fmt.Errorf("locator %q has no scheme prefix", locator)
	}
	return scheme, path, nil
}

// Registry maps URL schemes to configured backends.
type Registry struct {
	backends map[string]Backend
}

// NewRegistry creates an empty backend registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Register associates a scheme with a backend, replacing any previous one.
func (r *Registry) Register(scheme string, backend Backend) {
	r.backends[scheme] = backend
}

// Schemes returns the registered schemes in sorted order.
func (r *Registry) Schemes() []string {
	schemes := make([]string, 0, len(r.backends))
	for scheme := range r.backends {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}

// ForLocator resolves the backend for a locator's scheme.
// Unknown schemes fail with a validation error naming the supported schemes.
func (r *Registry) ForLocator(locator string) (Backend, error) {
	scheme, _, err := SplitLocator(locator)
	if err != nil {
		return nil, err
	}
	backend, ok := r.backends[scheme]
	if !ok {
		return nil, fmt.Errorf("unsupported scheme: %s, supported: %s", scheme, strings.Join(r.Schemes(), ", "))
	}
	return backend, nil
}
