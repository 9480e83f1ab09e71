// Package cache implements chalk's content-addressed document cache and the
// background evictor that bounds its growth.
//
// Cache entries are keyed by a stable digest of the source locator and stored
// as <cache_path>/<digest>.md through a storage backend. The cache has no
// store-enforced TTL; staleness is handled entirely by the Evictor sweep.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/dyluth/chalk/internal/storage"
)

// Cache is a content-addressed store for converted documents.
// Concurrent writers for the same locator may race; last write wins, and
// content is deterministic for a given locator and converter, so reads are
// never corrupted.
type Cache struct {
	backend storage.Backend
	path    string // cache namespace locator, e.g. file:///var/cache/chalk
	logger  *zap.Logger
}

// New creates a cache rooted at the given namespace locator.
// The backend must match the locator's scheme and be writable.
func New(backend storage.Backend, path string, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		backend: backend,
		path:    path,
		logger:  logger.With(zap.String("component", "cache")),
	}
}

// Key returns the stable cache digest for a locator: identical across runs
// for the same input, distinct for distinct locators. Locators are not
// lower-cased since paths and URLs may be case-sensitive.
func Key(locator string) string {
	sum := md5.Sum([]byte(locator))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) entryPath(locator string) string {
	return c.path + "/" + Key(locator) + ".md"
}

// Read returns the cached text for a locator. ok is false on any miss: no
// entry, an unreadable entry, or content that is empty or not valid text.
// All misses look the same so callers always fall through to a fresh fetch.
func (c *Cache) Read(ctx context.Context, locator string) (text string, ok bool) {
	entry := c.entryPath(locator)

	rc, err := c.backend.Open(ctx, entry)
	if err != nil {
		return "", false
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		c.logger.Debug("cache entry unreadable",
			zap.String("entry", entry),
			zap.Error(err),
		)
		return "", false
	}
	if len(data) == 0 || !utf8.Valid(data) {
		return "", false
	}
	return string(data), true
}

// Write persists text under the locator's digest, creating the cache
// namespace idempotently first. Errors are surfaced to the caller; the fetch
// pipeline treats them as non-fatal since the fetched content is already in
// hand.
func (c *Cache) Write(ctx context.Context, locator, text string) error {
	if err := c.backend.EnsureDir(ctx, c.path); err != nil {
		return fmt.Errorf("failed to create cache namespace: %w", err)
	}
	if err := c.backend.Write(ctx, c.entryPath(locator), []byte(text)); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}
