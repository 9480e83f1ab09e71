package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/dyluth/chalk/internal/cache"
	"github.com/dyluth/chalk/internal/config"
	"github.com/dyluth/chalk/internal/storage"
)

var (
	// ErrEmptyConversion indicates the converter produced no text.
	// Not retried: the same input would fail the same way.
	ErrEmptyConversion = errors.New("conversion produced no text")

	// ErrNonTextConversion indicates the converter produced output that is
	// not valid text. Not retried.
	ErrNonTextConversion = errors.New("conversion produced non-text output")
)

// RetryPolicy bounds the pipeline's retry behavior for transient I/O
// failures. Attempts are spaced by exponential backoff starting at
// InitialInterval and doubling each time.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
}

// DefaultRetryPolicy mirrors the configured defaults: 3 attempts, 500ms
// initial backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialInterval: 500 * time.Millisecond}
}

// Fetcher reads a document from its storage backend, converts it to text and
// caches the result. It is the single retry boundary in the fetch path.
type Fetcher struct {
	registry  *storage.Registry
	converter Converter
	cache     *cache.Cache
	convCfg   config.ConverterConfig
	retry     RetryPolicy
	logger    *zap.Logger
}

// New creates a fetcher. A zero retry policy falls back to the defaults.
func New(registry *storage.Registry, converter Converter, c *cache.Cache, convCfg config.ConverterConfig, retry RetryPolicy, logger *zap.Logger) *Fetcher {
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = DefaultRetryPolicy().MaxAttempts
	}
	if retry.InitialInterval <= 0 {
		retry.InitialInterval = DefaultRetryPolicy().InitialInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		registry:  registry,
		converter: converter,
		cache:     c,
		convCfg:   convCfg,
		retry:     retry,
		logger:    logger.With(zap.String("component", "fetch")),
	}
}

// Fetch loads the document at locator and returns its normalized text.
//
// With useCache, a cache hit returns immediately with no backend or
// converter call. On a miss the raw bytes are read from the locator's
// backend, converted, and the result written back to the cache best-effort:
// a cache write failure is logged but never fails the fetch.
//
// Only transient I/O failures are retried. Validation failures (empty
// locator, unknown scheme) and conversion failures propagate immediately.
// Retries run to completion or exhaustion; they are not cancelled mid-backoff.
func (f *Fetcher) Fetch(ctx context.Context, locator string, useCache bool) (string, error) {
	backend, err := f.registry.ForLocator(locator)
	if err != nil {
		return "", err
	}
	opts := OptionsFor(locator, f.convCfg)

	var raw []byte
	var cached string
	fromCache := false

	load := func() error {
		if useCache {
			if text, ok := f.cache.Read(ctx, locator); ok {
				cached = text
				fromCache = true
				return nil
			}
		}

		rc, err := backend.Open(ctx, locator)
		if err != nil {
			if storage.IsTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return &storage.IOError{Locator: locator, Err: err}
		}
		raw = data
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = f.retry.InitialInterval
	bo.Multiplier = 2
	bo.RandomizationFactor = 0

	if err := backoff.Retry(load, backoff.WithMaxRetries(bo, uint64(f.retry.MaxAttempts-1))); err != nil {
		return "", fmt.Errorf("failed to load %s: %w", locator, err)
	}

	if fromCache {
		return cached, nil
	}

	text, err := f.converter.Convert(ctx, raw, opts)
	if err != nil {
		return "", fmt.Errorf("failed to convert %s: %w", locator, err)
	}
	if text == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyConversion, locator)
	}
	if !utf8.ValidString(text) {
		return "", fmt.Errorf("%w: %s", ErrNonTextConversion, locator)
	}

	if useCache {
		if err := f.cache.Write(ctx, locator, text); err != nil {
			f.logger.Warn("failed to cache converted document",
				zap.String("locator", locator),
				zap.Error(err),
			)
		}
	}
	return text, nil
}
