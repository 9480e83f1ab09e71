package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dyluth/chalk/internal/storage"
)

// DefaultMaxAge is the age beyond which cache entries are evicted.
const DefaultMaxAge = time.Hour

// Evictor removes cache entries older than a configurable age.
// It runs independently of foreground fetches; per-entry atomicity in the
// backend makes locking unnecessary.
type Evictor struct {
	backend storage.Backend
	path    string
	maxAge  time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewEvictor creates an evictor for the cache namespace at path.
// A non-positive maxAge falls back to DefaultMaxAge.
func NewEvictor(backend storage.Backend, path string, maxAge time.Duration, logger *zap.Logger) *Evictor {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evictor{
		backend: backend,
		path:    path,
		maxAge:  maxAge,
		logger:  logger.With(zap.String("component", "evictor")),
		now:     time.Now,
	}
}

// Sweep performs a single eviction pass: it lists the cache namespace and
// removes every entry older than the threshold. Entries whose age cannot be
// determined (zero mod time) count as age 0 and survive.
//
// Listing or deletion errors abort the sweep; the caller logs the error and
// the next scheduled run retries.
func (e *Evictor) Sweep(ctx context.Context) error {
	entries, err := e.backend.List(ctx, e.path)
	if err != nil {
		return fmt.Errorf("failed to list cache entries: %w", err)
	}

	now := e.now()
	removed := 0
	for _, entry := range entries {
		var age time.Duration
		if !entry.ModTime.IsZero() {
			age = now.Sub(entry.ModTime)
		}
		if age <= e.maxAge {
			continue
		}
		if err := e.backend.Remove(ctx, entry.Path); err != nil {
			return fmt.Errorf("failed to remove stale entry %s: %w", entry.Path, err)
		}
		removed++
	}

	if removed > 0 {
		e.logger.Info("removed stale cache entries",
			zap.Int("count", removed),
			zap.Duration("max_age", e.maxAge),
		)
	}
	return nil
}

// Run executes Sweep on a recurring schedule aligned to the top of the hour,
// until ctx is cancelled. Sweep failures are logged, never fatal; the next
// scheduled run retries.
func (e *Evictor) Run(ctx context.Context) {
	for {
		next := e.now().Truncate(time.Hour).Add(time.Hour)
		timer := time.NewTimer(next.Sub(e.now()))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := e.Sweep(ctx); err != nil {
			e.logger.Warn("cache sweep failed", zap.Error(err))
		}
	}
}
