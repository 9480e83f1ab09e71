package blackboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is the expiry applied to every blackboard-namespace write.
const DefaultTTL = time.Hour

var (
	// ErrPlanNotFound indicates an operation against a plan key that does
	// not exist or has expired.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrStepNotFound indicates a step id that maps outside the plan's step
	// list. Step ids are 1-indexed against a 0-indexed slice; an id of n
	// addresses Steps[n-1].
	ErrStepNotFound = errors.New("step index out of range")
)

// Store is the keyed shared-memory store backed by Redis.
// All entries it writes expire after the configured TTL. The store is safe
// for concurrent use; Redis provides per-key atomicity, and writes to
// different keys never block each other.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore creates a blackboard store from explicit Redis connection options.
// A non-positive ttl falls back to DefaultTTL. The caller owns the store's
// lifecycle and must Close it when done.
func NewStore(redisOpts *redis.Options, ttl time.Duration) (*Store, error) {
	if redisOpts == nil {
		return nil, fmt.Errorf("redis options cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		rdb: redis.NewClient(redisOpts),
		ttl: ttl,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// WritePlan persists the full plan document under plan|{plan_id} and resets
// its TTL. The plan source is resolved and validated at this edge; malformed
// payloads fail with ErrMalformedPlan and are never retried.
func (s *Store) WritePlan(ctx context.Context, planID string, src PlanSource) error {
	if err := validatePlanID(planID); err != nil {
		return err
	}

	plan, err := src.Resolve()
	if err != nil {
		return err
	}

	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}

	if err := s.rdb.Set(ctx, PlanKey(planID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write plan to Redis: %w", err)
	}
	return nil
}

// UpdateStepStatus sets the status of a single step, leaving every other
// field untouched. An empty status defaults to completed.
//
// Step ids are 1-indexed while the step list is 0-indexed; this off-by-one
// convention is preserved for compatibility and the id is only checked
// against the list bounds, not against the steps' own id fields.
//
// Unlike the write operations, this does not refresh the plan's TTL: the
// remaining expiry is carried over unchanged.
func (s *Store) UpdateStepStatus(ctx context.Context, planID string, stepID int, status StepStatus) error {
	if err := validatePlanID(planID); err != nil {
		return err
	}
	if status == "" {
		status = StepStatusCompleted
	}
	if err := status.Validate(); err != nil {
		return err
	}

	key := PlanKey(planID)
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %s", ErrPlanNotFound, planID)
		}
		return fmt.Errorf("failed to read plan from Redis: %w", err)
	}

	var plan Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return fmt.Errorf("stored plan is not decodable: %w", err)
	}

	idx := stepID - 1
	if idx < 0 || idx >= len(plan.Steps) {
		return fmt.Errorf("%w: plan %s has no step %d", ErrStepNotFound, planID, stepID)
	}
	plan.Steps[idx].Status = status

	out, err := json.Marshal(&plan)
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}

	// Carry the remaining TTL over; a status update must not extend the
	// plan's life. PTTL returns a negative value for keys without expiry.
	remaining, err := s.rdb.PTTL(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to read plan TTL: %w", err)
	}
	if remaining < 0 {
		remaining = 0
	}

	if err := s.rdb.Set(ctx, key, out, remaining).Err(); err != nil {
		return fmt.Errorf("failed to write plan to Redis: %w", err)
	}
	return nil
}

// WriteResult persists a step result under result|{plan_id}|{step_id}|{agent}
// (lower-cased) with the store TTL, and records description in the plan's
// blackboard index hash under the same key, refreshing the index TTL.
func (s *Store) WriteResult(ctx context.Context, planID, agentName string, stepID int, description string, src ResultSource) error {
	if err := validatePlanID(planID); err != nil {
		return err
	}

	data, err := src.Resolve()
	if err != nil {
		return err
	}

	indexKey := BlackboardKey(planID)
	resultKey := ResultKey(planID, stepID, agentName)

	if err := s.rdb.HSet(ctx, indexKey, resultKey, description).Err(); err != nil {
		return fmt.Errorf("failed to write blackboard index: %w", err)
	}
	if err := s.rdb.Expire(ctx, indexKey, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to refresh blackboard index TTL: %w", err)
	}
	if err := s.rdb.Set(ctx, resultKey, []byte(data), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write result to Redis: %w", err)
	}
	return nil
}

// WriteContextDescription records a description for a context locator in the
// plan's blackboard index hash, refreshing the index TTL. The authoritative
// content lives in the fetch cache; the index only summarizes it.
func (s *Store) WriteContextDescription(ctx context.Context, planID, locator, description string) error {
	if err := validatePlanID(planID); err != nil {
		return err
	}
	if locator == "" {
		return fmt.Errorf("locator cannot be empty")
	}

	indexKey := BlackboardKey(planID)
	if err := s.rdb.HSet(ctx, indexKey, ContextKey(planID, locator), description).Err(); err != nil {
		return fmt.Errorf("failed to write blackboard index: %w", err)
	}
	if err := s.rdb.Expire(ctx, indexKey, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to refresh blackboard index TTL: %w", err)
	}
	return nil
}

// ReadPlan retrieves a plan by id.
// Returns (nil, redis.Nil) if the plan doesn't exist or has expired.
// Use IsNotFound() to check for not-found errors.
func (s *Store) ReadPlan(ctx context.Context, planID string) (*Plan, error) {
	if err := validatePlanID(planID); err != nil {
		return nil, err
	}

	data, err := s.rdb.Get(ctx, PlanKey(planID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, redis.Nil
		}
		return nil, fmt.Errorf("failed to read plan from Redis: %w", err)
	}

	var plan Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to decode stored plan: %w", err)
	}
	return &plan, nil
}

// ReadResult retrieves the raw JSON result written for a plan/step/agent.
// Returns (nil, redis.Nil) if no result exists or it has expired.
func (s *Store) ReadResult(ctx context.Context, planID, agentName string, stepID int) (json.RawMessage, error) {
	if err := validatePlanID(planID); err != nil {
		return nil, err
	}

	data, err := s.rdb.Get(ctx, ResultKey(planID, stepID, agentName)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, redis.Nil
		}
		return nil, fmt.Errorf("failed to read result from Redis: %w", err)
	}
	return json.RawMessage(data), nil
}

// ReadBlackboard retrieves a plan's full blackboard index: a map of entry
// key to the short description recorded when the entry was written.
// Returns (nil, redis.Nil) if the plan has no index or it has expired.
func (s *Store) ReadBlackboard(ctx context.Context, planID string) (map[string]string, error) {
	if err := validatePlanID(planID); err != nil {
		return nil, err
	}

	entries, err := s.rdb.HGetAll(ctx, BlackboardKey(planID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read blackboard index from Redis: %w", err)
	}

	// HGetAll returns an empty map for non-existent keys.
	if len(entries) == 0 {
		return nil, redis.Nil
	}
	return entries, nil
}

// IsNotFound returns true if the error reports a missing or expired entry.
// Use this to distinguish "absent" from real failures on the read paths and
// on UpdateStepStatus.
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil) || errors.Is(err, ErrPlanNotFound)
}

func validatePlanID(planID string) error {
	if _, err := uuid.Parse(planID); err != nil {
		return fmt.Errorf("%w: %q is not a valid UUID", ErrInvalidPlanID, planID)
	}
	return nil
}
