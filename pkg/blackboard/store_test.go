package blackboard

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a test store connected to a miniredis instance
func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := NewStore(&redis.Options{Addr: mr.Addr()}, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func TestNewStore(t *testing.T) {
	t.Run("creates store successfully", func(t *testing.T) {
		store, _ := setupTestStore(t)
		assert.NotNil(t, store)
		assert.Equal(t, time.Hour, store.ttl)
	})

	t.Run("rejects nil redis options", func(t *testing.T) {
		_, err := NewStore(nil, time.Hour)
		assert.Error(t, err)
	})

	t.Run("defaults non-positive TTL", func(t *testing.T) {
		mr := miniredis.NewMiniRedis()
		require.NoError(t, mr.Start())
		t.Cleanup(mr.Close)

		store, err := NewStore(&redis.Options{Addr: mr.Addr()}, 0)
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		assert.Equal(t, DefaultTTL, store.ttl)
	})
}

func TestPing(t *testing.T) {
	store, _ := setupTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestWritePlan(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	t.Run("writes and reads back a structured plan", func(t *testing.T) {
		planID := "11111111-1111-1111-1111-111111111111"

		err := store.WritePlan(ctx, planID, PlanFromJSON(`{"id":1,"goal":"g","steps":[]}`))
		require.NoError(t, err)

		plan, err := store.ReadPlan(ctx, planID)
		require.NoError(t, err)
		assert.Equal(t, 1, plan.ID)
		assert.Equal(t, "g", plan.Goal)
		assert.Empty(t, plan.Steps)
	})

	t.Run("lower-cases the storage key", func(t *testing.T) {
		planID := uuid.New().String()

		err := store.WritePlan(ctx, strings.ToUpper(planID), PlanFromStruct(&Plan{ID: 2, Goal: "g"}))
		require.NoError(t, err)

		assert.True(t, mr.Exists("plan|"+planID))

		plan, err := store.ReadPlan(ctx, planID)
		require.NoError(t, err)
		assert.Equal(t, 2, plan.ID)
	})

	t.Run("resets TTL on every write", func(t *testing.T) {
		planID := uuid.New().String()

		require.NoError(t, store.WritePlan(ctx, planID, PlanFromStruct(&Plan{ID: 1})))
		mr.FastForward(30 * time.Minute)
		require.NoError(t, store.WritePlan(ctx, planID, PlanFromStruct(&Plan{ID: 1})))
		mr.FastForward(45 * time.Minute)

		// 75 minutes after the first write, but only 45 after the second.
		_, err := store.ReadPlan(ctx, planID)
		assert.NoError(t, err)
	})

	t.Run("rejects invalid plan id", func(t *testing.T) {
		err := store.WritePlan(ctx, "not-a-uuid", PlanFromStruct(&Plan{ID: 1}))
		assert.ErrorIs(t, err, ErrInvalidPlanID)
	})

	t.Run("rejects malformed plan", func(t *testing.T) {
		err := store.WritePlan(ctx, uuid.New().String(), PlanFromJSON("not json"))
		assert.ErrorIs(t, err, ErrMalformedPlan)
	})
}

func TestReadPlanExpiry(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()
	planID := uuid.New().String()

	require.NoError(t, store.WritePlan(ctx, planID, PlanFromStruct(&Plan{ID: 1, Goal: "g"})))

	_, err := store.ReadPlan(ctx, planID)
	require.NoError(t, err)

	mr.FastForward(time.Hour + time.Minute)

	_, err = store.ReadPlan(ctx, planID)
	assert.True(t, IsNotFound(err))
}

func TestUpdateStepStatus(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	newPlan := func(t *testing.T) string {
		planID := uuid.New().String()
		err := store.WritePlan(ctx, planID, PlanFromStruct(&Plan{
			ID:   1,
			Goal: "g",
			Steps: []Step{
				{ID: 1, Agent: AgentRoleResearcher, Prompt: "a"},
				{ID: 2, Agent: AgentRoleCoder, Prompt: "b"},
			},
		}))
		require.NoError(t, err)
		return planID
	}

	t.Run("sets the status of the addressed step only", func(t *testing.T) {
		planID := newPlan(t)

		err := store.UpdateStepStatus(ctx, planID, 1, StepStatusCompleted)
		require.NoError(t, err)

		plan, err := store.ReadPlan(ctx, planID)
		require.NoError(t, err)
		assert.Equal(t, StepStatusCompleted, plan.Steps[0].Status)
		assert.Equal(t, StepStatusPending, plan.Steps[1].Status)
		assert.Equal(t, "a", plan.Steps[0].Prompt)
	})

	t.Run("empty status defaults to completed", func(t *testing.T) {
		planID := newPlan(t)

		err := store.UpdateStepStatus(ctx, planID, 2, "")
		require.NoError(t, err)

		plan, err := store.ReadPlan(ctx, planID)
		require.NoError(t, err)
		assert.Equal(t, StepStatusCompleted, plan.Steps[1].Status)
	})

	t.Run("supports failed transitions", func(t *testing.T) {
		planID := newPlan(t)

		require.NoError(t, store.UpdateStepStatus(ctx, planID, 1, StepStatusFailed))

		plan, err := store.ReadPlan(ctx, planID)
		require.NoError(t, err)
		assert.Equal(t, StepStatusFailed, plan.Steps[0].Status)
	})

	t.Run("fails for a missing plan", func(t *testing.T) {
		err := store.UpdateStepStatus(ctx, uuid.New().String(), 1, StepStatusCompleted)
		assert.ErrorIs(t, err, ErrPlanNotFound)
		assert.True(t, IsNotFound(err))
	})

	t.Run("fails for a step id outside the list", func(t *testing.T) {
		planID := uuid.New().String()
		require.NoError(t, store.WritePlan(ctx, planID, PlanFromJSON(`{"id":1,"goal":"g","steps":[]}`)))

		err := store.UpdateStepStatus(ctx, planID, 1, StepStatusCompleted)
		assert.ErrorIs(t, err, ErrStepNotFound)

		err = store.UpdateStepStatus(ctx, planID, 0, StepStatusCompleted)
		assert.ErrorIs(t, err, ErrStepNotFound)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		planID := newPlan(t)
		err := store.UpdateStepStatus(ctx, planID, 1, StepStatus("paused"))
		assert.Error(t, err)
	})

	t.Run("does not refresh the plan TTL", func(t *testing.T) {
		planID := newPlan(t)

		mr.FastForward(30 * time.Minute)
		require.NoError(t, store.UpdateStepStatus(ctx, planID, 1, StepStatusCompleted))
		mr.FastForward(31 * time.Minute)

		// 61 minutes after the write; the update must not have extended it.
		_, err := store.ReadPlan(ctx, planID)
		assert.True(t, IsNotFound(err))
	})
}

func TestWriteResult(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	t.Run("persists the result and indexes the description", func(t *testing.T) {
		planID := uuid.New().String()

		err := store.WriteResult(ctx, planID, "researcher", 1, "findings", ResultFromJSON(`{"answer":42}`))
		require.NoError(t, err)

		result, err := store.ReadResult(ctx, planID, "researcher", 1)
		require.NoError(t, err)
		assert.JSONEq(t, `{"answer":42}`, string(result))

		entries, err := store.ReadBlackboard(ctx, planID)
		require.NoError(t, err)
		assert.Equal(t, "findings", entries[ResultKey(planID, 1, "researcher")])
	})

	t.Run("lower-cases agent names in keys", func(t *testing.T) {
		planID := uuid.New().String()

		err := store.WriteResult(ctx, planID, "AgentX", 1, "desc", ResultFromValue(map[string]any{"ok": true}))
		require.NoError(t, err)

		result, err := store.ReadResult(ctx, planID, "agentx", 1)
		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":true}`, string(result))
	})

	t.Run("expires after the TTL", func(t *testing.T) {
		planID := uuid.New().String()

		require.NoError(t, store.WriteResult(ctx, planID, "coder", 2, "desc", ResultFromJSON(`"done"`)))

		_, err := store.ReadResult(ctx, planID, "coder", 2)
		require.NoError(t, err)

		mr.FastForward(time.Hour + time.Minute)

		_, err = store.ReadResult(ctx, planID, "coder", 2)
		assert.True(t, IsNotFound(err))
		_, err = store.ReadBlackboard(ctx, planID)
		assert.True(t, IsNotFound(err))
	})

	t.Run("rejects malformed result", func(t *testing.T) {
		err := store.WriteResult(ctx, uuid.New().String(), "coder", 1, "desc", ResultFromJSON("{"))
		assert.ErrorIs(t, err, ErrMalformedResult)
	})
}

func TestWriteContextDescription(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	t.Run("records the description in the blackboard index", func(t *testing.T) {
		planID := uuid.New().String()

		err := store.WriteContextDescription(ctx, planID, "file:///a.txt", "desc")
		require.NoError(t, err)

		entries, err := store.ReadBlackboard(ctx, planID)
		require.NoError(t, err)
		assert.Equal(t, "desc", entries["context|"+planID+"|file:///a.txt"])
	})

	t.Run("preserves locator case", func(t *testing.T) {
		planID := uuid.New().String()

		err := store.WriteContextDescription(ctx, planID, "file:///Docs/Report.PDF", "quarterly report")
		require.NoError(t, err)

		entries, err := store.ReadBlackboard(ctx, planID)
		require.NoError(t, err)
		assert.Contains(t, entries, "context|"+planID+"|file:///Docs/Report.PDF")
	})

	t.Run("refreshes the index TTL on every write", func(t *testing.T) {
		planID := uuid.New().String()

		require.NoError(t, store.WriteContextDescription(ctx, planID, "file:///a.txt", "a"))
		mr.FastForward(45 * time.Minute)
		require.NoError(t, store.WriteContextDescription(ctx, planID, "file:///b.txt", "b"))
		mr.FastForward(45 * time.Minute)

		entries, err := store.ReadBlackboard(ctx, planID)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("rejects empty locator", func(t *testing.T) {
		err := store.WriteContextDescription(ctx, uuid.New().String(), "", "desc")
		assert.Error(t, err)
	})
}

func TestReadBlackboardNotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.ReadBlackboard(context.Background(), uuid.New().String())
	assert.True(t, IsNotFound(err))
}

func TestConcurrentWritesToDifferentKeys(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	planA := uuid.New().String()
	planB := uuid.New().String()

	done := make(chan error, 2)
	go func() {
		done <- store.WritePlan(ctx, planA, PlanFromStruct(&Plan{ID: 1, Goal: "a"}))
	}()
	go func() {
		done <- store.WriteResult(ctx, planB, "coder", 1, "desc", ResultFromJSON(`{}`))
	}()

	assert.NoError(t, <-done)
	assert.NoError(t, <-done)
}
