package blackboard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Delimiter separates the parts of a blackboard key.
const Delimiter = "|"

var (
	// ErrInvalidKeyFormat indicates a key whose kind or part count does not
	// match the key grammar. This is a permanent validation failure.
	ErrInvalidKeyFormat = errors.New("invalid key format")

	// ErrInvalidPlanID indicates a key whose plan id part is not a valid UUID.
	ErrInvalidPlanID = errors.New("invalid plan id")
)

// Kind identifies the namespace a key belongs to.
type Kind string

const (
	KindPlan       Kind = "plan"
	KindBlackboard Kind = "blackboard"
	KindContext    Kind = "context"
	KindResult     Kind = "result"
)

// Validate checks if the Kind is a recognized key namespace.
func (k Kind) Validate() error {
	switch k {
	case KindPlan, KindBlackboard, KindContext, KindResult:
		return nil
	default:
		return fmt.Errorf("unknown key kind: %q", k)
	}
}

// Key is the decomposed, validated form of a blackboard key string.
// Which fields are populated depends on the kind: plan and blackboard keys
// carry only a plan id, context keys add a locator in Secondary, and result
// keys carry the step id in Secondary and the agent name in Tertiary.
type Key struct {
	Kind   Kind
	PlanID string

	// Secondary is the locator for context keys and the step id for result
	// keys. Empty for plan and blackboard keys.
	Secondary string

	// Tertiary is the agent name for result keys. Empty for all other kinds.
	Tertiary string
}

// ParseKey parses and validates a raw key string against the key grammar.
// It is a pure function and preserves the case of every part; callers
// lower-case memory-store keys before parsing (context locators stay
// case-sensitive).
//
// Failures are permanent: a key that does not parse will never parse, so
// callers must not retry.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, Delimiter)

	kind := Kind(parts[0])
	if err := kind.Validate(); err != nil {
		return Key{}, fmt.Errorf("%w: key must start with plan, blackboard, context or result, got %q", ErrInvalidKeyFormat, parts[0])
	}

	switch kind {
	case KindPlan, KindBlackboard:
		if len(parts) != 2 {
			return Key{}, fmt.Errorf("%w: %s key must be in the format %s%s<plan-id>", ErrInvalidKeyFormat, kind, kind, Delimiter)
		}
	case KindContext:
		if len(parts) != 3 {
			return Key{}, fmt.Errorf("%w: context key must be in the format context%s<plan-id>%s<locator>", ErrInvalidKeyFormat, Delimiter, Delimiter)
		}
	case KindResult:
		if len(parts) != 4 {
			return Key{}, fmt.Errorf("%w: result key must be in the format result%s<plan-id>%s<step-id>%s<agent-name>", ErrInvalidKeyFormat, Delimiter, Delimiter, Delimiter)
		}
	}

	if _, err := uuid.Parse(parts[1]); err != nil {
		return Key{}, fmt.Errorf("%w: %q is not a valid UUID", ErrInvalidPlanID, parts[1])
	}

	key := Key{Kind: kind, PlanID: parts[1]}
	if len(parts) > 2 {
		key.Secondary = parts[2]
	}
	if len(parts) > 3 {
		key.Tertiary = parts[3]
	}
	return key, nil
}

// String re-joins the key parts into the canonical key string.
// Parsing a key and calling String reproduces the input.
func (k Key) String() string {
	parts := []string{string(k.Kind), k.PlanID}
	switch k.Kind {
	case KindContext:
		parts = append(parts, k.Secondary)
	case KindResult:
		parts = append(parts, k.Secondary, k.Tertiary)
	}
	return strings.Join(parts, Delimiter)
}

// PlanKey returns the storage key for a plan document.
// Pattern: plan|{plan_id}, lower-cased.
func PlanKey(planID string) string {
	return strings.ToLower("plan" + Delimiter + planID)
}

// BlackboardKey returns the storage key for a plan's blackboard index hash.
// Pattern: blackboard|{plan_id}, lower-cased.
func BlackboardKey(planID string) string {
	return strings.ToLower("blackboard" + Delimiter + planID)
}

// ContextKey returns the blackboard index field key for a context description.
// Pattern: context|{plan_id}|{locator}. The locator may be a case-sensitive
// path or URL, so the key is not lower-cased.
func ContextKey(planID, locator string) string {
	return "context" + Delimiter + planID + Delimiter + locator
}

// ResultKey returns the storage key for a step result.
// Pattern: result|{plan_id}|{step_id}|{agent_name}, lower-cased.
func ResultKey(planID string, stepID int, agentName string) string {
	return strings.ToLower(fmt.Sprintf("result%s%s%s%d%s%s", Delimiter, planID, Delimiter, stepID, Delimiter, agentName))
}
