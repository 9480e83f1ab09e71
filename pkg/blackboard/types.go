package blackboard

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformedPlan indicates a plan payload that is not a JSON document
	// matching the Plan shape. Never retried.
	ErrMalformedPlan = errors.New("plan must be a JSON-serializable object")

	// ErrMalformedResult indicates a result payload that is not a JSON
	// document. Never retried.
	ErrMalformedResult = errors.New("result must be a JSON-serializable object")
)

// StepStatus is the lifecycle state of a plan step.
// Steps start pending and move to completed or failed via UpdateStepStatus.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// Validate checks if the StepStatus is a valid enum value.
func (s StepStatus) Validate() error {
	switch s {
	case StepStatusPending, StepStatusCompleted, StepStatusFailed:
		return nil
	default:
		return fmt.Errorf("unknown step status: %q", s)
	}
}

// AgentRole identifies which kind of agent a step is assigned to.
type AgentRole string

const (
	AgentRolePlanner    AgentRole = "planner"
	AgentRoleResearcher AgentRole = "researcher"
	AgentRoleCoder      AgentRole = "coder"
	AgentRoleReviewer   AgentRole = "reviewer"
	AgentRoleWriter     AgentRole = "writer"
)

// Validate checks if the AgentRole is a valid enum value.
func (r AgentRole) Validate() error {
	switch r {
	case AgentRolePlanner, AgentRoleResearcher, AgentRoleCoder, AgentRoleReviewer, AgentRoleWriter:
		return nil
	default:
		return fmt.Errorf("unknown agent role: %q", r)
	}
}

// Step is a single unit of work within a plan, assigned to one agent role.
// Step ids are 1-indexed by convention; UpdateStepStatus maps them onto the
// 0-indexed Steps slice.
type Step struct {
	ID       int        `json:"id"`
	Agent    AgentRole  `json:"agent"`
	Prompt   string     `json:"prompt"`
	Revision int        `json:"revision"` // incremented by callers on each update
	Status   StepStatus `json:"status"`

	// DependsOn lists step ids within the same plan this step waits on.
	// Cycles and cross-plan references are not validated here.
	DependsOn []int `json:"depends_on,omitempty"`
}

// Plan is the structured multi-step task description coordinated across agents.
type Plan struct {
	ID    int    `json:"id"`
	Goal  string `json:"goal"`
	Steps []Step `json:"steps"`
}

// Validate checks the enum fields of every step.
// depends_on references are deliberately left unvalidated.
func (p *Plan) Validate() error {
	for i, step := range p.Steps {
		if err := step.Agent.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		if err := step.Status.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

// PlanSource is a tagged input for WritePlan: either a raw JSON document or
// an already-structured plan. Resolve decodes and validates exactly once at
// the API edge so internal paths only ever see the structured form.
type PlanSource struct {
	raw  string
	plan *Plan
}

// PlanFromJSON wraps a JSON-encoded plan document.
func PlanFromJSON(raw string) PlanSource {
	return PlanSource{raw: raw}
}

// PlanFromStruct wraps an already-structured plan.
func PlanFromStruct(plan *Plan) PlanSource {
	return PlanSource{plan: plan}
}

// Resolve produces the structured plan, failing with ErrMalformedPlan if the
// payload does not decode or validate against the Plan shape. Steps with an
// empty status are normalized to pending.
func (s PlanSource) Resolve() (*Plan, error) {
	var plan Plan
	if s.plan != nil {
		plan = *s.plan
		plan.Steps = append([]Step(nil), s.plan.Steps...)
	} else {
		if err := json.Unmarshal([]byte(s.raw), &plan); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
		}
	}

	for i := range plan.Steps {
		if plan.Steps[i].Status == "" {
			plan.Steps[i].Status = StepStatusPending
		}
	}

	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}
	return &plan, nil
}

// ResultSource is a tagged input for WriteResult: either a raw JSON document
// or any JSON-serializable value. Resolve canonicalizes to the encoded JSON
// exactly once at the API edge.
type ResultSource struct {
	raw     string
	value   any
	isValue bool
}

// ResultFromJSON wraps a JSON-encoded result document.
func ResultFromJSON(raw string) ResultSource {
	return ResultSource{raw: raw}
}

// ResultFromValue wraps a JSON-serializable result value.
func ResultFromValue(value any) ResultSource {
	return ResultSource{value: value, isValue: true}
}

// Resolve produces the canonical JSON encoding of the result, failing with
// ErrMalformedResult if the payload is not valid JSON.
func (s ResultSource) Resolve() (json.RawMessage, error) {
	if s.isValue {
		data, err := json.Marshal(s.value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResult, err)
		}
		return data, nil
	}
	if !json.Valid([]byte(s.raw)) {
		return nil, fmt.Errorf("%w: payload is not valid JSON", ErrMalformedResult)
	}
	return json.RawMessage(s.raw), nil
}
