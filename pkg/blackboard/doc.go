// Package blackboard implements chalk's shared-memory store for multi-agent
// task execution. Agents coordinate through a Redis-backed keyed store holding
// plans, per-step results and context descriptions, plus a per-plan index hash
// (the "blackboard") summarizing everything written for that plan.
//
// Keys follow a pipe-delimited grammar validated by ParseKey:
//
//	plan|<uuid>
//	blackboard|<uuid>
//	context|<uuid>|<locator>
//	result|<uuid>|<step-id>|<agent-name>
//
// Plan, blackboard and result keys are lower-cased before storage. Context
// keys embed a locator, which may be a case-sensitive path or URL, so the
// locator part is stored as given.
//
// Every entry the store writes carries a TTL (one hour by default) enforced
// by Redis itself; expired entries are reported as not found.
package blackboard
