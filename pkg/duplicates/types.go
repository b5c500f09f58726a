// pkg/duplicates/types.go

// Package duplicates finds cloud agents registered more than once for the
// same host and removes all but one registration per host.
//
// A run is strictly sequential:
//
//	Fetching -> Detecting -> Resolving -> Applying -> Done
//
// and any stage may end the run in Failed. Nothing is persisted between runs.
package duplicates

import (
	"context"

	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/agents"
	"github.com/hashicorp/go-multierror"
)

// Lister produces the complete agent inventory.
type Lister interface {
	ListAgents(ctx context.Context) ([]agents.Agent, error)
}

// Deleter removes one agent registration.
type Deleter interface {
	DeleteAgent(ctx context.Context, id string) (agents.RemovalStatus, error)
}

// API is the vendor surface a Runner needs.
type API interface {
	Lister
	Deleter
}

// Group is a set of two or more agents sharing one identity key, in the
// order they were first seen.
type Group struct {
	Key    agents.Key
	Agents []agents.Agent
}

// Action is what a decision asks for.
type Action string

const (
	ActionKeep   Action = "keep"
	ActionRemove Action = "remove"
)

// Outcome is what happened to a decision once applied.
type Outcome string

const (
	OutcomePending     Outcome = "pending"
	OutcomeKept        Outcome = "kept"
	OutcomeRemoved     Outcome = "removed"
	OutcomeWouldRemove Outcome = "would_remove"
	OutcomeAlreadyGone Outcome = "already_gone"
	OutcomeError       Outcome = "error"
)

// Decision pairs an agent with an action and, after Apply, its outcome.
type Decision struct {
	Agent   agents.Agent
	Action  Action
	Reason  string
	KeptID  string
	Outcome Outcome
	Status  *agents.RemovalStatus
	Err     error
}

// Stage is a step of the run state machine.
type Stage string

const (
	StageFetching  Stage = "fetching"
	StageDetecting Stage = "detecting"
	StageResolving Stage = "resolving"
	StageApplying  Stage = "applying"
	StageDone      Stage = "done"
	StageFailed    Stage = "failed"
)

// RunResult aggregates the counts and decisions of one run.
type RunResult struct {
	DryRun      bool
	Stage       Stage
	Fetched     int
	Groups      int
	Kept        int
	Removed     int
	WouldRemove int
	AlreadyGone int
	Errors      int
	Decisions   []Decision

	errs *multierror.Error
}

// Err returns every removal failure combined, or nil.
func (r *RunResult) Err() error {
	if r == nil {
		return nil
	}
	return r.errs.ErrorOrNil()
}

// Failed returns the decisions that ended in error.
func (r *RunResult) Failed() []Decision {
	var out []Decision
	for _, d := range r.Decisions {
		if d.Outcome == OutcomeError {
			out = append(out, d)
		}
	}
	return out
}

func (r *RunResult) absorb(applied *RunResult) {
	if applied == nil {
		return
	}
	r.Kept += applied.Kept
	r.Removed += applied.Removed
	r.WouldRemove += applied.WouldRemove
	r.AlreadyGone += applied.AlreadyGone
	r.Errors += applied.Errors
	r.Decisions = append(r.Decisions, applied.Decisions...)
	if applied.errs != nil {
		r.errs = multierror.Append(r.errs, applied.errs.Errors...)
	}
}
