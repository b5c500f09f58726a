// pkg/duplicates/run.go

package duplicates

import (
	"context"

	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Runner drives one fetch, detect, resolve, apply pass.
type Runner struct {
	api    API
	dryRun bool
}

// NewRunner returns a Runner. In dry-run mode no delete is ever issued.
func NewRunner(api API, dryRun bool) *Runner {
	return &Runner{api: api, dryRun: dryRun}
}

// Run executes the full pass. The returned result is never nil; on failure
// its Stage is StageFailed and it holds whatever was completed. Removal
// failures that did not stop the pass are reported through result.Err, not
// the returned error.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	log := otelzap.Ctx(ctx)
	result := &RunResult{DryRun: r.dryRun}

	if r.dryRun {
		log.Info("Running in dry-run mode; no agents will be removed")
	}

	enter(ctx, result, StageFetching)
	list, err := r.api.ListAgents(ctx)
	if err != nil {
		return r.fail(ctx, result, err)
	}
	result.Fetched = len(list)
	log.Info("Fetched agents", zap.Int("count", len(list)))

	if len(list) == 0 {
		log.Info("No agents found to process")
		enter(ctx, result, StageDone)
		return result, nil
	}

	enter(ctx, result, StageDetecting)
	groups := FindDuplicates(list)
	result.Groups = len(groups)
	if len(groups) == 0 {
		log.Info("No duplicate agents found")
	}
	for _, g := range groups {
		ids := make([]string, 0, len(g.Agents))
		for _, a := range g.Agents {
			ids = append(ids, a.ID)
		}
		log.Info("Duplicate agents found",
			zap.String("hostname", g.Key.Hostname),
			zap.String("address", g.Key.Address),
			zap.Int("count", len(g.Agents)),
			zap.Strings("agent_ids", ids))
	}

	enter(ctx, result, StageResolving)
	decisions := planFor(list, groups)
	removals := 0
	for _, d := range decisions {
		if d.Action == ActionRemove {
			removals++
		}
	}
	log.Info("Resolved duplicate groups",
		zap.Int("decisions", len(decisions)),
		zap.Int("marked_for_removal", removals))

	enter(ctx, result, StageApplying)
	applied, err := NewExecutor(r.api).Apply(ctx, decisions, r.dryRun)
	result.absorb(applied)
	if err != nil {
		return r.fail(ctx, result, err)
	}

	enter(ctx, result, StageDone)
	log.Info("Run complete", countFields(result)...)
	return result, nil
}

// countFields is the aggregate logged at the end of every run, failed or not.
func countFields(result *RunResult) []zap.Field {
	return []zap.Field{
		zap.Bool("dry_run", result.DryRun),
		zap.Int("fetched", result.Fetched),
		zap.Int("groups", result.Groups),
		zap.Int("kept", result.Kept),
		zap.Int("removed", result.Removed),
		zap.Int("would_remove", result.WouldRemove),
		zap.Int("already_gone", result.AlreadyGone),
		zap.Int("errors", result.Errors),
	}
}

func enter(ctx context.Context, result *RunResult, stage Stage) {
	result.Stage = stage
	otelzap.Ctx(ctx).Debug("Run stage", zap.String("stage", string(stage)))
}

func (r *Runner) fail(ctx context.Context, result *RunResult, err error) (*RunResult, error) {
	stage := result.Stage
	result.Stage = StageFailed
	fields := append([]zap.Field{
		zap.String("stage", string(stage)),
		zap.Error(err),
	}, countFields(result)...)
	otelzap.Ctx(ctx).Error("Run failed", fields...)
	return result, cerr.Wrapf(err, "%s agents", stage)
}
