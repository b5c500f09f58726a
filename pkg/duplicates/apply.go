// pkg/duplicates/apply.go

package duplicates

import (
	"context"

	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/dedup_err"
	cerr "github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Executor carries out removal decisions against the vendor API.
type Executor struct {
	deleter Deleter
}

// NewExecutor returns an Executor that removes agents through d.
func NewExecutor(d Deleter) *Executor {
	return &Executor{deleter: d}
}

// Apply walks the decisions in order. Keep decisions are recorded as kept.
// Remove decisions are logged and, unless dryRun is set, deleted one at a
// time. A failed removal is recorded and the pass continues, except that an
// authentication failure or a cancelled context stops it; in that case the
// partial result is returned with the error and the untouched decisions stay
// pending.
func (e *Executor) Apply(ctx context.Context, decisions []Decision, dryRun bool) (*RunResult, error) {
	log := otelzap.Ctx(ctx)
	result := &RunResult{DryRun: dryRun, Decisions: make([]Decision, 0, len(decisions))}

	tag := "[ACTION]"
	if dryRun {
		tag = "[DRY-RUN]"
	}

	for i, d := range decisions {
		if d.Action != ActionRemove {
			log.Debug(tag+" Keeping agent",
				zap.String("agent_id", d.Agent.ID),
				zap.String("hostname", d.Agent.Hostname),
				zap.String("address", d.Agent.Address),
				zap.String("reason", d.Reason))
			d.Outcome = OutcomeKept
			result.Kept++
			result.Decisions = append(result.Decisions, d)
			continue
		}

		fields := []zap.Field{
			zap.String("agent_id", d.Agent.ID),
			zap.String("hostname", d.Agent.Hostname),
			zap.String("address", d.Agent.Address),
			zap.String("kept_id", d.KeptID),
			zap.String("reason", d.Reason),
			zap.String("stage", string(StageApplying)),
		}

		if dryRun {
			log.Info(tag+" Would remove duplicate agent", fields...)
			d.Outcome = OutcomeWouldRemove
			result.WouldRemove++
			result.Decisions = append(result.Decisions, d)
			continue
		}

		if err := ctx.Err(); err != nil {
			result.fail(d, err)
			result.Decisions = append(result.Decisions, decisions[i+1:]...)
			return result, err
		}

		log.Info(tag+" Removing duplicate agent", fields...)
		status, err := e.deleter.DeleteAgent(ctx, d.Agent.ID)
		switch {
		case err == nil:
			d.Outcome = OutcomeRemoved
			d.Status = &status
			result.Removed++
			result.Decisions = append(result.Decisions, d)
			log.Info(tag+" Agent removed", append(fields, zap.String("response_code", status.ResponseCode))...)

		case dedup_err.IsNotFound(err):
			d.Outcome = OutcomeAlreadyGone
			d.Err = err
			result.AlreadyGone++
			result.Decisions = append(result.Decisions, d)
			log.Warn(tag+" Agent already gone", fields...)

		default:
			result.fail(d, err)
			log.Error(tag+" Failed to remove agent", append(fields, zap.Error(err))...)
			if dedup_err.IsAuthentication(err) || ctx.Err() != nil {
				result.Decisions = append(result.Decisions, decisions[i+1:]...)
				return result, err
			}
		}
	}
	return result, nil
}

func (r *RunResult) fail(d Decision, err error) {
	d.Outcome = OutcomeError
	d.Err = err
	r.Errors++
	r.Decisions = append(r.Decisions, d)
	r.errs = multierror.Append(r.errs, cerr.Wrapf(err, "remove agent %s", d.Agent.ID))
}
