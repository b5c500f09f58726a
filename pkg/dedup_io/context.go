// pkg/dedup_io/context.go

package dedup_io

import (
	"context"
	"time"

	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/dedup_err"
	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/telemetry"
	cerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RuntimeContext carries the per-command context, span and logger.
type RuntimeContext struct {
	Ctx        context.Context
	Log        *zap.Logger
	Timestamp  time.Time
	Span       trace.Span
	Command    string
	Attributes map[string]string
}

// NewContext starts the command span under parent and scopes a logger to it.
func NewContext(parent context.Context, cmdName string) *RuntimeContext {
	if parent == nil {
		parent = context.Background()
	}
	ctx, span := telemetry.Start(parent, cmdName)

	log := logger.L().With(zap.String("command", cmdName))
	if sc := span.SpanContext(); sc.HasTraceID() {
		log = log.With(zap.String("trace_id", sc.TraceID().String()))
	}

	return &RuntimeContext{
		Ctx:        ctx,
		Log:        log,
		Timestamp:  time.Now(),
		Span:       span,
		Command:    cmdName,
		Attributes: make(map[string]string),
	}
}

// HandlePanic recovers panics, logs them, and converts them to an internal
// error. It must be deferred directly.
func (rc *RuntimeContext) HandlePanic(errPtr *error) {
	if r := recover(); r != nil {
		*errPtr = dedup_err.NewInternalError("panic recovered", cerr.AssertionFailedf("panic: %v", r))
		rc.Log.Error("Panic recovered", zap.Any("panic", r), zap.Stack("stack"))
	}
}

// End logs the outcome, closes the span with its attributes, and flushes
// the log.
func (rc *RuntimeContext) End(errPtr *error) {
	defer logger.Sync()
	defer rc.Span.End()

	var err error
	if errPtr != nil {
		err = *errPtr
	}
	duration := time.Since(rc.Timestamp)

	if err == nil {
		rc.Log.Info("Command completed", zap.Duration("duration", duration))
	} else {
		rc.Log.Error("Command failed",
			zap.Duration("duration", duration),
			zap.String("error_type", dedup_err.ErrorType(err)),
			zap.Error(err))
	}

	attrs := []attribute.KeyValue{
		attribute.Bool("success", err == nil),
		attribute.Int64("duration_ms", duration.Milliseconds()),
		attribute.String("error_type", dedup_err.ErrorType(err)),
		attribute.Int("exit_code", dedup_err.GetExitCode(err)),
	}
	for k, v := range rc.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	rc.Span.SetAttributes(attrs...)

	if err != nil {
		rc.Span.SetStatus(codes.Error, dedup_err.ErrorType(err))
	} else {
		rc.Span.SetStatus(codes.Ok, "")
	}
}
