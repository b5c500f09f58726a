// pkg/dedup_io/context_test.go

package dedup_io

import (
	"context"
	"testing"

	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/dedup_err"
	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/telemetry"
	cerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap/zaptest"
)

func setup(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	logger.SetLogger(zaptest.NewLogger(t), "")

	rec := tracetest.NewSpanRecorder()
	telemetry.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { telemetry.SetTracerProvider(noop.NewTracerProvider()) })
	return rec
}

func TestNewContext(t *testing.T) {
	setup(t)

	rc := NewContext(context.Background(), "agentdedup")
	require.NotNil(t, rc)
	assert.Equal(t, "agentdedup", rc.Command)
	assert.NotNil(t, rc.Log)
	assert.NotNil(t, rc.Attributes)
	assert.True(t, rc.Span.SpanContext().IsValid())
	assert.False(t, rc.Timestamp.IsZero())
}

func TestEndRecordsSuccess(t *testing.T) {
	rec := setup(t)

	rc := NewContext(context.Background(), "run")
	rc.Attributes["dry_run"] = "true"
	var err error
	rc.End(&err)

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "run", ended[0].Name())
	assert.Equal(t, codes.Ok, ended[0].Status().Code)

	attrs := map[string]string{}
	for _, kv := range ended[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "true", attrs["success"])
	assert.Equal(t, "true", attrs["dry_run"])
	assert.Equal(t, "0", attrs["exit_code"])
}

func TestEndRecordsFailure(t *testing.T) {
	rec := setup(t)

	rc := NewContext(context.Background(), "run")
	err := dedup_err.NewAuthenticationError(nil, "HTTP 401")
	rc.End(&err)

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "authentication", ended[0].Status().Description)
}

func TestHandlePanic(t *testing.T) {
	setup(t)
	rc := NewContext(context.Background(), "run")

	run := func() (err error) {
		defer rc.HandlePanic(&err)
		panic("boom")
	}

	err := run()
	require.Error(t, err)
	assert.Equal(t, 3, dedup_err.GetExitCode(err))
	assert.Contains(t, err.Error(), "panic: boom")
	assert.True(t, cerr.HasAssertionFailure(err))
}

func TestHandlePanicWithoutPanic(t *testing.T) {
	setup(t)
	rc := NewContext(context.Background(), "run")

	run := func() (err error) {
		defer rc.HandlePanic(&err)
		return cerr.New("plain")
	}

	err := run()
	require.Error(t, err)
	assert.Equal(t, "plain", err.Error())
}
