// pkg/telemetry/telemetry.go
package telemetry

import (
	"context"
	"os"
	"path/filepath"

	cerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// EnvTelemetryFile names the JSONL file spans are exported to. Tracing is a
// noop when it is unset.
const EnvTelemetryFile = "AGENTDEDUP_TELEMETRY_FILE"

const instrumentation = "github.com/CodeMonkeyCybersecurity/agentdedup"

var tracer trace.Tracer = noop.NewTracerProvider().Tracer(instrumentation)

// Shutdown flushes and closes the exporter.
type Shutdown func(context.Context) error

// Init configures OpenTelemetry; call this early in main().
func Init(service string) (Shutdown, error) {
	path := os.Getenv(EnvTelemetryFile)
	if path == "" {
		SetTracerProvider(noop.NewTracerProvider())
		return func(context.Context) error { return nil }, nil
	}
	return InitFile(service, path)
}

// InitFile exports spans as JSON lines appended to path.
func InitFile(service, path string) (Shutdown, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, cerr.Wrap(err, "failed to create telemetry directory")
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, cerr.Wrap(err, "failed to open telemetry file")
	}

	exp, err := stdouttrace.New(
		stdouttrace.WithWriter(file),
		stdouttrace.WithoutTimestamps(),
	)
	if err != nil {
		_ = file.Close()
		return nil, cerr.Wrap(err, "failed to create file exporter")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(
			sdkresource.NewWithAttributes(
				semconv.SchemaURL,
				semconv.ServiceName(service),
				attribute.String("host.name", hostname()),
			),
		),
	)
	SetTracerProvider(tp)

	return func(ctx context.Context) error {
		return cerr.CombineErrors(tp.Shutdown(ctx), file.Close())
	}, nil
}

// SetTracerProvider installs tp globally and for Start.
func SetTracerProvider(tp trace.TracerProvider) {
	otel.SetTracerProvider(tp)
	tracer = tp.Tracer(instrumentation)
}

// Start a telemetry span with optional attributes.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// RunCounts are the totals of one duplicate removal run.
type RunCounts struct {
	DryRun      bool
	Fetched     int
	Groups      int
	Removed     int
	WouldRemove int
	AlreadyGone int
	Errors      int
}

// RecordRun adds the run totals to the run counters and to the span in ctx.
func RecordRun(ctx context.Context, c RunCounts) error {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Bool("run.dry_run", c.DryRun),
		attribute.Int("agents.fetched", c.Fetched),
		attribute.Int("duplicates.groups", c.Groups),
		attribute.Int("agents.removed", c.Removed),
		attribute.Int("agents.would_remove", c.WouldRemove),
		attribute.Int("agents.already_gone", c.AlreadyGone),
		attribute.Int("removal.errors", c.Errors),
	)

	meter := otel.Meter(instrumentation)
	mode := metric.WithAttributes(attribute.Bool("dry_run", c.DryRun))

	counters := []struct {
		name  string
		desc  string
		value int
	}{
		{"agents.fetched", "Agents returned by the inventory search", c.Fetched},
		{"duplicates.groups", "Hosts with more than one agent registration", c.Groups},
		{"agents.removed", "Duplicate agents uninstalled", c.Removed},
		{"agents.would_remove", "Duplicate agents a dry run would uninstall", c.WouldRemove},
		{"removal.errors", "Agent removals that failed", c.Errors},
	}

	var errs error
	for _, ctr := range counters {
		counter, err := meter.Int64Counter(ctr.name, metric.WithDescription(ctr.desc))
		if err != nil {
			errs = cerr.CombineErrors(errs, cerr.Wrapf(err, "create counter %s", ctr.name))
			continue
		}
		counter.Add(ctx, int64(ctr.value), mode)
	}
	return errs
}

func hostname() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}
