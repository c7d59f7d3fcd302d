// Package telemetry configures OpenTelemetry tracing for analysis runs.
package telemetry

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ServiceName identifies spans emitted by repolens.
const ServiceName = "repolens"

var tracer trace.Tracer = noop.NewTracerProvider().Tracer(ServiceName)

// ShutdownFunc flushes pending spans and releases the exporter.
type ShutdownFunc func(ctx context.Context) error

// Init installs the global tracer provider. When disabled a no-op provider is used
// and nothing is written. When enabled, spans are appended as JSON lines to w, or
// to ~/.repolens/telemetry.jsonl when w is nil.
func Init(enabled bool, w io.Writer) (ShutdownFunc, error) {
	if !enabled {
		tp := noop.NewTracerProvider()
		otel.SetTracerProvider(tp)
		tracer = tp.Tracer(ServiceName)
		return func(context.Context) error { return nil }, nil
	}

	var file *os.File
	if w == nil {
		f, err := openTelemetryFile()
		if err != nil {
			return nil, err
		}
		file, w = f, f
	}

	exp, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithoutTimestamps(),
	)
	if err != nil {
		if file != nil {
			_ = file.Close()
		}
		return nil, errors.Wrap(err, "failed to create span exporter")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exp),
		sdktrace.WithResource(sdkresource.NewWithAttributes(
			semconv.SchemaURL,
			attribute.String("service.name", ServiceName),
			attribute.String("host.name", hostname()),
		)),
	)
	otel.SetTracerProvider(tp)
	tracer = tp.Tracer(ServiceName)

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if file != nil {
			err = errors.CombineErrors(err, file.Close())
		}
		return err
	}, nil
}

// Start opens a span with optional attributes.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Fail records err on span and marks the span as failed.
func Fail(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func openTelemetryFile() (*os.File, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve home directory")
	}
	dir := filepath.Join(home, ".repolens")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create telemetry directory")
	}
	f, err := os.OpenFile(filepath.Join(dir, "telemetry.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open telemetry file")
	}
	return f, nil
}

func hostname() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}
