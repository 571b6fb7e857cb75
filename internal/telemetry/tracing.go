// Package telemetry configures OpenTelemetry tracing.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// InitTracing installs the global tracer provider for exporter ("none" or "stdout").
// The returned function flushes and shuts the provider down.
func InitTracing(service, exporter string) (func(context.Context) error, error) {
	return InitTracingWithWriter(service, exporter, os.Stderr)
}

// InitTracingWithWriter is InitTracing with the stdout exporter writing to w.
func InitTracingWithWriter(service, exporter string, w io.Writer) (func(context.Context) error, error) {
	switch strings.ToLower(strings.TrimSpace(exporter)) {
	case "", "none":
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func(context.Context) error { return nil }, nil

	case "stdout":
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(resource.NewSchemaless(
				attribute.String("service.name", service),
			)),
		)
		otel.SetTracerProvider(tp)
		return tp.Shutdown, nil
	}
	return nil, fmt.Errorf("unknown trace exporter %q", exporter)
}
