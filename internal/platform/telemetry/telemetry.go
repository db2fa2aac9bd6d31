// Package telemetry installs the global OpenTelemetry tracer provider.
package telemetry

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

// Provider owns the tracer provider installed by Setup.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// Setup installs a tracer provider for the given exporter. With ExporterNone
// the global no-op provider stays in place and Shutdown does nothing.
func Setup(serviceName, exporter string, w io.Writer) (*Provider, error) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	switch exporter {
	case ExporterNone, "":
		return &Provider{}, nil
	case ExporterStdout:
	default:
		return nil, fmt.Errorf("unknown traces exporter %q", exporter)
	}

	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return &Provider{tp: tp}, nil
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}
