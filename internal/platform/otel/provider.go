// Package otel wires OpenTelemetry tracing for starpatch processes.
package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/louisbranch/starpatch/internal/platform/config"
)

// Config controls trace export.
type Config struct {
	Enabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
	Endpoint string `env:"OTEL_ENDPOINT"`
}

// Setup initialises OpenTelemetry tracing for the given service.
//
// Tracing is opt-in: when STARPATCH_OTEL_ENDPOINT is empty or
// STARPATCH_OTEL_ENABLED is "false", Setup returns a no-op shutdown
// function and no global provider is registered. Spans started through the
// global tracer are then dropped by the default no-op provider.
//
// The returned shutdown function flushes pending spans and should be deferred
// by the caller.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	var cfg Config
	if err := config.ParseEnvWithPrefix(&cfg, config.EnvPrefix); err != nil {
		return noop, err
	}
	if !cfg.Enabled || cfg.Endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(cfg.Endpoint),
	)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}
