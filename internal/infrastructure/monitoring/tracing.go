package monitoring

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/authgate/pkg/constants"
)

// TracingConfig carries the tracing settings.
type TracingConfig struct {
	Enabled        bool
	JaegerEndpoint string
	SamplingRate   float64
}

// InitTracing sets up the global TracerProvider with a Jaeger exporter.
// It returns a shutdown func and a tracer; when disabled it returns a
// no-op tracer and shutdown.
func InitTracing(cfg TracingConfig) (func(context.Context) error, trace.Tracer, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, otel.Tracer(constants.ServiceName), nil
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(
		jaeger.WithEndpoint(cfg.JaegerEndpoint),
	))
	if err != nil {
		return nil, nil, fmt.Errorf("create jaeger exporter: %w", err)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(semconv.ServiceNameKey.String(constants.ServiceName)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create tracing resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SamplingRate)),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return provider.Shutdown, provider.Tracer(constants.ServiceName), nil
}
