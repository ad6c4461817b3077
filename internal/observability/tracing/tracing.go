package tracing

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

// Setup installs a global tracer provider exporting spans over OTLP/HTTP.
// With no endpoint the global no-op provider is left in place.
func Setup(ctx context.Context, endpoint, serviceName string) (ShutdownFunc, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracehttp.Option{}
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		opts = append(opts, otlptracehttp.WithEndpointURL(endpoint))
	} else {
		opts = append(opts, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("tracing: create otlp exporter: %w", err)
	}

	provider := NewProvider(sdktrace.WithBatcher(exporter), serviceName)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}

// NewProvider builds a tracer provider tagged with the service name.
func NewProvider(processor sdktrace.TracerProviderOption, serviceName string) *sdktrace.TracerProvider {
	if serviceName == "" {
		serviceName = "hijama-dm-responder"
	}
	return sdktrace.NewTracerProvider(
		processor,
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	)
}
