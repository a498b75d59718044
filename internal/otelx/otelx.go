// Package otelx installs the global OpenTelemetry tracer provider. Spans are
// exported over OTLP gRPC to a local collector.
package otelx

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/xelns/xelns-web/internal/version"
	"github.com/xelns/xelns-web/internal/xerrors"
)

const dialTimeout = 3 * time.Second

type Options struct {
	Enabled  bool
	Endpoint string
	Insecure bool
	// Sample is the root sampling ratio, clamped to [0, 1].
	Sample float64

	// Service defaults to version.AppName; the exported name is
	// Service.Component, e.g. xelns-web.server.
	Service   string
	Component string
	Version   string
}

// Shutdown flushes and stops the provider Init installed.
type Shutdown func(context.Context) error

func serviceName(o Options) string {
	name := o.Service
	if name == "" {
		name = version.AppName
	}
	if o.Component != "" {
		name += "." + o.Component
	}
	return name
}

func sampler(ratio float64) sdktrace.Sampler {
	ratio = min(max(ratio, 0), 1)
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func propagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
}

// Init installs a provider and W3C trace-context propagation. Disabled, the
// provider records nothing but spans still carry IDs for log correlation.
func Init(ctx context.Context, o Options) (Shutdown, error) {
	otel.SetTextMapPropagator(propagator())
	if !o.Enabled {
		otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.NeverSample())))
		return func(context.Context) error { return nil }, nil
	}

	exp, err := exporter(ctx, o)
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName(o)),
			semconv.ServiceVersion(o.Version),
		),
	)
	if err != nil && res == nil {
		res = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sampler(o.Sample)),
		sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

func exporter(ctx context.Context, o Options) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(o.Endpoint)}
	if o.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	dctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	exp, err := otlptracegrpc.New(dctx, opts...)
	if err != nil {
		return nil, xerrors.Wrapf(err, "otlp exporter %s", o.Endpoint)
	}
	return exp, nil
}
