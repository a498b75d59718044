package otelx

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Options{Endpoint: "ignored:4317", Sample: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	if !span.SpanContext().IsValid() {
		t.Fatal("disabled tracing should still mint span ids")
	}
	if span.SpanContext().IsSampled() {
		t.Fatal("disabled tracing sampled a span")
	}

	fields := otel.GetTextMapPropagator().Fields()
	want := map[string]bool{"traceparent": false, "baggage": false}
	for _, f := range fields {
		if _, ok := want[f]; ok {
			want[f] = true
		}
	}
	for f, seen := range want {
		if !seen {
			t.Errorf("propagator missing %s, has %v", f, fields)
		}
	}
}

func TestInit_EnabledDoesNotBlock(t *testing.T) {
	start := time.Now()
	shutdown, err := Init(context.Background(), Options{
		Enabled:   true,
		Endpoint:  "127.0.0.1:1",
		Insecure:  true,
		Sample:    1,
		Component: "server",
	})
	if time.Since(start) > 10*time.Second {
		t.Fatalf("Init took %v", time.Since(start))
	}
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = shutdown(ctx)
}

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{-1, "TraceIDRatioBased{0}"},
		{0.25, "TraceIDRatioBased{0.25}"},
		{7, "AlwaysOnSampler"},
	}
	for _, tt := range tests {
		desc := sampler(tt.ratio).Description()
		if !strings.Contains(desc, "root:"+tt.want+",") {
			t.Errorf("sampler(%v) = %s", tt.ratio, desc)
		}
	}
	var _ sdktrace.Sampler = sampler(1)
}

func TestServiceName(t *testing.T) {
	tests := []struct {
		o    Options
		want string
	}{
		{Options{}, "xelns-web"},
		{Options{Component: "server"}, "xelns-web.server"},
		{Options{Service: "xelns", Component: "adminapi"}, "xelns.adminapi"},
	}
	for _, tt := range tests {
		if got := serviceName(tt.o); got != tt.want {
			t.Errorf("serviceName(%+v) = %q, want %q", tt.o, got, tt.want)
		}
	}
}
