// Package telemetry installs OpenTelemetry trace and metric providers that
// export over OTLP/gRPC when OTEL_EXPORTER_OTLP_ENDPOINT is set.
package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

// Providers holds the installed SDK providers. The zero value is a no-op.
type Providers struct {
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

// Init sets the global tracer and meter providers. Without an OTLP endpoint
// in the environment it installs nothing and returns a no-op Providers; the
// global API then stays on its no-op implementation.
func Init(ctx context.Context, serviceName string) (*Providers, error) {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return &Providers{}, nil
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	traceExp, err := otlptracegrpc.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	metricExp, err := otlpmetricgrpc.New(ctx)
	if err != nil {
		_ = traceExp.Shutdown(ctx)
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	p := &Providers{
		tp: sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExp),
			sdktrace.WithResource(res),
		),
		mp: sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
			sdkmetric.WithResource(res),
		),
	}
	otel.SetTracerProvider(p.tp)
	otel.SetMeterProvider(p.mp)
	return p, nil
}

// Enabled reports whether telemetry is exported.
func (p *Providers) Enabled() bool {
	return p != nil && p.tp != nil
}

// Flush exports everything buffered so far. Lambda freezes the process
// between invocations, so call it before returning from a handler.
func (p *Providers) Flush(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	var g errgroup.Group
	g.Go(func() error { return p.tp.ForceFlush(ctx) })
	g.Go(func() error { return p.mp.ForceFlush(ctx) })
	return g.Wait()
}

// Shutdown flushes and stops both providers and puts the global API back on
// its no-op implementation.
func (p *Providers) Shutdown(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	otel.SetTracerProvider(tracenoop.NewTracerProvider())
	otel.SetMeterProvider(metricnoop.NewMeterProvider())

	var g errgroup.Group
	g.Go(func() error { return p.tp.Shutdown(ctx) })
	g.Go(func() error { return p.mp.Shutdown(ctx) })
	return g.Wait()
}
