// Package telemetry initializes OpenTelemetry metrics export.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

const scope = "intent"

// Shutdown flushes and stops the exporters.
type Shutdown func(ctx context.Context) error

// Init installs a global meter provider exporting over OTLP/HTTP. If endpoint
// is empty the global no-op provider is kept and Shutdown does nothing.
func Init(ctx context.Context, endpoint, serviceName, version string) (Shutdown, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create resource: %w", err)
	}

	exp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(endpoint))
	if err != nil {
		return nil, fmt.Errorf("telemetry: create metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(15*time.Second))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// Meter returns the global meter for this program.
func Meter() metric.Meter {
	return otel.GetMeterProvider().Meter(scope)
}

// Counter creates a counter on the global meter. Instrument creation errors
// fall back to a no-op counter so callers never have to branch on them.
func Counter(name, description string) metric.Int64Counter {
	c, err := Meter().Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		c, _ = noop.NewMeterProvider().Meter(scope).Int64Counter(name)
	}
	return c
}

func Histogram(name, description string) metric.Int64Histogram {
	h, err := Meter().Int64Histogram(name, metric.WithDescription(description))
	if err != nil {
		h, _ = noop.NewMeterProvider().Meter(scope).Int64Histogram(name)
	}
	return h
}
