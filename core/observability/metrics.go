package observability

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type metrics struct {
	validationsTotal      metric.Int64Counter
	validationDuration    metric.Float64Histogram
	validationFindings    metric.Int64Counter
	catalogLookupsTotal   metric.Int64Counter
	catalogLookupDuration metric.Float64Histogram
	catalogCacheTotal     metric.Int64Counter
}

var (
	metricsOnce sync.Once
	m           metrics
)

func buildMeterProvider(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	if !cfg.Enabled || !cfg.MetricsEnabled {
		return sdkmetric.NewMeterProvider(), nil
	}

	exporter, err := otlpmetricgrpc.New(
		ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	), nil
}

func initInstruments() {
	metricsOnce.Do(func() {
		meter := otel.Meter(instrumentationName)
		m.validationsTotal, _ = meter.Int64Counter("querycheck.validations_total")
		m.validationDuration, _ = meter.Float64Histogram("querycheck.validation_duration_ms")
		m.validationFindings, _ = meter.Int64Counter("querycheck.validation_findings_total")
		m.catalogLookupsTotal, _ = meter.Int64Counter("querycheck.catalog.lookups_total")
		m.catalogLookupDuration, _ = meter.Float64Histogram("querycheck.catalog.lookup_duration_ms")
		m.catalogCacheTotal, _ = meter.Int64Counter("querycheck.catalog.cache_total")
	})
}

// RecordValidation records the outcome of one validation. status is the
// response status, or "failed" when a collaborator failed.
func RecordValidation(ctx context.Context, status string, findings map[string]int, durationMS float64) {
	initInstruments()
	attrs := metric.WithAttributes(attribute.String(AttrValidationStatus, status))
	m.validationsTotal.Add(ctx, 1, attrs)
	m.validationDuration.Record(ctx, durationMS, attrs)
	for errorType, count := range findings {
		m.validationFindings.Add(ctx, int64(count), metric.WithAttributes(attribute.String(AttrErrorType, errorType)))
	}
}

// RecordCatalogLookup records one field catalog lookup
func RecordCatalogLookup(ctx context.Context, backend string, success bool, durationMS float64) {
	initInstruments()
	attrs := metric.WithAttributes(
		attribute.String(AttrCatalogBackend, backend),
		attribute.Bool("success", success),
	)
	m.catalogLookupsTotal.Add(ctx, 1, attrs)
	m.catalogLookupDuration.Record(ctx, durationMS, attrs)
}

// RecordCatalogCache records a catalog cache hit or miss
func RecordCatalogCache(ctx context.Context, hit bool) {
	initInstruments()
	m.catalogCacheTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("hit", hit)))
}
