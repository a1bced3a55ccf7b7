// Package observe provides application-wide observability primitives for
// VoxPrep: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all VoxPrep metrics.
const meterName = "github.com/voxprep/voxprep"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// ExtractionDuration tracks parameter-extraction latency (model call
	// plus parsing).
	ExtractionDuration metric.Float64Histogram

	// GenerationDuration tracks question-generation latency.
	GenerationDuration metric.Float64Histogram

	// PersistDuration tracks interview persistence latency.
	PersistDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderRequests counts model provider calls. Use with attributes:
	//   attribute.String("stage", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ExtractionFallbacks counts uses of the keyword-based parameter
	// fallback.
	ExtractionFallbacks metric.Int64Counter

	// GenerationFallbacks counts uses of the template question fallback.
	GenerationFallbacks metric.Int64Counter

	// InterviewsPersisted counts successfully stored interview records.
	InterviewsPersisted metric.Int64Counter

	// --- Error counters ---

	// PersistErrors counts failed interview store writes.
	PersistErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveCalls tracks the number of live voice call sessions.
	ActiveCalls metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// model round-trips and database writes.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.ExtractionDuration, err = m.Float64Histogram("voxprep.extraction.duration",
		metric.WithDescription("Latency of interview parameter extraction."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.GenerationDuration, err = m.Float64Histogram("voxprep.generation.duration",
		metric.WithDescription("Latency of interview question generation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PersistDuration, err = m.Float64Histogram("voxprep.persist.duration",
		metric.WithDescription("Latency of interview record persistence."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ProviderRequests, err = m.Int64Counter("voxprep.provider.requests",
		metric.WithDescription("Total model provider requests by stage and status."),
	); err != nil {
		return nil, err
	}
	if met.ExtractionFallbacks, err = m.Int64Counter("voxprep.extraction.fallbacks",
		metric.WithDescription("Total uses of the keyword-based parameter fallback."),
	); err != nil {
		return nil, err
	}
	if met.GenerationFallbacks, err = m.Int64Counter("voxprep.generation.fallbacks",
		metric.WithDescription("Total uses of the template question fallback."),
	); err != nil {
		return nil, err
	}
	if met.InterviewsPersisted, err = m.Int64Counter("voxprep.interviews.persisted",
		metric.WithDescription("Total interview records stored successfully."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.PersistErrors, err = m.Int64Counter("voxprep.persist.errors",
		metric.WithDescription("Total failed interview store writes."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveCalls, err = m.Int64UpDownCounter("voxprep.active_calls",
		metric.WithDescription("Number of live voice call sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("voxprep.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderRequest is a convenience method that records a provider
// request counter increment with the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, stage, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("status", status),
		),
	)
}
