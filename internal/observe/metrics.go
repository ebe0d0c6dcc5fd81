// Package observe provides observability primitives for voxhire:
// OpenTelemetry metrics with a Prometheus exporter bridge, request tracing,
// and an HTTP middleware tying both to the API surface.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so metrics can be scraped
// via a standard /metrics endpoint. A package-level default [Metrics]
// instance ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all voxhire metrics.
const meterName = "github.com/voxhire/voxhire"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// TranscribeDuration tracks speech-to-text transcription latency,
	// including fallback attempts.
	TranscribeDuration metric.Float64Histogram

	// ExtractDuration tracks structured extraction latency.
	ExtractDuration metric.Float64Histogram

	// MatchDuration tracks canonical match lookup latency.
	MatchDuration metric.Float64Histogram

	// SynthDuration tracks text-to-speech synthesis latency.
	SynthDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// TranscriptionAttempts counts transcription strategy attempts. Use with
	// attributes:
	//   attribute.String("strategy", ...), attribute.String("status", ...)
	TranscriptionAttempts metric.Int64Counter

	// RecordsExtracted counts extraction results by outcome. Use with
	// attribute:
	//   attribute.String("outcome", ...)
	RecordsExtracted metric.Int64Counter

	// CanonicalMatches counts match lookups by collection and result. Use
	// with attributes:
	//   attribute.String("collection", ...), attribute.String("result", ...)
	CanonicalMatches metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Local
// whisper decoding of full recordings dominates, so the buckets extend well
// past the sub-second range.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TranscribeDuration, err = m.Float64Histogram("voxhire.transcribe.duration",
		metric.WithDescription("Latency of speech-to-text transcription including fallbacks."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ExtractDuration, err = m.Float64Histogram("voxhire.extract.duration",
		metric.WithDescription("Latency of structured extraction."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.MatchDuration, err = m.Float64Histogram("voxhire.match.duration",
		metric.WithDescription("Latency of canonical match lookups."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SynthDuration, err = m.Float64Histogram("voxhire.synth.duration",
		metric.WithDescription("Latency of text-to-speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ProviderRequests, err = m.Int64Counter("voxhire.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.TranscriptionAttempts, err = m.Int64Counter("voxhire.transcription.attempts",
		metric.WithDescription("Total transcription strategy attempts by strategy and status."),
	); err != nil {
		return nil, err
	}
	if met.RecordsExtracted, err = m.Int64Counter("voxhire.records.extracted",
		metric.WithDescription("Total extraction results by outcome."),
	); err != nil {
		return nil, err
	}
	if met.CanonicalMatches, err = m.Int64Counter("voxhire.canonical.matches",
		metric.WithDescription("Total canonical match lookups by collection and result."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProviderErrors, err = m.Int64Counter("voxhire.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("voxhire.http.request.duration",
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

// RecordProviderRequest records a provider request counter increment with the
// standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordTranscriptionAttempt records one transcription strategy attempt.
func (m *Metrics) RecordTranscriptionAttempt(ctx context.Context, strategy, status string) {
	m.TranscriptionAttempts.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("strategy", strategy),
			attribute.String("status", status),
		),
	)
}

// RecordExtraction records one extraction result by outcome.
func (m *Metrics) RecordExtraction(ctx context.Context, outcome string) {
	m.RecordsExtracted.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}

// RecordCanonicalMatch records one canonical lookup by collection and result
// ("matched", "unmatched", or "error").
func (m *Metrics) RecordCanonicalMatch(ctx context.Context, collection, result string) {
	m.CanonicalMatches.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("collection", collection),
			attribute.String("result", result),
		),
	)
}

// RecordProviderError records a provider error counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}
