// Package observe provides application-wide observability primitives for
// Voxguard: OpenTelemetry metrics, distributed tracing, structured
// logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A
// Prometheus exporter bridge is available via [InitProvider] so that
// metrics can still be scraped via the standard /metrics endpoint. A
// package-level default [Metrics] instance ([DefaultMetrics]) is provided
// for convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Voxguard metrics.
const meterName = "github.com/voxguard/voxguard"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types
// handle their own synchronisation.
type Metrics struct {
	// ChunkAnalysisDuration tracks per-chunk pipeline latency
	// (decode → extract → score → emit).
	ChunkAnalysisDuration metric.Float64Histogram

	// BatchAnalysisDuration tracks one-shot file analysis latency.
	BatchAnalysisDuration metric.Float64Histogram

	// ChunksProcessed counts analysed chunks. Use with attribute:
	//   attribute.String("verdict", ...)
	ChunksProcessed metric.Int64Counter

	// PipelineErrors counts chunk-level failures. Use with attribute:
	//   attribute.String("stage", "decode"|"extract")
	PipelineErrors metric.Int64Counter

	// AlertsRaised counts monitor alerts. Use with attribute:
	//   attribute.String("severity", ...)
	AlertsRaised metric.Int64Counter

	// ActiveSessions tracks the number of live streaming sessions.
	ActiveSessions metric.Int64UpDownCounter

	// ProcessingLag reports the per-session chunk backlog expressed as
	// milliseconds behind the nominal arrival cadence — the backpressure
	// signal of a session that cannot keep up.
	ProcessingLag metric.Float64Gauge

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized
// for a pipeline that must stay inside a 500 ms chunk cadence.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ChunkAnalysisDuration, err = m.Float64Histogram("voxguard.chunk.analysis.duration",
		metric.WithDescription("Latency of one chunk through the analysis pipeline."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.BatchAnalysisDuration, err = m.Float64Histogram("voxguard.batch.analysis.duration",
		metric.WithDescription("Latency of one-shot file analysis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ChunksProcessed, err = m.Int64Counter("voxguard.chunks.processed",
		metric.WithDescription("Total analysed chunks by verdict."),
	); err != nil {
		return nil, err
	}
	if met.PipelineErrors, err = m.Int64Counter("voxguard.pipeline.errors",
		metric.WithDescription("Total chunk-level pipeline failures by stage."),
	); err != nil {
		return nil, err
	}
	if met.AlertsRaised, err = m.Int64Counter("voxguard.alerts.raised",
		metric.WithDescription("Total monitor alerts by severity."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("voxguard.active_sessions",
		metric.WithDescription("Number of live streaming sessions."),
	); err != nil {
		return nil, err
	}
	if met.ProcessingLag, err = m.Float64Gauge("voxguard.session.processing_lag",
		metric.WithDescription("Per-session chunk backlog in milliseconds behind the arrival cadence."),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("voxguard.http.request.duration",
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

// DefaultMetrics returns the package-level [Metrics] instance, creating
// it on first call using [otel.GetMeterProvider]. Subsequent calls return
// the same pointer. Panics if instrument creation fails (should not
// happen with the global provider).
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

// RecordChunk records one processed chunk: its pipeline latency and the
// verdict-tagged counter increment.
func (m *Metrics) RecordChunk(ctx context.Context, verdict string, seconds float64) {
	attrs := metric.WithAttributes(attribute.String("verdict", verdict))
	m.ChunkAnalysisDuration.Record(ctx, seconds, attrs)
	m.ChunksProcessed.Add(ctx, 1, attrs)
}

// RecordPipelineError records a chunk-level failure in the named stage.
func (m *Metrics) RecordPipelineError(ctx context.Context, stage string) {
	m.PipelineErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("stage", stage)),
	)
}

// RecordAlert records a raised monitor alert with its severity.
func (m *Metrics) RecordAlert(ctx context.Context, severity string) {
	m.AlertsRaised.Add(ctx, 1,
		metric.WithAttributes(attribute.String("severity", severity)),
	)
}

// RecordLag reports the current processing lag of one session.
func (m *Metrics) RecordLag(ctx context.Context, sessionID string, lagMs float64) {
	m.ProcessingLag.Record(ctx, lagMs,
		metric.WithAttributes(attribute.String("session_id", sessionID)),
	)
}
