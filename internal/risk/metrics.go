package risk

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/pondwatch/pondwatch/internal/risk"

// Metrics holds the engine's OpenTelemetry instruments. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	assessmentTotal metric.Int64Counter
	surfaceDuration metric.Float64Histogram
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with initialized instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	assessmentTotal, err := meter.Int64Counter(
		"risk.assessment.total",
		metric.WithDescription("Total number of point risk assessments"),
		metric.WithUnit("{assessment}"),
	)
	if err != nil {
		return nil, err
	}

	surfaceDuration, err := meter.Float64Histogram(
		"risk.surface.compute.duration",
		metric.WithDescription("Duration of whole-grid risk surface computations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"risk.surface.cache.hit",
		metric.WithDescription("Number of risk surface cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"risk.surface.cache.miss",
		metric.WithDescription("Number of risk surface cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		assessmentTotal: assessmentTotal,
		surfaceDuration: surfaceDuration,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}, nil
}

// RecordAssessment counts one point assessment.
func (m *Metrics) RecordAssessment(kind string, err error) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("assessment.kind", kind),
	}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}
	m.assessmentTotal.Add(context.TODO(), 1, metric.WithAttributes(attrs...))
}

// RecordSurfaceCompute records the duration of one full-grid compute.
func (m *Metrics) RecordSurfaceCompute(duration time.Duration) {
	if m == nil {
		return
	}
	m.surfaceDuration.Record(context.TODO(), duration.Seconds())
}

// RecordCacheHit records a risk surface cache hit.
func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Add(context.TODO(), 1)
}

// RecordCacheMiss records a risk surface cache miss.
func (m *Metrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Add(context.TODO(), 1)
}
