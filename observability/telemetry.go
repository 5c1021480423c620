// Package observability provides OpenTelemetry integration and audit
// logging for the launcher and inspection surfaces.
//
// The filter core carries no logging or metrics of its own: its
// diagnosability is the caller-visible error and external inspection of
// the resulting process. Observability therefore attaches only at the
// boundaries: launches and scans.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry provides observability features.
type Telemetry interface {
	// StartSpan starts a new trace span.
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, func())

	// RecordCounter increments a named counter.
	RecordCounter(name string, labels map[string]string)

	// RecordHistogram records a value on a named histogram.
	RecordHistogram(name string, value float64, labels map[string]string)
}

// Instrument names recorded by this module.
const (
	MetricLaunches       = "launches"
	MetricLaunchFailures = "launch_failures"
	MetricEnvEntries     = "environment_entries"
)

// SpanOption configures span creation.
type SpanOption func(*spanConfig)

type spanConfig struct {
	attributes []attribute.KeyValue
	kind       trace.SpanKind
}

// WithAttribute adds a string attribute to the span.
func WithAttribute(key, value string) SpanOption {
	return func(c *spanConfig) {
		c.attributes = append(c.attributes, attribute.String(key, value))
	}
}

// WithSpanKind sets the span kind.
func WithSpanKind(kind trace.SpanKind) SpanOption {
	return func(c *spanConfig) {
		c.kind = kind
	}
}

// TelemetryConfig configures telemetry.
type TelemetryConfig struct {
	// ServiceName is the service name for tracing.
	ServiceName string

	// ServiceVersion is the service version.
	ServiceVersion string

	// Environment is the deployment environment.
	Environment string

	// EnableTracing enables distributed tracing.
	EnableTracing bool

	// EnableMetrics enables metrics collection.
	EnableMetrics bool

	// MetricsPrefix is the prefix for all metrics.
	MetricsPrefix string
}

// DefaultTelemetryConfig returns default configuration.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		ServiceName:    "childenv",
		ServiceVersion: "1.0.0",
		Environment:    "development",
		EnableTracing:  true,
		EnableMetrics:  true,
		MetricsPrefix:  "childenv_",
	}
}

// telemetry implements Telemetry.
type telemetry struct {
	config TelemetryConfig
	tracer trace.Tracer
	meter  metric.Meter

	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
}

// NewTelemetry creates a telemetry instance registered against the global
// OpenTelemetry providers.
func NewTelemetry(config TelemetryConfig) (Telemetry, error) {
	t := &telemetry{
		config:     config,
		tracer:     otel.Tracer(config.ServiceName),
		meter:      otel.Meter(config.ServiceName),
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
	}

	for name, desc := range map[string]string{
		MetricLaunches:       "Launches attempted",
		MetricLaunchFailures: "Launches whose exec failed",
	} {
		counter, err := t.meter.Int64Counter(
			config.MetricsPrefix+name+"_total",
			metric.WithDescription(desc),
		)
		if err != nil {
			return nil, err
		}
		t.counters[name] = counter
	}

	hist, err := t.meter.Float64Histogram(
		config.MetricsPrefix+MetricEnvEntries,
		metric.WithDescription("Entry count of composed target environments"),
	)
	if err != nil {
		return nil, err
	}
	t.histograms[MetricEnvEntries] = hist

	return t, nil
}

// StartSpan implements Telemetry.
func (t *telemetry) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, func()) {
	if !t.config.EnableTracing {
		return ctx, func() {}
	}

	cfg := spanConfig{kind: trace.SpanKindInternal}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, span := t.tracer.Start(ctx, name,
		trace.WithSpanKind(cfg.kind),
		trace.WithAttributes(cfg.attributes...),
	)
	return ctx, func() { span.End() }
}

// RecordCounter implements Telemetry.
func (t *telemetry) RecordCounter(name string, labels map[string]string) {
	if !t.config.EnableMetrics {
		return
	}
	counter, ok := t.counters[name]
	if !ok {
		return
	}
	counter.Add(context.Background(), 1, metric.WithAttributes(toAttributes(labels)...))
}

// RecordHistogram implements Telemetry.
func (t *telemetry) RecordHistogram(name string, value float64, labels map[string]string) {
	if !t.config.EnableMetrics {
		return
	}
	hist, ok := t.histograms[name]
	if !ok {
		return
	}
	hist.Record(context.Background(), value, metric.WithAttributes(toAttributes(labels)...))
}

func toAttributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}

// NoopTelemetry discards everything.
type NoopTelemetry struct{}

// StartSpan implements Telemetry.
func (NoopTelemetry) StartSpan(ctx context.Context, _ string, _ ...SpanOption) (context.Context, func()) {
	return ctx, func() {}
}

// RecordCounter implements Telemetry.
func (NoopTelemetry) RecordCounter(string, map[string]string) {}

// RecordHistogram implements Telemetry.
func (NoopTelemetry) RecordHistogram(string, float64, map[string]string) {}
