package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// newMeterProvider pushes metrics over OTLP/HTTP every cfg.Interval and
// installs itself as the global provider.
func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exp, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(cfg.Interval))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader), sdkmetric.WithResource(res))
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns a meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the recording pipeline instruments.
type Metrics struct {
	capturesStarted  metric.Int64Counter
	capturesActive   metric.Int64UpDownCounter
	capturesClosed   metric.Int64Counter
	clipsSkipped     metric.Int64Counter
	pipelineErrors   metric.Int64Counter
	transcriptions   metric.Int64Counter
	transcribeTime   metric.Float64Histogram
	providerCalls    metric.Int64Counter
	providerDuration metric.Float64Histogram
	publishErrors    metric.Int64Counter
	pendingJobs      metric.Int64UpDownCounter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.capturesStarted, err = meter.Int64Counter("minutes.captures.started",
		metric.WithDescription("Utterance captures started"),
	); err != nil {
		return nil, fmt.Errorf("creating minutes.captures.started counter: %w", err)
	}
	if m.capturesActive, err = meter.Int64UpDownCounter("minutes.captures.active",
		metric.WithDescription("Captures currently between start and close"),
	); err != nil {
		return nil, fmt.Errorf("creating minutes.captures.active gauge: %w", err)
	}
	if m.capturesClosed, err = meter.Int64Counter("minutes.captures.closed",
		metric.WithDescription("Captures closed, by whether they were force-finalized"),
	); err != nil {
		return nil, fmt.Errorf("creating minutes.captures.closed counter: %w", err)
	}
	if m.clipsSkipped, err = meter.Int64Counter("minutes.clips.skipped",
		metric.WithDescription("Closed clips deleted without transcription"),
	); err != nil {
		return nil, fmt.Errorf("creating minutes.clips.skipped counter: %w", err)
	}
	if m.pipelineErrors, err = meter.Int64Counter("minutes.pipeline.errors",
		metric.WithDescription("Audio pipeline stage errors"),
	); err != nil {
		return nil, fmt.Errorf("creating minutes.pipeline.errors counter: %w", err)
	}
	if m.transcriptions, err = meter.Int64Counter("minutes.transcriptions",
		metric.WithDescription("Settled transcription jobs by outcome"),
	); err != nil {
		return nil, fmt.Errorf("creating minutes.transcriptions counter: %w", err)
	}
	if m.transcribeTime, err = meter.Float64Histogram("minutes.transcription.duration",
		metric.WithDescription("Time from dispatch to job settlement"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("creating minutes.transcription.duration histogram: %w", err)
	}
	if m.providerCalls, err = meter.Int64Counter("minutes.provider.calls",
		metric.WithDescription("External provider calls by status"),
	); err != nil {
		return nil, fmt.Errorf("creating minutes.provider.calls counter: %w", err)
	}
	if m.providerDuration, err = meter.Float64Histogram("minutes.provider.duration",
		metric.WithDescription("External provider call duration"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating minutes.provider.duration histogram: %w", err)
	}
	if m.publishErrors, err = meter.Int64Counter("minutes.publish.errors",
		metric.WithDescription("Transcript entries a publisher failed to accept"),
	); err != nil {
		return nil, fmt.Errorf("creating minutes.publish.errors counter: %w", err)
	}
	if m.pendingJobs, err = meter.Int64UpDownCounter("minutes.jobs.pending",
		metric.WithDescription("Transcription jobs in flight"),
	); err != nil {
		return nil, fmt.Errorf("creating minutes.jobs.pending gauge: %w", err)
	}

	return m, nil
}

// CaptureStarted records a new capture entering CAPTURING.
func (m *Metrics) CaptureStarted(ctx context.Context, speakerID string) {
	if m == nil {
		return
	}
	m.capturesStarted.Add(ctx, 1, metric.WithAttributes(attribute.String("speaker_id", speakerID)))
	m.capturesActive.Add(ctx, 1)
}

// CaptureClosed records a capture reaching CLOSED. The active gauge is
// decremented without attributes so it nets out against CaptureStarted.
func (m *Metrics) CaptureClosed(ctx context.Context, forced bool) {
	if m == nil {
		return
	}
	m.capturesActive.Add(ctx, -1)
	m.capturesClosed.Add(ctx, 1, metric.WithAttributes(attribute.Bool("forced", forced)))
}

// ClipSkipped records a clip deleted before transcription.
func (m *Metrics) ClipSkipped(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.clipsSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// PipelineError records a failed pipeline stage.
func (m *Metrics) PipelineError(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.pipelineErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// JobStarted records a transcription job entering the pending set.
func (m *Metrics) JobStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.pendingJobs.Add(ctx, 1)
}

// JobSettled records a transcription job leaving the pending set.
func (m *Metrics) JobSettled(ctx context.Context, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.pendingJobs.Add(ctx, -1)
	m.transcriptions.Add(ctx, 1, attrs)
	m.transcribeTime.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}

// RecordProviderCall records one call into an external provider.
func (m *Metrics) RecordProviderCall(ctx context.Context, provider, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.providerCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("status", status),
	))
	m.providerDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
	))
}

// PublishError records a publisher rejecting an entry.
func (m *Metrics) PublishError(ctx context.Context, publisher string) {
	if m == nil {
		return
	}
	m.publishErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("publisher", publisher)))
}
