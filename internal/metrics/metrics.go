// Package metrics holds the OpenTelemetry instruments of the translation
// pipeline. Components fall back to Default, which uses the global meter
// provider; tests should build their own with New and a manual reader.
package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/leonardotrapani/healthtranslate"

// Outcomes recorded on TranslationRequests.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeStale     = "stale"
)

type Metrics struct {
	// TranslationRequests counts completion calls by outcome.
	TranslationRequests metric.Int64Counter
	// TranslationDuration is the latency of one completion plus normalization.
	TranslationDuration metric.Float64Histogram
	// CaptureSessions counts finished recording sessions by reason.
	CaptureSessions     metric.Int64Counter
	ActiveRecordings    metric.Int64UpDownCounter
	PlaybackUtterances  metric.Int64Counter
}

var latencyBuckets = []float64{
	0.25, 0.5, 1, 2, 4, 8, 15, 30, 60,
}

func New(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TranslationRequests, err = m.Int64Counter("healthtranslate.translation.requests",
		metric.WithDescription("Translation requests by outcome."),
	); err != nil {
		return nil, err
	}
	if met.TranslationDuration, err = m.Float64Histogram("healthtranslate.translation.duration",
		metric.WithDescription("Latency of correction and translation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CaptureSessions, err = m.Int64Counter("healthtranslate.capture.sessions",
		metric.WithDescription("Finished recording sessions by reason."),
	); err != nil {
		return nil, err
	}
	if met.ActiveRecordings, err = m.Int64UpDownCounter("healthtranslate.capture.active",
		metric.WithDescription("Recording sessions in progress."),
	); err != nil {
		return nil, err
	}
	if met.PlaybackUtterances, err = m.Int64Counter("healthtranslate.playback.utterances",
		metric.WithDescription("Translations read aloud."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// Default returns the package-level instance built on otel.GetMeterProvider.
// The global provider delegates, so instruments created before InitProvider
// still report once it runs.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = New(otel.GetMeterProvider())
		if err != nil {
			panic("metrics: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

func (m *Metrics) RecordTranslation(ctx context.Context, outcome string, elapsed time.Duration) {
	m.TranslationRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if outcome != OutcomeStale {
		m.TranslationDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func (m *Metrics) RecordCaptureStarted(ctx context.Context) {
	m.ActiveRecordings.Add(ctx, 1)
}

func (m *Metrics) RecordCaptureEnded(ctx context.Context, reason string) {
	m.ActiveRecordings.Add(ctx, -1)
	m.CaptureSessions.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *Metrics) RecordPlayback(ctx context.Context, voice string) {
	m.PlaybackUtterances.Add(ctx, 1, metric.WithAttributes(attribute.String("voice", voice)))
}
