package middleware

import (
	"context"
	"time"

	"github.com/hyp3rd/ewrap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hyp3rd/framestats"
	"github.com/hyp3rd/framestats/internal/telemetry/attrs"
	"github.com/hyp3rd/framestats/pkg/aggregator"
	"github.com/hyp3rd/framestats/pkg/sample"
)

// OTelMetricsMiddleware emits OpenTelemetry metrics for stage methods.
type OTelMetricsMiddleware struct {
	next  framestats.Service
	meter metric.Meter

	// instruments
	calls      metric.Int64Counter
	durations  metric.Float64Histogram
	frameTimes metric.Float64Histogram
}

// NewOTelMetricsMiddleware constructs a metrics middleware using the provided meter.
func NewOTelMetricsMiddleware(next framestats.Service, meter metric.Meter) (framestats.Service, error) {
	calls, err := meter.Int64Counter("framestats.calls")
	if err != nil {
		return nil, ewrap.Wrap(err, "create counter")
	}

	durations, err := meter.Float64Histogram("framestats.duration.ms")
	if err != nil {
		return nil, ewrap.Wrap(err, "create histogram")
	}

	frameTimes, err := meter.Float64Histogram("framestats.frame_time.ms", metric.WithUnit("ms"))
	if err != nil {
		return nil, ewrap.Wrap(err, "create frame time histogram")
	}

	return &OTelMetricsMiddleware{next: next, meter: meter, calls: calls, durations: durations, frameTimes: frameTimes}, nil
}

// Start implements Service.Start with metrics.
func (mw *OTelMetricsMiddleware) Start(ctx context.Context) error {
	start := time.Now()
	err := mw.next.Start(ctx)
	mw.rec(ctx, "Start", start)

	return err
}

// BeginRunning implements Service.BeginRunning with metrics.
func (mw *OTelMetricsMiddleware) BeginRunning(ctx context.Context) error {
	start := time.Now()
	err := mw.next.BeginRunning(ctx)
	mw.rec(ctx, "BeginRunning", start)

	return err
}

// Push implements Service.Push with metrics. Every accepted sample feeds the frame time histogram.
func (mw *OTelMetricsMiddleware) Push(ctx context.Context, s sample.Sample) (bool, error) {
	start := time.Now()
	changed, err := mw.next.Push(ctx, s)
	mw.rec(ctx, "Push", start, attribute.Bool(attrs.AttrRangeChanged, changed))

	if err == nil {
		mw.frameTimes.Record(ctx, s.FrameTime, metric.WithAttributes(attribute.String(attrs.AttrStage, mw.next.Name())))
	}

	return changed, err
}

// End implements Service.End with metrics.
func (mw *OTelMetricsMiddleware) End(ctx context.Context) (aggregator.Summary, error) {
	start := time.Now()
	summary, err := mw.next.End(ctx)
	mw.rec(ctx, "End", start, attribute.Int(attrs.AttrSampleCount, summary.Count))

	return summary, err
}

// Cancel implements Service.Cancel with metrics.
func (mw *OTelMetricsMiddleware) Cancel() {
	start := time.Now()
	mw.next.Cancel()
	mw.rec(context.Background(), "Cancel", start)
}

// ID returns the stage id.
func (mw *OTelMetricsMiddleware) ID() string { return mw.next.ID() }

// Name returns the stage name.
func (mw *OTelMetricsMiddleware) Name() string { return mw.next.Name() }

// Status returns the stage status.
func (mw *OTelMetricsMiddleware) Status() framestats.Status { return mw.next.Status() }

// Current returns the running statistics.
func (mw *OTelMetricsMiddleware) Current() aggregator.Snapshot { return mw.next.Current() }

// Summary returns the finalized statistics.
func (mw *OTelMetricsMiddleware) Summary() (aggregator.Summary, bool) { return mw.next.Summary() }

// Samples returns the recorded history.
func (mw *OTelMetricsMiddleware) Samples() []sample.Sample { return mw.next.Samples() }

// Progress returns the covered share of the window.
func (mw *OTelMetricsMiddleware) Progress() int { return mw.next.Progress() }

// Window returns the length of the measurement window.
func (mw *OTelMetricsMiddleware) Window() time.Duration { return mw.next.Window() }

// SetTimeline forwards the timeline length.
func (mw *OTelMetricsMiddleware) SetTimeline(d time.Duration) { mw.next.SetTimeline(d) }

// rec records call count and duration with attributes.
func (mw *OTelMetricsMiddleware) rec(ctx context.Context, method string, start time.Time, attributes ...attribute.KeyValue) {
	base := []attribute.KeyValue{
		attribute.String(attrs.AttrMethod, method),
		attribute.String(attrs.AttrStage, mw.next.Name()),
		attribute.String(attrs.AttrStageStatus, mw.next.Status().String()),
	}
	if len(attributes) > 0 {
		base = append(base, attributes...)
	}

	mw.calls.Add(ctx, 1, metric.WithAttributes(base...))
	mw.durations.Record(ctx, float64(time.Since(start).Microseconds())/1000, metric.WithAttributes(base...))
}
