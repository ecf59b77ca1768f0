package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hyp3rd/framestats"
	"github.com/hyp3rd/framestats/internal/telemetry/attrs"
	"github.com/hyp3rd/framestats/pkg/aggregator"
	"github.com/hyp3rd/framestats/pkg/sample"
)

// OTelTracingMiddleware wraps the lifecycle methods of framestats.Service with OpenTelemetry spans.
// Pushes are not traced; one span per frame would drown the stage spans.
type OTelTracingMiddleware struct {
	next   framestats.Service
	tracer trace.Tracer
	// static attributes applied to all spans
	commonAttrs []attribute.KeyValue
}

// OTelTracingOption allows configuring the tracing middleware.
type OTelTracingOption func(*OTelTracingMiddleware)

// WithCommonAttributes sets attributes applied to all spans.
func WithCommonAttributes(attributes ...attribute.KeyValue) OTelTracingOption {
	return func(m *OTelTracingMiddleware) { m.commonAttrs = append(m.commonAttrs, attributes...) }
}

// NewOTelTracingMiddleware creates a tracing middleware.
func NewOTelTracingMiddleware(next framestats.Service, tracer trace.Tracer, opts ...OTelTracingOption) framestats.Service {
	mw := &OTelTracingMiddleware{next: next, tracer: tracer}
	for _, o := range opts {
		o(mw)
	}

	return mw
}

// Start implements Service.Start with tracing.
func (mw OTelTracingMiddleware) Start(ctx context.Context) error {
	ctx, span := mw.startSpan(ctx, "framestats.Start")
	defer span.End()

	err := mw.next.Start(ctx)
	mw.finish(span, err)

	return err
}

// BeginRunning implements Service.BeginRunning with tracing.
func (mw OTelTracingMiddleware) BeginRunning(ctx context.Context) error {
	ctx, span := mw.startSpan(ctx, "framestats.BeginRunning", attribute.String("window", mw.next.Window().String()))
	defer span.End()

	err := mw.next.BeginRunning(ctx)
	mw.finish(span, err)

	return err
}

// Push forwards to the next service without a span.
func (mw OTelTracingMiddleware) Push(ctx context.Context, s sample.Sample) (bool, error) {
	return mw.next.Push(ctx, s)
}

// End implements Service.End with tracing.
func (mw OTelTracingMiddleware) End(ctx context.Context) (aggregator.Summary, error) {
	ctx, span := mw.startSpan(ctx, "framestats.End")
	defer span.End()

	summary, err := mw.next.End(ctx)
	span.SetAttributes(
		attribute.Int(attrs.AttrSampleCount, summary.Count),
		attribute.Float64("median.frame_time.ms", summary.Median.FrameTime),
	)
	mw.finish(span, err)

	return summary, err
}

// Cancel implements Service.Cancel with tracing.
func (mw OTelTracingMiddleware) Cancel() {
	_, span := mw.startSpan(context.Background(), "framestats.Cancel")
	defer span.End()

	mw.next.Cancel()
	span.SetAttributes(attribute.String(attrs.AttrStageStatus, mw.next.Status().String()))
}

// ID returns the stage id.
func (mw OTelTracingMiddleware) ID() string { return mw.next.ID() }

// Name returns the stage name.
func (mw OTelTracingMiddleware) Name() string { return mw.next.Name() }

// Status returns the stage status.
func (mw OTelTracingMiddleware) Status() framestats.Status { return mw.next.Status() }

// Current returns the running statistics.
func (mw OTelTracingMiddleware) Current() aggregator.Snapshot { return mw.next.Current() }

// Summary returns the finalized statistics.
func (mw OTelTracingMiddleware) Summary() (aggregator.Summary, bool) { return mw.next.Summary() }

// Samples returns the recorded history.
func (mw OTelTracingMiddleware) Samples() []sample.Sample { return mw.next.Samples() }

// Progress returns the covered share of the window.
func (mw OTelTracingMiddleware) Progress() int { return mw.next.Progress() }

// Window returns the length of the measurement window.
func (mw OTelTracingMiddleware) Window() time.Duration { return mw.next.Window() }

// SetTimeline forwards the timeline length.
func (mw OTelTracingMiddleware) SetTimeline(d time.Duration) { mw.next.SetTimeline(d) }

func (mw OTelTracingMiddleware) startSpan(ctx context.Context, name string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	all := make([]attribute.KeyValue, 0, len(mw.commonAttrs)+len(attributes)+1)
	all = append(all, attribute.String(attrs.AttrStage, mw.next.Name()))
	all = append(all, mw.commonAttrs...)
	all = append(all, attributes...)

	return mw.tracer.Start(ctx, name, trace.WithAttributes(all...))
}

func (mw OTelTracingMiddleware) finish(span trace.Span, err error) {
	span.SetAttributes(attribute.String(attrs.AttrStageStatus, mw.next.Status().String()))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
