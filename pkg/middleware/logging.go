// Package middleware provides decorators for framestats.Service.
// This package includes logging middleware that reports stage lifecycle calls with their
// execution time, and OpenTelemetry middlewares for metrics and tracing.
package middleware

import (
	"context"
	"time"

	"github.com/hyp3rd/framestats"
	"github.com/hyp3rd/framestats/pkg/aggregator"
	"github.com/hyp3rd/framestats/pkg/sample"
)

// Logger describes a logging interface allowing to implement different external, or custom logger.
// Tested with Uber's Zap through zap.NewStdLog, but should work with any other logger that matches the interface.
type Logger interface {
	Printf(format string, v ...any)
}

// LoggingMiddleware is a middleware that logs the lifecycle of a stage and the time each transition takes.
// Pushes are logged only when they move the running range, to keep per-frame noise out of the log.
// Must implement the framestats.Service interface.
type LoggingMiddleware struct {
	next   framestats.Service
	logger Logger
}

// NewLoggingMiddleware returns a new LoggingMiddleware.
func NewLoggingMiddleware(next framestats.Service, logger Logger) framestats.Service {
	return &LoggingMiddleware{next: next, logger: logger}
}

// Start logs the time it takes to start the stage.
func (mw LoggingMiddleware) Start(ctx context.Context) error {
	defer func(begin time.Time) {
		mw.logger.Printf("stage %s: method Start took: %s", mw.next.Name(), time.Since(begin))
	}(time.Now())

	err := mw.next.Start(ctx)
	if err != nil {
		mw.logger.Printf("stage %s: Start failed: %v", mw.next.Name(), err)
	}

	return err
}

// BeginRunning logs the transition to Running.
func (mw LoggingMiddleware) BeginRunning(ctx context.Context) error {
	err := mw.next.BeginRunning(ctx)
	if err != nil {
		mw.logger.Printf("stage %s: BeginRunning failed in status %s: %v", mw.next.Name(), mw.next.Status(), err)

		return err
	}

	mw.logger.Printf("stage %s: running, window %s", mw.next.Name(), mw.next.Window())

	return nil
}

// Push logs the new running range whenever a sample changed it.
func (mw LoggingMiddleware) Push(ctx context.Context, s sample.Sample) (bool, error) {
	changed, err := mw.next.Push(ctx, s)
	if err != nil {
		mw.logger.Printf("stage %s: Push failed: %v", mw.next.Name(), err)

		return changed, err
	}

	if changed {
		current := mw.next.Current()
		mw.logger.Printf("stage %s: range changed after %d samples: min %.3fms max %.3fms",
			mw.next.Name(), current.Count, current.Min.FrameTime, current.Max.FrameTime)
	}

	return changed, nil
}

// End logs the time it takes to finalize the stage and the resulting median.
func (mw LoggingMiddleware) End(ctx context.Context) (aggregator.Summary, error) {
	defer func(begin time.Time) {
		mw.logger.Printf("stage %s: method End took: %s", mw.next.Name(), time.Since(begin))
	}(time.Now())

	summary, err := mw.next.End(ctx)
	if err != nil {
		mw.logger.Printf("stage %s: End failed: %v", mw.next.Name(), err)

		return summary, err
	}

	mw.logger.Printf("stage %s: %s with %d samples, median %.3fms (%.1f fps)",
		mw.next.Name(), mw.next.Status(), summary.Count, summary.Median.FrameTime, summary.Median.FPS)

	return summary, nil
}

// Cancel logs the cancellation and the resulting status.
func (mw LoggingMiddleware) Cancel() {
	mw.next.Cancel()
	mw.logger.Printf("stage %s: canceled, now %s", mw.next.Name(), mw.next.Status())
}

// ID returns the stage id.
func (mw LoggingMiddleware) ID() string { return mw.next.ID() }

// Name returns the stage name.
func (mw LoggingMiddleware) Name() string { return mw.next.Name() }

// Status returns the stage status.
func (mw LoggingMiddleware) Status() framestats.Status { return mw.next.Status() }

// Current returns the running statistics.
func (mw LoggingMiddleware) Current() aggregator.Snapshot { return mw.next.Current() }

// Summary returns the finalized statistics.
func (mw LoggingMiddleware) Summary() (aggregator.Summary, bool) { return mw.next.Summary() }

// Samples returns the recorded history.
func (mw LoggingMiddleware) Samples() []sample.Sample { return mw.next.Samples() }

// Progress returns the covered share of the window.
func (mw LoggingMiddleware) Progress() int { return mw.next.Progress() }

// Window returns the length of the measurement window.
func (mw LoggingMiddleware) Window() time.Duration { return mw.next.Window() }

// SetTimeline logs the timeline length reported by the frame source.
func (mw LoggingMiddleware) SetTimeline(d time.Duration) {
	mw.logger.Printf("stage %s: timeline %s", mw.next.Name(), d)
	mw.next.SetTimeline(d)
}
