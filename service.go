package framestats

import (
	"context"
	"time"

	"github.com/hyp3rd/framestats/pkg/aggregator"
	"github.com/hyp3rd/framestats/pkg/sample"
)

// Service is the stage-facing interface the benchmark runner drives.
// It enables middleware to be added around a Stage.
type Service interface {
	lifecycle
	// ID returns the stage id
	ID() string
	// Name returns the stage name
	Name() string
	// Status returns the stage status
	Status() Status
	// Current returns the running statistics
	Current() aggregator.Snapshot
	// Summary returns the finalized statistics, if any
	Summary() (aggregator.Summary, bool)
	// Samples returns a copy of the recorded history
	Samples() []sample.Sample
	// Progress returns the covered share of the measurement window, 0 to 100
	Progress() int
	// Window returns the length of the measurement window
	Window() time.Duration
	// SetTimeline records the timeline length reported by the frame source
	SetTimeline(d time.Duration)
}

type lifecycle interface {
	// Start moves the stage from Waiting to Warming
	Start(ctx context.Context) error
	// BeginRunning moves the stage from Warming to Running
	BeginRunning(ctx context.Context) error
	// Push records one frame sample and reports whether the running range changed
	Push(ctx context.Context, s sample.Sample) (bool, error)
	// End finalizes the stage and returns its summary
	End(ctx context.Context) (aggregator.Summary, error)
	// Cancel stops or skips the stage
	Cancel()
}

// Middleware describes a service middleware.
type Middleware func(Service) Service

// ApplyMiddleware applies middlewares to a service.
func ApplyMiddleware(svc Service, mw ...Middleware) Service {
	for _, m := range mw {
		svc = m(svc)
	}

	return svc
}
