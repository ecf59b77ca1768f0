package framestats

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/framestats/internal/constants"
	"github.com/hyp3rd/framestats/internal/sentinel"
	"github.com/hyp3rd/framestats/pkg/aggregator"
	"github.com/hyp3rd/framestats/pkg/sample"
)

// Status is the lifecycle position of a Stage.
type Status int

// Stage statuses. Finished, Stopped and Skipped are terminal.
const (
	StatusWaiting Status = iota
	StatusWarming
	StatusRunning
	StatusFinished
	StatusStopped
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "Waiting"
	case StatusWarming:
		return "Warming"
	case StatusRunning:
		return "Running"
	case StatusFinished:
		return "Finished"
	case StatusStopped:
		return "Stopped"
	case StatusSkipped:
		return "Skipped"
	}

	return "Unknown"
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusStopped || s == StatusSkipped
}

// BenchmarkType selects what bounds the measurement window of a stage.
type BenchmarkType int

const (
	// UseTimeline stops when the frame source reports the end of its timeline. Sources without
	// a timeline fall back to the stage duration.
	UseTimeline BenchmarkType = iota
	// UseTimeDuration stops once the stage duration has elapsed on the sample timeline.
	UseTimeDuration
)

func (b BenchmarkType) String() string {
	if b == UseTimeDuration {
		return "duration"
	}

	return "timeline"
}

// ParseBenchmarkType maps "timeline" or "duration" to a BenchmarkType.
func ParseBenchmarkType(name string) (BenchmarkType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "timeline", "":
		return UseTimeline, nil
	case "duration", "time":
		return UseTimeDuration, nil
	}

	return UseTimeline, ewrap.Wrap(sentinel.ErrInvalidBenchmarkType, name)
}

// EventKind tells observers what happened to a stage.
type EventKind int

// Event kinds.
const (
	EventStatus EventKind = iota
	EventSample
	EventSummary
)

// Event is delivered to stage observers, synchronously, on the goroutine that caused it.
type Event struct {
	Kind         EventKind
	Stage        string
	Status       Status
	Snapshot     aggregator.Snapshot
	RangeChanged bool
	Summary      *aggregator.Summary
}

// Observer receives stage events. Observers must not call back into the stage's mutating methods.
type Observer func(Event)

// Stage is one measured run. It owns exactly one Aggregator for its whole lifetime and
// forwards pushes and finalization to it while enforcing the
// Waiting -> Warming -> Running -> {Finished | Stopped | Skipped} lifecycle.
type Stage struct {
	mu sync.RWMutex

	id               string
	name             string
	enabled          bool
	benchmarkType    BenchmarkType
	duration         time.Duration
	capacity         int
	recalculateRange bool
	estimator        aggregator.Estimator
	observers        []Observer

	status    Status
	agg       *aggregator.Aggregator
	timeline  time.Duration
	position  float64
	startedAt time.Time
	endedAt   time.Time
}

// StageOption configures a Stage.
type StageOption func(*Stage)

// WithStageID sets an explicit stage id instead of the derived one.
func WithStageID(id string) StageOption {
	return func(s *Stage) { s.id = id }
}

// WithStageEnabled toggles whether a benchmark runs the stage at all.
func WithStageEnabled(enabled bool) StageOption {
	return func(s *Stage) { s.enabled = enabled }
}

// WithBenchmarkType selects what bounds the measurement window.
func WithBenchmarkType(benchmarkType BenchmarkType) StageOption {
	return func(s *Stage) { s.benchmarkType = benchmarkType }
}

// WithStageDuration sets the measurement window used by UseTimeDuration stages and by
// sources without a timeline. Non-positive durations are ignored.
func WithStageDuration(d time.Duration) StageOption {
	return func(s *Stage) {
		if d > 0 {
			s.duration = d
		}
	}
}

// WithStageCapacity preallocates the sample history.
func WithStageCapacity(n int) StageOption {
	return func(s *Stage) { s.capacity = n }
}

// WithStageRangeRecalculation makes End recompute min and max from the full history.
func WithStageRangeRecalculation(enabled bool) StageOption {
	return func(s *Stage) { s.recalculateRange = enabled }
}

// WithStageEstimator selects the quartile estimator used by End.
func WithStageEstimator(e aggregator.Estimator) StageOption {
	return func(s *Stage) { s.estimator = e }
}

// WithStageObserver registers an observer for status, sample and summary events.
func WithStageObserver(observer Observer) StageOption {
	return func(s *Stage) {
		if observer != nil {
			s.observers = append(s.observers, observer)
		}
	}
}

// NewStage creates a waiting stage. Without WithStageID, the id is derived from the name
// and the creation time with xxhash64.
func NewStage(name string, opts ...StageOption) (*Stage, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "stage name")
	}

	stage := &Stage{
		name:     name,
		enabled:  true,
		duration: constants.DefaultStageDuration,
		capacity: constants.DefaultHistoryCapacity,
		status:   StatusWaiting,
	}

	for _, opt := range opts {
		opt(stage)
	}

	if stage.id == "" {
		stage.id = deriveStageID(name, time.Now())
	}

	stage.agg = aggregator.New(aggregator.WithCapacity(stage.capacity))

	return stage, nil
}

func deriveStageID(name string, at time.Time) string {
	hv := xxhash.Sum64String(name + "@" + strconv.FormatInt(at.UnixNano(), 10))

	return strconv.FormatUint(hv, 16)
}

// ID returns the stage id.
func (s *Stage) ID() string { return s.id }

// Name returns the stage name.
func (s *Stage) Name() string { return s.name }

// Enabled reports whether a benchmark should run the stage.
func (s *Stage) Enabled() bool { return s.enabled }

// BenchmarkType returns what bounds the measurement window.
func (s *Stage) BenchmarkType() BenchmarkType { return s.benchmarkType }

// Duration returns the configured measurement window.
func (s *Stage) Duration() time.Duration { return s.duration }

// Status returns the current status.
func (s *Stage) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status
}

// StartedAt returns when the stage entered Warming; zero before.
func (s *Stage) StartedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.startedAt
}

// EndedAt returns when the stage reached a terminal status; zero before.
func (s *Stage) EndedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.endedAt
}

// Start moves a waiting stage to Warming.
func (s *Stage) Start(_ context.Context) error {
	s.mu.Lock()

	if s.status != StatusWaiting {
		status := s.status
		s.mu.Unlock()

		return ewrap.Wrapf(sentinel.ErrInvalidState, "start stage %q in status %s", s.name, status)
	}

	s.status = StatusWarming
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.notify(Event{Kind: EventStatus, Status: StatusWarming})

	return nil
}

// SetTimeline records the timeline length reported by the frame source; 0 means none.
func (s *Stage) SetTimeline(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timeline = max(d, 0)
}

// Window returns the length of the measurement window: the source timeline for
// UseTimeline stages that have one, the configured duration otherwise.
func (s *Stage) Window() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.windowLocked()
}

func (s *Stage) windowLocked() time.Duration {
	if s.benchmarkType == UseTimeline && s.timeline > 0 {
		return s.timeline
	}

	return s.duration
}

// BeginRunning moves a warming stage to Running. A stage skipped during warmup stays skipped.
func (s *Stage) BeginRunning(_ context.Context) error {
	s.mu.Lock()

	if s.status != StatusWarming {
		status := s.status
		s.mu.Unlock()

		return ewrap.Wrapf(sentinel.ErrInvalidState, "run stage %q in status %s", s.name, status)
	}

	s.status = StatusRunning
	s.mu.Unlock()

	s.notify(Event{Kind: EventStatus, Status: StatusRunning})

	return nil
}

// Push records one frame sample. It is legal only while Running and reports whether the
// running min or max changed.
func (s *Stage) Push(_ context.Context, smp sample.Sample) (bool, error) {
	s.mu.Lock()

	if s.status != StatusRunning {
		status := s.status
		s.mu.Unlock()

		return false, ewrap.Wrapf(sentinel.ErrInvalidState, "push to stage %q in status %s", s.name, status)
	}

	changed, err := s.agg.Push(smp)
	if err != nil {
		s.mu.Unlock()

		return false, err
	}

	if smp.HasTimeline {
		s.position = smp.TimelinePosition
	}

	s.mu.Unlock()

	if len(s.observers) > 0 {
		s.notify(Event{Kind: EventSample, Status: StatusRunning, Snapshot: s.agg.Current(), RangeChanged: changed})
	}

	return changed, nil
}

// Current returns the running statistics.
func (s *Stage) Current() aggregator.Snapshot {
	return s.agg.Current()
}

// Samples returns a copy of the recorded history.
func (s *Stage) Samples() []sample.Sample {
	return s.agg.Samples()
}

// Summary returns the finalized statistics once End succeeded.
func (s *Stage) Summary() (aggregator.Summary, bool) {
	return s.agg.Summary()
}

// Progress returns how much of the measurement window has been covered, 0 to 100.
func (s *Stage) Progress() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	window := s.windowLocked().Seconds()
	if window <= 0 {
		return 0
	}

	return int(min(100, max(0, 100*s.position/window)))
}

// Cancel ends the stage cooperatively: a waiting or warming stage becomes Skipped, a running
// one becomes Stopped. The producer observes the status and stops pushing. Cancelling a
// terminal stage does nothing.
func (s *Stage) Cancel() {
	s.mu.Lock()

	var next Status

	switch s.status {
	case StatusWaiting, StatusWarming:
		next = StatusSkipped
	case StatusRunning:
		next = StatusStopped
	case StatusFinished, StatusStopped, StatusSkipped:
		s.mu.Unlock()

		return
	}

	s.status = next
	s.endedAt = time.Now()
	s.mu.Unlock()

	s.notify(Event{Kind: EventStatus, Status: next})
}

// End closes the measurement: a running stage becomes Finished, a stopped one keeps its
// status, and both are finalized. Skipped or not yet running stages fail with
// sentinel.ErrInvalidState; a stage without samples fails with sentinel.ErrInsufficientData.
func (s *Stage) End(_ context.Context) (aggregator.Summary, error) {
	s.mu.Lock()

	finished := false

	switch s.status {
	case StatusRunning:
		s.status = StatusFinished
		s.endedAt = time.Now()
		finished = true
	case StatusStopped:
	case StatusWaiting, StatusWarming, StatusFinished, StatusSkipped:
		status := s.status
		s.mu.Unlock()

		return aggregator.Summary{}, ewrap.Wrapf(sentinel.ErrInvalidState, "end stage %q in status %s", s.name, status)
	}

	opts := []aggregator.FinalizeOption{aggregator.WithEstimator(s.estimator)}
	if s.recalculateRange {
		opts = append(opts, aggregator.WithRangeRecalculation())
	}

	status := s.status
	s.mu.Unlock()

	if finished {
		s.notify(Event{Kind: EventStatus, Status: status})
	}

	summary, err := s.agg.Finalize(opts...)
	if err != nil {
		return aggregator.Summary{}, ewrap.Wrapf(err, "finalize stage %q", s.name)
	}

	s.notify(Event{Kind: EventSummary, Status: status, Snapshot: summary.Snapshot(), Summary: &summary})

	return summary, nil
}

func (s *Stage) notify(event Event) {
	event.Stage = s.name
	for _, observer := range s.observers {
		observer(event)
	}
}
