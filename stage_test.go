package framestats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/longbridgeapp/assert"

	"github.com/hyp3rd/framestats/internal/sentinel"
	"github.com/hyp3rd/framestats/pkg/sample"
)

func frames(frameTimes ...float64) []sample.Sample {
	out := make([]sample.Sample, len(frameTimes))
	for i, ft := range frameTimes {
		out[i] = sample.FromFrameTime(ft, ft*0.6, ft*0.3, ft*0.8)
	}

	return out
}

func runningStage(t *testing.T, opts ...StageOption) *Stage {
	t.Helper()

	ctx := context.Background()

	stage, err := NewStage("forest", opts...)
	assert.NoError(t, err)
	assert.NoError(t, stage.Start(ctx))
	assert.NoError(t, stage.BeginRunning(ctx))

	return stage
}

func TestNewStage(t *testing.T) {
	_, err := NewStage("  ")
	assert.True(t, errors.Is(err, sentinel.ErrParamCannotBeEmpty))

	stage, err := NewStage("forest")
	assert.NoError(t, err)
	assert.True(t, stage.ID() != "")
	assert.Equal(t, StatusWaiting, stage.Status())
	assert.True(t, stage.Enabled())
	assert.Equal(t, UseTimeline, stage.BenchmarkType())
	assert.Equal(t, 30*time.Second, stage.Duration())

	named, err := NewStage("forest", WithStageID("f-1"), WithStageEnabled(false), WithStageDuration(-time.Second))
	assert.NoError(t, err)
	assert.Equal(t, "f-1", named.ID())
	assert.False(t, named.Enabled())
	assert.Equal(t, 30*time.Second, named.Duration())
}

func TestStage_Lifecycle(t *testing.T) {
	ctx := context.Background()
	stage := runningStage(t)

	assert.Equal(t, StatusRunning, stage.Status())
	assert.False(t, stage.StartedAt().IsZero())

	for _, smp := range frames(10, 20, 30, 40) {
		_, err := stage.Push(ctx, smp)
		assert.NoError(t, err)
	}

	summary, err := stage.End(ctx)
	assert.NoError(t, err)
	assert.Equal(t, StatusFinished, stage.Status())
	assert.False(t, stage.EndedAt().IsZero())
	assert.Equal(t, 4, summary.Count)
	assert.Equal(t, 15.0, summary.LowerQuartile.FrameTime)
	assert.Equal(t, 25.0, summary.Median.FrameTime)
	assert.Equal(t, 35.0, summary.UpperQuartile.FrameTime)

	stored, ok := stage.Summary()
	assert.True(t, ok)
	assert.Equal(t, summary.Median, stored.Median)

	_, err = stage.End(ctx)
	assert.True(t, errors.Is(err, sentinel.ErrInvalidState))
}

func TestStage_InvalidTransitions(t *testing.T) {
	ctx := context.Background()

	stage, _ := NewStage("forest")

	_, err := stage.Push(ctx, frames(16)[0])
	assert.True(t, errors.Is(err, sentinel.ErrInvalidState))

	err = stage.BeginRunning(ctx)
	assert.True(t, errors.Is(err, sentinel.ErrInvalidState))

	assert.NoError(t, stage.Start(ctx))

	err = stage.Start(ctx)
	assert.True(t, errors.Is(err, sentinel.ErrInvalidState))

	_, err = stage.End(ctx)
	assert.True(t, errors.Is(err, sentinel.ErrInvalidState))
}

func TestStage_Cancel(t *testing.T) {
	ctx := context.Background()

	waiting, _ := NewStage("a")
	waiting.Cancel()
	assert.Equal(t, StatusSkipped, waiting.Status())

	err := waiting.Start(ctx)
	assert.True(t, errors.Is(err, sentinel.ErrInvalidState))

	_, err = waiting.End(ctx)
	assert.True(t, errors.Is(err, sentinel.ErrInvalidState))

	warming, _ := NewStage("b")
	assert.NoError(t, warming.Start(ctx))
	warming.Cancel()
	assert.Equal(t, StatusSkipped, warming.Status())

	err = warming.BeginRunning(ctx)
	assert.True(t, errors.Is(err, sentinel.ErrInvalidState))

	running := runningStage(t)
	_, _ = running.Push(ctx, frames(20)[0])
	running.Cancel()
	assert.Equal(t, StatusStopped, running.Status())

	_, err = running.Push(ctx, frames(20)[0])
	assert.True(t, errors.Is(err, sentinel.ErrInvalidState))

	summary, err := running.End(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, StatusStopped, running.Status())

	// terminal stages ignore further cancels
	running.Cancel()
	assert.Equal(t, StatusStopped, running.Status())
}

func TestStage_StoppedWithoutSamples(t *testing.T) {
	stage := runningStage(t)
	stage.Cancel()

	_, err := stage.End(context.Background())
	assert.True(t, errors.Is(err, sentinel.ErrInsufficientData))
}

func TestStage_WindowAndProgress(t *testing.T) {
	ctx := context.Background()

	timeline := runningStage(t)
	assert.Equal(t, 30*time.Second, timeline.Window())

	timeline.SetTimeline(10 * time.Second)
	assert.Equal(t, 10*time.Second, timeline.Window())

	_, _ = timeline.Push(ctx, frames(16)[0].WithTimeline(2.5))
	assert.Equal(t, 25, timeline.Progress())

	// pushes without a timeline position leave the progress alone
	_, _ = timeline.Push(ctx, frames(16)[0])
	assert.Equal(t, 25, timeline.Progress())

	byDuration := runningStage(t, WithBenchmarkType(UseTimeDuration), WithStageDuration(4*time.Second))
	byDuration.SetTimeline(10 * time.Second)
	assert.Equal(t, 4*time.Second, byDuration.Window())

	_, _ = byDuration.Push(ctx, frames(16)[0].WithTimeline(5))
	assert.Equal(t, 100, byDuration.Progress())
}

func TestStage_Observers(t *testing.T) {
	ctx := context.Background()

	var (
		statuses []Status
		changes  []bool
		summary  int
	)

	observer := func(event Event) {
		assert.Equal(t, "forest", event.Stage)

		switch event.Kind {
		case EventStatus:
			statuses = append(statuses, event.Status)
		case EventSample:
			changes = append(changes, event.RangeChanged)
		case EventSummary:
			summary = event.Summary.Count
		}
	}

	stage := runningStage(t, WithStageObserver(observer))

	for _, smp := range frames(20, 20, 15, 18, 25) {
		_, err := stage.Push(ctx, smp)
		assert.NoError(t, err)
	}

	_, err := stage.End(ctx)
	assert.NoError(t, err)

	assert.Equal(t, []Status{StatusWarming, StatusRunning, StatusFinished}, statuses)
	assert.Equal(t, []bool{true, false, true, false, true}, changes)
	assert.Equal(t, 5, summary)
}

func TestStage_RangeRecalculation(t *testing.T) {
	ctx := context.Background()
	stage := runningStage(t, WithStageRangeRecalculation(true))

	for _, smp := range frames(30, 10, 20) {
		_, _ = stage.Push(ctx, smp)
	}

	summary, err := stage.End(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 10.0, summary.Min.FrameTime)
	assert.Equal(t, 30.0, summary.Max.FrameTime)
	assert.Equal(t, 100.0, summary.Min.FPS)
}

func TestParseBenchmarkType(t *testing.T) {
	bt, err := ParseBenchmarkType("Duration")
	assert.NoError(t, err)
	assert.Equal(t, UseTimeDuration, bt)

	bt, err = ParseBenchmarkType("")
	assert.NoError(t, err)
	assert.Equal(t, UseTimeline, bt)

	_, err = ParseBenchmarkType("frames")
	assert.True(t, errors.Is(err, sentinel.ErrInvalidBenchmarkType))
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "Stopped", StatusStopped.String())
	assert.True(t, StatusSkipped.IsTerminal())
	assert.False(t, StatusRunning.IsTerminal())
}
