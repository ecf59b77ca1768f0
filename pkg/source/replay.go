package source

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/hyp3rd/framestats/pkg/sample"
)

// Replay plays back a fixed list of samples, optionally per stage.
type Replay struct {
	mu sync.Mutex

	frames   []sample.Sample
	perStage map[string][]sample.Sample
	timeline time.Duration

	current []sample.Sample
	index   int
}

// ReplayOption configures a Replay source.
type ReplayOption func(*Replay)

// WithStageFrames replays frames instead of the default list for the named stage.
func WithStageFrames(stage string, frames []sample.Sample) ReplayOption {
	return func(r *Replay) { r.perStage[stage] = slices.Clone(frames) }
}

// WithReplayTimeline reports a timeline of length d to the benchmark.
func WithReplayTimeline(d time.Duration) ReplayOption {
	return func(r *Replay) { r.timeline = max(d, 0) }
}

// NewReplay creates a source that replays frames for every stage.
func NewReplay(frames []sample.Sample, opts ...ReplayOption) *Replay {
	replay := &Replay{
		frames:   slices.Clone(frames),
		perStage: make(map[string][]sample.Sample),
	}

	for _, opt := range opts {
		opt(replay)
	}

	return replay
}

// Prepare rewinds to the first frame of the named stage.
func (r *Replay) Prepare(ctx context.Context, stage string) (time.Duration, error) {
	err := ctx.Err()
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.current = r.frames
	if frames, ok := r.perStage[stage]; ok {
		r.current = frames
	}

	r.index = 0

	return r.timeline, nil
}

// Next returns the next recorded frame, or false when the recording is over.
func (r *Replay) Next(ctx context.Context) (sample.Sample, bool, error) {
	err := ctx.Err()
	if err != nil {
		return sample.Sample{}, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.index >= len(r.current) {
		return sample.Sample{}, false, nil
	}

	smp := r.current[r.index]
	r.index++

	return smp, true, nil
}
