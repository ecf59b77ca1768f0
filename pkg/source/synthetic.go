// Package source provides frame sources for a benchmark: Synthetic generates plausible frame
// timings from a seeded generator and Replay plays back recorded samples.
//
// Both satisfy framestats.FrameSource.
package source

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/hyp3rd/framestats/internal/constants"
	"github.com/hyp3rd/framestats/pkg/sample"
)

const (
	defaultBaseFrameTime = 16.6
	defaultJitter        = 2.5
	minFrameTime         = 0.5
)

// Synthetic produces normally distributed frame times around a base value. Each stage gets
// its own deterministic stream derived from the seed and the stage name.
type Synthetic struct {
	mu sync.Mutex

	seed          uint64
	baseFrameTime float64
	jitter        float64
	timeline      time.Duration
	realtime      bool

	rng      *rand.Rand
	position float64
}

// SyntheticOption configures a Synthetic source.
type SyntheticOption func(*Synthetic)

// WithSeed sets the generator seed.
func WithSeed(seed uint64) SyntheticOption {
	return func(s *Synthetic) { s.seed = seed }
}

// WithBaseFrameTime sets the mean frame time in milliseconds.
func WithBaseFrameTime(ms float64) SyntheticOption {
	return func(s *Synthetic) {
		if ms > 0 {
			s.baseFrameTime = ms
		}
	}
}

// WithJitter sets the standard deviation of the frame time in milliseconds.
func WithJitter(ms float64) SyntheticOption {
	return func(s *Synthetic) {
		if ms >= 0 {
			s.jitter = ms
		}
	}
}

// WithTimeline gives the source a timeline of length d. Without one, the source never ends on
// its own and the stage duration bounds the measurement.
func WithTimeline(d time.Duration) SyntheticOption {
	return func(s *Synthetic) { s.timeline = max(d, 0) }
}

// WithRealtime makes Next wait for the generated frame time before returning.
func WithRealtime(enabled bool) SyntheticOption {
	return func(s *Synthetic) { s.realtime = enabled }
}

// NewSynthetic creates a synthetic source.
func NewSynthetic(opts ...SyntheticOption) *Synthetic {
	src := &Synthetic{
		baseFrameTime: defaultBaseFrameTime,
		jitter:        defaultJitter,
	}

	for _, opt := range opts {
		opt(src)
	}

	src.rng = rand.New(rand.NewPCG(src.seed, 0))

	return src
}

// Prepare rewinds the source for the named stage and returns its timeline length.
func (s *Synthetic) Prepare(ctx context.Context, stage string) (time.Duration, error) {
	err := ctx.Err()
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rng = rand.New(rand.NewPCG(s.seed, xxhash.Sum64String(stage)))
	s.position = 0

	return s.timeline, nil
}

// Next generates the next frame. It reports false once the timeline is exhausted.
func (s *Synthetic) Next(ctx context.Context) (sample.Sample, bool, error) {
	err := ctx.Err()
	if err != nil {
		return sample.Sample{}, false, err
	}

	s.mu.Lock()

	frameTime := max(minFrameTime, s.baseFrameTime+s.rng.NormFloat64()*s.jitter)
	cpuTime := frameTime * (0.4 + 0.3*s.rng.Float64())
	gpuTime := frameTime * (0.6 + 0.35*s.rng.Float64())
	smp := sample.FromFrameTime(frameTime, cpuTime, cpuTime/2, gpuTime)

	if s.timeline > 0 {
		next := s.position + frameTime/constants.MillisecondsPerSecond
		if next > s.timeline.Seconds() {
			s.mu.Unlock()

			return sample.Sample{}, false, nil
		}

		s.position = next
		smp = smp.WithTimeline(next)
	}

	s.mu.Unlock()

	if s.realtime {
		err = wait(ctx, time.Duration(frameTime*float64(time.Millisecond)))
		if err != nil {
			return sample.Sample{}, false, err
		}
	}

	return smp, true, nil
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
