// Package sample defines the per-frame measurement record and the operators used to
// combine records into running statistics.
//
// FPS varies inversely with frame time, so the min and max combinators flip their sense
// for the FPS field: the "minimum" sample carries the highest FPS. Interpolation is not
// affected, it blends every field uniformly.
package sample

import (
	"math"

	"github.com/hyp3rd/framestats/internal/constants"
)

// Sample is one frame's set of measured timings. Timings are in milliseconds.
type Sample struct {
	FrameTime           float64 `json:"frameTime"           msgpack:"frameTime"           codec:"frameTime"`
	FPS                 float64 `json:"fps"                 msgpack:"fps"                 codec:"fps"`
	CPUTime             float64 `json:"cpuTime"             msgpack:"cpuTime"             codec:"cpuTime"`
	CPURenderThreadTime float64 `json:"cpuRenderThreadTime" msgpack:"cpuRenderThreadTime" codec:"cpuRenderThreadTime"`
	GPUTime             float64 `json:"gpuTime"             msgpack:"gpuTime"             codec:"gpuTime"`
	// TimelinePosition is the playback position, in seconds, when the frame was captured.
	// It is meaningful only when HasTimeline is set.
	TimelinePosition float64 `json:"timelinePosition,omitempty" msgpack:"timelinePosition" codec:"timelinePosition"`
	HasTimeline      bool    `json:"hasTimeline,omitempty"      msgpack:"hasTimeline"      codec:"hasTimeline"`
}

// FromFrameTime builds a sample from raw timings, deriving FPS from the frame time.
func FromFrameTime(frameTime, cpuTime, cpuRenderThreadTime, gpuTime float64) Sample {
	fps := 0.0
	if frameTime > 0 {
		fps = constants.MillisecondsPerSecond / frameTime
	}

	return Sample{
		FrameTime:           frameTime,
		FPS:                 fps,
		CPUTime:             cpuTime,
		CPURenderThreadTime: cpuRenderThreadTime,
		GPUTime:             gpuTime,
	}
}

// Seed returns a sample with every metric set to v.
func Seed(v float64) Sample {
	return Sample{FrameTime: v, FPS: v, CPUTime: v, CPURenderThreadTime: v, GPUTime: v}
}

// SeedForMin returns the identity of CombineMin: every metric at +Inf.
func SeedForMin() Sample { return Seed(math.Inf(1)) }

// SeedForMax returns the zero seed used by CombineMax and running averages.
func SeedForMax() Sample { return Seed(0) }

// WithTimeline returns a copy of s positioned at the given timeline time.
func (s Sample) WithTimeline(position float64) Sample {
	s.TimelinePosition = position
	s.HasTimeline = true

	return s
}

// GetValue returns the field selected by kind. Unknown kinds yield 0.
func (s Sample) GetValue(kind MetricKind) float64 {
	switch kind {
	case FrameTime:
		return s.FrameTime
	case FPS:
		return s.FPS
	case CPUTime:
		return s.CPUTime
	case CPURenderThreadTime:
		return s.CPURenderThreadTime
	case GPUTime:
		return s.GPUTime
	}

	return 0
}

// SetFPSOverride overwrites the FPS component. Finalization uses it to swap the FPS of the
// quartile pair.
func (s *Sample) SetFPSOverride(fps float64) {
	s.FPS = fps
}

// SameMetrics reports whether both samples carry the same five metric values.
// The timeline position is ignored.
func (s Sample) SameMetrics(o Sample) bool {
	return s.FrameTime == o.FrameTime &&
		s.FPS == o.FPS &&
		s.CPUTime == o.CPUTime &&
		s.CPURenderThreadTime == o.CPURenderThreadTime &&
		s.GPUTime == o.GPUTime
}

// passThrough copies the non-metric fields of src into dst.
func passThrough(dst *Sample, src Sample) {
	dst.TimelinePosition = src.TimelinePosition
	dst.HasTimeline = src.HasTimeline
}

// CombineMin returns the per-field minimum of a and b, except FPS which takes the maximum.
// The timeline position comes from b.
func CombineMin(a, b Sample) Sample {
	out := Sample{
		FrameTime:           math.Min(a.FrameTime, b.FrameTime),
		FPS:                 math.Max(a.FPS, b.FPS),
		CPUTime:             math.Min(a.CPUTime, b.CPUTime),
		CPURenderThreadTime: math.Min(a.CPURenderThreadTime, b.CPURenderThreadTime),
		GPUTime:             math.Min(a.GPUTime, b.GPUTime),
	}
	passThrough(&out, b)

	return out
}

// CombineMax returns the per-field maximum of a and b, except FPS which takes the minimum.
// The timeline position comes from b.
func CombineMax(a, b Sample) Sample {
	out := Sample{
		FrameTime:           math.Max(a.FrameTime, b.FrameTime),
		FPS:                 math.Min(a.FPS, b.FPS),
		CPUTime:             math.Max(a.CPUTime, b.CPUTime),
		CPURenderThreadTime: math.Max(a.CPURenderThreadTime, b.CPURenderThreadTime),
		GPUTime:             math.Max(a.GPUTime, b.GPUTime),
	}
	passThrough(&out, b)

	return out
}

// RunningAverage folds the n-th sample into an average of n-1 samples:
// current*(n-1)/n + s/n for every metric. n is the count including s; n <= 1 returns s.
func RunningAverage(current, s Sample, n int) Sample {
	if n <= 1 {
		return s
	}

	keep := float64(n-1) / float64(n)
	add := 1 / float64(n)

	out := Sample{
		FrameTime:           current.FrameTime*keep + s.FrameTime*add,
		FPS:                 current.FPS*keep + s.FPS*add,
		CPUTime:             current.CPUTime*keep + s.CPUTime*add,
		CPURenderThreadTime: current.CPURenderThreadTime*keep + s.CPURenderThreadTime*add,
		GPUTime:             current.GPUTime*keep + s.GPUTime*add,
	}
	passThrough(&out, s)

	return out
}

// Lerp interpolates every field, FPS and timeline position included, as a + (b-a)*t.
func Lerp(a, b Sample, t float64) Sample {
	return Sample{
		FrameTime:           lerp(a.FrameTime, b.FrameTime, t),
		FPS:                 lerp(a.FPS, b.FPS, t),
		CPUTime:             lerp(a.CPUTime, b.CPUTime, t),
		CPURenderThreadTime: lerp(a.CPURenderThreadTime, b.CPURenderThreadTime, t),
		GPUTime:             lerp(a.GPUTime, b.GPUTime, t),
		TimelinePosition:    lerp(a.TimelinePosition, b.TimelinePosition, t),
		HasTimeline:         a.HasTimeline && b.HasTimeline,
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// MinOf scans samples with CombineMin, starting from the first one. An empty slice yields
// SeedForMin.
func MinOf(samples []Sample) Sample {
	if len(samples) == 0 {
		return SeedForMin()
	}

	out := samples[0]
	for _, s := range samples[1:] {
		out = CombineMin(out, s)
	}

	return out
}

// MaxOf scans samples with CombineMax, starting from the first one. An empty slice yields
// SeedForMax.
func MaxOf(samples []Sample) Sample {
	if len(samples) == 0 {
		return SeedForMax()
	}

	out := samples[0]
	for _, s := range samples[1:] {
		out = CombineMax(out, s)
	}

	return out
}
