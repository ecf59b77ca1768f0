package sample

import (
	"strings"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/framestats/internal/sentinel"
)

// MetricKind selects one measured field of a Sample.
type MetricKind int

// Metric kinds, in export column order.
const (
	FrameTime MetricKind = iota
	FPS
	CPUTime
	CPURenderThreadTime
	GPUTime
)

// MetricKinds lists every metric kind in export column order.
func MetricKinds() []MetricKind {
	return []MetricKind{FrameTime, FPS, CPUTime, CPURenderThreadTime, GPUTime}
}

// String returns the name of the metric kind.
func (k MetricKind) String() string {
	switch k {
	case FrameTime:
		return "frametime"
	case FPS:
		return "fps"
	case CPUTime:
		return "cputime"
	case CPURenderThreadTime:
		return "cpurenderthreadtime"
	case GPUTime:
		return "gputime"
	}

	return "unknown"
}

// Unit returns the display unit of the metric: "ms" for timings, nothing for FPS.
func (k MetricKind) Unit() string {
	if k == FPS {
		return ""
	}

	return "ms"
}

// ParseMetricKind maps a metric name (case and separator insensitive) to its kind.
func ParseMetricKind(name string) (MetricKind, error) {
	normalized := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(name)))

	for _, kind := range MetricKinds() {
		if kind.String() == normalized {
			return kind, nil
		}
	}

	return FrameTime, ewrap.Wrap(sentinel.ErrInvalidMetric, name)
}
