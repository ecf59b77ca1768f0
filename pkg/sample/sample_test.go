package sample

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/longbridgeapp/assert"
	statslib "github.com/montanaflynn/stats"

	"github.com/hyp3rd/framestats/internal/sentinel"
)

const tolerance = 1e-6

func approx(a, b float64) bool {
	return math.Abs(a-b) <= tolerance*math.Max(1, math.Abs(b))
}

func randomSamples(n int, seed uint64) []Sample {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	out := make([]Sample, n)

	for i := range out {
		frameTime := 5 + rng.Float64()*45
		out[i] = FromFrameTime(frameTime, frameTime*0.6, frameTime*0.3, frameTime*0.8)
	}

	return out
}

func TestCombineMin_InvertsFPS(t *testing.T) {
	for i, pair := range [][2]Sample{
		{FromFrameTime(10, 4, 2, 8), FromFrameTime(20, 9, 1, 12)},
		{FromFrameTime(16.6, 1, 1, 1), FromFrameTime(33.3, 0.5, 3, 0.2)},
	} {
		a, b := pair[0], pair[1]
		got := CombineMin(a, b)

		assert.Equal(t, a.FrameTime, got.FrameTime)
		assert.Equal(t, math.Max(a.FPS, b.FPS), got.FPS)
		assert.Equal(t, math.Min(a.CPUTime, b.CPUTime), got.CPUTime)
		assert.Equal(t, math.Min(a.CPURenderThreadTime, b.CPURenderThreadTime), got.CPURenderThreadTime)
		assert.Equal(t, math.Min(a.GPUTime, b.GPUTime), got.GPUTime)

		if got.FPS != a.FPS {
			t.Fatalf("pair %d: min sample should carry the FPS of the faster frame", i)
		}
	}
}

func TestCombineMax_InvertsFPS(t *testing.T) {
	a := FromFrameTime(10, 4, 2, 8)
	b := FromFrameTime(20, 9, 1, 12)

	got := CombineMax(a, b)
	assert.Equal(t, 20.0, got.FrameTime)
	assert.Equal(t, b.FPS, got.FPS)
	assert.Equal(t, 9.0, got.CPUTime)
	assert.Equal(t, 2.0, got.CPURenderThreadTime)
	assert.Equal(t, 12.0, got.GPUTime)
}

func TestCombine_TimelineFromLatest(t *testing.T) {
	a := FromFrameTime(10, 1, 1, 1).WithTimeline(1.5)
	b := FromFrameTime(30, 1, 1, 1).WithTimeline(2.5)

	assert.Equal(t, 2.5, CombineMin(a, b).TimelinePosition)
	assert.Equal(t, 2.5, CombineMax(a, b).TimelinePosition)
	assert.True(t, CombineMin(a, b).HasTimeline)
}

func TestSeeds(t *testing.T) {
	minSeed := SeedForMin()
	for _, kind := range MetricKinds() {
		assert.True(t, math.IsInf(minSeed.GetValue(kind), 1))
		assert.Equal(t, 0.0, SeedForMax().GetValue(kind))
	}

	s := FromFrameTime(12, 3, 4, 5)
	assert.True(t, CombineMin(Seed(math.Inf(1)), s).FrameTime == 12)
	assert.True(t, CombineMax(SeedForMax(), s).GPUTime == 5)
}

func TestRunningAverage_MatchesArithmeticMean(t *testing.T) {
	samples := randomSamples(10_000, 7)

	avg := SeedForMax()
	for i, s := range samples {
		avg = RunningAverage(avg, s, i+1)
	}

	for _, kind := range MetricKinds() {
		values := make(statslib.Float64Data, len(samples))
		for i, s := range samples {
			values[i] = s.GetValue(kind)
		}

		mean, err := statslib.Mean(values)
		assert.NoError(t, err)

		if !approx(avg.GetValue(kind), mean) {
			t.Fatalf("%s: running average %v, mean %v", kind, avg.GetValue(kind), mean)
		}
	}
}

func TestRunningAverage_FirstSampleIsItself(t *testing.T) {
	s := FromFrameTime(16, 8, 4, 10)
	assert.Equal(t, s, RunningAverage(SeedForMax(), s, 1))
	assert.Equal(t, s, RunningAverage(SeedForMin(), s, 0))
}

func TestLerp(t *testing.T) {
	a := Sample{FrameTime: 10, FPS: 100, CPUTime: 2, CPURenderThreadTime: 4, GPUTime: 6}
	b := Sample{FrameTime: 20, FPS: 50, CPUTime: 4, CPURenderThreadTime: 8, GPUTime: 12}

	assert.Equal(t, a, Lerp(a, b, 0))
	assert.Equal(t, b, Lerp(a, b, 1))

	mid := Lerp(a, b, 0.5)
	assert.Equal(t, 15.0, mid.FrameTime)
	assert.Equal(t, 75.0, mid.FPS)
	assert.Equal(t, 3.0, mid.CPUTime)
	assert.Equal(t, 6.0, mid.CPURenderThreadTime)
	assert.Equal(t, 9.0, mid.GPUTime)
	assert.False(t, mid.HasTimeline)
}

func TestGetValueAndFPSOverride(t *testing.T) {
	s := Sample{FrameTime: 1, FPS: 2, CPUTime: 3, CPURenderThreadTime: 4, GPUTime: 5}
	for i, kind := range MetricKinds() {
		assert.Equal(t, float64(i+1), s.GetValue(kind))
	}

	assert.Equal(t, 0.0, s.GetValue(MetricKind(42)))

	s.SetFPSOverride(99)
	assert.Equal(t, 99.0, s.FPS)
	assert.Equal(t, 1.0, s.FrameTime)
}

func TestFromFrameTime(t *testing.T) {
	assert.Equal(t, 50.0, FromFrameTime(20, 0, 0, 0).FPS)
	assert.Equal(t, 0.0, FromFrameTime(0, 0, 0, 0).FPS)
}

func TestMinOfMaxOf(t *testing.T) {
	samples := randomSamples(500, 3)

	incMin, incMax := samples[0], samples[0]
	for _, s := range samples[1:] {
		incMin = CombineMin(incMin, s)
		incMax = CombineMax(incMax, s)
	}

	assert.True(t, MinOf(samples).SameMetrics(incMin))
	assert.True(t, MaxOf(samples).SameMetrics(incMax))
	assert.True(t, MinOf(nil).SameMetrics(SeedForMin()))
	assert.True(t, MaxOf(nil).SameMetrics(SeedForMax()))
}

func TestParseMetricKind(t *testing.T) {
	for _, kind := range MetricKinds() {
		got, err := ParseMetricKind(kind.String())
		assert.NoError(t, err)
		assert.Equal(t, kind, got)
	}

	got, err := ParseMetricKind("CPU-Render_Thread Time")
	assert.NoError(t, err)
	assert.Equal(t, CPURenderThreadTime, got)

	_, err = ParseMetricKind("latency")
	assert.True(t, errors.Is(err, sentinel.ErrInvalidMetric))

	assert.Equal(t, "", FPS.Unit())
	assert.Equal(t, "ms", GPUTime.Unit())
}
