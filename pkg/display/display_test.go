package display

import (
	"math"
	"testing"

	"github.com/longbridgeapp/assert"

	"github.com/hyp3rd/framestats/pkg/aggregator"
	"github.com/hyp3rd/framestats/pkg/sample"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func finalized(t *testing.T, frameTimes ...float64) aggregator.Summary {
	t.Helper()

	agg := aggregator.New()
	for _, ft := range frameTimes {
		_, err := agg.Push(sample.FromFrameTime(ft, ft/2, ft/4, ft))
		assert.NoError(t, err)
	}

	summary, err := agg.Finalize()
	assert.NoError(t, err)

	return summary
}

func TestBuild_FrameTimeRanges(t *testing.T) {
	summary := finalized(t, 10, 20, 30, 40)

	view := Build(sample.FrameTime, summary.Snapshot(), &summary, summary.Samples, nil)

	assert.Equal(t, "frametime", view.Metric)
	assert.Equal(t, "ms", view.Unit)
	assert.Equal(t, 4, view.Count)
	assert.True(t, view.Finalized)
	assert.True(t, near(40, view.Max))
	assert.True(t, near(25, view.MinRangeBottom))
	assert.True(t, near(100-35*100.0/40, view.QuartileTop))
	assert.True(t, near(15*100.0/40, view.QuartileBottom))
	assert.Equal(t, 4, len(view.Graph))
	assert.True(t, near(0.25, view.Graph[0]))
	assert.True(t, near(1, view.Graph[3]))
}

func TestBuild_RunningViewHasNoQuartiles(t *testing.T) {
	agg := aggregator.New()
	_, _ = agg.Push(sample.FromFrameTime(16, 8, 4, 12))

	view := Build(sample.FPS, agg.Current(), nil, agg.Samples(), DefaultThresholds())

	assert.False(t, view.Finalized)
	assert.Equal(t, "", view.Unit)
	assert.Equal(t, 0.0, view.QuartileTop)
	assert.Nil(t, view.Graph)
	assert.Equal(t, 3, len(view.Lines))
}

func TestBuild_ZeroMax(t *testing.T) {
	view := Build(sample.GPUTime, aggregator.Snapshot{}, nil, nil, DefaultThresholds())

	assert.Equal(t, 0.0, view.MinRangeBottom)
	assert.Nil(t, view.Graph)

	for _, line := range view.Lines {
		assert.False(t, line.Visible)
	}
}

func TestLines_VisibleBelowMax(t *testing.T) {
	// 40 ms max: the 30 FPS line (33.3 ms) and faster ones fit under it.
	lines := Lines(sample.FrameTime, DefaultThresholds(), 40)
	assert.True(t, lines[0].Visible)
	assert.True(t, near(100*(1000.0/30)/40, lines[0].Position))
	assert.True(t, lines[2].Visible)

	// 20 ms max hides the 30 FPS line.
	lines = Lines(sample.FrameTime, DefaultThresholds(), 20)
	assert.False(t, lines[0].Visible)
	assert.True(t, lines[1].Visible)
}

func TestNewFPSThreshold(t *testing.T) {
	th := NewFPSThreshold("60", "#fff", 60)
	assert.True(t, near(1000.0/60, th.Reference.FrameTime))
	assert.True(t, near(60, th.Reference.FPS))
	assert.True(t, near(1000.0/60, th.Reference.GPUTime))
}
