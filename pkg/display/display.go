// Package display turns aggregator snapshots into the numbers a stage view draws: the
// values of one metric, the min/max and quartile ranges as percentages of the maximum,
// a normalized frame graph and reference threshold lines.
//
// Nothing here keeps state. Callers poll Build with whatever the stage currently exposes.
package display

import (
	"github.com/hyp3rd/framestats/internal/constants"
	"github.com/hyp3rd/framestats/pkg/aggregator"
	"github.com/hyp3rd/framestats/pkg/sample"
)

const (
	fullScale = 100.0
	// minGraphSamples is the smallest history worth drawing as a line.
	minGraphSamples = 2
)

// Threshold is a reference frame drawn as a horizontal line behind the graph.
type Threshold struct {
	Label     string        `json:"label"`
	Color     string        `json:"color"`
	Reference sample.Sample `json:"reference"`
}

// NewFPSThreshold builds a threshold whose timings all match the frame time of the given rate.
func NewFPSThreshold(label, color string, fps float64) Threshold {
	frameTime := 0.0
	if fps > 0 {
		frameTime = constants.MillisecondsPerSecond / fps
	}

	return Threshold{
		Label:     label,
		Color:     color,
		Reference: sample.FromFrameTime(frameTime, frameTime, frameTime, frameTime),
	}
}

// DefaultThresholds returns the 30, 60 and 120 FPS reference lines.
func DefaultThresholds() []Threshold {
	return []Threshold{
		NewFPSThreshold("30 FPS", "#e53935", 30),
		NewFPSThreshold("60 FPS", "#fdd835", 60),
		NewFPSThreshold("120 FPS", "#43a047", 120),
	}
}

// Line is a threshold placed on the graph.
type Line struct {
	Label    string  `json:"label"`
	Color    string  `json:"color"`
	Position float64 `json:"position"`
	Visible  bool    `json:"visible"`
}

// View holds everything needed to draw one stage for one metric.
type View struct {
	Metric string `json:"metric"`
	Unit   string `json:"unit"`
	Count  int    `json:"count"`

	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`

	Finalized     bool    `json:"finalized"`
	LowerQuartile float64 `json:"lowerQuartile,omitempty"`
	Median        float64 `json:"median,omitempty"`
	UpperQuartile float64 `json:"upperQuartile,omitempty"`

	// MinRangeBottom is where the min/max range starts, in percent of the maximum.
	MinRangeBottom float64 `json:"minRangeBottom"`
	// QuartileTop and QuartileBottom bound the interquartile range, in percent from the top and the bottom.
	QuartileTop    float64 `json:"quartileTop,omitempty"`
	QuartileBottom float64 `json:"quartileBottom,omitempty"`

	Graph []float64 `json:"graph,omitempty"`
	Lines []Line    `json:"lines,omitempty"`
}

// Build computes the view of kind. summary is nil until the stage is finalized. A zero
// maximum yields zero percentages, no graph and hidden lines.
func Build(
	kind sample.MetricKind,
	snapshot aggregator.Snapshot,
	summary *aggregator.Summary,
	samples []sample.Sample,
	thresholds []Threshold,
) View {
	maxValue := snapshot.Max.GetValue(kind)

	view := View{
		Metric:  kind.String(),
		Unit:    kind.Unit(),
		Count:   snapshot.Count,
		Min:     snapshot.Min.GetValue(kind),
		Max:     maxValue,
		Average: snapshot.Average.GetValue(kind),
	}

	if snapshot.Count == 0 {
		view.Min = 0
	}

	view.MinRangeBottom = percentOf(view.Min, maxValue)

	if summary != nil {
		view.Finalized = true
		view.LowerQuartile = summary.LowerQuartile.GetValue(kind)
		view.Median = summary.Median.GetValue(kind)
		view.UpperQuartile = summary.UpperQuartile.GetValue(kind)

		if maxValue > 0 {
			view.QuartileTop = fullScale - percentOf(view.UpperQuartile, maxValue)
			view.QuartileBottom = percentOf(view.LowerQuartile, maxValue)
		}
	}

	view.Graph = Graph(kind, samples, maxValue)
	view.Lines = Lines(kind, thresholds, maxValue)

	return view
}

// Graph normalizes each sample's kind value by maxValue. It returns nil for fewer than two
// samples or a non-positive maximum.
func Graph(kind sample.MetricKind, samples []sample.Sample, maxValue float64) []float64 {
	if len(samples) < minGraphSamples || maxValue <= 0 {
		return nil
	}

	points := make([]float64, len(samples))
	for i, s := range samples {
		points[i] = s.GetValue(kind) / maxValue
	}

	return points
}

// Lines places each threshold at its percentage of maxValue. A line is visible only while
// it stays below the maximum.
func Lines(kind sample.MetricKind, thresholds []Threshold, maxValue float64) []Line {
	if len(thresholds) == 0 {
		return nil
	}

	lines := make([]Line, len(thresholds))

	for i, threshold := range thresholds {
		lines[i] = Line{Label: threshold.Label, Color: threshold.Color}

		if maxValue <= 0 {
			continue
		}

		ratio := threshold.Reference.GetValue(kind) / maxValue
		if ratio < 1 {
			lines[i].Position = fullScale * ratio
			lines[i].Visible = true
		}
	}

	return lines
}

func percentOf(v, maxValue float64) float64 {
	if maxValue <= 0 {
		return 0
	}

	return v * fullScale / maxValue
}
