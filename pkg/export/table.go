// Package export lays out a finalized stage as a table of labelled rows and writes it as CSV,
// JSON, msgpack or CBOR.
//
// The table has six summary rows (Minimum, Maximum, Average, Lower Quartile, Median, Upper
// Quartile) followed by one row per captured frame in capture order.
package export

import (
	"strconv"

	"github.com/hyp3rd/framestats/pkg/aggregator"
	"github.com/hyp3rd/framestats/pkg/sample"
)

// Summary row labels.
const (
	LabelMinimum       = "Minimum"
	LabelMaximum       = "Maximum"
	LabelAverage       = "Average"
	LabelLowerQuartile = "Lower Quartile"
	LabelMedian        = "Median"
	LabelUpperQuartile = "Upper Quartile"
)

const timelineColumn = "Timeline Time"

// Columns returns the header of both the summary and the sample sections.
func Columns() []string {
	return []string{"", "Frame Time", "FPS", "CPU time", "CPU Render Thread Time", "GPU Time"}
}

// Row is one labelled line of the table.
type Row struct {
	Label               string  `json:"label"                      msgpack:"label"               codec:"label"`
	FrameTime           float64 `json:"frameTime"                  msgpack:"frameTime"           codec:"frameTime"`
	FPS                 float64 `json:"fps"                        msgpack:"fps"                 codec:"fps"`
	CPUTime             float64 `json:"cpuTime"                    msgpack:"cpuTime"             codec:"cpuTime"`
	CPURenderThreadTime float64 `json:"cpuRenderThreadTime"        msgpack:"cpuRenderThreadTime" codec:"cpuRenderThreadTime"`
	GPUTime             float64 `json:"gpuTime"                    msgpack:"gpuTime"             codec:"gpuTime"`
	TimelineTime        float64 `json:"timelineTime,omitempty"     msgpack:"timelineTime"        codec:"timelineTime"`
}

// NewRow copies the metrics of s under label.
func NewRow(label string, s sample.Sample) Row {
	return Row{
		Label:               label,
		FrameTime:           s.FrameTime,
		FPS:                 s.FPS,
		CPUTime:             s.CPUTime,
		CPURenderThreadTime: s.CPURenderThreadTime,
		GPUTime:             s.GPUTime,
		TimelineTime:        s.TimelinePosition,
	}
}

// Table is the logical record of one stage.
type Table struct {
	Stage    string `json:"stage"    msgpack:"stage"    codec:"stage"`
	Timeline bool   `json:"timeline" msgpack:"timeline" codec:"timeline"`
	Summary  []Row  `json:"summary"  msgpack:"summary"  codec:"summary"`
	Samples  []Row  `json:"samples"  msgpack:"samples"  codec:"samples"`
}

// Option configures a Table.
type Option func(*Table)

// WithTimeline adds the timeline position of each captured frame as a trailing column.
func WithTimeline(enabled bool) Option {
	return func(t *Table) { t.Timeline = enabled }
}

// NewTable builds the table of a finalized stage.
func NewTable(stage string, summary aggregator.Summary, opts ...Option) Table {
	table := Table{
		Stage: stage,
		Summary: []Row{
			NewRow(LabelMinimum, summary.Min),
			NewRow(LabelMaximum, summary.Max),
			NewRow(LabelAverage, summary.Average),
			NewRow(LabelLowerQuartile, summary.LowerQuartile),
			NewRow(LabelMedian, summary.Median),
			NewRow(LabelUpperQuartile, summary.UpperQuartile),
		},
		Samples: make([]Row, len(summary.Samples)),
	}

	for _, opt := range opts {
		opt(&table)
	}

	for i, s := range summary.Samples {
		table.Samples[i] = NewRow("", s)
	}

	if !table.Timeline {
		for i := range table.Summary {
			table.Summary[i].TimelineTime = 0
		}

		for i := range table.Samples {
			table.Samples[i].TimelineTime = 0
		}
	}

	return table
}

// Records returns the table as CSV records: a blank line, the scene line, a blank line, the
// header and the six summary rows, a blank line, the captured frame count, the header again
// and one record per frame.
func (t Table) Records() [][]string {
	records := make([][]string, 0, len(t.Summary)+len(t.Samples)+7)

	records = append(records,
		[]string{""},
		[]string{"Scene", t.Stage},
		[]string{""},
		Columns(),
	)

	for _, row := range t.Summary {
		records = append(records, row.fields(false))
	}

	sampleHeader := Columns()
	if t.Timeline {
		sampleHeader = append(sampleHeader, timelineColumn)
	}

	records = append(records,
		[]string{""},
		[]string{"Captured frames", strconv.Itoa(len(t.Samples))},
		sampleHeader,
	)

	for _, row := range t.Samples {
		records = append(records, row.fields(t.Timeline))
	}

	return records
}

func (r Row) fields(timeline bool) []string {
	fields := []string{
		r.Label,
		formatFloat(r.FrameTime),
		formatFloat(r.FPS),
		formatFloat(r.CPUTime),
		formatFloat(r.CPURenderThreadTime),
		formatFloat(r.GPUTime),
	}

	if timeline {
		fields = append(fields, formatFloat(r.TimelineTime))
	}

	return fields
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
