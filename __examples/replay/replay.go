package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hyp3rd/framestats"
	"github.com/hyp3rd/framestats/pkg/display"
	"github.com/hyp3rd/framestats/pkg/export"
	"github.com/hyp3rd/framestats/pkg/sample"
	"github.com/hyp3rd/framestats/pkg/source"
)

// This example replays a recorded frame list, prints the FPS view of the stage and writes
// the CSV table to stdout.
func main() {
	recorded := make([]sample.Sample, 0, 120)
	for i := range 120 {
		frameTime := 14 + float64(i%9)
		recorded = append(recorded, sample.FromFrameTime(frameTime, frameTime*0.55, frameTime*0.3, frameTime*0.8))
	}

	stage, err := framestats.NewStage("replay")
	if err != nil {
		panic(err)
	}

	bm, err := framestats.NewBenchmark(source.NewReplay(recorded, source.WithReplayTimeline(2*time.Second)),
		framestats.WithWarmup(0),
		framestats.WithStages(stage),
	)
	if err != nil {
		panic(err)
	}

	err = bm.Run(context.Background())
	if err != nil {
		panic(err)
	}

	summary, _ := stage.Summary()
	view := display.Build(sample.FPS, summary.Snapshot(), &summary, summary.Samples, display.DefaultThresholds())

	fmt.Fprintf(os.Stdout, "fps: min %.1f avg %.1f median %.1f, interquartile band %.1f%%..%.1f%%\n",
		view.Min, view.Average, view.Median, view.QuartileBottom, 100-view.QuartileTop)

	err = export.WriteCSV(os.Stdout, export.NewTable(stage.Name(), summary, export.WithTimeline(true)))
	if err != nil {
		panic(err)
	}
}
