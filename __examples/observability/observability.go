package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/hyp3rd/framestats"
	"github.com/hyp3rd/framestats/pkg/middleware"
	"github.com/hyp3rd/framestats/pkg/source"
)

// This example shows how to wrap every stage of a benchmark with OpenTelemetry middleware.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use noop providers for a minimal example. Replace with real SDK providers in production.
	meter := noop.NewMeterProvider().Meter("framestats/examples")
	tracer := tracenoop.NewTracerProvider().Tracer("framestats/examples")

	stage, err := framestats.NewStage("forest", framestats.WithStageDuration(2*time.Second))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	bm, err := framestats.NewBenchmark(source.NewSynthetic(source.WithSeed(7)),
		framestats.WithWarmup(0),
		framestats.WithStages(stage),
		framestats.WithMiddleware(
			func(next framestats.Service) framestats.Service {
				return middleware.NewOTelTracingMiddleware(next, tracer, middleware.WithCommonAttributes(
					attribute.String("component", "framestats"),
				))
			},
			func(next framestats.Service) framestats.Service {
				mw, _ := middleware.NewOTelMetricsMiddleware(next, meter)
				return mw
			},
		),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	err = bm.Run(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	if summary, ok := stage.Summary(); ok {
		fmt.Fprintf(os.Stdout, "median %.2fms over %d frames\n", summary.Median.FrameTime, summary.Count)
	}
}
