package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hyp3rd/framestats"
	"github.com/hyp3rd/framestats/internal/constants"
	"github.com/hyp3rd/framestats/pkg/backend"
	"github.com/hyp3rd/framestats/pkg/backend/redis"
	"github.com/hyp3rd/framestats/pkg/source"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Create a new Redis store
	redisStore, err := redis.New(
		redis.WithAddr("localhost:6379"),
		redis.WithDB(0),
	)
	if err != nil {
		panic(err)
	}

	conf := framestats.NewConfig(constants.RedisBackend)
	conf.RedisOptions = append(conf.RedisOptions,
		backend.WithRedisClient(redisStore.Client),
		backend.WithKeysSetName("framestats-example"),
	)

	for _, name := range []string{"forest", "city", "desert"} {
		stage, err := framestats.NewStage(name, framestats.WithStageDuration(time.Second))
		if err != nil {
			panic(err)
		}

		conf.BenchmarkOptions = append(conf.BenchmarkOptions, framestats.WithStages(stage))
	}

	conf.BenchmarkOptions = append(conf.BenchmarkOptions, framestats.WithWarmup(0))

	bm, err := framestats.NewFromConfig(source.NewSynthetic(source.WithSeed(42)), conf)
	if err != nil {
		panic(err)
	}

	err = bm.Run(ctx)
	if err != nil {
		panic(err)
	}

	results, err := bm.Results(ctx, backend.WithSortBy(backend.SortByAvgFrameTime), backend.WithSortOrderAsc(false))
	if err != nil {
		panic(err)
	}

	fmt.Fprintln(os.Stdout, "slowest stage first:")

	for _, result := range results {
		fmt.Fprintf(os.Stdout, "%-8s avg %.2fms  p25 %.2fms  p75 %.2fms\n",
			result.Stage,
			result.Summary.Average.FrameTime,
			result.Summary.LowerQuartile.FrameTime,
			result.Summary.UpperQuartile.FrameTime,
		)
	}

	err = bm.Backend().Clear(ctx)
	if err != nil {
		panic(err)
	}
}
