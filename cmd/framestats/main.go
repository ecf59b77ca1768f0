// Command framestats runs a frame timing benchmark against a synthetic frame source and
// exports the per-stage statistics.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hyp3rd/ewrap"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/hyp3rd/framestats"
	"github.com/hyp3rd/framestats/internal/constants"
	"github.com/hyp3rd/framestats/pkg/backend"
	"github.com/hyp3rd/framestats/pkg/backend/redis"
	"github.com/hyp3rd/framestats/pkg/export"
	"github.com/hyp3rd/framestats/pkg/middleware"
	"github.com/hyp3rd/framestats/pkg/source"
)

const instrumentationName = "github.com/hyp3rd/framestats"

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, cfg, logger)
	if err != nil {
		logger.Error("benchmark failed", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}

func run(ctx context.Context, cfg *cliConfig, logger *zap.Logger) error {
	bm, err := newBenchmark(cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("benchmark starting",
		zap.Strings("stages", cfg.Stages),
		zap.String("backend", cfg.Backend),
		zap.Stringer("benchmarkType", cfg.BenchmarkType),
	)

	runErr := bm.Run(ctx)
	if runErr != nil && ctx.Err() == nil {
		return runErr
	}

	results, err := bm.Results(context.WithoutCancel(ctx), backend.WithFilterFunc(func(result *backend.Result) bool {
		for _, name := range cfg.Stages {
			if name == result.Stage {
				return true
			}
		}

		return false
	}))
	if err != nil {
		return err
	}

	tables := make([]export.Table, len(results))
	for i, result := range results {
		tables[i] = export.NewTable(result.Stage, result.Summary, export.WithTimeline(true))
	}

	err = writeExport(cfg, tables)
	if err != nil {
		return err
	}

	if runErr != nil {
		logger.Warn("benchmark interrupted", zap.Error(runErr))
	}

	return nil
}

func newBenchmark(cfg *cliConfig, logger *zap.Logger) (*framestats.Benchmark, error) {
	src := source.NewSynthetic(
		source.WithSeed(cfg.Seed),
		source.WithBaseFrameTime(cfg.FrameTime),
		source.WithJitter(cfg.Jitter),
		source.WithTimeline(cfg.Timeline),
		source.WithRealtime(cfg.Realtime),
	)

	stages := make([]*framestats.Stage, 0, len(cfg.Stages))

	for _, name := range cfg.Stages {
		stage, err := framestats.NewStage(name,
			framestats.WithBenchmarkType(cfg.BenchmarkType),
			framestats.WithStageDuration(cfg.Duration),
			framestats.WithStageRangeRecalculation(cfg.Recalculate),
		)
		if err != nil {
			return nil, err
		}

		stages = append(stages, stage)
	}

	config := framestats.NewConfig(cfg.Backend)
	config.BenchmarkOptions = append(config.BenchmarkOptions,
		framestats.WithWarmup(cfg.Warmup),
		framestats.WithStages(stages...),
		framestats.WithMiddleware(stageMiddleware(logger)...),
		framestats.WithOnStageDone(func(result backend.Result) {
			logger.Info("stage done",
				zap.String("stage", result.Stage),
				zap.String("status", result.Status),
				zap.Int("samples", result.Summary.Count),
				zap.Float64("medianFrameTimeMs", result.Summary.Median.FrameTime),
				zap.Float64("averageFps", result.Summary.Average.FPS),
			)
		}),
	)

	if cfg.MgmtAddr != "" {
		config.BenchmarkOptions = append(config.BenchmarkOptions, framestats.WithManagementHTTP(cfg.MgmtAddr))
	}

	if cfg.Backend == constants.RedisBackend {
		store, err := redis.New(
			redis.WithAddr(cfg.RedisAddr),
			redis.WithPassword(cfg.RedisPassword),
			redis.WithDB(cfg.RedisDB),
		)
		if err != nil {
			return nil, ewrap.Wrap(err, "redis store")
		}

		config.RedisOptions = append(config.RedisOptions, backend.WithRedisClient(store.Client))
	}

	return framestats.NewFromConfig(src, config)
}

// stageMiddleware logs through zap and reports to the global OpenTelemetry providers,
// which stay no-ops unless the process installs real ones.
func stageMiddleware(logger *zap.Logger) []framestats.Middleware {
	stdLogger := zap.NewStdLog(logger.Named("stage"))
	meter := otel.Meter(instrumentationName)
	tracer := otel.Tracer(instrumentationName)

	return []framestats.Middleware{
		func(next framestats.Service) framestats.Service {
			return middleware.NewLoggingMiddleware(next, stdLogger)
		},
		func(next framestats.Service) framestats.Service {
			wrapped, err := middleware.NewOTelMetricsMiddleware(next, meter)
			if err != nil {
				logger.Warn("metrics middleware disabled", zap.Error(err))

				return next
			}

			return wrapped
		},
		func(next framestats.Service) framestats.Service {
			return middleware.NewOTelTracingMiddleware(next, tracer)
		},
	}
}

func writeExport(cfg *cliConfig, tables []export.Table) error {
	data, err := export.EncodeAll(cfg.Format, tables)
	if err != nil {
		return err
	}

	if cfg.Output == "" || cfg.Output == "-" {
		_, err = os.Stdout.Write(data)
		if err != nil {
			return ewrap.Wrap(err, "write export")
		}

		return nil
	}

	err = os.WriteFile(cfg.Output, data, 0o600)
	if err != nil {
		return ewrap.Wrapf(err, "write export to %s", cfg.Output)
	}

	return nil
}
