package main

import (
	"strings"
	"time"

	"github.com/hyp3rd/ewrap"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hyp3rd/framestats"
	"github.com/hyp3rd/framestats/internal/constants"
	"github.com/hyp3rd/framestats/pkg/export"
)

const envPrefix = "framestats"

// cliConfig is the resolved command line configuration.
type cliConfig struct {
	Stages        []string
	BenchmarkType framestats.BenchmarkType
	Duration      time.Duration
	Warmup        time.Duration
	Recalculate   bool

	Seed      uint64
	FrameTime float64
	Jitter    float64
	Timeline  time.Duration
	Realtime  bool

	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MgmtAddr string
	Format   string
	Output   string
	Debug    bool
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("framestats", pflag.ContinueOnError)

	flags.StringSlice("stages", []string{"default"}, "comma separated stage names, run in order")
	flags.String("benchmark-type", "timeline", "what bounds a stage: timeline or duration")
	flags.Duration("duration", constants.DefaultStageDuration, "stage duration when no timeline bounds it")
	flags.Duration("warmup", constants.DefaultWarmup, "pause before the first recorded frame of each stage")
	flags.Bool("recalculate-range", false, "recompute min and max from the full history when a stage ends")

	flags.Uint64("seed", 1, "synthetic source seed")
	flags.Float64("frame-time", 16.6, "synthetic mean frame time in milliseconds")
	flags.Float64("jitter", 2.5, "synthetic frame time standard deviation in milliseconds")
	flags.Duration("timeline", 0, "synthetic timeline length, 0 for none")
	flags.Bool("realtime", false, "wait for each synthetic frame")

	flags.String("backend", constants.InMemoryBackend, "result backend: in-memory or redis")
	flags.String("redis-addr", "localhost:6379", "redis address")
	flags.String("redis-password", "", "redis password")
	flags.Int("redis-db", 0, "redis database")

	flags.String("mgmt-addr", "", "management HTTP address, empty to disable")
	flags.StringP("format", "f", export.FormatCSV, "export format: "+strings.Join(export.Formats(), ", "))
	flags.StringP("output", "o", "-", "export file, - for stdout")
	flags.Bool("debug", false, "development logging")

	return flags
}

// loadConfig resolves flags, then FRAMESTATS_* environment variables, then defaults.
func loadConfig(args []string) (*cliConfig, error) {
	flags := newFlagSet()

	err := flags.Parse(args)
	if err != nil {
		return nil, ewrap.Wrap(err, "parse flags")
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	err = v.BindPFlags(flags)
	if err != nil {
		return nil, ewrap.Wrap(err, "bind flags")
	}

	benchmarkType, err := framestats.ParseBenchmarkType(v.GetString("benchmark-type"))
	if err != nil {
		return nil, err
	}

	cfg := &cliConfig{
		Stages:        v.GetStringSlice("stages"),
		BenchmarkType: benchmarkType,
		Duration:      v.GetDuration("duration"),
		Warmup:        v.GetDuration("warmup"),
		Recalculate:   v.GetBool("recalculate-range"),
		Seed:          v.GetUint64("seed"),
		FrameTime:     v.GetFloat64("frame-time"),
		Jitter:        v.GetFloat64("jitter"),
		Timeline:      v.GetDuration("timeline"),
		Realtime:      v.GetBool("realtime"),
		Backend:       v.GetString("backend"),
		RedisAddr:     v.GetString("redis-addr"),
		RedisPassword: v.GetString("redis-password"),
		RedisDB:       v.GetInt("redis-db"),
		MgmtAddr:      v.GetString("mgmt-addr"),
		Format:        strings.ToLower(v.GetString("format")),
		Output:        v.GetString("output"),
		Debug:         v.GetBool("debug"),
	}

	cfg.Stages = splitStages(cfg.Stages)
	if len(cfg.Stages) == 0 {
		return nil, ewrap.New("at least one stage is required")
	}

	return cfg, nil
}

// splitStages flattens comma separated values, which viper leaves joined when they come
// from the environment.
func splitStages(values []string) []string {
	var stages []string

	for _, value := range values {
		for name := range strings.SplitSeq(value, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				stages = append(stages, name)
			}
		}
	}

	return stages
}
