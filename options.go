package framestats

import (
	"time"

	"github.com/hyp3rd/framestats/pkg/backend"
)

// Option is a function type that can be used to configure the `Benchmark` struct.
type Option func(*Benchmark)

// ApplyOptions applies the given options to the given benchmark.
func ApplyOptions(bm *Benchmark, options ...Option) {
	for _, option := range options {
		option(bm)
	}
}

// WithWarmup sets the pause between preparing a stage and recording its first frame.
// Negative values are treated as zero.
func WithWarmup(d time.Duration) Option {
	return func(bm *Benchmark) {
		bm.warmup = max(d, 0)
	}
}

// WithStages appends stages to the run order.
func WithStages(stages ...*Stage) Option {
	return func(bm *Benchmark) {
		for _, stage := range stages {
			if stage != nil {
				bm.stages = append(bm.stages, stage)
			}
		}
	}
}

// WithBackend sets the result backend.
func WithBackend(store backend.IBackend) Option {
	return func(bm *Benchmark) {
		bm.backend = store
	}
}

// WithMiddleware wraps every stage with the given middleware, in order.
func WithMiddleware(mw ...Middleware) Option {
	return func(bm *Benchmark) {
		bm.middleware = append(bm.middleware, mw...)
	}
}

// WithManagementHTTP enables the management HTTP server on addr while the benchmark runs.
func WithManagementHTTP(addr string, opts ...ManagementHTTPOption) Option {
	return func(bm *Benchmark) {
		bm.mgmtAddr = addr
		bm.mgmtOpts = opts
	}
}

// WithOnStageDone registers a callback invoked after each stored stage result.
func WithOnStageDone(fn func(backend.Result)) Option {
	return func(bm *Benchmark) {
		bm.onStageDone = fn
	}
}
