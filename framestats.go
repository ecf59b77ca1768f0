// Copyright 2023 F. All rights reserved.
// Use of this source code is governed by a Mozilla Public License 2.0
// license that can be found in the LICENSE file.
// framestats is a frame timing statistics library for benchmark runs.

// Package framestats measures frame timings over an ordered list of stages.
//
// Each Stage owns an aggregator that keeps running min, max and average statistics while
// samples are pushed, and quartile statistics once the stage ends. A Benchmark drives the
// stages against a FrameSource: it warms each stage up, pulls frames until the timeline or
// the stage duration is exhausted, finalizes the stage and stores the result in a backend.
package framestats

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/framestats/internal/constants"
	"github.com/hyp3rd/framestats/internal/sentinel"
	"github.com/hyp3rd/framestats/pkg/backend"
	"github.com/hyp3rd/framestats/pkg/sample"
)

// FrameSource drives a benchmark one frame at a time.
type FrameSource interface {
	// Prepare loads the named stage and returns its timeline length, 0 when it has none.
	Prepare(ctx context.Context, stage string) (time.Duration, error)
	// Next blocks until the next frame is measured. It reports false once the timeline ended.
	Next(ctx context.Context) (sample.Sample, bool, error)
}

// Benchmark runs stages in order against a frame source.
type Benchmark struct {
	mu sync.RWMutex

	source      FrameSource
	stages      []*Stage
	services    map[string]Service
	backend     backend.IBackend
	warmup      time.Duration
	middleware  []Middleware
	onStageDone func(backend.Result)

	mgmtAddr string
	mgmtOpts []ManagementHTTPOption
	mgmt     *ManagementHTTPServer

	current Service
}

// NewBenchmark creates a benchmark pulling frames from source. Without WithBackend results
// are kept in memory.
func NewBenchmark(source FrameSource, opts ...Option) (*Benchmark, error) {
	if source == nil {
		return nil, sentinel.ErrNilSource
	}

	bm := &Benchmark{
		source:   source,
		warmup:   constants.DefaultWarmup,
		services: make(map[string]Service),
	}

	ApplyOptions(bm, opts...)

	if bm.backend == nil {
		store, err := backend.NewInMemory()
		if err != nil {
			return nil, err
		}

		bm.backend = store
	}

	for _, stage := range bm.stages {
		if _, ok := bm.services[stage.Name()]; ok {
			return nil, ewrap.Newf("duplicate stage name %q", stage.Name())
		}

		bm.services[stage.Name()] = ApplyMiddleware(stage, bm.middleware...)
	}

	if bm.mgmtAddr != "" {
		bm.mgmt = NewManagementHTTPServer(bm.mgmtAddr, bm.mgmtOpts...)
	}

	return bm, nil
}

// NewFromConfig creates a benchmark with the backend selected by cfg.BackendType.
func NewFromConfig(source FrameSource, cfg *Config) (*Benchmark, error) {
	if cfg == nil {
		cfg = NewConfig(constants.InMemoryBackend)
	}

	var (
		store backend.IBackend
		err   error
	)

	switch cfg.BackendType {
	case constants.InMemoryBackend, "":
		store, err = backend.NewInMemory(cfg.InMemoryOptions...)
	case constants.RedisBackend:
		store, err = backend.NewRedis(cfg.RedisOptions...)
	default:
		return nil, ewrap.Wrap(sentinel.ErrInvalidBackendType, cfg.BackendType)
	}

	if err != nil {
		return nil, err
	}

	opts := append(slices.Clone(cfg.BenchmarkOptions), WithBackend(store))

	return NewBenchmark(source, opts...)
}

// Run processes every stage in order. A canceled context stops the current stage, keeps
// what it measured and returns the context error.
func (b *Benchmark) Run(ctx context.Context) error {
	if b.mgmt != nil {
		err := b.mgmt.Start(ctx, b)
		if err != nil {
			return err
		}

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultShutdownTimeout)
			defer cancel()

			_ = b.mgmt.Shutdown(shutdownCtx)
		}()
	}

	for _, stage := range b.stages {
		svc := b.services[stage.Name()]

		if !stage.Enabled() {
			svc.Cancel()
		}

		if svc.Status() == StatusSkipped {
			continue
		}

		err := b.runStage(ctx, stage, svc)
		if err != nil {
			b.cancelRemaining()

			return err
		}
	}

	return nil
}

func (b *Benchmark) runStage(ctx context.Context, stage *Stage, svc Service) error {
	b.setCurrent(svc)
	defer b.setCurrent(nil)

	err := svc.Start(ctx)
	if err != nil {
		return err
	}

	timeline, err := b.source.Prepare(ctx, stage.Name())
	if err != nil {
		svc.Cancel()

		return ewrap.Wrapf(err, "prepare stage %q", stage.Name())
	}

	svc.SetTimeline(timeline)

	err = sleep(ctx, b.warmup)
	if err != nil {
		svc.Cancel()

		return err
	}

	err = svc.BeginRunning(ctx)
	if err != nil {
		if svc.Status() == StatusSkipped {
			return nil
		}

		return err
	}

	err = b.measure(ctx, stage, svc, timeline)
	if err != nil {
		return err
	}

	summary, err := svc.End(ctx)
	if err != nil {
		if svc.Status() == StatusStopped && errors.Is(err, sentinel.ErrInsufficientData) {
			return ctx.Err()
		}

		return err
	}

	result := backend.Result{
		StageID:   stage.ID(),
		Stage:     stage.Name(),
		Status:    svc.Status().String(),
		StartedAt: stage.StartedAt(),
		EndedAt:   stage.EndedAt(),
		Summary:   summary,
	}

	err = b.backend.Save(context.WithoutCancel(ctx), result)
	if err != nil {
		return ewrap.Wrapf(err, "save result of stage %q", stage.Name())
	}

	if b.onStageDone != nil {
		b.onStageDone(result)
	}

	return ctx.Err()
}

// measure pulls frames until the source ends, the window is covered or the stage leaves Running.
func (b *Benchmark) measure(ctx context.Context, stage *Stage, svc Service, timeline time.Duration) error {
	byDuration := stage.BenchmarkType() == UseTimeDuration || timeline <= 0
	limit := stage.Duration().Seconds()
	position := 0.0

	for svc.Status() == StatusRunning {
		smp, ok, err := b.source.Next(ctx)
		if err != nil {
			svc.Cancel()

			if ctx.Err() != nil {
				return nil
			}

			return ewrap.Wrapf(err, "next frame of stage %q", stage.Name())
		}

		if !ok {
			return nil
		}

		if smp.HasTimeline {
			position = smp.TimelinePosition
		} else {
			position += smp.FrameTime / constants.MillisecondsPerSecond
			smp = smp.WithTimeline(position)
		}

		_, err = svc.Push(ctx, smp)
		if err != nil {
			if svc.Status() == StatusStopped {
				return nil
			}

			return err
		}

		if byDuration && position >= limit {
			return nil
		}
	}

	return nil
}

// cancelRemaining skips every stage that never started.
func (b *Benchmark) cancelRemaining() {
	for _, stage := range b.stages {
		if stage.Status() == StatusWaiting {
			b.services[stage.Name()].Cancel()
		}
	}
}

func (b *Benchmark) setCurrent(svc Service) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = svc
}

// Current returns the stage being processed, or nil between stages.
func (b *Benchmark) Current() Service {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.current
}

// CancelCurrent cancels the stage being processed. It reports whether a stage was running.
func (b *Benchmark) CancelCurrent() bool {
	svc := b.Current()
	if svc == nil {
		return false
	}

	svc.Cancel()

	return true
}

// CancelStage cancels the named stage.
func (b *Benchmark) CancelStage(name string) error {
	svc, ok := b.services[name]
	if !ok {
		return ewrap.Wrap(sentinel.ErrStageNotFound, name)
	}

	svc.Cancel()

	return nil
}

// Stage returns the named stage.
func (b *Benchmark) Stage(name string) (*Stage, error) {
	for _, stage := range b.stages {
		if stage.Name() == name {
			return stage, nil
		}
	}

	return nil, ewrap.Wrap(sentinel.ErrStageNotFound, name)
}

// Stages returns the stages in run order.
func (b *Benchmark) Stages() []*Stage {
	return slices.Clone(b.stages)
}

// Results lists the stored results.
func (b *Benchmark) Results(ctx context.Context, filters ...backend.IFilter) ([]backend.Result, error) {
	return b.backend.List(ctx, filters...)
}

// Backend returns the result backend.
func (b *Benchmark) Backend() backend.IBackend {
	return b.backend
}

// ManagementHTTPAddress returns the bound management address, empty when the server is not running.
func (b *Benchmark) ManagementHTTPAddress() string {
	if b.mgmt == nil {
		return ""
	}

	return b.mgmt.Address()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
