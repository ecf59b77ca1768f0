// Package aggregator accumulates per-frame samples into running statistics and, once the
// measurement window closes, into quartile statistics.
//
// An Aggregator moves through Empty -> Accumulating -> Finalized and never goes back, except
// through an explicit Reset. Push is O(1); Finalize sorts a copy of the history and is
// O(n log n). State is guarded by a read/write mutex so that display readers may poll
// snapshots from other goroutines while a single producer pushes.
package aggregator

import (
	"cmp"
	"math"
	"slices"
	"sync"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/framestats/internal/constants"
	"github.com/hyp3rd/framestats/internal/sentinel"
	"github.com/hyp3rd/framestats/pkg/sample"
)

// State is the lifecycle position of an Aggregator.
type State int

// Aggregator states.
const (
	StateEmpty State = iota
	StateAccumulating
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateAccumulating:
		return "accumulating"
	case StateFinalized:
		return "finalized"
	}

	return "unknown"
}

// Snapshot is a read-only copy of the running statistics.
type Snapshot struct {
	Min     sample.Sample `json:"min"     msgpack:"min"     codec:"min"`
	Max     sample.Sample `json:"max"     msgpack:"max"     codec:"max"`
	Average sample.Sample `json:"average" msgpack:"average" codec:"average"`
	Count   int           `json:"count"   msgpack:"count"   codec:"count"`
}

// Summary holds the finalized statistics of a measurement window and its full history.
type Summary struct {
	Min           sample.Sample   `json:"min"           msgpack:"min"           codec:"min"`
	Max           sample.Sample   `json:"max"           msgpack:"max"           codec:"max"`
	Average       sample.Sample   `json:"average"       msgpack:"average"       codec:"average"`
	LowerQuartile sample.Sample   `json:"lowerQuartile" msgpack:"lowerQuartile" codec:"lowerQuartile"`
	Median        sample.Sample   `json:"median"        msgpack:"median"        codec:"median"`
	UpperQuartile sample.Sample   `json:"upperQuartile" msgpack:"upperQuartile" codec:"upperQuartile"`
	Samples       []sample.Sample `json:"samples"       msgpack:"samples"       codec:"samples"`
	Count         int             `json:"count"         msgpack:"count"         codec:"count"`
}

// Snapshot returns the running part of the summary.
func (s Summary) Snapshot() Snapshot {
	return Snapshot{Min: s.Min, Max: s.Max, Average: s.Average, Count: s.Count}
}

// Aggregator is a stateful accumulator of samples.
type Aggregator struct {
	mu sync.RWMutex

	state   State
	samples []sample.Sample
	minimum sample.Sample
	maximum sample.Sample
	average sample.Sample
	summary Summary
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithCapacity preallocates room for n samples in the history.
func WithCapacity(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.samples = make([]sample.Sample, 0, n)
		}
	}
}

// New returns an empty Aggregator.
func New(opts ...Option) *Aggregator {
	agg := &Aggregator{}
	for _, opt := range opts {
		opt(agg)
	}

	agg.clear()

	return agg
}

// clear resets the running fields to their seeds, keeping the history capacity.
func (a *Aggregator) clear() {
	a.state = StateEmpty
	a.samples = a.samples[:0]
	a.minimum = sample.SeedForMin()
	a.maximum = sample.SeedForMax()
	a.average = sample.SeedForMax()
	a.summary = Summary{}
}

// Push appends s to the history and folds it into the running min, max and average.
// It reports whether the running min or max changed. Pushing into a finalized aggregator
// fails with sentinel.ErrInvalidState.
func (a *Aggregator) Push(s sample.Sample) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == StateFinalized {
		return false, ewrap.Wrap(sentinel.ErrInvalidState, "push after finalize")
	}

	a.samples = append(a.samples, s)
	count := len(a.samples)

	if a.state == StateEmpty {
		// seed directly from the first sample so +Inf never leaks into the running values
		a.minimum, a.maximum, a.average = s, s, s
		a.state = StateAccumulating

		return true, nil
	}

	newMin := sample.CombineMin(a.minimum, s)
	newMax := sample.CombineMax(a.maximum, s)
	changed := !newMin.SameMetrics(a.minimum) || !newMax.SameMetrics(a.maximum)

	a.minimum = newMin
	a.maximum = newMax
	a.average = sample.RunningAverage(a.average, s, count)

	return changed, nil
}

// Current returns a snapshot of the running statistics.
func (a *Aggregator) Current() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return Snapshot{Min: a.minimum, Max: a.maximum, Average: a.average, Count: len(a.samples)}
}

// Len returns the number of samples pushed so far.
func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return len(a.samples)
}

// State returns the lifecycle state.
func (a *Aggregator) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.state
}

// Samples returns a copy of the history in capture order.
func (a *Aggregator) Samples() []sample.Sample {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return slices.Clone(a.samples)
}

// Summary returns the finalized statistics. The boolean is false until Finalize succeeded.
func (a *Aggregator) Summary() (Summary, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.state != StateFinalized {
		return Summary{}, false
	}

	return a.summary, true
}

// Estimator selects how a rank is mapped onto the sorted history.
type Estimator int

const (
	// ClosestRanks interpolates between the two closest ranks, placing the k-th of n sorted
	// samples at rank (k+0.5)/n. The quartiles of 10, 20, 30, 40 are 15, 25 and 35.
	ClosestRanks Estimator = iota
	// LeadingRank uses idx = n*rank directly, which leans one half rank towards the upper
	// end. The quartiles of 10, 20, 30, 40 are 20, 30 and 40.
	LeadingRank
)

func (e Estimator) String() string {
	switch e {
	case ClosestRanks:
		return "closest-ranks"
	case LeadingRank:
		return "leading-rank"
	}

	return "unknown"
}

type finalizeOptions struct {
	recalculateRange bool
	estimator        Estimator
}

// FinalizeOption tunes Finalize.
type FinalizeOption func(*finalizeOptions)

// WithRangeRecalculation recomputes min and max by scanning the full history instead of
// trusting the incrementally maintained values.
func WithRangeRecalculation() FinalizeOption {
	return func(o *finalizeOptions) { o.recalculateRange = true }
}

// WithEstimator selects the rank estimator used for the quartiles. ClosestRanks is the default.
func WithEstimator(e Estimator) FinalizeOption {
	return func(o *finalizeOptions) { o.estimator = e }
}

// Finalize computes the quartile statistics and closes the aggregator to further pushes.
// It fails with sentinel.ErrInsufficientData when no sample was pushed, and with
// sentinel.ErrInvalidState when called a second time.
func (a *Aggregator) Finalize(opts ...FinalizeOption) (Summary, error) {
	var options finalizeOptions
	for _, opt := range opts {
		opt(&options)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case StateEmpty:
		return Summary{}, ewrap.Wrap(sentinel.ErrInsufficientData, "finalize without samples")
	case StateFinalized:
		return Summary{}, ewrap.Wrap(sentinel.ErrInvalidState, "already finalized")
	case StateAccumulating:
	}

	if options.recalculateRange {
		a.minimum = sample.MinOf(a.samples)
		a.maximum = sample.MaxOf(a.samples)
	}

	sorted := slices.Clone(a.samples)
	slices.SortStableFunc(sorted, func(x, y sample.Sample) int {
		return cmp.Compare(x.FrameTime, y.FrameTime)
	})

	// sorted holds at least one sample here, so Quantile cannot fail
	lower, _ := QuantileWith(sorted, constants.LowerQuartileRank, options.estimator)
	median, _ := QuantileWith(sorted, constants.MedianRank, options.estimator)
	upper, _ := QuantileWith(sorted, constants.UpperQuartileRank, options.estimator)

	// a shorter frame time quartile is the higher FPS quartile
	lowerFPS := lower.FPS
	lower.SetFPSOverride(upper.FPS)
	upper.SetFPSOverride(lowerFPS)

	a.summary = Summary{
		Min:           a.minimum,
		Max:           a.maximum,
		Average:       a.average,
		LowerQuartile: lower,
		Median:        median,
		UpperQuartile: upper,
		Samples:       slices.Clone(a.samples),
		Count:         len(a.samples),
	}
	a.state = StateFinalized

	return a.summary, nil
}

// Reset returns the aggregator to the empty state, dropping history and statistics.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.clear()
}

// Quantile estimates the value at rank (0..1) of samples sorted by frame time with the
// ClosestRanks estimator.
func Quantile(sorted []sample.Sample, rank float64) (sample.Sample, error) {
	return QuantileWith(sorted, rank, ClosestRanks)
}

// QuantileWith estimates the value at rank (0..1) of samples sorted by frame time. The
// fractional index is split into integer i and fraction f and the result is
// Lerp(sorted[i], sorted[min(i+1, n-1)], f). Indexes below 0 return the first sample and
// indexes at or past the last one return the last sample, so rank 1 yields the maximum
// under both estimators.
func QuantileWith(sorted []sample.Sample, rank float64, estimator Estimator) (sample.Sample, error) {
	count := len(sorted)
	if count == 0 {
		return sample.Sample{}, ewrap.Wrap(sentinel.ErrInsufficientData, "quantile of empty set")
	}

	idx := float64(count) * rank
	if estimator == ClosestRanks {
		idx -= 0.5
	}

	if idx <= 0 || math.IsNaN(idx) {
		return sorted[0], nil
	}

	whole, frac := math.Modf(idx)
	i := int(whole)

	last := count - 1
	if i >= last {
		return sorted[last], nil
	}

	return sample.Lerp(sorted[i], sorted[min(i+1, last)], frac), nil
}
