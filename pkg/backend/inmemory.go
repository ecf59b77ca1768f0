package backend

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/framestats/internal/constants"
	"github.com/hyp3rd/framestats/internal/sentinel"
)

// InMemory keeps results in process memory, in insertion order.
type InMemory struct {
	sync.RWMutex // mutex to protect the store from concurrent access

	results map[string]Result
	order   []string
}

// NewInMemory creates a new in-memory result store.
func NewInMemory(opts ...Option[InMemory]) (*InMemory, error) {
	store := &InMemory{
		results: make(map[string]Result),
	}

	ApplyOptions(store, opts...)

	return store, nil
}

// Save stores the result, replacing a previous result of the same stage in place.
func (store *InMemory) Save(_ context.Context, result Result) error {
	if strings.TrimSpace(result.Stage) == "" {
		return ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "result stage")
	}

	store.Lock()
	defer store.Unlock()

	if _, ok := store.results[result.Stage]; !ok {
		store.order = append(store.order, result.Stage)
	}

	result.Summary.Samples = slices.Clone(result.Summary.Samples)
	store.results[result.Stage] = result

	return nil
}

// Get fetches the result of the named stage.
func (store *InMemory) Get(_ context.Context, stage string) (Result, error) {
	store.RLock()
	defer store.RUnlock()

	result, ok := store.results[stage]
	if !ok {
		return Result{}, ewrap.Wrap(sentinel.ErrResultNotFound, stage)
	}

	return result, nil
}

// List returns the stored results in insertion order, then applies the filters.
func (store *InMemory) List(_ context.Context, filters ...IFilter) ([]Result, error) {
	store.RLock()

	items := make([]Result, 0, len(store.order))
	for _, stage := range store.order {
		items = append(items, store.results[stage])
	}

	store.RUnlock()

	return applyFilters(constants.InMemoryBackend, items, filters...)
}

// Count returns the number of stored results.
func (store *InMemory) Count(_ context.Context) int {
	store.RLock()
	defer store.RUnlock()

	return len(store.results)
}

// Remove deletes the results of the named stages.
func (store *InMemory) Remove(_ context.Context, stages ...string) error {
	store.Lock()
	defer store.Unlock()

	for _, stage := range stages {
		delete(store.results, stage)
	}

	store.order = slices.DeleteFunc(store.order, func(stage string) bool {
		_, ok := store.results[stage]

		return !ok
	})

	return nil
}

// Clear removes every result.
func (store *InMemory) Clear(_ context.Context) error {
	store.Lock()
	defer store.Unlock()

	store.results = make(map[string]Result)
	store.order = nil

	return nil
}
