// Package backend provides storage for finalized stage results.
// It defines the contract that all result backends must follow, and ships an in-memory
// backend and a Redis backend.
//
// The main interface IBackend provides methods for:
//   - Saving and fetching the result of a stage
//   - Listing results with optional filters and sorting
//   - Removing results and clearing the store
package backend

import (
	"context"
	"time"

	"github.com/hyp3rd/framestats/pkg/aggregator"
)

// Result is the stored outcome of one stage.
type Result struct {
	StageID   string             `json:"stageId"   msgpack:"stageId"   codec:"stageId"`
	Stage     string             `json:"stage"     msgpack:"stage"     codec:"stage"`
	Status    string             `json:"status"    msgpack:"status"    codec:"status"`
	StartedAt time.Time          `json:"startedAt" msgpack:"startedAt" codec:"startedAt"`
	EndedAt   time.Time          `json:"endedAt"   msgpack:"endedAt"   codec:"endedAt"`
	Summary   aggregator.Summary `json:"summary"   msgpack:"summary"   codec:"summary"`
}

// IBackendConstrain restricts generic backend options to the supported backend types.
type IBackendConstrain interface {
	InMemory | Redis
}

// IBackend defines the contract that all result backends must implement.
// Results are keyed by stage name; saving a stage again replaces its previous result.
//
// All methods accept a context.Context parameter for cancellation and timeout
// control.
type IBackend interface {
	// Save stores the result of a stage.
	Save(ctx context.Context, result Result) error
	// Get fetches the result of the named stage.
	Get(ctx context.Context, stage string) (Result, error)
	// List returns the stored results that meet the specified criteria.
	List(ctx context.Context, filters ...IFilter) ([]Result, error)
	// Count returns the number of stored results.
	Count(ctx context.Context) int
	// Remove deletes the results of the named stages.
	Remove(ctx context.Context, stages ...string) error
	// Clear removes every result.
	Clear(ctx context.Context) error
}

// applyFilters runs the filters in order over items.
func applyFilters(backendType string, items []Result, filters ...IFilter) ([]Result, error) {
	var err error

	for _, filter := range filters {
		items, err = filter.ApplyFilter(backendType, items)
		if err != nil {
			return nil, err
		}
	}

	return items, nil
}
