package backend

import (
	"sort"

	"github.com/hyp3rd/ewrap"
)

// Sort fields accepted by WithSortBy.
const (
	SortByStage        = "stage"
	SortByStarted      = "started"
	SortByAvgFrameTime = "avgFrameTime"
	SortByCount        = "count"
)

// resultSorter is a custom sorter for the results.
type resultSorter struct {
	items []Result
	less  func(i, j *Result) bool
}

func (s *resultSorter) Len() int           { return len(s.items) }
func (s *resultSorter) Swap(i, j int)      { s.items[i], s.items[j] = s.items[j], s.items[i] }
func (s *resultSorter) Less(i, j int) bool { return s.less(&s.items[i], &s.items[j]) }

// IFilter is a backend agnostic interface for a filter that can be applied to a list of results.
type IFilter interface {
	ApplyFilter(backendType string, items []Result) ([]Result, error)
}

// sortByFilter is a filter that sorts the results by a given field.
type sortByFilter struct {
	field string
}

// SortOrderFilter reverses the current order when descending is requested.
type SortOrderFilter struct {
	ascending bool
}

// filterFunc keeps the results for which fn returns true.
type filterFunc struct {
	fn func(result *Result) bool
}

// WithSortBy returns a filter that sorts the results by a given field.
func WithSortBy(field string) IFilter {
	return sortByFilter{field: field}
}

// WithSortOrderAsc returns a filter that determines whether to sort ascending or not.
func WithSortOrderAsc(ascending bool) SortOrderFilter {
	return SortOrderFilter{ascending: ascending}
}

// WithFilterFunc returns a filter that keeps the results matching fn.
func WithFilterFunc(fn func(result *Result) bool) IFilter {
	return filterFunc{fn: fn}
}

// ApplyFilter applies the sort by filter to the given list of results.
func (f sortByFilter) ApplyFilter(_ string, items []Result) ([]Result, error) {
	var less func(i, j *Result) bool

	switch f.field {
	case SortByStage:
		less = func(i, j *Result) bool { return i.Stage < j.Stage }
	case SortByStarted:
		less = func(i, j *Result) bool { return i.StartedAt.Before(j.StartedAt) }
	case SortByAvgFrameTime:
		less = func(i, j *Result) bool { return i.Summary.Average.FrameTime < j.Summary.Average.FrameTime }
	case SortByCount:
		less = func(i, j *Result) bool { return i.Summary.Count < j.Summary.Count }
	default:
		return nil, ewrap.Newf("invalid sort field: %s", f.field)
	}

	sort.Stable(&resultSorter{items: items, less: less})

	return items, nil
}

// ApplyFilter applies the sort order filter to the given list of results.
func (f SortOrderFilter) ApplyFilter(_ string, items []Result) ([]Result, error) {
	if !f.ascending {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}

	return items, nil
}

// ApplyFilter applies the filter function to the given list of results.
func (f filterFunc) ApplyFilter(_ string, items []Result) ([]Result, error) {
	filtered := make([]Result, 0, len(items))

	for i := range items {
		if f.fn(&items[i]) {
			filtered = append(filtered, items[i])
		}
	}

	return filtered, nil
}
