package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/longbridgeapp/assert"

	"github.com/hyp3rd/framestats/internal/sentinel"
	"github.com/hyp3rd/framestats/pkg/aggregator"
	"github.com/hyp3rd/framestats/pkg/sample"
)

func result(stage string, avgFrameTime float64, count int, started time.Time) Result {
	return Result{
		StageID:   stage + "-id",
		Stage:     stage,
		Status:    "Finished",
		StartedAt: started,
		Summary: aggregator.Summary{
			Average: sample.FromFrameTime(avgFrameTime, 1, 1, 1),
			Count:   count,
		},
	}
}

func TestInMemory_SaveGetReplace(t *testing.T) {
	ctx := context.Background()

	store, err := NewInMemory()
	assert.NoError(t, err)

	assert.NoError(t, store.Save(ctx, result("forest", 16, 10, time.Time{})))
	assert.NoError(t, store.Save(ctx, result("city", 33, 5, time.Time{})))
	assert.NoError(t, store.Save(ctx, result("forest", 20, 12, time.Time{})))

	assert.Equal(t, 2, store.Count(ctx))

	got, err := store.Get(ctx, "forest")
	assert.NoError(t, err)
	assert.Equal(t, 12, got.Summary.Count)

	items, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "forest", items[0].Stage)
	assert.Equal(t, "city", items[1].Stage)

	_, err = store.Get(ctx, "desert")
	assert.True(t, errors.Is(err, sentinel.ErrResultNotFound))

	err = store.Save(ctx, Result{})
	assert.True(t, errors.Is(err, sentinel.ErrParamCannotBeEmpty))
}

func TestInMemory_RemoveAndClear(t *testing.T) {
	ctx := context.Background()

	store, _ := NewInMemory()
	for _, name := range []string{"a", "b", "c"} {
		assert.NoError(t, store.Save(ctx, result(name, 10, 1, time.Time{})))
	}

	assert.NoError(t, store.Remove(ctx, "b"))

	items, _ := store.List(ctx)
	assert.Equal(t, 2, len(items))
	assert.Equal(t, "c", items[1].Stage)

	assert.NoError(t, store.Clear(ctx))
	assert.Equal(t, 0, store.Count(ctx))
}

func TestFilters(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	store, _ := NewInMemory()
	assert.NoError(t, store.Save(ctx, result("b", 30, 300, base.Add(2*time.Minute))))
	assert.NoError(t, store.Save(ctx, result("c", 10, 100, base)))
	assert.NoError(t, store.Save(ctx, result("a", 20, 200, base.Add(time.Minute))))

	byStage, err := store.List(ctx, WithSortBy(SortByStage))
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, stages(byStage))

	byAvg, err := store.List(ctx, WithSortBy(SortByAvgFrameTime), WithSortOrderAsc(false))
	assert.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, stages(byAvg))

	byStart, err := store.List(ctx, WithSortBy(SortByStarted))
	assert.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, stages(byStart))

	large, err := store.List(ctx, WithFilterFunc(func(r *Result) bool { return r.Summary.Count >= 200 }), WithSortBy(SortByCount))
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, stages(large))

	_, err = store.List(ctx, WithSortBy("color"))
	assert.True(t, err != nil)
}

func stages(items []Result) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Stage
	}

	return out
}
