// Package attrs defines telemetry attribute keys shared by the framestats middlewares,
// so that metrics and spans describe stages and samples with the same names.
package attrs

const (
	// AttrStage is the name of the stage a call belongs to.
	AttrStage = "stage.name"
	// AttrStageStatus is the stage status observed after the call.
	AttrStageStatus = "stage.status"
	// AttrRangeChanged reports whether a push moved the running min or max.
	AttrRangeChanged = "range.changed"
	// AttrSampleCount is the number of samples held by the stage.
	AttrSampleCount = "samples.count"
	// AttrMethod is the name of the decorated method.
	AttrMethod = "method"
)
