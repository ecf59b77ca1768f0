// Package sentinel provides standardized error definitions for the framestats system.
// This package centralizes all error types used across the framestats components,
// ensuring consistent error handling and messaging throughout the application.
//
// The errors defined here cover:
// - Statistics failures (finalizing without samples, pushing after finalize)
// - Stage lifecycle violations (invalid transitions, unknown stages)
// - Component initialization errors (nil clients, missing serializers, empty params)
// - Runtime operation errors (timeouts, cancellations)
//
// All errors are created using the ewrap package to provide enhanced error
// wrapping and context capabilities.
package sentinel

import (
	"github.com/hyp3rd/ewrap"
)

var (
	// ErrInsufficientData is returned when statistics are requested from an aggregator that holds no samples.
	ErrInsufficientData = ewrap.New("insufficient data")

	// ErrInvalidState is returned when an operation is not legal in the current aggregator or stage state.
	ErrInvalidState = ewrap.New("invalid state")

	// ErrStageNotFound is returned when a stage lookup by name fails.
	ErrStageNotFound = ewrap.New("stage not found")

	// ErrResultNotFound is returned when a backend holds no result for the requested stage.
	ErrResultNotFound = ewrap.New("result not found")

	// ErrInvalidMetric is returned when a metric name cannot be parsed.
	ErrInvalidMetric = ewrap.New("invalid metric")

	// ErrInvalidBenchmarkType is returned when a benchmark type name cannot be parsed.
	ErrInvalidBenchmarkType = ewrap.New("invalid benchmark type")

	// ErrInvalidBackendType is returned when an unknown result backend type is configured.
	ErrInvalidBackendType = ewrap.New("invalid backend type")

	// ErrNilClient is returned when a nil client is passed to a backend.
	ErrNilClient = ewrap.New("nil client")

	// ErrNilSource is returned when a benchmark is run without a frame source.
	ErrNilSource = ewrap.New("nil frame source")

	// ErrParamCannotBeEmpty is returned when a parameter cannot be empty.
	ErrParamCannotBeEmpty = ewrap.New("param cannot be empty")

	// ErrSerializerNotFound is returned when a serializer is not found.
	ErrSerializerNotFound = ewrap.New("serializer not found")

	// ErrMgmtHTTPShutdownTimeout is returned when the management HTTP server fails to shutdown before context deadline.
	ErrMgmtHTTPShutdownTimeout = ewrap.New("management http shutdown timeout")
)
