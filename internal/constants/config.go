// Package constants defines default configuration values for the framestats system.
// It provides the standard stage duration and warmup period, the quartile ranks used
// at finalization, and the identifiers of the supported result backends.
package constants

import "time"

const (
	// DefaultStageDuration is the measurement window of a stage that is driven by time
	// instead of a timeline, or whose frame source exposes no timeline.
	DefaultStageDuration = 30 * time.Second
	// DefaultWarmup is the pause between loading a stage and recording its first sample.
	DefaultWarmup = 2 * time.Second
	// DefaultHistoryCapacity is the number of samples preallocated per stage,
	// roughly 30 seconds at 60 frames per second.
	DefaultHistoryCapacity = 1800

	// LowerQuartileRank is the rank of the lower quartile.
	LowerQuartileRank = 0.25
	// MedianRank is the rank of the median.
	MedianRank = 0.5
	// UpperQuartileRank is the rank of the upper quartile.
	UpperQuartileRank = 0.75

	// MillisecondsPerSecond converts frame times (ms) into frames per second.
	MillisecondsPerSecond = 1000.0

	// InMemoryBackend is the in-memory result backend type.
	InMemoryBackend = "in-memory"
	// RedisBackend is the name of the Redis result backend.
	RedisBackend = "redis"
)
