package framestats

import (
	"github.com/hyp3rd/framestats/internal/constants"
	"github.com/hyp3rd/framestats/pkg/backend"
)

// Config is a struct that wraps all the configuration options to setup a `Benchmark` and its backend.
type Config struct {
	// BackendType selects the result backend: constants.InMemoryBackend or constants.RedisBackend.
	BackendType string
	// InMemoryOptions is a slice of options that can be used to configure the `InMemory` backend.
	InMemoryOptions []backend.Option[backend.InMemory]
	// RedisOptions is a slice of options that can be used to configure the `Redis` backend.
	RedisOptions []backend.Option[backend.Redis]
	// BenchmarkOptions is a slice of options that can be used to configure the `Benchmark`.
	BenchmarkOptions []Option
}

// NewConfig returns a new `Config` struct with default values:
//   - `InMemoryOptions` is empty
//   - `RedisOptions` is empty
//   - `BenchmarkOptions` is set to:
//     -- `WithWarmup(constants.DefaultWarmup)`
//
// Each of the above options can be overridden by appending a different option.
func NewConfig(backendType string) *Config {
	return &Config{
		BackendType:     backendType,
		InMemoryOptions: []backend.Option[backend.InMemory]{},
		RedisOptions:    []backend.Option[backend.Redis]{},
		BenchmarkOptions: []Option{
			WithWarmup(constants.DefaultWarmup),
		},
	}
}
