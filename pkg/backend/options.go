package backend

import (
	"github.com/redis/go-redis/v9"

	"github.com/hyp3rd/framestats/internal/libs/serializer"
)

// Option is a function type that can be used to configure a backend.
type Option[T IBackendConstrain] func(*T)

// ApplyOptions applies the given options to the given backend.
func ApplyOptions[T IBackendConstrain](backend *T, options ...Option[T]) {
	for _, option := range options {
		option(backend)
	}
}

// WithRedisClient is an option that sets the redis client to use.
func WithRedisClient(client *redis.Client) Option[Redis] {
	return func(backend *Redis) {
		backend.rdb = client
	}
}

// WithKeysSetName is an option that sets the name of the set that tracks the stored stages.
func WithKeysSetName(keysSetName string) Option[Redis] {
	return func(backend *Redis) {
		backend.keysSetName = keysSetName
	}
}

// WithKeyPrefix is an option that sets the prefix of the per-stage hash keys.
func WithKeyPrefix(prefix string) Option[Redis] {
	return func(backend *Redis) {
		backend.keyPrefix = prefix
	}
}

// WithSerializer is an option that sets the serializer to use for stored results.
//   - The default serializer is `serializer.MsgpackSerializer`.
//   - The `serializer.DefaultJSONSerializer` stores results as JSON.
//   - The interface `serializer.ISerializer` can be implemented to use a custom serializer.
func WithSerializer(ser serializer.ISerializer) Option[Redis] {
	return func(backend *Redis) {
		backend.Serializer = ser
	}
}
