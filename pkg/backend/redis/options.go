// Package redis provides configuration options for the Redis client used by the Redis
// result backend. It includes functional options for configuring redis.Options and a
// helper to build a client with sensible defaults.
package redis

import (
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
)

// Option is a function type that can be used to configure the redis client.
type Option func(*redis.Options)

// ApplyOptions applies the given options to the given redis options.
func ApplyOptions(opt *redis.Options, options ...Option) {
	for _, option := range options {
		option(opt)
	}
}

// WithAddr sets the `Addr` field of the `redis.Options` struct.
func WithAddr(addr string) Option {
	return func(opt *redis.Options) {
		opt.Addr = addr
	}
}

// WithUsername sets the `Username` field of the `redis.Options` struct.
func WithUsername(username string) Option {
	return func(opt *redis.Options) {
		opt.Username = username
	}
}

// WithPassword sets the `Password` field of the `redis.Options` struct.
func WithPassword(password string) Option {
	return func(opt *redis.Options) {
		opt.Password = password
	}
}

// WithDB sets the `DB` field of the `redis.Options` struct.
func WithDB(db int) Option {
	return func(opt *redis.Options) {
		opt.DB = db
	}
}

// WithDialTimeout sets the `DialTimeout` field of the `redis.Options` struct.
func WithDialTimeout(dialTimeout time.Duration) Option {
	return func(opt *redis.Options) {
		opt.DialTimeout = dialTimeout
	}
}

// WithTLSConfig sets the `TLSConfig` field of the `redis.Options` struct.
func WithTLSConfig(tlsConfig *tls.Config) Option {
	return func(opt *redis.Options) {
		opt.TLSConfig = tlsConfig
	}
}
