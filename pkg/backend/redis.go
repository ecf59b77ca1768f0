package backend

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/hyp3rd/ewrap"
	"github.com/redis/go-redis/v9"

	"github.com/hyp3rd/framestats/internal/constants"
	"github.com/hyp3rd/framestats/internal/libs/serializer"
	"github.com/hyp3rd/framestats/internal/sentinel"
)

const (
	maxRetries   = 3
	retriesDelay = 100 * time.Millisecond
)

// Redis stores each result as a hash holding the serialized result and its status, and
// tracks the stored stage names in a set.
type Redis struct {
	rdb         *redis.Client          // redis client to interact with the redis server
	keysSetName string                 // name of the set that holds the stored stage names
	keyPrefix   string                 // prefix of the per-stage hash keys
	Serializer  serializer.ISerializer // Serializer is the serializer used to encode the results
}

// NewRedis creates a new redis result store with the given options.
func NewRedis(redisOptions ...Option[Redis]) (*Redis, error) {
	rb := &Redis{}

	ApplyOptions(rb, redisOptions...)

	if rb.rdb == nil {
		return nil, sentinel.ErrNilClient
	}

	if rb.keysSetName == "" {
		rb.keysSetName = constants.RedisKeySetName
	}

	if rb.keyPrefix == "" {
		rb.keyPrefix = constants.RedisKeyPrefix
	}

	if rb.Serializer == nil {
		var err error

		rb.Serializer, err = serializer.New("msgpack")
		if err != nil {
			return nil, err
		}
	}

	return rb, nil
}

func (rb *Redis) key(stage string) string {
	return rb.keyPrefix + stage
}

// Save stores the result of a stage.
func (rb *Redis) Save(ctx context.Context, result Result) error {
	if strings.TrimSpace(result.Stage) == "" {
		return ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "result stage")
	}

	data, err := rb.Serializer.Marshal(result)
	if err != nil {
		return err
	}

	err = rb.rdb.HSet(ctx, rb.key(result.Stage), "data", data, "status", result.Status).Err()
	if err != nil {
		return ewrap.Wrap(err, "failed to set result in redis")
	}

	err = rb.rdb.SAdd(ctx, rb.keysSetName, result.Stage).Err()
	if err != nil {
		return ewrap.Wrap(err, "failed to track result key in redis")
	}

	return nil
}

// Get fetches the result of the named stage.
func (rb *Redis) Get(ctx context.Context, stage string) (Result, error) {
	data, err := rb.rdb.HGet(ctx, rb.key(stage), "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Result{}, ewrap.Wrap(sentinel.ErrResultNotFound, stage)
		}

		return Result{}, ewrap.Wrap(err, "failed to get result from redis")
	}

	var result Result

	err = rb.Serializer.Unmarshal(data, &result)
	if err != nil {
		return Result{}, err
	}

	return result, nil
}

// List returns the stored results sorted by stage name, then applies the filters.
// Stages whose hash disappeared since they were tracked are skipped.
func (rb *Redis) List(ctx context.Context, filters ...IFilter) ([]Result, error) {
	stages, err := rb.rdb.SMembers(ctx, rb.keysSetName).Result()
	if err != nil {
		return nil, ewrap.Wrap(err, "failed to get keys from redis")
	}

	slices.Sort(stages)

	items := make([]Result, 0, len(stages))

	for _, stage := range stages {
		result, err := rb.Get(ctx, stage)
		if err != nil {
			if errors.Is(err, sentinel.ErrResultNotFound) {
				continue
			}

			return nil, err
		}

		items = append(items, result)
	}

	return applyFilters(constants.RedisBackend, items, filters...)
}

// Count returns the number of tracked results.
func (rb *Redis) Count(ctx context.Context) int {
	count, err := rb.rdb.SCard(ctx, rb.keysSetName).Result()
	if err != nil {
		return 0
	}

	return int(count)
}

// Remove deletes the results of the named stages.
func (rb *Redis) Remove(ctx context.Context, stages ...string) error {
	if len(stages) == 0 {
		return nil
	}

	members := make([]any, len(stages))
	keys := make([]string, len(stages))

	for i, stage := range stages {
		members[i] = stage
		keys[i] = rb.key(stage)
	}

	err := rb.rdb.SRem(ctx, rb.keysSetName, members...).Err()
	if err != nil {
		return ewrap.Wrap(err, "removing keys from set")
	}

	err = rb.rdb.Del(ctx, keys...).Err()
	if err != nil {
		return ewrap.Wrap(err, "removing keys")
	}

	return nil
}

// Clear removes every tracked result and the tracking set.
func (rb *Redis) Clear(ctx context.Context) error {
	stages, err := rb.rdb.SMembers(ctx, rb.keysSetName).Result()
	if err != nil {
		return ewrap.Wrap(err, "failed to get keys from redis")
	}

	keys := make([]string, 0, len(stages)+1)
	for _, stage := range stages {
		keys = append(keys, rb.key(stage))
	}

	keys = append(keys, rb.keysSetName)

	err = rb.rdb.Del(ctx, keys...).Err()
	if err != nil {
		return ewrap.Wrap(err, "clearing results", ewrap.WithRetry(maxRetries, retriesDelay))
	}

	return nil
}
