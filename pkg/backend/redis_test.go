package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/longbridgeapp/assert"
	"github.com/redis/go-redis/v9"

	"github.com/hyp3rd/framestats/internal/constants"
	"github.com/hyp3rd/framestats/internal/libs/serializer"
	"github.com/hyp3rd/framestats/internal/sentinel"
	"github.com/hyp3rd/framestats/pkg/aggregator"
	"github.com/hyp3rd/framestats/pkg/sample"
)

func redisResult() Result {
	summary := aggregator.Summary{
		Min:     sample.FromFrameTime(10, 1, 1, 1),
		Max:     sample.FromFrameTime(40, 4, 4, 4),
		Average: sample.FromFrameTime(25, 2, 2, 2),
		Samples: []sample.Sample{sample.FromFrameTime(10, 1, 1, 1), sample.FromFrameTime(40, 4, 4, 4)},
		Count:   2,
	}

	return Result{StageID: "abc", Stage: "forest", Status: "Finished", Summary: summary}
}

func TestNewRedis_RequiresClient(t *testing.T) {
	_, err := NewRedis()
	assert.True(t, errors.Is(err, sentinel.ErrNilClient))
}

func TestRedis_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()

	store, err := NewRedis(WithRedisClient(db))
	assert.NoError(t, err)

	in := redisResult()
	ser, _ := serializer.New("msgpack")
	data, err := ser.Marshal(in)
	assert.NoError(t, err)

	key := constants.RedisKeyPrefix + "forest"

	mock.ExpectHSet(key, "data", data, "status", "Finished").SetVal(2)
	mock.ExpectSAdd(constants.RedisKeySetName, "forest").SetVal(1)
	mock.ExpectHGet(key, "data").SetVal(string(data))

	assert.NoError(t, store.Save(ctx, in))

	out, err := store.Get(ctx, "forest")
	assert.NoError(t, err)
	assert.Equal(t, in.StageID, out.StageID)
	assert.Equal(t, in.Summary.Count, out.Summary.Count)
	assert.Equal(t, in.Summary.Samples, out.Summary.Samples)
	assert.Equal(t, in.Summary.Max, out.Summary.Max)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_GetMissing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store, _ := NewRedis(WithRedisClient(db), WithKeyPrefix("bench:"))

	mock.ExpectHGet("bench:desert", "data").RedisNil()

	_, err := store.Get(context.Background(), "desert")
	assert.True(t, errors.Is(err, sentinel.ErrResultNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_ListSkipsVanishedAndSorts(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()

	ser := &serializer.DefaultJSONSerializer{}
	store, _ := NewRedis(WithRedisClient(db), WithSerializer(ser), WithKeysSetName("runs"))

	in := redisResult()
	data, _ := ser.Marshal(in)

	mock.ExpectSMembers("runs").SetVal([]string{"forest", "city"})
	mock.ExpectHGet(constants.RedisKeyPrefix+"city", "data").RedisNil()
	mock.ExpectHGet(constants.RedisKeyPrefix+"forest", "data").SetVal(string(data))

	items, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(items))
	assert.Equal(t, "forest", items[0].Stage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_RemoveClearCount(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	store, _ := NewRedis(WithRedisClient(db))

	mock.ExpectSRem(constants.RedisKeySetName, "forest").SetVal(1)
	mock.ExpectDel(constants.RedisKeyPrefix + "forest").SetVal(1)
	mock.ExpectSCard(constants.RedisKeySetName).SetVal(3)
	mock.ExpectSMembers(constants.RedisKeySetName).SetVal([]string{"city"})
	mock.ExpectDel(constants.RedisKeyPrefix+"city", constants.RedisKeySetName).SetVal(2)

	assert.NoError(t, store.Remove(ctx, "forest"))
	assert.Equal(t, 3, store.Count(ctx))
	assert.NoError(t, store.Clear(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_SaveError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store, _ := NewRedis(WithRedisClient(db), WithSerializer(&serializer.DefaultJSONSerializer{}))

	in := redisResult()
	data, _ := store.Serializer.Marshal(in)

	mock.ExpectHSet(constants.RedisKeyPrefix+"forest", "data", data, "status", "Finished").SetErr(redis.ErrClosed)

	err := store.Save(context.Background(), in)
	assert.True(t, errors.Is(err, redis.ErrClosed))
}
