package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis implements the handful of commands the cache and locker use.
type fakeRedis struct {
	redis.Cmdable

	data    map[string]string
	down    bool
	gets    int
	deleted []string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

var errDown = errors.New("redis: connection refused")

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.gets++
	if f.down {
		return redis.NewStringResult("", errDown)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	if f.down {
		return redis.NewStatusResult("", errDown)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd {
	if f.down {
		return redis.NewBoolResult(false, errDown)
	}
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key], _ = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if f.down {
		return redis.NewIntResult(0, errDown)
	}
	var n int64
	for _, k := range keys {
		f.deleted = append(f.deleted, k)
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}
