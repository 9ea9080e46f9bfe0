package icd11

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// fakeRedis implements the handful of commands RedisCache issues. Calling
// any other command panics on the nil embedded interface.
type fakeRedis struct {
	redis.Cmdable
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, exp time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	cache := NewRedisCache(rdb, time.Hour, zerolog.Nop())
	key := NewCacheKey("Fever", 5)

	if _, ok := cache.Get(ctx, key); ok {
		t.Fatal("expected miss")
	}
	cache.Put(ctx, key, []ExternalConcept{{Code: "MG30", MatchType: MatchStem, InitialConfidence: 0.9}})

	got, ok := cache.Get(ctx, key)
	if !ok || len(got) != 1 || got[0].Code != "MG30" || got[0].MatchType != MatchStem {
		t.Fatalf("unexpected cached value: %+v %v", got, ok)
	}
	if rdb.ttls[redisKeyPrefix+"fever|5"] != time.Hour {
		t.Errorf("expected redis expiry to equal the TTL, got %v", rdb.ttls)
	}
}

func TestRedisCache_StaleTimestampIsAbsent(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	rdb := newFakeRedis()
	cache := NewRedisCache(rdb, time.Hour, zerolog.Nop())
	cache.now = clock.Now
	key := NewCacheKey("fever", 5)

	cache.Put(ctx, key, []ExternalConcept{{Code: "MG30"}})
	clock.Advance(2 * time.Hour)

	if _, ok := cache.Get(ctx, key); ok {
		t.Fatal("expected stale entry to be ignored")
	}
	if len(rdb.data) != 0 {
		t.Errorf("expected stale entry to be deleted, got %v", rdb.data)
	}
}

func TestRedisCache_UndecodableEntry(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	cache := NewRedisCache(rdb, time.Hour, zerolog.Nop())
	key := NewCacheKey("fever", 5)
	rdb.data[redisKeyPrefix+key.String()] = "{not json"

	if _, ok := cache.Get(ctx, key); ok {
		t.Error("expected undecodable entry to be a miss")
	}
}
