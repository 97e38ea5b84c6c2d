package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Total float64 `json:"total"`
}

func TestNilCacheLoadsThrough(t *testing.T) {
	var c *Cache
	calls := 0
	load := func(context.Context) (*payload, error) {
		calls++
		return &payload{Total: 42}, nil
	}
	for i := 0; i < 2; i++ {
		v, err := GetOrLoadJSON(c, context.Background(), "stats", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, 42.0, v.Total)
	}
	assert.Equal(t, 2, calls)

	c.Delete(context.Background(), "stats")
	assert.NoError(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}

func TestNilCachePropagatesErrors(t *testing.T) {
	var c *Cache
	boom := errors.New("boom")
	_, err := GetOrLoadJSON(c, context.Background(), "k", time.Minute, func(context.Context) (*payload, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func newRedisCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Ping(context.Background()))
	return c, mr
}

func counting(v float64) (func(context.Context) (*payload, error), *int32) {
	var calls int32
	return func(context.Context) (*payload, error) {
		atomic.AddInt32(&calls, 1)
		return &payload{Total: v}, nil
	}, &calls
}

func TestGetOrLoadJSON_HitAfterLoad(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()
	load, calls := counting(7)

	for i := 0; i < 3; i++ {
		v, err := GetOrLoadJSON(c, ctx, "stats", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, 7.0, v.Total)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))

	raw, err := mr.Get("carbon:stats")
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":7}`, raw)
	assert.Equal(t, time.Minute, mr.TTL("carbon:stats"))

	mr.FastForward(2 * time.Minute)
	_, err = GetOrLoadJSON(c, ctx, "stats", time.Minute, load)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(calls))
}

func TestGetOrLoadJSON_ZeroTTLBypassesRedis(t *testing.T) {
	c, mr := newRedisCache(t)
	load, calls := counting(1)

	for i := 0; i < 2; i++ {
		_, err := GetOrLoadJSON(c, context.Background(), "stats", 0, load)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(calls))
	assert.False(t, mr.Exists("carbon:stats"))
}

func TestGetOrLoadJSON_CorruptEntryIsReplaced(t *testing.T) {
	c, mr := newRedisCache(t)
	require.NoError(t, mr.Set("carbon:stats", `{"total":"not a number"`))
	load, calls := counting(3)

	v, err := GetOrLoadJSON(c, context.Background(), "stats", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v.Total)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))

	raw, err := mr.Get("carbon:stats")
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":3}`, raw)
}

func TestGetOrLoad_ErrorsAreNotCached(t *testing.T) {
	c, mr := newRedisCache(t)
	boom := errors.New("boom")
	_, err := c.GetOrLoad(context.Background(), "k", time.Minute, func(context.Context) ([]byte, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("carbon:k"))
}

func TestGetOrLoad_ConcurrentMissesShareOneLoad(t *testing.T) {
	c, _ := newRedisCache(t)
	release := make(chan struct{})
	var calls int32
	load := func(context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []byte(`{"total":1}`), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := c.GetOrLoad(context.Background(), "shared", time.Minute, load)
			assert.NoError(t, err)
			assert.JSONEq(t, `{"total":1}`, string(b))
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestDelete(t *testing.T) {
	c, mr := newRedisCache(t)
	require.NoError(t, mr.Set("carbon:a", "1"))
	require.NoError(t, mr.Set("carbon:b", "2"))
	c.Delete(context.Background(), "a", "b")
	assert.False(t, mr.Exists("carbon:a"))
	assert.False(t, mr.Exists("carbon:b"))
}
