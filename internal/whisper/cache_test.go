package whisper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingEnsure struct {
	mu    sync.Mutex
	calls map[string]int
	delay time.Duration
}

func (c *countingEnsure) ensure(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[key]++
	c.mu.Unlock()

	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return "/models/" + key, nil
}

func (c *countingEnsure) count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[key]
}

func TestCacheMemoizesByKey(t *testing.T) {
	t.Parallel()

	ensure := &countingEnsure{}
	cache := NewCache(ensure.ensure, 2)

	first, err := cache.Resolve(context.Background(), "tiny")
	require.NoError(t, err)
	second, err := cache.Resolve(context.Background(), "tiny")
	require.NoError(t, err)

	require.Same(t, first, second)
	require.Equal(t, 1, ensure.count("tiny"))
}

func TestCacheEmptyKeyIsDefaultKey(t *testing.T) {
	t.Parallel()

	ensure := &countingEnsure{}
	cache := NewCache(ensure.ensure, 2)

	_, err := cache.Resolve(context.Background(), "")
	require.NoError(t, err)
	_, err = cache.Resolve(context.Background(), "  ")
	require.NoError(t, err)

	require.Equal(t, 1, ensure.count(""))
}

func TestCacheSingleFlightCollapsesConcurrentLoads(t *testing.T) {
	t.Parallel()

	ensure := &countingEnsure{delay: 50 * time.Millisecond}
	cache := NewCache(ensure.ensure, 2)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Resolve(context.Background(), "small")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, ensure.count("small"))
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	ensure := &countingEnsure{}
	cache := NewCache(ensure.ensure, 2)
	ctx := context.Background()

	_, err := cache.Resolve(ctx, "a")
	require.NoError(t, err)
	_, err = cache.Resolve(ctx, "b")
	require.NoError(t, err)

	// Touch "a" so "b" becomes the eviction candidate.
	_, err = cache.Resolve(ctx, "a")
	require.NoError(t, err)

	_, err = cache.Resolve(ctx, "c")
	require.NoError(t, err)
	require.Equal(t, 2, cache.Len())

	_, err = cache.Resolve(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, 1, ensure.count("a"))

	_, err = cache.Resolve(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, 2, ensure.count("b"))
}

func TestCacheDoesNotCacheFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	cache := NewCache(func(context.Context, string) (string, error) {
		calls++
		if calls == 1 {
			return "", context.DeadlineExceeded
		}
		return "/models/x", nil
	}, 2)

	_, err := cache.Resolve(context.Background(), "x")
	require.Error(t, err)

	model, err := cache.Resolve(context.Background(), "x")
	require.NoError(t, err)
	require.Equal(t, "/models/x", model.Dir)
}
