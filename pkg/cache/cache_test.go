package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleCacheBasicOperations(t *testing.T) {
	c, err := NewSimple[string]()
	require.NoError(t, err)
	defer c.Close()

	created, err := c.Set("a", "alpha")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = c.Set("a", "alpha2")
	require.NoError(t, err)
	assert.False(t, created, "updating an existing key is not a create")

	val, found := c.Get("a")
	assert.True(t, found)
	assert.Equal(t, "alpha2", val)

	_, found = c.Get("missing")
	assert.False(t, found)

	assert.Equal(t, 1, c.Size())

	deleted, err := c.Delete("a")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = c.Delete("a")
	require.NoError(t, err)
	assert.False(t, deleted)

	assert.Equal(t, 0, c.Size())
}

func TestSimpleCacheEmptyKey(t *testing.T) {
	c, err := NewSimple[int]()
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Set("", 1)
	assert.Error(t, err)

	_, err = c.Delete("")
	assert.Error(t, err)
}

func TestSimpleCacheClear(t *testing.T) {
	var evicted []string
	var mu sync.Mutex

	c, err := NewSimple[int](WithEvictionCallback[int](func(key string, _ int) {
		mu.Lock()
		evicted = append(evicted, key)
		mu.Unlock()
	}))
	require.NoError(t, err)
	defer c.Close()

	_, _ = c.Set("x", 1)
	_, _ = c.Set("y", 2)

	require.NoError(t, c.Clear())
	assert.Equal(t, 0, c.Size())

	mu.Lock()
	assert.Len(t, evicted, 2)
	mu.Unlock()
}

func TestLRUCacheEviction(t *testing.T) {
	var evicted []string
	var mu sync.Mutex

	c, err := NewLRU[int](3, WithEvictionCallback[int](func(key string, _ int) {
		mu.Lock()
		evicted = append(evicted, key)
		mu.Unlock()
	}))
	require.NoError(t, err)
	defer c.Close()

	_, _ = c.Set("a", 1)
	_, _ = c.Set("b", 2)
	_, _ = c.Set("c", 3)

	// Touch "a" so "b" becomes the LRU entry
	_, _ = c.Get("a")

	_, _ = c.Set("d", 4)

	mu.Lock()
	assert.Equal(t, []string{"b"}, evicted)
	mu.Unlock()

	_, found := c.Get("b")
	assert.False(t, found, "b should have been evicted")

	for _, key := range []string{"a", "c", "d"} {
		_, found := c.Get(key)
		assert.True(t, found, "%s should still be cached", key)
	}

	assert.Equal(t, int64(1), c.Stats().Evictions())
}

func TestLRUCacheUpdateMovesToFront(t *testing.T) {
	c, err := NewLRU[int](2)
	require.NoError(t, err)
	defer c.Close()

	_, _ = c.Set("a", 1)
	_, _ = c.Set("b", 2)

	// Updating "a" makes "b" least recently used
	_, _ = c.Set("a", 10)
	_, _ = c.Set("c", 3)

	_, found := c.Get("b")
	assert.False(t, found)

	val, found := c.Get("a")
	assert.True(t, found)
	assert.Equal(t, 10, val)
}

func TestLRUCacheKeysOrder(t *testing.T) {
	c, err := NewLRU[int](5)
	require.NoError(t, err)
	defer c.Close()

	_, _ = c.Set("first", 1)
	_, _ = c.Set("second", 2)
	_, _ = c.Set("third", 3)

	// Most recently used first
	assert.Equal(t, []string{"third", "second", "first"}, c.Keys())

	_, _ = c.Get("first")
	assert.Equal(t, []string{"first", "third", "second"}, c.Keys())
}

func TestLRUCacheMinimumSize(t *testing.T) {
	c, err := NewLRU[int](0)
	require.NoError(t, err)
	defer c.Close()

	_, _ = c.Set("a", 1)
	_, _ = c.Set("b", 2)

	assert.Equal(t, 1, c.Size())
}

func TestCacheStats(t *testing.T) {
	c, err := NewLRU[string](10)
	require.NoError(t, err)
	defer c.Close()

	_, _ = c.Set("k", "v")
	_, _ = c.Get("k")
	_, _ = c.Get("k")
	_, _ = c.Get("absent")

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits())
	assert.Equal(t, int64(1), stats.Misses())
	assert.Equal(t, int64(1), stats.Sets())
	assert.InDelta(t, 2.0/3.0, stats.HitRatio(), 0.001)

	summary := stats.Summary()
	assert.Equal(t, int64(2), summary.Hits)
	assert.Equal(t, int64(1), summary.CurrentSize)

	stats.Reset()
	assert.Equal(t, int64(0), stats.Hits())
}

func TestNoopCache(t *testing.T) {
	c := NewNoop[string]()

	created, err := c.Set("k", "v")
	require.NoError(t, err)
	assert.False(t, created)

	_, found := c.Get("k")
	assert.False(t, found)

	assert.Equal(t, 0, c.Size())
	assert.Nil(t, c.Keys())
	assert.Nil(t, c.Stats())
	assert.NoError(t, c.Clear())
	assert.NoError(t, c.Close())
}

func TestCacheConcurrentAccess(t *testing.T) {
	c, err := NewLRU[int](128)
	require.NoError(t, err)
	defer c.Close()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("key-%d", (base*100+i)%64)
				_, _ = c.Set(key, i)
				_, _ = c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Size(), 128)
	assert.Greater(t, c.Stats().Hits(), int64(0))
}
