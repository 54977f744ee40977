package discovery

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localscout/discovery/internal/types"
)

func TestCache_SetAndGet(t *testing.T) {
	cache := NewCache()

	cache.Set("k", "v", time.Minute)

	got, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestCache_EntriesExpire(t *testing.T) {
	cache := NewCache()

	cache.Set("k", "v", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, ok := cache.Get("k")
	assert.False(t, ok)
}

func TestCache_Clear(t *testing.T) {
	cache := NewCache()
	cache.Set("a", 1, time.Minute)
	cache.Set("b", 2, time.Minute)

	cache.Clear()

	_, ok := cache.Get("a")
	assert.False(t, ok)
	_, ok = cache.Get("b")
	assert.False(t, ok)
}

func TestCache_DoDeduplicatesConcurrentCallers(t *testing.T) {
	cache := NewCache()
	var calls atomic.Int64

	fetch := func() (interface{}, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "result", nil
	}

	var wg sync.WaitGroup
	var sharedCount atomic.Int64
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, shared, err := cache.Do("k", fetch)
			assert.NoError(t, err)
			assert.Equal(t, "result", v)
			if shared {
				sharedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, int64(4-calls.Load()), sharedCount.Load())
}

func TestViewportKey_CategoryOrderIsCanonical(t *testing.T) {
	bounds := types.Viewport{North: 12.99, South: 12.95, East: 77.66, West: 77.62}

	a := viewportKey(bounds, types.ViewportOptions{Categories: []string{"cafe", "bar"}})
	b := viewportKey(bounds, types.ViewportOptions{Categories: []string{"bar", "cafe"}})

	assert.Equal(t, a, b)
}

func TestViewportKey_OptionsChangeKey(t *testing.T) {
	bounds := types.Viewport{North: 12.99, South: 12.95, East: 77.66, West: 77.62}

	base := viewportKey(bounds, types.ViewportOptions{})
	rated := viewportKey(bounds, types.ViewportOptions{MinRating: 4.0})
	open := viewportKey(bounds, types.ViewportOptions{OpenNow: true})

	assert.NotEqual(t, base, rated)
	assert.NotEqual(t, base, open)
	assert.NotEqual(t, rated, open)
}

func TestSearchKey_Normalizes(t *testing.T) {
	assert.Equal(t, searchKey("Quiet Coffee"), searchKey("  quiet coffee "))
}
