package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDCache_NewIDCache(t *testing.T) {
	cache := NewIDCache()

	require.NotNil(t, cache)
	assert.NotNil(t, cache.ids)
	assert.Equal(t, 0, cache.Len())
}

func TestIDCache_SetAndGet(t *testing.T) {
	cache := NewIDCache()

	cache.Set("key-1", "V1StGXR8")

	id, ok := cache.Get("key-1")
	require.True(t, ok, "expected to find key-1")
	assert.Equal(t, "V1StGXR8", id)
}

func TestIDCache_Get_NotFound(t *testing.T) {
	cache := NewIDCache()

	_, ok := cache.Get("nonexistent")
	assert.False(t, ok, "expected not to find nonexistent key")
}

func TestIDCache_Delete(t *testing.T) {
	cache := NewIDCache()

	cache.Set("key-1", "a")
	cache.Set("key-2", "b")

	cache.Delete("key-1")

	_, ok := cache.Get("key-1")
	assert.False(t, ok, "expected not to find key-1 after delete")

	id, ok := cache.Get("key-2")
	require.True(t, ok, "expected key-2 to survive")
	assert.Equal(t, "b", id)
}

func TestIDCache_Reset(t *testing.T) {
	cache := NewIDCache()

	cache.Set("key-1", "a")
	cache.Set("key-2", "b")
	cache.Reset()

	assert.Equal(t, 0, cache.Len())
}

func TestIDCache_ConcurrentAccess(t *testing.T) {
	cache := NewIDCache()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			cache.Set(fmt.Sprintf("key-%d", n), fmt.Sprintf("id-%d", n))
		}(i)
		go func(n int) {
			defer wg.Done()
			cache.Get(fmt.Sprintf("key-%d", n))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, cache.Len())
}
