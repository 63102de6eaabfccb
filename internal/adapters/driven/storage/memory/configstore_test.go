package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigStore_SeededValues(t *testing.T) {
	initial := map[string]any{"retrieval.top_k": 8}
	store := NewConfigStore(initial)
	initial["retrieval.top_k"] = 99

	assert.Equal(t, 8, store.GetInt("retrieval.top_k"), "seed map is copied")
	assert.Equal(t, ":memory:", store.Path())
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"s":     "text",
		"i64":   int64(7),
		"f":     0.45,
		"b":     true,
		"list":  []any{"a", 1, "b"},
		"plain": []string{"x"},
	})

	assert.Equal(t, "text", store.GetString("s"))
	assert.Equal(t, 7, store.GetInt("i64"))
	assert.Equal(t, 0, store.GetInt("s"))
	assert.InDelta(t, 0.45, store.GetFloat("f"), 1e-9)
	assert.InDelta(t, 7.0, store.GetFloat("i64"), 1e-9)
	assert.True(t, store.GetBool("b"))
	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("list"))
	assert.Equal(t, []string{"x"}, store.GetStringSlice("plain"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_SetAndKeys(t *testing.T) {
	store := NewConfigStore(nil)
	assert.NoError(t, store.Set("b", 1))
	assert.NoError(t, store.Set("a", 2))
	assert.Equal(t, []string{"a", "b"}, store.Keys())
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("k", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("k")
		}()
	}
	wg.Wait()
}
