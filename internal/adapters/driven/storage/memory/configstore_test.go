package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("index.roots", []string{"/conf"}))
	require.NoError(t, store.Set("index.roots", []string{"/conf", "/apis"}))

	val, ok := store.Get("index.roots")
	assert.True(t, ok)
	assert.Equal(t, []string{"/conf", "/apis"}, val)

	val, ok = store.Get("nonexistent")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_TypeConversions(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("string", "value")
	_ = store.Set("int", 42)
	_ = store.Set("int64", int64(43))
	_ = store.Set("float", 2.5)
	_ = store.Set("bool", true)
	_ = store.Set("interval", "90s")
	_ = store.Set("seconds", int64(15))
	_ = store.Set("any_slice", []any{"a", 1, "b"})

	assert.Equal(t, "value", store.GetString("string"))
	assert.Equal(t, "", store.GetString("int"))

	assert.Equal(t, 42, store.GetInt("int"))
	assert.Equal(t, 43, store.GetInt("int64"))
	assert.Equal(t, 2, store.GetInt("float"))
	assert.Equal(t, 0, store.GetInt("string"))

	assert.InDelta(t, 2.5, store.GetFloat("float"), 1e-9)
	assert.InDelta(t, 42.0, store.GetFloat("int"), 1e-9)

	assert.True(t, store.GetBool("bool"))
	assert.False(t, store.GetBool("string"))

	assert.Equal(t, 90*time.Second, store.GetDuration("interval"))
	assert.Equal(t, 15*time.Second, store.GetDuration("seconds"))
	assert.Zero(t, store.GetDuration("string"))

	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("any_slice"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_NoOpPersistence(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("key", "value")

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, "value", store.GetString("key"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("search.default_limit", n)
			_ = store.GetInt("search.default_limit")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("search.default_limit")
	assert.True(t, ok)
}
