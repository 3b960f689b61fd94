package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKVSetIfAbsentFirstWriterWins(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	inserted, err := kv.SetIfAbsent(ctx, "k", []byte("first"), 0)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = kv.SetIfAbsent(ctx, "k", []byte("second"), 0)
	require.NoError(t, err)
	assert.False(t, inserted)

	value, found, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("first"), value)
}

func TestMemoryKVSetIfAbsentConcurrent(t *testing.T) {
	kv := NewMemoryKV()

	const n = 32
	wins := make([]bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			wins[i], _ = kv.SetIfAbsent(context.Background(), "race", []byte{byte(i)}, 0)
		}(i)
	}
	wg.Wait()

	count := 0
	for _, w := range wins {
		if w {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestMemoryKVExpiry(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	now := time.Now()
	kv.Now = func() time.Time { return now }

	require.NoError(t, kv.Set(ctx, "k", []byte("v"), time.Minute))

	exists, err := kv.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	kv.Now = func() time.Time { return now.Add(2 * time.Minute) }

	exists, err = kv.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)

	// An expired key is reservable again.
	inserted, err := kv.SetIfAbsent(ctx, "k", []byte("v2"), 0)
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestMemoryKVDelete(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, kv.Delete(ctx, "k"))
	require.NoError(t, kv.Delete(ctx, "k"))

	_, found, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}
