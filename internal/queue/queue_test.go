package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityOrdering(t *testing.T) {
	pq := NewPriorityQueue[string]()

	pq.Put("c", "large", 300)
	pq.Put("a", "small", 10)
	pq.Put("b", "medium", 50)

	v, ok := pq.TryGet()
	require.True(t, ok)
	assert.Equal(t, "small", v)

	v, ok = pq.TryGet()
	require.True(t, ok)
	assert.Equal(t, "medium", v)

	v, ok = pq.TryGet()
	require.True(t, ok)
	assert.Equal(t, "large", v)

	_, ok = pq.TryGet()
	assert.False(t, ok)
}

func TestKeyBreaksTies(t *testing.T) {
	pq := NewPriorityQueue[string]()

	pq.Put("b", "second", 1)
	pq.Put("a", "first", 1)

	v, _ := pq.TryGet()
	assert.Equal(t, "first", v)
	v, _ = pq.TryGet()
	assert.Equal(t, "second", v)
}

func TestPutDeduplicates(t *testing.T) {
	pq := NewPriorityQueue[int]()

	assert.True(t, pq.Put("x", 1, 5))
	assert.False(t, pq.Put("x", 2, 1))
	assert.Equal(t, 1, pq.Len())

	v, ok := pq.TryGet()
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestForcePutReplaces(t *testing.T) {
	pq := NewPriorityQueue[int]()

	pq.Put("x", 1, 5)
	pq.ForcePut("x", 2, 1)
	assert.Equal(t, 1, pq.Len())

	v, ok := pq.TryGet()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = pq.TryGet()
	assert.False(t, ok)
}

func TestContainsAndKeys(t *testing.T) {
	pq := NewPriorityQueue[int]()

	pq.Put("a", 1, 1)
	pq.Put("b", 2, 2)

	assert.True(t, pq.Contains("a"))
	assert.False(t, pq.Contains("z"))
	assert.ElementsMatch(t, []string{"a", "b"}, pq.Keys())

	pq.TryGet()
	assert.False(t, pq.Contains("a"))
}

func TestGetBlocksUntilPut(t *testing.T) {
	pq := NewPriorityQueue[string]()

	done := make(chan string, 1)
	go func() {
		v, ok := pq.Get(context.Background())
		if ok {
			done <- v
		}
	}()

	time.Sleep(20 * time.Millisecond)
	pq.Put("k", "value", 1)

	select {
	case v := <-done:
		assert.Equal(t, "value", v)
	case <-time.After(time.Second):
		t.Fatal("Get did not wake up")
	}
}

func TestGetCancelled(t *testing.T) {
	pq := NewPriorityQueue[string]()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, ok := pq.Get(ctx)
	assert.False(t, ok)
}
