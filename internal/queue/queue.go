package queue

import (
	"container/heap"
	"context"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// Item is a single item in the priority queue.
type Item[T any] struct {
	Key      string
	Value    T
	Priority int64
	index    int
	removed  bool
}

// itemHeap implements heap.Interface ordered by (Priority, Key).
// Lower priority values are served first; the key breaks ties so that
// dequeue order is deterministic.
type itemHeap[T any] []*Item[T]

func (h itemHeap[T]) Len() int {
	return len(h)
}

func (h itemHeap[T]) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	return h[i].Key < h[j].Key
}

func (h itemHeap[T]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *itemHeap[T]) Push(x any) {
	n := len(*h)
	item := x.(*Item[T])
	item.index = n
	*h = append(*h, item)
}

func (h *itemHeap[T]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	item.index = -1
	*h = old[0 : n-1]
	return item
}

// PriorityQueue is a thread-safe min-heap keyed by (priority, key) with
// key-level deduplication. A key can be enqueued at most once; ForcePut
// replaces the pending entry for a key.
type PriorityQueue[T any] struct {
	mu    sync.Mutex
	cond  *sync.Cond
	heap  itemHeap[T]
	keys  mapset.Set[string]
	items map[string]*Item[T]
}

func NewPriorityQueue[T any]() *PriorityQueue[T] {
	pq := &PriorityQueue[T]{
		heap:  make(itemHeap[T], 0),
		keys:  mapset.NewThreadUnsafeSet[string](),
		items: make(map[string]*Item[T]),
	}
	pq.cond = sync.NewCond(&pq.mu)
	heap.Init(&pq.heap)
	return pq
}

// Len returns the number of live entries in the queue.
func (pq *PriorityQueue[T]) Len() int {
	pq.mu.Lock()
	defer pq.mu.Unlock()
	return pq.keys.Cardinality()
}

// Contains reports whether a key is currently enqueued.
func (pq *PriorityQueue[T]) Contains(key string) bool {
	pq.mu.Lock()
	defer pq.mu.Unlock()
	return pq.keys.Contains(key)
}

// Keys returns a snapshot of the currently enqueued keys.
func (pq *PriorityQueue[T]) Keys() []string {
	pq.mu.Lock()
	defer pq.mu.Unlock()
	return pq.keys.ToSlice()
}

// Put enqueues a value under key. It is a no-op returning false if the key is
// already pending.
func (pq *PriorityQueue[T]) Put(key string, value T, priority int64) bool {
	pq.mu.Lock()
	defer pq.mu.Unlock()

	if pq.keys.Contains(key) {
		return false
	}

	pq.push(key, value, priority)
	pq.cond.Signal()
	return true
}

// ForcePut enqueues a value under key, replacing any pending entry for the
// same key.
func (pq *PriorityQueue[T]) ForcePut(key string, value T, priority int64) {
	pq.mu.Lock()
	defer pq.mu.Unlock()

	if prev, ok := pq.items[key]; ok {
		// lazy deletion, skipped on pop
		prev.removed = true
		pq.keys.Remove(key)
		delete(pq.items, key)
	}

	pq.push(key, value, priority)
	pq.cond.Signal()
}

// TryGet removes and returns the lowest-priority entry without blocking.
func (pq *PriorityQueue[T]) TryGet() (T, bool) {
	pq.mu.Lock()
	defer pq.mu.Unlock()
	return pq.pop()
}

// Get blocks until an entry is available or the context is cancelled.
func (pq *PriorityQueue[T]) Get(ctx context.Context) (T, bool) {
	stop := context.AfterFunc(ctx, func() {
		pq.cond.Broadcast()
	})
	defer stop()

	pq.mu.Lock()
	defer pq.mu.Unlock()

	for {
		if v, ok := pq.pop(); ok {
			return v, true
		}
		if ctx.Err() != nil {
			var zero T
			return zero, false
		}
		pq.cond.Wait()
	}
}

func (pq *PriorityQueue[T]) push(key string, value T, priority int64) {
	item := &Item[T]{
		Key:      key,
		Value:    value,
		Priority: priority,
	}
	heap.Push(&pq.heap, item)
	pq.keys.Add(key)
	pq.items[key] = item
}

func (pq *PriorityQueue[T]) pop() (T, bool) {
	for pq.heap.Len() > 0 {
		item := heap.Pop(&pq.heap).(*Item[T])
		if item.removed {
			continue
		}
		pq.keys.Remove(item.Key)
		delete(pq.items, item.Key)
		return item.Value, true
	}
	var zero T
	return zero, false
}
