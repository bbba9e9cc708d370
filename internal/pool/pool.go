// Package pool implements the fixed-capacity free-list used to hand audio
// buffers, MIDI buffers and MIDI IoVecs between threads without allocating
// on the real-time audio path.
package pool

import "sync"

// Pool is a fixed-capacity free-list of pre-allocated, reusable *T values.
// Acquire is O(1), never allocates, and never blocks: it returns false when
// the free-list is empty rather than waiting or growing. AcquireOrAlloc may
// allocate and is intended for use only during startup priming, before the
// audio stream is running.
type Pool[T any] struct {
	mu    sync.Mutex
	free  []*T
	alloc func() *T
	reset func(*T)
}

// New builds a Pool with capacity pre-allocated items, each built by alloc
// and returned to the free list. reset is called on every item returned via
// Release before it re-enters the free list.
func New[T any](capacity int, alloc func() *T, reset func(*T)) *Pool[T] {
	p := &Pool[T]{
		free:  make([]*T, 0, capacity),
		alloc: alloc,
		reset: reset,
	}
	for i := 0; i < capacity; i++ {
		p.free = append(p.free, alloc())
	}
	return p
}

// Acquire removes and returns one item from the free list, or (nil, false)
// if the pool is exhausted. It never allocates and never blocks.
func (p *Pool[T]) Acquire() (*T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.free)
	if n == 0 {
		return nil, false
	}
	item := p.free[n-1]
	p.free = p.free[:n-1]
	return item, true
}

// AcquireOrAlloc behaves like Acquire but falls back to allocating a fresh
// item (via the pool's alloc function) when the free list is exhausted.
// Callers must only use this during warm-up, never from the audio thread.
func (p *Pool[T]) AcquireOrAlloc() *T {
	if item, ok := p.Acquire(); ok {
		return item
	}
	return p.alloc()
}

// Release resets item and returns it to the free list. O(1).
func (p *Pool[T]) Release(item *T) {
	if p.reset != nil {
		p.reset(item)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, item)
}

// Len returns the number of items currently available in the free list.
func (p *Pool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}
