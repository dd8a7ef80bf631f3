package dashboard

import "sync"

const defaultBufferSize = 1000

// RingBuffer is a fixed-size, thread-safe buffer that keeps the newest
// items and drops the oldest.
type RingBuffer[T any] struct {
	mu    sync.RWMutex
	items []T
	next  int // slot the next Add writes to
	full  bool
}

// NewRingBuffer creates a ring buffer with the given capacity.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		capacity = defaultBufferSize
	}
	return &RingBuffer[T]{items: make([]T, capacity)}
}

// Add inserts an item, overwriting the oldest if full.
func (rb *RingBuffer[T]) Add(item T) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.items[rb.next] = item
	rb.next = (rb.next + 1) % len(rb.items)
	if rb.next == 0 {
		rb.full = true
	}
}

// All returns every item, oldest first.
func (rb *RingBuffer[T]) All() []T {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if !rb.full {
		return append([]T(nil), rb.items[:rb.next]...)
	}
	out := make([]T, 0, len(rb.items))
	out = append(out, rb.items[rb.next:]...)
	return append(out, rb.items[:rb.next]...)
}

// Recent returns up to n of the newest items, newest first. n <= 0 means all.
func (rb *RingBuffer[T]) Recent(n int) []T {
	all := rb.All()
	if n <= 0 || n > len(all) {
		n = len(all)
	}
	out := make([]T, n)
	for i := range out {
		out[i] = all[len(all)-1-i]
	}
	return out
}

// Len returns the number of items held.
func (rb *RingBuffer[T]) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	if rb.full {
		return len(rb.items)
	}
	return rb.next
}

// Cap returns the capacity.
func (rb *RingBuffer[T]) Cap() int {
	return len(rb.items)
}
