// Package buffer implements thread-safe ring channels.
package buffer

import (
	"iter"
	"sync"

	"github.com/jittakal/ringchan/internal/ring"
	"github.com/jittakal/ringchan/pkg/buffer"
)

// Ensure implementation satisfies interface at compile time.
var _ buffer.Channel[int] = (*SerializedChannel[int])(nil)

// SerializedChannel wraps a ring.Store so that every operation runs under a
// single mutex. Operations appear atomic to all callers and never overlap,
// including read-only ones.
type SerializedChannel[T any] struct {
	mu    sync.Mutex
	store *ring.Store[T]
}

// New creates a serialized channel with the given capacity.
func New[T any](capacity int) (*SerializedChannel[T], error) {
	store, err := ring.New[T](capacity)
	if err != nil {
		return nil, err
	}
	return &SerializedChannel[T]{store: store}, nil
}

// Push appends v, evicting and returning the oldest element if the channel
// is full.
func (c *SerializedChannel[T]) Push(v T) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Write(v)
}

// PushBatch fills the free space with the leading elements of vs as one
// atomic step. Elements that do not fit are dropped; existing elements are
// never evicted to make room.
func (c *SerializedChannel[T]) PushBatch(vs []T) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := min(len(vs), c.store.Cap()-c.store.Len())
	for _, v := range vs[:n] {
		c.store.Write(v)
	}
	return n
}

// Pop removes and returns the oldest element.
func (c *SerializedChannel[T]) Pop() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Read()
}

// Peek returns the oldest element without removing it.
func (c *SerializedChannel[T]) Peek() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Peek()
}

// At returns the element at FIFO position i.
func (c *SerializedChannel[T]) At(i int) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.At(i)
}

// Clear removes all elements.
func (c *SerializedChannel[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Clear()
}

// IsEmpty returns true if the channel is empty.
func (c *SerializedChannel[T]) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.IsEmpty()
}

// IsFull returns true if the channel is full.
func (c *SerializedChannel[T]) IsFull() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.IsFull()
}

// Count returns the number of buffered elements.
func (c *SerializedChannel[T]) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Len()
}

// Capacity returns the fixed capacity.
func (c *SerializedChannel[T]) Capacity() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Cap()
}

// ToSlice returns the buffered elements oldest first.
// The returned slice is owned by the caller.
func (c *SerializedChannel[T]) ToSlice() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.ToSlice()
}

// All returns an iterator over the elements buffered at call time. The copy
// is taken under the lock; iteration itself does not hold it.
func (c *SerializedChannel[T]) All() iter.Seq[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.All()
}
