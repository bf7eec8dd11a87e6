// Package buffer defines interfaces for bounded ring channels.
//
// A channel holds at most Capacity elements. Push never blocks: when the
// channel is full it evicts the oldest element and returns it. Pop and Peek
// never block either and report an empty channel with ok == false.
package buffer

import "iter"

// Channel is a bounded, overwrite-on-full FIFO.
// All implementations must be thread-safe.
type Channel[T any] interface {
	// Push appends v, returning the evicted element when the channel was full.
	Push(v T) (evicted T, ok bool)

	// PushBatch writes as many leading elements of vs as fit in the free
	// space and silently drops the rest. It never evicts. It returns the
	// number of elements written.
	PushBatch(vs []T) int

	// Pop removes and returns the oldest element.
	Pop() (v T, ok bool)

	// Peek returns the oldest element without removing it.
	Peek() (v T, ok bool)

	// At returns the element at FIFO position i (0 is the oldest).
	At(i int) (v T, ok bool)

	// Clear removes all elements.
	Clear()

	// IsEmpty returns true if the channel contains no elements.
	IsEmpty() bool

	// IsFull returns true if the next Push will evict.
	IsFull() bool

	// Count returns the number of elements currently held.
	Count() int

	// Capacity returns the fixed capacity.
	Capacity() int

	// ToSlice returns the elements oldest first.
	ToSlice() []T

	// All returns an iterator over a snapshot taken at call time.
	All() iter.Seq[T]
}
