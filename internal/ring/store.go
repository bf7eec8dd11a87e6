package ring

import (
	"iter"

	"github.com/jittakal/ringchan/internal/errors"
)

// slot holds one element. ok is false for an empty slot, in which case val
// is the zero value and pins nothing.
type slot[T any] struct {
	val T
	ok  bool
}

// Store is a fixed-capacity FIFO ring that overwrites its oldest element
// when full. It is not safe for concurrent use; see buffer.SerializedChannel.
type Store[T any] struct {
	slots []slot[T]
	read  int // next slot to read
	write int // next slot to write
	count int
}

// New creates a store with room for capacity elements.
func New[T any](capacity int) (*Store[T], error) {
	if capacity <= 0 {
		return nil, &errors.CapacityError{Capacity: capacity}
	}
	return &Store[T]{slots: make([]slot[T], capacity)}, nil
}

// Cap returns the fixed capacity.
func (s *Store[T]) Cap() int {
	return len(s.slots)
}

// Len returns the number of live elements.
func (s *Store[T]) Len() int {
	return s.count
}

// IsEmpty reports whether the store holds no elements.
func (s *Store[T]) IsEmpty() bool {
	return s.count == 0
}

// IsFull reports whether the next Write will evict.
func (s *Store[T]) IsFull() bool {
	return s.count == len(s.slots)
}

// Write appends v. When the store is full the oldest element is overwritten
// and returned with ok set; that return is the only signal of the loss.
func (s *Store[T]) Write(v T) (evicted T, ok bool) {
	prev := s.slots[s.write]
	s.slots[s.write] = slot[T]{val: v, ok: true}

	if s.IsFull() {
		s.read = s.next(s.read)
	} else {
		s.count++
	}
	s.write = s.next(s.write)

	return prev.val, prev.ok
}

// Read removes and returns the oldest element. An empty store returns
// ok == false and is left untouched.
func (s *Store[T]) Read() (v T, ok bool) {
	if s.IsEmpty() {
		return v, false
	}

	cur := s.slots[s.read]
	s.slots[s.read] = slot[T]{}
	s.read = s.next(s.read)
	s.count--

	return cur.val, true
}

// Peek returns the oldest element without removing it.
func (s *Store[T]) Peek() (v T, ok bool) {
	if s.IsEmpty() {
		return v, false
	}
	return s.slots[s.read].val, true
}

// At returns the element at FIFO position i, where 0 is the oldest.
func (s *Store[T]) At(i int) (v T, ok bool) {
	if i < 0 || i >= s.count {
		return v, false
	}
	return s.slots[(s.read+i)%len(s.slots)].val, true
}

// Clear drops every element and rewinds both cursors.
func (s *Store[T]) Clear() {
	clear(s.slots)
	s.read = 0
	s.write = 0
	s.count = 0
}

// ToSlice returns the live elements oldest first in a newly allocated slice.
func (s *Store[T]) ToSlice() []T {
	out := make([]T, 0, s.count)
	for i := range s.count {
		v, _ := s.At(i)
		out = append(out, v)
	}
	return out
}

// Clone returns an independent copy of the store.
func (s *Store[T]) Clone() *Store[T] {
	c := *s
	c.slots = make([]slot[T], len(s.slots))
	copy(c.slots, s.slots)
	return &c
}

// All returns an iterator over the elements present when All was called.
// Later writes to s are not observed, and the iterator may be ranged over
// any number of times.
func (s *Store[T]) All() iter.Seq[T] {
	return s.Clone().all
}

func (s *Store[T]) all(yield func(T) bool) {
	for i := range s.count {
		v, _ := s.At(i)
		if !yield(v) {
			return
		}
	}
}

func (s *Store[T]) next(i int) int {
	i++
	if i == len(s.slots) {
		return 0
	}
	return i
}
