package buffer

import (
	"iter"

	"github.com/jittakal/ringchan/pkg/buffer"
)

var _ buffer.Channel[int] = (*Instrumented[int])(nil)

// Pop outcomes.
const (
	PopHit  = "hit"
	PopMiss = "miss"
)

// Batch element outcomes.
const (
	BatchWritten   = "written"
	BatchTruncated = "truncated"
)

// MetricsCollector defines metrics operations for a ring channel.
type MetricsCollector interface {
	IncPush(channel string)
	IncEvictions(channel string)
	IncPop(channel string, result string)
	AddBatchElements(channel string, outcome string, n int)
	SetOccupancy(channel string, count int)
	SetCapacity(channel string, capacity int)
}

// Instrumented decorates a Channel with metrics. It adds no locking of its
// own, so the occupancy gauge is sampled after each mutation rather than
// inside it.
type Instrumented[T any] struct {
	inner   buffer.Channel[T]
	name    string
	metrics MetricsCollector
}

// NewInstrumented wraps inner, reporting under the given channel name.
func NewInstrumented[T any](inner buffer.Channel[T], name string, metrics MetricsCollector) *Instrumented[T] {
	metrics.SetCapacity(name, inner.Capacity())
	metrics.SetOccupancy(name, inner.Count())
	return &Instrumented[T]{inner: inner, name: name, metrics: metrics}
}

func (c *Instrumented[T]) Push(v T) (T, bool) {
	evicted, ok := c.inner.Push(v)
	c.metrics.IncPush(c.name)
	if ok {
		c.metrics.IncEvictions(c.name)
	}
	c.sample()
	return evicted, ok
}

func (c *Instrumented[T]) PushBatch(vs []T) int {
	n := c.inner.PushBatch(vs)
	c.metrics.AddBatchElements(c.name, BatchWritten, n)
	if dropped := len(vs) - n; dropped > 0 {
		c.metrics.AddBatchElements(c.name, BatchTruncated, dropped)
	}
	c.sample()
	return n
}

func (c *Instrumented[T]) Pop() (T, bool) {
	v, ok := c.inner.Pop()
	if ok {
		c.metrics.IncPop(c.name, PopHit)
		c.sample()
	} else {
		c.metrics.IncPop(c.name, PopMiss)
	}
	return v, ok
}

func (c *Instrumented[T]) Clear() {
	c.inner.Clear()
	c.sample()
}

func (c *Instrumented[T]) Peek() (T, bool) { return c.inner.Peek() }
func (c *Instrumented[T]) At(i int) (T, bool) { return c.inner.At(i) }
func (c *Instrumented[T]) IsEmpty() bool { return c.inner.IsEmpty() }
func (c *Instrumented[T]) IsFull() bool { return c.inner.IsFull() }
func (c *Instrumented[T]) Count() int { return c.inner.Count() }
func (c *Instrumented[T]) Capacity() int { return c.inner.Capacity() }
func (c *Instrumented[T]) ToSlice() []T { return c.inner.ToSlice() }
func (c *Instrumented[T]) All() iter.Seq[T] { return c.inner.All() }

func (c *Instrumented[T]) sample() {
	c.metrics.SetOccupancy(c.name, c.inner.Count())
}
