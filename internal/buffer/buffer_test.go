package buffer

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	apperrors "github.com/jittakal/ringchan/internal/errors"
)

func TestNew(t *testing.T) {
	ch, err := New[int](8)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if ch.Capacity() != 8 {
		t.Errorf("Capacity() = %d, want 8", ch.Capacity())
	}
	if !ch.IsEmpty() {
		t.Error("new channel should be empty")
	}

	for _, capacity := range []int{0, -5} {
		ch, err := New[int](capacity)
		if !errors.Is(err, apperrors.ErrInvalidCapacity) {
			t.Errorf("New(%d) error = %v, want ErrInvalidCapacity", capacity, err)
		}
		if ch != nil {
			t.Errorf("New(%d) returned non-nil channel", capacity)
		}
	}
}

// Scenario: capacity 2, the third push evicts the first.
func TestSerializedChannel_PushEvictsOldest(t *testing.T) {
	ch, _ := New[int](2)

	if _, ok := ch.Push(1); ok {
		t.Fatal("Push(1) should not evict")
	}
	if _, ok := ch.Push(2); ok {
		t.Fatal("Push(2) should not evict")
	}
	if old, ok := ch.Push(3); !ok || old != 1 {
		t.Fatalf("Push(3) = (%d, %v), want (1, true)", old, ok)
	}
	if v, ok := ch.Pop(); !ok || v != 2 {
		t.Fatalf("Pop() = (%d, %v), want (2, true)", v, ok)
	}
}

// Scenario: capacity 1 holds only the latest push.
func TestSerializedChannel_CapacityOne(t *testing.T) {
	ch, _ := New[int](1)

	if _, ok := ch.Push(1); ok {
		t.Fatal("Push(1) should not evict")
	}
	if old, ok := ch.Push(2); !ok || old != 1 {
		t.Fatalf("Push(2) = (%d, %v), want (1, true)", old, ok)
	}
	if v, ok := ch.Pop(); !ok || v != 2 {
		t.Fatalf("Pop() = (%d, %v), want (2, true)", v, ok)
	}
	if !ch.IsEmpty() {
		t.Error("channel should be empty")
	}
}

func TestSerializedChannel_PushBatch(t *testing.T) {
	tests := []struct {
		name      string
		capacity  int
		preload   []int
		batch     []int
		wantN     int
		wantItems []int
	}{
		{
			name:      "truncates to capacity",
			capacity:  3,
			batch:     []int{1, 2, 3, 4, 5},
			wantN:     3,
			wantItems: []int{1, 2, 3},
		},
		{
			name:      "fills only free space",
			capacity:  4,
			preload:   []int{10, 11},
			batch:     []int{1, 2, 3},
			wantN:     2,
			wantItems: []int{10, 11, 1, 2},
		},
		{
			name:      "full channel is unchanged",
			capacity:  2,
			preload:   []int{7, 8},
			batch:     []int{1, 2, 3, 4},
			wantN:     0,
			wantItems: []int{7, 8},
		},
		{
			name:      "fits entirely",
			capacity:  5,
			batch:     []int{1, 2},
			wantN:     2,
			wantItems: []int{1, 2},
		},
		{
			name:      "empty batch",
			capacity:  2,
			preload:   []int{1},
			batch:     nil,
			wantN:     0,
			wantItems: []int{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, _ := New[int](tt.capacity)
			for _, v := range tt.preload {
				ch.Push(v)
			}

			n := ch.PushBatch(tt.batch)
			if n != tt.wantN {
				t.Errorf("PushBatch() = %d, want %d", n, tt.wantN)
			}
			if got := ch.ToSlice(); !slices.Equal(got, tt.wantItems) {
				t.Errorf("ToSlice() = %v, want %v", got, tt.wantItems)
			}
		})
	}
}

func TestSerializedChannel_PushBatchMakesFull(t *testing.T) {
	ch, _ := New[int](3)
	ch.PushBatch([]int{1, 2, 3, 4, 5})

	if !ch.IsFull() {
		t.Error("channel should be full after oversized batch")
	}
	if got := ch.ToSlice(); !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("ToSlice() = %v, want [1 2 3]", got)
	}
}

func TestSerializedChannel_EmptyOperations(t *testing.T) {
	ch, _ := New[string](3)

	if v, ok := ch.Pop(); ok {
		t.Errorf("Pop() on empty = (%q, true)", v)
	}
	if v, ok := ch.Peek(); ok {
		t.Errorf("Peek() on empty = (%q, true)", v)
	}
	if ch.Count() != 0 {
		t.Errorf("Count() = %d, want 0", ch.Count())
	}
}

func TestSerializedChannel_PeekAtClear(t *testing.T) {
	ch, _ := New[int](3)
	ch.Push(4)
	ch.Push(5)

	for range 3 {
		if v, ok := ch.Peek(); !ok || v != 4 {
			t.Fatalf("Peek() = (%d, %v), want (4, true)", v, ok)
		}
	}
	if ch.Count() != 2 {
		t.Errorf("Count() = %d after Peek, want 2", ch.Count())
	}
	if v, ok := ch.At(1); !ok || v != 5 {
		t.Errorf("At(1) = (%d, %v), want (5, true)", v, ok)
	}
	if _, ok := ch.At(2); ok {
		t.Error("At(2) should be out of range")
	}

	ch.Clear()
	if !ch.IsEmpty() {
		t.Error("channel should be empty after Clear")
	}
}

func TestSerializedChannel_AllSnapshot(t *testing.T) {
	ch, _ := New[int](4)
	ch.PushBatch([]int{1, 2, 3})

	seq := ch.All()
	ch.Pop()
	ch.Push(9)

	if got := slices.Collect(seq); !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("All() = %v, want [1 2 3]", got)
	}
}

// TestSerializedChannel_ConcurrentPushPop checks that concurrent producers and
// consumers never observe an out-of-range count and that every pushed value
// ends up exactly once in popped, evicted or remaining.
func TestSerializedChannel_ConcurrentPushPop(t *testing.T) {
	const (
		capacity    = 64
		producers   = 8
		consumers   = 4
		perProducer = 5000
	)

	ch, _ := New[int](capacity)

	var (
		mu      sync.Mutex
		seen    = make(map[int]int, producers*perProducer)
		done    atomic.Bool
		wgProd  sync.WaitGroup
		wgCons  sync.WaitGroup
		wgWatch sync.WaitGroup
	)
	record := func(v int) {
		mu.Lock()
		seen[v]++
		mu.Unlock()
	}

	wgWatch.Add(1)
	go func() {
		defer wgWatch.Done()
		for !done.Load() {
			if n := ch.Count(); n < 0 || n > capacity {
				t.Errorf("Count() = %d, outside [0, %d]", n, capacity)
				return
			}
		}
	}()

	wgProd.Add(producers)
	for p := 0; p < producers; p++ {
		go func(p int) {
			defer wgProd.Done()
			start := p * perProducer
			for i := start; i < start+perProducer; i++ {
				if i%10 == 0 && ch.PushBatch([]int{i}) == 1 {
					continue
				}
				if old, ok := ch.Push(i); ok {
					record(old)
				}
			}
		}(p)
	}

	wgCons.Add(consumers)
	for c := 0; c < consumers; c++ {
		go func() {
			defer wgCons.Done()
			for {
				v, ok := ch.Pop()
				if ok {
					record(v)
					continue
				}
				if done.Load() {
					return
				}
			}
		}()
	}

	wgProd.Wait()
	done.Store(true)
	wgCons.Wait()
	wgWatch.Wait()

	for _, v := range ch.ToSlice() {
		record(v)
	}

	if len(seen) != producers*perProducer {
		t.Fatalf("accounted for %d distinct values, want %d", len(seen), producers*perProducer)
	}
	for v, n := range seen {
		if n != 1 {
			t.Fatalf("value %d accounted %d times, want 1", v, n)
		}
	}
}

func BenchmarkSerializedChannel_Push(b *testing.B) {
	ch, _ := New[int](1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ch.Push(i)
	}
}

func BenchmarkSerializedChannel_PushPop_Parallel(b *testing.B) {
	ch, _ := New[int](1024)
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if i%2 == 0 {
				ch.Push(i)
			} else {
				ch.Pop()
			}
			i++
		}
	})
}
