// Package buffer provides thread-safe ring channels.
//
// This package serializes access to a ring.Store so that a single bounded,
// overwrite-on-full FIFO can be shared by many producers and consumers.
//
// # SerializedChannel
//
// SerializedChannel guards one store with one mutex:
//
//	ch, err := buffer.New[Item](1024)
//	if err != nil {
//	    // capacity <= 0
//	}
//
//	// Producers never block. A full channel evicts its oldest element.
//	if old, evicted := ch.Push(item); evicted {
//	    handleLoss(old)
//	}
//
//	// Consumers never block either. Polling is up to the caller.
//	if item, ok := ch.Pop(); ok {
//	    process(item)
//	}
//
// # Batches
//
// PushBatch only fills free space. It writes the leading elements that fit
// and drops the rest, leaving buffered elements untouched:
//
//	n := ch.PushBatch(items)
//	if n < len(items) {
//	    // items[n:] were dropped
//	}
//
// This differs from Push on purpose: a single Push makes room by eviction,
// a batch does not.
//
// # Thread Safety
//
// Every operation, including Count, Peek and ToSlice, takes the same
// sync.Mutex. No two operations on a channel run at the same time and none
// is observed half-done. All copies the buffered elements under the lock
// and iterates the copy without it.
//
// # Metrics
//
// Instrumented decorates any buffer.Channel and reports pushes, evictions,
// pop hits and misses, batch truncation and occupancy through a
// MetricsCollector:
//
//	ch := buffer.NewInstrumented[Item](inner, "ingest", metrics)
package buffer
