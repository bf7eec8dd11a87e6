// Package ring implements a fixed-capacity ring buffer.
//
// A Store owns a slot array allocated once by New. Writes go to the write
// cursor and reads come from the read cursor, both advancing modulo the
// capacity. The cursors always satisfy
//
//	write == (read + Len()) % Cap()
//
// # Overwrite Policy
//
// Writing into a full store evicts the oldest element and hands it back to
// the caller:
//
//	s, _ := ring.New[int](2)
//	s.Write(1)
//	s.Write(2)
//	old, evicted := s.Write(3) // old == 1, evicted == true
//
// Reading or peeking an empty store is not an error. Both return the zero
// value with ok == false.
//
// # Snapshots
//
// ToSlice, Clone and All copy the live elements. All iterates over a clone
// taken when it is called, so the sequence is stable under later writes.
//
// Store is not safe for concurrent use. Wrap it in buffer.SerializedChannel
// to share it between goroutines.
package ring
