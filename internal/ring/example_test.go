package ring_test

import (
	"fmt"

	"github.com/jittakal/ringchan/internal/ring"
)

func Example_overwrite() {
	s, err := ring.New[int](2)
	if err != nil {
		fmt.Println("Error creating store:", err)
		return
	}

	s.Write(1)
	s.Write(2)
	if old, evicted := s.Write(3); evicted {
		fmt.Printf("Evicted: %d\n", old)
	}

	v, _ := s.Read()
	fmt.Printf("Read: %d\n", v)
	fmt.Printf("Remaining: %v\n", s.ToSlice())

	// Output:
	// Evicted: 1
	// Read: 2
	// Remaining: [3]
}

func Example_snapshotIterator() {
	s, _ := ring.New[string](3)
	s.Write("a")
	s.Write("b")

	seq := s.All()
	s.Write("c")

	for v := range seq {
		fmt.Println(v)
	}

	// Output:
	// a
	// b
}
