package event

import (
	"fmt"
	"time"
)

// Message is a Kafka record as it sits in the ring channel.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// PartitionID uniquely identifies a Kafka partition.
type PartitionID struct {
	Topic     string
	Partition int32
}

// String returns a string representation of the partition ID in the format "topic-partition".
func (p PartitionID) String() string {
	return fmt.Sprintf("%s-%d", p.Topic, p.Partition)
}

// PartitionID returns the partition the message was read from.
func (m Message) PartitionID() PartitionID {
	return PartitionID{Topic: m.Topic, Partition: m.Partition}
}

// Position returns "topic-partition@offset", used as a log and key field.
func (m Message) Position() string {
	return fmt.Sprintf("%s@%d", m.PartitionID(), m.Offset)
}

// Size returns the key plus value length in bytes.
func (m Message) Size() int {
	return len(m.Key) + len(m.Value)
}

// Header returns the named header and whether it was present.
func (m Message) Header(key string) (string, bool) {
	v, ok := m.Headers[key]
	return v, ok
}
