// Package event defines the message type carried through the ring channel.
//
// # Message
//
// Message is a consumed Kafka record detached from the client library:
//
//	msg := event.Message{
//	    Topic:     "orders",
//	    Partition: 3,
//	    Offset:    1042,
//	    Key:       []byte("order-17"),
//	    Value:     []byte(`{"total": 12}`),
//	    Timestamp: time.Now(),
//	}
//
// # Partition Identification
//
// PartitionID uniquely identifies a Kafka topic partition:
//
//	pid := msg.PartitionID()
//	key := pid.String() // "orders-3"
//
// Position adds the offset, which is how evicted messages are reported:
//
//	msg.Position() // "orders-3@1042"
package event
