// Package consumer defines interfaces for feeding Kafka messages into a ring channel.
package consumer

import (
	"context"

	"github.com/jittakal/ringchan/pkg/event"
)

// Source consumes topics and pushes every message into a ring channel.
type Source interface {
	// Run blocks until ctx is cancelled or the consumer group fails.
	Run(ctx context.Context, topics []string) error

	// Close closes the source and releases resources.
	Close() error
}

// OverflowPublisher receives messages evicted from a full ring channel.
type OverflowPublisher interface {
	// Publish forwards an evicted message with the reason it was dropped.
	Publish(ctx context.Context, msg event.Message, reason string) error

	// Close closes the publisher and releases resources.
	Close() error
}
