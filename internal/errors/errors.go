// Package errors defines application-specific error types and sentinel errors.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	ErrInvalidCapacity   = errors.New("capacity must be greater than zero")
	ErrSourceClosed      = errors.New("source is closed")
	ErrPublisherClosed   = errors.New("overflow publisher is closed")
	ErrConnectionLost    = errors.New("connection lost")
	ErrDuplicateDelivery = errors.New("element delivered more than once")
	ErrUnknownDelivery   = errors.New("element was never pushed")
)

// CapacityError reports a rejected ring capacity.
type CapacityError struct {
	Capacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("invalid capacity %d: %v", e.Capacity, ErrInvalidCapacity)
}

func (e *CapacityError) Unwrap() error {
	return ErrInvalidCapacity
}

// PublishError represents a failure to forward an evicted message.
type PublishError struct {
	Topic string
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish error: topic=%s: %v", e.Topic, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the underlying failure is transient.
func (e *PublishError) IsRetryable() bool {
	return !errors.Is(e.Err, ErrPublisherClosed) && IsRetryable(e.Err)
}

// DeliveryError reports an element that broke the exactly-once contract of a channel.
type DeliveryError struct {
	Producer int
	Seq      uint64
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery error: producer=%d seq=%d: %v", e.Producer, e.Seq, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Retryable defines an interface for errors that can indicate if they are retryable.
type Retryable interface {
	error
	IsRetryable() bool
}

// IsRetryable checks if an error is retryable.
// It first checks if the error implements the Retryable interface,
// then falls back to checking sentinel errors.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var retryable Retryable
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}

	return errors.Is(err, ErrConnectionLost)
}
