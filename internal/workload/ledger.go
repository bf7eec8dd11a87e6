package workload

import (
	"sync"

	"github.com/google/uuid"
	apperrors "github.com/jittakal/ringchan/internal/errors"
)

type itemState uint8

const (
	stateQueued itemState = iota + 1
	statePopped
	stateEvicted
)

// ledger tracks the fate of every item a run hands to the channel.
// An item leaves the queued state exactly once, by pop or by eviction.
type ledger struct {
	mu    sync.Mutex
	items map[uuid.UUID]itemState
}

func newLedger() *ledger {
	return &ledger{items: make(map[uuid.UUID]itemState)}
}

func (l *ledger) add(items ...Item) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, it := range items {
		l.items[it.ID] = stateQueued
	}
}

// forget removes items that never entered the channel.
func (l *ledger) forget(items []Item) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, it := range items {
		delete(l.items, it.ID)
	}
}

func (l *ledger) pop(it Item) error {
	return l.settle(it, statePopped)
}

func (l *ledger) evict(it Item) error {
	return l.settle(it, stateEvicted)
}

func (l *ledger) settle(it Item, to itemState) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.items[it.ID] {
	case stateQueued:
		l.items[it.ID] = to
		return nil
	case statePopped, stateEvicted:
		return &apperrors.DeliveryError{Producer: it.Producer, Seq: it.Seq, Err: apperrors.ErrDuplicateDelivery}
	default:
		return &apperrors.DeliveryError{Producer: it.Producer, Seq: it.Seq, Err: apperrors.ErrUnknownDelivery}
	}
}

// queued returns how many items are still in the channel as far as the ledger knows.
func (l *ledger) queued() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, s := range l.items {
		if s == stateQueued {
			n++
		}
	}
	return n
}
