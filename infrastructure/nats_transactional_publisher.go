package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"lottoledger/domain/events"
	"lottoledger/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// NATSTransactionalPublisher holds events until flush, then publishes them in order.
// Records of a rolled back unit of work are discarded and never reach the bus.
type NATSTransactionalPublisher struct {
	realPublisher interfaces.EventPublisher
	pending       []events.Event
}

// NewNATSTransactionalPublisher creates a new transactional publisher
func NewNATSTransactionalPublisher(realPublisher interfaces.EventPublisher) *NATSTransactionalPublisher {
	return &NATSTransactionalPublisher{
		realPublisher: realPublisher,
		pending:       make([]events.Event, 0),
	}
}

// Publish stores an event in the pending queue without immediately publishing
func (p *NATSTransactionalPublisher) Publish(event events.Event) error {
	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"pendingCount": len(p.pending),
	}).Debug("Adding event to transactional publisher pending queue")

	p.pending = append(p.pending, event)
	return nil
}

// Flush publishes all pending events. Call only after the transaction committed.
// A failed event does not stop the rest; the failures come back joined. Cancelling
// ctx drops whatever has not been published yet.
func (p *NATSTransactionalPublisher) Flush(ctx context.Context) error {
	log.WithField("pendingEventCount", len(p.pending)).Debug("Flushing pending events")
	defer func() { p.pending = p.pending[:0] }()

	var errs []error
	for i, event := range p.pending {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("flush interrupted with %d events unpublished: %w", len(p.pending)-i, err))
			break
		}
		if err := p.realPublisher.Publish(event); err != nil {
			errs = append(errs, fmt.Errorf("failed to publish %s: %w", event.Type(), err))
		}
	}
	return errors.Join(errs...)
}

// Discard clears all pending events without publishing them.
// This should be called on database transaction rollback
func (p *NATSTransactionalPublisher) Discard() {
	log.WithField("discardedEventCount", len(p.pending)).Debug("Discarding pending events")

	p.pending = p.pending[:0]
}

// Pending returns the number of queued events
func (p *NATSTransactionalPublisher) Pending() int {
	return len(p.pending)
}
