package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"lottoledger/domain/events"

	log "github.com/sirupsen/logrus"
)

// PublishMetrics counts published records
type PublishMetrics interface {
	RecordNATSMessagePublished(eventType string)
}

// LocalHandler reacts to a committed record inside this process
type LocalHandler func(context.Context, events.Event) error

// NATSEventPublisher implements the EventPublisher interface using NATS
type NATSEventPublisher struct {
	bus           MessagePublisher
	subjectMapper *EventSubjectMapper
	metrics       PublishMetrics
	mu            sync.RWMutex
	localHandlers map[events.EventType][]LocalHandler
}

// NewNATSEventPublisher creates a new NATS event publisher. metrics may be nil.
func NewNATSEventPublisher(bus MessagePublisher, subjectMapper *EventSubjectMapper, metrics PublishMetrics) *NATSEventPublisher {
	return &NATSEventPublisher{
		bus:           bus,
		subjectMapper: subjectMapper,
		metrics:       metrics,
		localHandlers: make(map[events.EventType][]LocalHandler),
	}
}

// Publish publishes an event to NATS using the appropriate subject
func (p *NATSEventPublisher) Publish(event events.Event) error {
	ctx := context.Background()
	eventType := event.Type()

	// Local handlers run first; their errors never stop the NATS publish
	p.mu.RLock()
	handlers := p.localHandlers[eventType]
	p.mu.RUnlock()
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"eventType": eventType,
				"error":     err,
			}).Error("Local event handler failed")
		}
	}

	subject := p.subjectMapper.MapEventToSubject(event)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := NewEventEnvelope(string(eventType), payload)
	envelopeData, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	if err := p.bus.Publish(ctx, subject, envelopeData); err != nil {
		if strings.Contains(err.Error(), "no response from stream") {
			log.WithField("subject", subject).Warn("No JetStream stream bound to subject, record dropped")
			return nil
		}
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	if p.metrics != nil {
		p.metrics.RecordNATSMessagePublished(string(eventType))
	}

	log.WithFields(log.Fields{
		"eventType": eventType,
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Successfully published event to NATS")

	return nil
}

// RegisterLocalHandler registers a handler that will be invoked locally for events
// This allows handling events in the same process that publishes them
func (p *NATSEventPublisher) RegisterLocalHandler(eventType events.EventType, handler LocalHandler) {
	p.mu.Lock()
	p.localHandlers[eventType] = append(p.localHandlers[eventType], handler)
	count := len(p.localHandlers[eventType])
	p.mu.Unlock()

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": count,
	}).Info("Registered local event handler")
}
