package infrastructure

import (
	"context"
	"errors"
	"sync"

	"lottoledger/domain/events"
)

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mu              sync.Mutex
	PublishedEvents []events.Event
	PublishError    error
	FailType        events.EventType // fails only this type when set
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishError != nil {
		return m.PublishError
	}
	if m.FailType != "" && event.Type() == m.FailType {
		return errors.New("publish rejected")
	}
	m.PublishedEvents = append(m.PublishedEvents, event)
	return nil
}

// recordingBus keeps every published message
type recordingBus struct {
	mu       sync.Mutex
	subjects []string
	messages [][]byte
	err      error
}

func (b *recordingBus) Publish(_ context.Context, subject string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.subjects = append(b.subjects, subject)
	b.messages = append(b.messages, data)
	return nil
}

// countingMetrics counts published records per type
type countingMetrics struct {
	published map[string]int
}

func (m *countingMetrics) RecordNATSMessagePublished(eventType string) {
	if m.published == nil {
		m.published = make(map[string]int)
	}
	m.published[eventType]++
}
