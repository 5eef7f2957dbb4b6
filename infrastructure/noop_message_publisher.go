package infrastructure

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// NoopMessagePublisher drops every message. Used when no NATS servers are configured,
// so local event handlers still run.
type NoopMessagePublisher struct{}

// NewNoopMessagePublisher creates a new no-op message publisher
func NewNoopMessagePublisher() *NoopMessagePublisher {
	return &NoopMessagePublisher{}
}

// Publish does nothing with the message
func (n *NoopMessagePublisher) Publish(_ context.Context, subject string, data []byte) error {
	log.WithFields(log.Fields{
		"subject": subject,
		"size":    len(data),
	}).Debug("Message bus disabled, dropping message")
	return nil
}
