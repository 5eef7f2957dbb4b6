package infrastructure

import (
	"encoding/json"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// EventEnvelope wraps every record published to the message bus
type EventEnvelope struct {
	EventID       string                 `json:"event_id"`
	EventType     string                 `json:"event_type"`
	Timestamp     *timestamppb.Timestamp `json:"timestamp"`
	SourceService string                 `json:"source_service"`
	Payload       json.RawMessage        `json:"payload"`
}

// NewEventEnvelope stamps a payload with a fresh ID and the current time
func NewEventEnvelope(eventType string, payload []byte) *EventEnvelope {
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Timestamp:     timestamppb.Now(),
		SourceService: "lottoledger",
		Payload:       payload,
	}
}
