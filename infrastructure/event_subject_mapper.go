package infrastructure

import (
	"fmt"

	"lottoledger/domain/events"
)

// subjectsByType maps every ledger record to its NATS subject
var subjectsByType = map[events.EventType]string{
	events.EventTypeRoundCreated:     "lottery.round.created",
	events.EventTypeCapacityChanged:  "lottery.round.capacity_changed",
	events.EventTypeRoundDeactivated: "lottery.round.deactivated",
	events.EventTypeRoundCancelled:   "lottery.round.cancelled",
	events.EventTypeTicketsMinted:    "lottery.tickets.minted",
	events.EventTypeDrawTriggered:    "lottery.draw.triggered",
	events.EventTypeWinnerResolved:   "lottery.draw.resolved",
	events.EventTypePrizeDeposited:   "lottery.prize.deposited",
	events.EventTypeWithdrawalPaid:   "lottery.withdrawal.paid",
}

// EventSubjectMapper handles mapping between ledger records and NATS subjects
type EventSubjectMapper struct {
	typesBySubject map[string]events.EventType
}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	typesBySubject := make(map[string]events.EventType, len(subjectsByType))
	for eventType, subject := range subjectsByType {
		typesBySubject[subject] = eventType
	}
	return &EventSubjectMapper{typesBySubject: typesBySubject}
}

// MapEventToSubject converts a ledger record to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := subjectsByType[event.Type()]; ok {
		return subject
	}
	// Fallback for unknown event types
	return fmt.Sprintf("lottery.unknown.%s", event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	if eventType, ok := m.typesBySubject[subject]; ok {
		return eventType
	}
	return events.EventType(subject)
}

// StreamSubjects returns the subject filter of the lottery event stream
func (m *EventSubjectMapper) StreamSubjects() []string {
	return []string{"lottery.>"}
}
