package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"lottoledger/domain/entities"
	"lottoledger/domain/events"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNATSEventPublisher_PublishesEnvelope(t *testing.T) {
	t.Parallel()

	bus := &recordingBus{}
	metrics := &countingMetrics{}
	publisher := NewNATSEventPublisher(bus, NewEventSubjectMapper(), metrics)

	event := events.PrizeDepositedEvent{
		RoundID:         3,
		WinnerAddress:   entities.Address("0x00000000000000000000000000000000000000b0"),
		AmountDeposited: decimal.RequireFromString("1500000000000000000"),
	}
	require.NoError(t, publisher.Publish(event))

	require.Len(t, bus.messages, 1)
	assert.Equal(t, "lottery.prize.deposited", bus.subjects[0])

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(bus.messages[0], &envelope))
	assert.Equal(t, "prize_deposited", envelope.EventType)
	assert.Equal(t, "lottoledger", envelope.SourceService)
	_, err := uuid.Parse(envelope.EventID)
	assert.NoError(t, err)

	var payload events.PrizeDepositedEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, event.RoundID, payload.RoundID)
	assert.Equal(t, event.WinnerAddress, payload.WinnerAddress)
	assert.True(t, event.AmountDeposited.Equal(payload.AmountDeposited))

	assert.Equal(t, 1, metrics.published["prize_deposited"])
}

func TestNATSEventPublisher_LocalHandlers(t *testing.T) {
	t.Parallel()

	bus := &recordingBus{}
	publisher := NewNATSEventPublisher(bus, NewEventSubjectMapper(), nil)

	var received []events.Event
	publisher.RegisterLocalHandler(events.EventTypeWinnerResolved, func(_ context.Context, event events.Event) error {
		received = append(received, event)
		return nil
	})
	publisher.RegisterLocalHandler(events.EventTypeWinnerResolved, func(context.Context, events.Event) error {
		return errors.New("handler failed")
	})

	event := events.WinnerResolvedEvent{RoundID: 1, WinningIndex: 4}
	require.NoError(t, publisher.Publish(event))
	require.NoError(t, publisher.Publish(events.RoundCreatedEvent{RoundID: 2}))

	// a failing handler neither blocks the others nor the bus
	assert.Equal(t, []events.Event{event}, received)
	assert.Len(t, bus.messages, 2)
}

func TestNATSEventPublisher_BusErrors(t *testing.T) {
	t.Parallel()

	t.Run("failure is returned", func(t *testing.T) {
		t.Parallel()

		publisher := NewNATSEventPublisher(&recordingBus{err: errors.New("connection refused")}, NewEventSubjectMapper(), nil)
		err := publisher.Publish(events.RoundCreatedEvent{RoundID: 1})
		assert.ErrorContains(t, err, "failed to publish event to NATS")
	})

	t.Run("missing stream is tolerated", func(t *testing.T) {
		t.Parallel()

		publisher := NewNATSEventPublisher(&recordingBus{err: errors.New("nats: no response from stream")}, NewEventSubjectMapper(), nil)
		assert.NoError(t, publisher.Publish(events.RoundCreatedEvent{RoundID: 1}))
	})
}

func TestNoopMessagePublisher(t *testing.T) {
	t.Parallel()

	publisher := NewNATSEventPublisher(NewNoopMessagePublisher(), NewEventSubjectMapper(), nil)
	assert.NoError(t, publisher.Publish(events.RoundCancelledEvent{RoundID: 9}))
}
