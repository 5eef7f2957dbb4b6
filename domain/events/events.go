package events

import (
	"time"

	"lottoledger/domain/entities"

	"github.com/shopspring/decimal"
)

// EventType represents different types of records emitted by the ledger
type EventType string

const (
	EventTypeRoundCreated     EventType = "round_created"
	EventTypeCapacityChanged  EventType = "capacity_changed"
	EventTypeTicketsMinted    EventType = "tickets_minted"
	EventTypeRoundDeactivated EventType = "round_deactivated"
	EventTypeRoundCancelled   EventType = "round_cancelled"
	EventTypeDrawTriggered    EventType = "draw_triggered"
	EventTypeWinnerResolved   EventType = "winner_resolved"
	EventTypePrizeDeposited   EventType = "prize_deposited"
	EventTypeWithdrawalPaid   EventType = "withdrawal_paid"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// RoundCreatedEvent is emitted when a new round opens
type RoundCreatedEvent struct {
	RoundID   int64            `json:"round_id"`
	Creator   entities.Address `json:"creator"`
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time"`
}

func (e RoundCreatedEvent) Type() EventType {
	return EventTypeRoundCreated
}

// CapacityChangedEvent is emitted when the player cap of the open round changes
type CapacityChangedEvent struct {
	RoundID    int64 `json:"round_id"`
	MaxPlayers int64 `json:"max_players"`
}

func (e CapacityChangedEvent) Type() EventType {
	return EventTypeCapacityChanged
}

// TicketsMintedEvent is emitted for every successful mint
type TicketsMintedEvent struct {
	RoundID       int64            `json:"round_id"`
	Player        entities.Address `json:"player"`
	TicketsMinted int64            `json:"tickets_minted"`
}

func (e TicketsMintedEvent) Type() EventType {
	return EventTypeTicketsMinted
}

// RoundDeactivatedEvent is emitted when minting closes
type RoundDeactivatedEvent struct {
	RoundID int64 `json:"round_id"`
}

func (e RoundDeactivatedEvent) Type() EventType {
	return EventTypeRoundDeactivated
}

// RoundCancelledEvent is emitted when an unminted round is voided
type RoundCancelledEvent struct {
	RoundID int64 `json:"round_id"`
}

func (e RoundCancelledEvent) Type() EventType {
	return EventTypeRoundCancelled
}

// DrawTriggeredEvent is emitted once the winning index has been sampled
type DrawTriggeredEvent struct {
	RoundID      int64 `json:"round_id"`
	WinningIndex int64 `json:"winning_index"`
	TotalTickets int64 `json:"total_tickets"`
}

func (e DrawTriggeredEvent) Type() EventType {
	return EventTypeDrawTriggered
}

// WinnerResolvedEvent is emitted when the winning index is mapped to its owner
type WinnerResolvedEvent struct {
	RoundID       int64            `json:"round_id"`
	WinnerAddress entities.Address `json:"winner_address"`
	WinningIndex  int64            `json:"winning_index"`
}

func (e WinnerResolvedEvent) Type() EventType {
	return EventTypeWinnerResolved
}

// PrizeDepositedEvent is emitted when the pool is credited to the winner's pending balance
type PrizeDepositedEvent struct {
	RoundID         int64            `json:"round_id"`
	WinnerAddress   entities.Address `json:"winner_address"`
	AmountDeposited decimal.Decimal  `json:"amount_deposited"`
}

func (e PrizeDepositedEvent) Type() EventType {
	return EventTypePrizeDeposited
}

// WithdrawalPaidEvent is emitted after a pending balance has been paid out
type WithdrawalPaidEvent struct {
	RoundID          int64            `json:"round_id"`
	WinnerAddress    entities.Address `json:"winner_address"`
	WithdrawalAmount decimal.Decimal  `json:"withdrawal_amount"`
}

func (e WithdrawalPaidEvent) Type() EventType {
	return EventTypeWithdrawalPaid
}
