package interfaces

import (
	"context"
	"time"

	"lottoledger/domain/entities"
	"lottoledger/domain/events"

	"github.com/shopspring/decimal"
)

// RoundRepository defines the interface for round record access
type RoundRepository interface {
	// Create inserts a new round and fills in its ID and timestamps
	Create(ctx context.Context, round *entities.Round) error

	// GetByID retrieves a round by ID, returning nil when it does not exist
	GetByID(ctx context.Context, id int64) (*entities.Round, error)

	// GetActive returns the round currently open for minting, if any
	GetActive(ctx context.Context) (*entities.Round, error)

	// GetLatest returns the most recently created round, if any
	GetLatest(ctx context.Context) (*entities.Round, error)

	// UpdatePhase moves a round from one phase to the next; fails if the stored phase is not from
	UpdatePhase(ctx context.Context, id int64, from, to entities.RoundPhase) error

	// UpdateMaxPlayers changes the player capacity of a round
	UpdateMaxPlayers(ctx context.Context, id int64, maxPlayers int64) error

	// List returns rounds newest first
	List(ctx context.Context, limit int) ([]*entities.Round, error)

	// GetExpiredActive returns open rounds whose end time is at or before now
	GetExpiredActive(ctx context.Context, now time.Time) ([]*entities.Round, error)
}

// ParticipantRepository defines the interface for the per-round ticket ledger
type ParticipantRepository interface {
	// Get returns an address's participant record for a round, or nil
	Get(ctx context.Context, roundID int64, address entities.Address) (*entities.Participant, error)

	// GetByOrdinal returns the participant at a first-participation position, or nil
	GetByOrdinal(ctx context.Context, roundID int64, ordinal int64) (*entities.Participant, error)

	// ListByRound returns all participants of a round in first-participation order
	ListByRound(ctx context.Context, roundID int64) ([]*entities.Participant, error)

	// Append adds a new participant at the end of the ordered list, assigning its ordinal
	Append(ctx context.Context, participant *entities.Participant) error

	// AddTickets increases an existing participant's ticket count and returns the new count
	AddTickets(ctx context.Context, roundID int64, address entities.Address, tickets int64) (int64, error)

	// CountByRound returns the number of participants in a round
	CountByRound(ctx context.Context, roundID int64) (int64, error)

	// TotalTickets returns the sum of ticket counts in a round
	TotalTickets(ctx context.Context, roundID int64) (int64, error)
}

// DrawRepository defines the interface for winning ticket storage
type DrawRepository interface {
	// Create stores the sampled winning index of a round
	Create(ctx context.Context, ticket *entities.WinningTicket) error

	// GetByRound returns the winning ticket of a round, or nil before the draw
	GetByRound(ctx context.Context, roundID int64) (*entities.WinningTicket, error)

	// SetWinner records the resolved owner of the winning index
	SetWinner(ctx context.Context, roundID int64, winner entities.Address, resolvedAt time.Time) error
}

// WithdrawalRepository defines the interface for the pending withdrawal ledger
type WithdrawalRepository interface {
	// Get returns the entry for (round, address), or nil when nothing was ever credited
	Get(ctx context.Context, roundID int64, address entities.Address) (*entities.PendingWithdrawal, error)

	// Credit adds amount to the entry for (round, address), creating it if needed
	Credit(ctx context.Context, roundID int64, address entities.Address, amount decimal.Decimal) error

	// Zero sets the entry for (round, address) to zero and stamps the withdrawal time
	Zero(ctx context.Context, roundID int64, address entities.Address, withdrawnAt time.Time) error

	// ListPendingByAddress returns all non-zero entries of an address, newest round first
	ListPendingByAddress(ctx context.Context, address entities.Address) ([]*entities.PendingWithdrawal, error)
}

// PayoutRepository defines the interface for payout receipts
type PayoutRepository interface {
	// Record stores a payout receipt and fills in its ID
	Record(ctx context.Context, payout *entities.Payout) error

	// ListByRound returns all payouts made for a round
	ListByRound(ctx context.Context, roundID int64) ([]*entities.Payout, error)
}

// EventPublisher defines the interface for emitting ledger records
type EventPublisher interface {
	Publish(event events.Event) error
}
