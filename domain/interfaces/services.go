package interfaces

import (
	"context"
	"time"

	"lottoledger/domain/entities"

	"github.com/shopspring/decimal"
)

// CreateRoundParams holds the inputs of a round creation
type CreateRoundParams struct {
	Creator       entities.Address
	StartTime     time.Time
	DurationHours int64
	MinStake      decimal.Decimal
	MaxPlayers    int64
}

// RoundRegistryService owns round records and their lifecycle flags
type RoundRegistryService interface {
	// CreateRound opens a new round; fails with ActiveRoundExists while another round is open
	CreateRound(ctx context.Context, params CreateRoundParams) (*entities.Round, error)

	// Deactivate closes minting on a round; a no-op if it is already closed
	Deactivate(ctx context.Context, roundID int64) (*entities.Round, error)

	// Cancel voids an open round that has not minted any ticket
	Cancel(ctx context.Context, roundID int64) (*entities.Round, error)

	// SetCapacity changes the player cap of an open round
	SetCapacity(ctx context.Context, roundID int64, maxPlayers int64) (*entities.Round, error)

	// GetRound returns a round by ID or RoundNotFound
	GetRound(ctx context.Context, roundID int64) (*entities.Round, error)

	// GetCurrentRound returns the most recently created round or RoundNotFound
	GetCurrentRound(ctx context.Context) (*entities.Round, error)

	// CurrentRoundID returns the ID of the most recently created round, or 0 before the first round
	CurrentRoundID(ctx context.Context) (int64, error)

	// ListRounds returns rounds newest first
	ListRounds(ctx context.Context, limit int) ([]*entities.Round, error)

	// ExpiredActiveRounds returns open rounds whose end time has passed at now
	ExpiredActiveRounds(ctx context.Context, now time.Time) ([]*entities.Round, error)
}

// MintResult is the outcome of a successful mint
type MintResult struct {
	Participant   *entities.Participant
	TicketsMinted int64
	TotalTickets  int64
}

// TicketLedgerService records participants' cumulative ticket counts
type TicketLedgerService interface {
	// Mint converts a stake into floor(stake / minStake) tickets for address
	Mint(ctx context.Context, roundID int64, address entities.Address, stake decimal.Decimal) (*MintResult, error)

	// TicketCount returns an address's ticket count in a round (zero when absent)
	TicketCount(ctx context.Context, roundID int64, address entities.Address) (int64, error)

	// IsActive reports whether an address holds tickets in a round
	IsActive(ctx context.Context, roundID int64, address entities.Address) (bool, error)

	// ParticipantAt returns the participant at a first-participation position
	ParticipantAt(ctx context.Context, roundID int64, ordinal int64) (*entities.Participant, error)

	// ActivePlayerCount returns the number of participants in a round
	ActivePlayerCount(ctx context.Context, roundID int64) (int64, error)

	// TotalTickets returns the number of tickets minted in a round
	TotalTickets(ctx context.Context, roundID int64) (int64, error)

	// Participants lists a round's participants in first-participation order
	Participants(ctx context.Context, roundID int64) ([]*entities.Participant, error)
}

// DrawEngineService partitions the ticket space, samples the winner and credits the prize
type DrawEngineService interface {
	// ComputeRanges returns the per-participant ranges of a closed round
	ComputeRanges(ctx context.Context, roundID int64) ([]entities.TicketRange, error)

	// RangeAt returns the range of the participant at a first-participation position
	RangeAt(ctx context.Context, roundID int64, ordinal int64) (entities.TicketRange, error)

	// TriggerDraw samples the winning index uniformly over the round's tickets
	TriggerDraw(ctx context.Context, roundID int64) (*entities.WinningTicket, error)

	// ResolveWinner maps the drawn index to the owning address
	ResolveWinner(ctx context.Context, roundID int64, winningIndex int64) (*entities.WinningTicket, error)

	// DepositPrize credits totalTickets * minStake to the winner's pending withdrawal
	DepositPrize(ctx context.Context, roundID int64) (*entities.PendingWithdrawal, error)

	// WinningTicket returns the draw outcome of a round, or nil before the draw
	WinningTicket(ctx context.Context, roundID int64) (*entities.WinningTicket, error)
}

// WithdrawalService pays out pending balances exactly once
type WithdrawalService interface {
	// Withdraw pays the caller's full pending balance for a round
	Withdraw(ctx context.Context, roundID int64, caller entities.Address) (decimal.Decimal, error)

	// PendingWithdrawal returns the amount owed to address for a round
	PendingWithdrawal(ctx context.Context, roundID int64, address entities.Address) (decimal.Decimal, error)

	// PendingByAddress returns all unpaid balances of an address
	PendingByAddress(ctx context.Context, address entities.Address) ([]*entities.PendingWithdrawal, error)
}

// RandomSource supplies the entropy for draws
type RandomSource interface {
	// Int63n returns a uniformly distributed integer in [0, n)
	Int63n(ctx context.Context, n int64) (int64, error)
}

// PrizeTransfer moves value to a winner. It is invoked only after the ledger entry is zeroed.
type PrizeTransfer interface {
	Transfer(ctx context.Context, roundID int64, to entities.Address, amount decimal.Decimal) error
}
