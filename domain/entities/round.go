package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// RoundPhase is the lifecycle state of a round
type RoundPhase string

const (
	RoundPhaseCreated   RoundPhase = "created" // open for minting
	RoundPhaseInactive  RoundPhase = "inactive"
	RoundPhaseDrawn     RoundPhase = "drawn"
	RoundPhaseResolved  RoundPhase = "resolved"
	RoundPhaseDeposited RoundPhase = "deposited"
	RoundPhaseCompleted RoundPhase = "completed"
	RoundPhaseCancelled RoundPhase = "cancelled"
)

// roundTransitions lists the single legal successor(s) of each phase
var roundTransitions = map[RoundPhase][]RoundPhase{
	RoundPhaseCreated:   {RoundPhaseInactive, RoundPhaseCancelled},
	RoundPhaseInactive:  {RoundPhaseDrawn},
	RoundPhaseDrawn:     {RoundPhaseResolved},
	RoundPhaseResolved:  {RoundPhaseDeposited},
	RoundPhaseDeposited: {RoundPhaseCompleted},
}

// CanTransitionTo reports whether moving from p to next follows the state machine
func (p RoundPhase) CanTransitionTo(next RoundPhase) bool {
	for _, allowed := range roundTransitions[p] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Round is one instance of the lottery, from creation to cancellation or completed payout
type Round struct {
	ID         int64           `db:"id"`
	Creator    Address         `db:"creator"`
	StartTime  time.Time       `db:"start_time"`
	EndTime    time.Time       `db:"end_time"`
	Phase      RoundPhase      `db:"phase"`
	MinStake   decimal.Decimal `db:"min_stake"`
	MaxPlayers int64           `db:"max_players"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`

	// Derived from the ticket ledger on read
	TotalTickets     int64 `db:"total_tickets"`
	NumActivePlayers int64 `db:"num_active_players"`
}

// IsCreated is false only for a cancelled (void) round
func (r *Round) IsCreated() bool {
	return r.Phase != RoundPhaseCancelled
}

// IsActive returns true while the round accepts mints
func (r *Round) IsActive() bool {
	return r.Phase == RoundPhaseCreated
}

// IsCompleted returns true once the winner has withdrawn the prize
func (r *Round) IsCompleted() bool {
	return r.Phase == RoundPhaseCompleted
}

// PrizeAmount is totalTickets * minStake
func (r *Round) PrizeAmount() decimal.Decimal {
	return r.MinStake.Mul(decimal.NewFromInt(r.TotalTickets))
}

// HasExpired compares the recorded end time against a caller-supplied clock
func (r *Round) HasExpired(now time.Time) bool {
	return !now.Before(r.EndTime)
}

// TransitionTo moves the round to next, rejecting any arrow the state machine does not allow
func (r *Round) TransitionTo(next RoundPhase) error {
	if !r.Phase.CanTransitionTo(next) {
		return NewLedgerError(CodeInvalidRoundPhase, "round %d cannot move from %s to %s", r.ID, r.Phase, next)
	}
	r.Phase = next
	return nil
}
