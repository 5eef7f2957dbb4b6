package services

import (
	"context"
	"fmt"
	"time"

	"lottoledger/domain/entities"
	"lottoledger/domain/events"
	"lottoledger/domain/interfaces"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// DefaultRoundHours is the round length used when a creator passes zero hours (one week)
const DefaultRoundHours = 168

// RoundDefaults are applied to zero-valued creation parameters
type RoundDefaults struct {
	DurationHours int64
	MinStake      decimal.Decimal
	MaxPlayers    int64
}

// roundRegistryService implements round lifecycle operations
type roundRegistryService struct {
	roundRepo      interfaces.RoundRepository
	eventPublisher interfaces.EventPublisher
	defaults       RoundDefaults
}

// NewRoundRegistryService creates a new round registry service
func NewRoundRegistryService(
	roundRepo interfaces.RoundRepository,
	eventPublisher interfaces.EventPublisher,
	defaults RoundDefaults,
) interfaces.RoundRegistryService {
	if defaults.DurationHours <= 0 {
		defaults.DurationHours = DefaultRoundHours
	}
	return &roundRegistryService{
		roundRepo:      roundRepo,
		eventPublisher: eventPublisher,
		defaults:       defaults,
	}
}

// CreateRound opens a new round when no other round is accepting mints
func (s *roundRegistryService) CreateRound(ctx context.Context, params interfaces.CreateRoundParams) (*entities.Round, error) {
	if params.DurationHours < 0 {
		return nil, entities.NewLedgerError(entities.CodeInvalidAmount, "duration hours must not be negative")
	}
	if params.MinStake.IsNegative() {
		return nil, entities.NewLedgerError(entities.CodeInvalidAmount, "minimum stake must not be negative")
	}
	if params.MaxPlayers < 0 {
		return nil, entities.NewLedgerError(entities.CodeInvalidCapacity, "max players must not be negative")
	}

	active, err := s.roundRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active round: %w", err)
	}
	if active != nil {
		return nil, entities.NewLedgerError(entities.CodeActiveRoundExists, "round %d is still open", active.ID)
	}

	hours := params.DurationHours
	if hours == 0 {
		hours = s.defaults.DurationHours
	}
	minStake := params.MinStake
	if minStake.IsZero() {
		minStake = s.defaults.MinStake
	}
	if !minStake.IsPositive() {
		return nil, entities.NewLedgerError(entities.CodeInvalidAmount, "minimum stake must be positive")
	}
	maxPlayers := params.MaxPlayers
	if maxPlayers == 0 {
		maxPlayers = s.defaults.MaxPlayers
	}
	if maxPlayers <= 0 {
		return nil, entities.NewLedgerError(entities.CodeInvalidCapacity, "max players must be positive")
	}

	start := params.StartTime.UTC()
	round := &entities.Round{
		Creator:    params.Creator,
		StartTime:  start,
		EndTime:    start.Add(time.Duration(hours) * time.Hour),
		Phase:      entities.RoundPhaseCreated,
		MinStake:   minStake,
		MaxPlayers: maxPlayers,
	}
	if err := s.roundRepo.Create(ctx, round); err != nil {
		return nil, fmt.Errorf("failed to create round: %w", err)
	}

	if err := s.eventPublisher.Publish(events.RoundCreatedEvent{
		RoundID:   round.ID,
		Creator:   round.Creator,
		StartTime: round.StartTime,
		EndTime:   round.EndTime,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish round created event: %w", err)
	}

	log.WithFields(log.Fields{
		"roundID":    round.ID,
		"creator":    round.Creator,
		"endTime":    round.EndTime,
		"minStake":   round.MinStake.String(),
		"maxPlayers": round.MaxPlayers,
	}).Debug("round created")

	return round, nil
}

// Deactivate closes minting. Calling it on a closed round changes nothing.
func (s *roundRegistryService) Deactivate(ctx context.Context, roundID int64) (*entities.Round, error) {
	round, err := s.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if !round.IsActive() {
		return round, nil
	}

	if err := s.transition(ctx, round, entities.RoundPhaseInactive); err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.RoundDeactivatedEvent{RoundID: round.ID}); err != nil {
		return nil, fmt.Errorf("failed to publish round deactivated event: %w", err)
	}

	log.WithFields(log.Fields{
		"roundID":      round.ID,
		"totalTickets": round.TotalTickets,
		"players":      round.NumActivePlayers,
	}).Debug("round deactivated")

	return round, nil
}

// Cancel voids an open round with no minted tickets
func (s *roundRegistryService) Cancel(ctx context.Context, roundID int64) (*entities.Round, error) {
	round, err := s.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if !round.IsActive() {
		return nil, entities.NewLedgerError(entities.CodeRoundNotCancelable, "round %d is %s", round.ID, round.Phase)
	}
	if round.TotalTickets > 0 {
		return nil, entities.NewLedgerError(entities.CodeRoundNotCancelable, "round %d has %d tickets", round.ID, round.TotalTickets)
	}

	if err := s.transition(ctx, round, entities.RoundPhaseCancelled); err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.RoundCancelledEvent{RoundID: round.ID}); err != nil {
		return nil, fmt.Errorf("failed to publish round cancelled event: %w", err)
	}

	log.WithField("roundID", round.ID).Debug("round cancelled")
	return round, nil
}

// SetCapacity changes the player cap. The cap cannot drop below the current player count.
func (s *roundRegistryService) SetCapacity(ctx context.Context, roundID int64, maxPlayers int64) (*entities.Round, error) {
	if maxPlayers <= 0 {
		return nil, entities.NewLedgerError(entities.CodeInvalidCapacity, "max players must be positive, got %d", maxPlayers)
	}

	round, err := s.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if !round.IsActive() {
		return nil, entities.NewLedgerError(entities.CodeRoundNotActive, "round %d is %s", round.ID, round.Phase)
	}
	if maxPlayers < round.NumActivePlayers {
		return nil, entities.NewLedgerError(entities.CodeInvalidCapacity,
			"max players %d is below the %d players already in round %d", maxPlayers, round.NumActivePlayers, round.ID)
	}

	if err := s.roundRepo.UpdateMaxPlayers(ctx, round.ID, maxPlayers); err != nil {
		return nil, fmt.Errorf("failed to update max players: %w", err)
	}
	round.MaxPlayers = maxPlayers

	if err := s.eventPublisher.Publish(events.CapacityChangedEvent{
		RoundID:    round.ID,
		MaxPlayers: maxPlayers,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish capacity changed event: %w", err)
	}

	return round, nil
}

// GetRound returns a round by ID
func (s *roundRegistryService) GetRound(ctx context.Context, roundID int64) (*entities.Round, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		return nil, entities.NewLedgerError(entities.CodeRoundNotFound, "round %d not found", roundID)
	}
	return round, nil
}

// GetCurrentRound returns the latest round whatever its phase
func (s *roundRegistryService) GetCurrentRound(ctx context.Context) (*entities.Round, error) {
	round, err := s.roundRepo.GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest round: %w", err)
	}
	if round == nil {
		return nil, entities.NewLedgerError(entities.CodeRoundNotFound, "no round has been created")
	}
	return round, nil
}

// CurrentRoundID is 0 until the first round is created
func (s *roundRegistryService) CurrentRoundID(ctx context.Context) (int64, error) {
	round, err := s.roundRepo.GetLatest(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest round: %w", err)
	}
	if round == nil {
		return 0, nil
	}
	return round.ID, nil
}

// ListRounds returns up to limit rounds, newest first
func (s *roundRegistryService) ListRounds(ctx context.Context, limit int) ([]*entities.Round, error) {
	if limit <= 0 {
		limit = 20
	}
	rounds, err := s.roundRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	return rounds, nil
}

// ExpiredActiveRounds returns open rounds past their end time
func (s *roundRegistryService) ExpiredActiveRounds(ctx context.Context, now time.Time) ([]*entities.Round, error) {
	rounds, err := s.roundRepo.GetExpiredActive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired rounds: %w", err)
	}
	return rounds, nil
}

func (s *roundRegistryService) transition(ctx context.Context, round *entities.Round, next entities.RoundPhase) error {
	from := round.Phase
	if err := round.TransitionTo(next); err != nil {
		return err
	}
	if err := s.roundRepo.UpdatePhase(ctx, round.ID, from, next); err != nil {
		return fmt.Errorf("failed to update round phase: %w", err)
	}
	return nil
}
