package services

import (
	"context"
	"fmt"
	"time"

	"lottoledger/domain/entities"
	"lottoledger/domain/events"
	"lottoledger/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// drawEngineService implements range computation, sampling, resolution and prize deposit
type drawEngineService struct {
	roundRepo       interfaces.RoundRepository
	participantRepo interfaces.ParticipantRepository
	drawRepo        interfaces.DrawRepository
	withdrawalRepo  interfaces.WithdrawalRepository
	random          interfaces.RandomSource
	eventPublisher  interfaces.EventPublisher
}

// NewDrawEngineService creates a new draw engine service
func NewDrawEngineService(
	roundRepo interfaces.RoundRepository,
	participantRepo interfaces.ParticipantRepository,
	drawRepo interfaces.DrawRepository,
	withdrawalRepo interfaces.WithdrawalRepository,
	random interfaces.RandomSource,
	eventPublisher interfaces.EventPublisher,
) interfaces.DrawEngineService {
	return &drawEngineService{
		roundRepo:       roundRepo,
		participantRepo: participantRepo,
		drawRepo:        drawRepo,
		withdrawalRepo:  withdrawalRepo,
		random:          random,
		eventPublisher:  eventPublisher,
	}
}

// ComputeRanges partitions [0, totalTickets) in first-participation order.
// Ranges are only meaningful once minting has stopped.
func (s *drawEngineService) ComputeRanges(ctx context.Context, roundID int64) ([]entities.TicketRange, error) {
	round, err := s.getRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.IsActive() {
		return nil, entities.NewLedgerError(entities.CodeMintingNotCompleted, "round %d is still open", round.ID)
	}
	return s.ranges(ctx, round.ID)
}

// RangeAt returns the range owned by the participant at ordinal
func (s *drawEngineService) RangeAt(ctx context.Context, roundID int64, ordinal int64) (entities.TicketRange, error) {
	ranges, err := s.ComputeRanges(ctx, roundID)
	if err != nil {
		return entities.TicketRange{}, err
	}
	for _, r := range ranges {
		if r.Ordinal == ordinal {
			return r, nil
		}
	}
	return entities.TicketRange{}, entities.NewLedgerError(entities.CodeInvalidTicketIndex,
		"round %d has no range at ordinal %d", roundID, ordinal)
}

// TriggerDraw samples the winning index. The round must be closed and hold at least one ticket.
func (s *drawEngineService) TriggerDraw(ctx context.Context, roundID int64) (*entities.WinningTicket, error) {
	round, err := s.getRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.IsActive() {
		return nil, entities.NewLedgerError(entities.CodeMintingNotCompleted, "round %d is still open", round.ID)
	}
	if round.Phase != entities.RoundPhaseInactive {
		return nil, entities.NewLedgerError(entities.CodeInvalidRoundPhase, "round %d is %s", round.ID, round.Phase)
	}
	if round.TotalTickets == 0 {
		return nil, entities.NewLedgerError(entities.CodeNoParticipants, "round %d has no tickets", round.ID)
	}

	index, err := s.random.Int63n(ctx, round.TotalTickets)
	if err != nil {
		return nil, fmt.Errorf("failed to sample winning index: %w", err)
	}
	if index < 0 || index >= round.TotalTickets {
		return nil, entities.NewLedgerError(entities.CodeInvalidTicketIndex,
			"random source returned %d outside [0, %d)", index, round.TotalTickets)
	}

	ticket := &entities.WinningTicket{
		RoundID:       round.ID,
		WinningIndex:  index,
		TotalTickets:  round.TotalTickets,
		WinnerAddress: entities.ZeroAddress,
		DrawnAt:       time.Now().UTC(),
	}
	if err := s.drawRepo.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to store winning ticket: %w", err)
	}

	if err := s.transition(ctx, round, entities.RoundPhaseDrawn); err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.DrawTriggeredEvent{
		RoundID:      round.ID,
		WinningIndex: index,
		TotalTickets: round.TotalTickets,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish draw triggered event: %w", err)
	}

	log.WithFields(log.Fields{
		"roundID":      round.ID,
		"winningIndex": index,
		"totalTickets": round.TotalTickets,
	}).Debug("draw triggered")

	return ticket, nil
}

// ResolveWinner maps the drawn index to its owner. winningIndex must equal the stored draw.
func (s *drawEngineService) ResolveWinner(ctx context.Context, roundID int64, winningIndex int64) (*entities.WinningTicket, error) {
	round, err := s.getRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.Phase != entities.RoundPhaseDrawn {
		return nil, entities.NewLedgerError(entities.CodeInvalidRoundPhase, "round %d is %s", round.ID, round.Phase)
	}

	ticket, err := s.drawRepo.GetByRound(ctx, round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get winning ticket: %w", err)
	}
	if ticket == nil {
		return nil, entities.NewLedgerError(entities.CodeInvalidRoundPhase, "round %d has no draw", round.ID)
	}
	if winningIndex != ticket.WinningIndex {
		return nil, entities.NewLedgerError(entities.CodeInvalidTicketIndex,
			"index %d does not match the drawn index %d", winningIndex, ticket.WinningIndex)
	}

	ranges, err := s.ranges(ctx, round.ID)
	if err != nil {
		return nil, err
	}
	owner, err := entities.FindTicketRange(ranges, winningIndex)
	if err != nil {
		log.WithFields(log.Fields{
			"roundID":      round.ID,
			"winningIndex": winningIndex,
			"ranges":       len(ranges),
		}).Error("winning index outside every ticket range")
		return nil, err
	}

	ticket.Resolve(owner.Address, time.Now().UTC())
	if err := s.drawRepo.SetWinner(ctx, round.ID, owner.Address, *ticket.ResolvedAt); err != nil {
		return nil, fmt.Errorf("failed to record winner: %w", err)
	}

	if err := s.transition(ctx, round, entities.RoundPhaseResolved); err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.WinnerResolvedEvent{
		RoundID:       round.ID,
		WinnerAddress: owner.Address,
		WinningIndex:  winningIndex,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish winner resolved event: %w", err)
	}

	log.WithFields(log.Fields{
		"roundID": round.ID,
		"winner":  owner.Address,
		"ordinal": owner.Ordinal,
	}).Debug("winner resolved")

	return ticket, nil
}

// DepositPrize credits the whole pool to the resolved winner
func (s *drawEngineService) DepositPrize(ctx context.Context, roundID int64) (*entities.PendingWithdrawal, error) {
	round, err := s.getRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.Phase != entities.RoundPhaseResolved {
		return nil, entities.NewLedgerError(entities.CodeInvalidRoundPhase, "round %d is %s", round.ID, round.Phase)
	}

	ticket, err := s.drawRepo.GetByRound(ctx, round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get winning ticket: %w", err)
	}
	if ticket == nil || !ticket.IsResolved() {
		return nil, entities.NewLedgerError(entities.CodeInvalidRoundPhase, "round %d has no resolved winner", round.ID)
	}

	prize := round.PrizeAmount()
	if err := s.withdrawalRepo.Credit(ctx, round.ID, ticket.WinnerAddress, prize); err != nil {
		return nil, fmt.Errorf("failed to credit prize: %w", err)
	}

	if err := s.transition(ctx, round, entities.RoundPhaseDeposited); err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.PrizeDepositedEvent{
		RoundID:         round.ID,
		WinnerAddress:   ticket.WinnerAddress,
		AmountDeposited: prize,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish prize deposited event: %w", err)
	}

	log.WithFields(log.Fields{
		"roundID": round.ID,
		"winner":  ticket.WinnerAddress,
		"amount":  prize.String(),
	}).Debug("prize deposited")

	pending, err := s.withdrawalRepo.Get(ctx, round.ID, ticket.WinnerAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending withdrawal: %w", err)
	}
	return pending, nil
}

// WinningTicket returns nil until the round has been drawn
func (s *drawEngineService) WinningTicket(ctx context.Context, roundID int64) (*entities.WinningTicket, error) {
	if _, err := s.getRound(ctx, roundID); err != nil {
		return nil, err
	}
	ticket, err := s.drawRepo.GetByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get winning ticket: %w", err)
	}
	return ticket, nil
}

func (s *drawEngineService) ranges(ctx context.Context, roundID int64) ([]entities.TicketRange, error) {
	participants, err := s.participantRepo.ListByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return entities.ComputeTicketRanges(participants), nil
}

func (s *drawEngineService) getRound(ctx context.Context, roundID int64) (*entities.Round, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		return nil, entities.NewLedgerError(entities.CodeRoundNotFound, "round %d not found", roundID)
	}
	return round, nil
}

func (s *drawEngineService) transition(ctx context.Context, round *entities.Round, next entities.RoundPhase) error {
	from := round.Phase
	if err := round.TransitionTo(next); err != nil {
		return err
	}
	if err := s.roundRepo.UpdatePhase(ctx, round.ID, from, next); err != nil {
		return fmt.Errorf("failed to update round phase: %w", err)
	}
	return nil
}
