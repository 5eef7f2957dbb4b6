package services

import (
	"context"
	"fmt"
	"math"

	"lottoledger/domain/entities"
	"lottoledger/domain/events"
	"lottoledger/domain/interfaces"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// ticketLedgerService implements minting and participant queries
type ticketLedgerService struct {
	roundRepo       interfaces.RoundRepository
	participantRepo interfaces.ParticipantRepository
	eventPublisher  interfaces.EventPublisher
}

// NewTicketLedgerService creates a new ticket ledger service
func NewTicketLedgerService(
	roundRepo interfaces.RoundRepository,
	participantRepo interfaces.ParticipantRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.TicketLedgerService {
	return &ticketLedgerService{
		roundRepo:       roundRepo,
		participantRepo: participantRepo,
		eventPublisher:  eventPublisher,
	}
}

// Mint converts stake into whole tickets. The remainder below one ticket's worth is kept by the pool.
func (s *ticketLedgerService) Mint(ctx context.Context, roundID int64, address entities.Address, stake decimal.Decimal) (*interfaces.MintResult, error) {
	if address.IsZero() {
		return nil, entities.NewLedgerError(entities.CodeInvalidAddress, "cannot mint for the zero address")
	}
	if stake.IsNegative() {
		return nil, entities.NewLedgerError(entities.CodeInvalidAmount, "stake must not be negative")
	}

	round, err := s.getRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if !round.IsActive() {
		return nil, entities.NewLedgerError(entities.CodeRoundNotActive, "round %d is %s", round.ID, round.Phase)
	}
	if stake.LessThan(round.MinStake) {
		return nil, entities.NewLedgerError(entities.CodeInadequateFunds,
			"stake %s is below the minimum %s", stake.String(), round.MinStake.String())
	}

	quotient, _ := stake.QuoRem(round.MinStake, 0)
	if !quotient.BigInt().IsInt64() {
		return nil, entities.NewLedgerError(entities.CodeInvalidAmount,
			"stake %s buys more tickets than a round can hold", stake.String())
	}
	tickets := quotient.IntPart()
	// a participant's count never exceeds the round total, so this bounds both
	if tickets > math.MaxInt64-round.TotalTickets {
		return nil, entities.NewLedgerError(entities.CodeInvalidAmount,
			"round %d cannot hold %d more tickets", round.ID, tickets)
	}

	participant, err := s.participantRepo.Get(ctx, round.ID, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}

	if participant == nil {
		if round.NumActivePlayers >= round.MaxPlayers {
			return nil, entities.NewLedgerError(entities.CodeCapacityExceeded,
				"round %d already has %d of %d players", round.ID, round.NumActivePlayers, round.MaxPlayers)
		}
		participant = &entities.Participant{
			RoundID:     round.ID,
			Address:     address,
			TicketCount: tickets,
		}
		if err := s.participantRepo.Append(ctx, participant); err != nil {
			return nil, fmt.Errorf("failed to add participant: %w", err)
		}
	} else {
		count, err := s.participantRepo.AddTickets(ctx, round.ID, address, tickets)
		if err != nil {
			return nil, fmt.Errorf("failed to add tickets: %w", err)
		}
		participant.TicketCount = count
	}

	total, err := s.participantRepo.TotalTickets(ctx, round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get total tickets: %w", err)
	}

	if err := s.eventPublisher.Publish(events.TicketsMintedEvent{
		RoundID:       round.ID,
		Player:        address,
		TicketsMinted: tickets,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish tickets minted event: %w", err)
	}

	log.WithFields(log.Fields{
		"roundID":      round.ID,
		"player":       address,
		"tickets":      tickets,
		"ticketCount":  participant.TicketCount,
		"totalTickets": total,
	}).Debug("tickets minted")

	return &interfaces.MintResult{
		Participant:   participant,
		TicketsMinted: tickets,
		TotalTickets:  total,
	}, nil
}

// TicketCount returns zero for addresses that never minted in the round
func (s *ticketLedgerService) TicketCount(ctx context.Context, roundID int64, address entities.Address) (int64, error) {
	participant, err := s.participantRepo.Get(ctx, roundID, address)
	if err != nil {
		return 0, fmt.Errorf("failed to get participant: %w", err)
	}
	if participant == nil {
		return 0, nil
	}
	return participant.TicketCount, nil
}

// IsActive reports whether address holds tickets in the round
func (s *ticketLedgerService) IsActive(ctx context.Context, roundID int64, address entities.Address) (bool, error) {
	count, err := s.TicketCount(ctx, roundID, address)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ParticipantAt returns the participant at ordinal in first-participation order
func (s *ticketLedgerService) ParticipantAt(ctx context.Context, roundID int64, ordinal int64) (*entities.Participant, error) {
	if ordinal < 0 {
		return nil, entities.NewLedgerError(entities.CodeInvalidTicketIndex, "ordinal %d is negative", ordinal)
	}
	participant, err := s.participantRepo.GetByOrdinal(ctx, roundID, ordinal)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant by ordinal: %w", err)
	}
	if participant == nil {
		return nil, entities.NewLedgerError(entities.CodeInvalidTicketIndex, "round %d has no participant at %d", roundID, ordinal)
	}
	return participant, nil
}

// ActivePlayerCount returns the length of the ordered participant list
func (s *ticketLedgerService) ActivePlayerCount(ctx context.Context, roundID int64) (int64, error) {
	count, err := s.participantRepo.CountByRound(ctx, roundID)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

// TotalTickets returns the ticket total of the round
func (s *ticketLedgerService) TotalTickets(ctx context.Context, roundID int64) (int64, error) {
	total, err := s.participantRepo.TotalTickets(ctx, roundID)
	if err != nil {
		return 0, fmt.Errorf("failed to get total tickets: %w", err)
	}
	return total, nil
}

// Participants lists a round's participants in first-participation order
func (s *ticketLedgerService) Participants(ctx context.Context, roundID int64) ([]*entities.Participant, error) {
	if _, err := s.getRound(ctx, roundID); err != nil {
		return nil, err
	}
	participants, err := s.participantRepo.ListByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return participants, nil
}

func (s *ticketLedgerService) getRound(ctx context.Context, roundID int64) (*entities.Round, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		return nil, entities.NewLedgerError(entities.CodeRoundNotFound, "round %d not found", roundID)
	}
	return round, nil
}
