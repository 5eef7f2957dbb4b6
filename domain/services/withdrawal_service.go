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

// withdrawalService implements payout of pending balances
type withdrawalService struct {
	roundRepo      interfaces.RoundRepository
	withdrawalRepo interfaces.WithdrawalRepository
	transfer       interfaces.PrizeTransfer
	eventPublisher interfaces.EventPublisher
}

// NewWithdrawalService creates a new withdrawal service
func NewWithdrawalService(
	roundRepo interfaces.RoundRepository,
	withdrawalRepo interfaces.WithdrawalRepository,
	transfer interfaces.PrizeTransfer,
	eventPublisher interfaces.EventPublisher,
) interfaces.WithdrawalService {
	return &withdrawalService{
		roundRepo:      roundRepo,
		withdrawalRepo: withdrawalRepo,
		transfer:       transfer,
		eventPublisher: eventPublisher,
	}
}

// Withdraw pays the caller's whole balance for the round. The ledger entry is zeroed
// before the transfer runs, so a transfer that re-enters Withdraw sees nothing owed.
func (s *withdrawalService) Withdraw(ctx context.Context, roundID int64, caller entities.Address) (decimal.Decimal, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		return decimal.Zero, entities.NewLedgerError(entities.CodeRoundNotFound, "round %d not found", roundID)
	}

	pending, err := s.withdrawalRepo.Get(ctx, roundID, caller)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get pending withdrawal: %w", err)
	}
	if pending == nil || !pending.Amount.IsPositive() {
		return decimal.Zero, entities.NewLedgerError(entities.CodeInvalidWithdrawalAmount,
			"%s has nothing to withdraw in round %d", caller, roundID)
	}
	amount := pending.Amount

	// effects before interaction
	if err := s.withdrawalRepo.Zero(ctx, roundID, caller, time.Now().UTC()); err != nil {
		return decimal.Zero, fmt.Errorf("failed to zero pending withdrawal: %w", err)
	}

	if err := s.transfer.Transfer(ctx, roundID, caller, amount); err != nil {
		return decimal.Zero, fmt.Errorf("failed to transfer prize: %w", err)
	}

	if err := s.eventPublisher.Publish(events.WithdrawalPaidEvent{
		RoundID:          roundID,
		WinnerAddress:    caller,
		WithdrawalAmount: amount,
	}); err != nil {
		return decimal.Zero, fmt.Errorf("failed to publish withdrawal paid event: %w", err)
	}

	if round.Phase == entities.RoundPhaseDeposited {
		if err := round.TransitionTo(entities.RoundPhaseCompleted); err != nil {
			return decimal.Zero, err
		}
		if err := s.roundRepo.UpdatePhase(ctx, round.ID, entities.RoundPhaseDeposited, entities.RoundPhaseCompleted); err != nil {
			return decimal.Zero, fmt.Errorf("failed to complete round: %w", err)
		}
	}

	log.WithFields(log.Fields{
		"roundID": roundID,
		"winner":  caller,
		"amount":  amount.String(),
	}).Debug("withdrawal paid")

	return amount, nil
}

// PendingWithdrawal returns zero when nothing is owed
func (s *withdrawalService) PendingWithdrawal(ctx context.Context, roundID int64, address entities.Address) (decimal.Decimal, error) {
	pending, err := s.withdrawalRepo.Get(ctx, roundID, address)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get pending withdrawal: %w", err)
	}
	if pending == nil {
		return decimal.Zero, nil
	}
	return pending.Amount, nil
}

// PendingByAddress lists unpaid balances across rounds
func (s *withdrawalService) PendingByAddress(ctx context.Context, address entities.Address) ([]*entities.PendingWithdrawal, error) {
	pending, err := s.withdrawalRepo.ListPendingByAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending withdrawals: %w", err)
	}
	return pending, nil
}
