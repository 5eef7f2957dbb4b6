package services

import (
	"context"
	"fmt"
	"time"

	"lottoledger/domain/entities"
	"lottoledger/domain/interfaces"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// payoutTransfer settles a withdrawal by writing a payout receipt inside the
// withdrawing unit of work. A failed write rolls back the zeroed ledger entry with it.
type payoutTransfer struct {
	payoutRepo interfaces.PayoutRepository
}

// NewPayoutTransfer creates the default prize transfer backed by the payout table
func NewPayoutTransfer(payoutRepo interfaces.PayoutRepository) interfaces.PrizeTransfer {
	return &payoutTransfer{payoutRepo: payoutRepo}
}

func (t *payoutTransfer) Transfer(ctx context.Context, roundID int64, to entities.Address, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return entities.NewLedgerError(entities.CodeInvalidWithdrawalAmount, "payout amount must be positive, got %s", amount)
	}

	payout := &entities.Payout{
		Reference: uuid.NewString(),
		RoundID:   roundID,
		Address:   to,
		Amount:    amount,
		PaidAt:    time.Now().UTC(),
	}
	if err := t.payoutRepo.Record(ctx, payout); err != nil {
		return fmt.Errorf("failed to record payout: %w", err)
	}

	log.WithFields(log.Fields{
		"roundID":   roundID,
		"address":   to,
		"amount":    amount.String(),
		"reference": payout.Reference,
	}).Debug("Payout recorded")
	return nil
}
