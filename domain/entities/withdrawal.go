package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// PendingWithdrawal is an owed-but-unpaid balance keyed by (round, address)
type PendingWithdrawal struct {
	RoundID     int64           `db:"round_id"`
	Address     Address         `db:"address"`
	Amount      decimal.Decimal `db:"amount"`
	CreditedAt  time.Time       `db:"credited_at"`
	WithdrawnAt *time.Time      `db:"withdrawn_at"`
}

// Payout is the receipt of a completed value transfer to a winner
type Payout struct {
	ID        int64           `db:"id"`
	Reference string          `db:"reference"`
	RoundID   int64           `db:"round_id"`
	Address   Address         `db:"address"`
	Amount    decimal.Decimal `db:"amount"`
	PaidAt    time.Time       `db:"paid_at"`
}
