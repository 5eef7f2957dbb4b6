package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lottoledger/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WithdrawalRepository implements pending withdrawal data access
type WithdrawalRepository struct {
	q Queryable
}

// NewWithdrawalRepository creates a new withdrawal repository
func NewWithdrawalRepository(q Queryable) *WithdrawalRepository {
	return &WithdrawalRepository{q: q}
}

func scanPendingWithdrawal(row pgx.Row) (*entities.PendingWithdrawal, error) {
	var w entities.PendingWithdrawal
	err := row.Scan(&w.RoundID, &w.Address, &w.Amount, &w.CreditedAt, &w.WithdrawnAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Get returns the entry for (round, address)
func (r *WithdrawalRepository) Get(ctx context.Context, roundID int64, address entities.Address) (*entities.PendingWithdrawal, error) {
	query := `
		SELECT round_id, address, amount, credited_at, withdrawn_at
		FROM pending_withdrawals
		WHERE round_id = $1 AND address = $2
	`

	w, err := scanPendingWithdrawal(r.q.QueryRow(ctx, query, roundID, string(address)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending withdrawal: %w", err)
	}
	return w, nil
}

// Credit adds amount to the entry, creating it at zero first if needed
func (r *WithdrawalRepository) Credit(ctx context.Context, roundID int64, address entities.Address, amount decimal.Decimal) error {
	query := `
		INSERT INTO pending_withdrawals (round_id, address, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (round_id, address)
		DO UPDATE SET amount = pending_withdrawals.amount + EXCLUDED.amount, credited_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, roundID, string(address), amount); err != nil {
		return fmt.Errorf("failed to credit pending withdrawal: %w", err)
	}
	return nil
}

// Zero clears the entry and stamps when it was withdrawn
func (r *WithdrawalRepository) Zero(ctx context.Context, roundID int64, address entities.Address, withdrawnAt time.Time) error {
	query := `
		UPDATE pending_withdrawals
		SET amount = 0, withdrawn_at = $3
		WHERE round_id = $1 AND address = $2
	`

	tag, err := r.q.Exec(ctx, query, roundID, string(address), withdrawnAt)
	if err != nil {
		return fmt.Errorf("failed to zero pending withdrawal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no withdrawal entry for %s in round %d", address, roundID)
	}
	return nil
}

// ListPendingByAddress returns all unpaid entries of an address
func (r *WithdrawalRepository) ListPendingByAddress(ctx context.Context, address entities.Address) ([]*entities.PendingWithdrawal, error) {
	query := `
		SELECT round_id, address, amount, credited_at, withdrawn_at
		FROM pending_withdrawals
		WHERE address = $1 AND amount > 0
		ORDER BY round_id DESC
	`

	rows, err := r.q.Query(ctx, query, string(address))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending withdrawals: %w", err)
	}
	defer rows.Close()

	var pending []*entities.PendingWithdrawal
	for rows.Next() {
		w, err := scanPendingWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending withdrawal: %w", err)
		}
		pending = append(pending, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending withdrawals: %w", err)
	}
	return pending, nil
}
