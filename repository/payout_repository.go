package repository

import (
	"context"
	"fmt"

	"lottoledger/domain/entities"
)

// PayoutRepository implements payout receipt data access
type PayoutRepository struct {
	q Queryable
}

// NewPayoutRepository creates a new payout repository
func NewPayoutRepository(q Queryable) *PayoutRepository {
	return &PayoutRepository{q: q}
}

// Record stores a payout receipt
func (r *PayoutRepository) Record(ctx context.Context, payout *entities.Payout) error {
	query := `
		INSERT INTO payouts (reference, round_id, address, amount, paid_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		payout.Reference,
		payout.RoundID,
		string(payout.Address),
		payout.Amount,
		payout.PaidAt,
	).Scan(&payout.ID)
	if err != nil {
		return fmt.Errorf("failed to record payout: %w", err)
	}
	return nil
}

// ListByRound returns the payouts of a round in the order they were made
func (r *PayoutRepository) ListByRound(ctx context.Context, roundID int64) ([]*entities.Payout, error) {
	query := `
		SELECT id, reference::TEXT, round_id, address, amount, paid_at
		FROM payouts
		WHERE round_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	defer rows.Close()

	var payouts []*entities.Payout
	for rows.Next() {
		var p entities.Payout
		if err := rows.Scan(&p.ID, &p.Reference, &p.RoundID, &p.Address, &p.Amount, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("failed to scan payout: %w", err)
		}
		payouts = append(payouts, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payouts: %w", err)
	}
	return payouts, nil
}
