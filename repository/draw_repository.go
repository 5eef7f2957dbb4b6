package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lottoledger/domain/entities"

	"github.com/jackc/pgx/v5"
)

// DrawRepository implements winning ticket data access
type DrawRepository struct {
	q Queryable
}

// NewDrawRepository creates a new draw repository
func NewDrawRepository(q Queryable) *DrawRepository {
	return &DrawRepository{q: q}
}

// Create stores the sampled index of a round
func (r *DrawRepository) Create(ctx context.Context, ticket *entities.WinningTicket) error {
	query := `
		INSERT INTO round_draws (round_id, winning_index, total_tickets, winner_address, drawn_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	winner := ticket.WinnerAddress
	if winner == "" {
		winner = entities.ZeroAddress
	}

	_, err := r.q.Exec(ctx, query,
		ticket.RoundID,
		ticket.WinningIndex,
		ticket.TotalTickets,
		string(winner),
		ticket.DrawnAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create draw: %w", err)
	}
	return nil
}

// GetByRound returns the draw of a round, or nil before it is drawn
func (r *DrawRepository) GetByRound(ctx context.Context, roundID int64) (*entities.WinningTicket, error) {
	query := `
		SELECT round_id, winning_index, total_tickets, winner_address, drawn_at, resolved_at
		FROM round_draws
		WHERE round_id = $1
	`

	var ticket entities.WinningTicket
	err := r.q.QueryRow(ctx, query, roundID).Scan(
		&ticket.RoundID,
		&ticket.WinningIndex,
		&ticket.TotalTickets,
		&ticket.WinnerAddress,
		&ticket.DrawnAt,
		&ticket.ResolvedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draw for round %d: %w", roundID, err)
	}
	return &ticket, nil
}

// SetWinner records the resolved owner. A draw is resolved only once.
func (r *DrawRepository) SetWinner(ctx context.Context, roundID int64, winner entities.Address, resolvedAt time.Time) error {
	query := `
		UPDATE round_draws
		SET winner_address = $2, resolved_at = $3
		WHERE round_id = $1 AND resolved_at IS NULL
	`

	tag, err := r.q.Exec(ctx, query, roundID, string(winner), resolvedAt)
	if err != nil {
		return fmt.Errorf("failed to set winner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("round %d has no unresolved draw", roundID)
	}
	return nil
}
