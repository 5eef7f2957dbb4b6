package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lottoledger/domain/entities"

	"github.com/jackc/pgx/v5"
)

// RoundRepository implements round data access
type RoundRepository struct {
	q Queryable
}

// NewRoundRepository creates a new round repository
func NewRoundRepository(q Queryable) *RoundRepository {
	return &RoundRepository{q: q}
}

// roundSelect derives the ticket and player totals from the participant ledger
const roundSelect = `
	SELECT r.id, r.creator, r.start_time, r.end_time, r.phase, r.min_stake, r.max_players,
	       r.created_at, r.updated_at,
	       COALESCE(p.total_tickets, 0), COALESCE(p.num_players, 0)
	FROM rounds r
	LEFT JOIN LATERAL (
		SELECT SUM(ticket_count)::BIGINT AS total_tickets, COUNT(*) AS num_players
		FROM round_participants
		WHERE round_id = r.id
	) p ON TRUE
`

func scanRound(row pgx.Row) (*entities.Round, error) {
	var round entities.Round
	err := row.Scan(
		&round.ID,
		&round.Creator,
		&round.StartTime,
		&round.EndTime,
		&round.Phase,
		&round.MinStake,
		&round.MaxPlayers,
		&round.CreatedAt,
		&round.UpdatedAt,
		&round.TotalTickets,
		&round.NumActivePlayers,
	)
	if err != nil {
		return nil, err
	}
	return &round, nil
}

func (r *RoundRepository) getOne(ctx context.Context, query string, args ...any) (*entities.Round, error) {
	round, err := scanRound(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return round, nil
}

func (r *RoundRepository) getMany(ctx context.Context, query string, args ...any) ([]*entities.Round, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []*entities.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, round)
	}
	return rounds, rows.Err()
}

// Create inserts a new round
func (r *RoundRepository) Create(ctx context.Context, round *entities.Round) error {
	query := `
		INSERT INTO rounds (creator, start_time, end_time, phase, min_stake, max_players)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		string(round.Creator),
		round.StartTime,
		round.EndTime,
		string(round.Phase),
		round.MinStake,
		round.MaxPlayers,
	).Scan(&round.ID, &round.CreatedAt, &round.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}

	return nil
}

// GetByID retrieves a round by its ID
func (r *RoundRepository) GetByID(ctx context.Context, id int64) (*entities.Round, error) {
	round, err := r.getOne(ctx, roundSelect+` WHERE r.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get round by ID %d: %w", id, err)
	}
	return round, nil
}

// GetActive returns the round open for minting
func (r *RoundRepository) GetActive(ctx context.Context) (*entities.Round, error) {
	round, err := r.getOne(ctx, roundSelect+` WHERE r.phase = $1`, string(entities.RoundPhaseCreated))
	if err != nil {
		return nil, fmt.Errorf("failed to get active round: %w", err)
	}
	return round, nil
}

// GetLatest returns the round with the highest ID
func (r *RoundRepository) GetLatest(ctx context.Context) (*entities.Round, error) {
	round, err := r.getOne(ctx, roundSelect+` ORDER BY r.id DESC LIMIT 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest round: %w", err)
	}
	return round, nil
}

// UpdatePhase moves a round between phases, guarding against a stale from phase
func (r *RoundRepository) UpdatePhase(ctx context.Context, id int64, from, to entities.RoundPhase) error {
	query := `
		UPDATE rounds
		SET phase = $3, updated_at = NOW()
		WHERE id = $1 AND phase = $2
	`

	tag, err := r.q.Exec(ctx, query, id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("failed to update round phase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("round %d is not in phase %s", id, from)
	}
	return nil
}

// UpdateMaxPlayers changes the capacity of a round
func (r *RoundRepository) UpdateMaxPlayers(ctx context.Context, id int64, maxPlayers int64) error {
	query := `
		UPDATE rounds
		SET max_players = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query, id, maxPlayers)
	if err != nil {
		return fmt.Errorf("failed to update max players: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("round %d not found", id)
	}
	return nil
}

// List returns rounds newest first
func (r *RoundRepository) List(ctx context.Context, limit int) ([]*entities.Round, error) {
	rounds, err := r.getMany(ctx, roundSelect+` ORDER BY r.id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	return rounds, nil
}

// GetExpiredActive returns open rounds whose end time is not after now
func (r *RoundRepository) GetExpiredActive(ctx context.Context, now time.Time) ([]*entities.Round, error) {
	rounds, err := r.getMany(ctx,
		roundSelect+` WHERE r.phase = $1 AND r.end_time <= $2 ORDER BY r.id`,
		string(entities.RoundPhaseCreated), now)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired rounds: %w", err)
	}
	return rounds, nil
}
