package repository

import (
	"context"
	"errors"
	"fmt"

	"lottoledger/domain/entities"

	"github.com/jackc/pgx/v5"
)

// ParticipantRepository implements ticket ledger data access
type ParticipantRepository struct {
	q Queryable
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(q Queryable) *ParticipantRepository {
	return &ParticipantRepository{q: q}
}

const participantColumns = `round_id, address, ordinal, ticket_count, first_participated_at, updated_at`

func scanParticipant(row pgx.Row) (*entities.Participant, error) {
	var p entities.Participant
	err := row.Scan(
		&p.RoundID,
		&p.Address,
		&p.Ordinal,
		&p.TicketCount,
		&p.FirstParticipatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Get returns the participant record of an address in a round
func (r *ParticipantRepository) Get(ctx context.Context, roundID int64, address entities.Address) (*entities.Participant, error) {
	query := `SELECT ` + participantColumns + `
		FROM round_participants
		WHERE round_id = $1 AND address = $2
	`

	p, err := scanParticipant(r.q.QueryRow(ctx, query, roundID, string(address)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

// GetByOrdinal returns the participant at a first-participation position
func (r *ParticipantRepository) GetByOrdinal(ctx context.Context, roundID int64, ordinal int64) (*entities.Participant, error) {
	query := `SELECT ` + participantColumns + `
		FROM round_participants
		WHERE round_id = $1 AND ordinal = $2
	`

	p, err := scanParticipant(r.q.QueryRow(ctx, query, roundID, ordinal))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant by ordinal: %w", err)
	}
	return p, nil
}

// ListByRound returns participants in first-participation order
func (r *ParticipantRepository) ListByRound(ctx context.Context, roundID int64) ([]*entities.Participant, error) {
	query := `SELECT ` + participantColumns + `
		FROM round_participants
		WHERE round_id = $1
		ORDER BY ordinal
	`

	rows, err := r.q.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*entities.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}
	return participants, nil
}

// Append inserts a participant at the next ordinal of the round
func (r *ParticipantRepository) Append(ctx context.Context, participant *entities.Participant) error {
	query := `
		INSERT INTO round_participants (round_id, address, ordinal, ticket_count)
		VALUES ($1, $2, (SELECT COUNT(*) FROM round_participants WHERE round_id = $1), $3)
		RETURNING ordinal, first_participated_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		participant.RoundID,
		string(participant.Address),
		participant.TicketCount,
	).Scan(&participant.Ordinal, &participant.FirstParticipatedAt, &participant.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to append participant: %w", err)
	}
	return nil
}

// AddTickets increments an existing participant's ticket count
func (r *ParticipantRepository) AddTickets(ctx context.Context, roundID int64, address entities.Address, tickets int64) (int64, error) {
	query := `
		UPDATE round_participants
		SET ticket_count = ticket_count + $3, updated_at = NOW()
		WHERE round_id = $1 AND address = $2
		RETURNING ticket_count
	`

	var count int64
	err := r.q.QueryRow(ctx, query, roundID, string(address), tickets).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("participant %s not in round %d", address, roundID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add tickets: %w", err)
	}
	return count, nil
}

// CountByRound returns the number of participants in a round
func (r *ParticipantRepository) CountByRound(ctx context.Context, roundID int64) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM round_participants WHERE round_id = $1`, roundID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

// TotalTickets returns the sum of ticket counts in a round
func (r *ParticipantRepository) TotalTickets(ctx context.Context, roundID int64) (int64, error) {
	var total int64
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(ticket_count), 0)::BIGINT FROM round_participants WHERE round_id = $1`,
		roundID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum tickets: %w", err)
	}
	return total, nil
}
