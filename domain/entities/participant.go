package entities

import "time"

// Participant is an address's cumulative ticket position within one round
type Participant struct {
	RoundID             int64     `db:"round_id"`
	Address             Address   `db:"address"`
	Ordinal             int64     `db:"ordinal"` // position in first-participation order
	TicketCount         int64     `db:"ticket_count"`
	FirstParticipatedAt time.Time `db:"first_participated_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

// IsActive returns true once the participant holds at least one ticket
func (p *Participant) IsActive() bool {
	return p.TicketCount > 0
}
