package entities

import "time"

// WinningTicket is the draw outcome of a round. WinnerAddress holds ZeroAddress until resolution.
type WinningTicket struct {
	RoundID       int64      `db:"round_id"`
	WinningIndex  int64      `db:"winning_index"`
	TotalTickets  int64      `db:"total_tickets"` // size of the index space at draw time
	WinnerAddress Address    `db:"winner_address"`
	DrawnAt       time.Time  `db:"drawn_at"`
	ResolvedAt    *time.Time `db:"resolved_at"`
}

// IsResolved returns true once the winning index has been mapped to an owner
func (w *WinningTicket) IsResolved() bool {
	return !w.WinnerAddress.IsZero()
}

// Resolve records the owner of the winning index
func (w *WinningTicket) Resolve(winner Address, at time.Time) {
	w.WinnerAddress = winner
	w.ResolvedAt = &at
}
