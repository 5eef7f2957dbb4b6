package api

import (
	"time"

	"lottoledger/application/dto"
	"lottoledger/domain/entities"
	"lottoledger/domain/interfaces"

	"github.com/shopspring/decimal"
)

type roundResponse struct {
	ID               int64               `json:"id"`
	Creator          entities.Address    `json:"creator"`
	StartTime        time.Time           `json:"start_time"`
	EndTime          time.Time           `json:"end_time"`
	Phase            entities.RoundPhase `json:"phase"`
	Active           bool                `json:"active"`
	MinStake         decimal.Decimal     `json:"min_stake"`
	MaxPlayers       int64               `json:"max_players"`
	TotalTickets     int64               `json:"total_tickets"`
	NumActivePlayers int64               `json:"num_active_players"`
	Prize            decimal.Decimal     `json:"prize"`
}

func newRoundResponse(round *entities.Round) roundResponse {
	return roundResponse{
		ID:               round.ID,
		Creator:          round.Creator,
		StartTime:        round.StartTime,
		EndTime:          round.EndTime,
		Phase:            round.Phase,
		Active:           round.IsActive(),
		MinStake:         round.MinStake,
		MaxPlayers:       round.MaxPlayers,
		TotalTickets:     round.TotalTickets,
		NumActivePlayers: round.NumActivePlayers,
		Prize:            round.PrizeAmount(),
	}
}

type participantResponse struct {
	Ordinal             int64            `json:"ordinal"`
	Address             entities.Address `json:"address"`
	TicketCount         int64            `json:"ticket_count"`
	FirstParticipatedAt time.Time        `json:"first_participated_at"`
}

func newParticipantResponse(p *entities.Participant) participantResponse {
	return participantResponse{
		Ordinal:             p.Ordinal,
		Address:             p.Address,
		TicketCount:         p.TicketCount,
		FirstParticipatedAt: p.FirstParticipatedAt,
	}
}

type accountResponse struct {
	RoundID     int64            `json:"round_id"`
	Address     entities.Address `json:"address"`
	TicketCount int64            `json:"ticket_count"`
	Active      bool             `json:"active"`
}

type mintResponse struct {
	RoundID       int64            `json:"round_id"`
	Player        entities.Address `json:"player"`
	TicketsMinted int64            `json:"tickets_minted"`
	TicketCount   int64            `json:"ticket_count"`
	TotalTickets  int64            `json:"total_tickets"`
}

func newMintResponse(roundID int64, result *interfaces.MintResult) mintResponse {
	return mintResponse{
		RoundID:       roundID,
		Player:        result.Participant.Address,
		TicketsMinted: result.TicketsMinted,
		TicketCount:   result.Participant.TicketCount,
		TotalTickets:  result.TotalTickets,
	}
}

type winningTicketResponse struct {
	RoundID       int64            `json:"round_id"`
	WinningIndex  int64            `json:"winning_index"`
	TotalTickets  int64            `json:"total_tickets"`
	WinnerAddress entities.Address `json:"winner_address"`
	Resolved      bool             `json:"resolved"`
	DrawnAt       time.Time        `json:"drawn_at"`
	ResolvedAt    *time.Time       `json:"resolved_at,omitempty"`
}

func newWinningTicketResponse(ticket *entities.WinningTicket) *winningTicketResponse {
	if ticket == nil {
		return nil
	}
	return &winningTicketResponse{
		RoundID:       ticket.RoundID,
		WinningIndex:  ticket.WinningIndex,
		TotalTickets:  ticket.TotalTickets,
		WinnerAddress: ticket.WinnerAddress,
		Resolved:      ticket.IsResolved(),
		DrawnAt:       ticket.DrawnAt,
		ResolvedAt:    ticket.ResolvedAt,
	}
}

type roundSummaryResponse struct {
	Round         roundResponse          `json:"round"`
	WinningTicket *winningTicketResponse `json:"winning_ticket"`
	Prize         decimal.Decimal        `json:"prize"`
}

func newRoundSummaryResponse(summary *dto.RoundSummary) roundSummaryResponse {
	return roundSummaryResponse{
		Round:         newRoundResponse(summary.Round),
		WinningTicket: newWinningTicketResponse(summary.WinningTicket),
		Prize:         summary.Prize,
	}
}

type withdrawalResponse struct {
	RoundID int64            `json:"round_id"`
	Address entities.Address `json:"address"`
	Amount  decimal.Decimal  `json:"amount"`
}

func newWithdrawalResponse(w *entities.PendingWithdrawal) withdrawalResponse {
	return withdrawalResponse{
		RoundID: w.RoundID,
		Address: w.Address,
		Amount:  w.Amount,
	}
}

type withdrawResponse struct {
	RoundID    int64            `json:"round_id"`
	Address    entities.Address `json:"address"`
	AmountPaid decimal.Decimal  `json:"amount_paid"`
}
