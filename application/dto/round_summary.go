package dto

import (
	"lottoledger/domain/entities"

	"github.com/shopspring/decimal"
)

// RoundSummary is one entry of the round history
type RoundSummary struct {
	Round         *entities.Round
	WinningTicket *entities.WinningTicket // nil before the draw
	Prize         decimal.Decimal         // totalTickets * minStake
}

// NewRoundSummary builds the summary of a round and its optional draw outcome
func NewRoundSummary(round *entities.Round, ticket *entities.WinningTicket) *RoundSummary {
	return &RoundSummary{
		Round:         round,
		WinningTicket: ticket,
		Prize:         round.PrizeAmount(),
	}
}
