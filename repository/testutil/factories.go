package testutil

import (
	"time"

	"lottoledger/domain/entities"

	"github.com/shopspring/decimal"
)

// Fixed addresses used across repository tests
var (
	Creator = entities.Address("0x00000000000000000000000000000000000000ad")
	Alice   = entities.Address("0x00000000000000000000000000000000000000a1")
	Bob     = entities.Address("0x00000000000000000000000000000000000000b0")
)

// CreateTestRound returns an open round starting at start with the default stake and capacity
func CreateTestRound(start time.Time) *entities.Round {
	return &entities.Round{
		Creator:    Creator,
		StartTime:  start,
		EndTime:    start.Add(168 * time.Hour),
		Phase:      entities.RoundPhaseCreated,
		MinStake:   decimal.New(1, 14),
		MaxPlayers: 1000,
	}
}

// CreateTestParticipant returns a participant record ready to append
func CreateTestParticipant(roundID int64, address entities.Address, tickets int64) *entities.Participant {
	return &entities.Participant{
		RoundID:     roundID,
		Address:     address,
		TicketCount: tickets,
	}
}
