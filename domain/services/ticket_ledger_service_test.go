package services

import (
	"context"
	"math"
	"testing"

	"lottoledger/domain/entities"
	"lottoledger/domain/events"
	"lottoledger/domain/interfaces"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketLedgerService_Mint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		stake       string
		wantTickets int64
	}{
		{"exact minimum", "100000000000000", 1},
		{"one ether", "1000000000000000000", 10000},
		{"remainder is floored", "250000000000000", 2},
		{"just under two tickets", "199999999999999", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l := newLedger(t, fixedRandom(0))
			round := l.openRound(t, 10)

			result := l.mint(t, round.ID, alice, tt.stake)
			assert.Equal(t, tt.wantTickets, result.TicketsMinted)
			assert.Equal(t, tt.wantTickets, result.TotalTickets)
			assert.Equal(t, int64(0), result.Participant.Ordinal)

			last := l.store.Events[len(l.store.Events)-1]
			assert.Equal(t, events.TicketsMintedEvent{RoundID: round.ID, Player: alice, TicketsMinted: tt.wantTickets}, last)
		})
	}
}

func TestTicketLedgerService_Mint_Accumulates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newLedger(t, fixedRandom(0))
	round := l.openRound(t, 10)

	l.mint(t, round.ID, alice, "200000000000000")
	l.mint(t, round.ID, bob, "500000000000000")
	result := l.mint(t, round.ID, alice, "300000000000000")

	// position fixed at first participation
	assert.Equal(t, int64(0), result.Participant.Ordinal)
	assert.Equal(t, int64(5), result.Participant.TicketCount)
	assert.Equal(t, int64(10), result.TotalTickets)

	count, err := l.tickets.ActivePlayerCount(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	second, err := l.tickets.ParticipantAt(ctx, round.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, bob, second.Address)

	aliceTickets, err := l.tickets.TicketCount(ctx, round.ID, alice)
	require.NoError(t, err)
	bobTickets, err := l.tickets.TicketCount(ctx, round.ID, bob)
	require.NoError(t, err)
	total, err := l.tickets.TotalTickets(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, total, aliceTickets+bobTickets)
}

func TestTicketLedgerService_Mint_InadequateFunds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newLedger(t, fixedRandom(0))
	round := l.openRound(t, 10)
	l.mint(t, round.ID, alice, "100000000000000")
	eventsBefore := len(l.store.Events)

	for _, stake := range []string{"0", "1", "99999999999999"} {
		_, err := l.tickets.Mint(ctx, round.ID, bob, decimal.RequireFromString(stake))
		assert.ErrorIs(t, err, entities.ErrInadequateFunds, "stake %s", stake)
	}

	total, err := l.tickets.TotalTickets(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	players, err := l.tickets.ActivePlayerCount(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), players)

	active, err := l.tickets.IsActive(ctx, round.ID, bob)
	require.NoError(t, err)
	assert.False(t, active)
	assert.Len(t, l.store.Events, eventsBefore)
}

func TestTicketLedgerService_Mint_CapacityExceeded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newLedger(t, fixedRandom(0))
	round := l.openRound(t, 2)
	l.mint(t, round.ID, alice, "100000000000000")
	l.mint(t, round.ID, bob, "100000000000000")

	_, err := l.tickets.Mint(ctx, round.ID, carol, testMinStake)
	assert.ErrorIs(t, err, entities.ErrCapacityExceeded)

	// existing participants may keep minting at the cap
	result := l.mint(t, round.ID, bob, "100000000000000")
	assert.Equal(t, int64(2), result.Participant.TicketCount)
	assert.Equal(t, int64(3), result.TotalTickets)
}

func TestTicketLedgerService_Mint_Rejections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("closed round", func(t *testing.T) {
		t.Parallel()

		l := newLedger(t, fixedRandom(0))
		round := l.openRound(t, 10)
		_, err := l.registry.Deactivate(ctx, round.ID)
		require.NoError(t, err)

		_, err = l.tickets.Mint(ctx, round.ID, alice, testMinStake)
		assert.ErrorIs(t, err, entities.ErrRoundNotActive)
	})

	t.Run("unknown round", func(t *testing.T) {
		t.Parallel()

		l := newLedger(t, fixedRandom(0))
		_, err := l.tickets.Mint(ctx, 42, alice, testMinStake)
		assert.ErrorIs(t, err, entities.ErrRoundNotFound)
	})

	t.Run("zero address", func(t *testing.T) {
		t.Parallel()

		l := newLedger(t, fixedRandom(0))
		round := l.openRound(t, 10)
		_, err := l.tickets.Mint(ctx, round.ID, entities.ZeroAddress, testMinStake)
		assert.ErrorIs(t, err, entities.ErrInvalidAddress)
	})

	t.Run("negative stake", func(t *testing.T) {
		t.Parallel()

		l := newLedger(t, fixedRandom(0))
		round := l.openRound(t, 10)
		_, err := l.tickets.Mint(ctx, round.ID, alice, decimal.NewFromInt(-1))
		assert.ErrorIs(t, err, entities.ErrInvalidAmount)
	})
}

func TestTicketLedgerService_Mint_TicketOverflow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name   string
		before string
		stake  string
	}{
		{"quotient wraps past uint64", "", "18446744073709551621"},
		{"quotient would turn negative", "", "9223372036854775808"},
		{"existing total leaves no room", "9223372036854775800", "8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l := newLedger(t, fixedRandom(0))
			round, err := l.registry.CreateRound(ctx, interfaces.CreateRoundParams{
				Creator:       owner,
				StartTime:     testStart,
				DurationHours: 1,
				MinStake:      decimal.NewFromInt(1),
				MaxPlayers:    10,
			})
			require.NoError(t, err)

			var totalBefore int64
			if tt.before != "" {
				totalBefore = l.mint(t, round.ID, bob, tt.before).TotalTickets
			}
			eventsBefore := len(l.store.Events)

			_, err = l.tickets.Mint(ctx, round.ID, alice, decimal.RequireFromString(tt.stake))
			assert.ErrorIs(t, err, entities.ErrInvalidAmount)
			assert.Equal(t, entities.CodeInvalidAmount, entities.ErrorCodeOf(err))

			total, err := l.tickets.TotalTickets(ctx, round.ID)
			require.NoError(t, err)
			assert.Equal(t, totalBefore, total)

			aliceTickets, err := l.tickets.TicketCount(ctx, round.ID, alice)
			require.NoError(t, err)
			assert.Zero(t, aliceTickets)
			assert.Len(t, l.store.Events, eventsBefore)
		})
	}
}

func TestTicketLedgerService_Mint_LargestFittingStake(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newLedger(t, fixedRandom(0))
	round, err := l.registry.CreateRound(ctx, interfaces.CreateRoundParams{
		Creator:       owner,
		StartTime:     testStart,
		DurationHours: 1,
		MinStake:      decimal.NewFromInt(1),
		MaxPlayers:    10,
	})
	require.NoError(t, err)

	result := l.mint(t, round.ID, alice, "9223372036854775807")
	assert.Equal(t, int64(math.MaxInt64), result.TicketsMinted)
	assert.Equal(t, int64(math.MaxInt64), result.TotalTickets)
}

func TestTicketLedgerService_Queries_UnknownParticipant(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newLedger(t, fixedRandom(0))
	round := l.openRound(t, 10)

	count, err := l.tickets.TicketCount(ctx, round.ID, carol)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	_, err = l.tickets.ParticipantAt(ctx, round.ID, 0)
	assert.ErrorIs(t, err, entities.ErrInvalidTicketIndex)

	_, err = l.tickets.ParticipantAt(ctx, round.ID, -1)
	assert.ErrorIs(t, err, entities.ErrInvalidTicketIndex)
}

func TestTicketLedgerService_Participants(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newLedger(t, fixedRandom(0))
	round := l.openRound(t, 10)

	l.mint(t, round.ID, bob, "100000000000000")
	l.mint(t, round.ID, alice, "300000000000000")
	l.mint(t, round.ID, bob, "100000000000000")

	participants, err := l.tickets.Participants(ctx, round.ID)
	require.NoError(t, err)
	require.Len(t, participants, 2)
	assert.Equal(t, bob, participants[0].Address)
	assert.Equal(t, int64(2), participants[0].TicketCount)
	assert.Equal(t, alice, participants[1].Address)
	assert.Equal(t, int64(3), participants[1].TicketCount)

	_, err = l.tickets.Participants(ctx, round.ID+1)
	assert.ErrorIs(t, err, entities.ErrRoundNotFound)
}
