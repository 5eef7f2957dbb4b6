package repository

import (
	"context"
	"testing"
	"time"

	"lottoledger/domain/entities"
	"lottoledger/repository/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithdrawalRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	rounds := NewRoundRepository(testDB.DB)
	draws := NewDrawRepository(testDB.DB)
	repo := NewWithdrawalRepository(testDB.DB)
	payouts := NewPayoutRepository(testDB.DB)
	ctx := context.Background()

	now := time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC)
	round := testutil.CreateTestRound(now.Add(-168 * time.Hour))
	require.NoError(t, rounds.Create(ctx, round))

	prize := decimal.RequireFromString("1500000000000000000")

	t.Run("draw lifecycle", func(t *testing.T) {
		ticket, err := draws.GetByRound(ctx, round.ID)
		require.NoError(t, err)
		assert.Nil(t, ticket)

		require.NoError(t, draws.Create(ctx, &entities.WinningTicket{
			RoundID:      round.ID,
			WinningIndex: 12000,
			TotalTickets: 15000,
			DrawnAt:      now,
		}))

		ticket, err = draws.GetByRound(ctx, round.ID)
		require.NoError(t, err)
		require.NotNil(t, ticket)
		assert.Equal(t, entities.ZeroAddress, ticket.WinnerAddress)
		assert.False(t, ticket.IsResolved())

		require.NoError(t, draws.SetWinner(ctx, round.ID, testutil.Bob, now))
		assert.Error(t, draws.SetWinner(ctx, round.ID, testutil.Alice, now), "a draw resolves once")

		ticket, err = draws.GetByRound(ctx, round.ID)
		require.NoError(t, err)
		assert.Equal(t, testutil.Bob, ticket.WinnerAddress)
		assert.True(t, ticket.IsResolved())
	})

	t.Run("credit and zero", func(t *testing.T) {
		entry, err := repo.Get(ctx, round.ID, testutil.Bob)
		require.NoError(t, err)
		assert.Nil(t, entry)

		require.NoError(t, repo.Credit(ctx, round.ID, testutil.Bob, prize))

		entry, err = repo.Get(ctx, round.ID, testutil.Bob)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.True(t, prize.Equal(entry.Amount), "NUMERIC(78,0) keeps full precision")

		pending, err := repo.ListPendingByAddress(ctx, testutil.Bob)
		require.NoError(t, err)
		assert.Len(t, pending, 1)

		require.NoError(t, repo.Zero(ctx, round.ID, testutil.Bob, now))
		entry, err = repo.Get(ctx, round.ID, testutil.Bob)
		require.NoError(t, err)
		assert.True(t, entry.Amount.IsZero())
		require.NotNil(t, entry.WithdrawnAt)

		pending, err = repo.ListPendingByAddress(ctx, testutil.Bob)
		require.NoError(t, err)
		assert.Empty(t, pending)

		assert.Error(t, repo.Zero(ctx, round.ID, testutil.Alice, now))
	})

	t.Run("payout receipts", func(t *testing.T) {
		payout := &entities.Payout{
			Reference: uuid.NewString(),
			RoundID:   round.ID,
			Address:   testutil.Bob,
			Amount:    prize,
			PaidAt:    now,
		}
		require.NoError(t, payouts.Record(ctx, payout))
		assert.NotZero(t, payout.ID)

		list, err := payouts.ListByRound(ctx, round.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, payout.Reference, list[0].Reference)
		assert.True(t, prize.Equal(list[0].Amount))
	})
}
