package services

import (
	"context"
	"errors"
	"testing"

	"lottoledger/domain/entities"
	"lottoledger/domain/events"
	"lottoledger/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDrawEngineService_EndToEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newLedger(t, NewSeededRandomSource(2024))
	round := l.openRound(t, 1000)

	assert.Equal(t, int64(10000), l.mint(t, round.ID, alice, "1000000000000000000").TicketsMinted)
	assert.Equal(t, int64(5000), l.mint(t, round.ID, bob, "500000000000000000").TicketsMinted)

	_, err := l.registry.Deactivate(ctx, round.ID)
	require.NoError(t, err)

	ticket, err := l.draws.TriggerDraw(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(15000), ticket.TotalTickets)
	assert.GreaterOrEqual(t, ticket.WinningIndex, int64(0))
	assert.Less(t, ticket.WinningIndex, int64(15000))
	assert.False(t, ticket.IsResolved())

	expectedWinner, loser := alice, bob
	if ticket.WinningIndex >= 10000 {
		expectedWinner, loser = bob, alice
	}

	resolved, err := l.draws.ResolveWinner(ctx, round.ID, ticket.WinningIndex)
	require.NoError(t, err)
	assert.Equal(t, expectedWinner, resolved.WinnerAddress)
	require.NotNil(t, resolved.ResolvedAt)

	pending, err := l.draws.DepositPrize(ctx, round.ID)
	require.NoError(t, err)
	prize := decimal.RequireFromString("1500000000000000000")
	assert.True(t, prize.Equal(pending.Amount), "got %s", pending.Amount)

	owed, err := l.withdrawals.PendingWithdrawal(ctx, round.ID, loser)
	require.NoError(t, err)
	assert.True(t, owed.IsZero())

	paid, err := l.withdrawals.Withdraw(ctx, round.ID, expectedWinner)
	require.NoError(t, err)
	assert.True(t, prize.Equal(paid))

	owed, err = l.withdrawals.PendingWithdrawal(ctx, round.ID, expectedWinner)
	require.NoError(t, err)
	assert.True(t, owed.IsZero())
	owed, err = l.withdrawals.PendingWithdrawal(ctx, round.ID, loser)
	require.NoError(t, err)
	assert.True(t, owed.IsZero())

	final, err := l.registry.GetRound(ctx, round.ID)
	require.NoError(t, err)
	assert.True(t, final.IsCompleted())

	assert.Equal(t, []events.EventType{
		events.EventTypeRoundCreated,
		events.EventTypeTicketsMinted,
		events.EventTypeTicketsMinted,
		events.EventTypeRoundDeactivated,
		events.EventTypeDrawTriggered,
		events.EventTypeWinnerResolved,
		events.EventTypePrizeDeposited,
		events.EventTypeWithdrawalPaid,
	}, l.store.EventTypes())
}

func TestDrawEngineService_ResolveWinner_Boundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		index  int64
		winner entities.Address
	}{
		{"first ticket", 0, alice},
		{"last ticket of first range", 7, alice},
		{"single ticket second range", 8, bob},
		{"last ticket", 9, carol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			l := newLedger(t, fixedRandom(tt.index))
			round := l.openRound(t, 10)
			l.mint(t, round.ID, alice, "300000000000000")
			l.mint(t, round.ID, bob, "100000000000000")
			l.mint(t, round.ID, carol, "100000000000000")
			l.mint(t, round.ID, alice, "500000000000000")

			ranges, err := l.draws.ComputeRanges(ctx, round.ID)
			assert.ErrorIs(t, err, entities.ErrMintingNotCompleted)
			assert.Nil(t, ranges)

			_, err = l.registry.Deactivate(ctx, round.ID)
			require.NoError(t, err)

			ranges, err = l.draws.ComputeRanges(ctx, round.ID)
			require.NoError(t, err)
			assert.Equal(t, []entities.TicketRange{
				{Ordinal: 0, Address: alice, StartIndex: 0, EndIndex: 7},
				{Ordinal: 1, Address: bob, StartIndex: 8, EndIndex: 8},
				{Ordinal: 2, Address: carol, StartIndex: 9, EndIndex: 9},
			}, ranges)

			ticket, err := l.draws.TriggerDraw(ctx, round.ID)
			require.NoError(t, err)
			require.Equal(t, tt.index, ticket.WinningIndex)

			resolved, err := l.draws.ResolveWinner(ctx, round.ID, tt.index)
			require.NoError(t, err)

			owner, err := entities.FindTicketRange(ranges, tt.index)
			require.NoError(t, err)
			assert.Equal(t, owner.Address, resolved.WinnerAddress)
			assert.Equal(t, tt.winner, resolved.WinnerAddress)
		})
	}
}

func TestDrawEngineService_TriggerDraw_Rejections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("round still open", func(t *testing.T) {
		t.Parallel()

		l := newLedger(t, fixedRandom(0))
		round := l.openRound(t, 10)
		l.mint(t, round.ID, alice, "100000000000000")

		_, err := l.draws.TriggerDraw(ctx, round.ID)
		assert.ErrorIs(t, err, entities.ErrMintingNotCompleted)
	})

	t.Run("no tickets", func(t *testing.T) {
		t.Parallel()

		l := newLedger(t, fixedRandom(0))
		round := l.openRound(t, 10)
		_, err := l.registry.Deactivate(ctx, round.ID)
		require.NoError(t, err)

		_, err = l.draws.TriggerDraw(ctx, round.ID)
		assert.ErrorIs(t, err, entities.ErrNoParticipants)
	})

	t.Run("drawn twice", func(t *testing.T) {
		t.Parallel()

		l := newLedger(t, fixedRandom(0))
		round := l.openRound(t, 10)
		l.mint(t, round.ID, alice, "100000000000000")
		_, err := l.registry.Deactivate(ctx, round.ID)
		require.NoError(t, err)
		_, err = l.draws.TriggerDraw(ctx, round.ID)
		require.NoError(t, err)

		_, err = l.draws.TriggerDraw(ctx, round.ID)
		assert.ErrorIs(t, err, entities.ErrInvalidRoundPhase)
	})

	t.Run("cancelled round", func(t *testing.T) {
		t.Parallel()

		l := newLedger(t, fixedRandom(0))
		round := l.openRound(t, 10)
		_, err := l.registry.Cancel(ctx, round.ID)
		require.NoError(t, err)

		_, err = l.draws.TriggerDraw(ctx, round.ID)
		assert.ErrorIs(t, err, entities.ErrInvalidRoundPhase)
	})
}

func TestDrawEngineService_ResolveWinner_WrongIndex(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newLedger(t, fixedRandom(1))
	round := l.openRound(t, 10)
	l.mint(t, round.ID, alice, "300000000000000")
	_, err := l.registry.Deactivate(ctx, round.ID)
	require.NoError(t, err)
	_, err = l.draws.TriggerDraw(ctx, round.ID)
	require.NoError(t, err)

	_, err = l.draws.ResolveWinner(ctx, round.ID, 2)
	assert.ErrorIs(t, err, entities.ErrInvalidTicketIndex)

	ticket, err := l.draws.WinningTicket(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ZeroAddress, ticket.WinnerAddress)
}

func TestDrawEngineService_PhaseOrdering(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newLedger(t, fixedRandom(0))
	round := l.openRound(t, 10)
	l.mint(t, round.ID, alice, "100000000000000")
	_, err := l.registry.Deactivate(ctx, round.ID)
	require.NoError(t, err)

	_, err = l.draws.ResolveWinner(ctx, round.ID, 0)
	assert.ErrorIs(t, err, entities.ErrInvalidRoundPhase, "resolve before draw")

	_, err = l.draws.DepositPrize(ctx, round.ID)
	assert.ErrorIs(t, err, entities.ErrInvalidRoundPhase, "deposit before resolve")

	_, err = l.draws.TriggerDraw(ctx, round.ID)
	require.NoError(t, err)
	_, err = l.draws.ResolveWinner(ctx, round.ID, 0)
	require.NoError(t, err)
	_, err = l.draws.DepositPrize(ctx, round.ID)
	require.NoError(t, err)

	_, err = l.draws.DepositPrize(ctx, round.ID)
	assert.ErrorIs(t, err, entities.ErrInvalidRoundPhase, "second deposit")

	owed, err := l.withdrawals.PendingWithdrawal(ctx, round.ID, alice)
	require.NoError(t, err)
	assert.True(t, testMinStake.Equal(owed))
}

func TestDrawEngineService_RangeAt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newLedger(t, fixedRandom(0))
	round := l.openRound(t, 10)
	l.mint(t, round.ID, alice, "200000000000000")
	l.mint(t, round.ID, bob, "300000000000000")
	_, err := l.registry.Deactivate(ctx, round.ID)
	require.NoError(t, err)

	r, err := l.draws.RangeAt(ctx, round.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, entities.TicketRange{Ordinal: 1, Address: bob, StartIndex: 2, EndIndex: 4}, r)

	_, err = l.draws.RangeAt(ctx, round.ID, 2)
	assert.ErrorIs(t, err, entities.ErrInvalidTicketIndex)
}

func TestDrawEngineService_TriggerDraw_RandomSource(t *testing.T) {
	t.Parallel()

	closedRound := &entities.Round{ID: 5, Phase: entities.RoundPhaseInactive, MinStake: testMinStake, TotalTickets: 12}

	t.Run("source error aborts the draw", func(t *testing.T) {
		t.Parallel()

		roundRepo := new(testhelpers.MockRoundRepository)
		drawRepo := new(testhelpers.MockDrawRepository)
		random := new(testhelpers.MockRandomSource)
		publisher := new(testhelpers.MockEventPublisher)
		service := NewDrawEngineService(roundRepo, new(testhelpers.MockParticipantRepository), drawRepo,
			new(testhelpers.MockWithdrawalRepository), random, publisher)

		round := *closedRound
		roundRepo.On("GetByID", mock.Anything, int64(5)).Return(&round, nil)
		random.On("Int63n", mock.Anything, int64(12)).Return(int64(0), errors.New("entropy unavailable"))

		_, err := service.TriggerDraw(context.Background(), 5)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to sample winning index")
		drawRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		roundRepo.AssertNotCalled(t, "UpdatePhase", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("out of range sample is rejected", func(t *testing.T) {
		t.Parallel()

		roundRepo := new(testhelpers.MockRoundRepository)
		drawRepo := new(testhelpers.MockDrawRepository)
		random := new(testhelpers.MockRandomSource)
		service := NewDrawEngineService(roundRepo, new(testhelpers.MockParticipantRepository), drawRepo,
			new(testhelpers.MockWithdrawalRepository), random, new(testhelpers.MockEventPublisher))

		round := *closedRound
		roundRepo.On("GetByID", mock.Anything, int64(5)).Return(&round, nil)
		random.On("Int63n", mock.Anything, int64(12)).Return(int64(12), nil)

		_, err := service.TriggerDraw(context.Background(), 5)
		assert.ErrorIs(t, err, entities.ErrInvalidTicketIndex)
		drawRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestSeededRandomSource_Deterministic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := NewSeededRandomSource(99)
	b := NewSeededRandomSource(99)
	for i := 0; i < 20; i++ {
		x, err := a.Int63n(ctx, 15000)
		require.NoError(t, err)
		y, err := b.Int63n(ctx, 15000)
		require.NoError(t, err)
		assert.Equal(t, x, y)
		assert.Less(t, x, int64(15000))
	}
}

func TestCryptoRandomSource(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := NewCryptoRandomSource()

	for i := 0; i < 100; i++ {
		v, err := source.Int63n(ctx, 7)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, int64(0))
		assert.Less(t, v, int64(7))
	}

	_, err := source.Int63n(ctx, 0)
	assert.Error(t, err)
}
