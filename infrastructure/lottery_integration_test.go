package infrastructure

import (
	"context"
	"sync"
	"testing"
	"time"

	"lottoledger/application"
	"lottoledger/domain/entities"
	"lottoledger/domain/events"
	"lottoledger/domain/services"
	"lottoledger/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRandom int64

func (f fixedRandom) Int63n(context.Context, int64) (int64, error) { return int64(f), nil }

func TestLotteryOperations_Postgres(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	downstream := &MockEventPublisher{}
	ops := application.NewLotteryOperations(NewUnitOfWorkFactory(testDB.DB, downstream), application.OperationsConfig{
		Random:   fixedRandom(12000),
		Defaults: services.RoundDefaults{MinStake: decimal.New(1, 14), MaxPlayers: 1000},
		Clock:    func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	})

	round, err := ops.CreateRound(ctx, testutil.Creator, application.CreateRoundRequest{})
	require.NoError(t, err)

	_, err = ops.Mint(ctx, testutil.Alice, round.ID, decimal.RequireFromString("1000000000000000000"))
	require.NoError(t, err)
	_, err = ops.Mint(ctx, testutil.Bob, round.ID, decimal.RequireFromString("500000000000000000"))
	require.NoError(t, err)

	// a rejected mint leaves the ledger and the bus untouched
	published := len(downstream.PublishedEvents)
	_, err = ops.Mint(ctx, testutil.Alice, round.ID, decimal.RequireFromString("99999999999999"))
	assert.ErrorIs(t, err, entities.ErrInadequateFunds)
	assert.Len(t, downstream.PublishedEvents, published)

	_, err = ops.Deactivate(ctx, testutil.Creator, round.ID)
	require.NoError(t, err)
	_, err = ops.TriggerDraw(ctx, testutil.Creator, round.ID)
	require.NoError(t, err)
	ticket, err := ops.ResolveWinner(ctx, testutil.Creator, round.ID, 12000)
	require.NoError(t, err)
	assert.Equal(t, testutil.Bob, ticket.WinnerAddress)

	pending, err := ops.DepositPrize(ctx, testutil.Creator, round.ID)
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", pending.Amount.String())

	paid, err := ops.Withdraw(ctx, testutil.Bob, round.ID)
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", paid.String())

	_, err = ops.Withdraw(ctx, testutil.Bob, round.ID)
	assert.ErrorIs(t, err, entities.ErrInvalidWithdrawalAmount)

	aliceOwed, err := ops.PendingWithdrawal(ctx, round.ID, testutil.Alice)
	require.NoError(t, err)
	assert.True(t, aliceOwed.IsZero())

	var types []events.EventType
	for _, e := range downstream.PublishedEvents {
		types = append(types, e.Type())
	}
	assert.Equal(t, []events.EventType{
		events.EventTypeRoundCreated,
		events.EventTypeTicketsMinted,
		events.EventTypeTicketsMinted,
		events.EventTypeRoundDeactivated,
		events.EventTypeDrawTriggered,
		events.EventTypeWinnerResolved,
		events.EventTypePrizeDeposited,
		events.EventTypeWithdrawalPaid,
	}, types)
}

func TestLotteryOperations_PostgresSerializesMints(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	ops := application.NewLotteryOperations(NewUnitOfWorkFactory(testDB.DB, &MockEventPublisher{}), application.OperationsConfig{
		Defaults: services.RoundDefaults{MinStake: decimal.New(1, 14), MaxPlayers: 1000},
	})

	round, err := ops.CreateRound(ctx, testutil.Creator, application.CreateRoundRequest{})
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			player := testutil.Alice
			if i%2 == 1 {
				player = testutil.Bob
			}
			_, err := ops.Mint(ctx, player, round.ID, decimal.New(3, 14))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, err = ops.Deactivate(ctx, testutil.Creator, round.ID)
	require.NoError(t, err)
	ranges, err := ops.TicketRanges(ctx, round.ID)
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	assert.Equal(t, int64(0), ranges[0].StartIndex)
	assert.Equal(t, ranges[0].EndIndex+1, ranges[1].StartIndex)
	assert.Equal(t, int64(workers*3-1), ranges[1].EndIndex)
}
