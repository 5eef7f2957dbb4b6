package application_test

import (
	"context"
	"testing"
	"time"

	"lottoledger/application"
	"lottoledger/domain/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundCloseWorker_ClosesExpiredRounds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, application.OperationsConfig{})
	worker := application.NewRoundCloseWorker(h.ops, "@every 1m", false, nil)

	round, err := h.ops.CreateRound(ctx, admin, application.CreateRoundRequest{DurationHours: 1})
	require.NoError(t, err)
	_, err = h.ops.Mint(ctx, alice, round.ID, minStake)
	require.NoError(t, err)

	report, err := worker.RunOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Deactivated, "round has not ended yet")

	h.advance(time.Hour)
	report, err = worker.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{round.ID}, report.Deactivated)
	assert.Empty(t, report.Settled)

	closed, err := h.ops.GetRound(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.RoundPhaseInactive, closed.Phase)
	assert.Equal(t, []string{application.OutcomeSuccess, application.OutcomeSuccess}, h.metrics.workerRuns)
}

func TestRoundCloseWorker_CancelsEmptyExpiredRound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, application.OperationsConfig{})
	announcer := &recordingAnnouncer{}
	worker := application.NewRoundCloseWorker(h.ops, "@every 1m", true, announcer)

	round, err := h.ops.CreateRound(ctx, admin, application.CreateRoundRequest{DurationHours: 2})
	require.NoError(t, err)

	h.advance(3 * time.Hour)
	report, err := worker.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{round.ID}, report.Cancelled)
	assert.Empty(t, report.Settled)
	assert.Equal(t, []int64{round.ID}, announcer.cancelled)
	assert.Empty(t, announcer.settled)

	cancelled, err := h.ops.GetRound(ctx, round.ID)
	require.NoError(t, err)
	assert.False(t, cancelled.IsCreated())

	// a new round may open once the empty one is void
	_, err = h.ops.CreateRound(ctx, admin, application.CreateRoundRequest{})
	require.NoError(t, err)
}

func TestRoundCloseWorker_AutoSettle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, application.OperationsConfig{Random: fixedRandom(4)})
	announcer := &recordingAnnouncer{}
	worker := application.NewRoundCloseWorker(h.ops, "@every 1m", true, announcer)

	round, err := h.ops.CreateRound(ctx, admin, application.CreateRoundRequest{DurationHours: 1})
	require.NoError(t, err)
	_, err = h.ops.Mint(ctx, alice, round.ID, decimal.RequireFromString("300000000000000"))
	require.NoError(t, err)
	_, err = h.ops.Mint(ctx, bob, round.ID, decimal.RequireFromString("200000000000000"))
	require.NoError(t, err)

	h.advance(time.Hour)
	report, err := worker.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{round.ID}, report.Deactivated)
	assert.Equal(t, []int64{round.ID}, report.Settled)
	assert.Zero(t, report.Failed)

	settled, err := h.ops.GetRound(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.RoundPhaseDeposited, settled.Phase)

	owed, err := h.ops.PendingWithdrawal(ctx, round.ID, bob)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("500000000000000").Equal(owed))

	assert.Equal(t, []int64{round.ID}, announcer.settled)
	assert.Equal(t, []entities.Address{bob}, announcer.winners)

	// settled rounds are not picked up again
	report, err = worker.RunOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Settled)
}

func TestRoundCloseWorker_ResumesInterruptedSettlement(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, application.OperationsConfig{Random: fixedRandom(0)})
	worker := application.NewRoundCloseWorker(h.ops, "@every 1m", true, nil)

	round, err := h.ops.CreateRound(ctx, admin, application.CreateRoundRequest{})
	require.NoError(t, err)
	_, err = h.ops.Mint(ctx, alice, round.ID, minStake)
	require.NoError(t, err)
	_, err = h.ops.Deactivate(ctx, admin, round.ID)
	require.NoError(t, err)
	_, err = h.ops.TriggerDraw(ctx, admin, round.ID)
	require.NoError(t, err)

	report, err := worker.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{round.ID}, report.Settled)

	ticket, err := h.ops.WinningTicket(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, alice, ticket.WinnerAddress)
}

func TestRoundCloseWorker_InvalidSchedule(t *testing.T) {
	t.Parallel()

	h := newHarness(t, application.OperationsConfig{})
	worker := application.NewRoundCloseWorker(h.ops, "every now and then", false, nil)

	stop, err := worker.Start(context.Background())
	assert.Error(t, err)
	assert.Nil(t, stop)
}

func TestRoundCloseWorker_StartStop(t *testing.T) {
	t.Parallel()

	h := newHarness(t, application.OperationsConfig{})
	worker := application.NewRoundCloseWorker(h.ops, "@every 1h", false, nil)

	stop, err := worker.Start(context.Background())
	require.NoError(t, err)
	stop()
}
