package services

import (
	"context"
	"errors"
	"testing"

	"lottoledger/domain/entities"
	"lottoledger/domain/testhelpers"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPayoutTransfer_RecordsReceipt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := testhelpers.NewMemoryStore()
	transfer := NewPayoutTransfer(store.Payouts())

	amount := decimal.RequireFromString("1500000000000000000")
	require.NoError(t, transfer.Transfer(ctx, 7, alice, amount))

	payouts, err := store.Payouts().ListByRound(ctx, 7)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, alice, payouts[0].Address)
	assert.True(t, amount.Equal(payouts[0].Amount))
	assert.NotZero(t, payouts[0].ID)
	_, err = uuid.Parse(payouts[0].Reference)
	assert.NoError(t, err)
}

func TestPayoutTransfer_RejectsNonPositive(t *testing.T) {
	t.Parallel()

	payoutRepo := new(testhelpers.MockPayoutRepository)
	transfer := NewPayoutTransfer(payoutRepo)

	err := transfer.Transfer(context.Background(), 1, alice, decimal.Zero)
	assert.ErrorIs(t, err, entities.ErrInvalidWithdrawalAmount)
	payoutRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestPayoutTransfer_RecordFailure(t *testing.T) {
	t.Parallel()

	payoutRepo := new(testhelpers.MockPayoutRepository)
	payoutRepo.On("Record", mock.Anything, mock.AnythingOfType("*entities.Payout")).Return(errors.New("disk full"))
	transfer := NewPayoutTransfer(payoutRepo)

	err := transfer.Transfer(context.Background(), 1, alice, decimal.NewFromInt(5))
	assert.ErrorContains(t, err, "failed to record payout")
	payoutRepo.AssertExpectations(t)
}
