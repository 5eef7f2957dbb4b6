package services

import (
	"context"
	"testing"
	"time"

	"lottoledger/domain/entities"
	"lottoledger/domain/interfaces"
	"lottoledger/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	alice = entities.Address("0x00000000000000000000000000000000000000a1")
	bob   = entities.Address("0x00000000000000000000000000000000000000b0")
	carol = entities.Address("0x00000000000000000000000000000000000000c0")
	owner = entities.Address("0x0000000000000000000000000000000000000001")

	testMinStake = decimal.RequireFromString("100000000000000")
	testStart    = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
)

// ledger wires all four services over one in-memory store
type ledger struct {
	store       *testhelpers.MemoryStore
	registry    interfaces.RoundRegistryService
	tickets     interfaces.TicketLedgerService
	draws       interfaces.DrawEngineService
	withdrawals interfaces.WithdrawalService
	transfers   *recordingTransfer
}

// recordingTransfer captures transfers and can run a hook to simulate re-entry
type recordingTransfer struct {
	calls  []decimal.Decimal
	onCall func(ctx context.Context, roundID int64, to entities.Address)
}

func (r *recordingTransfer) Transfer(ctx context.Context, roundID int64, to entities.Address, amount decimal.Decimal) error {
	r.calls = append(r.calls, amount)
	if r.onCall != nil {
		r.onCall(ctx, roundID, to)
	}
	return nil
}

func newLedger(t *testing.T, random interfaces.RandomSource) *ledger {
	t.Helper()

	store := testhelpers.NewMemoryStore()
	transfers := &recordingTransfer{}
	return &ledger{
		store: store,
		registry: NewRoundRegistryService(store.Rounds(), store, RoundDefaults{
			MinStake:   testMinStake,
			MaxPlayers: 1000,
		}),
		tickets:     NewTicketLedgerService(store.Rounds(), store.Participants(), store),
		draws:       NewDrawEngineService(store.Rounds(), store.Participants(), store.Draws(), store.Withdrawals(), random, store),
		withdrawals: NewWithdrawalService(store.Rounds(), store.Withdrawals(), transfers, store),
		transfers:   transfers,
	}
}

func (l *ledger) openRound(t *testing.T, maxPlayers int64) *entities.Round {
	t.Helper()

	round, err := l.registry.CreateRound(context.Background(), interfaces.CreateRoundParams{
		Creator:       owner,
		StartTime:     testStart,
		DurationHours: 1,
		MinStake:      testMinStake,
		MaxPlayers:    maxPlayers,
	})
	require.NoError(t, err)
	return round
}

func (l *ledger) mint(t *testing.T, roundID int64, address entities.Address, stake string) *interfaces.MintResult {
	t.Helper()

	result, err := l.tickets.Mint(context.Background(), roundID, address, decimal.RequireFromString(stake))
	require.NoError(t, err)
	return result
}

// fixedRandom always returns the same index
type fixedRandom int64

func (f fixedRandom) Int63n(_ context.Context, _ int64) (int64, error) {
	return int64(f), nil
}
