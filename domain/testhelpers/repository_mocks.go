package testhelpers

import (
	"context"
	"time"

	"lottoledger/domain/entities"
	"lottoledger/domain/events"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockRoundRepository is a mock implementation of RoundRepository
type MockRoundRepository struct {
	mock.Mock
}

func (m *MockRoundRepository) Create(ctx context.Context, round *entities.Round) error {
	args := m.Called(ctx, round)
	return args.Error(0)
}

func (m *MockRoundRepository) GetByID(ctx context.Context, id int64) (*entities.Round, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Round), args.Error(1)
}

func (m *MockRoundRepository) GetActive(ctx context.Context) (*entities.Round, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Round), args.Error(1)
}

func (m *MockRoundRepository) GetLatest(ctx context.Context) (*entities.Round, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Round), args.Error(1)
}

func (m *MockRoundRepository) UpdatePhase(ctx context.Context, id int64, from, to entities.RoundPhase) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockRoundRepository) UpdateMaxPlayers(ctx context.Context, id int64, maxPlayers int64) error {
	args := m.Called(ctx, id, maxPlayers)
	return args.Error(0)
}

func (m *MockRoundRepository) List(ctx context.Context, limit int) ([]*entities.Round, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Round), args.Error(1)
}

func (m *MockRoundRepository) GetExpiredActive(ctx context.Context, now time.Time) ([]*entities.Round, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Round), args.Error(1)
}

// MockParticipantRepository is a mock implementation of ParticipantRepository
type MockParticipantRepository struct {
	mock.Mock
}

func (m *MockParticipantRepository) Get(ctx context.Context, roundID int64, address entities.Address) (*entities.Participant, error) {
	args := m.Called(ctx, roundID, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Participant), args.Error(1)
}

func (m *MockParticipantRepository) GetByOrdinal(ctx context.Context, roundID int64, ordinal int64) (*entities.Participant, error) {
	args := m.Called(ctx, roundID, ordinal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Participant), args.Error(1)
}

func (m *MockParticipantRepository) ListByRound(ctx context.Context, roundID int64) ([]*entities.Participant, error) {
	args := m.Called(ctx, roundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Participant), args.Error(1)
}

func (m *MockParticipantRepository) Append(ctx context.Context, participant *entities.Participant) error {
	args := m.Called(ctx, participant)
	return args.Error(0)
}

func (m *MockParticipantRepository) AddTickets(ctx context.Context, roundID int64, address entities.Address, tickets int64) (int64, error) {
	args := m.Called(ctx, roundID, address, tickets)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockParticipantRepository) CountByRound(ctx context.Context, roundID int64) (int64, error) {
	args := m.Called(ctx, roundID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockParticipantRepository) TotalTickets(ctx context.Context, roundID int64) (int64, error) {
	args := m.Called(ctx, roundID)
	return args.Get(0).(int64), args.Error(1)
}

// MockDrawRepository is a mock implementation of DrawRepository
type MockDrawRepository struct {
	mock.Mock
}

func (m *MockDrawRepository) Create(ctx context.Context, ticket *entities.WinningTicket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockDrawRepository) GetByRound(ctx context.Context, roundID int64) (*entities.WinningTicket, error) {
	args := m.Called(ctx, roundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WinningTicket), args.Error(1)
}

func (m *MockDrawRepository) SetWinner(ctx context.Context, roundID int64, winner entities.Address, resolvedAt time.Time) error {
	args := m.Called(ctx, roundID, winner, resolvedAt)
	return args.Error(0)
}

// MockWithdrawalRepository is a mock implementation of WithdrawalRepository
type MockWithdrawalRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRepository) Get(ctx context.Context, roundID int64, address entities.Address) (*entities.PendingWithdrawal, error) {
	args := m.Called(ctx, roundID, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PendingWithdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) Credit(ctx context.Context, roundID int64, address entities.Address, amount decimal.Decimal) error {
	args := m.Called(ctx, roundID, address, amount)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) Zero(ctx context.Context, roundID int64, address entities.Address, withdrawnAt time.Time) error {
	args := m.Called(ctx, roundID, address, withdrawnAt)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) ListPendingByAddress(ctx context.Context, address entities.Address) ([]*entities.PendingWithdrawal, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PendingWithdrawal), args.Error(1)
}

// MockPayoutRepository is a mock implementation of PayoutRepository
type MockPayoutRepository struct {
	mock.Mock
}

func (m *MockPayoutRepository) Record(ctx context.Context, payout *entities.Payout) error {
	args := m.Called(ctx, payout)
	return args.Error(0)
}

func (m *MockPayoutRepository) ListByRound(ctx context.Context, roundID int64) ([]*entities.Payout, error) {
	args := m.Called(ctx, roundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Payout), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockRandomSource is a mock implementation of RandomSource
type MockRandomSource struct {
	mock.Mock
}

func (m *MockRandomSource) Int63n(ctx context.Context, n int64) (int64, error) {
	args := m.Called(ctx, n)
	return args.Get(0).(int64), args.Error(1)
}

// MockPrizeTransfer is a mock implementation of PrizeTransfer
type MockPrizeTransfer struct {
	mock.Mock
}

func (m *MockPrizeTransfer) Transfer(ctx context.Context, roundID int64, to entities.Address, amount decimal.Decimal) error {
	args := m.Called(ctx, roundID, to, amount)
	return args.Error(0)
}
