package application

import (
	"context"

	"lottoledger/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction and takes the ledger lock
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	RoundRepository() interfaces.RoundRepository
	ParticipantRepository() interfaces.ParticipantRepository
	DrawRepository() interfaces.DrawRepository
	WithdrawalRepository() interfaces.WithdrawalRepository
	PayoutRepository() interfaces.PayoutRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
