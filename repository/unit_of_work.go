package repository

import (
	"context"
	"errors"
	"fmt"

	"lottoledger/application"
	"lottoledger/database"
	"lottoledger/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface over one serialized transaction
type unitOfWork struct {
	db              *database.DB
	tx              pgx.Tx
	ctx             context.Context
	eventPublisher  interfaces.EventPublisher
	roundRepo       interfaces.RoundRepository
	participantRepo interfaces.ParticipantRepository
	drawRepo        interfaces.DrawRepository
	withdrawalRepo  interfaces.WithdrawalRepository
	payoutRepo      interfaces.PayoutRepository
}

type unitOfWorkFactory struct {
	db *database.DB
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *unitOfWorkFactory {
	return &unitOfWorkFactory{db: db}
}

// CreateWithPublisher creates a UnitOfWork whose EventBus is the given publisher
func (f *unitOfWorkFactory) CreateWithPublisher(eventPublisher interfaces.EventPublisher) application.UnitOfWork {
	return &unitOfWork{
		db:             f.db,
		eventPublisher: eventPublisher,
	}
}

// Begin starts a new transaction holding the ledger lock
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.BeginSerialized(ctx)
	if err != nil {
		return err
	}

	u.tx = tx
	u.ctx = ctx

	u.roundRepo = NewRoundRepository(tx)
	u.participantRepo = NewParticipantRepository(tx)
	u.drawRepo = NewDrawRepository(tx)
	u.withdrawalRepo = NewWithdrawalRepository(tx)
	u.payoutRepo = NewPayoutRepository(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil
	return nil
}

// Rollback rolls back the transaction. Safe to call after Commit.
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil
	return nil
}

// RoundRepository returns the round repository for this unit of work
func (u *unitOfWork) RoundRepository() interfaces.RoundRepository {
	if u.roundRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.roundRepo
}

// ParticipantRepository returns the participant repository for this unit of work
func (u *unitOfWork) ParticipantRepository() interfaces.ParticipantRepository {
	if u.participantRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.participantRepo
}

// DrawRepository returns the draw repository for this unit of work
func (u *unitOfWork) DrawRepository() interfaces.DrawRepository {
	if u.drawRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.drawRepo
}

// WithdrawalRepository returns the withdrawal repository for this unit of work
func (u *unitOfWork) WithdrawalRepository() interfaces.WithdrawalRepository {
	if u.withdrawalRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.withdrawalRepo
}

// PayoutRepository returns the payout repository for this unit of work
func (u *unitOfWork) PayoutRepository() interfaces.PayoutRepository {
	if u.payoutRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.payoutRepo
}

// EventBus returns the event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.eventPublisher == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.eventPublisher
}
