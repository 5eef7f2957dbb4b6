package infrastructure

import (
	"context"

	"lottoledger/application"
	"lottoledger/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// unitOfWork wraps the repository UnitOfWork and adds event publishing on commit
type unitOfWork struct {
	inner                  application.UnitOfWork
	transactionalPublisher *NATSTransactionalPublisher
	ctx                    context.Context
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	u.ctx = ctx
	return u.inner.Begin(ctx)
}

// Commit commits the transaction and flushes events on success
func (u *unitOfWork) Commit() error {
	if err := u.inner.Commit(); err != nil {
		u.transactionalPublisher.Discard()
		return err
	}

	// Events are best-effort once the transaction has committed
	if err := u.transactionalPublisher.Flush(u.ctx); err != nil {
		log.WithError(err).Error("Failed to publish committed events")
	}
	return nil
}

// Rollback rolls back the transaction and discards pending events
func (u *unitOfWork) Rollback() error {
	u.transactionalPublisher.Discard()
	return u.inner.Rollback()
}

// Repository getters - delegate to inner UnitOfWork
func (u *unitOfWork) RoundRepository() interfaces.RoundRepository {
	return u.inner.RoundRepository()
}

func (u *unitOfWork) ParticipantRepository() interfaces.ParticipantRepository {
	return u.inner.ParticipantRepository()
}

func (u *unitOfWork) DrawRepository() interfaces.DrawRepository {
	return u.inner.DrawRepository()
}

func (u *unitOfWork) WithdrawalRepository() interfaces.WithdrawalRepository {
	return u.inner.WithdrawalRepository()
}

func (u *unitOfWork) PayoutRepository() interfaces.PayoutRepository {
	return u.inner.PayoutRepository()
}

// EventBus returns the transactional event publisher
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	return u.transactionalPublisher
}
