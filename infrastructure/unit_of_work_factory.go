package infrastructure

import (
	"lottoledger/application"
	"lottoledger/database"
	"lottoledger/domain/interfaces"
	"lottoledger/repository"
)

// repositoryFactory creates repository units of work bound to an event publisher
type repositoryFactory interface {
	CreateWithPublisher(eventPublisher interfaces.EventPublisher) application.UnitOfWork
}

// UnitOfWorkFactory implements the application.UnitOfWorkFactory interface
// It creates UnitOfWork instances that handle both database transactions and event publishing
type UnitOfWorkFactory struct {
	repoFactory    repositoryFactory
	eventPublisher interfaces.EventPublisher
}

// NewUnitOfWorkFactory creates a new UnitOfWorkFactory
func NewUnitOfWorkFactory(db *database.DB, eventPublisher interfaces.EventPublisher) *UnitOfWorkFactory {
	return newUnitOfWorkFactory(repository.NewUnitOfWorkFactory(db), eventPublisher)
}

func newUnitOfWorkFactory(repoFactory repositoryFactory, eventPublisher interfaces.EventPublisher) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		repoFactory:    repoFactory,
		eventPublisher: eventPublisher,
	}
}

// Create creates a new UnitOfWork with its own transactional event publisher
func (f *UnitOfWorkFactory) Create() application.UnitOfWork {
	transactionalPublisher := NewNATSTransactionalPublisher(f.eventPublisher)

	return &unitOfWork{
		inner:                  f.repoFactory.CreateWithPublisher(transactionalPublisher),
		transactionalPublisher: transactionalPublisher,
	}
}
