package application

import (
	"context"
	"time"

	"lottoledger/domain/entities"
	"lottoledger/domain/interfaces"
)

// OperationMetrics receives the outcome of ledger operations
type OperationMetrics interface {
	RecordOperation(operation string, err error, duration time.Duration)
	RecordRoundTransition(phase string)
	RecordTicketsMinted(count int64)
	RecordPayout()
	RecordWorkerRun(outcome string)
}

// TransferFactory builds the prize transfer used by one withdrawal. It receives the
// withdrawing unit of work so the transfer can write inside the same transaction.
type TransferFactory func(uow UnitOfWork) interfaces.PrizeTransfer

// RoundAnnouncer is notified of settled rounds, outside any transaction
type RoundAnnouncer interface {
	AnnounceSettlement(ctx context.Context, round *entities.Round, ticket *entities.WinningTicket) error
}

// noopMetrics discards everything
type noopMetrics struct{}

func (noopMetrics) RecordOperation(string, error, time.Duration) {}
func (noopMetrics) RecordRoundTransition(string)                 {}
func (noopMetrics) RecordTicketsMinted(int64)                    {}
func (noopMetrics) RecordPayout()                                {}
func (noopMetrics) RecordWorkerRun(string)                       {}

// Worker run outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
