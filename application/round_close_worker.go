package application

import (
	"context"
	"fmt"
	"time"

	"lottoledger/domain/entities"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// settleScanLimit bounds how many recent rounds a pass inspects for unfinished settlements
const settleScanLimit = 20

// RoundCloseWorker closes expired rounds on a cron schedule and, with auto-settle,
// draws and deposits their prizes
type RoundCloseWorker struct {
	ops        *LotteryOperations
	schedule   string
	autoSettle bool
	announcer  RoundAnnouncer
}

// CloseReport summarizes one worker pass
type CloseReport struct {
	Deactivated []int64
	Cancelled   []int64
	Settled     []int64
	Failed      int
}

// NewRoundCloseWorker creates a new round close worker. announcer may be nil.
func NewRoundCloseWorker(ops *LotteryOperations, schedule string, autoSettle bool, announcer RoundAnnouncer) *RoundCloseWorker {
	return &RoundCloseWorker{
		ops:        ops,
		schedule:   schedule,
		autoSettle: autoSettle,
		announcer:  announcer,
	}
}

// Start schedules the worker. The returned function stops the schedule and waits for a running pass.
func (w *RoundCloseWorker) Start(ctx context.Context) (func(), error) {
	scheduler := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	_, err := scheduler.AddFunc(w.schedule, func() {
		if _, err := w.RunOnce(ctx); err != nil {
			log.WithError(err).Error("Round close pass failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid round close schedule %q: %w", w.schedule, err)
	}

	scheduler.Start()
	log.WithFields(log.Fields{
		"schedule":   w.schedule,
		"autoSettle": w.autoSettle,
	}).Info("Round close worker started")

	return func() {
		<-scheduler.Stop().Done()
		log.Info("Round close worker stopped")
	}, nil
}

// RunOnce closes every round whose end time has passed. Rounds without tickets are
// cancelled instead of closed, since they could never be drawn.
func (w *RoundCloseWorker) RunOnce(ctx context.Context) (*CloseReport, error) {
	report := &CloseReport{}

	expired, err := w.ops.ExpiredActiveRounds(ctx, w.ops.now())
	if err != nil {
		w.ops.metrics.RecordWorkerRun(OutcomeFailure)
		return nil, fmt.Errorf("failed to list expired rounds: %w", err)
	}

	for _, round := range expired {
		if round.TotalTickets == 0 {
			cancelled, err := w.ops.cancel(ctx, nil, round.ID)
			if err != nil {
				log.WithError(err).WithField("roundID", round.ID).Error("Failed to cancel empty expired round")
				report.Failed++
				continue
			}
			report.Cancelled = append(report.Cancelled, round.ID)
			w.announce(ctx, cancelled, nil)
			continue
		}

		if _, err := w.ops.deactivate(ctx, nil, round.ID); err != nil {
			log.WithError(err).WithField("roundID", round.ID).Error("Failed to deactivate expired round")
			report.Failed++
			continue
		}
		report.Deactivated = append(report.Deactivated, round.ID)
	}

	if w.autoSettle {
		w.settlePending(ctx, report)
	}

	outcome := OutcomeSuccess
	if report.Failed > 0 {
		outcome = OutcomeFailure
	}
	w.ops.metrics.RecordWorkerRun(outcome)

	log.WithFields(log.Fields{
		"deactivated": len(report.Deactivated),
		"cancelled":   len(report.Cancelled),
		"settled":     len(report.Settled),
		"failed":      report.Failed,
	}).Info("Completed round close pass")

	return report, nil
}

// settlePending settles closed rounds that still hold an undrawn or undeposited prize
func (w *RoundCloseWorker) settlePending(ctx context.Context, report *CloseReport) {
	history, err := w.ops.RoundHistory(ctx, settleScanLimit)
	if err != nil {
		log.WithError(err).Error("Failed to list rounds for settlement")
		report.Failed++
		return
	}

	for _, summary := range history {
		round := summary.Round
		if !needsSettlement(round) {
			continue
		}

		ticket, err := w.ops.settle(ctx, round.ID)
		if err != nil {
			log.WithError(err).WithField("roundID", round.ID).Error("Failed to settle round")
			report.Failed++
			continue
		}
		report.Settled = append(report.Settled, round.ID)

		if w.announcer == nil {
			continue
		}
		settled, err := w.ops.GetRound(ctx, round.ID)
		if err != nil {
			log.WithError(err).WithField("roundID", round.ID).Warn("Failed to reload settled round")
			continue
		}
		w.announce(ctx, settled, ticket)
	}
}

// announce reports a settled or cancelled round. ticket is nil for cancellations.
// Failures never undo the committed transition.
func (w *RoundCloseWorker) announce(ctx context.Context, round *entities.Round, ticket *entities.WinningTicket) {
	if w.announcer == nil {
		return
	}
	if err := w.announcer.AnnounceSettlement(ctx, round, ticket); err != nil {
		log.WithError(err).WithField("roundID", round.ID).Warn("Failed to announce settlement")
	}
}

func needsSettlement(round *entities.Round) bool {
	if round.TotalTickets == 0 {
		return false
	}
	switch round.Phase {
	case entities.RoundPhaseInactive, entities.RoundPhaseDrawn, entities.RoundPhaseResolved:
		return true
	}
	return false
}
