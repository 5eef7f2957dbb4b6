package application

import (
	"context"
	"fmt"
	"time"

	"lottoledger/application/dto"
	"lottoledger/domain/entities"
	"lottoledger/domain/interfaces"
	"lottoledger/domain/services"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// LotteryOperations runs every ledger operation in its own unit of work. A failed
// operation rolls back and its events are never published.
type LotteryOperations struct {
	uowFactory      UnitOfWorkFactory
	random          interfaces.RandomSource
	defaults        services.RoundDefaults
	admins          map[entities.Address]struct{}
	restricted      bool
	transferFactory TransferFactory
	metrics         OperationMetrics
	now             func() time.Time
}

// OperationsConfig holds the collaborators of LotteryOperations. Nil fields fall back to defaults.
type OperationsConfig struct {
	Random          interfaces.RandomSource
	Defaults        services.RoundDefaults
	AdminAddresses  []string
	TransferFactory TransferFactory
	Metrics         OperationMetrics
	Clock           func() time.Time
}

// CreateRoundRequest is the admin input for opening a round. Zero values use the configured defaults.
type CreateRoundRequest struct {
	StartTime     *time.Time
	DurationHours int64
	MinStake      decimal.Decimal
	MaxPlayers    int64
}

// ledgerServices are the domain services bound to one unit of work
type ledgerServices struct {
	rounds      interfaces.RoundRegistryService
	tickets     interfaces.TicketLedgerService
	draws       interfaces.DrawEngineService
	withdrawals interfaces.WithdrawalService
}

// NewLotteryOperations creates the operation facade
func NewLotteryOperations(uowFactory UnitOfWorkFactory, cfg OperationsConfig) *LotteryOperations {
	ops := &LotteryOperations{
		uowFactory:      uowFactory,
		random:          cfg.Random,
		defaults:        cfg.Defaults,
		admins:          make(map[entities.Address]struct{}),
		restricted:      len(cfg.AdminAddresses) > 0,
		transferFactory: cfg.TransferFactory,
		metrics:         cfg.Metrics,
		now:             cfg.Clock,
	}
	if ops.random == nil {
		ops.random = services.NewCryptoRandomSource()
	}
	if ops.transferFactory == nil {
		ops.transferFactory = func(uow UnitOfWork) interfaces.PrizeTransfer {
			return services.NewPayoutTransfer(uow.PayoutRepository())
		}
	}
	if ops.metrics == nil {
		ops.metrics = noopMetrics{}
	}
	if ops.now == nil {
		ops.now = func() time.Time { return time.Now().UTC() }
	}
	for _, raw := range cfg.AdminAddresses {
		admin, err := entities.ParseAddress(raw)
		if err != nil {
			log.WithField("address", raw).Warn("Ignoring invalid admin address")
			continue
		}
		ops.admins[admin] = struct{}{}
	}
	return ops
}

// CreateRound opens a new round created by caller
func (o *LotteryOperations) CreateRound(ctx context.Context, caller entities.Address, req CreateRoundRequest) (*entities.Round, error) {
	var round *entities.Round
	err := o.run(ctx, "create_round", func(svc *ledgerServices) error {
		if err := o.authorize(caller); err != nil {
			return err
		}
		if err := requireWholeAmount(req.MinStake); err != nil {
			return err
		}

		start := o.now()
		if req.StartTime != nil {
			start = req.StartTime.UTC()
		}

		var err error
		round, err = svc.rounds.CreateRound(ctx, interfaces.CreateRoundParams{
			Creator:       caller,
			StartTime:     start,
			DurationHours: req.DurationHours,
			MinStake:      req.MinStake,
			MaxPlayers:    req.MaxPlayers,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	o.metrics.RecordRoundTransition(string(entities.RoundPhaseCreated))
	log.WithFields(log.Fields{
		"operation":  "create_round",
		"roundID":    round.ID,
		"creator":    caller,
		"endTime":    round.EndTime,
		"minStake":   round.MinStake.String(),
		"maxPlayers": round.MaxPlayers,
	}).Info("Round created")
	return round, nil
}

// Deactivate closes minting on a round
func (o *LotteryOperations) Deactivate(ctx context.Context, caller entities.Address, roundID int64) (*entities.Round, error) {
	return o.deactivate(ctx, o.authorize(caller), roundID)
}

// deactivate and the other lower-case admin operations take the caller's authorization
// result as guard. The round close worker acts as the system and passes nil.
func (o *LotteryOperations) deactivate(ctx context.Context, guard error, roundID int64) (*entities.Round, error) {
	var round *entities.Round
	var changed bool
	err := o.run(ctx, "deactivate", func(svc *ledgerServices) error {
		if guard != nil {
			return guard
		}
		before, err := svc.rounds.GetRound(ctx, roundID)
		if err != nil {
			return err
		}
		changed = before.IsActive()
		round, err = svc.rounds.Deactivate(ctx, roundID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		o.metrics.RecordRoundTransition(string(entities.RoundPhaseInactive))
	}
	log.WithFields(log.Fields{
		"operation":    "deactivate",
		"roundID":      roundID,
		"totalTickets": round.TotalTickets,
		"changed":      changed,
	}).Info("Round deactivated")
	return round, nil
}

// Cancel voids an open round that has no tickets
func (o *LotteryOperations) Cancel(ctx context.Context, caller entities.Address, roundID int64) (*entities.Round, error) {
	return o.cancel(ctx, o.authorize(caller), roundID)
}

func (o *LotteryOperations) cancel(ctx context.Context, guard error, roundID int64) (*entities.Round, error) {
	var round *entities.Round
	err := o.run(ctx, "cancel", func(svc *ledgerServices) error {
		if guard != nil {
			return guard
		}
		var err error
		round, err = svc.rounds.Cancel(ctx, roundID)
		return err
	})
	if err != nil {
		return nil, err
	}

	o.metrics.RecordRoundTransition(string(entities.RoundPhaseCancelled))
	log.WithFields(log.Fields{
		"operation": "cancel",
		"roundID":   roundID,
	}).Info("Round cancelled")
	return round, nil
}

// SetCapacity changes the player cap of the open round
func (o *LotteryOperations) SetCapacity(ctx context.Context, caller entities.Address, roundID, maxPlayers int64) (*entities.Round, error) {
	var round *entities.Round
	err := o.run(ctx, "set_capacity", func(svc *ledgerServices) error {
		if err := o.authorize(caller); err != nil {
			return err
		}
		var err error
		round, err = svc.rounds.SetCapacity(ctx, roundID, maxPlayers)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"operation":  "set_capacity",
		"roundID":    roundID,
		"maxPlayers": maxPlayers,
	}).Info("Round capacity changed")
	return round, nil
}

// Mint converts the caller's stake into tickets of a round
func (o *LotteryOperations) Mint(ctx context.Context, caller entities.Address, roundID int64, stake decimal.Decimal) (*interfaces.MintResult, error) {
	var result *interfaces.MintResult
	err := o.run(ctx, "mint", func(svc *ledgerServices) error {
		if err := requireWholeAmount(stake); err != nil {
			return err
		}
		var err error
		result, err = svc.tickets.Mint(ctx, roundID, caller, stake)
		return err
	})
	if err != nil {
		return nil, err
	}

	o.metrics.RecordTicketsMinted(result.TicketsMinted)
	log.WithFields(log.Fields{
		"operation":     "mint",
		"roundID":       roundID,
		"player":        caller,
		"ticketsMinted": result.TicketsMinted,
		"ticketCount":   result.Participant.TicketCount,
		"totalTickets":  result.TotalTickets,
	}).Info("Tickets minted")
	return result, nil
}

// TriggerDraw samples the winning index of a closed round
func (o *LotteryOperations) TriggerDraw(ctx context.Context, caller entities.Address, roundID int64) (*entities.WinningTicket, error) {
	return o.triggerDraw(ctx, o.authorize(caller), roundID)
}

func (o *LotteryOperations) triggerDraw(ctx context.Context, guard error, roundID int64) (*entities.WinningTicket, error) {
	var ticket *entities.WinningTicket
	err := o.run(ctx, "trigger_draw", func(svc *ledgerServices) error {
		if guard != nil {
			return guard
		}
		var err error
		ticket, err = svc.draws.TriggerDraw(ctx, roundID)
		return err
	})
	if err != nil {
		return nil, err
	}

	o.metrics.RecordRoundTransition(string(entities.RoundPhaseDrawn))
	log.WithFields(log.Fields{
		"operation":    "trigger_draw",
		"roundID":      roundID,
		"winningIndex": ticket.WinningIndex,
		"totalTickets": ticket.TotalTickets,
	}).Info("Draw triggered")
	return ticket, nil
}

// ResolveWinner maps the drawn index to its owner
func (o *LotteryOperations) ResolveWinner(ctx context.Context, caller entities.Address, roundID, winningIndex int64) (*entities.WinningTicket, error) {
	return o.resolveWinner(ctx, o.authorize(caller), roundID, winningIndex)
}

func (o *LotteryOperations) resolveWinner(ctx context.Context, guard error, roundID, winningIndex int64) (*entities.WinningTicket, error) {
	var ticket *entities.WinningTicket
	err := o.run(ctx, "resolve_winner", func(svc *ledgerServices) error {
		if guard != nil {
			return guard
		}
		var err error
		ticket, err = svc.draws.ResolveWinner(ctx, roundID, winningIndex)
		return err
	})
	if err != nil {
		return nil, err
	}

	o.metrics.RecordRoundTransition(string(entities.RoundPhaseResolved))
	log.WithFields(log.Fields{
		"operation":    "resolve_winner",
		"roundID":      roundID,
		"winningIndex": winningIndex,
		"winner":       ticket.WinnerAddress,
	}).Info("Winner resolved")
	return ticket, nil
}

// DepositPrize credits the pool to the winner's pending withdrawal
func (o *LotteryOperations) DepositPrize(ctx context.Context, caller entities.Address, roundID int64) (*entities.PendingWithdrawal, error) {
	return o.depositPrize(ctx, o.authorize(caller), roundID)
}

func (o *LotteryOperations) depositPrize(ctx context.Context, guard error, roundID int64) (*entities.PendingWithdrawal, error) {
	var pending *entities.PendingWithdrawal
	err := o.run(ctx, "deposit_prize", func(svc *ledgerServices) error {
		if guard != nil {
			return guard
		}
		var err error
		pending, err = svc.draws.DepositPrize(ctx, roundID)
		return err
	})
	if err != nil {
		return nil, err
	}

	o.metrics.RecordRoundTransition(string(entities.RoundPhaseDeposited))
	log.WithFields(log.Fields{
		"operation": "deposit_prize",
		"roundID":   roundID,
		"winner":    pending.Address,
		"amount":    pending.Amount.String(),
	}).Info("Prize deposited")
	return pending, nil
}

// Withdraw pays out the caller's pending balance for a round
func (o *LotteryOperations) Withdraw(ctx context.Context, caller entities.Address, roundID int64) (decimal.Decimal, error) {
	var amount decimal.Decimal
	err := o.run(ctx, "withdraw", func(svc *ledgerServices) error {
		var err error
		amount, err = svc.withdrawals.Withdraw(ctx, roundID, caller)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}

	o.metrics.RecordPayout()
	log.WithFields(log.Fields{
		"operation": "withdraw",
		"roundID":   roundID,
		"winner":    caller,
		"amount":    amount.String(),
	}).Info("Withdrawal paid")
	return amount, nil
}

// GetRound returns a round by ID
func (o *LotteryOperations) GetRound(ctx context.Context, roundID int64) (*entities.Round, error) {
	var round *entities.Round
	err := o.run(ctx, "get_round", func(svc *ledgerServices) error {
		var err error
		round, err = svc.rounds.GetRound(ctx, roundID)
		return err
	})
	return round, err
}

// GetCurrentRound returns the most recently created round
func (o *LotteryOperations) GetCurrentRound(ctx context.Context) (*entities.Round, error) {
	var round *entities.Round
	err := o.run(ctx, "get_current_round", func(svc *ledgerServices) error {
		var err error
		round, err = svc.rounds.GetCurrentRound(ctx)
		return err
	})
	return round, err
}

// RoundHistory lists rounds newest first together with their draw outcome and prize
func (o *LotteryOperations) RoundHistory(ctx context.Context, limit int) ([]*dto.RoundSummary, error) {
	var summaries []*dto.RoundSummary
	err := o.run(ctx, "round_history", func(svc *ledgerServices) error {
		rounds, err := svc.rounds.ListRounds(ctx, limit)
		if err != nil {
			return err
		}
		summaries = make([]*dto.RoundSummary, 0, len(rounds))
		for _, round := range rounds {
			ticket, err := svc.draws.WinningTicket(ctx, round.ID)
			if err != nil {
				return err
			}
			summaries = append(summaries, dto.NewRoundSummary(round, ticket))
		}
		return nil
	})
	return summaries, err
}

// Participants lists a round's participants in first-participation order
func (o *LotteryOperations) Participants(ctx context.Context, roundID int64) ([]*entities.Participant, error) {
	var participants []*entities.Participant
	err := o.run(ctx, "participants", func(svc *ledgerServices) error {
		var err error
		participants, err = svc.tickets.Participants(ctx, roundID)
		return err
	})
	return participants, err
}

// ParticipantAt returns the participant at a first-participation position
func (o *LotteryOperations) ParticipantAt(ctx context.Context, roundID, ordinal int64) (*entities.Participant, error) {
	var participant *entities.Participant
	err := o.run(ctx, "participant_at", func(svc *ledgerServices) error {
		if _, err := svc.rounds.GetRound(ctx, roundID); err != nil {
			return err
		}
		var err error
		participant, err = svc.tickets.ParticipantAt(ctx, roundID, ordinal)
		return err
	})
	return participant, err
}

// AccountTickets returns an address's ticket count in a round and whether it participates
func (o *LotteryOperations) AccountTickets(ctx context.Context, roundID int64, address entities.Address) (int64, bool, error) {
	var count int64
	var active bool
	err := o.run(ctx, "account_tickets", func(svc *ledgerServices) error {
		if _, err := svc.rounds.GetRound(ctx, roundID); err != nil {
			return err
		}
		var err error
		if count, err = svc.tickets.TicketCount(ctx, roundID, address); err != nil {
			return err
		}
		active, err = svc.tickets.IsActive(ctx, roundID, address)
		return err
	})
	return count, active, err
}

// TicketRanges returns the ticket partition of a closed round
func (o *LotteryOperations) TicketRanges(ctx context.Context, roundID int64) ([]entities.TicketRange, error) {
	var ranges []entities.TicketRange
	err := o.run(ctx, "ticket_ranges", func(svc *ledgerServices) error {
		var err error
		ranges, err = svc.draws.ComputeRanges(ctx, roundID)
		return err
	})
	return ranges, err
}

// RangeAt returns the ticket range of the participant at ordinal
func (o *LotteryOperations) RangeAt(ctx context.Context, roundID, ordinal int64) (entities.TicketRange, error) {
	var ticketRange entities.TicketRange
	err := o.run(ctx, "range_at", func(svc *ledgerServices) error {
		var err error
		ticketRange, err = svc.draws.RangeAt(ctx, roundID, ordinal)
		return err
	})
	return ticketRange, err
}

// WinningTicket returns the draw outcome of a round, or nil before the draw
func (o *LotteryOperations) WinningTicket(ctx context.Context, roundID int64) (*entities.WinningTicket, error) {
	var ticket *entities.WinningTicket
	err := o.run(ctx, "winning_ticket", func(svc *ledgerServices) error {
		if _, err := svc.rounds.GetRound(ctx, roundID); err != nil {
			return err
		}
		var err error
		ticket, err = svc.draws.WinningTicket(ctx, roundID)
		return err
	})
	return ticket, err
}

// PendingWithdrawal returns the amount owed to address for a round
func (o *LotteryOperations) PendingWithdrawal(ctx context.Context, roundID int64, address entities.Address) (decimal.Decimal, error) {
	var amount decimal.Decimal
	err := o.run(ctx, "pending_withdrawal", func(svc *ledgerServices) error {
		var err error
		amount, err = svc.withdrawals.PendingWithdrawal(ctx, roundID, address)
		return err
	})
	return amount, err
}

// PendingByAddress lists an address's unpaid balances across rounds
func (o *LotteryOperations) PendingByAddress(ctx context.Context, address entities.Address) ([]*entities.PendingWithdrawal, error) {
	var pending []*entities.PendingWithdrawal
	err := o.run(ctx, "pending_by_address", func(svc *ledgerServices) error {
		var err error
		pending, err = svc.withdrawals.PendingByAddress(ctx, address)
		return err
	})
	return pending, err
}

// ExpiredActiveRounds returns the open rounds whose end time has passed
func (o *LotteryOperations) ExpiredActiveRounds(ctx context.Context, now time.Time) ([]*entities.Round, error) {
	var rounds []*entities.Round
	err := o.run(ctx, "expired_rounds", func(svc *ledgerServices) error {
		var err error
		rounds, err = svc.rounds.ExpiredActiveRounds(ctx, now)
		return err
	})
	return rounds, err
}

// settle drives a closed round through draw, resolution and deposit, resuming from
// whatever phase an earlier interrupted pass left it in. Each step commits separately.
func (o *LotteryOperations) settle(ctx context.Context, roundID int64) (*entities.WinningTicket, error) {
	for {
		round, err := o.GetRound(ctx, roundID)
		if err != nil {
			return nil, err
		}

		switch round.Phase {
		case entities.RoundPhaseInactive:
			if _, err := o.triggerDraw(ctx, nil, roundID); err != nil {
				return nil, err
			}
		case entities.RoundPhaseDrawn:
			ticket, err := o.WinningTicket(ctx, roundID)
			if err != nil {
				return nil, err
			}
			if ticket == nil {
				return nil, fmt.Errorf("round %d is drawn but has no winning ticket", roundID)
			}
			if _, err := o.resolveWinner(ctx, nil, roundID, ticket.WinningIndex); err != nil {
				return nil, err
			}
		case entities.RoundPhaseResolved:
			if _, err := o.depositPrize(ctx, nil, roundID); err != nil {
				return nil, err
			}
		case entities.RoundPhaseDeposited, entities.RoundPhaseCompleted:
			return o.WinningTicket(ctx, roundID)
		default:
			return nil, entities.NewLedgerError(entities.CodeInvalidRoundPhase, "round %d cannot be settled in phase %s", roundID, round.Phase)
		}
	}
}

// run begins a unit of work, builds the services over it and commits only if fn succeeds
func (o *LotteryOperations) run(ctx context.Context, operation string, fn func(svc *ledgerServices) error) (err error) {
	start := time.Now()
	defer func() {
		o.metrics.RecordOperation(operation, err, time.Since(start))
	}()

	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := fn(o.servicesFor(uow)); err != nil {
		if entities.ErrorCodeOf(err) == "" {
			log.WithError(err).WithField("operation", operation).Error("Ledger operation failed")
		}
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (o *LotteryOperations) servicesFor(uow UnitOfWork) *ledgerServices {
	return &ledgerServices{
		rounds: services.NewRoundRegistryService(
			uow.RoundRepository(),
			uow.EventBus(),
			o.defaults,
		),
		tickets: services.NewTicketLedgerService(
			uow.RoundRepository(),
			uow.ParticipantRepository(),
			uow.EventBus(),
		),
		draws: services.NewDrawEngineService(
			uow.RoundRepository(),
			uow.ParticipantRepository(),
			uow.DrawRepository(),
			uow.WithdrawalRepository(),
			o.random,
			uow.EventBus(),
		),
		withdrawals: services.NewWithdrawalService(
			uow.RoundRepository(),
			uow.WithdrawalRepository(),
			o.transferFactory(uow),
			uow.EventBus(),
		),
	}
}

// authorize rejects callers outside a non-empty admin list
func (o *LotteryOperations) authorize(caller entities.Address) error {
	if !o.restricted {
		return nil
	}
	if _, ok := o.admins[caller]; !ok {
		return entities.NewLedgerError(entities.CodeUnauthorized, "%s is not a round administrator", caller)
	}
	return nil
}

// requireWholeAmount rejects fractional base-unit amounts
func requireWholeAmount(amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(0)) {
		return entities.NewLedgerError(entities.CodeInvalidAmount, "amount %s is not a whole number of base units", amount)
	}
	return nil
}
