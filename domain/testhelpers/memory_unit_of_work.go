package testhelpers

import (
	"context"
	"fmt"

	"lottoledger/domain/entities"
	"lottoledger/domain/events"
	"lottoledger/domain/interfaces"
)

// MemoryUnitOfWork gives a MemoryStore transaction semantics: units of work run one at a
// time, Rollback restores the state captured at Begin, and events reach the store only on Commit.
type MemoryUnitOfWork struct {
	store    *MemoryStore
	snapshot *memorySnapshot
	pending  []events.Event
	started  bool
}

type memorySnapshot struct {
	nextRoundID  int64
	nextPayoutID int64
	rounds       map[int64]*entities.Round
	participants map[int64][]*entities.Participant
	draws        map[int64]*entities.WinningTicket
	withdrawals  map[withdrawalKey]*entities.PendingWithdrawal
	payouts      []*entities.Payout
}

// NewMemoryUnitOfWork creates a unit of work over store
func NewMemoryUnitOfWork(store *MemoryStore) *MemoryUnitOfWork {
	return &MemoryUnitOfWork{store: store}
}

func (u *MemoryUnitOfWork) Begin(_ context.Context) error {
	if u.started {
		return fmt.Errorf("transaction already started")
	}
	u.store.txMu.Lock()
	u.snapshot = u.store.capture()
	u.started = true
	return nil
}

func (u *MemoryUnitOfWork) Commit() error {
	if !u.started {
		return fmt.Errorf("no transaction to commit")
	}
	for _, event := range u.pending {
		if err := u.store.Publish(event); err != nil {
			return err
		}
	}
	u.finish()
	return nil
}

func (u *MemoryUnitOfWork) Rollback() error {
	if !u.started {
		return nil
	}
	u.store.restore(u.snapshot)
	u.finish()
	return nil
}

func (u *MemoryUnitOfWork) finish() {
	u.pending = nil
	u.snapshot = nil
	u.started = false
	u.store.txMu.Unlock()
}

func (u *MemoryUnitOfWork) RoundRepository() interfaces.RoundRepository {
	return u.store.Rounds()
}

func (u *MemoryUnitOfWork) ParticipantRepository() interfaces.ParticipantRepository {
	return u.store.Participants()
}

func (u *MemoryUnitOfWork) DrawRepository() interfaces.DrawRepository {
	return u.store.Draws()
}

func (u *MemoryUnitOfWork) WithdrawalRepository() interfaces.WithdrawalRepository {
	return u.store.Withdrawals()
}

func (u *MemoryUnitOfWork) PayoutRepository() interfaces.PayoutRepository {
	return u.store.Payouts()
}

func (u *MemoryUnitOfWork) EventBus() interfaces.EventPublisher {
	return memoryEventBus{u}
}

type memoryEventBus struct{ u *MemoryUnitOfWork }

func (b memoryEventBus) Publish(event events.Event) error {
	b.u.pending = append(b.u.pending, event)
	return nil
}

func (s *MemoryStore) capture() *memorySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &memorySnapshot{
		nextRoundID:  s.nextRoundID,
		nextPayoutID: s.nextPayoutID,
		rounds:       make(map[int64]*entities.Round, len(s.rounds)),
		participants: make(map[int64][]*entities.Participant, len(s.participants)),
		draws:        make(map[int64]*entities.WinningTicket, len(s.draws)),
		withdrawals:  make(map[withdrawalKey]*entities.PendingWithdrawal, len(s.withdrawals)),
		payouts:      make([]*entities.Payout, 0, len(s.payouts)),
	}
	for id, r := range s.rounds {
		cp := *r
		snap.rounds[id] = &cp
	}
	for id, list := range s.participants {
		copied := make([]*entities.Participant, 0, len(list))
		for _, p := range list {
			cp := *p
			copied = append(copied, &cp)
		}
		snap.participants[id] = copied
	}
	for id, d := range s.draws {
		cp := *d
		snap.draws[id] = &cp
	}
	for key, w := range s.withdrawals {
		cp := *w
		snap.withdrawals[key] = &cp
	}
	for _, p := range s.payouts {
		cp := *p
		snap.payouts = append(snap.payouts, &cp)
	}
	return snap
}

func (s *MemoryStore) restore(snap *memorySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRoundID = snap.nextRoundID
	s.nextPayoutID = snap.nextPayoutID
	s.rounds = snap.rounds
	s.participants = snap.participants
	s.draws = snap.draws
	s.withdrawals = snap.withdrawals
	s.payouts = snap.payouts
}
