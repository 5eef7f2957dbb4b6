package testhelpers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"lottoledger/domain/entities"
	"lottoledger/domain/events"

	"github.com/shopspring/decimal"
)

// MemoryStore keeps every ledger table in memory. Its repository views share one mutex,
// so service tests can run whole round scenarios without Postgres.
type MemoryStore struct {
	txMu         sync.Mutex // held by an open MemoryUnitOfWork
	mu           sync.Mutex
	nextRoundID  int64
	nextPayoutID int64
	rounds       map[int64]*entities.Round
	participants map[int64][]*entities.Participant
	draws        map[int64]*entities.WinningTicket
	withdrawals  map[withdrawalKey]*entities.PendingWithdrawal
	payouts      []*entities.Payout
	Events       []events.Event
}

type withdrawalKey struct {
	roundID int64
	address entities.Address
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rounds:       make(map[int64]*entities.Round),
		participants: make(map[int64][]*entities.Participant),
		draws:        make(map[int64]*entities.WinningTicket),
		withdrawals:  make(map[withdrawalKey]*entities.PendingWithdrawal),
	}
}

// Rounds returns the round repository view
func (s *MemoryStore) Rounds() *MemoryRoundRepository { return &MemoryRoundRepository{s} }

// Participants returns the participant repository view
func (s *MemoryStore) Participants() *MemoryParticipantRepository {
	return &MemoryParticipantRepository{s}
}

// Draws returns the draw repository view
func (s *MemoryStore) Draws() *MemoryDrawRepository { return &MemoryDrawRepository{s} }

// Withdrawals returns the withdrawal repository view
func (s *MemoryStore) Withdrawals() *MemoryWithdrawalRepository {
	return &MemoryWithdrawalRepository{s}
}

// Payouts returns the payout repository view
func (s *MemoryStore) Payouts() *MemoryPayoutRepository { return &MemoryPayoutRepository{s} }

// Publish records events in order
func (s *MemoryStore) Publish(event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, event)
	return nil
}

// EventTypes lists the types of all published events
func (s *MemoryStore) EventTypes() []events.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]events.EventType, 0, len(s.Events))
	for _, e := range s.Events {
		types = append(types, e.Type())
	}
	return types
}

func (s *MemoryStore) roundView(r *entities.Round) *entities.Round {
	out := *r
	out.TotalTickets = 0
	out.NumActivePlayers = int64(len(s.participants[r.ID]))
	for _, p := range s.participants[r.ID] {
		out.TotalTickets += p.TicketCount
	}
	return &out
}

// MemoryRoundRepository implements RoundRepository over a MemoryStore
type MemoryRoundRepository struct{ s *MemoryStore }

func (r *MemoryRoundRepository) Create(_ context.Context, round *entities.Round) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextRoundID++
	now := time.Now().UTC()
	round.ID = r.s.nextRoundID
	round.CreatedAt = now
	round.UpdatedAt = now
	stored := *round
	r.s.rounds[round.ID] = &stored
	return nil
}

func (r *MemoryRoundRepository) GetByID(_ context.Context, id int64) (*entities.Round, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	round, ok := r.s.rounds[id]
	if !ok {
		return nil, nil
	}
	return r.s.roundView(round), nil
}

func (r *MemoryRoundRepository) GetActive(_ context.Context) (*entities.Round, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, round := range r.s.rounds {
		if round.IsActive() {
			return r.s.roundView(round), nil
		}
	}
	return nil, nil
}

func (r *MemoryRoundRepository) GetLatest(_ context.Context) (*entities.Round, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	round, ok := r.s.rounds[r.s.nextRoundID]
	if !ok {
		return nil, nil
	}
	return r.s.roundView(round), nil
}

func (r *MemoryRoundRepository) UpdatePhase(_ context.Context, id int64, from, to entities.RoundPhase) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	round, ok := r.s.rounds[id]
	if !ok || round.Phase != from {
		return fmt.Errorf("round %d not in phase %s", id, from)
	}
	round.Phase = to
	round.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRoundRepository) UpdateMaxPlayers(_ context.Context, id int64, maxPlayers int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	round, ok := r.s.rounds[id]
	if !ok {
		return fmt.Errorf("round %d not found", id)
	}
	round.MaxPlayers = maxPlayers
	return nil
}

func (r *MemoryRoundRepository) List(_ context.Context, limit int) ([]*entities.Round, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rounds []*entities.Round
	for id := r.s.nextRoundID; id > 0 && len(rounds) < limit; id-- {
		if round, ok := r.s.rounds[id]; ok {
			rounds = append(rounds, r.s.roundView(round))
		}
	}
	return rounds, nil
}

func (r *MemoryRoundRepository) GetExpiredActive(_ context.Context, now time.Time) ([]*entities.Round, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rounds []*entities.Round
	for _, round := range r.s.rounds {
		if round.IsActive() && round.HasExpired(now) {
			rounds = append(rounds, r.s.roundView(round))
		}
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].ID < rounds[j].ID })
	return rounds, nil
}

// MemoryParticipantRepository implements ParticipantRepository over a MemoryStore
type MemoryParticipantRepository struct{ s *MemoryStore }

func (r *MemoryParticipantRepository) Get(_ context.Context, roundID int64, address entities.Address) (*entities.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.participants[roundID] {
		if p.Address == address {
			out := *p
			return &out, nil
		}
	}
	return nil, nil
}

func (r *MemoryParticipantRepository) GetByOrdinal(_ context.Context, roundID int64, ordinal int64) (*entities.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := r.s.participants[roundID]
	if ordinal < 0 || ordinal >= int64(len(list)) {
		return nil, nil
	}
	out := *list[ordinal]
	return &out, nil
}

func (r *MemoryParticipantRepository) ListByRound(_ context.Context, roundID int64) ([]*entities.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entities.Participant, 0, len(r.s.participants[roundID]))
	for _, p := range r.s.participants[roundID] {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryParticipantRepository) Append(_ context.Context, participant *entities.Participant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.participants[participant.RoundID] {
		if p.Address == participant.Address {
			return fmt.Errorf("participant %s already in round %d", participant.Address, participant.RoundID)
		}
	}
	now := time.Now().UTC()
	participant.Ordinal = int64(len(r.s.participants[participant.RoundID]))
	participant.FirstParticipatedAt = now
	participant.UpdatedAt = now
	stored := *participant
	r.s.participants[participant.RoundID] = append(r.s.participants[participant.RoundID], &stored)
	return nil
}

func (r *MemoryParticipantRepository) AddTickets(_ context.Context, roundID int64, address entities.Address, tickets int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.participants[roundID] {
		if p.Address == address {
			p.TicketCount += tickets
			p.UpdatedAt = time.Now().UTC()
			return p.TicketCount, nil
		}
	}
	return 0, fmt.Errorf("participant %s not in round %d", address, roundID)
}

func (r *MemoryParticipantRepository) CountByRound(_ context.Context, roundID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.participants[roundID])), nil
}

func (r *MemoryParticipantRepository) TotalTickets(_ context.Context, roundID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var total int64
	for _, p := range r.s.participants[roundID] {
		total += p.TicketCount
	}
	return total, nil
}

// MemoryDrawRepository implements DrawRepository over a MemoryStore
type MemoryDrawRepository struct{ s *MemoryStore }

func (r *MemoryDrawRepository) Create(_ context.Context, ticket *entities.WinningTicket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.draws[ticket.RoundID]; ok {
		return fmt.Errorf("round %d already drawn", ticket.RoundID)
	}
	stored := *ticket
	r.s.draws[ticket.RoundID] = &stored
	return nil
}

func (r *MemoryDrawRepository) GetByRound(_ context.Context, roundID int64) (*entities.WinningTicket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ticket, ok := r.s.draws[roundID]
	if !ok {
		return nil, nil
	}
	out := *ticket
	return &out, nil
}

func (r *MemoryDrawRepository) SetWinner(_ context.Context, roundID int64, winner entities.Address, resolvedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ticket, ok := r.s.draws[roundID]
	if !ok {
		return fmt.Errorf("round %d not drawn", roundID)
	}
	ticket.Resolve(winner, resolvedAt)
	return nil
}

// MemoryWithdrawalRepository implements WithdrawalRepository over a MemoryStore
type MemoryWithdrawalRepository struct{ s *MemoryStore }

func (r *MemoryWithdrawalRepository) Get(_ context.Context, roundID int64, address entities.Address) (*entities.PendingWithdrawal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry, ok := r.s.withdrawals[withdrawalKey{roundID, address}]
	if !ok {
		return nil, nil
	}
	out := *entry
	return &out, nil
}

func (r *MemoryWithdrawalRepository) Credit(_ context.Context, roundID int64, address entities.Address, amount decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := withdrawalKey{roundID, address}
	entry, ok := r.s.withdrawals[key]
	if !ok {
		entry = &entities.PendingWithdrawal{RoundID: roundID, Address: address, Amount: decimal.Zero}
		r.s.withdrawals[key] = entry
	}
	entry.Amount = entry.Amount.Add(amount)
	entry.CreditedAt = time.Now().UTC()
	return nil
}

func (r *MemoryWithdrawalRepository) Zero(_ context.Context, roundID int64, address entities.Address, withdrawnAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry, ok := r.s.withdrawals[withdrawalKey{roundID, address}]
	if !ok {
		return fmt.Errorf("no withdrawal entry for %s in round %d", address, roundID)
	}
	entry.Amount = decimal.Zero
	entry.WithdrawnAt = &withdrawnAt
	return nil
}

func (r *MemoryWithdrawalRepository) ListPendingByAddress(_ context.Context, address entities.Address) ([]*entities.PendingWithdrawal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entities.PendingWithdrawal
	for key, entry := range r.s.withdrawals {
		if key.address == address && entry.Amount.IsPositive() {
			cp := *entry
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoundID > out[j].RoundID })
	return out, nil
}

// MemoryPayoutRepository implements PayoutRepository over a MemoryStore
type MemoryPayoutRepository struct{ s *MemoryStore }

func (r *MemoryPayoutRepository) Record(_ context.Context, payout *entities.Payout) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextPayoutID++
	payout.ID = r.s.nextPayoutID
	stored := *payout
	r.s.payouts = append(r.s.payouts, &stored)
	return nil
}

func (r *MemoryPayoutRepository) ListByRound(_ context.Context, roundID int64) ([]*entities.Payout, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entities.Payout
	for _, p := range r.s.payouts {
		if p.RoundID == roundID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}
