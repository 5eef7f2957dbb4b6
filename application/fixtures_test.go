package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"lottoledger/application"
	"lottoledger/domain/entities"
	"lottoledger/domain/services"
	"lottoledger/domain/testhelpers"

	"github.com/shopspring/decimal"
)

var (
	admin = entities.Address("0x00000000000000000000000000000000000000ad")
	alice = entities.Address("0x00000000000000000000000000000000000000a1")
	bob   = entities.Address("0x00000000000000000000000000000000000000b0")

	minStake  = decimal.RequireFromString("100000000000000")
	roundOpen = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

// memoryFactory hands out transactional units of work over one in-memory store
type memoryFactory struct {
	store *testhelpers.MemoryStore
}

func (f *memoryFactory) Create() application.UnitOfWork {
	return testhelpers.NewMemoryUnitOfWork(f.store)
}

// fixedRandom always draws the same index
type fixedRandom int64

func (f fixedRandom) Int63n(_ context.Context, _ int64) (int64, error) {
	return int64(f), nil
}

// recordingMetrics keeps the result code of every operation
type recordingMetrics struct {
	mu         sync.Mutex
	operations map[string][]string
	minted     int64
	payouts    int
	workerRuns []string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{operations: make(map[string][]string)}
}

func (m *recordingMetrics) RecordOperation(operation string, err error, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	code := "ok"
	if err != nil {
		code = string(entities.ErrorCodeOf(err))
	}
	m.operations[operation] = append(m.operations[operation], code)
}

func (m *recordingMetrics) RecordRoundTransition(string) {}

func (m *recordingMetrics) RecordTicketsMinted(count int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.minted += count
}

func (m *recordingMetrics) RecordPayout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payouts++
}

func (m *recordingMetrics) RecordWorkerRun(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workerRuns = append(m.workerRuns, outcome)
}

// recordingAnnouncer captures settlement announcements
type recordingAnnouncer struct {
	settled   []int64
	winners   []entities.Address
	cancelled []int64
}

func (a *recordingAnnouncer) AnnounceSettlement(_ context.Context, round *entities.Round, ticket *entities.WinningTicket) error {
	if ticket == nil {
		a.cancelled = append(a.cancelled, round.ID)
		return nil
	}
	a.settled = append(a.settled, round.ID)
	a.winners = append(a.winners, ticket.WinnerAddress)
	return nil
}

type harness struct {
	store   *testhelpers.MemoryStore
	ops     *application.LotteryOperations
	metrics *recordingMetrics
	clock   *time.Time
}

func newHarness(t *testing.T, cfg application.OperationsConfig) *harness {
	t.Helper()

	store := testhelpers.NewMemoryStore()
	metrics := newRecordingMetrics()
	now := roundOpen

	if cfg.Random == nil {
		cfg.Random = fixedRandom(0)
	}
	cfg.Defaults = services.RoundDefaults{MinStake: minStake, MaxPlayers: 100}
	cfg.Metrics = metrics
	h := &harness{store: store, metrics: metrics, clock: &now}
	cfg.Clock = func() time.Time { return *h.clock }
	h.ops = application.NewLotteryOperations(&memoryFactory{store: store}, cfg)
	return h
}

func (h *harness) advance(d time.Duration) {
	*h.clock = h.clock.Add(d)
}
