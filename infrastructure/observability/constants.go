package observability

// Metric name prefixes
const (
	MetricPrefix = "lottoledger"
)

// Metric names
const (
	// Ledger operation metrics
	OperationsTotal   = MetricPrefix + ".operations_total"
	OperationDuration = MetricPrefix + ".operation_duration"

	// Round metrics
	RoundTransitionsTotal = MetricPrefix + ".rounds.transitions_total"
	TicketsMintedTotal    = MetricPrefix + ".tickets.minted_total"
	PayoutsTotal          = MetricPrefix + ".payouts_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"

	// Worker metrics
	WorkerRunsTotal = MetricPrefix + ".worker.runs_total"
)

// Label keys
const (
	LabelOperation = "operation"
	LabelCode      = "code"
	LabelPhase     = "phase"
	LabelEventType = "event_type"
	LabelOutcome   = "outcome"
)

// Result codes for operations that were not rejected by the ledger
const (
	CodeOK       = "ok"
	CodeInternal = "internal"
)

// Worker run outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
