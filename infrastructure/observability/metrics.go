package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lottoledger/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

// MetricsProvider manages OpenTelemetry metrics for the ledger service
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	operationsCounter            metric.Int64Counter
	operationDurationHist        metric.Float64Histogram
	roundTransitionsCounter      metric.Int64Counter
	ticketsMintedCounter         metric.Int64Counter
	payoutsCounter               metric.Int64Counter
	natsMessagesPublishedCounter metric.Int64Counter
	workerRunsCounter            metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
			),
		),
	)

	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("lottoledger")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.operationsCounter, err = mp.meter.Int64Counter(
		OperationsTotal,
		metric.WithDescription("Total number of ledger operations by result code"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create operations counter: %w", err)
	}

	mp.operationDurationHist, err = mp.meter.Float64Histogram(
		OperationDuration,
		metric.WithDescription("Duration of ledger operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create operation duration histogram: %w", err)
	}

	mp.roundTransitionsCounter, err = mp.meter.Int64Counter(
		RoundTransitionsTotal,
		metric.WithDescription("Total number of round phase transitions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create round transitions counter: %w", err)
	}

	mp.ticketsMintedCounter, err = mp.meter.Int64Counter(
		TicketsMintedTotal,
		metric.WithDescription("Total number of tickets minted"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create tickets minted counter: %w", err)
	}

	mp.payoutsCounter, err = mp.meter.Int64Counter(
		PayoutsTotal,
		metric.WithDescription("Total number of completed withdrawals"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create payouts counter: %w", err)
	}

	mp.natsMessagesPublishedCounter, err = mp.meter.Int64Counter(
		NATSMessagesPublishedTotal,
		metric.WithDescription("Total number of NATS messages published"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create NATS messages published counter: %w", err)
	}

	mp.workerRunsCounter, err = mp.meter.Int64Counter(
		WorkerRunsTotal,
		metric.WithDescription("Total number of round close worker runs"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create worker runs counter: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordOperation records one ledger operation under the result code of err
func (mp *MetricsProvider) RecordOperation(operation string, err error, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	mp.operationsCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelOperation, operation),
			attribute.String(LabelCode, ResultCode(err)),
		),
	)
	mp.operationDurationHist.Record(context.Background(), duration.Seconds(),
		metric.WithAttributes(
			attribute.String(LabelOperation, operation),
		),
	)
}

// RecordRoundTransition records a round entering a phase
func (mp *MetricsProvider) RecordRoundTransition(phase string) {
	if !mp.isEnabled() {
		return
	}

	mp.roundTransitionsCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelPhase, phase),
		),
	)
}

// RecordTicketsMinted adds minted tickets
func (mp *MetricsProvider) RecordTicketsMinted(count int64) {
	if !mp.isEnabled() {
		return
	}

	mp.ticketsMintedCounter.Add(context.Background(), count)
}

// RecordPayout records a completed withdrawal
func (mp *MetricsProvider) RecordPayout() {
	if !mp.isEnabled() {
		return
	}

	mp.payoutsCounter.Add(context.Background(), 1)
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}

	mp.natsMessagesPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelEventType, eventType),
		),
	)
}

// RecordWorkerRun records one round close worker pass
func (mp *MetricsProvider) RecordWorkerRun(outcome string) {
	if !mp.isEnabled() {
		return
	}

	mp.workerRunsCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelOutcome, outcome),
		),
	)
}

// MeasureOperation returns a function that records the operation when called with its error.
// Usage:
//
//	done := mp.MeasureOperation("mint")
//	defer func() { done(err) }()
func (mp *MetricsProvider) MeasureOperation(operation string) func(err error) {
	start := time.Now()
	return func(err error) {
		mp.RecordOperation(operation, err, time.Since(start))
	}
}

// isEnabled checks if metrics are enabled and instruments exist
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.config.OTelEnabled && mp.meter != nil
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider. Its recording methods are safe on nil.
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}
