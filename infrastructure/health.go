package infrastructure

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// LedgerServiceName is the health service name reported for the ledger
const LedgerServiceName = "lottoledger.Ledger"

// Pinger is satisfied by *pgxpool.Pool
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectionState is satisfied by *NATSClient
type ConnectionState interface {
	IsConnected() bool
}

// HealthService tracks dependency health and serves it over the gRPC health protocol
type HealthService struct {
	server *health.Server
	db     Pinger
	bus    ConnectionState
}

// NewHealthService creates a health service. bus may be nil when NATS is disabled.
func NewHealthService(db Pinger, bus ConnectionState) *HealthService {
	return &HealthService{
		server: health.NewServer(),
		db:     db,
		bus:    bus,
	}
}

// Register adds the health service to a gRPC server
func (h *HealthService) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Refresh probes the database and message bus and updates the served status
func (h *HealthService) Refresh(ctx context.Context) bool {
	healthy := true

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.db.Ping(pingCtx); err != nil {
		log.WithError(err).Warn("Database health check failed")
		healthy = false
	}

	if h.bus != nil && !h.bus.IsConnected() {
		log.Warn("NATS health check failed: not connected")
		healthy = false
	}

	status := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(LedgerServiceName, status)

	return healthy
}

// Run refreshes the status every interval until ctx is done
func (h *HealthService) Run(ctx context.Context, interval time.Duration) {
	h.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Refresh(ctx)
		}
	}
}

// Check reports the current status of the named service
func (h *HealthService) Check(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := h.server.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

// Healthy reports whether the last refresh found every dependency reachable
func (h *HealthService) Healthy(ctx context.Context) bool {
	status, err := h.Check(ctx, LedgerServiceName)
	return err == nil && status == healthpb.HealthCheckResponse_SERVING
}

// Shutdown marks every service as not serving
func (h *HealthService) Shutdown() {
	h.server.Shutdown()
}
