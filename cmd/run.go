package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"lottoledger/api"
	"lottoledger/application"
	"lottoledger/config"
	"lottoledger/database"
	"lottoledger/domain/interfaces"
	"lottoledger/domain/services"
	"lottoledger/infrastructure"
	"lottoledger/infrastructure/observability"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

const healthRefreshInterval = 15 * time.Second

// Run initializes and starts the application
func Run(ctx context.Context) error {
	// Load configuration
	cfg := config.Get()
	if err := ConfigureLogging(cfg); err != nil {
		return err
	}
	log.WithField("environment", cfg.Environment).Info("Starting lottoledger...")

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	if err := database.RunMigrationsWithURL(cfg.GetDatabaseURL()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize metrics
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	metrics := observability.GetMetrics()

	// Initialize message bus
	mapper := infrastructure.NewEventSubjectMapper()
	var bus infrastructure.MessagePublisher
	var busState infrastructure.ConnectionState
	if cfg.NATSServers != "" {
		log.WithField("servers", cfg.NATSServers).Info("Connecting to NATS...")
		natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer func() {
			if err := natsClient.Close(); err != nil {
				log.WithError(err).Error("Error closing NATS connection")
			}
		}()
		if err := natsClient.EnsureStream(infrastructure.LotteryEventStream, mapper.StreamSubjects()); err != nil {
			return fmt.Errorf("failed to ensure event stream: %w", err)
		}
		bus = natsClient
		busState = natsClient
	} else {
		log.Warn("NATS_SERVERS not set, ledger records will not leave the process")
		bus = infrastructure.NewNoopMessagePublisher()
	}

	eventPublisher := infrastructure.NewNATSEventPublisher(bus, mapper, metrics)
	uowFactory := infrastructure.NewUnitOfWorkFactory(db, eventPublisher)

	// Initialize ledger operations
	ops := application.NewLotteryOperations(uowFactory, application.OperationsConfig{
		Random: randomSource(cfg),
		Defaults: services.RoundDefaults{
			DurationHours: cfg.DefaultDurationHours,
			MinStake:      cfg.DefaultMinStake,
			MaxPlayers:    cfg.DefaultMaxPlayers,
		},
		AdminAddresses: cfg.AdminAddresses,
		Metrics:        metrics,
	})

	// Optional discord announcer
	var announcer application.RoundAnnouncer
	if cfg.DiscordToken != "" {
		discordAnnouncer, session, err := infrastructure.NewDiscordAnnouncer(cfg.DiscordToken, cfg.DiscordChannelID)
		if err != nil {
			return fmt.Errorf("failed to initialize discord announcer: %w", err)
		}
		defer session.Close()
		announcer = discordAnnouncer
		log.WithField("channelID", cfg.DiscordChannelID).Info("Discord announcer enabled")
	}

	// Start round close worker
	worker := application.NewRoundCloseWorker(ops, cfg.RoundCloseSchedule, cfg.AutoSettle, announcer)
	stopWorker, err := worker.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start round close worker: %w", err)
	}
	defer stopWorker()

	// Health service
	health := infrastructure.NewHealthService(db, busState)
	go health.Run(ctx, healthRefreshInterval)

	grpcServer := grpc.NewServer()
	health.Register(grpcServer)
	grpcListener, err := net.Listen("tcp", cfg.GRPCHealthAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.GRPCHealthAddr, err)
	}

	// HTTP interface
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(api.NewHTTPHandler(ops, health)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.WithField("addr", cfg.GRPCHealthAddr).Info("gRPC health server listening")
		if err := grpcServer.Serve(grpcListener); err != nil {
			errCh <- fmt.Errorf("grpc health server: %w", err)
		}
	}()
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down lottoledger...")
	case runErr = <-errCh:
		log.WithError(runErr).Error("Server failed, shutting down")
	}

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}
	health.Shutdown()
	grpcServer.GracefulStop()

	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}

	log.Info("Shutdown completed")
	return runErr
}

// ConfigureLogging applies the configured logrus level and format
func ConfigureLogging(cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// randomSource picks the draw entropy. A seed is only accepted outside production.
func randomSource(cfg *config.Config) interfaces.RandomSource {
	if cfg.RandomSeed != nil {
		log.WithField("seed", *cfg.RandomSeed).Warn("Using seeded draw source; draws are reproducible")
		return services.NewSeededRandomSource(*cfg.RandomSeed)
	}
	return services.NewCryptoRandomSource()
}
