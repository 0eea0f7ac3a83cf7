package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"tavla/api"
	"tavla/config"
	"tavla/database"
	"tavla/events"
	"tavla/repository"
	"tavla/repository/memory"
	"tavla/service"

	"github.com/sirupsen/logrus"
)

// Run initializes and starts the wallet service
func Run(ctx context.Context) error {
	logrus.Info("Starting wallet service...")

	// Load configuration
	cfg := config.Get()

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize storage. Without a database URL the service runs on a
	// volatile in-memory store; state is lost on restart.
	var uowFactory service.UnitOfWorkFactory
	var db *database.DB
	if cfg.DatabaseURL != "" {
		logrus.Info("Connecting to database...")
		var err error
		db, err = database.NewConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		logrus.Info("Database connection established")
		uowFactory = repository.NewUnitOfWorkFactory(db, eventBus)
	} else {
		logrus.Warn("No DATABASE_URL configured, using volatile in-memory store")
		uowFactory = memory.NewUnitOfWorkFactory(memory.NewStore(), eventBus)
	}

	// Initialize the NATS forwarder if configured
	var forwarder *events.NATSForwarder
	if cfg.NATSURL != "" {
		logrus.WithField("url", cfg.NATSURL).Info("Connecting to NATS...")
		var err error
		forwarder, err = events.NewNATSForwarder(cfg.NATSURL, "wallet")
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		forwarder.SubscribeAll(eventBus)
		logrus.Info("NATS forwarder connected")
	}

	// Initialize services
	walletService := service.NewWalletService(uowFactory, cfg.StartingBalance)
	escrowService := service.NewEscrowService(uowFactory)
	mintService := service.NewMintService(uowFactory, cfg.DailyMintCap)
	backingService := service.NewBackingService(uowFactory)
	settlementService := service.NewSettlementService(uowFactory, mintService, backingService, cfg.WinMintAmount, cfg.PlayerShareRate)
	forfeitService := service.NewForfeitService(uowFactory, settlementService)
	guard := service.NewIdempotencyGuard(uowFactory)

	// Initialize the HTTP API
	handler := api.NewHandler(
		walletService,
		escrowService,
		settlementService,
		backingService,
		mintService,
		forfeitService,
		guard,
		cfg.RakeRate,
		cfg.PlayerShareRate,
	)
	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.NewRouter(handler),
	}

	serverErr := make(chan error, 1)
	go func() {
		logrus.WithField("addr", cfg.ListenAddr).Infof("Listening in %s mode", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	// Cleanup resources
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP server shutdown error")
	}

	if forwarder != nil {
		forwarder.Close()
	}

	if db != nil {
		logrus.Info("Closing database connection...")
		db.Close()
	}

	logrus.Info("Shutdown completed")
	return nil
}
