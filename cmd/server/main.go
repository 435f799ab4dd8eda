package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ledgercore/backend/internal/application/alerting"
	appinv "github.com/ledgercore/backend/internal/application/inventory"
	appnotif "github.com/ledgercore/backend/internal/application/notification"
	"github.com/ledgercore/backend/internal/infrastructure/config"
	"github.com/ledgercore/backend/internal/infrastructure/logger"
	"github.com/ledgercore/backend/internal/infrastructure/persistence"
	"github.com/ledgercore/backend/internal/infrastructure/scheduler"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ledgercore engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	txScope := persistence.NewGormTransactionScope(db.DB)

	// The engine's document and ledger operations are called in-process
	// by the embedding application; this binary runs the background
	// machinery: the stock mutation observer and the periodic sweeps.
	stockService := appinv.NewStockLedgerService(txScope, logger.Named(log, "stock"))
	notificationService := appnotif.NewNotificationService(txScope, logger.Named(log, "notification"))

	// Alert observer: stock mutations feed low-stock and negative-stock
	// notifications after each committed transaction
	recipients := parseRecipients(cfg.Alerts.Recipients, log)
	observer := alerting.NewObserver(notificationService, recipients, logger.Named(log, "alerts"))
	stockService.RegisterObserver(observer)

	// Periodic sweeps: expiry, catalog-wide low stock, notification cleanup
	var sweepScheduler *scheduler.SweepScheduler
	if cfg.Sweep.Enabled {
		locker := persistence.NewPgAdvisoryLocker(db.DB)
		sweepService := alerting.NewSweepService(txScope, notificationService, locker, alerting.SweepConfig{
			ExpiryWindow:          cfg.Sweep.ExpiryWindow,
			NotificationRetention: cfg.Sweep.NotificationRetention,
			Recipients:            recipients,
		}, logger.Named(log, "sweep"))

		sweepScheduler = scheduler.NewSweepScheduler(scheduler.Config{
			Enabled:  cfg.Sweep.Enabled,
			Interval: cfg.Sweep.Interval,
		}, sweepService, logger.Named(log, "scheduler"))

		if err := sweepScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sweep scheduler", zap.Error(err))
		}
	}

	log.Info("Engine ready")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sweepScheduler != nil {
		if err := sweepScheduler.Stop(ctx); err != nil {
			log.Error("Error stopping sweep scheduler", zap.Error(err))
		}
	}

	log.Info("Engine exited gracefully")
}

// parseRecipients converts configured recipient IDs, dropping malformed ones
func parseRecipients(raw []string, log *zap.Logger) []uuid.UUID {
	recipients := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			log.Warn("Ignoring invalid alert recipient", zap.String("value", s))
			continue
		}
		recipients = append(recipients, id)
	}
	return recipients
}
