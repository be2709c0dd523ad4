package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"iccrelay-go/internal/api"
	"iccrelay-go/internal/config"
	"iccrelay-go/internal/loader"
	"iccrelay-go/internal/logging"
	"iccrelay-go/internal/service"
	"iccrelay-go/internal/worker"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.Build(logging.Options{
		Level:       cfg.LogLevel,
		File:        cfg.LogFile,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// Global panic recovery
	defer service.RecoverAndLog(logger, "main")

	profiles, err := config.LoadProfiles(cfg.ProfilesFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("🔧 initializing services", zap.String("env", cfg.NodeEnv))

	journal, err := openJournal(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := journal.Close(); err != nil {
			logger.Warn("⚠️ closing journal", zap.Error(err))
		}
	}()

	tracker := service.NewTradeTracker(logger, cfg.ClosedRetention)
	pool := worker.NewPool(cfg.NotifyWorkers, cfg.NotifyQueue, 30*time.Second, logger)

	var notifier service.Notifier = service.NewLogNotifier(logger)
	var telegram *service.TelegramService
	if cfg.TelegramEnabled() {
		telegram, err = service.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramChatID, tracker, logger)
		if err != nil {
			return err
		}
		notifier = telegram
	} else {
		logger.Warn("⚠️ telegram not configured, notifications go to the log")
	}

	dispatcher := service.NewDispatcher(service.DispatcherOptions{
		Profiles: profiles,
		Tracker:  tracker,
		Notifier: notifier,
		Journal:  journal,
		Queue:    pool,
		Logger:   logger,
	})

	scheduler, err := loader.NewScheduler(dispatcher, cfg.DailyCron, cfg.WeeklyCron, cfg.CronTimezone, logger)
	if err != nil {
		return err
	}

	server := api.NewServer(":"+cfg.Port, dispatcher, tracker, logger)

	logger.Info("✅ all services initialized")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return pool.Run(gctx) })
	g.Go(func() error { return scheduler.Run(gctx) })
	g.Go(func() error { return server.Run(gctx) })
	if telegram != nil && cfg.TelegramCommands {
		g.Go(func() error { return telegram.RunCommands(gctx) })
	}

	err = g.Wait()
	logger.Info("🛑 shutdown complete")
	return err
}

func openJournal(ctx context.Context, cfg *config.Config, logger *zap.Logger) (service.Journal, error) {
	switch cfg.JournalDriver {
	case config.JournalMongo:
		return service.NewMongoJournal(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	case config.JournalSQLite:
		return service.NewSQLiteJournal(cfg.SQLitePath, logger)
	}
	return service.NopJournal{}, nil
}
