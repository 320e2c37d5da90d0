package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"tally/internal/amqp"
	"tally/internal/config"
	"tally/internal/currency"
	"tally/internal/log"
	"tally/internal/rates"
	gsrates "tally/internal/rates/google"
	memrates "tally/internal/rates/memory"
	"tally/internal/storage"
	"tally/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	log.SetDefault(logger)

	logger.Info("Starting schedule-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var src rates.Source
	switch cfg.RatesBackend {
	case "sheets":
		client, err := gsrates.New(ctx, cfg.RatesSpreadsheetID, cfg.RatesSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets rate source", "error", err)
			os.Exit(1)
		}
		src = client
		logger.Info("Initialized Google Sheets rate source", "sheet", cfg.RatesSheetName)
	default:
		// Base currency converts 1:1 with itself; everything else
		// falls back until real rates are loaded.
		src = memrates.New(currency.RateTable{currency.Normalize(cfg.BaseCurrency): 1})
		logger.Info("Initialized in-memory rate source")
	}

	var publisher worker.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, reminders will only be logged", "error", err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	w := worker.NewScheduleWorker(repo, src, publisher, cfg.ReminderWindowDays)

	logger.Info("Schedule worker configured",
		"interval", cfg.ScheduleInterval,
		"window_days", cfg.ReminderWindowDays,
		"sqlite_db", cfg.SQLiteDBPath)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
			return nil
		case <-ctx.Done():
			return nil
		}
	})

	g.Go(func() error {
		runPass(ctx, logger, w)
		ticker := time.NewTicker(cfg.ScheduleInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				runPass(ctx, logger, w)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Schedule-worker shutdown complete")
}

func runPass(ctx context.Context, logger *log.Logger, w *worker.ScheduleWorker) {
	if err := w.RefreshRates(ctx); err != nil {
		logger.Error("Rate refresh failed", "error", err)
	}
	result, err := w.ProcessSchedule(ctx, time.Now().UTC())
	if err != nil {
		logger.Error("Schedule pass failed", "error", err)
		return
	}
	logger.Info("Schedule pass finished",
		"reminders", result.RemindersSent,
		"advanced", result.Advanced,
		"ended", result.Ended)
}
