package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FinDash/internal/di"
	"FinDash/internal/repository"
	"FinDash/pkg/config"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	schedule := flag.String("schedule", "", "cron schedule with seconds field; empty runs once")
	history := flag.Int("history", 0, "print the last N runs from the ledger and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *schedule != "" {
		cfg.Training.Schedule = *schedule
	}
	if err := cfg.ValidateTraining(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if *history > 0 {
		if err := printHistory(cfg, *history); err != nil {
			log.Fatalf("history: %v", err)
		}
		return
	}

	if cfg.Training.Schedule != "" {
		app, cleanup, err := di.InitializeScheduledTrainer(cfg)
		if err != nil {
			log.Fatalf("trainer initialization failed: %v", err)
		}
		defer cleanup()
		if err := app.Run(context.Background()); err != nil {
			log.Printf("trainer error: %v", err)
			os.Exit(1)
		}
		return
	}

	batch, cleanup, err := di.InitializeBatchTrainer(cfg)
	if err != nil {
		log.Fatalf("trainer initialization failed: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := batch.Run(ctx); err != nil {
		log.Printf("training run error: %v", err)
		cleanup()
		os.Exit(1)
	}
}

func printHistory(cfg *config.Config, n int) error {
	if cfg.Training.LedgerPath == "" {
		return fmt.Errorf("training.ledger_path is not set")
	}
	ledger, err := repository.NewSQLiteRunLedger(cfg.Training.LedgerPath)
	if err != nil {
		return err
	}
	defer ledger.Close()

	runs, err := ledger.RecentRuns(context.Background(), n)
	if err != nil {
		return err
	}
	for _, r := range runs {
		finished := "running"
		if r.FinishedAt != nil {
			finished = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Printf("%s  %s  trained=%d skipped=%d failed=%d  %s\n",
			r.StartedAt.Local().Format(time.DateTime), r.RunID, r.Trained, r.Skipped, r.Failed, finished)
	}
	return nil
}
