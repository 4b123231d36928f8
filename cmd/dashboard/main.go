package main

import (
	"context"
	"flag"
	"log"
	"os"

	"FinDash/internal/di"
	"FinDash/pkg/config"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	// missing quote credentials stop the dashboard before it serves anything
	if err := cfg.ValidateDashboard(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("env=%s symbols=%v", cfg.Environment, cfg.Dashboard.Symbols)

	app, cleanup, err := di.InitializeDashboard(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}
	defer cleanup()

	if err := app.Run(context.Background()); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
