//go:build wireinject
// +build wireinject

package di

import (
	"FinDash/internal/usecase"
	"FinDash/pkg/config"
	"FinDash/pkg/server"

	"github.com/google/wire"
)

var trainingSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvidePriceSource,
	ProvideArtifactStore,
	ProvideModelFactory,
	ProvideTickerTrainer,
	ProvideRunLedger,
	ProvideResultPublisher,
	ProvideBatchTrainer,
)

// InitializeBatchTrainer wires a one-shot training run.
func InitializeBatchTrainer(cfg *config.Config) (*usecase.BatchTrainer, func(), error) {
	wire.Build(trainingSet)
	return nil, nil, nil
}

// InitializeScheduledTrainer wires the training batch behind a cron schedule.
func InitializeScheduledTrainer(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(trainingSet, ProvideTrainerApp)
	return nil, nil, nil
}

// InitializeDashboard wires the dashboard HTTP application.
func InitializeDashboard(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideBarCache,
		ProvideBarSource,
		ProvideDashboardUseCase,
		ProvideDashboardHandler,
		ProvideDashboardApp,
	)
	return nil, nil, nil
}
