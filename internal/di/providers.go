package di

import (
	"context"
	"fmt"
	"strings"
	"time"

	"FinDash/internal/domain/repository"
	dservice "FinDash/internal/domain/service"
	"FinDash/internal/handler/api"
	internalrepo "FinDash/internal/repository"
	"FinDash/internal/scheduler"
	"FinDash/internal/service/alpaca"
	icache "FinDash/internal/service/cache"
	"FinDash/internal/services/features"
	"FinDash/internal/services/ml"
	"FinDash/internal/usecase"
	pkgch "FinDash/pkg/clickhouse"
	"FinDash/pkg/config"
	xhttp "FinDash/pkg/http"
	pkgkafka "FinDash/pkg/kafka"
	applogger "FinDash/pkg/logger"
	"FinDash/pkg/metrics"
	"FinDash/pkg/server"
)

// ProvideLogger builds the app logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithAddress(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithAuth(cfg.ClickHouse.Database, cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithQueryLimit(cfg.ClickHouse.QueryLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvidePriceSource picks the CSV file or the ClickHouse table.
func ProvidePriceSource(cfg *config.Config, l *applogger.Logger) (repository.PriceSource, func(), error) {
	if cfg.Training.Source != "clickhouse" {
		cols := internalrepo.Columns{
			Ticker: cfg.Training.Columns.Ticker,
			Date:   cfg.Training.Columns.Date,
			Close:  cfg.Training.Columns.Close,
			Volume: cfg.Training.Columns.Volume,
		}
		return internalrepo.NewCSVPriceSource(cfg.Training.DataPath, cols), func() {}, nil
	}

	client, err := ProvideClickHouseClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	src := internalrepo.NewClickHousePriceSource(client, cfg.ClickHouse.Database+"."+cfg.ClickHouse.Table)
	src.SetLogger(l)
	cleanup := func() {
		if err := client.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	return src, cleanup, nil
}

// ProvideArtifactStore creates the model directory store.
func ProvideArtifactStore(cfg *config.Config) repository.ArtifactStore {
	return internalrepo.NewFileArtifactStore(cfg.Training.ModelDir, cfg.Training.AtomicCommit)
}

// ProvideModelFactory builds the models every ticker is trained with.
func ProvideModelFactory(cfg *config.Config) dservice.ModelFactory {
	return ml.NewFactory(ml.Options{
		NEstimators:   cfg.Training.NEstimators,
		Contamination: cfg.Training.Contaminate,
		Seed:          cfg.Training.Seed,
	})
}

func ProvideTickerTrainer(store repository.ArtifactStore, factory dservice.ModelFactory, cfg *config.Config) *usecase.TickerTrainer {
	return usecase.NewTickerTrainer(store, factory, cfg.Training.TestSize, cfg.Training.Seed)
}

// ProvideRunLedger opens the SQLite ledger. An empty ledger path disables it.
func ProvideRunLedger(cfg *config.Config) (repository.RunLedger, func(), error) {
	if cfg.Training.LedgerPath == "" {
		return nil, func() {}, nil
	}
	ledger, err := internalrepo.NewSQLiteRunLedger(cfg.Training.LedgerPath)
	if err != nil {
		return nil, nil, fmt.Errorf("run ledger: %w", err)
	}
	return ledger, func() { _ = ledger.Close() }, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers...),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithDelivery(cfg.Kafka.RequiredAcks, cfg.Kafka.MaxAttempts, cfg.Kafka.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideResultPublisher announces ticker results on Kafka when enabled.
func ProvideResultPublisher(cfg *config.Config) (repository.ResultPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := ProvideKafkaProducer(cfg)
	if err != nil {
		return nil, nil, err
	}
	pub := internalrepo.NewKafkaResultPublisher(producer, cfg.Kafka.Topic)
	return pub, func() { _ = pub.Close() }, nil
}

func ProvideBatchTrainer(
	source repository.PriceSource,
	trainer *usecase.TickerTrainer,
	ledger repository.RunLedger,
	publisher repository.ResultPublisher,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.BatchTrainer {
	opts := features.Options{
		Window:  cfg.Training.Window,
		MinRows: cfg.Training.MinRows,
		Tiers:   cfg.Training.Tiers,
	}
	return usecase.NewBatchTrainer(source, trainer, opts, ledger, publisher, m, l)
}

// ProvideTrainerApp serves /healthz and /metrics while the batch runs on its schedule.
func ProvideTrainerApp(cfg *config.Config, l *applogger.Logger, batch *usecase.BatchTrainer) (*server.App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	sched := scheduler.NewScheduler(ctx, batch, l)
	if err := sched.Register(cfg.Training.Schedule); err != nil {
		cancel()
		return nil, err
	}
	return server.New(cfg, l,
		server.OnStart("scheduler", func(context.Context) error {
			sched.Start()
			return nil
		}),
		server.OnStop("scheduler", func(context.Context) error {
			// cancel first so a running batch stops at the next ticker
			cancel()
			sched.Stop()
			return nil
		}),
	), nil
}

// ProvideBarCache uses Redis when enabled, otherwise an in-process cache.
func ProvideBarCache(cfg *config.Config, l *applogger.Logger) (icache.BytesCache, func()) {
	if !cfg.Redis.Enabled {
		return icache.NewTTLCache(), func() {}
	}
	rc := icache.NewRedisCache(icache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		// bars are still served, every request just misses the cache
		l.Warn("redis unreachable", applogger.String("addr", cfg.Redis.Addr), applogger.Error(err))
	}
	return rc, func() { _ = rc.Close() }
}

// ProvideBarSource builds the rate-limited quote client behind the bar cache.
func ProvideBarSource(cfg *config.Config, c icache.BytesCache, m repository.Metrics, l *applogger.Logger) repository.BarSource {
	client := alpaca.New(alpaca.Config{
		APIKey:     cfg.Alpaca.APIKey,
		APISecret:  cfg.Alpaca.APISecret,
		DataURL:    cfg.Alpaca.DataURL,
		Timeout:    cfg.Alpaca.Timeout,
		PageLimit:  cfg.Alpaca.PageLimit,
		RatePerSec: cfg.Alpaca.RatePerSec,
		Burst:      cfg.Alpaca.Burst,
	}, l)
	if cfg.Dashboard.CacheTTL <= 0 {
		return client
	}
	return internalrepo.NewCachedBarSource(client, c, cfg.Dashboard.CacheTTL, m, l)
}

func ProvideDashboardUseCase(bars repository.BarSource, m repository.Metrics, l *applogger.Logger, cfg *config.Config) *usecase.DashboardUseCase {
	symbols := make([]string, len(cfg.Dashboard.Symbols))
	for i, s := range cfg.Dashboard.Symbols {
		symbols[i] = strings.ToUpper(s)
	}
	return usecase.NewDashboardUseCase(bars, usecase.DashboardConfig{
		Allowed:   symbols,
		Defaults:  cfg.Dashboard.DefaultSymbols,
		Lookback:  cfg.Dashboard.Lookback,
		Timeframe: repository.NormalizeTimeframe(cfg.Dashboard.Timeframe),
		Feed:      cfg.Dashboard.Feed,
		MAWindow:  cfg.Dashboard.MAWindow,
		Horizon:   cfg.Dashboard.Projection,
	}, m, l)
}

func ProvideDashboardHandler(uc *usecase.DashboardUseCase, l *applogger.Logger, cfg *config.Config) xhttp.Handler {
	return api.NewDashboardEchoHandler(l, uc,
		api.WithFooter(cfg.Dashboard.Footer),
		api.WithPushInterval(cfg.Dashboard.PushInterval),
	)
}

func ProvideDashboardApp(cfg *config.Config, l *applogger.Logger, h xhttp.Handler) *server.App {
	return server.New(cfg, l, server.WithHandler(h))
}
