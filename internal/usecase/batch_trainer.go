package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"FinDash/internal/domain/models"
	drepo "FinDash/internal/domain/repository"
	"FinDash/internal/services/features"
	applogger "FinDash/pkg/logger"

	"github.com/google/uuid"
)

// BatchTrainer trains every ticker of a price table, one after another.
type BatchTrainer struct {
	source    drepo.PriceSource
	trainer   *TickerTrainer
	opts      features.Options
	ledger    drepo.RunLedger
	publisher drepo.ResultPublisher
	metrics   drepo.Metrics
	l         *applogger.Logger
	newRunID  func() string
	now       func() time.Time
}

// NewBatchTrainer creates a batch trainer. ledger and publisher may be nil.
func NewBatchTrainer(
	source drepo.PriceSource,
	trainer *TickerTrainer,
	opts features.Options,
	ledger drepo.RunLedger,
	publisher drepo.ResultPublisher,
	metrics drepo.Metrics,
	l *applogger.Logger,
) *BatchTrainer {
	if l == nil {
		l = applogger.Nop()
	}
	return &BatchTrainer{
		source:    source,
		trainer:   trainer,
		opts:      opts,
		ledger:    ledger,
		publisher: publisher,
		metrics:   metrics,
		l:         l,
		newRunID:  uuid.NewString,
		now:       time.Now,
	}
}

// Run loads the price table once and trains each ticker in first-appearance order.
// Per-ticker failures never abort the run; only a load failure or ctx cancellation does.
func (b *BatchTrainer) Run(ctx context.Context) (*models.RunReport, error) {
	start := b.now()
	records, err := b.source.LoadPrices(ctx)
	if err != nil {
		b.metrics.RecordError("load_prices")
		return nil, fmt.Errorf("load prices: %w", err)
	}

	rep := &models.RunReport{RunID: b.newRunID(), StartedAt: start}
	if b.ledger != nil {
		if err := b.ledger.StartRun(ctx, rep.RunID, start); err != nil {
			b.l.Warn("ledger start failed", applogger.String("run_id", rep.RunID), applogger.Error(err))
		}
	}

	tickers, groups := models.GroupByTicker(records)
	b.l.Info("training run started",
		applogger.String("run_id", rep.RunID),
		applogger.Int("records", len(records)),
		applogger.Int("tickers", len(tickers)),
	)

	var runErr error
	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		r := b.trainTicker(rep.RunID, ticker, groups[ticker])
		rep.Add(r)
		b.metrics.RecordTickerOutcome(string(r.Outcome))
		b.record(ctx, r)
	}

	rep.FinishedAt = b.now()
	if b.ledger != nil {
		if err := b.ledger.FinishRun(ctx, *rep); err != nil {
			b.l.Warn("ledger finish failed", applogger.String("run_id", rep.RunID), applogger.Error(err))
		}
	}
	b.metrics.RecordLatency("training_run", rep.FinishedAt.Sub(start).Seconds())
	b.l.Info("training run complete",
		applogger.String("run_id", rep.RunID),
		applogger.Int("trained", rep.Trained),
		applogger.Int("skipped", rep.Skipped),
		applogger.Int("failed", rep.Failed),
		applogger.Duration("duration_ms", rep.FinishedAt.Sub(start)),
	)
	return rep, runErr
}

// trainTicker never panics; a panic in derive or fit becomes a failed result.
func (b *BatchTrainer) trainTicker(runID, ticker string, records []models.PriceRecord) (r models.TickerResult) {
	start := b.now()
	defer func() {
		if p := recover(); p != nil {
			r = models.TickerResult{
				RunID:      runID,
				Ticker:     ticker,
				Outcome:    models.OutcomeFailed,
				Reason:     fmt.Sprintf("panic: %v", p),
				FinishedAt: b.now(),
			}
			r.Duration = r.FinishedAt.Sub(start)
			b.metrics.RecordError("train_panic")
			b.l.Error("❌ training failed",
				applogger.String("ticker", ticker),
				applogger.String("error", r.Reason),
				applogger.String("stack", string(debug.Stack())),
			)
		}
	}()

	ds, err := features.BuildDataset(ticker, records, b.opts)
	if err != nil {
		r = models.TickerResult{RunID: runID, Ticker: ticker, FinishedAt: b.now()}
		r.Duration = r.FinishedAt.Sub(start)
		switch {
		case errors.Is(err, features.ErrInsufficientData):
			r.Outcome, r.Reason = models.OutcomeSkippedInsufficientData, features.ErrInsufficientData.Error()
		case errors.Is(err, features.ErrDegenerateDistribution):
			r.Outcome, r.Reason = models.OutcomeSkippedDegenerateDistribution, features.ErrDegenerateDistribution.Error()
		default:
			r.Outcome, r.Reason = models.OutcomeFailed, err.Error()
			b.metrics.RecordError("derive")
			b.l.Error("❌ training failed", applogger.String("ticker", ticker), applogger.Error(err))
			return r
		}
		b.l.Info("⏭️ skipping ticker", applogger.String("ticker", ticker), applogger.String("reason", r.Reason))
		return r
	}

	r, err = b.trainer.Train(runID, ds)
	if err != nil {
		b.metrics.RecordError("train")
		b.l.Error("❌ training failed",
			applogger.String("ticker", ticker),
			applogger.Int("artifacts_written", len(r.Artifacts)),
			applogger.Error(err),
		)
		return r
	}
	b.l.Info("✅ models trained and saved",
		applogger.String("ticker", ticker),
		applogger.Int("rows", r.Rows),
		applogger.Int("train_rows", r.TrainRows),
		applogger.Int("test_rows", r.TestRows),
		applogger.Float64("test_accuracy", r.TestAccuracy),
		applogger.Float64("anomaly_fraction", r.AnomalyFraction),
		applogger.Duration("duration_ms", r.Duration),
	)
	return r
}

// record appends r to the ledger and publishes it. Failures are logged only.
func (b *BatchTrainer) record(ctx context.Context, r models.TickerResult) {
	if b.ledger != nil {
		if err := b.ledger.RecordResult(ctx, r); err != nil {
			b.metrics.RecordError("ledger")
			b.l.Warn("ledger write failed", applogger.String("ticker", r.Ticker), applogger.Error(err))
		}
	}
	if b.publisher != nil {
		if err := b.publisher.PublishResult(ctx, r); err != nil {
			b.metrics.RecordError("publish")
			b.l.Warn("result publish failed", applogger.String("ticker", r.Ticker), applogger.Error(err))
		}
	}
}
