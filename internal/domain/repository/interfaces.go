package repository

import (
	"context"
	"errors"
	"time"

	"FinDash/internal/domain/models"
)

// ErrArtifactNotFound is returned by ArtifactStore.Load for a missing artifact.
var ErrArtifactNotFound = errors.New("artifact not found")

// PriceSource loads the full historical price table.
type PriceSource interface {
	LoadPrices(ctx context.Context) ([]models.PriceRecord, error)
}

// ArtifactStore persists fitted models per ticker.
type ArtifactStore interface {
	Open(ticker string) (ArtifactWriter, error)
	Load(kind models.ArtifactKind, ticker string, v interface{}) error
}

// ArtifactWriter writes the artifacts of one ticker. Commit publishes anything still
// staged; Discard drops it. Calling Discard after Commit is a no-op.
type ArtifactWriter interface {
	Write(kind models.ArtifactKind, v interface{}) error
	Commit() error
	Discard() error
}

// RunLedger records training runs and their per-ticker results.
type RunLedger interface {
	StartRun(ctx context.Context, runID string, startedAt time.Time) error
	RecordResult(ctx context.Context, r models.TickerResult) error
	FinishRun(ctx context.Context, report models.RunReport) error
	RecentRuns(ctx context.Context, limit int) ([]models.RunSummary, error)
}

// ResultPublisher announces per-ticker training results.
type ResultPublisher interface {
	PublishResult(ctx context.Context, r models.TickerResult) error
	Close() error
}

// BarsQuery selects bars for one symbol.
type BarsQuery struct {
	Symbol    string
	Timeframe Timeframe
	Start     time.Time
	End       time.Time
	Feed      string
}

// BarSource returns bars for a symbol, oldest first.
type BarSource interface {
	GetBars(ctx context.Context, q BarsQuery) ([]models.Bar, error)
}

type Metrics interface {
	RecordTickerOutcome(outcome string)
	RecordError(kind string)
	RecordFetch(symbol, result string)
	RecordLatency(op string, seconds float64)
}
