package models

import "time"

// ArtifactKind names one persisted model of a ticker.
type ArtifactKind string

const (
	ArtifactRiskModel     ArtifactKind = "risk_model"
	ArtifactScaler        ArtifactKind = "scaler"
	ArtifactAnomalyModel  ArtifactKind = "anomaly_model"
	ArtifactForecastModel ArtifactKind = "forecast_model"
)

// ArtifactKinds lists kinds in write order.
var ArtifactKinds = []ArtifactKind{ArtifactRiskModel, ArtifactScaler, ArtifactAnomalyModel, ArtifactForecastModel}

// Outcome classifies what happened to one ticker.
type Outcome string

const (
	OutcomeTrained                       Outcome = "trained"
	OutcomeSkippedInsufficientData       Outcome = "skipped_insufficient_data"
	OutcomeSkippedDegenerateDistribution Outcome = "skipped_degenerate_distribution"
	OutcomeFailed                        Outcome = "failed"
)

// Skipped reports whether the outcome is one of the skip kinds.
func (o Outcome) Skipped() bool {
	return o == OutcomeSkippedInsufficientData || o == OutcomeSkippedDegenerateDistribution
}

// TickerResult is the per-ticker outcome of a training run.
type TickerResult struct {
	RunID           string         `json:"run_id"`
	Ticker          string         `json:"ticker"`
	Outcome         Outcome        `json:"outcome"`
	Reason          string         `json:"reason,omitempty"`
	Rows            int            `json:"rows"`
	TrainRows       int            `json:"train_rows"`
	TestRows        int            `json:"test_rows"`
	TestAccuracy    float64        `json:"test_accuracy"`
	AnomalyFraction float64        `json:"anomaly_fraction"`
	Artifacts       []ArtifactKind `json:"artifacts,omitempty"`
	Duration        time.Duration  `json:"duration_ns"`
	FinishedAt      time.Time      `json:"finished_at"`
}

// RunReport summarises one batch run.
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []TickerResult
	Trained    int
	Skipped    int
	Failed     int
}

// Add appends r and updates the counters.
func (rep *RunReport) Add(r TickerResult) {
	rep.Results = append(rep.Results, r)
	switch {
	case r.Outcome == OutcomeTrained:
		rep.Trained++
	case r.Outcome.Skipped():
		rep.Skipped++
	default:
		rep.Failed++
	}
}

// RunSummary is a ledger row for a finished or in-progress run.
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt *time.Time
	Trained    int
	Skipped    int
	Failed     int
}
