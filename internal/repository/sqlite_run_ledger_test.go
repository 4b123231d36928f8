package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"FinDash/internal/domain/models"
)

func TestSQLiteRunLedger(t *testing.T) {
	ctx := context.Background()
	ledger, err := NewSQLiteRunLedger(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer ledger.Close()

	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	if err := ledger.StartRun(ctx, "run-1", start); err != nil {
		t.Fatalf("start: %v", err)
	}

	rep := models.RunReport{RunID: "run-1", StartedAt: start}
	for _, r := range []models.TickerResult{
		{RunID: "run-1", Ticker: "AAL", Outcome: models.OutcomeTrained, Artifacts: models.ArtifactKinds, FinishedAt: start},
		{RunID: "run-1", Ticker: "XYZ", Outcome: models.OutcomeSkippedInsufficientData, Reason: "not enough data", FinishedAt: start},
	} {
		if err := ledger.RecordResult(ctx, r); err != nil {
			t.Fatalf("record: %v", err)
		}
		rep.Add(r)
	}
	rep.FinishedAt = start.Add(time.Minute)
	if err := ledger.FinishRun(ctx, rep); err != nil {
		t.Fatalf("finish: %v", err)
	}

	runs, err := ledger.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 1 || runs[0].Trained != 1 || runs[0].Skipped != 1 || runs[0].FinishedAt == nil {
		t.Fatalf("unexpected runs %+v", runs)
	}
	if !runs[0].StartedAt.Equal(start) {
		t.Fatalf("unexpected start %s", runs[0].StartedAt)
	}

	outcomes, err := ledger.Outcomes(ctx, "run-1")
	if err != nil {
		t.Fatalf("outcomes: %v", err)
	}
	if outcomes[models.OutcomeTrained] != 1 || outcomes[models.OutcomeSkippedInsufficientData] != 1 {
		t.Fatalf("unexpected outcomes %v", outcomes)
	}
}
