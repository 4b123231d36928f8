package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"FinDash/internal/domain/models"
)

type countingRunner struct {
	runs atomic.Int32
	err  error
}

func (r *countingRunner) Run(context.Context) (*models.RunReport, error) {
	r.runs.Add(1)
	return &models.RunReport{}, r.err
}

func TestRegisterRejectsBadSpec(t *testing.T) {
	s := NewScheduler(context.Background(), &countingRunner{}, nil)
	if err := s.Register("every tuesday"); err == nil {
		t.Fatalf("expected parse error")
	}
	// five fields are not enough once seconds are enabled
	if err := s.Register("0 3 * * *"); err == nil {
		t.Fatalf("expected parse error for five-field spec")
	}
	if err := s.Register("0 0 3 * * *"); err != nil {
		t.Fatalf("six-field spec should parse: %v", err)
	}
}

func TestRunNowLogsFailures(t *testing.T) {
	r := &countingRunner{err: errors.New("load failed")}
	s := NewScheduler(context.Background(), r, nil)
	s.RunNow()
	if r.runs.Load() != 1 {
		t.Fatalf("expected one run")
	}
}

func TestRunNowSkipsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &countingRunner{}
	NewScheduler(ctx, r, nil).RunNow()
	if r.runs.Load() != 0 {
		t.Fatalf("cancelled scheduler must not run")
	}
}

func TestScheduledRuns(t *testing.T) {
	r := &countingRunner{}
	s := NewScheduler(context.Background(), r, nil)
	if err := s.Register("@every 1s"); err != nil {
		t.Fatalf("register: %v", err)
	}
	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for r.runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if r.runs.Load() == 0 {
		t.Fatalf("expected a scheduled run")
	}
}
