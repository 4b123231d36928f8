package scheduler

import (
	"context"
	"fmt"

	"FinDash/internal/domain/models"
	applogger "FinDash/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Runner is one training batch.
type Runner interface {
	Run(ctx context.Context) (*models.RunReport, error)
}

// Scheduler runs training batches on a cron schedule. A batch still running when the
// next tick fires causes that tick to be skipped.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	l      *applogger.Logger
	ctx    context.Context
}

func NewScheduler(ctx context.Context, runner Runner, l *applogger.Logger) *Scheduler {
	if l == nil {
		l = applogger.Nop()
	}
	cl := cronLogger{l: l}
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds(), cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		runner: runner,
		l:      l,
		ctx:    ctx,
	}
}

// Register adds the training batch under spec (six fields, seconds first, or a descriptor).
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.RunNow); err != nil {
		return fmt.Errorf("register training schedule %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.l.Info("scheduler started", applogger.Int("entries", len(s.cron.Entries())))
}

// Stop prevents new runs and waits for a running batch to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.l.Info("scheduler stopped")
}

// RunNow executes one batch synchronously.
func (s *Scheduler) RunNow() {
	if s.ctx.Err() != nil {
		return
	}
	if _, err := s.runner.Run(s.ctx); err != nil {
		s.l.Error("scheduled training failed", applogger.Error(err))
	}
}

// cronLogger adapts the app logger to cron.Logger.
type cronLogger struct{ l *applogger.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, applogger.Any("kv", keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, applogger.Error(err), applogger.Any("kv", keysAndValues))
}
