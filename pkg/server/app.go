package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"FinDash/pkg/config"
	xhttp "FinDash/pkg/http"
	applogger "FinDash/pkg/logger"
)

// Hook is a named start or stop step of the application.
type Hook struct {
	Name string
	Fn   func(ctx context.Context) error
}

// App encapsulates the application lifecycle: an HTTP server plus start and stop hooks.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	handler    xhttp.Handler
	httpServer *xhttp.Server
	onStart    []Hook
	onStop     []Hook
}

type Option func(*App)

// WithHandler registers the routes served next to /healthz and /metrics.
func WithHandler(h xhttp.Handler) Option {
	return func(a *App) { a.handler = h }
}

// OnStart adds a step run after the HTTP server is listening.
func OnStart(name string, fn func(ctx context.Context) error) Option {
	return func(a *App) { a.onStart = append(a.onStart, Hook{Name: name, Fn: fn}) }
}

// OnStop adds a step run during shutdown. Stop hooks run in reverse order.
func OnStop(name string, fn func(ctx context.Context) error) Option {
	return func(a *App) { a.onStop = append(a.onStop, Hook{Name: name, Fn: fn}) }
}

// New creates a new App instance.
func New(cfg *config.Config, l *applogger.Logger, opts ...Option) *App {
	if l == nil {
		l = applogger.Nop()
	}
	a := &App{cfg: cfg, l: l}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run starts the application and blocks until interrupted or ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.Shutdown(context.Background())
}

// Start launches the HTTP server and runs the start hooks.
func (a *App) Start(ctx context.Context) error {
	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.l),
		xhttp.WithMetrics(metricsPath, nil, nil, a.cfg.Metrics.SlowThreshold),
	)
	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	for _, h := range a.onStart {
		if err := h.Fn(ctx); err != nil {
			a.l.Error("start step failed", applogger.String("step", h.Name), applogger.Error(err))
			_ = a.Shutdown(context.Background())
			return err
		}
		a.l.Info("started", applogger.String("step", h.Name))
	}
	return nil
}

// Shutdown stops the HTTP server, then runs the stop hooks. Failures are logged and
// do not prevent later steps.
func (a *App) Shutdown(ctx context.Context) error {
	a.l.Info("shutting down...")

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.l.Error("http shutdown error", applogger.Error(err))
		}
	}

	for i := len(a.onStop) - 1; i >= 0; i-- {
		h := a.onStop[i]
		if err := h.Fn(ctx); err != nil {
			a.l.Warn("stop step failed", applogger.String("step", h.Name), applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
