package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"FinDash/internal/domain/models"
	drepo "FinDash/internal/domain/repository"
	"FinDash/internal/service/alpaca"
	"FinDash/internal/services/analytics"
	applogger "FinDash/pkg/logger"
)

// DashboardConfig holds the dashboard knobs taken from config.
type DashboardConfig struct {
	Allowed   []string
	Defaults  []string
	Lookback  time.Duration
	Timeframe drepo.Timeframe
	Feed      string
	MAWindow  int
	Horizon   int
}

// DashboardUseCase builds one view per requested symbol from recent bars.
type DashboardUseCase struct {
	bars    drepo.BarSource
	cfg     DashboardConfig
	allowed map[string]struct{}
	metrics drepo.Metrics
	l       *applogger.Logger
	now     func() time.Time
}

func NewDashboardUseCase(bars drepo.BarSource, cfg DashboardConfig, metrics drepo.Metrics, l *applogger.Logger) *DashboardUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	if !drepo.IsValidTimeframe(cfg.Timeframe) {
		cfg.Timeframe = drepo.DefaultTimeframe()
	}
	allowed := make(map[string]struct{}, len(cfg.Allowed))
	for _, s := range cfg.Allowed {
		allowed[strings.ToUpper(s)] = struct{}{}
	}
	return &DashboardUseCase{
		bars:    bars,
		cfg:     cfg,
		allowed: allowed,
		metrics: metrics,
		l:       l,
		now:     time.Now,
	}
}

// Allowed returns the symbol allow-list.
func (u *DashboardUseCase) Allowed() []string { return u.cfg.Allowed }

// Defaults returns the symbols shown when none are selected.
func (u *DashboardUseCase) Defaults() []string { return u.cfg.Defaults }

// Views builds views in request order. window and horizon fall back to the configured
// values when not positive; an empty selection uses the defaults.
func (u *DashboardUseCase) Views(ctx context.Context, symbols []string, window, horizon int) []models.SymbolView {
	if len(symbols) == 0 {
		symbols = u.cfg.Defaults
	}
	if window <= 0 {
		window = u.cfg.MAWindow
	}
	if horizon <= 0 {
		horizon = u.cfg.Horizon
	}

	start := u.now()
	views := make([]models.SymbolView, 0, len(symbols))
	for _, s := range symbols {
		views = append(views, u.view(ctx, strings.ToUpper(strings.TrimSpace(s)), window, horizon))
	}
	u.metrics.RecordLatency("dashboard_views", u.now().Sub(start).Seconds())
	return views
}

func (u *DashboardUseCase) view(ctx context.Context, symbol string, window, horizon int) models.SymbolView {
	v := models.SymbolView{Symbol: symbol}
	if _, ok := u.allowed[symbol]; !ok {
		v.Error = fmt.Sprintf("%s is not an allowed symbol", symbol)
		u.metrics.RecordError("symbol_not_allowed")
		return v
	}

	now := u.now().UTC()
	bars, err := u.bars.GetBars(ctx, drepo.BarsQuery{
		Symbol:    symbol,
		Timeframe: u.cfg.Timeframe,
		Start:     now.Add(-u.cfg.Lookback),
		End:       now,
		Feed:      u.cfg.Feed,
	})
	if err == nil && len(bars) == 0 {
		err = alpaca.ErrNoBars
	}
	if err != nil {
		v.Error = describeFetchError(symbol, err)
		u.metrics.RecordError("bars")
		u.l.Warn("symbol fetch failed", applogger.String("symbol", symbol), applogger.Error(err))
		return v
	}

	v.Bars = bars
	v.MovingAverage = analytics.MovingAverage(bars, window)
	if n := len(v.MovingAverage); n > 0 {
		v.Projection = analytics.FlatProjection(v.MovingAverage[n-1], horizon, u.cfg.Timeframe.Step())
	}
	return v
}

func describeFetchError(symbol string, err error) string {
	switch {
	case errors.Is(err, alpaca.ErrNoBars):
		return fmt.Sprintf("No data returned for %s", symbol)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("Timed out fetching %s", symbol)
	default:
		return fmt.Sprintf("Error fetching %s: %v", symbol, err)
	}
}
