package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"FinDash/internal/domain/models"
	drepo "FinDash/internal/domain/repository"
	"FinDash/pkg/metrics"
)

type fakeBars struct {
	bars    map[string][]models.Bar
	errs    map[string]error
	queries []drepo.BarsQuery
}

func (f *fakeBars) GetBars(_ context.Context, q drepo.BarsQuery) ([]models.Bar, error) {
	f.queries = append(f.queries, q)
	if err := f.errs[q.Symbol]; err != nil {
		return nil, err
	}
	return f.bars[q.Symbol], nil
}

var dashNow = time.Date(2024, 3, 8, 20, 0, 0, 0, time.UTC)

func hourly(n int, from float64) []models.Bar {
	out := make([]models.Bar, n)
	for i := range out {
		out[i] = models.Bar{Timestamp: dashNow.Add(time.Duration(i-n) * time.Hour), Close: from + float64(i)}
	}
	return out
}

func newDashboard(src drepo.BarSource) *DashboardUseCase {
	u := NewDashboardUseCase(src, DashboardConfig{
		Allowed:   []string{"AAPL", "MSFT", "GOOGL", "TSLA", "NVDA", "SPY", "QQQ"},
		Defaults:  []string{"AAPL", "SPY"},
		Lookback:  120 * time.Hour,
		Timeframe: drepo.TF1Hour,
		Feed:      "iex",
		MAWindow:  24,
		Horizon:   24,
	}, metrics.Noop{}, nil)
	u.now = func() time.Time { return dashNow }
	return u
}

func TestViewsDefaultSelectionAndQuery(t *testing.T) {
	src := &fakeBars{bars: map[string][]models.Bar{"AAPL": hourly(30, 100), "SPY": hourly(30, 400)}}
	views := newDashboard(src).Views(context.Background(), nil, 0, 0)

	if len(views) != 2 || views[0].Symbol != "AAPL" || views[1].Symbol != "SPY" {
		t.Fatalf("unexpected views %+v", views)
	}
	q := src.queries[0]
	if !q.Start.Equal(dashNow.Add(-120*time.Hour)) || !q.End.Equal(dashNow) || q.Timeframe != drepo.TF1Hour || q.Feed != "iex" {
		t.Fatalf("unexpected query %+v", q)
	}
}

func TestViewsMovingAverageAndProjection(t *testing.T) {
	bars := hourly(30, 100)
	src := &fakeBars{bars: map[string][]models.Bar{"NVDA": bars}}
	v := newDashboard(src).Views(context.Background(), []string{"nvda"}, 0, 0)[0]

	if v.Error != "" {
		t.Fatalf("unexpected error %q", v.Error)
	}
	if len(v.MovingAverage) != 7 {
		t.Fatalf("expected 7 average points, got %d", len(v.MovingAverage))
	}
	last := v.MovingAverage[6]
	// mean of closes 106..129
	if last.Value != 117.5 || !last.Time.Equal(bars[29].Timestamp) {
		t.Fatalf("unexpected last average %+v", last)
	}
	if len(v.Projection) != 24 {
		t.Fatalf("expected 24 projected points, got %d", len(v.Projection))
	}
	for i, p := range v.Projection {
		if p.Value != last.Value || !p.Time.Equal(last.Time.Add(time.Duration(i+1)*time.Hour)) {
			t.Fatalf("projection point %d wrong: %+v", i, p)
		}
	}
}

func TestViewsShortSeriesHasNoAverage(t *testing.T) {
	src := &fakeBars{bars: map[string][]models.Bar{"SPY": hourly(10, 400)}}
	v := newDashboard(src).Views(context.Background(), []string{"SPY"}, 0, 0)[0]
	if v.Error != "" || len(v.Bars) != 10 || v.MovingAverage != nil || v.Projection != nil {
		t.Fatalf("unexpected view %+v", v)
	}
}

func TestViewsIsolatePerSymbolFailures(t *testing.T) {
	src := &fakeBars{
		bars: map[string][]models.Bar{"AAPL": hourly(30, 100), "QQQ": nil},
		errs: map[string]error{"TSLA": errors.New("403 forbidden")},
	}
	views := newDashboard(src).Views(context.Background(), []string{"DOGE", "TSLA", "QQQ", "AAPL"}, 5, 3)

	if !strings.Contains(views[0].Error, "not an allowed symbol") {
		t.Fatalf("expected allow-list error, got %q", views[0].Error)
	}
	if !strings.Contains(views[1].Error, "403 forbidden") {
		t.Fatalf("expected fetch error, got %q", views[1].Error)
	}
	if views[2].Error != "No data returned for QQQ" {
		t.Fatalf("expected empty-data error, got %q", views[2].Error)
	}
	if views[3].Error != "" || len(views[3].MovingAverage) != 26 || len(views[3].Projection) != 3 {
		t.Fatalf("healthy symbol affected: %+v", views[3])
	}
	for _, q := range src.queries {
		if q.Symbol == "DOGE" {
			t.Fatalf("disallowed symbol must not be fetched")
		}
	}
}
