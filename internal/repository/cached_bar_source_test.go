package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"FinDash/internal/domain/models"
	domrepo "FinDash/internal/domain/repository"
	"FinDash/internal/service/cache"
	"FinDash/pkg/metrics"
)

type countingSource struct {
	calls int
	err   error
}

func (s *countingSource) GetBars(_ context.Context, q domrepo.BarsQuery) ([]models.Bar, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []models.Bar{{Timestamp: q.Start, Close: 10}}, nil
}

func TestCachedBarSourceReusesFetch(t *testing.T) {
	src := &countingSource{}
	cached := NewCachedBarSource(src, cache.NewTTLCache(), time.Minute, metrics.Noop{}, nil)
	q := domrepo.BarsQuery{Symbol: "SPY", Timeframe: domrepo.TF1Hour, Feed: "iex", Start: time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)}

	for i := 0; i < 3; i++ {
		bars, err := cached.GetBars(context.Background(), q)
		if err != nil || len(bars) != 1 {
			t.Fatalf("get: %v %v", bars, err)
		}
	}
	if src.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", src.calls)
	}

	q.Symbol = "QQQ"
	_, _ = cached.GetBars(context.Background(), q)
	if src.calls != 2 {
		t.Fatalf("different symbol must miss the cache")
	}
}

func TestCachedBarSourceDoesNotCacheErrors(t *testing.T) {
	boom := errors.New("down")
	src := &countingSource{err: boom}
	cached := NewCachedBarSource(src, cache.NewTTLCache(), time.Minute, metrics.Noop{}, nil)
	q := domrepo.BarsQuery{Symbol: "SPY"}

	for i := 0; i < 2; i++ {
		if _, err := cached.GetBars(context.Background(), q); !errors.Is(err, boom) {
			t.Fatalf("expected upstream error, got %v", err)
		}
	}
	if src.calls != 2 {
		t.Fatalf("errors must not be cached")
	}
}

func TestBarsCacheKey(t *testing.T) {
	q := domrepo.BarsQuery{Symbol: "AAPL", Timeframe: domrepo.TF1Hour, Feed: "iex", Start: time.Date(2024, 1, 1, 9, 59, 0, 0, time.UTC)}
	if got := BarsCacheKey(q); got != "bars:AAPL:1Hour:iex:2024010109" {
		t.Fatalf("unexpected key %s", got)
	}
}
