package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"FinDash/internal/domain/models"
	domrepo "FinDash/internal/domain/repository"
	"FinDash/internal/service/cache"
	applogger "FinDash/pkg/logger"
)

// CachedBarSource serves bars from a BytesCache and falls back to the wrapped source.
// Entries are keyed by symbol, timeframe, feed and the hour the query starts in.
type CachedBarSource struct {
	src     domrepo.BarSource
	cache   cache.BytesCache
	ttl     time.Duration
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewCachedBarSource(src domrepo.BarSource, c cache.BytesCache, ttl time.Duration, m domrepo.Metrics, l *applogger.Logger) *CachedBarSource {
	if l == nil {
		l = applogger.Nop()
	}
	return &CachedBarSource{src: src, cache: c, ttl: ttl, metrics: m, l: l}
}

// BarsCacheKey identifies one cached bar query.
func BarsCacheKey(q domrepo.BarsQuery) string {
	return fmt.Sprintf("bars:%s:%s:%s:%s", q.Symbol, q.Timeframe, q.Feed, q.Start.UTC().Truncate(time.Hour).Format("2006010215"))
}

func (s *CachedBarSource) GetBars(ctx context.Context, q domrepo.BarsQuery) ([]models.Bar, error) {
	key := BarsCacheKey(q)

	if s.cache != nil && s.ttl > 0 {
		b, err := s.cache.GetBytes(ctx, key)
		switch {
		case err == nil:
			var bars []models.Bar
			if jerr := json.Unmarshal(b, &bars); jerr == nil && len(bars) > 0 {
				s.metrics.RecordFetch(q.Symbol, "cached")
				return bars, nil
			}
		case !errors.Is(err, cache.ErrCacheMiss):
			s.l.Warn("bar cache read failed", applogger.String("key", key), applogger.Error(err))
		}
	}

	bars, err := s.src.GetBars(ctx, q)
	if err != nil {
		s.metrics.RecordFetch(q.Symbol, "error")
		return nil, err
	}
	s.metrics.RecordFetch(q.Symbol, "ok")

	if s.cache != nil && s.ttl > 0 {
		if b, jerr := json.Marshal(bars); jerr == nil {
			if err := s.cache.SetBytes(ctx, key, b, s.ttl); err != nil {
				s.l.Warn("bar cache write failed", applogger.String("key", key), applogger.Error(err))
			}
		}
	}
	return bars, nil
}
