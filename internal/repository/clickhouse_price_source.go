package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"FinDash/internal/domain/models"
	pkgch "FinDash/pkg/clickhouse"
	applogger "FinDash/pkg/logger"
)

// ClickHousePriceSource reads the historical price table from ClickHouse.
type ClickHousePriceSource struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewClickHousePriceSource(ch *pkgch.Client, table string) *ClickHousePriceSource {
	return &ClickHousePriceSource{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *ClickHousePriceSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *ClickHousePriceSource) LoadPrices(ctx context.Context) ([]models.PriceRecord, error) {
	start := time.Now()
	const qtpl = `
        SELECT toString(ticker), toDateTime(date), toFloat64(close), toInt64(volume)
        FROM %s
        ORDER BY ticker ASC, date ASC
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, s.table))
	if err != nil {
		s.logError("clickhouse load_prices query error", err)
		return nil, fmt.Errorf("load prices: %w", err)
	}
	defer rows.Close()

	out := make([]models.PriceRecord, 0, 4096)
	for rows.Next() {
		var r models.PriceRecord
		if err := rows.Scan(&r.Ticker, &r.Date, &r.Close, &r.Volume); err != nil {
			s.logError("clickhouse load_prices scan error", err)
			return nil, fmt.Errorf("scan price: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		s.logError("clickhouse load_prices rows error", err)
		return nil, fmt.Errorf("rows: %w", err)
	}

	if s.l != nil {
		s.l.Debug("clickhouse load_prices",
			applogger.String("table", s.table),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *ClickHousePriceSource) logError(msg string, err error) {
	if s.l != nil {
		s.l.Error(msg, applogger.String("table", s.table), applogger.Error(err))
	}
}
