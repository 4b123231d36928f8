package models

import (
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// PriceRecord is one row of the historical price table. Any field but Ticker may be missing.
type PriceRecord struct {
	Ticker string
	Date   null.Time
	Close  decimal.NullDecimal
	Volume null.Int
}

// PricePoint is a dated close used by the forecaster.
type PricePoint struct {
	Date  time.Time
	Close float64
}

// GroupByTicker splits records per ticker, keeping tickers in first-appearance order
// and records in input order.
func GroupByTicker(records []PriceRecord) (tickers []string, groups map[string][]PriceRecord) {
	groups = make(map[string][]PriceRecord)
	for _, r := range records {
		if _, seen := groups[r.Ticker]; !seen {
			tickers = append(tickers, r.Ticker)
		}
		groups[r.Ticker] = append(groups[r.Ticker], r)
	}
	return tickers, groups
}
