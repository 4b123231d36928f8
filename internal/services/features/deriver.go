package features

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"FinDash/internal/domain/models"

	"gonum.org/v1/gonum/stat"
)

var (
	// ErrInsufficientData means fewer usable rows than Options.MinRows survived derivation.
	ErrInsufficientData = errors.New("not enough data")
	// ErrDegenerateDistribution means the volatility column cannot be split into tiers.
	ErrDegenerateDistribution = errors.New("insufficient volatility variety")
)

// Options controls feature derivation.
type Options struct {
	Window  int // rolling volatility window
	MinRows int
	Tiers   int
}

// DefaultOptions returns a 10-period window, 20 minimum rows and 3 tiers.
func DefaultOptions() Options {
	return Options{Window: 10, MinRows: 20, Tiers: 3}
}

// SortByDate drops records without a date and stable-sorts the rest ascending.
func SortByDate(records []models.PriceRecord) []models.PriceRecord {
	out := make([]models.PriceRecord, 0, len(records))
	for _, r := range records {
		if r.Date.Valid {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Time.Before(out[j].Date.Time)
	})
	return out
}

// PctChange returns v[i]/v[i-1]-1. Element 0, any NaN input, and non-finite results are NaN.
func PctChange(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		out[i] = math.NaN()
		if i == 0 {
			continue
		}
		prev, cur := values[i-1], values[i]
		if math.IsNaN(prev) || math.IsNaN(cur) {
			continue
		}
		ch := cur/prev - 1
		if math.IsNaN(ch) || math.IsInf(ch, 0) {
			continue
		}
		out[i] = ch
	}
	return out
}

// RollingStdDev returns the sample standard deviation of values[i-window+1..i].
// The result is NaN until a full window of defined values is available.
func RollingStdDev(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		out[i] = math.NaN()
		if window < 2 || i+1 < window {
			continue
		}
		w := values[i+1-window : i+1]
		if hasNaN(w) {
			continue
		}
		out[i] = stat.StdDev(w, nil)
	}
	return out
}

// Derive computes the feature rows of one ticker's records. Rows with any undefined
// feature are discarded; records are expected in date order.
func Derive(records []models.PriceRecord, window int) []models.FeatureRow {
	closes := make([]float64, len(records))
	volumes := make([]float64, len(records))
	for i, r := range records {
		closes[i] = math.NaN()
		if r.Close.Valid {
			closes[i] = r.Close.Decimal.InexactFloat64()
		}
		volumes[i] = math.NaN()
		if r.Volume.Valid {
			volumes[i] = float64(r.Volume.Int64)
		}
	}

	returns := PctChange(closes)
	vol := RollingStdDev(returns, window)
	volChange := PctChange(volumes)

	rows := make([]models.FeatureRow, 0, len(records))
	for i, r := range records {
		if math.IsNaN(returns[i]) || math.IsNaN(vol[i]) || math.IsNaN(volChange[i]) {
			continue
		}
		rows = append(rows, models.FeatureRow{
			Date:         r.Date.Time,
			Close:        closes[i],
			Return:       returns[i],
			Volatility:   vol[i],
			VolumeChange: volChange[i],
		})
	}
	return rows
}

// DistinctCount counts distinct values.
func DistinctCount(values []float64) int {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// QuantileTiers assigns equal-frequency tiers by volatility rank. Rows are ordered by
// (volatility, date) so ties at a boundary are split by date; the row at rank r of n
// gets tier floor(r*tiers/n).
func QuantileTiers(volatility []float64, dates []time.Time, tiers int) []models.RiskLabel {
	n := len(volatility)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		va, vb := volatility[idx[a]], volatility[idx[b]]
		if va != vb {
			return va < vb
		}
		return dates[idx[a]].Before(dates[idx[b]])
	})

	labels := make([]models.RiskLabel, n)
	for rank, i := range idx {
		labels[i] = models.RiskLabel(rank * tiers / n)
	}
	return labels
}

// BuildDataset derives features and risk tiers for one ticker.
func BuildDataset(ticker string, records []models.PriceRecord, opts Options) (*models.Dataset, error) {
	sorted := SortByDate(records)
	rows := Derive(sorted, opts.Window)
	if len(rows) < opts.MinRows {
		return nil, fmt.Errorf("%s: %d usable rows, need %d: %w", ticker, len(rows), opts.MinRows, ErrInsufficientData)
	}

	vols := make([]float64, len(rows))
	dates := make([]time.Time, len(rows))
	for i, r := range rows {
		vols[i] = r.Volatility
		dates[i] = r.Date
	}
	if d := DistinctCount(vols); d < opts.Tiers {
		return nil, fmt.Errorf("%s: %d distinct volatility values: %w", ticker, d, ErrDegenerateDistribution)
	}

	labels := QuantileTiers(vols, dates, opts.Tiers)
	ds := &models.Dataset{
		Ticker:  ticker,
		Rows:    make([]models.LabeledRow, len(rows)),
		History: history(sorted),
	}
	for i, r := range rows {
		ds.Rows[i] = models.LabeledRow{FeatureRow: r, Risk: labels[i]}
	}
	return ds, nil
}

// history keeps every dated record with a finite close.
func history(sorted []models.PriceRecord) []models.PricePoint {
	out := make([]models.PricePoint, 0, len(sorted))
	for _, r := range sorted {
		if !r.Close.Valid {
			continue
		}
		c := r.Close.Decimal.InexactFloat64()
		if math.IsNaN(c) || math.IsInf(c, 0) {
			continue
		}
		out = append(out, models.PricePoint{Date: r.Date.Time, Close: c})
	}
	return out
}

func hasNaN(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
