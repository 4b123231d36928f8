package features

import (
	"errors"
	"math"
	"testing"
	"time"

	"FinDash/internal/domain/models"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

var day0 = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

func record(ticker string, day int, closePrice float64, volume int64) models.PriceRecord {
	return models.PriceRecord{
		Ticker: ticker,
		Date:   null.TimeFrom(day0.AddDate(0, 0, day)),
		Close:  decimal.NewNullDecimal(decimal.NewFromFloat(closePrice)),
		Volume: null.IntFrom(volume),
	}
}

// wavy produces n records with varied returns and volumes.
func wavy(n int) []models.PriceRecord {
	out := make([]models.PriceRecord, n)
	for i := 0; i < n; i++ {
		c := 100 + 5*math.Sin(0.9*float64(i)) + 0.3*float64(i)
		out[i] = record("AAA", i, c, int64(1000+(i%7)*50))
	}
	return out
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPctChange(t *testing.T) {
	got := PctChange([]float64{100, 110, math.NaN(), 121, 0, 5})
	if !math.IsNaN(got[0]) {
		t.Fatalf("first change must be undefined, got %v", got[0])
	}
	if !approx(got[1], 0.1) {
		t.Fatalf("expected 0.1, got %v", got[1])
	}
	if !math.IsNaN(got[2]) || !math.IsNaN(got[3]) {
		t.Fatalf("changes touching a missing value must be undefined: %v", got)
	}
	if !approx(got[4], -1) {
		t.Fatalf("expected -1, got %v", got[4])
	}
	if !math.IsNaN(got[5]) {
		t.Fatalf("change from zero must be undefined, got %v", got[5])
	}
}

func TestRollingStdDevUsesSampleDeviation(t *testing.T) {
	got := RollingStdDev([]float64{1, 2, 3, 4}, 3)
	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Fatalf("partial windows must be undefined: %v", got)
	}
	// sample std of {1,2,3} is 1
	if !approx(got[2], 1) || !approx(got[3], 1) {
		t.Fatalf("expected sample std 1, got %v", got)
	}

	withGap := RollingStdDev([]float64{math.NaN(), 1, 2, 3}, 3)
	if !math.IsNaN(withGap[2]) || !approx(withGap[3], 1) {
		t.Fatalf("window touching NaN must be undefined: %v", withGap)
	}
}

func TestBuildDatasetThirtyRows(t *testing.T) {
	ds, err := BuildDataset("AAA", wavy(30), DefaultOptions())
	if err != nil {
		t.Fatalf("BuildDataset: %v", err)
	}
	if len(ds.Rows) != 20 {
		t.Fatalf("expected 20 rows (first 10 lack a full window), got %d", len(ds.Rows))
	}
	if len(ds.History) != 30 {
		t.Fatalf("history should keep every close, got %d", len(ds.History))
	}

	counts := map[models.RiskLabel]int{}
	for _, r := range ds.Rows {
		counts[r.Risk]++
	}
	if counts[models.RiskLow] != 7 || counts[models.RiskMedium] != 7 || counts[models.RiskHigh] != 6 {
		t.Fatalf("unexpected tier sizes: %v", counts)
	}
}

func TestTiersAreMonotoneInVolatility(t *testing.T) {
	ds, err := BuildDataset("AAA", wavy(80), DefaultOptions())
	if err != nil {
		t.Fatalf("BuildDataset: %v", err)
	}
	maxByTier := map[models.RiskLabel]float64{}
	minByTier := map[models.RiskLabel]float64{}
	for _, r := range ds.Rows {
		if v, ok := maxByTier[r.Risk]; !ok || r.Volatility > v {
			maxByTier[r.Risk] = r.Volatility
		}
		if v, ok := minByTier[r.Risk]; !ok || r.Volatility < v {
			minByTier[r.Risk] = r.Volatility
		}
	}
	if maxByTier[models.RiskLow] > minByTier[models.RiskMedium] || maxByTier[models.RiskMedium] > minByTier[models.RiskHigh] {
		t.Fatalf("tiers overlap: min=%v max=%v", minByTier, maxByTier)
	}
}

func TestBuildDatasetInsufficientData(t *testing.T) {
	records := make([]models.PriceRecord, 25)
	for i := range records {
		records[i] = record("INC", i, 100+float64(i), 1000)
	}
	// constant volume keeps every volume change at 0, so only the volatility
	// window trims rows: 25 records leave 15, which is checked before variety
	rows := Derive(SortByDate(records), DefaultOptions().Window)
	if len(rows) != 15 {
		t.Fatalf("expected 15 usable rows, got %d", len(rows))
	}
	for _, r := range rows {
		if r.VolumeChange != 0 {
			t.Fatalf("constant volume must give zero change, got %v", r.VolumeChange)
		}
	}
	_, err := BuildDataset("INC", records, DefaultOptions())
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestBuildDatasetDegenerateVolatility(t *testing.T) {
	records := make([]models.PriceRecord, 40)
	for i := range records {
		records[i] = record("FLAT", i, 50, int64(1000+(i%5)*10))
	}
	_, err := BuildDataset("FLAT", records, DefaultOptions())
	if !errors.Is(err, ErrDegenerateDistribution) {
		t.Fatalf("expected ErrDegenerateDistribution, got %v", err)
	}
}

func TestSortByDateDropsMissingAndSorts(t *testing.T) {
	in := []models.PriceRecord{
		record("X", 3, 1, 1),
		{Ticker: "X", Close: decimal.NewNullDecimal(decimal.NewFromInt(9))},
		record("X", 1, 2, 2),
		record("X", 2, 3, 3),
	}
	got := SortByDate(in)
	if len(got) != 3 {
		t.Fatalf("expected undated record dropped, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Date.Time.Before(got[i-1].Date.Time) {
			t.Fatalf("records not sorted")
		}
	}
}

func TestQuantileTiersBreaksTiesByDate(t *testing.T) {
	vols := []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1}
	dates := make([]time.Time, len(vols))
	for i := range dates {
		dates[i] = day0.AddDate(0, 0, len(vols)-i) // reverse chronological input
	}
	labels := QuantileTiers(vols, dates, 3)
	// the two latest-dated (first two inputs) land in the top tier
	if labels[0] != models.RiskHigh || labels[1] != models.RiskHigh || labels[5] != models.RiskLow {
		t.Fatalf("unexpected labels %v", labels)
	}
}

func TestDistinctCount(t *testing.T) {
	if DistinctCount([]float64{1, 1, 2, 3, 3}) != 3 {
		t.Fatalf("expected 3 distinct values")
	}
}
