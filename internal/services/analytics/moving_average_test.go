package analytics

import (
	"testing"
	"time"

	"FinDash/internal/domain/models"
)

var t0 = time.Date(2024, 3, 4, 14, 0, 0, 0, time.UTC)

func hourlyBars(closes ...float64) []models.Bar {
	out := make([]models.Bar, len(closes))
	for i, c := range closes {
		out[i] = models.Bar{Timestamp: t0.Add(time.Duration(i) * time.Hour), Close: c}
	}
	return out
}

func TestMovingAverage(t *testing.T) {
	ma := MovingAverage(hourlyBars(1, 2, 3, 4, 5), 3)
	if len(ma) != 3 {
		t.Fatalf("expected 3 points, got %d", len(ma))
	}
	want := []float64{2, 3, 4}
	for i, p := range ma {
		if p.Value != want[i] {
			t.Fatalf("point %d: expected %v, got %v", i, want[i], p.Value)
		}
	}
	if !ma[0].Time.Equal(t0.Add(2 * time.Hour)) {
		t.Fatalf("first average must align with the window's last bar, got %s", ma[0].Time)
	}
}

func TestMovingAverageShortSeries(t *testing.T) {
	if ma := MovingAverage(hourlyBars(1, 2), 24); ma != nil {
		t.Fatalf("expected no average for a short series, got %v", ma)
	}
}

func TestFlatProjection(t *testing.T) {
	last := models.Point{Time: t0, Value: 187.5}
	proj := FlatProjection(last, 24, time.Hour)
	if len(proj) != 24 {
		t.Fatalf("expected 24 points, got %d", len(proj))
	}
	for i, p := range proj {
		if p.Value != 187.5 {
			t.Fatalf("projection must be flat, got %v", p.Value)
		}
		if !p.Time.Equal(t0.Add(time.Duration(i+1) * time.Hour)) {
			t.Fatalf("point %d at %s", i, p.Time)
		}
	}
}
