package analytics

import (
	"time"

	"FinDash/internal/domain/models"

	"gonum.org/v1/gonum/floats"
)

// MovingAverage returns the trailing mean of closes over window bars, one point per bar
// from bars[window-1] on. Fewer bars than window yields nil.
func MovingAverage(bars []models.Bar, window int) []models.Point {
	if window < 1 || len(bars) < window {
		return nil
	}
	closes := models.Closes(bars)
	out := make([]models.Point, 0, len(bars)-window+1)
	for i := window - 1; i < len(bars); i++ {
		out = append(out, models.Point{
			Time:  bars[i].Timestamp,
			Value: floats.Sum(closes[i+1-window:i+1]) / float64(window),
		})
	}
	return out
}

// FlatProjection repeats the last value for steps points spaced step apart, starting
// one step after last.Time.
func FlatProjection(last models.Point, steps int, step time.Duration) []models.Point {
	if steps < 1 {
		return nil
	}
	out := make([]models.Point, steps)
	for i := range out {
		out[i] = models.Point{Time: last.Time.Add(time.Duration(i+1) * step), Value: last.Value}
	}
	return out
}
