package repository

import "time"

// Timeframe is a bar resolution understood by the quote service.
type Timeframe string

const (
	TF15Min Timeframe = "15Min"
	TF1Hour Timeframe = "1Hour"
	TF1Day  Timeframe = "1Day"
)

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF15Min, TF1Hour, TF1Day:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TF1Hour }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}

// Step is the wall-clock length of one bar.
func (tf Timeframe) Step() time.Duration {
	switch tf {
	case TF15Min:
		return 15 * time.Minute
	case TF1Day:
		return 24 * time.Hour
	default:
		return time.Hour
	}
}
