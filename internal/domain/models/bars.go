package models

import "time"

// Bar is one OHLCV bar from the quote service.
type Bar struct {
	Timestamp  time.Time `json:"t"`
	Open       float64   `json:"o"`
	High       float64   `json:"h"`
	Low        float64   `json:"l"`
	Close      float64   `json:"c"`
	Volume     int64     `json:"v"`
	TradeCount int64     `json:"n,omitempty"`
	VWAP       float64   `json:"vw,omitempty"`
}

// Point is a timestamped value on a chart series.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// SymbolView is what the dashboard shows for one symbol. When Error is set the
// other fields are empty.
type SymbolView struct {
	Symbol        string  `json:"symbol"`
	Bars          []Bar   `json:"bars,omitempty"`
	MovingAverage []Point `json:"moving_average,omitempty"`
	Projection    []Point `json:"projection,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// Closes returns the close series of bars.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
