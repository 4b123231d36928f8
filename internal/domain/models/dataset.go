package models

import "time"

// FeatureNames is the column order of every feature matrix handed to the models.
var FeatureNames = []string{"return", "volatility", "volume_change"}

// RiskLabel is the volatility tier of a row.
type RiskLabel int

const (
	RiskLow RiskLabel = iota
	RiskMedium
	RiskHigh
)

func (r RiskLabel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "unknown"
	}
}

// FeatureRow holds the derived features of one dated record. All features are finite.
type FeatureRow struct {
	Date         time.Time
	Close        float64
	Return       float64
	Volatility   float64
	VolumeChange float64
}

// Vector returns the features in FeatureNames order.
func (r FeatureRow) Vector() []float64 {
	return []float64{r.Return, r.Volatility, r.VolumeChange}
}

// LabeledRow is a feature row with its risk tier.
type LabeledRow struct {
	FeatureRow
	Risk RiskLabel
}

// Dataset is everything the trainer needs for one ticker.
type Dataset struct {
	Ticker  string
	Rows    []LabeledRow
	History []PricePoint
}

// Matrix returns the feature vectors and labels of the rows selected by idx.
func (d *Dataset) Matrix(idx []int) (x [][]float64, y []int) {
	x = make([][]float64, len(idx))
	y = make([]int, len(idx))
	for i, j := range idx {
		x[i] = d.Rows[j].Vector()
		y[i] = int(d.Rows[j].Risk)
	}
	return x, y
}
