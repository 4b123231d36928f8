package ml

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler centres each feature on its training mean and divides by its
// population standard deviation. A constant feature is scaled by 1.
type StandardScaler struct {
	FeatureNames []string  `json:"feature_names"`
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
	NSamples     int       `json:"n_samples"`
}

func NewStandardScaler(featureNames []string) *StandardScaler {
	return &StandardScaler{FeatureNames: append([]string(nil), featureNames...)}
}

func (s *StandardScaler) Fit(x [][]float64) error {
	width := len(s.FeatureNames)
	if width == 0 && len(x) > 0 {
		width = len(x[0])
	}
	if err := checkMatrix(x, width); err != nil {
		return fmt.Errorf("scaler fit: %w", err)
	}

	s.Mean = make([]float64, width)
	s.Scale = make([]float64, width)
	col := make([]float64, len(x))
	for j := 0; j < width; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[j], s.Scale[j] = mean, std
	}
	s.NSamples = len(x)
	return nil
}

// Transform applies the fitted statistics. It never refits.
func (s *StandardScaler) Transform(x [][]float64) ([][]float64, error) {
	if s.NSamples == 0 {
		return nil, fmt.Errorf("scaler transform: %w", ErrNotFitted)
	}
	if err := checkMatrix(x, len(s.Mean)); err != nil {
		return nil, fmt.Errorf("scaler transform: %w", err)
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = (v - s.Mean[j]) / s.Scale[j]
		}
	}
	return out, nil
}
