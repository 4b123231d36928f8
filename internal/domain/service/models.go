package service

import (
	"time"

	"FinDash/internal/domain/models"
)

// Scaler standardises feature vectors. Transform never refits.
type Scaler interface {
	Fit(x [][]float64) error
	Transform(x [][]float64) ([][]float64, error)
}

// Classifier predicts a risk tier per row.
type Classifier interface {
	Fit(x [][]float64, y []int) error
	Predict(x [][]float64) ([]int, error)
}

// OutlierScorer flags anomalous rows; Predict returns true for outliers.
type OutlierScorer interface {
	Fit(x [][]float64) error
	Predict(x [][]float64) ([]bool, error)
}

// Forecaster models a dated close series.
type Forecaster interface {
	Fit(history []models.PricePoint) error
	Predict(at []time.Time) ([]float64, error)
}

// ModelFactory creates fresh, unfitted models for one ticker.
type ModelFactory interface {
	NewScaler() Scaler
	NewClassifier() Classifier
	NewOutlierScorer() OutlierScorer
	NewForecaster() Forecaster
}
