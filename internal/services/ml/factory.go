package ml

import (
	"FinDash/internal/domain/models"
	"FinDash/internal/domain/service"
)

// Options are the hyper-parameters shared by every ticker.
type Options struct {
	NEstimators   int
	Contamination float64
	Seed          int64
}

// DefaultOptions returns 100 trees, 3% contamination and seed 42.
func DefaultOptions() Options {
	return Options{NEstimators: 100, Contamination: 0.03, Seed: 42}
}

// Factory builds the four models of a ticker.
type Factory struct {
	opts Options
}

func NewFactory(opts Options) *Factory {
	return &Factory{opts: opts}
}

func (f *Factory) NewScaler() service.Scaler {
	return NewStandardScaler(models.FeatureNames)
}

func (f *Factory) NewClassifier() service.Classifier {
	return NewRandomForest(f.opts.NEstimators, f.opts.Seed)
}

func (f *Factory) NewOutlierScorer() service.OutlierScorer {
	return NewIsolationForest(f.opts.NEstimators, f.opts.Contamination, f.opts.Seed)
}

func (f *Factory) NewForecaster() service.Forecaster {
	return NewAdditiveForecaster()
}

var _ service.ModelFactory = (*Factory)(nil)
