package usecase

import (
	"fmt"
	"time"

	"FinDash/internal/domain/models"
	drepo "FinDash/internal/domain/repository"
	dservice "FinDash/internal/domain/service"
	"FinDash/internal/services/ml"
)

// TickerTrainer fits and persists the four models of one ticker.
type TickerTrainer struct {
	store    drepo.ArtifactStore
	factory  dservice.ModelFactory
	testSize float64
	seed     int64
	now      func() time.Time
}

// NewTickerTrainer creates a trainer that splits with testSize and seed.
func NewTickerTrainer(store drepo.ArtifactStore, factory dservice.ModelFactory, testSize float64, seed int64) *TickerTrainer {
	return &TickerTrainer{
		store:    store,
		factory:  factory,
		testSize: testSize,
		seed:     seed,
		now:      time.Now,
	}
}

// Train runs split, scale, classify, outlier scoring and forecasting for ds.
// The returned result is always filled in; err is set when Outcome is failed.
func (t *TickerTrainer) Train(runID string, ds *models.Dataset) (models.TickerResult, error) {
	start := t.now()
	res := models.TickerResult{RunID: runID, Ticker: ds.Ticker, Rows: len(ds.Rows)}

	fail := func(err error) (models.TickerResult, error) {
		res.Outcome = models.OutcomeFailed
		res.Reason = err.Error()
		res.FinishedAt = t.now()
		res.Duration = res.FinishedAt.Sub(start)
		return res, err
	}

	trainIdx, testIdx, err := ml.TrainTestSplit(len(ds.Rows), t.testSize, t.seed)
	if err != nil {
		return fail(fmt.Errorf("split: %w", err))
	}
	res.TrainRows, res.TestRows = len(trainIdx), len(testIdx)
	xTrain, yTrain := ds.Matrix(trainIdx)
	xTest, yTest := ds.Matrix(testIdx)

	w, err := t.store.Open(ds.Ticker)
	if err != nil {
		return fail(fmt.Errorf("open artifacts: %w", err))
	}
	committed := false
	defer func() {
		if !committed {
			_ = w.Discard()
		}
	}()
	write := func(kind models.ArtifactKind, v interface{}) error {
		if err := w.Write(kind, v); err != nil {
			return fmt.Errorf("save %s: %w", kind, err)
		}
		res.Artifacts = append(res.Artifacts, kind)
		return nil
	}

	scaler := t.factory.NewScaler()
	if err := scaler.Fit(xTrain); err != nil {
		return fail(fmt.Errorf("fit scaler: %w", err))
	}
	sTrain, err := scaler.Transform(xTrain)
	if err != nil {
		return fail(fmt.Errorf("scale train: %w", err))
	}
	sTest, err := scaler.Transform(xTest)
	if err != nil {
		return fail(fmt.Errorf("scale test: %w", err))
	}

	clf := t.factory.NewClassifier()
	if err := clf.Fit(sTrain, yTrain); err != nil {
		return fail(fmt.Errorf("fit risk model: %w", err))
	}
	if err := write(models.ArtifactRiskModel, clf); err != nil {
		return fail(err)
	}
	if err := write(models.ArtifactScaler, scaler); err != nil {
		return fail(err)
	}
	pred, err := clf.Predict(sTest)
	if err != nil {
		return fail(fmt.Errorf("predict risk: %w", err))
	}
	res.TestAccuracy = ml.Accuracy(pred, yTest)

	outliers := t.factory.NewOutlierScorer()
	if err := outliers.Fit(sTrain); err != nil {
		return fail(fmt.Errorf("fit anomaly model: %w", err))
	}
	if err := write(models.ArtifactAnomalyModel, outliers); err != nil {
		return fail(err)
	}
	flags, err := outliers.Predict(sTrain)
	if err != nil {
		return fail(fmt.Errorf("score anomalies: %w", err))
	}
	res.AnomalyFraction = ml.Fraction(flags)

	fc := t.factory.NewForecaster()
	if err := fc.Fit(ds.History); err != nil {
		return fail(fmt.Errorf("fit forecast model: %w", err))
	}
	if err := write(models.ArtifactForecastModel, fc); err != nil {
		return fail(err)
	}

	if err := w.Commit(); err != nil {
		return fail(fmt.Errorf("commit artifacts: %w", err))
	}
	committed = true

	res.Outcome = models.OutcomeTrained
	res.FinishedAt = t.now()
	res.Duration = res.FinishedAt.Sub(start)
	return res, nil
}
