package ml

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"sort"
	"testing"
	"time"

	"FinDash/internal/domain/models"
)

func TestTrainTestSplit(t *testing.T) {
	train, test, err := TrainTestSplit(20, 0.2, 42)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(train) != 16 || len(test) != 4 {
		t.Fatalf("expected 16/4, got %d/%d", len(train), len(test))
	}
	all := append(append([]int{}, train...), test...)
	sort.Ints(all)
	for i, v := range all {
		if v != i {
			t.Fatalf("split is not a partition: %v", all)
		}
	}

	again, _, _ := TrainTestSplit(20, 0.2, 42)
	for i := range train {
		if train[i] != again[i] {
			t.Fatalf("same seed must give the same split")
		}
	}

	_, test, _ = TrainTestSplit(21, 0.2, 42)
	if len(test) != 5 {
		t.Fatalf("expected ceil(4.2)=5 test rows, got %d", len(test))
	}
}

func TestStandardScaler(t *testing.T) {
	s := NewStandardScaler([]string{"a", "b"})
	if err := s.Fit([][]float64{{1, 5}, {3, 5}}); err != nil {
		t.Fatalf("fit: %v", err)
	}
	if s.Mean[0] != 2 || s.Scale[0] != 1 {
		t.Fatalf("expected mean 2 and population std 1, got %v %v", s.Mean, s.Scale)
	}
	if s.Scale[1] != 1 {
		t.Fatalf("constant feature must scale by 1, got %v", s.Scale[1])
	}
	out, err := s.Transform([][]float64{{5, 6}})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if out[0][0] != 3 || out[0][1] != 1 {
		t.Fatalf("unexpected transform %v", out)
	}
	if s.NSamples != 2 {
		t.Fatalf("transform must not refit, NSamples=%d", s.NSamples)
	}
	if _, err := NewStandardScaler(nil).Transform([][]float64{{1}}); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("expected ErrNotFitted, got %v", err)
	}
}

// blobs draws three well separated clusters labelled 0..2.
func blobs(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, n)
	y := make([]int, n)
	for i := range x {
		c := i % 3
		x[i] = []float64{float64(c)*4 + rng.NormFloat64()*0.3, rng.NormFloat64(), float64(c)*-2 + rng.NormFloat64()*0.3}
		y[i] = c
	}
	return x, y
}

func TestRandomForestSeparatesClusters(t *testing.T) {
	x, y := blobs(150, 1)
	f := NewRandomForest(25, 42)
	if err := f.Fit(x, y); err != nil {
		t.Fatalf("fit: %v", err)
	}
	if f.MaxFeatures != 1 {
		t.Fatalf("expected floor(sqrt(3))=1 features per split, got %d", f.MaxFeatures)
	}
	tx, ty := blobs(60, 2)
	pred, err := f.Predict(tx)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if acc := Accuracy(pred, ty); acc < 0.95 {
		t.Fatalf("expected accuracy >= 0.95, got %v", acc)
	}
}

func TestRandomForestIsDeterministic(t *testing.T) {
	x, y := blobs(60, 3)
	a, b := NewRandomForest(10, 42), NewRandomForest(10, 42)
	if err := a.Fit(x, y); err != nil {
		t.Fatalf("fit: %v", err)
	}
	if err := b.Fit(x, y); err != nil {
		t.Fatalf("fit: %v", err)
	}
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if string(ja) != string(jb) {
		t.Fatalf("same seed must grow identical forests")
	}
}

func TestIsolationForestFlagsOutliers(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	x := make([][]float64, 300)
	for i := range x {
		x[i] = []float64{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
	}
	f := NewIsolationForest(100, 0.03, 42)
	if err := f.Fit(x); err != nil {
		t.Fatalf("fit: %v", err)
	}
	if f.SampleSize != 256 {
		t.Fatalf("expected psi=256, got %d", f.SampleSize)
	}
	flags, err := f.Predict(x)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if frac := Fraction(flags); frac < 0.01 || frac > 0.05 {
		t.Fatalf("expected about 3%% of training rows flagged, got %v", frac)
	}
	far, _ := f.Predict([][]float64{{12, -12, 12}, {0, 0, 0}})
	if !far[0] || far[1] {
		t.Fatalf("expected only the far point flagged, got %v", far)
	}
}

func TestAveragePathLength(t *testing.T) {
	if averagePathLength(1) != 0 || averagePathLength(2) != 1 {
		t.Fatalf("unexpected small-n path lengths")
	}
	if c := averagePathLength(256); math.Abs(c-10.2448) > 1e-3 {
		t.Fatalf("c(256) = %v", c)
	}
}

func linearHistory(n int) []models.PricePoint {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.PricePoint, n)
	for i := range out {
		out[i] = models.PricePoint{Date: start.AddDate(0, 0, i), Close: 10 + 0.5*float64(i)}
	}
	return out
}

func TestForecasterRecoversLinearTrend(t *testing.T) {
	f := NewAdditiveForecaster()
	if err := f.Fit(linearHistory(60)); err != nil {
		t.Fatalf("fit: %v", err)
	}
	if len(f.Changepoints) != 25 {
		t.Fatalf("expected 25 changepoints, got %d", len(f.Changepoints))
	}
	if len(f.Seasonalities) != 1 || f.Seasonalities[0].Name != "weekly" {
		t.Fatalf("expected weekly seasonality only, got %+v", f.Seasonalities)
	}
	at := []time.Time{time.Date(2023, 3, 12, 0, 0, 0, 0, time.UTC)} // day 70
	got, err := f.Predict(at)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if math.Abs(got[0]-45) > 0.5 {
		t.Fatalf("expected about 45, got %v", got[0])
	}

	yhat, lo, hi, err := f.PredictInterval(at)
	if err != nil {
		t.Fatalf("interval: %v", err)
	}
	if lo[0] > yhat[0] || hi[0] < yhat[0] {
		t.Fatalf("interval does not bracket forecast: %v %v %v", lo, yhat, hi)
	}
}

func TestForecasterDocumentRoundTrip(t *testing.T) {
	f := NewAdditiveForecaster()
	if err := f.Fit(linearHistory(30)); err != nil {
		t.Fatalf("fit: %v", err)
	}
	doc, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back AdditiveForecaster
	if err := json.Unmarshal(doc, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	at := []time.Time{time.Date(2023, 2, 15, 0, 0, 0, 0, time.UTC)}
	a, _ := f.Predict(at)
	b, _ := back.Predict(at)
	if math.Abs(a[0]-b[0]) > 1e-9 {
		t.Fatalf("restored forecaster disagrees: %v vs %v", a, b)
	}
}

func TestForecasterRejectsTinyHistory(t *testing.T) {
	if err := NewAdditiveForecaster().Fit(linearHistory(1)); err == nil {
		t.Fatalf("expected error for a single point")
	}
}
