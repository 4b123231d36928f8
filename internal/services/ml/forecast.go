package ml

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"FinDash/internal/domain/models"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const day = 24 * time.Hour

// Seasonality is one Fourier block of the forecaster.
type Seasonality struct {
	Name       string  `json:"name"`
	PeriodDays float64 `json:"period_days"`
	Order      int     `json:"order"`
}

// AdditiveForecaster fits y(t) = trend(t) + seasonalities(t) where the trend is
// piecewise linear with changepoints in the early part of the history. The exported
// fields are its JSON document.
type AdditiveForecaster struct {
	MaxChangepoints  int     `json:"max_changepoints"`
	ChangepointRange float64 `json:"changepoint_range"`
	RidgeLambda      float64 `json:"ridge_lambda"`
	IntervalWidth    float64 `json:"interval_width"`

	Start         time.Time     `json:"start"`
	SpanSeconds   float64       `json:"span_seconds"`
	YScale        float64       `json:"y_scale"`
	Changepoints  []float64     `json:"changepoints"`
	Seasonalities []Seasonality `json:"seasonalities"`
	Beta          []float64     `json:"beta"`
	Sigma         float64       `json:"sigma"`
	NObs          int           `json:"n_obs"`
}

func NewAdditiveForecaster() *AdditiveForecaster {
	return &AdditiveForecaster{
		MaxChangepoints:  25,
		ChangepointRange: 0.8,
		RidgeLambda:      1,
		IntervalWidth:    0.8,
	}
}

func (f *AdditiveForecaster) Fit(history []models.PricePoint) error {
	pts := append([]models.PricePoint(nil), history...)
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })
	n := len(pts)
	if n < 2 {
		return fmt.Errorf("forecaster fit: %d points: %w", n, ErrEmptyInput)
	}
	span := pts[n-1].Date.Sub(pts[0].Date)
	if span <= 0 {
		return fmt.Errorf("forecaster fit: history spans no time")
	}

	f.Start = pts[0].Date
	f.SpanSeconds = span.Seconds()
	f.NObs = n
	f.YScale = 0
	for _, p := range pts {
		f.YScale = math.Max(f.YScale, math.Abs(p.Close))
	}
	if f.YScale == 0 {
		f.YScale = 1
	}

	f.Changepoints = f.placeChangepoints(pts)
	f.Seasonalities = chooseSeasonalities(pts, span)

	p := 2 + len(f.Changepoints) + seasonalWidth(f.Seasonalities)
	data := make([]float64, 0, n*p)
	ys := make([]float64, n)
	for i, pt := range pts {
		data = append(data, f.row(pt.Date)...)
		ys[i] = pt.Close / f.YScale
	}
	x := mat.NewDense(n, p, data)
	y := mat.NewVecDense(n, ys)

	var a mat.Dense
	a.Mul(x.T(), x)
	// trend intercept and slope are unpenalised
	for j := 2; j < p; j++ {
		a.Set(j, j, a.At(j, j)+f.RidgeLambda)
	}
	var b mat.VecDense
	b.MulVec(x.T(), y)

	var beta mat.VecDense
	if err := beta.SolveVec(&a, &b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return fmt.Errorf("forecaster solve: %w", err)
		}
	}
	f.Beta = make([]float64, p)
	for j := range f.Beta {
		f.Beta[j] = beta.AtVec(j)
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)
	sse := 0.0
	for i := 0; i < n; i++ {
		r := ys[i] - fitted.AtVec(i)
		sse += r * r
	}
	f.Sigma = math.Sqrt(sse/float64(n)) * f.YScale
	if math.IsNaN(f.Sigma) || math.IsNaN(f.Beta[0]) {
		return fmt.Errorf("forecaster fit: non-finite solution")
	}
	return nil
}

// Predict returns the point forecast at each time.
func (f *AdditiveForecaster) Predict(at []time.Time) ([]float64, error) {
	if len(f.Beta) == 0 {
		return nil, fmt.Errorf("forecaster predict: %w", ErrNotFitted)
	}
	out := make([]float64, len(at))
	for i, t := range at {
		row := f.row(t)
		v := 0.0
		for j, b := range f.Beta {
			v += row[j] * b
		}
		out[i] = v * f.YScale
	}
	return out, nil
}

// PredictInterval returns the point forecast with its IntervalWidth uncertainty band.
func (f *AdditiveForecaster) PredictInterval(at []time.Time) (yhat, lower, upper []float64, err error) {
	yhat, err = f.Predict(at)
	if err != nil {
		return nil, nil, nil, err
	}
	z := distuv.UnitNormal.Quantile(0.5 + f.IntervalWidth/2)
	lower = make([]float64, len(yhat))
	upper = make([]float64, len(yhat))
	for i, v := range yhat {
		lower[i] = v - z*f.Sigma
		upper[i] = v + z*f.Sigma
	}
	return yhat, lower, upper, nil
}

// row is the design-matrix row for t: intercept, slope, changepoint hinges, Fourier terms.
func (f *AdditiveForecaster) row(t time.Time) []float64 {
	s := t.Sub(f.Start).Seconds() / f.SpanSeconds
	out := make([]float64, 0, len(f.Beta)+2)
	out = append(out, 1, s)
	for _, c := range f.Changepoints {
		out = append(out, math.Max(0, s-c))
	}
	days := float64(t.Sub(f.Start)) / float64(day)
	for _, season := range f.Seasonalities {
		for k := 1; k <= season.Order; k++ {
			arg := 2 * math.Pi * float64(k) * days / season.PeriodDays
			out = append(out, math.Sin(arg), math.Cos(arg))
		}
	}
	return out
}

// placeChangepoints spreads up to MaxChangepoints over the first ChangepointRange of history.
func (f *AdditiveForecaster) placeChangepoints(pts []models.PricePoint) []float64 {
	histSize := int(math.Floor(float64(len(pts)) * f.ChangepointRange))
	k := f.MaxChangepoints
	if k > histSize-1 {
		k = histSize - 1
	}
	if k <= 0 {
		return nil
	}
	out := make([]float64, 0, k)
	for i := 1; i <= k; i++ {
		idx := int(math.Round(float64(i) * float64(histSize-1) / float64(k)))
		out = append(out, pts[idx].Date.Sub(f.Start).Seconds()/f.SpanSeconds)
	}
	return out
}

func chooseSeasonalities(pts []models.PricePoint, span time.Duration) []Seasonality {
	spacing := span
	for i := 1; i < len(pts); i++ {
		if d := pts[i].Date.Sub(pts[i-1].Date); d > 0 && d < spacing {
			spacing = d
		}
	}

	var out []Seasonality
	if span >= 730*day {
		out = append(out, Seasonality{Name: "yearly", PeriodDays: 365.25, Order: 10})
	}
	if span >= 14*day && spacing < 7*day {
		out = append(out, Seasonality{Name: "weekly", PeriodDays: 7, Order: 3})
	}
	if span >= 2*day && spacing < day {
		out = append(out, Seasonality{Name: "daily", PeriodDays: 1, Order: 4})
	}
	return out
}

func seasonalWidth(ss []Seasonality) int {
	w := 0
	for _, s := range ss {
		w += 2 * s.Order
	}
	return w
}
