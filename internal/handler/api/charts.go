package api

import (
	"bytes"
	"fmt"
	"time"

	"FinDash/internal/domain/models"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	chartWidth  = "960px"
	chartHeight = "340px"
	axisLayout  = "01-02 15:04"
)

// gap leaves a hole in a line series.
const gap = "-"

// chartPair is the rendered close chart and average chart of one symbol.
type chartPair struct {
	Close   string
	Average string
}

// renderCharts renders both charts of v as standalone HTML documents.
func renderCharts(v models.SymbolView) (chartPair, error) {
	closeDoc, err := render(closeChart(v))
	if err != nil {
		return chartPair{}, fmt.Errorf("close chart: %w", err)
	}
	avgDoc, err := render(averageChart(v))
	if err != nil {
		return chartPair{}, fmt.Errorf("average chart: %w", err)
	}
	return chartPair{Close: closeDoc, Average: avgDoc}, nil
}

func newLine(title, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
	)
	return line
}

func closeChart(v models.SymbolView) *charts.Line {
	xs := make([]string, len(v.Bars))
	ys := make([]opts.LineData, len(v.Bars))
	for i, b := range v.Bars {
		xs[i] = label(b.Timestamp)
		ys[i] = opts.LineData{Value: b.Close}
	}
	line := newLine(v.Symbol+" close", "Price")
	line.SetXAxis(xs).AddSeries("Close", ys)
	return line
}

// averageChart plots the moving average over the bar timestamps and the projection
// after them on one shared axis.
func averageChart(v models.SymbolView) *charts.Line {
	n := len(v.Bars)
	xs := make([]string, 0, n+len(v.Projection))
	for _, b := range v.Bars {
		xs = append(xs, label(b.Timestamp))
	}
	for _, p := range v.Projection {
		xs = append(xs, label(p.Time))
	}

	ma := make([]opts.LineData, len(xs))
	proj := make([]opts.LineData, len(xs))
	for i := range xs {
		ma[i] = opts.LineData{Value: gap}
		proj[i] = opts.LineData{Value: gap}
	}
	offset := n - len(v.MovingAverage)
	for i, p := range v.MovingAverage {
		ma[offset+i] = opts.LineData{Value: p.Value}
	}
	if len(v.MovingAverage) > 0 && len(v.Projection) > 0 {
		// join the projection to the last average point
		proj[n-1] = opts.LineData{Value: v.MovingAverage[len(v.MovingAverage)-1].Value}
	}
	for i, p := range v.Projection {
		proj[n+i] = opts.LineData{Value: p.Value}
	}

	line := newLine(v.Symbol+" moving average", "Price")
	line.SetXAxis(xs).
		AddSeries("Moving average", ma).
		AddSeries("Projection", proj)
	return line
}

func render(line *charts.Line) (string, error) {
	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func label(t time.Time) string {
	return t.UTC().Format(axisLayout)
}
