package report

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/mbd888/fraudscope/internal/scoring"
)

var (
	fraudColor    = drawing.Color{R: 214, G: 39, B: 40, A: 255}
	notFraudColor = drawing.Color{R: 44, G: 160, B: 44, A: 255}
	histColor     = drawing.Color{R: 31, G: 119, B: 180, A: 255}
)

// classCountChart renders the fraud vs non-fraud count bar chart.
func classCountChart(fraud, notFraud int) ([]byte, error) {
	max := float64(fraud)
	if float64(notFraud) > max {
		max = float64(notFraud)
	}
	graph := chart.BarChart{
		Title:    "Fraud vs Non-Fraud",
		Width:    400,
		Height:   300,
		BarWidth: 80,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: max + 1},
		},
		Bars: []chart.Value{
			{Label: scoring.LabelFraud, Value: float64(fraud), Style: chart.Style{FillColor: fraudColor, StrokeColor: fraudColor}},
			{Label: scoring.LabelNotFraud, Value: float64(notFraud), Style: chart.Style{FillColor: notFraudColor, StrokeColor: notFraudColor}},
		},
	}
	return renderPNG(&graph)
}

// probabilityHistogramChart renders the 20-bin fraud probability histogram.
func probabilityHistogramChart(counts []int) ([]byte, error) {
	bars := make([]chart.Value, len(counts))
	maxCount := 0.0
	for i, c := range counts {
		label := ""
		if i%5 == 0 {
			label = fmt.Sprintf("%.2f", float64(i)/float64(len(counts)))
		}
		bars[i] = chart.Value{
			Label: label,
			Value: float64(c),
			Style: chart.Style{FillColor: histColor, StrokeColor: histColor},
		}
		if float64(c) > maxCount {
			maxCount = float64(c)
		}
	}
	graph := chart.BarChart{
		Title:    "Fraud Probability Distribution",
		Width:    400,
		Height:   300,
		BarWidth: 12,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: maxCount + 1},
		},
		Bars: bars,
	}
	return renderPNG(&graph)
}

// gaugeChart renders the single-prediction risk gauge: one bar on a fixed
// 0..1 axis, red above the 0.5 mark.
func gaugeChart(probability float64) ([]byte, error) {
	color := notFraudColor
	if probability > 0.5 {
		color = fraudColor
	}
	graph := chart.BarChart{
		Title:    "Fraud Risk Gauge",
		Width:    300,
		Height:   200,
		BarWidth: 100,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		Bars: []chart.Value{
			{Label: "fraud probability", Value: probability, Style: chart.Style{FillColor: color, StrokeColor: color}},
		},
	}
	return renderPNG(&graph)
}

func renderPNG(graph *chart.BarChart) ([]byte, error) {
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}
