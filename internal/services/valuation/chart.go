package valuation

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/folio/internal/models"
)

// RenderChart renders the history time series for a filter as a PNG line
// chart. Green when the series ends at or above its start, red otherwise.
func (s *Service) RenderChart(filter models.SeriesFilter) ([]byte, error) {
	points := s.TimeSeries(filter)

	xValues := make([]float64, len(points))
	yValues := make([]float64, len(points))
	ticks := make([]chart.Tick, len(points))
	for i, p := range points {
		xValues[i] = float64(i)
		yValues[i] = p.Value
		ticks[i] = chart.Tick{Value: float64(i), Label: p.Label}
	}

	strokeColor := drawing.ColorFromHex("00c087") // green
	if yValues[len(yValues)-1] < yValues[0] {
		strokeColor = drawing.ColorFromHex("f6465d") // red
	}

	series := chart.ContinuousSeries{
		Name: "Portfolio History",
		Style: chart.Style{
			StrokeColor: strokeColor,
			StrokeWidth: 2.0,
		},
		XValues: xValues,
		YValues: yValues,
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("History (%s)", filter),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.0f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{series},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
