package web

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"aprScope/internal/dashboard"
	"aprScope/internal/format"
)

const (
	chartWidth  = 960
	chartHeight = 384
)

var lineColor = drawing.ColorFromHex("3b82f6")

// renderChart draws APR by 1-based point index as a PNG.
func renderChart(points []dashboard.ChartPoint, width, height int) ([]byte, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("no points to render")
	}

	xs := make([]float64, 0, len(points))
	ys := make([]float64, 0, len(points))
	minY, maxY := points[0].APR, points[0].APR
	for _, p := range points {
		xs = append(xs, float64(p.Index+1))
		ys = append(ys, p.APR)
		if p.APR < minY {
			minY = p.APR
		}
		if p.APR > maxY {
			maxY = p.APR
		}
	}

	// A zero-width range cannot be rendered.
	maxX := float64(len(points))
	if maxX < 2 {
		maxX = 2
	}
	if minY == maxY {
		minY, maxY = minY-1, maxY+1
	}

	ch := chart.Chart{
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 10, Left: 10, Right: 15, Bottom: 10}},
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: 1, Max: maxX},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: minY, Max: maxY},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return format.CompactAPR(f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "APR",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: lineColor,
					StrokeWidth: 2,
					DotColor:    lineColor,
					DotWidth:    2,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}
