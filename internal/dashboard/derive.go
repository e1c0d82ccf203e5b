package dashboard

import (
	"strconv"
	"time"

	"aprScope/internal/format"
	"aprScope/internal/model"
)

// DefaultFeeRate applies when a point carries no fee rate.
const DefaultFeeRate = 0.003

// Color is the tone of a card's change line.
type Color string

const (
	ColorGreen Color = "green"
	ColorRed   Color = "red"
	ColorGray  Color = "gray"
)

// Status is the state of the chart area.
type Status string

const (
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusEmpty   Status = "empty"
	StatusReady   Status = "ready"
)

const EmptyMessage = "No APR data available"

// ChartPoint is an APR point with optional fields zero-filled for plotting.
type ChartPoint struct {
	Index         int     `json:"index"`
	APR           float64 `json:"apr"`
	Timestamp     string  `json:"timestamp"`
	FormattedTime string  `json:"formattedTime"`
	FeesUSD       float64 `json:"feesUSD"`
	ReserveUSD    float64 `json:"reserveUSD"`
	VolumeUSD     float64 `json:"volumeUSD"`
	FeeRate       float64 `json:"feeRate"`
}

// Card is one summary metric.
type Card struct {
	Title  string `json:"title"`
	Value  string `json:"value"`
	Change string `json:"change,omitempty"`
	Color  Color  `json:"color"`
}

// ChartInfo is the caption above the chart.
type ChartInfo struct {
	Window model.Window `json:"window"`
	Points int          `json:"points"`
	Latest string       `json:"latest"`
}

// Summary returns "Window: 24h moving average | Data points: 7".
func (i ChartInfo) Summary() string {
	return "Window: " + i.Window.String() + "h moving average | Data points: " + strconv.Itoa(i.Points)
}

// Model is everything the presentation layers render for one selection.
type Model struct {
	Status    Status       `json:"status"`
	Error     string       `json:"error,omitempty"`
	ChartData []ChartPoint `json:"chartData"`
	Cards     []Card       `json:"cards,omitempty"`
	Info      ChartInfo    `json:"info"`
}

// ChartData annotates points with their index and display time and fills absent optional fields.
func ChartData(points []model.APRDataPoint, loc *time.Location) []ChartPoint {
	out := make([]ChartPoint, 0, len(points))
	for i, p := range points {
		out = append(out, ChartPoint{
			Index:         i,
			APR:           p.APR,
			Timestamp:     p.Timestamp,
			FormattedTime: format.Timestamp(p.Timestamp, loc),
			FeesUSD:       orDefault(p.FeesUSD, 0),
			ReserveUSD:    orDefault(p.ReserveUSD, 0),
			VolumeUSD:     orDefault(p.VolumeUSD, 0),
			FeeRate:       orDefault(p.FeeRate, DefaultFeeRate),
		})
	}
	return out
}

// Cards derives the summary metrics from the last and first chart points.
// It returns nil for an empty series.
func Cards(chart []ChartPoint) []Card {
	if len(chart) == 0 {
		return nil
	}
	latest := chart[len(chart)-1]
	first := chart[0]

	return []Card{
		changeCard("Current APR", format.CompactAPR(latest.APR), latest.APR, first.APR),
		changeCard("Total Fees", format.CompactNumber(latest.FeesUSD), latest.FeesUSD, first.FeesUSD),
		changeCard("Avg Liquidity", format.CompactNumber(latest.ReserveUSD), latest.ReserveUSD, first.ReserveUSD),
		{
			Title:  "Volume (24h)",
			Value:  format.CompactNumber(latest.VolumeUSD),
			Change: format.Fixed(latest.FeeRate*100, 1) + "% fee",
			Color:  ColorGray,
		},
	}
}

// Derive builds the chart model for a window from the APR query outcome.
func Derive(window model.Window, points []model.APRDataPoint, loading bool, err error, loc *time.Location) Model {
	chart := ChartData(points, loc)
	m := Model{
		ChartData: chart,
		Cards:     Cards(chart),
		Info:      ChartInfo{Window: window, Points: len(chart)},
	}
	if n := len(chart); n > 0 {
		m.Info.Latest = chart[n-1].FormattedTime
	}

	switch {
	case loading:
		m.Status = StatusLoading
	case err != nil:
		m.Status = StatusError
		m.Error = err.Error()
	case len(chart) == 0:
		m.Status = StatusEmpty
	default:
		m.Status = StatusReady
	}
	return m
}

func changeCard(title, value string, latest, first float64) Card {
	card := Card{Title: title, Value: value, Change: format.Percentage(latest, first)}
	switch {
	case first == 0:
		card.Color = ColorGray
	case latest > first:
		card.Color = ColorGreen
	default:
		card.Color = ColorRed
	}
	return card
}

// orDefault mirrors a falsy check: nil and zero both take def.
func orDefault(v *float64, def float64) float64 {
	if v == nil || *v == 0 {
		return def
	}
	return *v
}
