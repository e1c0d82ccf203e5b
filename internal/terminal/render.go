// Package terminal renders dashboard snapshots and backend responses for the CLI.
package terminal

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"aprScope/internal/dashboard"
	"aprScope/internal/dex"
	"aprScope/internal/format"
	"aprScope/internal/model"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	gainStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	okBadgeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10"))
	downBadgeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1"))
)

var cardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("240")).
	Padding(0, 1).
	Width(22)

func colorStyle(c dashboard.Color) lipgloss.Style {
	switch c {
	case dashboard.ColorGreen:
		return gainStyle
	case dashboard.ColorRed:
		return lossStyle
	default:
		return dimStyle
	}
}

// Dashboard renders the selection, cards, chart state and pair panel of snap.
func Dashboard(snap dashboard.Snapshot, loc *time.Location) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("APR Analysis Dashboard"))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("Pair: %s (%s)  Window: %s",
		snap.Selection.Pair.Name, snap.Selection.Pair.Address, snap.Selection.Window.Label())))
	b.WriteString("\n\n")

	if cards := Cards(snap.Model.Cards); cards != "" {
		b.WriteString(cards)
		b.WriteString("\n\n")
	}
	b.WriteString(Chart(snap.Model))
	b.WriteString("\n")

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Pair snapshot"))
	b.WriteString("\n")
	switch {
	case snap.Pair.Loading:
		b.WriteString(dimStyle.Render("Loading pair data..."))
	case snap.Pair.Err != nil:
		b.WriteString(errorStyle.Render(snap.Pair.ErrorMessage()))
	default:
		b.WriteString(Pair(snap.Pair.Data, loc))
	}
	b.WriteString("\n")
	return b.String()
}

// Cards lays the metric cards out side by side.
func Cards(cards []dashboard.Card) string {
	if len(cards) == 0 {
		return ""
	}
	blocks := make([]string, 0, len(cards))
	for _, c := range cards {
		body := headerStyle.Render(c.Title) + "\n" + valueStyle.Render(c.Value)
		if c.Change != "" {
			body += "\n" + colorStyle(c.Color).Render(c.Change)
		}
		blocks = append(blocks, cardStyle.Render(body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
}

// Chart renders the chart area: a state message, or the info line and one row per point.
func Chart(m dashboard.Model) string {
	switch m.Status {
	case dashboard.StatusLoading:
		return dimStyle.Render("Loading APR data...")
	case dashboard.StatusError:
		return errorStyle.Render("Error loading data:") + " " + m.Error
	case dashboard.StatusEmpty:
		return dimStyle.Render(dashboard.EmptyMessage)
	}

	var b strings.Builder
	b.WriteString(m.Info.Summary())
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("Latest: " + m.Info.Latest))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("%4s  %-16s %10s %10s %10s", "#", "Time", "APR", "Fees", "Liquidity")))
	for _, p := range m.ChartData {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%4d  %-16s %10s %10s %10s",
			p.Index+1, p.FormattedTime, format.CompactAPR(p.APR), format.CompactNumber(p.FeesUSD), format.CompactNumber(p.ReserveUSD)))
	}
	return b.String()
}

// Pair renders one liquidity snapshot.
func Pair(s *model.PairSnapshot, loc *time.Location) string {
	if s == nil {
		return dimStyle.Render("No pair data available")
	}
	var lines []string
	if s.Token0Symbol != "" || s.Token1Symbol != "" {
		lines = append(lines, valueStyle.Render(s.Token0Symbol+"/"+s.Token1Symbol))
	}
	lines = append(lines,
		"Reserve: "+format.CompactNumber(s.ReserveUSD)+"  Volume: "+format.CompactNumber(s.VolumeUSD),
		dimStyle.Render("Updated: "+format.Timestamp(s.Timestamp, loc)),
	)
	if s.BlockNumber != nil {
		lines = append(lines, dimStyle.Render("Block: "+strconv.FormatUint(*s.BlockNumber, 10)))
	}
	return strings.Join(lines, "\n")
}

// OnchainPair renders pair state read directly from the chain.
func OnchainPair(s dex.PairState) string {
	lines := []string{
		titleStyle.Render("On-chain"),
		valueStyle.Render(s.Symbols()) + " " + dimStyle.Render(s.Address),
		fmt.Sprintf("Reserve0: %s %s", s.Reserve0Units().StringFixed(4), s.Token0.Symbol),
		fmt.Sprintf("Reserve1: %s %s", s.Reserve1Units().StringFixed(4), s.Token1.Symbol),
	}
	if s.BlockTimestampLast > 0 {
		last := time.Unix(int64(s.BlockTimestampLast), 0).UTC().Format(time.RFC3339)
		lines = append(lines, dimStyle.Render("Last sync: "+last))
	}
	return strings.Join(lines, "\n")
}

// History renders historical snapshots with their meta line.
func History(snapshots []model.PairSnapshot, meta *model.HistoryMeta, loc *time.Location) string {
	var b strings.Builder
	if meta != nil {
		line := fmt.Sprintf("Total: %d  Limit: %d", meta.Total, meta.Limit)
		if meta.StartDate != "" {
			line += "  From: " + meta.StartDate
		}
		if meta.EndDate != "" {
			line += "  To: " + meta.EndDate
		}
		b.WriteString(headerStyle.Render(line))
		b.WriteString("\n")
	}
	if len(snapshots) == 0 {
		b.WriteString(dimStyle.Render("No historical data available"))
		return b.String()
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-16s %10s %10s", "Time", "Reserve", "Volume")))
	for _, s := range snapshots {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%-16s %10s %10s",
			format.Timestamp(s.Timestamp, loc), format.CompactNumber(s.ReserveUSD), format.CompactNumber(s.VolumeUSD)))
	}
	return b.String()
}

// Health renders a backend health check result.
func Health(h *model.HealthStatus, err error) string {
	if err != nil {
		return downBadgeStyle.Render(" DOWN ") + " " + errorStyle.Render(err.Error())
	}
	badge := downBadgeStyle.Render(" DEGRADED ")
	if h.Healthy() {
		badge = okBadgeStyle.Render(" OK ")
	}
	if h == nil {
		return badge
	}
	detail := fmt.Sprintf("status=%s database=%s api=%s", h.Status, h.Database, h.API)
	if h.Service != "" {
		detail += " service=" + h.Service
	}
	if h.Version != "" {
		detail += " version=" + h.Version
	}
	return badge + " " + dimStyle.Render(detail)
}
