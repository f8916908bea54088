package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/bookdash-tui/internal/models"
	"github.com/j-veylop/bookdash-tui/internal/ui/components"
	"github.com/j-veylop/bookdash-tui/internal/ui/styles"
)

const recentRows = 5

// View renders the history tab.
func (m *Model) View() string {
	if m.loading && !m.loaded {
		return m.renderLoading()
	}
	if m.errorMsg != "" {
		return m.renderError()
	}
	if len(m.snapshots) == 0 {
		return m.renderEmpty()
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderPriceChart(),
		m.renderStockChart(),
		m.renderRecent(),
	)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderLoading() string {
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(styles.HelpStyle.Render("Loading history data..."))
}

func (m *Model) renderError() string {
	content := fmt.Sprintf("%s %s",
		styles.ErrorTextStyle.Render("Error:"),
		m.errorMsg,
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderEmpty() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderRangeHeader("History"),
		"",
		styles.HelpStyle.Render("No snapshots recorded in this range yet."),
		styles.HelpStyle.Render("Snapshots are recorded periodically, or press c to capture one now."),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderRangeHeader(title string) string {
	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)

	rangeIndicator := rangeStyle.Render(fmt.Sprintf("[t] %s", m.timeRange.String()))
	return lipgloss.JoinHorizontal(lipgloss.Center, styles.TitleStyle.Render(title), "  ", rangeIndicator)
}

func (m *Model) renderHeader() string {
	first := m.snapshots[0].RecordedAt
	last := m.snapshots[len(m.snapshots)-1].RecordedAt

	subtitle := styles.HelpStyle.Render(fmt.Sprintf("%d snapshots: %s → %s",
		len(m.snapshots),
		first.Format("Jan 2 15:04"),
		last.Format("Jan 2 15:04"),
	))

	status := ""
	if m.capturing {
		status = styles.InfoTextStyle.Render("Capturing snapshot...")
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderRangeHeader("Catalog history"), subtitle, status)
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 40)
}

func (m *Model) card(title string, rows []string) string {
	body := append([]string{styles.CardTitleStyle.Render(title)}, rows...)
	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, body...),
	)
}

func indent(chart string) []string {
	var rows []string
	for line := range strings.SplitSeq(chart, "\n") {
		rows = append(rows, "  "+line)
	}
	return rows
}

// averagePrices skips snapshots recorded while no book carried a price.
func averagePrices(snaps []models.Snapshot) []float64 {
	out := make([]float64, 0, len(snaps))
	for _, s := range snaps {
		if s.AvgPrice != nil {
			out = append(out, *s.AvgPrice)
		}
	}
	return out
}

func (m *Model) renderPriceChart() string {
	chartWidth := max(m.cardWidth()-12, 30)

	avg := averagePrices(m.snapshots)
	chart := components.RenderLineChart(avg, chartWidth, 8, "Average price (£)")

	rows := indent(chart)
	if len(avg) > 0 {
		rows = append(rows, "", "  "+styles.LabelStyle.Render("Trend ")+components.RenderSparkline(avg, chartWidth))
	}
	return m.card("Average price", rows)
}

func (m *Model) renderStockChart() string {
	chartWidth := max(m.cardWidth()-12, 30)

	total := make([]float64, len(m.snapshots))
	inStock := make([]float64, len(m.snapshots))
	for i, s := range m.snapshots {
		total[i] = float64(s.TotalBooks)
		inStock[i] = float64(s.InStock)
	}

	rows := indent(components.RenderDualLineChart(total, inStock, chartWidth, 8, "Books: total vs in stock"))

	latest := m.snapshots[len(m.snapshots)-1]
	rows = append(rows,
		"",
		"  "+components.RenderLegend([]components.LegendItem{
			{Label: "Total", Color: components.ChartSeries1Color},
			{Label: "In stock", Color: components.ChartSeries2Color},
		}),
		"  "+components.NewRatioBar().View(latest.InStockRatio(), "In stock now", chartWidth),
	)
	return m.card("Availability", rows)
}

func (m *Model) renderRecent() string {
	header := styles.TableHeaderStyle.Render(fmt.Sprintf("%-14s %8s %9s %10s %10s",
		"Recorded", "Books", "In stock", "Priced", "Avg price"))

	rows := []string{header}
	start := max(len(m.snapshots)-recentRows, 0)
	for i := len(m.snapshots) - 1; i >= start; i-- {
		s := m.snapshots[i]
		rows = append(rows, fmt.Sprintf("%-14s %8d %9d %10d %10s",
			s.RecordedAt.Format("Jan 2 15:04"),
			s.TotalBooks,
			s.InStock,
			s.PricedBooks,
			models.FormatPrice(s.AvgPrice, "-"),
		))
	}
	return m.card("Latest snapshots", rows)
}
