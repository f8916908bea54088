package analytics

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/bookdash-tui/internal/filter"
	"github.com/j-veylop/bookdash-tui/internal/models"
	"github.com/j-veylop/bookdash-tui/internal/ui/components"
	"github.com/j-veylop/bookdash-tui/internal/ui/styles"
)

// Panel error and empty texts.
const (
	textStatsFailed   = "Could not load price stats"
	textAvailFailed   = "Could not load availability"
	textBucketsFailed = "Failed to load price buckets"
	textWordsFailed   = "Failed to load Title Words"
	textNoPriceData   = "No price data available."
	textNoWords       = "No Words"
)

const minPanelWidth = 30

// View renders the analytics tab.
func (m *Model) View() string {
	panelWidth := max((m.width-8)/2, minPanelWidth)

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		m.panel("Price stats", m.renderStats(), panelWidth),
		m.panel("Availability", m.renderAvailability(panelWidth-4), panelWidth),
	)
	bottom := lipgloss.JoinHorizontal(lipgloss.Top,
		m.panel(m.histogramTitle(), m.renderHistogram(panelWidth-4), panelWidth),
		m.panel(fmt.Sprintf("Top %d title words", m.topN), m.renderWords(panelWidth-4), panelWidth),
	)

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, top, bottom))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) panel(title, body string, width int) string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.CardTitleStyle.Render(title),
		body,
	)
	return styles.PanelStyle.Width(width).Render(content)
}

func (m *Model) histogramTitle() string {
	return fmt.Sprintf("Price histogram (£%g buckets)", m.state.GetView().BucketSize)
}

func (m *Model) renderStats() string {
	return components.RenderPanelBody(m.spinner, m.statsStatus, textStatsFailed, func() string {
		s := m.stats
		if s == nil {
			s = &models.PriceStats{}
		}
		row := func(label, value string) string {
			return styles.LabelStyle.Width(12).Render(label) + styles.StatValueStyle.Render(value)
		}
		return strings.Join([]string{
			row("With price", fmt.Sprint(s.Count)),
			row("Min", models.FormatPrice(s.Min, "-")),
			row("Avg", models.FormatPrice(s.Average, "-")),
			row("Max", models.FormatPrice(s.Max, "-")),
		}, "\n")
	})
}

func (m *Model) renderAvailability(width int) string {
	return components.RenderPanelBody(m.spinner, m.availStatus, textAvailFailed, func() string {
		r := m.availability
		if r == nil || len(r.Buckets) == 0 {
			return styles.HelpStyle.Render(components.NoDataText)
		}

		counts := make([]int, len(r.Buckets))
		labels := make([]string, len(r.Buckets))
		for i, b := range r.Buckets {
			counts[i] = b.Count
			labels[i] = styles.GetAvailabilityStyle(b.Label).Render(b.Label)
		}

		ratio := 0.0
		if r.Total > 0 {
			ratio = float64(r.InStock()) / float64(r.Total)
		}

		return lipgloss.JoinVertical(lipgloss.Left,
			components.RenderBarChart(counts, labels, width),
			"",
			styles.LabelStyle.Render("Total ")+styles.StatValueStyle.Render(fmt.Sprint(r.Total)),
			m.ratioBar.View(ratio, "In stock", width),
		)
	})
}

func (m *Model) renderHistogram(width int) string {
	return components.RenderPanelBody(m.spinner, m.bucketsStatus, textBucketsFailed, func() string {
		if len(m.buckets) == 0 {
			return styles.HelpStyle.Render(textNoPriceData)
		}

		counts := make([]int, len(m.buckets))
		labels := make([]string, len(m.buckets))
		series := make([]float64, len(m.buckets))
		for i, b := range m.buckets {
			counts[i] = b.Count
			labels[i] = b.Label()
			series[i] = float64(b.Count)
		}

		return lipgloss.JoinVertical(lipgloss.Left,
			components.RenderBarChart(counts, labels, width),
			"",
			styles.LabelStyle.Render("Shape ")+components.RenderSparkline(series, width-6),
			styles.HelpStyle.Render(fmt.Sprintf("+/- bucket size (%s)", bucketChoices())),
		)
	})
}

func bucketChoices() string {
	parts := make([]string, len(filter.BucketSizes))
	for i, s := range filter.BucketSizes {
		parts[i] = fmt.Sprint(s)
	}
	return strings.Join(parts, ", ")
}

func (m *Model) renderWords(width int) string {
	return components.RenderPanelBody(m.spinner, m.wordsStatus, textWordsFailed, func() string {
		if len(m.words) == 0 {
			return styles.HelpStyle.Render(textNoWords)
		}

		counts := make([]int, len(m.words))
		labels := make([]string, len(m.words))
		for i, w := range m.words {
			counts[i] = w.Count
			labels[i] = w.Word
		}
		return components.RenderBarChart(counts, labels, width)
	})
}
