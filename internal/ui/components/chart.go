// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/bookdash-tui/internal/ui/styles"
)

// Chart colors. The asciigraph series colors match the legend colors.
var (
	ChartSeries1Color = lipgloss.Color("#4285f4")
	ChartSeries2Color = lipgloss.Color("#cc785c")
	ChartBarColor     = lipgloss.Color("#7D56F4")
)

const (
	minChartWidth  = 20
	minChartHeight = 3
)

// NoDataText is shown by charts without points.
const NoDataText = "No data available"

func chartSize(width, height int) (int, int) {
	return max(width, minChartWidth), max(height, minChartHeight)
}

// asciigraph needs two points to draw a line.
func plottable(data []float64) []float64 {
	if len(data) == 1 {
		return []float64{data[0], data[0]}
	}
	return data
}

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render(NoDataText)
	}

	width, height = chartSize(width, height)

	return asciigraph.Plot(plottable(data),
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(2),
		asciigraph.Caption(caption),
	)
}

// RenderDualLineChart draws two series on one axis. The shorter series is
// padded with its last value.
func RenderDualLineChart(first, second []float64, width, height int, caption string) string {
	if len(first) == 0 && len(second) == 0 {
		return styles.HelpStyle.Render(NoDataText)
	}

	width, height = chartSize(width, height)

	n := max(len(first), len(second), 2)
	series := [][]float64{padSeries(first, n), padSeries(second, n)}

	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(2),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(
			asciigraph.Blue,
			asciigraph.Red,
		),
	)
}

func padSeries(data []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, data)
	if len(data) > 0 {
		for i := len(data); i < n; i++ {
			out[i] = data[len(data)-1]
		}
	}
	return out
}

// RenderBarChart draws one horizontal bar per count, scaled to the largest.
// Labels are right aligned by display width so "£" and "–" line up.
func RenderBarChart(counts []int, labels []string, width int) string {
	if len(counts) == 0 {
		return ""
	}

	maxVal := 0
	for _, v := range counts {
		maxVal = max(maxVal, v)
	}
	maxVal = max(maxVal, 1)

	maxLabelLen := 0
	for _, l := range labels {
		maxLabelLen = max(maxLabelLen, lipgloss.Width(l))
	}

	maxValueLen := len(fmt.Sprint(maxVal))
	barWidth := max(width-maxLabelLen-maxValueLen-4, 10)
	barStyle := lipgloss.NewStyle().Foreground(ChartBarColor)

	lines := make([]string, 0, len(counts))
	for i, v := range counts {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		pad := strings.Repeat(" ", maxLabelLen-lipgloss.Width(label))

		barLen := max(v*barWidth/maxVal, 0)
		if v > 0 && barLen == 0 {
			barLen = 1
		}

		bar := barStyle.Render(strings.Repeat("█", barLen))
		lines = append(lines, fmt.Sprintf("%s%s │%s %d", pad, label, bar, v))
	}

	return strings.Join(lines, "\n")
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSparkline creates a compact inline sparkline chart scaled between
// the series minimum and maximum.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo

	step := max(float64(len(values))/float64(width), 1)

	var result strings.Builder
	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		val := values[int(float64(i)*step)]
		idx := len(sparkChars) - 1
		if span > 0 {
			idx = int((val - lo) / span * float64(len(sparkChars)-1))
		}
		idx = min(max(idx, 0), len(sparkChars)-1)
		result.WriteRune(sparkChars[idx])
	}

	return result.String()
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}
