package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/bookdash-tui/internal/ui/styles"
)

const (
	ratioLabelWidth   = 15
	ratioPercentWidth = 6
	minRatioBarWidth  = 10
)

// RatioBar renders a 0..1 ratio, such as the in-stock share, as a
// gradient progress bar with label and percentage.
type RatioBar struct {
	progress progress.Model
}

// NewRatioBar creates a new ratio bar with gradient colors.
func NewRatioBar() RatioBar {
	return NewRatioBarWithWidth(30)
}

// NewRatioBarWithWidth creates a ratio bar with a specific width.
func NewRatioBarWithWidth(width int) RatioBar {
	p := progress.New(
		progress.WithScaledGradient("#ff6b6b", "#51cf66"),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	return RatioBar{progress: p}
}

// SetWidth sets the progress bar width.
func (r *RatioBar) SetWidth(width int) {
	r.progress.Width = width
}

func clampRatio(ratio float64) float64 {
	return min(max(ratio, 0), 1)
}

// View renders the bar with label and percentage within width.
func (r RatioBar) View(ratio float64, label string, width int) string {
	ratio = clampRatio(ratio)
	r.progress.Width = max(width-ratioLabelWidth-ratioPercentWidth-1, minRatioBarWidth)

	bar := r.progress.ViewAs(ratio)

	percentStr := styles.GetRatioStyle(ratio).
		Width(ratioPercentWidth).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", ratio*100))

	labelStr := styles.LabelStyle.Width(ratioLabelWidth).Render(label)

	return lipgloss.JoinHorizontal(lipgloss.Center, labelStr, bar, " ", percentStr)
}

// ViewCompact renders a compact version without label.
func (r RatioBar) ViewCompact(ratio float64, width int) string {
	ratio = clampRatio(ratio)
	r.progress.Width = max(width-8, 5)

	bar := r.progress.ViewAs(ratio)
	percentStr := styles.GetRatioStyle(ratio).Render(fmt.Sprintf("%.0f%%", ratio*100))

	return lipgloss.JoinHorizontal(lipgloss.Center, bar, " ", percentStr)
}
