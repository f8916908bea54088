package books

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/bookdash-tui/internal/filter"
	"github.com/j-veylop/bookdash-tui/internal/models"
	"github.com/j-veylop/bookdash-tui/internal/ui/styles"
)

// Rows taken by the filter bar, status line, footer and table header.
const tableChrome = 10

const (
	priceColWidth = 10
	availColWidth = 16
	minTitleWidth = 20
)

// Status and empty-state texts.
const (
	textLoading    = "Loading..."
	textLoadFailed = "Failed to load page."
	textNoResults  = "No books match your filters"
	textClearHint  = "Press x to clear filters"
)

func newTable() table.Model {
	t := table.New(
		table.WithColumns(columns(models.SortNone, 0)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = styles.TableHeaderStyle
	s.Selected = styles.TableSelectedStyle
	t.SetStyles(s)
	return t
}

func columns(sort models.SortKey, width int) []table.Column {
	titleWidth := max(width-priceColWidth-availColWidth-12, minTitleWidth)
	return []table.Column{
		{Title: "Title" + sort.Indicator(models.SortByTitle), Width: titleWidth},
		{Title: "Price" + sort.Indicator(models.SortByPrice), Width: priceColWidth},
		{Title: "Availability", Width: availColWidth},
	}
}

func (m *Model) refreshRows() {
	if m.page == nil {
		m.table.SetRows(nil)
		return
	}

	rows := make([]table.Row, 0, len(m.page.Items))
	for _, b := range m.page.Items {
		rows = append(rows, table.Row{
			b.Title,
			models.FormatPrice(b.Price, "—"),
			b.Availability,
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

// View renders the books tab.
func (m *Model) View() string {
	v := m.state.GetView()

	sections := []string{
		m.renderFilterBar(v),
		m.renderStatus(),
	}

	// The status line stands alone while a page is loading or failed.
	switch {
	case m.page == nil || m.loading || m.err != nil:
	case len(m.page.Items) > 0:
		sections = append(sections, m.table.View(), m.renderFooter(v))
	default:
		sections = append(sections, m.renderEmpty(v))
	}

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderFilterBar(v filter.State) string {
	field := func(label string, f field, value string) string {
		style := styles.BlurredBorderStyle
		if m.editing == f {
			style = styles.FocusedBorderStyle
		}
		return style.Render(styles.LabelStyle.Render(label+" ") + value)
	}

	search := field("/", fieldSearch, m.search.View())
	minP := field("m", fieldPriceMin, m.priceMin.View())
	maxP := field("M", fieldPriceMax, m.priceMax.View())

	opts := fmt.Sprintf("%s %s  %s %d  %s %s",
		styles.LabelStyle.Render("Availability:"), styles.ValueStyle.Render(v.Availability.String()),
		styles.LabelStyle.Render("Per page:"), v.Limit,
		styles.LabelStyle.Render("Sort:"), styles.ValueStyle.Render(v.Sort.String()),
	)

	inputs := lipgloss.JoinHorizontal(lipgloss.Center, search, " ", minP, " ", maxP)
	return lipgloss.JoinVertical(lipgloss.Left, inputs, opts)
}

func (m *Model) renderStatus() string {
	switch {
	case m.loading:
		return m.spinner.View() + " " + styles.HelpStyle.Render(textLoading)
	case m.err != nil:
		return styles.ErrorTextStyle.Render(textLoadFailed)
	default:
		return ""
	}
}

func (m *Model) renderEmpty(v filter.State) string {
	lines := []string{styles.WarningTextStyle.Render(textNoResults)}
	if v.HasActiveFilters() {
		lines = append(lines, styles.HelpStyle.Render(textClearHint))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderFooter(v filter.State) string {
	total := m.total()
	from, to := v.Window(total)
	window := styles.LabelStyle.Render(fmt.Sprintf("%d–%d of %d", from, to, total))

	prev := button("‹ Prev", v.CanPrev())
	next := button("Next ›", v.CanNext(total))

	return lipgloss.JoinHorizontal(lipgloss.Center, prev, next, " ", window)
}

func button(label string, enabled bool) string {
	if enabled {
		return styles.ButtonInactiveStyle.Render(label)
	}
	return styles.ButtonDisabledStyle.Render(label)
}
