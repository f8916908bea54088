package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/bookdash-tui/internal/ui/styles"
)

const (
	nameColWidth  = 24
	savedColWidth = 16
	minLinkWidth  = 20
)

// Shown in the link column for a view with no filters.
const textDefaultLink = "(defaults)"

func columns(width int) []table.Column {
	linkWidth := max(width-nameColWidth-savedColWidth-12, minLinkWidth)
	return []table.Column{
		{Title: "Name", Width: nameColWidth},
		{Title: "Link", Width: linkWidth},
		{Title: "Saved", Width: savedColWidth},
	}
}

func (m *Model) refreshRows() {
	views := m.state.GetViews()
	rows := make([]table.Row, 0, len(views))
	for _, v := range views {
		link := v.Link
		if link == "" {
			link = textDefaultLink
		}
		saved := "-"
		if !v.CreatedAt.IsZero() {
			saved = v.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, table.Row{v.Name, link, saved})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

// View renders the views tab.
func (m *Model) View() string {
	sections := []string{m.renderTitle()}

	switch {
	case m.naming:
		sections = append(sections, m.renderNameForm())
	case m.confirmDelete:
		sections = append(sections, m.renderDeleteConfirm(), m.renderTable())
	default:
		sections = append(sections, m.renderTable())
	}

	sections = append(sections, m.renderFooter())

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Saved views")
	subtitle := styles.HelpStyle.Render(fmt.Sprintf("%d views saved", m.state.GetViewCount()))
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderTable() string {
	if len(m.table.Rows()) == 0 {
		return m.renderEmptyState()
	}
	return styles.CardStyle.Width(max(m.width-6, 60)).Render(m.table.View())
}

func (m *Model) renderEmptyState() string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.SubTitleStyle.Render("No saved views"),
		"",
		styles.HelpStyle.Render("Save a filtered books listing to come back to it later."),
		"",
		styles.InfoTextStyle.Render("Press 'n' to save the current view"),
		"",
	)
	return styles.CardStyle.Width(max(m.width-6, 40)).Render(content)
}

func (m *Model) renderNameForm() string {
	cardWidth := min(max(m.width-10, 50), 80)

	label := styles.BlurredStyle.Render("  Name:")
	inputStyle := styles.BlurredBorderStyle
	if m.focusedField == fieldName {
		label = styles.FocusedStyle.Render("> Name:")
		inputStyle = styles.FocusedBorderStyle
	}

	link := m.link
	if link == "" {
		link = textDefaultLink
	}

	rows := []string{
		styles.CardTitleStyle.Render("Save current view"),
		"",
		styles.LabelStyle.Render("Link: ") + styles.ValueStyle.Render(link),
		"",
		label,
		inputStyle.Width(cardWidth - 10).Render(m.nameInput.View()),
	}
	if m.formErr != "" {
		rows = append(rows, styles.ErrorTextStyle.Render(m.formErr))
	}

	submitStyle := styles.ButtonInactiveStyle
	cancelStyle := styles.ButtonInactiveStyle
	switch m.focusedField {
	case fieldSubmit:
		submitStyle = styles.ButtonActiveStyle
	case fieldCancel:
		cancelStyle = styles.ButtonActiveStyle
	}

	rows = append(rows,
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			submitStyle.Render(" Save "),
			"  ",
			cancelStyle.Render(" Cancel "),
		),
		"",
		styles.HelpStyle.Render("Tab: next field | Enter: save | Esc: cancel"),
	)

	return styles.ModalContentStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderDeleteConfirm() string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.WarningTextStyle.Bold(true).Render("Delete view?"),
		"",
		styles.ErrorTextStyle.Render(m.deleteName),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			styles.ButtonActiveStyle.Render(" (Y)es "),
			"  ",
			styles.ButtonInactiveStyle.Render(" (N)o "),
		),
		"",
	)

	return styles.CenterHorizontal(
		styles.ModalContentStyle.Width(50).Render(content),
		m.width,
	)
}

func (m *Model) renderFooter() string {
	var shortcuts []string
	switch {
	case m.naming:
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Tab") + " next",
			styles.HelpKeyStyle.Render("Enter") + " save",
			styles.HelpKeyStyle.Render("Esc") + " cancel",
		}
	case m.confirmDelete:
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Y") + " confirm",
			styles.HelpKeyStyle.Render("N") + " cancel",
		}
	default:
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Enter") + " apply",
			styles.HelpKeyStyle.Render("y") + " copy link",
			styles.HelpKeyStyle.Render("d") + " delete",
			styles.HelpKeyStyle.Render("n") + " save current",
		}
	}

	return lipgloss.NewStyle().
		MarginTop(1).
		Foreground(styles.TextMuted).
		Render(strings.Join(shortcuts, styles.HelpSeparatorStyle.Render(" | ")))
}
