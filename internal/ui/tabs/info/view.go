package info

import (
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/bookdash-tui/internal/models"
	"github.com/j-veylop/bookdash-tui/internal/ui/styles"
	"github.com/j-veylop/bookdash-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderClientCard(),
		m.renderAboutCard(),
	)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration and application information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 80)
}

func (m *Model) renderConfigCard() string {
	rows := []string{styles.CardTitleStyle.Render("Configuration"), ""}

	if c := m.config; c != nil {
		metrics := c.MetricsAddr
		if metrics == "" {
			metrics = "disabled"
		}
		rows = append(rows,
			renderRow("Books API", c.APIBaseURL),
			renderRow("API Timeout", c.APITimeout.String()),
			renderRow("Link Base", c.LinkBase),
			renderRow("Views File", c.ViewsPath),
			renderRow("Database", c.DatabasePath),
			renderRow("Log File", c.LogFile),
			renderRow("Log Level", c.LogLevel),
			renderRow("Metrics", metrics),
			renderRow("Snapshots", "every "+c.SnapshotInterval.String()),
			renderRow("Search Delay", c.SearchDebounce.String()),
			renderRow("Bucket Size", models.FormatPrice(&c.DefaultBucketSize, "-")),
			renderRow("Top Words", fmt.Sprint(c.TopWords)),
		)
		rows = append(rows, "", styles.HelpStyle.Render("Press 'c' to copy the views path"))
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderClientCard() string {
	rows := []string{styles.CardTitleStyle.Render("API Client"), ""}

	if m.stats == nil {
		rows = append(rows, styles.HelpStyle.Render("Client not connected"))
	} else {
		s := m.stats.Metrics().Summary()
		errStyle := styles.SuccessTextStyle
		if s.Errors > 0 {
			errStyle = styles.ErrorTextStyle
		}
		rows = append(rows,
			renderRow("Requests", fmt.Sprint(s.Requests)),
			renderStyledRow("Errors", fmt.Sprint(s.Errors), errStyle),
			renderRow("Cache Hits", fmt.Sprint(s.CacheHits)),
			renderRow("Avg Latency", s.AvgLatency.Round(time.Millisecond).String()),
			renderRow("Cached Pages", fmt.Sprint(m.stats.CachedPages())),
		)
	}

	rows = append(rows,
		renderRow("Saved Views", fmt.Sprint(m.state.GetViewCount())),
		renderRow("Last Snapshot", m.lastSnapshot()),
		"",
		styles.LabelStyle.Render("Current link: ")+styles.ValueStyle.Render(m.state.ShareLink()),
	)

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) lastSnapshot() string {
	snap := m.state.GetSnapshot()
	if snap == nil {
		return "never"
	}
	return fmt.Sprintf("%s (%d books, %d in stock)",
		snap.RecordedAt.Local().Format("2006-01-02 15:04"), snap.TotalBooks, snap.InStock)
}

func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.CardTitleStyle.Render("About bookdash"),
		"",
		renderRow("Version", version.GetVersion()),
		renderRow("Build Date", version.GetDate()),
		renderRow("Git Commit", version.GetCommit()),
		renderRow("Go Version", runtime.Version()),
		renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func renderRow(label, value string) string {
	return renderStyledRow(label, value, lipgloss.NewStyle().Foreground(styles.TextPrimary))
}

func renderStyledRow(label, value string, valueStyle lipgloss.Style) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}
