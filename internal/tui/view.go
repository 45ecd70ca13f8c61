package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/deixis/scriptpanel/internal/runner"
)

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	listWidth := max(m.width*2/5, 20)
	detailsWidth := max(m.width-listWidth-4, 20)
	bodyHeight := max(m.height-4, 3)

	list := panelStyle.Width(listWidth).Height(bodyHeight).Render(m.renderList(listWidth))
	details := panelStyle.Width(detailsWidth).Height(bodyHeight).Render(m.renderDetails(detailsWidth))

	header := titleStyle.Render("scriptpanel")
	if m.closed {
		header += " " + mutedStyle.Render("(stopped)")
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, list, details)
	footer := helpStyle.Render(m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// renderList renders one row per script
func (m Model) renderList(width int) string {
	if len(m.snapshots) == 0 {
		return mutedStyle.Render("No scripts configured")
	}
	rows := make([]string, 0, len(m.snapshots))
	for i, s := range m.snapshots {
		label := s.Label
		if label == runner.Sentinel {
			label = failedStyle.Render(label)
		}
		row := truncate(s.ID+"  "+label, width-2)
		if i == m.cursor {
			rows = append(rows, selectedRowStyle.Render(row))
		} else {
			rows = append(rows, rowStyle.Render(row))
		}
	}
	return strings.Join(rows, "\n")
}

// renderDetails renders the full text of the selected script
func (m Model) renderDetails(width int) string {
	if m.cursor >= len(m.snapshots) {
		return ""
	}
	s := m.snapshots[m.cursor]

	var sb strings.Builder
	sb.WriteString(detailsTitleStyle.Render(s.ID))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render("$ " + truncate(s.Command, width-2)))
	sb.WriteString("\n\n")
	full := s.Full
	if full == runner.Sentinel {
		full = failedStyle.Render(full)
	}
	sb.WriteString(lipgloss.NewStyle().Width(width - 2).Render(full))
	if !s.Updated.IsZero() {
		sb.WriteString("\n\n")
		sb.WriteString(mutedStyle.Render("updated " + s.Updated.Format("15:04:05")))
	}
	return sb.String()
}

func truncate(s string, width int) string {
	if width <= 1 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes)) > width-1 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
