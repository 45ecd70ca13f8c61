package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/deixis/scriptpanel/internal/display"
)

// changeMsg signals that a panel changed
type changeMsg struct {
	snapshot display.Snapshot
}

// closedMsg signals that the board stopped publishing changes
type closedMsg struct{}

// waitForChange blocks on the next board change
func waitForChange(ch <-chan display.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return changeMsg{snapshot: snap}
	}
}
