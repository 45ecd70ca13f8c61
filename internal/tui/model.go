// Package tui renders the panels in a terminal: one row per script with its
// label, and a details pane with the selected script's full text.
package tui

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/deixis/scriptpanel/internal/display"
)

// Model is the bubbletea model of the panel board.
type Model struct {
	board   *display.Board
	changes <-chan display.Snapshot
	keys    KeyMap
	help    help.Model

	snapshots []display.Snapshot
	cursor    int
	width     int
	height    int
	closed    bool
}

// New creates a model that follows board. Returns an error if the board
// is already closed.
func New(board *display.Board) (Model, error) {
	changes, err := board.Subscribe()
	if err != nil {
		return Model{}, err
	}
	return Model{
		board:     board,
		changes:   changes,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		snapshots: board.Snapshots(),
	}, nil
}

// Init starts listening for board changes
func (m Model) Init() tea.Cmd {
	return waitForChange(m.changes)
}

// Close releases the board subscription.
func (m Model) Close() {
	m.board.Unsubscribe(m.changes)
}

func (m Model) selected() (*display.Panel, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snapshots) {
		return nil, false
	}
	return m.board.Panel(m.snapshots[m.cursor].ID)
}

// Run starts the program and blocks until the user quits.
func Run(board *display.Board, opts ...tea.ProgramOption) error {
	m, err := New(board)
	if err != nil {
		return err
	}
	defer m.Close()
	_, err = tea.NewProgram(m, opts...).Run()
	return err
}
