package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/deixis/scriptpanel/internal/config"
	"github.com/deixis/scriptpanel/internal/display"
)

func newTestModel(t *testing.T, n int) (Model, *display.Board, []int) {
	t.Helper()
	b := display.NewBoard()
	t.Cleanup(b.Close)
	refreshes := make([]int, n)
	for i := range n {
		sink := b.Sink(i, config.ScriptSpec{TimeoutMillis: 1000, Argv: []string{"echo", "hi"}})
		sink.OnRefreshRequested(func() bool { refreshes[i]++; return true })
	}
	m, err := New(b)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(m.Close)
	return m, b, refreshes
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestModel_Navigation(t *testing.T) {
	m, _, _ := newTestModel(t, 3)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.cursor != 0 {
		t.Errorf("cursor = %d after up at top, want 0", m.cursor)
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(t, m, runeKey('j'))
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.cursor)
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 2 {
		t.Errorf("cursor = %d after down at bottom, want 2", m.cursor)
	}
	m, _ = press(t, m, runeKey('k'))
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
}

func TestModel_RefreshSelected(t *testing.T) {
	m, b, refreshes := newTestModel(t, 2)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(t, m, runeKey('r'))

	if refreshes[0] != 0 || refreshes[1] != 1 {
		t.Errorf("refreshes = %v, want [0 1]", refreshes)
	}
	if got := b.Panels()[1].Snapshot().Full; got != display.ReloadingText {
		t.Errorf("Full = %q, want %q", got, display.ReloadingText)
	}
	if m.snapshots[1].Full != display.ReloadingText {
		t.Errorf("model snapshot not updated: %q", m.snapshots[1].Full)
	}
}

func TestModel_RefreshAll(t *testing.T) {
	m, _, refreshes := newTestModel(t, 3)

	press(t, m, runeKey('R'))

	for i, n := range refreshes {
		if n != 1 {
			t.Errorf("script %d refreshed %d times, want 1", i, n)
		}
	}
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := newTestModel(t, 1)

	_, cmd := press(t, m, runeKey('q'))
	if cmd == nil {
		t.Fatal("quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit command did not produce tea.QuitMsg")
	}
}

func TestModel_FollowsChanges(t *testing.T) {
	m, b, _ := newTestModel(t, 1)

	b.Panels()[0].SetShortLabel("12:00")
	msg := m.Init()()
	if _, ok := msg.(changeMsg); !ok {
		t.Fatalf("Init command produced %T, want changeMsg", msg)
	}
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		t.Error("change did not re-arm the subscription")
	}
	if m.snapshots[0].Label != "12:00" {
		t.Errorf("Label = %q, want 12:00", m.snapshots[0].Label)
	}
}

func TestModel_BoardClosed(t *testing.T) {
	m, b, _ := newTestModel(t, 1)

	b.Close()
	msg := m.Init()()
	if _, ok := msg.(closedMsg); !ok {
		t.Fatalf("got %T, want closedMsg", msg)
	}
	next, _ := m.Update(msg)
	if !next.(Model).closed {
		t.Error("model not marked closed")
	}
}

func TestModel_View(t *testing.T) {
	m, b, _ := newTestModel(t, 2)
	if got := m.View(); got != "Loading..." {
		t.Errorf("View before size = %q", got)
	}

	b.Panels()[1].SetShortLabel("err")
	b.Panels()[1].SetFullText("err")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	m = next.(Model)
	m.snapshots = b.Snapshots()

	view := m.View()
	for _, want := range []string{"scriptpanel", "scriptpanel-0", "scriptpanel-1", "echo hi"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"longer than ten", 10, "longer th…"},
		{"anything", 1, "anything"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
