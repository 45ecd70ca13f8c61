package display

import (
	"strings"
	"sync"

	"github.com/deixis/scriptpanel/internal/config"
	"github.com/deixis/scriptpanel/internal/supervisor"
)

// Board owns the panels of every script.
type Board struct {
	changes *Broadcaster[Snapshot]

	mu     sync.RWMutex
	panels []*Panel
}

// NewBoard creates an empty board. Call Close when done.
func NewBoard() *Board {
	return &Board{changes: NewBroadcaster[Snapshot]()}
}

// Sink creates the panel for script i. It is a supervisor.SinkFactory.
func (b *Board) Sink(i int, spec config.ScriptSpec) supervisor.Sink {
	p := newPanel(i, spec, b.changes)
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.panels) <= i {
		b.panels = append(b.panels, nil)
	}
	b.panels[i] = p
	return p
}

// Panels returns the panels in script order.
func (b *Board) Panels() []*Panel {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Panel, 0, len(b.panels))
	for _, p := range b.panels {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// Panel finds a panel by identifier.
func (b *Board) Panel(id string) (*Panel, bool) {
	for _, p := range b.Panels() {
		if p.id == id {
			return p, true
		}
	}
	return nil, false
}

// Snapshots returns the state of every panel in script order.
func (b *Board) Snapshots() []Snapshot {
	panels := b.Panels()
	out := make([]Snapshot, len(panels))
	for i, p := range panels {
		out[i] = p.Snapshot()
	}
	return out
}

// Line joins every label with sep, the way a status bar shows them.
func (b *Board) Line(sep string) string {
	snaps := b.Snapshots()
	labels := make([]string, len(snaps))
	for i, s := range snaps {
		labels[i] = s.Label
	}
	return strings.Join(labels, sep)
}

// Subscribe returns a channel that receives every panel change.
func (b *Board) Subscribe() (<-chan Snapshot, error) {
	return b.changes.Subscribe(len(b.Panels()) + 1)
}

// Unsubscribe releases a channel returned by Subscribe.
func (b *Board) Unsubscribe(ch <-chan Snapshot) {
	b.changes.Unsubscribe(ch)
}

// Close stops change notifications and closes every subscription.
func (b *Board) Close() {
	b.changes.Stop()
}
