// Package display holds the presentation side of each script: a Panel
// implements the supervisor's sink and exposes the latest label and detail
// text to any goroutine, and a Board groups the panels and publishes every
// change.
package display

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/deixis/scriptpanel/internal/config"
	"github.com/deixis/scriptpanel/internal/supervisor"
)

// ReloadingText is shown in the detail view while a manual refresh runs.
const ReloadingText = "Reloading..."

// Snapshot is a point-in-time copy of one panel.
type Snapshot struct {
	ID      string    `json:"id"`
	Index   int       `json:"index"`
	Command string    `json:"command"`
	Label   string    `json:"label"`
	Full    string    `json:"full"`
	Updated time.Time `json:"updated,omitzero"`
}

// Panel is the display element of one script.
type Panel struct {
	id      string
	index   int
	spec    config.ScriptSpec
	changes *Broadcaster[Snapshot]

	mu      sync.RWMutex
	label   string
	full    string
	updated time.Time
	refresh func() bool
}

// PanelID returns the stable identifier of the script at index i.
func PanelID(i int) string {
	return fmt.Sprintf("scriptpanel-%d", i)
}

func newPanel(i int, spec config.ScriptSpec, changes *Broadcaster[Snapshot]) *Panel {
	return &Panel{
		id:      PanelID(i),
		index:   i,
		spec:    spec,
		changes: changes,
		label:   supervisor.Placeholder,
		full:    supervisor.Placeholder,
	}
}

// ID returns the panel identifier.
func (p *Panel) ID() string { return p.id }

func (p *Panel) SetShortLabel(text string) {
	p.set(func() { p.label = text })
}

func (p *Panel) SetFullText(text string) {
	p.set(func() { p.full = text })
}

func (p *Panel) OnRefreshRequested(refresh func() bool) {
	p.mu.Lock()
	p.refresh = refresh
	p.mu.Unlock()
}

// Refresh shows ReloadingText and asks the supervisor for an immediate
// run. If no refresh action is attached or the run is refused, the
// previous detail text is put back and Refresh reports false.
func (p *Panel) Refresh() bool {
	p.mu.RLock()
	refresh := p.refresh
	prev := p.full
	p.mu.RUnlock()
	if refresh == nil {
		return false
	}
	p.SetFullText(ReloadingText)
	if refresh() {
		return true
	}
	p.set(func() {
		if p.full == ReloadingText {
			p.full = prev
		}
	})
	return false
}

// Snapshot returns the current state.
func (p *Panel) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshotLocked()
}

func (p *Panel) snapshotLocked() Snapshot {
	return Snapshot{
		ID:      p.id,
		Index:   p.index,
		Command: strings.Join(p.spec.Argv, " "),
		Label:   p.label,
		Full:    p.full,
		Updated: p.updated,
	}
}

func (p *Panel) set(fn func()) {
	p.mu.Lock()
	fn()
	p.updated = time.Now()
	snap := p.snapshotLocked()
	p.mu.Unlock()
	if p.changes != nil {
		p.changes.Publish(snap)
	}
}

var _ supervisor.Sink = (*Panel)(nil)
