package supervisor

import (
	"context"
	"time"
)

// Status is a point-in-time view of the supervisor.
type Status struct {
	Running      bool           `json:"running"`
	ActiveTimers int            `json:"active_timers"`
	Scripts      []ScriptStatus `json:"scripts"`
}

// ScriptStatus describes one script.
type ScriptStatus struct {
	Index    int           `json:"index"`
	Argv     []string      `json:"argv"`
	Interval time.Duration `json:"interval"`
	State    State         `json:"state"`
	InFlight int           `json:"in_flight"`
}

// Status returns the current view. Must be called on the loop.
func (s *Supervisor) Status() Status {
	st := Status{
		Running:      s.running,
		ActiveTimers: s.ActiveTimers(),
		Scripts:      make([]ScriptStatus, 0, len(s.scripts)),
	}
	for _, sc := range s.scripts {
		st.Scripts = append(st.Scripts, ScriptStatus{
			Index:    sc.index,
			Argv:     append([]string(nil), sc.spec.Argv...),
			Interval: sc.spec.Interval(),
			State:    sc.state,
			InFlight: len(sc.inFlight),
		})
	}
	return st
}

// Observe fetches Status from any goroutine by running it on the loop.
func (s *Supervisor) Observe(ctx context.Context) (Status, error) {
	var st Status
	err := s.loop.Invoke(ctx, func() { st = s.Status() })
	return st, err
}

// MarshalText renders the state name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
