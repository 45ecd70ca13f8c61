// Package supervisor schedules the configured scripts. Each script runs once
// when started and then on a repeating timer; results update the script's
// display sink. All methods must be called on the event loop the supervisor
// was created with.
package supervisor

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/deixis/scriptpanel/internal/config"
	"github.com/deixis/scriptpanel/internal/loop"
	"github.com/deixis/scriptpanel/internal/runner"
)

// Sink receives display updates for one script.
type Sink interface {
	SetShortLabel(text string)
	SetFullText(text string)
	// OnRefreshRequested hands the sink an action that runs the script
	// immediately. It may be called from any goroutine except the loop's,
	// blocks until the loop has handled it, and reports whether the run
	// was started.
	OnRefreshRequested(refresh func() bool)
}

// SinkFactory builds the sink for the script at index i.
type SinkFactory func(i int, spec config.ScriptSpec) Sink

// State is the lifecycle of one script.
type State int

const (
	Idle State = iota
	Scheduled
	Running
	Disabled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	case Running:
		return "running"
	case Disabled:
		return "disabled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type script struct {
	index    int
	spec     config.ScriptSpec
	sink     Sink
	state    State
	timer    loop.SourceID
	armed    bool
	inFlight map[string]*runner.Execution
}

// Supervisor owns every script, its timer and its in-flight runs.
type Supervisor struct {
	loop    *loop.Loop
	starter runner.Starter
	logger  *log.Logger

	running bool
	epoch   int // bumped by Stop; runs from an older epoch are inert
	scripts []*script
}

// New creates a supervisor for specs. Sinks are created immediately and
// given their refresh action. A nil logger discards diagnostics.
func New(l *loop.Loop, starter runner.Starter, specs []config.ScriptSpec, sinks SinkFactory, logger *log.Logger) *Supervisor {
	if logger == nil {
		logger = log.New(io.Discard, "", log.LstdFlags)
	}
	s := &Supervisor{loop: l, starter: starter, logger: logger}
	for i, spec := range specs {
		sc := &script{
			index:    i,
			spec:     spec,
			sink:     sinks(i, spec),
			inFlight: make(map[string]*runner.Execution),
		}
		sc.sink.OnRefreshRequested(func() bool {
			started := false
			if err := l.Invoke(context.Background(), func() { started = s.RunNow(i) }); err != nil {
				return false
			}
			return started
		})
		s.scripts = append(s.scripts, sc)
	}
	return s
}

// Enable sets the running flag and starts every script. Calling it while
// running does nothing.
func (s *Supervisor) Enable() {
	if s.running {
		return
	}
	s.running = true
	for i := range s.scripts {
		s.Start(i)
	}
}

// Start runs script i immediately and arms its repeating timer. A timer
// tick that finds the running flag cleared cancels itself.
func (s *Supervisor) Start(i int) {
	sc, ok := s.script(i)
	if !ok || !s.running || sc.armed {
		return
	}
	s.run(sc)
	id, err := s.loop.AddTimeout(sc.spec.Interval(), func() bool {
		if !s.running {
			sc.armed = false
			return false
		}
		s.run(sc)
		return true
	})
	if err != nil {
		s.logger.Printf("script %d: not scheduled: %v", sc.index, err)
		return
	}
	sc.timer = id
	sc.armed = true
}

// RunNow starts an extra run of script i. It does not touch the timer and
// does nothing once the script is disabled. It reports whether a run was
// started.
func (s *Supervisor) RunNow(i int) bool {
	sc, ok := s.script(i)
	if !ok || sc.state == Disabled {
		return false
	}
	s.run(sc)
	return true
}

// Stop clears the running flag and cancels every armed timer. In-flight
// runs finish, but their results are discarded. Stop is idempotent.
func (s *Supervisor) Stop() {
	s.epoch++
	s.running = false
	for _, sc := range s.scripts {
		if sc.armed {
			s.loop.RemoveSource(sc.timer)
			sc.armed = false
		}
		sc.state = Disabled
	}
}

// Running reports the global run flag.
func (s *Supervisor) Running() bool {
	return s.running
}

// Len returns the number of scripts.
func (s *Supervisor) Len() int {
	return len(s.scripts)
}

// Spec returns the configuration of script i.
func (s *Supervisor) Spec(i int) (config.ScriptSpec, bool) {
	sc, ok := s.script(i)
	if !ok {
		return config.ScriptSpec{}, false
	}
	return sc.spec, true
}

// State returns the lifecycle state of script i.
func (s *Supervisor) State(i int) State {
	sc, ok := s.script(i)
	if !ok {
		return Disabled
	}
	return sc.state
}

// ActiveTimers returns the number of armed timers.
func (s *Supervisor) ActiveTimers() int {
	n := 0
	for _, sc := range s.scripts {
		if sc.armed {
			n++
		}
	}
	return n
}

// InFlight returns the number of unfinished runs of script i.
func (s *Supervisor) InFlight(i int) int {
	sc, ok := s.script(i)
	if !ok {
		return 0
	}
	return len(sc.inFlight)
}

func (s *Supervisor) script(i int) (*script, bool) {
	if i < 0 || i >= len(s.scripts) {
		return nil, false
	}
	return s.scripts[i], true
}

func (s *Supervisor) run(sc *script) {
	epoch := s.epoch
	inert := func() bool { return sc.state == Disabled || epoch != s.epoch }
	e := s.starter.Run(sc.spec.Argv,
		func(o runner.Output) {
			if inert() {
				return
			}
			sc.sink.SetShortLabel(ShortLabel(o.String()))
		},
		func(o runner.Output) {
			if inert() {
				return
			}
			sc.sink.SetFullText(FullText(o.String()))
		},
	)
	sc.inFlight[e.ID] = e
	sc.state = Running

	go func() {
		<-e.Done()
		s.loop.Post(func() { s.settle(sc, e) })
	}()
}

func (s *Supervisor) settle(sc *script, e *runner.Execution) {
	delete(sc.inFlight, e.ID)
	res := e.Result()
	if !res.Success() {
		s.logger.Printf("script %d: run %s failed (%s): %v", sc.index, e.ID, res.Failure, res.Err)
	}
	if sc.state != Running || len(sc.inFlight) > 0 {
		return
	}
	if sc.armed {
		sc.state = Scheduled
	} else {
		sc.state = Idle
	}
}
