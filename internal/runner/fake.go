package runner

import (
	"strings"
	"sync"
)

// Call records a single invocation of a command.
type Call struct {
	Argv []string
}

func (c Call) String() string {
	return strings.Join(c.Argv, " ")
}

// Response is a pre-configured outcome for a command pattern.
type Response struct {
	Stdout  string
	Stderr  string
	Failure Failure
	// Release, when non-nil, holds the run in flight until it is closed.
	Release <-chan struct{}
}

// FakeRunner records calls and delivers pre-configured responses through
// its Dispatcher with the same callback semantics as Runner.
// Exported for use by supervisor and presentation tests.
type FakeRunner struct {
	Dispatcher Dispatcher

	mu        sync.Mutex
	calls     []Call
	responses map[string]Response // key: "argv0 arg1 arg2..."
	fallback  Response
}

// NewFakeRunner creates a FakeRunner delivering through d.
func NewFakeRunner(d Dispatcher) *FakeRunner {
	return &FakeRunner{
		Dispatcher: d,
		responses:  make(map[string]Response),
	}
}

// SetResponse configures a response for a specific command string.
func (f *FakeRunner) SetResponse(cmd string, resp Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmd] = resp
}

// SetFallback sets the response for unmatched commands.
func (f *FakeRunner) SetFallback(resp Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallback = resp
}

// Run records the call and delivers the matching response asynchronously.
func (f *FakeRunner) Run(argv []string, onStdout, onStderr Callback) *Execution {
	f.mu.Lock()
	call := Call{Argv: append([]string(nil), argv...)}
	f.calls = append(f.calls, call)
	resp := f.lookup(call)
	f.mu.Unlock()

	e := newExecution(argv)
	via := &Runner{Dispatcher: f.Dispatcher}
	deliver := func(fn func()) { via.deliver(e, fn) }

	go func() {
		defer close(e.done)
		if resp.Release != nil {
			<-resp.Release
		}

		e.update(func(r *Result) {
			r.Stdout = resp.Stdout
			r.Stderr = resp.Stderr
			r.Failure = resp.Failure
			switch resp.Failure {
			case None:
				r.ExitCode = 0
			case ExitNonZero:
				r.ExitCode = 1
			}
		})

		if resp.Failure == SpawnError {
			deliver(func() {
				e.failedOut, e.failedErr = true, true
				onStdout(Output{Failure: SpawnError})
				onStderr(Output{Failure: SpawnError})
			})
			return
		}
		deliver(func() {
			if !e.failedOut {
				onStdout(Output{Text: resp.Stdout})
			}
		})
		deliver(func() {
			if !e.failedErr {
				onStderr(Output{Text: resp.Stderr})
			}
		})
		if resp.Failure == ExitNonZero {
			deliver(func() {
				e.failedOut, e.failedErr = true, true
				onStdout(Output{Failure: ExitNonZero})
				onStderr(Output{Failure: ExitNonZero})
			})
		}
	}()

	return e
}

func (f *FakeRunner) lookup(call Call) Response {
	if resp, ok := f.responses[call.String()]; ok {
		return resp
	}
	if len(call.Argv) > 1 {
		if resp, ok := f.responses[call.Argv[0]+" "+call.Argv[1]]; ok {
			return resp
		}
	}
	if len(call.Argv) > 0 {
		if resp, ok := f.responses[call.Argv[0]]; ok {
			return resp
		}
	}
	return f.fallback
}

// Calls returns a copy of the recorded calls.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount returns the number of calls matching the prefix.
func (f *FakeRunner) CallCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c.String(), prefix) {
			n++
		}
	}
	return n
}

// Reset clears all recorded calls.
func (f *FakeRunner) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

var _ Starter = (*FakeRunner)(nil)
var _ Starter = (*Runner)(nil)
