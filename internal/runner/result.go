package runner

import "fmt"

// Sentinel is shown in place of output when a run fails.
const Sentinel = "err"

// Failure tags why a run produced no usable output.
type Failure int

const (
	// None means the run completed with exit status 0.
	None Failure = iota
	// ExitNonZero means the process started but exited with a non-zero status.
	ExitNonZero
	// SpawnError means the process could not be started.
	SpawnError
)

func (f Failure) String() string {
	switch f {
	case None:
		return "none"
	case ExitNonZero:
		return "exit-non-zero"
	case SpawnError:
		return "spawn-error"
	default:
		return fmt.Sprintf("failure(%d)", int(f))
	}
}

// Output is what a stream callback receives: either decoded text or a
// failure that overrides it.
type Output struct {
	Text    string
	Failure Failure
}

// String renders the output for display. Failures render as Sentinel.
func (o Output) String() string {
	if o.Failure != None {
		return Sentinel
	}
	return o.Text
}

// Result holds the outcome of one execution once it has settled.
type Result struct {
	RunID    string   // unique identifier for this run
	Argv     []string // command that was run
	ExitCode int      // process exit code, -1 if it never started or was signalled
	Stdout   string   // full decoded stdout
	Stderr   string   // full decoded stderr
	Failure  Failure  // None on success
	Err      error    // spawn or wait error, if any
}

// Success reports whether the run started and exited with status 0.
func (r Result) Success() bool {
	return r.Failure == None
}
