// Package runner spawns one external command per call without blocking the
// caller, drains its stdout and stderr to end-of-stream, and watches for
// its exit. Results are handed back through callbacks posted to a
// Dispatcher so that they all run on the caller's event loop.
package runner

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DefaultBufferSize is the initial capacity of each stream buffer.
const DefaultBufferSize = 4096

// Callback receives the complete output of one stream, or a failure.
type Callback func(Output)

// Dispatcher runs functions on an event loop. Implemented by loop.Loop.
type Dispatcher interface {
	Post(fn func())
}

// Starter starts executions. Implemented by Runner and FakeRunner.
type Starter interface {
	Run(argv []string, onStdout, onStderr Callback) *Execution
}

// Runner executes commands found on PATH. Callbacks for a given run are
// delivered at most once per stream with text, plus once per stream with
// a failure if the process exits non-zero. Once a failure has been
// delivered on a stream, later text for that stream is dropped.
//
// With a nil Dispatcher the callbacks of one run are called one at a time
// on the runner's own goroutines.
type Runner struct {
	Dispatcher Dispatcher
	Dir        string   // working directory; empty means the current one
	Env        []string // environment; nil means the current one
	BufferSize int      // initial stream buffer size; 0 means DefaultBufferSize
	Logger     *log.Logger
}

// Execution is a handle on one in-flight run.
type Execution struct {
	ID   string
	Argv []string

	done chan struct{}

	mu     sync.Mutex
	result Result

	// Touched only on the dispatcher, or under callbackMu without one.
	callbackMu sync.Mutex
	failedOut  bool
	failedErr  bool
}

func newExecution(argv []string) *Execution {
	id := uuid.New().String()
	return &Execution{
		ID:   id,
		Argv: append([]string(nil), argv...),
		done: make(chan struct{}),
		result: Result{
			RunID:    id,
			Argv:     append([]string(nil), argv...),
			ExitCode: -1,
		},
	}
}

// Done is closed once both streams have reached end-of-stream and the exit
// status is known. Every callback for the run has been posted by then.
func (e *Execution) Done() <-chan struct{} {
	return e.done
}

// Result returns the outcome. It is complete only after Done is closed.
func (e *Execution) Result() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result
}

func (e *Execution) update(fn func(r *Result)) {
	e.mu.Lock()
	fn(&e.result)
	e.mu.Unlock()
}

// Run spawns argv and returns immediately. Spawn failures are reported
// through both callbacks as SpawnError.
func (r *Runner) Run(argv []string, onStdout, onStderr Callback) *Execution {
	e := newExecution(argv)

	if len(argv) == 0 || argv[0] == "" {
		r.spawnFailed(e, errors.New("empty argv"), onStdout, onStderr)
		return e
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = r.Dir
	cmd.Env = r.Env

	p, err := openPipes()
	if err != nil {
		r.spawnFailed(e, err, onStdout, onStderr)
		return e
	}
	cmd.Stdin = p.stdinR
	cmd.Stdout = p.stdoutW
	cmd.Stderr = p.stderrW

	startErr := cmd.Start()
	// The child holds its own copies; the command is never fed input.
	p.closeChildEnds()
	_ = p.stdinW.Close()
	if startErr != nil {
		_ = p.stdoutR.Close()
		_ = p.stderrR.Close()
		r.spawnFailed(e, fmt.Errorf("executing %s: %w", argv[0], startErr), onStdout, onStderr)
		return e
	}
	r.logger().Printf("run %s: started %s (pid %d)", e.ID, argv[0], cmd.Process.Pid)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		text := r.drain(e, "stdout", p.stdoutR)
		e.update(func(res *Result) { res.Stdout = text })
		r.deliver(e, func() {
			if !e.failedOut {
				onStdout(Output{Text: text})
			}
		})
	}()

	go func() {
		defer wg.Done()
		text := r.drain(e, "stderr", p.stderrR)
		e.update(func(res *Result) { res.Stderr = text })
		r.deliver(e, func() {
			if !e.failedErr {
				onStderr(Output{Text: text})
			}
		})
	}()

	go func() {
		defer wg.Done()
		waitErr := cmd.Wait()
		code := -1
		if cmd.ProcessState != nil {
			code = cmd.ProcessState.ExitCode()
		}
		e.update(func(res *Result) {
			res.ExitCode = code
			if code != 0 {
				res.Failure = ExitNonZero
				res.Err = waitErr
			}
		})
		if code == 0 {
			return
		}
		r.logger().Printf("run %s: %s exited with status %d", e.ID, argv[0], code)
		r.deliver(e, func() {
			e.failedOut = true
			e.failedErr = true
			onStdout(Output{Failure: ExitNonZero})
			onStderr(Output{Failure: ExitNonZero})
		})
	}()

	go func() {
		wg.Wait()
		close(e.done)
	}()

	return e
}

func (r *Runner) spawnFailed(e *Execution, err error, onStdout, onStderr Callback) {
	r.logger().Printf("run %s: %v", e.ID, err)
	e.update(func(res *Result) {
		res.Failure = SpawnError
		res.Err = err
	})
	r.deliver(e, func() {
		e.failedOut = true
		e.failedErr = true
		onStdout(Output{Failure: SpawnError})
		onStderr(Output{Failure: SpawnError})
	})
	close(e.done)
}

// drain reads f until a zero-byte read, doubling the buffer each time a
// fill leaves it full, then closes f and decodes the bytes as UTF-8.
func (r *Runner) drain(e *Execution, name string, f *os.File) string {
	defer f.Close()

	size := r.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}
	buf := make([]byte, 0, size)
	for {
		if len(buf) == cap(buf) {
			grown := make([]byte, len(buf), 2*cap(buf))
			copy(grown, buf)
			buf = grown
		}
		n, err := f.Read(buf[len(buf):cap(buf)])
		buf = buf[:len(buf)+n]
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.logger().Printf("run %s: reading %s: %v", e.ID, name, err)
			}
			break
		}
	}
	return strings.ToValidUTF8(string(buf), "\uFFFD")
}

// deliver posts fn to the dispatcher. Without one, fn runs on the calling
// goroutine while holding the execution's callback lock.
func (r *Runner) deliver(e *Execution, fn func()) {
	if r.Dispatcher == nil {
		e.callbackMu.Lock()
		defer e.callbackMu.Unlock()
		fn()
		return
	}
	r.Dispatcher.Post(fn)
}

func (r *Runner) logger() *log.Logger {
	if r.Logger == nil {
		return discard
	}
	return r.Logger
}

var discard = log.New(io.Discard, "", log.LstdFlags)

type pipes struct {
	stdinR, stdinW   *os.File
	stdoutR, stdoutW *os.File
	stderrR, stderrW *os.File
}

func openPipes() (*pipes, error) {
	var p pipes
	var err error
	if p.stdinR, p.stdinW, err = os.Pipe(); err != nil {
		return nil, fmt.Errorf("creating stdin pipe: %w", err)
	}
	if p.stdoutR, p.stdoutW, err = os.Pipe(); err != nil {
		p.closeAll()
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	if p.stderrR, p.stderrW, err = os.Pipe(); err != nil {
		p.closeAll()
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}
	return &p, nil
}

func (p *pipes) closeChildEnds() {
	_ = p.stdinR.Close()
	_ = p.stdoutW.Close()
	_ = p.stderrW.Close()
}

func (p *pipes) closeAll() {
	for _, f := range []*os.File{p.stdinR, p.stdinW, p.stdoutR, p.stdoutW, p.stderrR, p.stderrW} {
		if f != nil {
			_ = f.Close()
		}
	}
}
