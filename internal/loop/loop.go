// Package loop provides the single cooperative event loop every script
// callback runs on. Functions are executed one at a time in the order they
// were posted, so state confined to the loop needs no locking.
package loop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"runtime/debug"
	"sync"
	"time"
)

var (
	// ErrStopped is returned by Invoke when the loop is not running.
	ErrStopped = errors.New("loop stopped")
	// ErrInvalidInterval is returned by AddTimeout for a non-positive interval.
	ErrInvalidInterval = errors.New("interval must be positive")
)

// SourceID identifies a timer registered with AddTimeout.
type SourceID uint64

// Loop is a FIFO dispatcher. The zero value is not usable; call New.
type Loop struct {
	logger *log.Logger

	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	quit    chan struct{}
	started bool
	done    bool

	// Owned by the loop goroutine.
	nextID  SourceID
	sources map[SourceID]*timeoutSource
}

type timeoutSource struct {
	id   SourceID
	fn   func() bool
	stop chan struct{}
}

// New creates a loop. A nil logger discards diagnostics.
func New(logger *log.Logger) *Loop {
	if logger == nil {
		logger = log.New(io.Discard, "", log.LstdFlags)
	}
	return &Loop{
		logger:  logger,
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		sources: make(map[SourceID]*timeoutSource),
	}
}

// Run dispatches posted functions until ctx is cancelled or Quit is called.
// Pending functions that have not started when the loop ends are dropped,
// and every timer still registered is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return errors.New("loop already started")
	}
	l.started = true
	l.mu.Unlock()

	defer l.shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.quit:
			return nil
		case <-l.wake:
		}

		for {
			fn, ok := l.pop()
			if !ok {
				break
			}
			l.dispatch(fn)

			// Stay responsive to cancellation while draining a long queue.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.quit:
				return nil
			default:
			}
		}
	}
}

// Quit ends Run. It is safe to call more than once and from any goroutine.
func (l *Loop) Quit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return
	}
	l.done = true
	close(l.quit)
}

// Post schedules fn to run on the loop. It never blocks. Functions posted
// after the loop has finished are dropped.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.done {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Invoke runs fn on the loop and waits for it to return. It must not be
// called from a function already running on the loop.
func (l *Loop) Invoke(ctx context.Context, fn func()) error {
	executed := make(chan struct{})
	l.Post(func() {
		defer close(executed)
		fn()
	})
	select {
	case <-executed:
		return nil
	case <-l.quit:
		select {
		case <-executed:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddTimeout registers fn to be called on the loop every interval. The
// source is removed when fn returns false. A tick that was already queued
// when the source is removed does not call fn. Must be called on the loop.
func (l *Loop) AddTimeout(interval time.Duration, fn func() bool) (SourceID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("adding timeout every %s: %w", interval, ErrInvalidInterval)
	}
	l.nextID++
	src := &timeoutSource{id: l.nextID, fn: fn, stop: make(chan struct{})}
	l.sources[src.id] = src

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-src.stop:
				return
			case <-l.quit:
				return
			case <-ticker.C:
				l.Post(func() { l.fire(src) })
			}
		}
	}()
	return src.id, nil
}

// RemoveSource cancels a timer. It reports whether the source was active.
// Must be called on the loop.
func (l *Loop) RemoveSource(id SourceID) bool {
	src, ok := l.sources[id]
	if !ok {
		return false
	}
	delete(l.sources, id)
	close(src.stop)
	return true
}

// Sources returns the number of registered timers. Must be called on the loop.
func (l *Loop) Sources() int {
	return len(l.sources)
}

func (l *Loop) fire(src *timeoutSource) {
	if _, ok := l.sources[src.id]; !ok {
		return
	}
	keep := true
	l.guard(func() { keep = src.fn() })
	if !keep {
		l.RemoveSource(src.id)
	}
}

func (l *Loop) dispatch(fn func()) {
	l.guard(fn)
}

// guard runs fn and swallows a panic so one faulty callback cannot stop
// the loop or the timers feeding it.
func (l *Loop) guard(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Printf("callback panic: %v\n%s", r, debug.Stack())
		}
	}()
	fn()
}

func (l *Loop) pop() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

func (l *Loop) shutdown() {
	l.Quit()
	l.mu.Lock()
	l.queue = nil
	l.mu.Unlock()
	for id := range l.sources {
		l.RemoveSource(id)
	}
}
