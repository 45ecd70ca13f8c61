package loop

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"
)

// startLoop runs a loop for the duration of the test.
func startLoop(t *testing.T, logger *log.Logger) *Loop {
	t.Helper()
	l := New(logger)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errc
	})
	return l
}

func TestPost_FIFOOrder(t *testing.T) {
	l := startLoop(t, nil)

	var got []int
	for i := range 100 {
		l.Post(func() { got = append(got, i) })
	}
	if err := l.Invoke(context.Background(), func() {}); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(got) != 100 {
		t.Fatalf("ran %d functions, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("got[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestPost_PanicIsLoggedAndSwallowed(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	logger := log.New(&lockedWriter{mu: &mu, w: &buf}, "", 0)
	l := startLoop(t, logger)

	l.Post(func() { panic("boom") })

	ran := false
	if err := l.Invoke(context.Background(), func() { ran = true }); err != nil {
		t.Fatalf("Invoke after panic: %v", err)
	}
	if !ran {
		t.Error("loop did not keep running after a panicking callback")
	}
	mu.Lock()
	defer mu.Unlock()
	if !strings.Contains(buf.String(), "callback panic: boom") {
		t.Errorf("log = %q, want to mention the panic", buf.String())
	}
}

func TestInvoke_AfterQuit(t *testing.T) {
	l := New(nil)
	l.Quit()
	err := l.Invoke(context.Background(), func() {})
	if !errors.Is(err, ErrStopped) {
		t.Errorf("Invoke after Quit = %v, want ErrStopped", err)
	}
}

func TestRun_ReturnsContextError(t *testing.T) {
	l := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

func TestRun_Twice(t *testing.T) {
	l := New(nil)
	l.Quit()
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := l.Run(context.Background()); err == nil {
		t.Error("second Run succeeded, want error")
	}
}

func TestAddTimeout_RepeatsUntilFalse(t *testing.T) {
	l := startLoop(t, nil)

	fired := make(chan int, 10)
	count := 0
	if err := l.Invoke(context.Background(), func() {
		if _, err := l.AddTimeout(10*time.Millisecond, func() bool {
			count++
			fired <- count
			return count < 3
		}); err != nil {
			t.Error(err)
		}
	}); err != nil {
		t.Fatal(err)
	}

	for want := 1; want <= 3; want++ {
		select {
		case got := <-fired:
			if got != want {
				t.Fatalf("tick %d, want %d", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for tick %d", want)
		}
	}

	select {
	case got := <-fired:
		t.Fatalf("unexpected tick %d after source returned false", got)
	case <-time.After(50 * time.Millisecond):
	}

	var sources int
	_ = l.Invoke(context.Background(), func() { sources = l.Sources() })
	if sources != 0 {
		t.Errorf("Sources() = %d, want 0", sources)
	}
}

func TestRemoveSource_DropsPendingTick(t *testing.T) {
	l := startLoop(t, nil)

	fired := make(chan struct{}, 10)
	var id SourceID
	block := make(chan struct{})
	if err := l.Invoke(context.Background(), func() {
		var err error
		id, err = l.AddTimeout(5*time.Millisecond, func() bool {
			fired <- struct{}{}
			return true
		})
		if err != nil {
			t.Error(err)
		}
	}); err != nil {
		t.Fatal(err)
	}

	// Hold the loop while ticks queue up behind the removal.
	removed := make(chan bool, 1)
	l.Post(func() {
		for len(fired) > 0 {
			<-fired
		}
		<-block
		removed <- l.RemoveSource(id)
	})
	time.Sleep(30 * time.Millisecond)
	close(block)

	if !<-removed {
		t.Fatal("RemoveSource reported the source inactive")
	}
	_ = l.Invoke(context.Background(), func() {})
	select {
	case <-fired:
		t.Error("queued tick ran after RemoveSource")
	default:
	}
}

func TestRemoveSource_Idempotent(t *testing.T) {
	l := startLoop(t, nil)
	_ = l.Invoke(context.Background(), func() {
		id, err := l.AddTimeout(time.Hour, func() bool { return true })
		if err != nil {
			t.Error(err)
			return
		}
		if !l.RemoveSource(id) {
			t.Error("first RemoveSource = false, want true")
		}
		if l.RemoveSource(id) {
			t.Error("second RemoveSource = true, want false")
		}
	})
}

func TestAddTimeout_RejectsNonPositiveInterval(t *testing.T) {
	l := startLoop(t, nil)

	// Ten trillion milliseconds wraps around to a negative Duration.
	ms := int64(10_000_000_000_000)
	wrapped := time.Duration(ms) * time.Millisecond

	for _, interval := range []time.Duration{0, -time.Second, wrapped} {
		var (
			err     error
			sources int
		)
		_ = l.Invoke(context.Background(), func() {
			_, err = l.AddTimeout(interval, func() bool {
				t.Error("callback ran for rejected source")
				return false
			})
			sources = l.Sources()
		})
		if !errors.Is(err, ErrInvalidInterval) {
			t.Errorf("AddTimeout(%s) error = %v, want ErrInvalidInterval", interval, err)
		}
		if sources != 0 {
			t.Errorf("AddTimeout(%s) registered a source", interval)
		}
	}

	// The loop is still serving work.
	if err := l.Invoke(context.Background(), func() {}); err != nil {
		t.Fatalf("Invoke after rejected timeout: %v", err)
	}
}

func TestPost_AfterRunEndsIsDropped(t *testing.T) {
	l := New(nil)
	l.Quit()
	_ = l.Run(context.Background())
	l.Post(func() { t.Error("function ran after loop ended") })
}

type lockedWriter struct {
	mu *sync.Mutex
	w  *bytes.Buffer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}
