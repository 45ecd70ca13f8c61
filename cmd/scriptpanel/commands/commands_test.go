package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/deixis/scriptpanel"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := Root()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// firstWriteRecorder notes when the first byte reaches it.
type firstWriteRecorder struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	first time.Time
}

func (w *firstWriteRecorder) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.first.IsZero() {
		w.first = time.Now()
	}
	return w.buf.Write(p)
}

func (w *firstWriteRecorder) result() (string, time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String(), w.first
}

func executeUntil(t *testing.T, timeout time.Duration, args ...string) (*firstWriteRecorder, time.Time, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	out := &firstWriteRecorder{}
	root := Root()
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	start := time.Now()
	err := root.ExecuteContext(ctx)
	return out, start, err
}

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != scriptpanel.Version {
		t.Errorf("output = %q, want %q", out, scriptpanel.Version)
	}
}

func TestSchema(t *testing.T) {
	out, err := execute(t, "schema")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("schema is not JSON: %v\n%s", err, out)
	}
	if !strings.Contains(out, "timeout") {
		t.Errorf("schema does not describe timeout:\n%s", out)
	}
}

func TestList(t *testing.T) {
	path := writeSettings(t, `count: 2
script-1: ["1500", "date", "+%H:%M"]
script-2: ["60000", "uptime"]
`)
	out, err := execute(t, "list", "--config", path)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"(settings)", "scriptpanel-0", "1.5s", "date +%H:%M", "scriptpanel-1", "1m0s", "uptime"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestList_NoScripts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if _, err := execute(t, "list", "--config", path); err == nil {
		t.Fatal("expected error with nothing configured")
	}
}

func TestInit_WritesTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")

	out, err := execute(t, "init", "--config", path)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "wrote settings template") {
		t.Errorf("output = %q", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("template not written: %v", err)
	}

	out, err = execute(t, "list", "--config", path)
	if err != nil {
		t.Fatalf("list after init: %v", err)
	}
	if !strings.Contains(out, "scriptpanel-1") {
		t.Errorf("template scripts not listed:\n%s", out)
	}
}

func TestInit_KeepsExisting(t *testing.T) {
	path := writeSettings(t, "count: 1\nscript-1: [\"1000\", \"true\"]\n")

	out, err := execute(t, "init", "--config", path)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "already exist") {
		t.Errorf("output = %q", out)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"true"`) {
		t.Error("existing settings overwritten")
	}
}

func TestRun_Once(t *testing.T) {
	path := writeSettings(t, `count: 3
script-1: ["60000", "sh", "-c", "echo hello; echo world"]
script-2: ["60000", "sh", "-c", "exit 2"]
script-3: ["60000", "true"]
`)
	logFile := filepath.Join(t.TempDir(), "scriptpanel.log")

	out, err := execute(t, "run", "--once", "--sep", " / ", "--config", path, "--log-file", logFile)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got, want := strings.TrimSpace(out), "hello / err / …"; got != want {
		t.Errorf("line = %q, want %q", got, want)
	}
}

func TestRun_AttachDelayHoldsFirstLine(t *testing.T) {
	path := writeSettings(t, `count: 1
script-1: ["60000", "echo", "hello"]
`)
	logFile := filepath.Join(t.TempDir(), "scriptpanel.log")
	const delay = 300 * time.Millisecond

	out, start, err := executeUntil(t, 2*time.Second, "run", "--attach-delay", delay.String(), "--config", path, "--log-file", logFile)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	text, first := out.result()
	if first.IsZero() {
		t.Fatal("nothing printed after the attach delay")
	}
	if held := first.Sub(start); held < delay {
		t.Errorf("first line printed after %s, want at least %s", held, delay)
	}
	if got := strings.SplitN(strings.TrimSpace(text), "\n", 2)[0]; got != "hello" {
		t.Errorf("first line = %q, want hello (script finished during the delay)", got)
	}
}

func TestRun_AttachDelayOutlastsRun(t *testing.T) {
	path := writeSettings(t, `count: 1
script-1: ["60000", "echo", "hello"]
`)
	logFile := filepath.Join(t.TempDir(), "scriptpanel.log")

	out, _, err := executeUntil(t, 200*time.Millisecond, "run", "--attach-delay", "10s", "--config", path, "--log-file", logFile)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if text, _ := out.result(); text != "" {
		t.Errorf("printed %q before the attach delay elapsed", text)
	}
}

func TestMCP_Instructions(t *testing.T) {
	out, err := execute(t, "mcp", "--instructions")
	if err != nil {
		t.Fatalf("mcp --instructions: %v", err)
	}
	if !strings.Contains(out, "panel_list") {
		t.Errorf("instructions do not mention panel_list:\n%s", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := execute(t, "frobnicate"); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
