package watch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/albertocavalcante/ccflags/pkg/sources"
)

// syncBuffer guards a bytes.Buffer shared between the watch loop and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitRegen(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for regeneration")
	}
}

func startWatcher(t *testing.T, root string, configFiles ...string) (<-chan struct{}, *syncBuffer) {
	t.Helper()

	regens := make(chan struct{}, 16)
	out := &syncBuffer{}
	w, err := New(Config{
		Root:        root,
		ConfigFiles: configFiles,
		Debounce:    20 * time.Millisecond,
		Output:      out,
		JSON:        true,
		Regenerate: func() (Outcome, error) {
			regens <- struct{}{}
			return Outcome{Path: filepath.Join(root, "compile_commands.json"), Entries: 1, Written: true}, nil
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() error = %v", err)
		}
		_ = w.Close()
	})

	// Run regenerates once before entering the event loop.
	waitRegen(t, regens)
	return regens, out
}

func TestWatcher_NewSourceTriggersRegeneration(t *testing.T) {
	root := t.TempDir()
	regens, out := startWatcher(t, root)

	if err := os.WriteFile(filepath.Join(root, "main.c"), []byte("int main(void){return 0;}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitRegen(t, regens)

	if !bytes.Contains([]byte(out.String()), []byte(`"event":"regenerated"`)) {
		t.Errorf("expected regenerated event, got: %s", out.String())
	}
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	root := t.TempDir()
	regens, _ := startWatcher(t, root)

	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte("hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-regens:
		t.Error("unrelated file should not trigger regeneration")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_ConfigChangeTriggersRegeneration(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(root, "ccflags.toml")
	if err := os.WriteFile(cfgPath, []byte("[profile]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	regens, _ := startWatcher(t, root, cfgPath)

	if err := os.WriteFile(cfgPath, []byte("[profile]\npackages = []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitRegen(t, regens)
}

func TestWatcher_NewDirectoryIsWatched(t *testing.T) {
	root := t.TempDir()
	regens, _ := startWatcher(t, root)

	sub := filepath.Join(root, "src")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	waitRegen(t, regens)

	// Give the watcher a moment to register the new directory.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(sub, "util.c"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	waitRegen(t, regens)
}

func TestHandleEvent_WriteDoesNotQueue(t *testing.T) {
	root := t.TempDir()
	m, err := sources.NewMatcher(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	w := &Watcher{
		config:    Config{Root: root, Matcher: m},
		logger:    NewLogger(LoggerConfig{Writer: &bytes.Buffer{}}),
		debouncer: NewDebouncer(time.Hour, nil),
	}

	w.handleEvent(fsnotify.Event{Name: filepath.Join(root, "main.c"), Op: fsnotify.Write})
	if w.debouncer.PendingCount() != 0 {
		t.Error("content writes should not queue a regeneration")
	}

	w.handleEvent(fsnotify.Event{Name: filepath.Join(root, "gone.c"), Op: fsnotify.Remove})
	if w.debouncer.PendingCount() != 1 {
		t.Error("removals should queue a regeneration")
	}

	w.handleEvent(fsnotify.Event{Name: filepath.Join(root, "build", "gen.c"), Op: fsnotify.Remove})
	if w.debouncer.PendingCount() != 1 {
		t.Error("files under ignored directories should be skipped")
	}
}

func TestRegenerateError(t *testing.T) {
	out := &bytes.Buffer{}
	w := &Watcher{
		config: Config{Regenerate: func() (Outcome, error) {
			return Outcome{}, errors.New("pkg-config exited 1")
		}},
		logger: NewLogger(LoggerConfig{Writer: out, NoColor: true}),
	}

	w.regenerate()

	if w.logger.Stats().Errors != 1 {
		t.Errorf("Errors = %d, want 1", w.logger.Stats().Errors)
	}
	if !bytes.Contains(out.Bytes(), []byte("pkg-config exited 1")) {
		t.Errorf("expected error in output, got: %s", out.String())
	}
}

func TestNew_RequiresRegenerate(t *testing.T) {
	if _, err := New(Config{Root: t.TempDir()}); err == nil {
		t.Error("New() should fail without a Regenerate func")
	}
}

func TestIsWatchLimitError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("no space left on device"), true},
		{errors.New("too many open files"), true},
		{errors.New("permission denied"), false},
	}
	for _, tt := range tests {
		if got := isWatchLimitError(tt.err); got != tt.want {
			t.Errorf("isWatchLimitError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
