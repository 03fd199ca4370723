package watch

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// ChangeType represents the type of file change.
type ChangeType string

const (
	ChangeAdded    ChangeType = "+"
	ChangeModified ChangeType = "~"
	ChangeDeleted  ChangeType = "-"
)

// Logger renders watch events for a human (text) or a tool (JSON lines).
type Logger struct {
	writer  io.Writer
	verbose bool
	jsonOut bool

	green  *color.Color
	yellow *color.Color
	red    *color.Color

	mu    sync.Mutex
	stats Stats
}

// Stats summarizes a watch session.
type Stats struct {
	Regenerations int
	Errors        int
	StartTime     time.Time
}

// LoggerConfig configures the logger.
type LoggerConfig struct {
	Writer  io.Writer
	Verbose bool
	NoColor bool
	JSON    bool
}

// NewLogger creates a logger. Color is used only for terminals.
func NewLogger(cfg LoggerConfig) *Logger {
	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	isTTY := false
	if f, ok := writer.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	useColor := isTTY && !cfg.NoColor

	l := &Logger{
		writer:  writer,
		verbose: cfg.Verbose,
		jsonOut: cfg.JSON,
		green:   color.New(color.FgGreen),
		yellow:  color.New(color.FgYellow),
		red:     color.New(color.FgRed),
		stats:   Stats{StartTime: time.Now()},
	}
	for _, c := range []*color.Color{l.green, l.yellow, l.red} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return l
}

// Ready logs the initial ready message.
func (l *Logger) Ready(sourceCount int, root string) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":   "ready",
			"sources": sourceCount,
			"path":    root,
		})
		return
	}

	l.printf("ccflags: watching %d C sources in %s\n", sourceCount, root)
	l.printf("ccflags: ready\n\n")
}

// FileChanged logs a file event (text mode: only when verbose).
func (l *Logger) FileChanged(path string, change ChangeType) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":  "file_changed",
			"path":   path,
			"change": string(change),
			"time":   time.Now().Format(time.RFC3339),
		})
		return
	}

	if l.verbose {
		l.printf("[%s] %s %s\n", timestamp(), l.colorFor(change).Sprint(string(change)), path)
	}
}

// Regenerating logs that a database rebuild starts for the given changes.
func (l *Logger) Regenerating(paths []string) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "regenerating",
			"paths": paths,
			"time":  time.Now().Format(time.RFC3339),
		})
		return
	}

	if len(paths) == 1 {
		l.printf("[%s] %s changed, regenerating...\n", timestamp(), paths[0])
	} else {
		l.printf("[%s] %d files changed, regenerating...\n", timestamp(), len(paths))
	}
}

// Regenerated logs a finished rebuild.
func (l *Logger) Regenerated(path string, entries int, written bool) {
	l.mu.Lock()
	l.stats.Regenerations++
	l.mu.Unlock()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":   "regenerated",
			"path":    path,
			"entries": entries,
			"written": written,
			"time":    time.Now().Format(time.RFC3339),
		})
		return
	}

	state := "unchanged"
	if written {
		state = "updated"
	}
	l.printf("[%s] %s %s %s (%d entries)\n", timestamp(), l.green.Sprint("✓"), path, state, entries)
}

// Error logs an error.
func (l *Logger) Error(err error) {
	l.mu.Lock()
	l.stats.Errors++
	l.mu.Unlock()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "error",
			"error": err.Error(),
			"time":  time.Now().Format(time.RFC3339),
		})
		return
	}

	l.printf("[%s] %s error: %v\n", timestamp(), l.red.Sprint("✗"), err)
}

// Shutdown logs the shutdown message with statistics.
func (l *Logger) Shutdown() {
	stats := l.Stats()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":         "shutdown",
			"regenerations": stats.Regenerations,
			"errors":        stats.Errors,
			"duration":      time.Since(stats.StartTime).String(),
		})
		return
	}

	l.printf("\nccflags: shutting down (%d regenerations, %d errors)\n",
		stats.Regenerations, stats.Errors)
}

// Stats returns the current session statistics.
func (l *Logger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

func (l *Logger) colorFor(change ChangeType) *color.Color {
	switch change {
	case ChangeAdded:
		return l.green
	case ChangeModified:
		return l.yellow
	default:
		return l.red
	}
}

func timestamp() string {
	return time.Now().Format("15:04:05")
}

func (l *Logger) writeJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		l.printf("%s\n", `{"event":"internal_error","error":"json marshal failed"}`)
		return
	}
	l.printf("%s\n", strings.TrimSpace(string(data)))
}

// printf writes to the output, ignoring errors: watch output is informational.
func (l *Logger) printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintf(l.writer, format, args...)
}
