package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/albertocavalcante/ccflags/internal/log"
	"github.com/albertocavalcante/ccflags/pkg/sources"
)

// DefaultDebounce is used when Config.Debounce is not positive.
const DefaultDebounce = 500 * time.Millisecond

// ErrWatchLimitReached is returned when the OS watch limit is exceeded.
var ErrWatchLimitReached = errors.New("filesystem watch limit reached")

// Outcome reports one regeneration.
type Outcome struct {
	Path    string // database path
	Entries int
	Written bool // false when the content was already current
}

// RegenerateFunc rebuilds the compilation database.
type RegenerateFunc func() (Outcome, error)

// Config configures the watcher.
type Config struct {
	Root        string
	Matcher     *sources.Matcher
	ConfigFiles []string // absolute paths whose changes trigger a rebuild
	Regenerate  RegenerateFunc
	Debounce    time.Duration
	Verbose     bool
	NoColor     bool
	JSON        bool
	Output      io.Writer
}

// Watcher regenerates the database when sources or config change.
type Watcher struct {
	config    Config
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	logger    *Logger

	// regenMu serializes rebuilds triggered by overlapping flushes.
	regenMu sync.Mutex
}

// New creates a watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.Regenerate == nil {
		return nil, errors.New("watch: Regenerate is required")
	}
	if cfg.Matcher == nil {
		m, err := sources.NewMatcher(nil, nil)
		if err != nil {
			return nil, err
		}
		cfg.Matcher = m
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		config:    cfg,
		fsWatcher: fsWatcher,
		logger: NewLogger(LoggerConfig{
			Writer:  cfg.Output,
			Verbose: cfg.Verbose,
			NoColor: cfg.NoColor,
			JSON:    cfg.JSON,
		}),
	}, nil
}

// Logger returns the watcher's event logger.
func (w *Watcher) Logger() *Logger {
	return w.logger
}

// Run regenerates once, then watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	window := w.config.Debounce
	if window <= 0 {
		window = DefaultDebounce
	}
	w.debouncer = NewDebouncer(window, w.handleChanges)
	defer w.debouncer.Stop()

	if err := w.addRecursive(w.config.Root); err != nil {
		return fmt.Errorf("failed to watch project: %w", err)
	}
	// Config files outside the tree (global config) are watched by directory.
	for _, f := range w.config.ConfigFiles {
		if err := w.fsWatcher.Add(filepath.Dir(f)); err != nil {
			log.Component("watch").Debug("cannot watch config directory", "path", f, "error", err)
		}
	}

	count := 0
	if files, err := w.config.Matcher.Find(w.config.Root); err == nil {
		count = len(files)
	}
	w.logger.Ready(count, w.config.Root)
	w.regenerate()

	for {
		select {
		case <-ctx.Done():
			w.logger.Shutdown()
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error(err)
		}
	}
}

// addRecursive adds a directory and its non-ignored subdirectories.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				log.Component("watch").Debug("permission denied", "path", path)
				return nil
			}
			w.logger.Error(fmt.Errorf("walk error at %s: %w", path, err))
			return nil
		}

		if !d.IsDir() {
			return nil
		}
		if path != w.config.Root && w.config.Matcher.IgnoreDir(d.Name()) {
			return filepath.SkipDir
		}

		if err := w.fsWatcher.Add(path); err != nil {
			if isWatchLimitError(err) {
				return fmt.Errorf("%w at %s: %w\n"+
					"Increase limit with: sudo sysctl fs.inotify.max_user_watches=524288",
					ErrWatchLimitReached, path, err)
			}
			log.Component("watch").Debug("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func isWatchLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no space left on device") ||
		strings.Contains(msg, "too many open files")
}

// handleEvent filters one filesystem event and queues relevant changes.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if slices.Contains(w.config.ConfigFiles, path) {
		if !event.Has(fsnotify.Chmod) {
			w.logger.FileChanged(path, ChangeModified)
			w.debouncer.Add(path)
		}
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.config.Matcher.IgnoreDir(filepath.Base(path)) {
				if err := w.addRecursive(path); err != nil {
					w.logger.Error(fmt.Errorf("failed to watch new directory %s: %w", path, err))
				}
				// Files created before the watch was added would be missed.
				w.debouncer.Add(path)
			}
			return
		}
	}

	rel, err := filepath.Rel(w.config.Root, path)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if !w.config.Matcher.Relevant(rel) {
		return
	}

	var change ChangeType
	switch {
	case event.Has(fsnotify.Create):
		change = ChangeAdded
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		change = ChangeDeleted
	case event.Has(fsnotify.Write):
		// Content edits do not change the entry list or the flags.
		w.logger.FileChanged(rel, ChangeModified)
		return
	default:
		return
	}

	w.logger.FileChanged(rel, change)
	w.debouncer.Add(rel)
}

// handleChanges runs on each debouncer flush.
func (w *Watcher) handleChanges(paths []string) {
	w.logger.Regenerating(paths)
	w.regenerate()
}

func (w *Watcher) regenerate() {
	w.regenMu.Lock()
	defer w.regenMu.Unlock()

	out, err := w.config.Regenerate()
	if err != nil {
		w.logger.Error(fmt.Errorf("regeneration failed: %w", err))
		return
	}
	w.logger.Regenerated(out.Path, out.Entries, out.Written)
}

// Close closes the watcher and releases resources.
func (w *Watcher) Close() error {
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}
