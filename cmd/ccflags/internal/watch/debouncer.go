// Package watch keeps a project's compilation database current while its
// C sources and config change.
package watch

import (
	"slices"
	"sync"
	"time"
)

// MaxPending is the number of distinct pending paths that forces an
// immediate flush, bounding memory during bulk checkouts.
const MaxPending = 1000

// Debouncer coalesces bursts of file events (editor autosave, git
// checkout, formatter runs) into one batch per quiet window.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	window  time.Duration
	onFlush func(paths []string)
	stopped bool
}

// NewDebouncer creates a debouncer. onFlush receives the sorted set of
// paths seen since the previous flush, once window passes without events.
func NewDebouncer(window time.Duration, onFlush func(paths []string)) *Debouncer {
	return &Debouncer{
		pending: make(map[string]struct{}),
		window:  window,
		onFlush: onFlush,
	}
}

// Add records a changed path and restarts the quiet window.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}

	d.pending[path] = struct{}{}

	if len(d.pending) >= MaxPending {
		d.stopTimerLocked()
		paths := d.takeLocked()
		d.mu.Unlock()
		d.emit(paths)
		return
	}

	// A timer that already fired may still run flush; flush tolerates an
	// empty pending set.
	d.stopTimerLocked()
	d.timer = time.AfterFunc(d.window, d.flush)
	d.mu.Unlock()
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	paths := d.takeLocked()
	d.mu.Unlock()
	d.emit(paths)
}

// FlushNow emits pending paths without waiting for the window.
func (d *Debouncer) FlushNow() {
	d.mu.Lock()
	d.stopTimerLocked()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	paths := d.takeLocked()
	d.mu.Unlock()
	d.emit(paths)
}

// Stop flushes what is pending and ignores later Adds.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.stopTimerLocked()
	paths := d.takeLocked()
	d.mu.Unlock()
	d.emit(paths)
}

// PendingCount returns the number of paths waiting to be flushed.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// takeLocked empties the pending set. Caller must hold d.mu.
func (d *Debouncer) takeLocked() []string {
	if len(d.pending) == 0 {
		return nil
	}
	paths := make([]string, 0, len(d.pending))
	for p := range d.pending {
		paths = append(paths, p)
	}
	d.pending = make(map[string]struct{})
	slices.Sort(paths)
	return paths
}

func (d *Debouncer) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// emit calls onFlush outside the lock so the handler may call Add.
func (d *Debouncer) emit(paths []string) {
	if len(paths) > 0 && d.onFlush != nil {
		d.onFlush(paths)
	}
}
