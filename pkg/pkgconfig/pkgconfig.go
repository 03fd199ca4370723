// Package pkgconfig runs the package-metadata query tool (pkg-config) and
// turns its output into compiler flag tokens.
package pkgconfig

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/albertocavalcante/ccflags/internal/log"
)

// DefaultBinary is the query tool looked up on PATH when no path is configured.
const DefaultBinary = "pkg-config"

// ErrToolNotFound is returned when the query tool cannot be located.
var ErrToolNotFound = errors.New("package query tool not found")

// Querier reports per-package compiler metadata.
type Querier interface {
	// Cflags returns the compiler flags needed to use pkg, in tool order.
	Cflags(pkg string) ([]string, error)
	// ModVersion returns the installed version of pkg.
	ModVersion(pkg string) (string, error)
}

// QueryError describes a query tool run that exited non-zero.
type QueryError struct {
	Package string
	Args    []string
	Stderr  string
	Err     error
}

func (e *QueryError) Error() string {
	msg := fmt.Sprintf("%s for package %q failed: %v", strings.Join(e.Args, " "), e.Package, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Runner runs the query tool as a subprocess, one blocking call at a time.
type Runner struct {
	binary string // explicit path or name to resolve on PATH
}

// Option configures a Runner.
type Option func(*Runner)

// WithBinary sets the query tool path or name. Empty keeps the default.
func WithBinary(path string) Option {
	return func(r *Runner) {
		if path != "" {
			r.binary = path
		}
	}
}

// New creates a Runner with the given options.
func New(opts ...Option) *Runner {
	r := &Runner{binary: DefaultBinary}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ Querier = (*Runner)(nil)

// FindBinary resolves the query tool. Paths containing a separator are
// checked directly; bare names are looked up on PATH.
func (r *Runner) FindBinary() (string, error) {
	if strings.ContainsRune(r.binary, os.PathSeparator) || strings.Contains(r.binary, "/") {
		info, err := os.Stat(r.binary)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrToolNotFound, r.binary)
		}
		if info.IsDir() || info.Mode()&0o111 == 0 {
			return "", fmt.Errorf("%w: %s is not executable", ErrToolNotFound, r.binary)
		}
		return r.binary, nil
	}

	path, err := exec.LookPath(r.binary)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrToolNotFound, r.binary, err)
	}
	return path, nil
}

// Cflags runs `pkg-config --cflags pkg` and splits its output.
func (r *Runner) Cflags(pkg string) ([]string, error) {
	out, err := r.run(pkg, "--cflags", pkg)
	if err != nil {
		return nil, err
	}
	return Split(out), nil
}

// ModVersion runs `pkg-config --modversion pkg`.
func (r *Runner) ModVersion(pkg string) (string, error) {
	out, err := r.run(pkg, "--modversion", pkg)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// run executes the tool and returns its stdout. cmd.Output waits for the
// process on every path, so no handle outlives the call.
func (r *Runner) run(pkg string, args ...string) (string, error) {
	bin, err := r.FindBinary()
	if err != nil {
		return "", err
	}

	logger := log.Component("pkgconfig")
	start := time.Now()

	var stderr bytes.Buffer
	cmd := exec.Command(bin, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		qerr := &QueryError{
			Package: pkg,
			Args:    append([]string{bin}, args...),
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
		logger.Debug("query failed", "package", pkg, "error", qerr)
		return "", qerr
	}

	logger.Debug("query", "package", pkg, "args", args, "duration", time.Since(start))
	log.Trace("query output", "package", pkg, "stdout", string(out))
	return string(out), nil
}

// Split breaks query output into flag tokens. Whitespace runs, including the
// trailing newline, never produce empty tokens.
func Split(output string) []string {
	return strings.Fields(output)
}
