// Package sources finds the C translation units of a project.
//
// Matching is deterministic: given the same tree and patterns, Find always
// returns the same sorted, root-relative, slash-separated list.
package sources

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPatterns select the files that get a compilation database entry.
var DefaultPatterns = []string{"**/*.c"}

// Extensions are the C source and header extensions whose changes can
// affect the database.
var Extensions = []string{".c", ".h"}

// IgnoredDirs are directory name prefixes skipped while walking.
// Prefix matching means "build" also skips "build-debug".
var IgnoredDirs = []string{
	".",            // Hidden directories (.git, .ccflags, .cache)
	"build",        // Meson/CMake build trees
	"_build",       // Autotools out-of-tree builds
	"vendor",       // Vendored dependencies
	"node_modules", // Tooling dependencies
	"out",          // Generic output
	"dist",         // Distribution output
}

// Matcher decides which files and directories belong to the project.
type Matcher struct {
	patterns []string
	ignored  []string
}

// NewMatcher validates patterns and combines the ignored prefixes with
// IgnoredDirs. Nil patterns select DefaultPatterns.
func NewMatcher(patterns, ignored []string) (*Matcher, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid source pattern %q", p)
		}
	}
	return &Matcher{
		patterns: slices.Clone(patterns),
		ignored:  append(slices.Clone(IgnoredDirs), ignored...),
	}, nil
}

// IgnoreDir reports whether a directory with this base name is skipped.
// The walk root itself is never passed here.
func (m *Matcher) IgnoreDir(name string) bool {
	for _, prefix := range m.ignored {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// Match reports whether a root-relative, slash-separated path is selected.
func (m *Matcher) Match(rel string) bool {
	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Relevant reports whether a change to path can alter the database: a C
// source or header outside ignored directories.
func (m *Matcher) Relevant(rel string) bool {
	if !slices.Contains(Extensions, filepath.Ext(rel)) {
		return false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for _, dir := range parts[:len(parts)-1] {
		if m.IgnoreDir(dir) {
			return false
		}
	}
	return true
}

// Find walks root and returns every selected file.
func (m *Matcher) Find(root string) ([]string, error) {
	var found []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && m.IgnoreDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if m.Match(rel) {
			found = append(found, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	slices.Sort(found)
	return found, nil
}

// Find is a convenience wrapper around NewMatcher and Matcher.Find.
func Find(root string, patterns, ignored []string) ([]string, error) {
	m, err := NewMatcher(patterns, ignored)
	if err != nil {
		return nil, err
	}
	return m.Find(root)
}
