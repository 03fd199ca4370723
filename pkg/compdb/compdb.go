// Package compdb writes a clang compilation database (compile_commands.json)
// whose entries carry the flags computed by package flags.
package compdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/albertocavalcante/ccflags/internal/log"
	"github.com/albertocavalcante/ccflags/pkg/flags"
)

// FileName is the conventional database file name.
const FileName = "compile_commands.json"

// DefaultCompiler is argv[0] of every entry unless configured otherwise.
const DefaultCompiler = "cc"

// Entry is one compilation database record.
type Entry struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Arguments []string `json:"arguments"`
}

// FlagSource computes the flags for a file.
type FlagSource interface {
	FlagsForFile(filename string) (*flags.Result, error)
}

var _ FlagSource = (*flags.Provider)(nil)

// Generate builds one entry per file, in the order given. While the
// source marks its result cacheable, the first result is reused for the
// remaining files; otherwise it is asked again for each file.
func Generate(root string, files []string, src FlagSource, compiler string) ([]Entry, error) {
	if compiler == "" {
		compiler = DefaultCompiler
	}

	entries := make([]Entry, 0, len(files))
	var cached *flags.Result
	queries := 0

	for _, file := range files {
		res := cached
		if res == nil {
			var err error
			res, err = src.FlagsForFile(file)
			if err != nil {
				return nil, fmt.Errorf("computing flags for %s: %w", file, err)
			}
			if res == nil {
				return nil, errors.New("flag source returned no result for " + file)
			}
			queries++
			if res.Cacheable {
				cached = res
			}
		}

		args := make([]string, 0, len(res.Flags)+4)
		args = append(args, compiler)
		args = append(args, res.Flags...)
		args = append(args, "-c", file)

		entries = append(entries, Entry{
			Directory: root,
			File:      file,
			Arguments: args,
		})
	}

	log.Component("compdb").Debug("generated entries",
		"files", len(files), "flag_queries", queries)
	return entries, nil
}

// Marshal renders entries the way Write stores them.
func Marshal(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal compilation database: %w", err)
	}
	return append(data, '\n'), nil
}

// Equal reports whether two databases have identical entries.
func Equal(a, b []Entry) bool {
	return slices.EqualFunc(a, b, func(x, y Entry) bool {
		return x.Directory == y.Directory && x.File == y.File && slices.Equal(x.Arguments, y.Arguments)
	})
}
