// Package config provides configuration management for ccflags.
// It supports multi-layer configuration with precedence:
//  1. Built-in defaults (lowest priority)
//  2. Global user config (~/.config/ccflags/config.toml)
//  3. Project config (.ccflags/config.toml or ccflags.toml)
//  4. Environment variables (CCFLAGS_*)
//  5. CLI flags (highest priority)
//
// Only the command-line tool reads configuration. A flags.Provider is handed
// a finished Profile and never consults files or the environment itself.
package config

import (
	"slices"

	"github.com/albertocavalcante/ccflags/pkg/compdb"
	"github.com/albertocavalcante/ccflags/pkg/flags"
	"github.com/albertocavalcante/ccflags/pkg/pkgconfig"
	"github.com/albertocavalcante/ccflags/pkg/sources"
)

// Config is the main configuration struct for ccflags.
type Config struct {
	// Profile is the fixed flag set handed to every file.
	Profile ProfileConfig `toml:"profile"`

	// PkgConfig configures the package query tool.
	PkgConfig PkgConfigConfig `toml:"pkg_config"`

	// Compdb configures compilation database generation.
	Compdb CompdbConfig `toml:"compdb"`

	// Watch configures watch mode.
	Watch WatchConfig `toml:"watch"`
}

// ProfileConfig mirrors flags.Profile. A nil list means "not set" so that
// lower layers survive a merge; an explicit empty list clears them.
type ProfileConfig struct {
	Base     []string `toml:"base"`
	Includes []string `toml:"includes"`
	Packages []string `toml:"packages"`
}

// PkgConfigConfig holds query tool settings.
type PkgConfigConfig struct {
	// Binary is a path or a name looked up on PATH.
	Binary string `toml:"binary"`
}

// CompdbConfig holds compilation database settings.
type CompdbConfig struct {
	// Compiler is argv[0] of each entry.
	Compiler string `toml:"compiler"`

	// Output is the database path, relative to the project root.
	Output string `toml:"output"`

	// Patterns select source files (doublestar syntax).
	Patterns []string `toml:"patterns"`

	// Ignore lists extra directory prefixes to skip.
	Ignore []string `toml:"ignore"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	// Debounce is the event coalescing window in milliseconds.
	Debounce int `toml:"debounce"`
}

// NewConfig creates a new Config with built-in defaults.
func NewConfig() *Config {
	p := flags.DefaultProfile()
	return &Config{
		Profile: ProfileConfig{
			Base:     p.Base,
			Includes: p.Includes,
			Packages: p.Packages,
		},
		PkgConfig: PkgConfigConfig{
			Binary: pkgconfig.DefaultBinary,
		},
		Compdb: CompdbConfig{
			Compiler: compdb.DefaultCompiler,
			Output:   compdb.FileName,
			Patterns: slices.Clone(sources.DefaultPatterns),
			Ignore:   []string{},
		},
		Watch: WatchConfig{
			Debounce: 500,
		},
	}
}

// FlagProfile returns the configured profile as an independent copy.
func (c *Config) FlagProfile() flags.Profile {
	return flags.Profile{
		Base:     c.Profile.Base,
		Includes: c.Profile.Includes,
		Packages: c.Profile.Packages,
	}.Clone()
}

// Merge merges another config into this one (other takes precedence).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Profile lists replace rather than append: flag order is significant.
	if other.Profile.Base != nil {
		c.Profile.Base = other.Profile.Base
	}
	if other.Profile.Includes != nil {
		c.Profile.Includes = other.Profile.Includes
	}
	if other.Profile.Packages != nil {
		c.Profile.Packages = other.Profile.Packages
	}

	if other.PkgConfig.Binary != "" {
		c.PkgConfig.Binary = other.PkgConfig.Binary
	}

	if other.Compdb.Compiler != "" {
		c.Compdb.Compiler = other.Compdb.Compiler
	}
	if other.Compdb.Output != "" {
		c.Compdb.Output = other.Compdb.Output
	}
	if len(other.Compdb.Patterns) > 0 {
		c.Compdb.Patterns = other.Compdb.Patterns
	}
	if len(other.Compdb.Ignore) > 0 {
		c.Compdb.Ignore = append(c.Compdb.Ignore, other.Compdb.Ignore...)
	}

	if other.Watch.Debounce > 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
}
