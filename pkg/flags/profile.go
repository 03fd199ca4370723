package flags

import "slices"

// Profile holds the fixed inputs of a flag set.
type Profile struct {
	// Base are literal compiler flags placed first (warnings, threading,
	// completer-mode define).
	Base []string `toml:"base" json:"base"`

	// Includes are include-path flags relative to the project root.
	Includes []string `toml:"includes" json:"includes"`

	// Packages are queried in order for their compiler flags.
	Packages []string `toml:"packages" json:"packages"`
}

// Built-in profile contents. Unexported so they cannot be mutated;
// DefaultProfile hands out copies.
var (
	defaultBase = []string{
		"-Wall",
		"-Werror",
		"-pthread",
		"-DUSE_CLANG_COMPLETER",
	}

	defaultIncludes = []string{
		"-I.",
		"-Iinclude",
	}

	defaultPackages = []string{
		"glib-2.0",
		"gio-unix-2.0",
	}
)

// DefaultProfile returns the built-in profile.
func DefaultProfile() Profile {
	return Profile{
		Base:     slices.Clone(defaultBase),
		Includes: slices.Clone(defaultIncludes),
		Packages: slices.Clone(defaultPackages),
	}
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	return Profile{
		Base:     slices.Clone(p.Base),
		Includes: slices.Clone(p.Includes),
		Packages: slices.Clone(p.Packages),
	}
}

// Static returns the base flags followed by the include flags.
func (p Profile) Static() []string {
	out := make([]string, 0, len(p.Base)+len(p.Includes))
	out = append(out, p.Base...)
	return append(out, p.Includes...)
}
