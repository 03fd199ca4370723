// Package flags assembles the compiler flags handed to an editor's
// clang-based completion engine.
//
// Every file of a project gets the same flag set: the profile's base flags,
// then its include flags, then the flags reported by the package query tool
// for each profile package, in that order. Nothing is merged or
// deduplicated, since include order decides header precedence.
package flags

import (
	"fmt"

	"github.com/albertocavalcante/ccflags/internal/log"
	"github.com/albertocavalcante/ccflags/pkg/pkgconfig"
)

// Result is what FlagsForFile hands back to the editor host.
// JSON field names follow the host's own result dictionary.
type Result struct {
	Flags     []string `json:"flags"`
	Cacheable bool     `json:"do_cache"`
}

// Provider computes flag sets from a fixed profile.
type Provider struct {
	profile Profile
	querier pkgconfig.Querier
}

// NewProvider returns a Provider over a private copy of profile.
func NewProvider(profile Profile, querier pkgconfig.Querier) *Provider {
	return &Provider{
		profile: profile.Clone(),
		querier: querier,
	}
}

// Default returns a Provider with the built-in profile and pkg-config from PATH.
func Default() *Provider {
	return NewProvider(DefaultProfile(), pkgconfig.New())
}

// Profile returns a copy of the provider's profile.
func (p *Provider) Profile() Profile {
	return p.profile.Clone()
}

// FlagsForFile returns the flag set for filename. The name is not
// consulted. The package queries run again on every call, sequentially;
// the first failure aborts the call and no partial list is returned.
func (p *Provider) FlagsForFile(filename string) (*Result, error) {
	log.V(log.VerbosityTrace).Debug("flags requested", "file", filename)

	flags := p.profile.Static()
	for _, pkg := range p.profile.Packages {
		pkgFlags, err := p.querier.Cflags(pkg)
		if err != nil {
			return nil, fmt.Errorf("querying flags for package %s: %w", pkg, err)
		}
		flags = append(flags, pkgFlags...)
	}

	return &Result{
		Flags:     flags,
		Cacheable: true,
	}, nil
}
