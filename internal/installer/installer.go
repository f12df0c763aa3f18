// Package installer adapts package managers that install desired commands.
package installer

import (
	"context"

	"github.com/Masterminds/semver/v3"

	"github.com/atomikpanda/localenv/internal/config"
	"github.com/atomikpanda/localenv/internal/errors"
	"github.com/atomikpanda/localenv/internal/system"
)

// Package is one installed package reported by a package manager.
type Package struct {
	Name string
	// Bin is the first binary the package provides. Commands are matched
	// against it.
	Bin string
	// Bins lists every binary the package provides.
	Bins      []string
	Version   *semver.Version
	LocalPath string
}

// Installer lists and installs packages for one installer kind.
type Installer interface {
	Kind() config.InstallerKind
	ListInstalled(ctx context.Context) ([]Package, error)
	Install(ctx context.Context, cmd config.Command) error
}

// Registry resolves installer kinds to their adapters.
type Registry struct {
	installers map[config.InstallerKind]Installer
}

// NewRegistry returns a registry holding every supported installer backed by sys.
func NewRegistry(sys system.System) *Registry {
	return NewRegistryOf(NewCargo(sys))
}

// NewRegistryOf returns a registry holding exactly the given installers.
func NewRegistryOf(installers ...Installer) *Registry {
	r := &Registry{installers: make(map[config.InstallerKind]Installer, len(installers))}
	for _, i := range installers {
		r.installers[i.Kind()] = i
	}
	return r
}

// For returns the installer for kind.
func (r *Registry) For(kind config.InstallerKind) (Installer, error) {
	if r != nil {
		if i, ok := r.installers[kind]; ok {
			return i, nil
		}
	}
	return nil, errors.Internalf("no installer registered for %q", string(kind))
}
