package installer

import (
	"context"

	"github.com/atomikpanda/localenv/internal/config"
	"github.com/atomikpanda/localenv/internal/errors"
	"github.com/atomikpanda/localenv/internal/logging"
	"github.com/atomikpanda/localenv/internal/system"
)

// Cargo installs commands with `cargo install`.
type Cargo struct {
	sys system.System
}

// NewCargo returns the cargo adapter.
func NewCargo(sys system.System) *Cargo {
	return &Cargo{sys: sys}
}

var _ Installer = (*Cargo)(nil)

func (c *Cargo) Kind() config.InstallerKind {
	return config.InstallerCargo
}

// ListInstalled parses `cargo install --list`.
func (c *Cargo) ListInstalled(ctx context.Context) ([]Package, error) {
	bin, err := c.lookPath()
	if err != nil {
		return nil, err
	}
	out, err := c.sys.Output(ctx, bin, "install", "--list")
	if err != nil {
		return nil, errors.Context(err, "list installed cargo packages")
	}
	pkgs, err := ParseCargoList(string(out))
	if err != nil {
		return nil, errors.Context(err, "parse cargo install --list")
	}
	logger := logging.GetLogger("installer.cargo")
	logger.Debug().Int("packages", len(pkgs)).Msg("probed installed packages")
	return pkgs, nil
}

// Install runs `cargo install --locked <bin>`, pinning the version when one
// is requested.
func (c *Cargo) Install(ctx context.Context, cmd config.Command) error {
	bin, err := c.lookPath()
	if err != nil {
		return err
	}
	if err := c.sys.Run(ctx, bin, installArgs(cmd)...); err != nil {
		return errors.Contextf(err, "cargo install %s", cmd.Bin)
	}
	return nil
}

func (c *Cargo) lookPath() (string, error) {
	path, err := c.sys.LookPath("cargo")
	if err != nil {
		return "", errors.CommandNotFound("cargo", err)
	}
	return path, nil
}

func installArgs(cmd config.Command) []string {
	args := []string{"install", "--locked", cmd.Bin}
	if v := cmd.PinnedVersion(); v != "" {
		args = append(args, "--version", v)
	}
	return args
}
