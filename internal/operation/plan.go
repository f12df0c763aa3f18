package operation

import (
	"context"

	"github.com/atomikpanda/localenv/internal/config"
	"github.com/atomikpanda/localenv/internal/errors"
	"github.com/atomikpanda/localenv/internal/installer"
	"github.com/atomikpanda/localenv/internal/logging"
	"github.com/atomikpanda/localenv/internal/system"
)

// Plan compares cfg against the live state reported by sys and the
// installers and returns the actions needed to converge. Filesystem actions
// come first in declaration order, then command installs grouped by
// installer in order of each installer's first use. Any probe failure aborts
// planning.
func Plan(ctx context.Context, cfg *config.Config, sys system.System, installers *installer.Registry) (*Chain, error) {
	if cfg == nil || sys == nil {
		return nil, errors.Internalf("plan: config and system are required")
	}
	logger := logging.GetLogger("plan")
	defer logging.LogOperationStart(logger, "plan")()

	chain := NewChain()
	if err := planFilesystem(cfg.Spec.Filesystem, sys, chain); err != nil {
		return nil, err
	}
	if err := planCommands(ctx, cfg.Spec.Commands, installers, chain); err != nil {
		return nil, err
	}

	logger.Debug().Int("actions", chain.Len()).Msg("plan complete")
	return chain, nil
}

func planFilesystem(fs config.Filesystem, sys system.System, chain *Chain) error {
	logger := logging.GetLogger("plan")
	host := sys.OS()

	for i, entry := range fs.Entries {
		if cond := entry.Condition(); !cond.Matches(host) {
			logger.Debug().Str("entry", entry.Description()).Stringer("os", cond.OS).Msg("entry does not match os condition")
			continue
		}

		switch entry.Type() {
		case config.EntryFile:
			chain.Add(CreateFile{Entry: entry.File.Clone()})
		case config.EntrySymbolicLink:
			chain.Add(CreateSymbolicLink{Entry: entry.SymbolicLink.Clone()})
		case config.EntryDirectory:
			return errors.Internalf("filesystem entry %d (%s): directory entries are not implemented", i, entry.Description())
		default:
			return errors.Internalf("filesystem entry %d: exactly one of file, symbolic_link or directory must be set", i)
		}
	}
	return nil
}

func planCommands(ctx context.Context, commands []config.Command, installers *installer.Registry, chain *Chain) error {
	logger := logging.GetLogger("plan")

	var kinds []config.InstallerKind
	byKind := map[config.InstallerKind][]config.Command{}
	for _, c := range commands {
		if _, seen := byKind[c.Installer]; !seen {
			kinds = append(kinds, c.Installer)
		}
		byKind[c.Installer] = append(byKind[c.Installer], c)
	}

	for _, kind := range kinds {
		inst, err := installers.For(kind)
		if err != nil {
			return errors.Context(err, "plan commands")
		}
		pkgs, err := inst.ListInstalled(ctx)
		if err != nil {
			return errors.Contextf(err, "probe %s packages", kind)
		}
		logger.Trace().Str("installer", string(kind)).Int("installed", len(pkgs)).Msg("probed installer")

		installed := make(map[string]bool, len(pkgs))
		for _, p := range pkgs {
			installed[p.Bin] = true
		}
		for _, c := range byKind[kind] {
			if installed[c.Bin] {
				logger.Debug().Str("bin", c.Bin).Msg("already installed")
				continue
			}
			chain.Add(InstallCommand{Command: c})
		}
	}
	return nil
}
