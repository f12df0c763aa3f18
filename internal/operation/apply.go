package operation

import (
	"context"
	"io"
	"os"

	"github.com/atomikpanda/localenv/internal/ageutil"
	"github.com/atomikpanda/localenv/internal/config"
	"github.com/atomikpanda/localenv/internal/errors"
	"github.com/atomikpanda/localenv/internal/installer"
	"github.com/atomikpanda/localenv/internal/logging"
	"github.com/atomikpanda/localenv/internal/system"
)

// ApplyParams configures Apply.
type ApplyParams struct {
	System     system.System
	Installers *installer.Registry
	// Config supplies the configuration root for content sources and the
	// age key for encrypted ones.
	Config *config.Config
	// DryRun performs every resolution and validation step but makes no
	// mutating call on System.
	DryRun bool
}

// Apply executes chain in order and records each action's outcome. A failing
// action does not stop the remaining ones; inspect Chain.Failed afterwards.
// The returned error is only about misuse.
func Apply(ctx context.Context, chain *Chain, p ApplyParams) error {
	if chain == nil || p.System == nil {
		return errors.Internalf("apply: chain and system are required")
	}
	logger := logging.GetLogger("apply")
	defer logging.LogOperationStart(logger, "apply")()

	for _, a := range chain.Actions() {
		if _, done := a.Outcome(); done {
			continue
		}
		err := applyAction(ctx, a, p)
		a.record(err)

		ev := logger.Debug()
		if err != nil {
			ev = logger.Warn().Err(err)
		}
		ev.Str("action", Title(a)).Bool("dry_run", p.DryRun).Msg("action applied")
	}
	return nil
}

func applyAction(ctx context.Context, a *Action, p ApplyParams) error {
	switch k := a.Kind.(type) {
	case CreateFile:
		return applyCreateFile(ctx, k.Entry, p)
	case CreateSymbolicLink:
		return applyCreateSymbolicLink(k.Entry, p)
	case InstallCommand:
		return applyInstallCommand(ctx, k.Command, p)
	default:
		return errors.Internalf("unknown action kind %T", a.Kind)
	}
}

func applyCreateFile(ctx context.Context, entry config.File, p ApplyParams) error {
	dest, err := entry.DestPath()
	if err != nil {
		return err
	}
	var root string
	if p.Config != nil {
		root = p.Config.RootDir
	}
	src := entry.SrcPath(root)
	mode, err := entry.Permission()
	if err != nil {
		return err
	}

	f, err := os.Open(src)
	if err != nil {
		return errors.Contextf(err, "open content source %s", src)
	}
	defer f.Close()

	var content io.Reader = f
	if ageutil.IsEncrypted(src) {
		if content, err = decrypt(f, src, p.Config); err != nil {
			return err
		}
	}

	if p.DryRun {
		return nil
	}
	if err := p.System.CreateFile(ctx, dest, content, mode); err != nil {
		return errors.Contextf(err, "create file %s", dest)
	}
	return nil
}

func decrypt(r io.Reader, src string, cfg *config.Config) (io.Reader, error) {
	var key *ageutil.Key
	if cfg != nil {
		key = cfg.AgeKey()
	}
	if key == nil {
		return nil, errors.Newf(errors.KindInternal,
			"encrypted source %s requires an age key (set age.identity or age.passphrase in localenv.yaml)", src)
	}
	plain, err := key.Decrypt(r)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindIo, "decrypt %s", src)
	}
	return plain, nil
}

func applyCreateSymbolicLink(entry config.SymbolicLink, p ApplyParams) error {
	original, err := entry.OriginalPath()
	if err != nil {
		return err
	}
	link, err := entry.LinkPath()
	if err != nil {
		return err
	}

	if p.DryRun {
		return nil
	}
	if err := p.System.CreateSymbolicLink(original, link, true); err != nil {
		return errors.Contextf(err, "link %s -> %s", link, original)
	}
	return nil
}

func applyInstallCommand(ctx context.Context, cmd config.Command, p ApplyParams) error {
	inst, err := p.Installers.For(cmd.Installer)
	if err != nil {
		return err
	}

	if p.DryRun {
		return nil
	}
	if err := inst.Install(ctx, cmd); err != nil {
		return errors.Contextf(err, "install %s", cmd.Bin)
	}
	return nil
}
