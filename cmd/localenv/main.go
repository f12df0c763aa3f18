package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/atomikpanda/localenv/internal/ageutil"
	"github.com/atomikpanda/localenv/internal/color"
	"github.com/atomikpanda/localenv/internal/config"
	"github.com/atomikpanda/localenv/internal/errors"
	"github.com/atomikpanda/localenv/internal/logging"
	"github.com/atomikpanda/localenv/internal/platform"
	"github.com/atomikpanda/localenv/internal/runner"
	"github.com/atomikpanda/localenv/internal/system"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	configDir string
	dryRun    bool
	assumeYes bool
	verbosity int
)

// Exit codes.
const (
	exitOK          = 0
	exitError       = 1
	exitApplyFailed = 2
)

// exitCodeError carries a non-default exit status out of a command.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

func main() {
	color.Init()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := buildRoot()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return exitOK
	}

	var exitErr *exitCodeError
	if errors.As(err, &exitErr) {
		fmt.Fprintln(stderr, color.Red(exitErr.Error()))
		return exitErr.code
	}
	fmt.Fprintf(stderr, "%s %+v\n", color.BoldRed("error:"), err)
	return exitError
}

func buildRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "localenv",
		Short: "Reconcile a machine against a declared local environment",
		Long: `localenv reads localenv.yaml, compares the files, symbolic links and
command-line tools it declares against this machine, and applies the
difference.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			runID := logging.SetupLogger(verbosity)
			log.Debug().Str("run_id", runID).Str("command", cmd.Name()).Str("version", version).Msg("starting")
		},
	}

	root.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v debug, -vv trace)")
	root.PersistentFlags().StringVarP(&configDir, "dir", "d", ".", "directory containing localenv.yaml")

	root.AddCommand(
		planCmd(),
		applyCmd(),
		encryptCmd(),
		platformCmd(),
		versionCmd(),
	)

	return root
}

// loadConfig loads the configuration from --dir.
func loadConfig() (*config.Config, error) {
	dir, err := homedir.Expand(configDir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindConfigFileNotFound, "expand %s", configDir)
	}
	cfg, err := config.LoadDir(dir)
	if err != nil {
		return nil, errors.Contextf(err, "load configuration from %s", dir)
	}
	return cfg, nil
}

func newRunner(cmd *cobra.Command, cfg *config.Config) *runner.Runner {
	host := system.NewHost(logging.GetLogger("system"))
	host.Out = cmd.OutOrStdout()
	return runner.New(cfg, host, dryRun, assumeYes)
}

// --- plan --------------------------------------------------------------------

func planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the actions needed to reconcile this machine",
		Example: `  localenv plan
  localenv plan --dir ~/dotfiles`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			_, err = newRunner(cmd, cfg).ShowPlan(context.Background())
			return err
		},
	}
}

// --- apply -------------------------------------------------------------------

func applyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply the planned actions",
		Example: `  localenv apply
  localenv apply --dry-run
  localenv apply --yes --dir ~/dotfiles`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			summary, err := newRunner(cmd, cfg).Apply(context.Background())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if summary.OK() {
				fmt.Fprintln(out, color.BoldGreen(summary.String()))
				return nil
			}
			fmt.Fprintln(out, color.BoldYellow(summary.String()))
			log.Debug().Err(summary.Err).Msg("failed actions")
			return &exitCodeError{
				code: exitApplyFailed,
				err:  fmt.Errorf("%d of %d action(s) failed", summary.Failed, summary.Planned),
			}
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate every action without changing anything")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "apply without asking for confirmation")
	return cmd
}

// --- encrypt -----------------------------------------------------------------

func encryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <file>",
		Short: "Encrypt a content source with the configured age key (writes <file>.age)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			key := cfg.AgeKey()
			if key == nil {
				return errors.New(errors.KindInternal,
					"no age key configured; set age.identity or age.passphrase in localenv.yaml, or LOCALENV_AGE_IDENTITY / LOCALENV_AGE_PASSPHRASE")
			}

			src := platform.ExpandPath(args[0])
			if !filepath.IsAbs(src) {
				src = filepath.Join(cfg.RootDir, src)
			}
			dst := src + ageutil.Ext
			if ageutil.IsEncrypted(src) {
				return errors.Newf(errors.KindInternal, "%s is already encrypted", src)
			}

			plaintext, err := os.ReadFile(src)
			if err != nil {
				return errors.Contextf(err, "read %s", src)
			}
			var buf bytes.Buffer
			w, err := key.Encrypt(&buf)
			if err != nil {
				return errors.Context(err, "encrypt")
			}
			if _, err := w.Write(plaintext); err != nil {
				return errors.Context(err, "encrypt")
			}
			if err := w.Close(); err != nil {
				return errors.Context(err, "encrypt")
			}
			if err := os.WriteFile(dst, buf.Bytes(), 0o600); err != nil {
				return errors.Contextf(err, "write %s", dst)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "encrypted %s -> %s\n", src, dst)
			return nil
		},
	}
}

// --- platform ----------------------------------------------------------------

func platformCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platform",
		Short: "Print the detected platform (OS)",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "os: %s\n", platform.Current())
		},
	}
}

// --- version -----------------------------------------------------------------

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the localenv version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "localenv %s\n", version)
		},
	}
}
