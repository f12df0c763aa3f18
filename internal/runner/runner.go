// Package runner drives one localenv run: required-environment check, plan,
// display, confirmation, apply and summary.
package runner

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/multierr"

	"github.com/atomikpanda/localenv/internal/color"
	"github.com/atomikpanda/localenv/internal/config"
	"github.com/atomikpanda/localenv/internal/confirm"
	"github.com/atomikpanda/localenv/internal/errors"
	"github.com/atomikpanda/localenv/internal/installer"
	"github.com/atomikpanda/localenv/internal/logging"
	"github.com/atomikpanda/localenv/internal/operation"
	"github.com/atomikpanda/localenv/internal/system"
)

// Runner reconciles one configuration against one host.
type Runner struct {
	Config     *config.Config
	System     system.System
	Installers *installer.Registry
	Prompter   confirm.Prompter

	DryRun bool
	// Yes skips the confirmation prompt.
	Yes bool
}

// New creates a Runner with the standard installers for sys.
func New(cfg *config.Config, sys system.System, dryRun, yes bool) *Runner {
	return &Runner{
		Config:     cfg,
		System:     sys,
		Installers: installer.NewRegistry(sys),
		Prompter:   confirm.Huh{},
		DryRun:     dryRun,
		Yes:        yes,
	}
}

// Summary is the result of Apply.
type Summary struct {
	Planned   int
	Succeeded int
	Failed    int
	DryRun    bool
	// Aborted is set when the user declined the confirmation prompt.
	Aborted bool
	// Err combines the errors of every failed action.
	Err error
}

// OK reports whether every action succeeded.
func (s Summary) OK() bool { return s.Failed == 0 }

func (s Summary) String() string {
	switch {
	case s.Aborted:
		return "Aborted. No changes were made."
	case s.Planned == 0:
		return operation.UpToDate
	case s.DryRun:
		return fmt.Sprintf("Dry run: %d action(s) checked, %d would fail.", s.Planned, s.Failed)
	default:
		return fmt.Sprintf("Applied %d action(s): %d succeeded, %d failed.", s.Planned, s.Succeeded, s.Failed)
	}
}

// CheckRequiredEnvs fails with EnvVarUndefined for every declared variable
// that is not set.
func (r *Runner) CheckRequiredEnvs() error {
	var errs error
	for _, env := range r.Config.RequiredEnvs {
		if _, ok := os.LookupEnv(env.Name); ok {
			continue
		}
		err := errors.EnvVarUndefined(env.Name)
		if env.Description != "" {
			errs = multierr.Append(errs, errors.Contextf(err, "required: %s", env.Description))
			continue
		}
		errs = multierr.Append(errs, err)
	}
	return errs
}

// Plan checks the required environment and builds the action chain.
func (r *Runner) Plan(ctx context.Context) (*operation.Chain, error) {
	if err := r.CheckRequiredEnvs(); err != nil {
		return nil, err
	}
	chain, err := operation.Plan(ctx, r.Config, r.System, r.Installers)
	if err != nil {
		return nil, errors.Context(err, "plan")
	}
	return chain, nil
}

// ShowPlan plans and displays the chain without applying it.
func (r *Runner) ShowPlan(ctx context.Context) (*operation.Chain, error) {
	chain, err := r.Plan(ctx)
	if err != nil {
		return nil, err
	}
	operation.Display(chain, r.System)
	return chain, nil
}

// Apply plans, displays, asks for confirmation, applies and displays the
// outcomes. Failed actions are reported in the Summary; the error is only
// about the run itself.
func (r *Runner) Apply(ctx context.Context) (Summary, error) {
	logger := logging.GetLogger("runner")

	chain, err := r.ShowPlan(ctx)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{Planned: chain.Len(), DryRun: r.DryRun}
	if chain.Empty() {
		return summary, nil
	}

	if !r.DryRun && !r.Yes {
		ok, err := r.Prompter.Confirm(fmt.Sprintf("Apply %d action(s)?", chain.Len()))
		if err != nil {
			return summary, err
		}
		if !ok {
			logger.Info().Msg("apply declined")
			summary.Aborted = true
			return summary, nil
		}
	}

	if r.DryRun {
		r.System.Display(color.Dim("[dry-run] validating actions, no changes will be made"))
	}
	err = operation.Apply(ctx, chain, operation.ApplyParams{
		System:     r.System,
		Installers: r.Installers,
		Config:     r.Config,
		DryRun:     r.DryRun,
	})
	if err != nil {
		return summary, err
	}
	operation.Display(chain, r.System)

	summary.Failed = len(chain.Failed())
	summary.Succeeded = summary.Planned - summary.Failed
	summary.Err = chain.Err()
	logger.Info().
		Int("planned", summary.Planned).
		Int("failed", summary.Failed).
		Bool("dry_run", r.DryRun).
		Msg("apply finished")
	return summary, nil
}
