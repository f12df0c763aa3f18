// Package operation turns a desired-state config into an ordered chain of
// actions, applies the chain through a system.System and renders it.
package operation

import (
	"go.uber.org/multierr"

	"github.com/atomikpanda/localenv/internal/config"
)

// Family groups action kinds.
type Family string

const (
	FamilyFilesystem Family = "filesystem"
	FamilyCommand    Family = "command"
)

// Kind is what an action does. The set of kinds is closed: CreateFile,
// CreateSymbolicLink and InstallCommand.
type Kind interface {
	Family() Family
	isKind()
}

// CreateFile places a file entry.
type CreateFile struct {
	Entry config.File
}

// CreateSymbolicLink places a symbolic link entry.
type CreateSymbolicLink struct {
	Entry config.SymbolicLink
}

// InstallCommand installs a missing command.
type InstallCommand struct {
	Command config.Command
}

func (CreateFile) Family() Family         { return FamilyFilesystem }
func (CreateSymbolicLink) Family() Family { return FamilyFilesystem }
func (InstallCommand) Family() Family     { return FamilyCommand }

func (CreateFile) isKind()         {}
func (CreateSymbolicLink) isKind() {}
func (InstallCommand) isKind()     {}

// Outcome is the result of applying one action. A nil Err is success.
type Outcome struct {
	Err error
}

// Success reports whether the action succeeded.
func (o Outcome) Success() bool { return o.Err == nil }

// Action is one step of a chain.
type Action struct {
	Kind Kind

	outcome *Outcome
}

// Outcome returns the recorded outcome and whether the action has run.
func (a *Action) Outcome() (Outcome, bool) {
	if a.outcome == nil {
		return Outcome{}, false
	}
	return *a.outcome, true
}

// record sets the outcome. An outcome is written at most once.
func (a *Action) record(err error) {
	if a.outcome != nil {
		panic("operation: outcome recorded twice")
	}
	a.outcome = &Outcome{Err: err}
}

// Chain is an ordered, append-only list of actions. Execution order is
// planning order.
type Chain struct {
	actions []*Action
}

// NewChain returns an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

// Add appends an action of the given kind and returns it.
func (c *Chain) Add(kind Kind) *Action {
	a := &Action{Kind: kind}
	c.actions = append(c.actions, a)
	return a
}

// Actions returns the actions in order. The slice must not be modified.
func (c *Chain) Actions() []*Action {
	if c == nil {
		return nil
	}
	return c.actions
}

// Len is the number of actions.
func (c *Chain) Len() int {
	return len(c.Actions())
}

// Empty reports whether there is nothing to do.
func (c *Chain) Empty() bool {
	return c.Len() == 0
}

// Failed returns the actions whose outcome is an error.
func (c *Chain) Failed() []*Action {
	var failed []*Action
	for _, a := range c.Actions() {
		if o, ok := a.Outcome(); ok && !o.Success() {
			failed = append(failed, a)
		}
	}
	return failed
}

// Err combines every recorded failure into one error, or returns nil.
func (c *Chain) Err() error {
	var errs error
	for _, a := range c.Failed() {
		o, _ := a.Outcome()
		errs = multierr.Append(errs, o.Err)
	}
	return errs
}

// Title is a one-line label for an action, e.g. "create file $HOME/.bashrc".
func Title(a *Action) string {
	switch k := a.Kind.(type) {
	case CreateFile:
		return "create file " + k.Entry.Declared()
	case CreateSymbolicLink:
		return "create symlink " + k.Entry.Link.Declared()
	case InstallCommand:
		return "install " + k.Command.Bin
	default:
		return "unknown action"
	}
}
