// Package confirm asks the user to approve a real apply.
package confirm

import (
	stderrors "errors"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/atomikpanda/localenv/internal/errors"
)

// Prompter asks a yes/no question.
type Prompter interface {
	Confirm(title string) (bool, error)
}

// Huh prompts with a charmbracelet/huh confirm field.
type Huh struct {
	// IsTerminal reports whether a prompt can be shown. Defaults to
	// IsInteractive.
	IsTerminal func() bool
}

var runForm = func(form *huh.Form) error { return form.Run() }

// IsInteractive reports whether stdin and stdout are both terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Confirm shows title with Apply/Cancel choices. Aborting the form counts as
// a "no". Without a terminal it fails instead of assuming an answer.
func (h Huh) Confirm(title string) (bool, error) {
	check := h.IsTerminal
	if check == nil {
		check = IsInteractive
	}
	if !check() {
		return false, errors.New(errors.KindInternal, "confirmation requires an interactive terminal; pass --yes to apply without prompting")
	}

	var ok bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative("Apply").
			Negative("Cancel").
			Value(&ok),
	))
	if err := runForm(form); err != nil {
		if stderrors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, errors.Context(err, "confirmation prompt")
	}
	return ok, nil
}

// Always answers every question with a fixed value.
type Always bool

func (a Always) Confirm(string) (bool, error) { return bool(a), nil }
