package operation

import (
	"fmt"
	"strings"

	"github.com/atomikpanda/localenv/internal/color"
	"github.com/atomikpanda/localenv/internal/config"
	"github.com/atomikpanda/localenv/internal/errors"
	"github.com/atomikpanda/localenv/internal/system"
)

// UpToDate is displayed for an empty chain.
const UpToDate = "No changes. Your environment is up to date."

// Describe renders the block for one action, followed by its result line
// once the action has run. It has no side effects.
func Describe(a *Action) string {
	var b strings.Builder
	switch k := a.Kind.(type) {
	case CreateFile:
		fmt.Fprintf(&b, "[Create file]\n    Desc: %s\n    File: %s",
			k.Entry.Description, renderPath(k.Entry.EnvPath))
	case CreateSymbolicLink:
		fmt.Fprintf(&b, "[Create symlink]\n    Desc: %s\n    Orig: %s\n    Link: %s",
			k.Entry.Description, renderPath(k.Entry.Original), renderPath(k.Entry.Link))
	case InstallCommand:
		ver := k.Command.Version
		if ver == "" {
			ver = "*"
		}
		fmt.Fprintf(&b, "[Install command]\n     Bin: %s\n     Ver: %s\n    From: %s",
			k.Command.Bin, ver, k.Command.Installer)
	default:
		fmt.Fprintf(&b, "[Unknown action %T]", a.Kind)
	}

	if o, ok := a.Outcome(); ok {
		result := "Success"
		if !o.Success() {
			result = errors.KindOf(o.Err).String()
		}
		fmt.Fprintf(&b, "\n  Result: %s", result)
	}
	return b.String()
}

// renderPath shows the resolved path, or the declaration and the reason it
// could not be resolved.
func renderPath(p config.EnvPath) string {
	resolved, err := p.Resolve()
	if err != nil {
		return fmt.Sprintf("%s (%s)", p.Declared(), err)
	}
	return resolved
}

// Display writes every action of chain to sys. It can be called before and
// after Apply.
func Display(chain *Chain, sys system.System) {
	if chain.Empty() {
		sys.Display(color.Green(UpToDate))
		return
	}
	for _, a := range chain.Actions() {
		msg := Describe(a)
		if o, ok := a.Outcome(); ok && !o.Success() {
			sys.Display(color.Red(msg))
			continue
		}
		sys.Display(color.Yellow(msg))
	}
}
