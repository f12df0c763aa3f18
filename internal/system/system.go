// Package system is the capability boundary between localenv and the host.
// Planning and applying only ever touch the machine through a System.
package system

import (
	"context"
	"io"
	"os"

	"github.com/atomikpanda/localenv/internal/platform"
)

// System is the set of host capabilities used by the planner, the executor
// and the installer adapters.
type System interface {
	// OS reports the host's OS family.
	OS() platform.OS

	// CreateFile creates or truncates dest, copies every byte of content into
	// it and sets perm on the result, regardless of the process umask.
	CreateFile(ctx context.Context, dest string, content io.Reader, perm os.FileMode) error

	// CreateSymbolicLink creates link pointing to original. With replace set,
	// an existing path at link is removed and creation is attempted exactly
	// once more.
	CreateSymbolicLink(original, link string, replace bool) error

	// Display shows a message to the user.
	Display(msg string)

	// LookPath finds an executable on $PATH.
	LookPath(name string) (string, error)

	// Output runs a command and returns its standard output.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// Run runs a command attached to the user's terminal.
	Run(ctx context.Context, name string, args ...string) error
}
