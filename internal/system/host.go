package system

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/atomikpanda/localenv/internal/errors"
	"github.com/atomikpanda/localenv/internal/platform"
)

// Host is the System backed by the real operating system.
type Host struct {
	// Out receives Display messages and the output of Run. Defaults to os.Stdout.
	Out io.Writer
	// Err receives the standard error of Run. Defaults to os.Stderr.
	Err io.Writer
	// In is attached to Run. Defaults to os.Stdin.
	In io.Reader

	Logger zerolog.Logger
}

// NewHost returns a Host wired to the process's standard streams.
func NewHost(logger zerolog.Logger) *Host {
	return &Host{Out: os.Stdout, Err: os.Stderr, In: os.Stdin, Logger: logger}
}

var _ System = (*Host)(nil)

func (h *Host) OS() platform.OS {
	return platform.Current()
}

func (h *Host) CreateFile(ctx context.Context, dest string, content io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.Context(err, "create destination directory")
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return errors.Context(err, "create destination")
	}
	defer out.Close()

	n, err := io.Copy(out, contextReader{ctx: ctx, r: content})
	if err != nil {
		return errors.Context(err, "copy contents")
	}
	// OpenFile only applies perm to new files and is subject to the umask.
	if err := out.Chmod(perm); err != nil {
		return errors.Context(err, "set permissions")
	}
	if err := out.Close(); err != nil {
		return errors.Context(err, "close destination")
	}

	h.Logger.Debug().Str("dest", dest).Int64("bytes", n).Str("mode", fmt.Sprintf("%04o", perm)).Msg("file written")
	return nil
}

func (h *Host) CreateSymbolicLink(original, link string, replace bool) error {
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return errors.Context(err, "create link directory")
	}

	err := os.Symlink(original, link)
	if err != nil && replace && errors.Is(err, fs.ErrExist) {
		h.Logger.Debug().Str("link", link).Msg("link path exists, replacing")
		if rmErr := os.Remove(link); rmErr != nil {
			return errors.Context(rmErr, "remove existing link path")
		}
		err = os.Symlink(original, link)
	}
	if err != nil {
		return errors.Context(err, "create symbolic link")
	}

	h.Logger.Debug().Str("original", original).Str("link", link).Msg("symlink created")
	return nil
}

func (h *Host) Display(msg string) {
	fmt.Fprintln(h.out(), msg)
}

func (h *Host) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (h *Host) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	h.Logger.Trace().Str("cmd", name).Strs("args", args).Msg("exec")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = name + " " + strings.Join(args, " ")
		}
		return out, errors.Context(err, msg)
	}
	return out, nil
}

func (h *Host) Run(ctx context.Context, name string, args ...string) error {
	h.Logger.Debug().Str("cmd", name).Strs("args", args).Msg("exec")

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = h.out()
	cmd.Stderr = h.Err
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	cmd.Stdin = h.In
	if err := cmd.Run(); err != nil {
		return errors.Contextf(err, "run %s %s", name, strings.Join(args, " "))
	}
	return nil
}

func (h *Host) out() io.Writer {
	if h.Out == nil {
		return os.Stdout
	}
	return h.Out
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
