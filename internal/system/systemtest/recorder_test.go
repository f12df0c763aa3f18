package systemtest

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomikpanda/localenv/internal/platform"
)

func TestRecorderCreateFile(t *testing.T) {
	r := New(platform.Linux)

	require.NoError(t, r.CreateFile(context.Background(), "/home/u/.bashrc", strings.NewReader("abc"), 0o644))

	f, ok := r.File("/home/u/.bashrc")
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), f.Content)
	assert.Equal(t, fs.FileMode(0o644), f.Mode)
	assert.Equal(t, 1, r.MutatingCalls())
}

func TestRecorderSymlinkExisting(t *testing.T) {
	r := New(platform.Mac)
	r.Exists("/l")

	err := r.CreateSymbolicLink("/o", "/l", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrExist)

	require.NoError(t, r.CreateSymbolicLink("/o", "/l", true))
	target, ok := r.Link("/l")
	require.True(t, ok)
	assert.Equal(t, "/o", target)
	assert.Len(t, r.CallsTo("Remove"), 1)
}

func TestRecorderFailOn(t *testing.T) {
	r := New(platform.Linux)
	boom := fs.ErrPermission
	r.FailOn("/x", boom)

	err := r.CreateFile(context.Background(), "/x", strings.NewReader(""), 0o600)
	assert.ErrorIs(t, err, boom)
	_, ok := r.File("/x")
	assert.False(t, ok)
}

func TestRecorderNonMutatingCalls(t *testing.T) {
	r := New(platform.Windows)
	r.OutputFunc = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(name + " " + strings.Join(args, " ")), nil
	}

	assert.Equal(t, platform.Windows, r.OS())
	r.Display("one")
	r.Display("two")
	out, err := r.Output(context.Background(), "cargo", "install", "--list")
	require.NoError(t, err)
	assert.Equal(t, "cargo install --list", string(out))
	_, err = r.LookPath("cargo")
	assert.Error(t, err)

	assert.Zero(t, r.MutatingCalls())
	assert.Equal(t, "one\ntwo", r.Transcript())
	assert.Len(t, r.Calls(), 5)
}
