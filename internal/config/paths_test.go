package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomikpanda/localenv/internal/errors"
)

func TestEnvPathResolve(t *testing.T) {
	t.Setenv("LOCALENV_TEST_BASE", "/home/u")

	got, err := EnvPath{Env: "LOCALENV_TEST_BASE", Path: ".bashrc"}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/u", ".bashrc"), got)

	got, err = EnvPath{Env: "LOCALENV_TEST_BASE", Path: ".config/nvim/init.lua"}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/u", ".config", "nvim", "init.lua"), got)
}

func TestEnvPathResolveWithoutEnv(t *testing.T) {
	got, err := EnvPath{Path: "/etc/hosts"}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "/etc/hosts", got)
}

func TestEnvPathResolveUndefined(t *testing.T) {
	require.NoError(t, os.Unsetenv("LOCALENV_SURELY_UNSET"))

	_, err := EnvPath{Env: "LOCALENV_SURELY_UNSET", Path: "x"}.Resolve()
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindEnvVarUndefined))
	assert.Contains(t, err.Error(), "LOCALENV_SURELY_UNSET")
}

func TestEnvPathDeclared(t *testing.T) {
	assert.Equal(t, "$HOME"+string(filepath.Separator)+".bashrc", EnvPath{Env: "HOME", Path: ".bashrc"}.Declared())
	assert.Equal(t, "rel", EnvPath{Path: "rel"}.Declared())
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		raw  string
		want os.FileMode
	}{
		{"666", 0o666},
		{"0666", 0o666},
		{"700", 0o700},
		{"644", 0o644},
		{"0755", 0o755},
		{"000", 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseMode(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseModeInvalid(t *testing.T) {
	for _, raw := range []string{"", "rw-r--r--", "888", "64", "06444", "0o644", " 644", "12345", "abc"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseMode(raw)
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, errors.KindInvalidFilePermission))
		})
	}
}

func TestFileSrcPath(t *testing.T) {
	f := File{ContentFrom: "bashrc"}
	assert.Equal(t, filepath.Join("/cfg", "bashrc"), f.SrcPath("/cfg"))

	f.ContentFrom = "/abs/bashrc"
	assert.Equal(t, "/abs/bashrc", f.SrcPath("/cfg"))
}

func TestSymbolicLinkPathsResolveIndependently(t *testing.T) {
	t.Setenv("LOCALENV_TEST_DOT", "/dot")
	require.NoError(t, os.Unsetenv("LOCALENV_TEST_MISSING"))

	s := SymbolicLink{
		Original: EnvPath{Env: "LOCALENV_TEST_DOT", Path: "nvim"},
		Link:     EnvPath{Env: "LOCALENV_TEST_MISSING", Path: ".config/nvim"},
	}

	orig, err := s.OriginalPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/dot", "nvim"), orig)

	_, err = s.LinkPath()
	assert.True(t, errors.IsKind(err, errors.KindEnvVarUndefined))
}
