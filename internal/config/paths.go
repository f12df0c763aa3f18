package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/atomikpanda/localenv/internal/errors"
)

// EnvPath is a path relative to the value of an environment variable.
// When Env is empty, Path is used as is.
type EnvPath struct {
	Env  string `yaml:"env_base,omitempty" toml:"env_base,omitempty"`
	Path string `yaml:"relative_path" toml:"relative_path" validate:"required"`
}

// Resolve joins the variable's value with the relative path.
func (p EnvPath) Resolve() (string, error) {
	if p.Env == "" {
		return p.Path, nil
	}
	base, ok := os.LookupEnv(p.Env)
	if !ok {
		return "", errors.EnvVarUndefined(p.Env)
	}
	return filepath.Join(base, p.Path), nil
}

// Declared renders the unresolved declaration, e.g. "$HOME/.bashrc".
func (p EnvPath) Declared() string {
	if p.Env == "" {
		return p.Path
	}
	return "$" + p.Env + string(filepath.Separator) + p.Path
}

var modePattern = regexp.MustCompile(`^0?[0-7]{3}$`)

// ParseMode converts octal permission text such as "644" or "0755".
func ParseMode(raw string) (os.FileMode, error) {
	if !modePattern.MatchString(raw) {
		return 0, errors.InvalidFilePermission(raw)
	}
	v, err := strconv.ParseUint(raw, 8, 32)
	if err != nil {
		return 0, errors.InvalidFilePermission(raw)
	}
	return os.FileMode(v), nil
}

func joinRoot(root, p string) string {
	if filepath.IsAbs(p) || root == "" {
		return p
	}
	return filepath.Join(root, p)
}
