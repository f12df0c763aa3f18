package config

import (
	"fmt"
	"strings"
)

// InstallerKind names the package manager that installs a command.
type InstallerKind string

const (
	InstallerCargo InstallerKind = "cargo"
)

// InstallerKinds lists every supported installer.
func InstallerKinds() []InstallerKind {
	return []InstallerKind{InstallerCargo}
}

// ParseInstallerKind validates an installer name.
func ParseInstallerKind(s string) (InstallerKind, error) {
	for _, k := range InstallerKinds() {
		if string(k) == s {
			return k, nil
		}
	}
	names := make([]string, 0, len(InstallerKinds()))
	for _, k := range InstallerKinds() {
		names = append(names, string(k))
	}
	return "", fmt.Errorf("unknown installer %q (expected one of %s)", s, strings.Join(names, ", "))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *InstallerKind) UnmarshalText(text []byte) error {
	parsed, err := ParseInstallerKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (k InstallerKind) MarshalText() ([]byte, error) {
	return []byte(k), nil
}

// Command is a command-line tool that should be installed.
type Command struct {
	Bin       string        `yaml:"bin" toml:"bin" validate:"required"`
	Version   string        `yaml:"version,omitempty" toml:"version,omitempty"`
	Installer InstallerKind `yaml:"installer" toml:"installer" validate:"required"`
}

// PinnedVersion returns the version to request from the installer, or ""
// when any version is acceptable.
func (c Command) PinnedVersion() string {
	switch v := strings.TrimSpace(c.Version); v {
	case "", "*", "latest":
		return ""
	default:
		return v
	}
}
