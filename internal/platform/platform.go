package platform

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// OS is a supported operating system family.
type OS string

const (
	Unknown OS = ""
	Mac     OS = "mac"
	Windows OS = "windows"
	Linux   OS = "linux"
)

// Variants lists the accepted OS names.
func Variants() []string {
	return []string{string(Mac), string(Windows), string(Linux)}
}

// Current returns the OS family of the running host.
func Current() OS {
	return FromGOOS(runtime.GOOS)
}

// FromGOOS maps a runtime.GOOS value to an OS family.
func FromGOOS(goos string) OS {
	switch goos {
	case "darwin":
		return Mac
	case "windows":
		return Windows
	case "linux":
		return Linux
	default:
		return Unknown
	}
}

// Parse accepts the OS names used in configuration files, case-insensitively.
func Parse(s string) (OS, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mac", "macos", "osx", "darwin":
		return Mac, nil
	case "windows":
		return Windows, nil
	case "linux":
		return Linux, nil
	default:
		return Unknown, fmt.Errorf("unexpected os: %q (expected one of %s)", s, strings.Join(Variants(), ", "))
	}
}

func (o OS) String() string {
	if o == Unknown {
		return "unknown"
	}
	return string(o)
}

// UnmarshalText implements encoding.TextUnmarshaler for YAML and TOML decoding.
func (o *OS) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (o OS) MarshalText() ([]byte, error) {
	return []byte(o), nil
}

// ExpandPath expands a leading "~" and environment variables in path.
func ExpandPath(path string) string {
	if expanded, err := homedir.Expand(path); err == nil {
		path = expanded
	}
	return os.ExpandEnv(path)
}
