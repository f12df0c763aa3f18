// Package config defines the desired-state model read from localenv.yaml.
package config

import (
	"os"

	"github.com/atomikpanda/localenv/internal/ageutil"
	"github.com/atomikpanda/localenv/internal/platform"
)

// Config is the top-level desired state for one machine.
type Config struct {
	Version      string        `yaml:"localenv" toml:"localenv" validate:"required"`
	RequiredEnvs []RequiredEnv `yaml:"required_envs,omitempty" toml:"required_envs,omitempty" validate:"dive"`
	Spec         Spec          `yaml:"spec" toml:"spec"`
	Age          *AgeConfig    `yaml:"age,omitempty" toml:"age,omitempty"`

	// RootDir is the directory the config was loaded from. content_from
	// paths are relative to it.
	RootDir string `yaml:"-" toml:"-"`
}

// RequiredEnv declares an environment variable that must be set before planning.
type RequiredEnv struct {
	Name        string `yaml:"name" toml:"name" validate:"required"`
	Description string `yaml:"description,omitempty" toml:"description,omitempty"`
}

// Spec holds the things to reconcile.
type Spec struct {
	Filesystem Filesystem `yaml:"filesystem,omitempty" toml:"filesystem,omitempty"`
	Commands   []Command  `yaml:"commands,omitempty" toml:"commands,omitempty" validate:"dive"`
}

// Filesystem lists filesystem entries in declaration order.
type Filesystem struct {
	Entries []Entry `yaml:"entries,omitempty" toml:"entries,omitempty" validate:"dive"`
}

// AgeConfig names the key used to decrypt ".age" content sources.
// LOCALENV_AGE_IDENTITY and LOCALENV_AGE_PASSPHRASE override the file values.
type AgeConfig struct {
	Identity   string `yaml:"identity,omitempty" toml:"identity,omitempty"`
	Passphrase string `yaml:"passphrase,omitempty" toml:"passphrase,omitempty"`
}

// AgeKey returns the configured age key, or nil when none is configured.
func (c *Config) AgeKey() *ageutil.Key {
	var key ageutil.Key
	if c.Age != nil {
		key.IdentityFile = platform.ExpandPath(c.Age.Identity)
		key.Passphrase = c.Age.Passphrase
	}
	if v := os.Getenv("LOCALENV_AGE_IDENTITY"); v != "" {
		key.IdentityFile = platform.ExpandPath(v)
	}
	if v := os.Getenv("LOCALENV_AGE_PASSPHRASE"); v != "" {
		key.Passphrase = v
	}
	if key.IdentityFile == "" && key.Passphrase == "" {
		return nil
	}
	return &key
}

// EntryType names the variant populated in an Entry.
type EntryType string

const (
	EntryFile         EntryType = "file"
	EntrySymbolicLink EntryType = "symbolic_link"
	EntryDirectory    EntryType = "directory"
	EntryUnknown      EntryType = "unknown"
)

// Entry is one filesystem entry. The entry type is determined by which field
// is populated; exactly one must be set.
type Entry struct {
	File         *File         `yaml:"file,omitempty" toml:"file,omitempty"`
	SymbolicLink *SymbolicLink `yaml:"symbolic_link,omitempty" toml:"symbolic_link,omitempty"`
	Directory    *Directory    `yaml:"directory,omitempty" toml:"directory,omitempty"`
}

// Type returns the entry variant.
func (e Entry) Type() EntryType {
	n := 0
	t := EntryUnknown
	if e.File != nil {
		n++
		t = EntryFile
	}
	if e.SymbolicLink != nil {
		n++
		t = EntrySymbolicLink
	}
	if e.Directory != nil {
		n++
		t = EntryDirectory
	}
	if n != 1 {
		return EntryUnknown
	}
	return t
}

// Description returns the description of whichever variant is set.
func (e Entry) Description() string {
	switch e.Type() {
	case EntryFile:
		return e.File.Description
	case EntrySymbolicLink:
		return e.SymbolicLink.Description
	case EntryDirectory:
		return e.Directory.Description
	default:
		return ""
	}
}

// Condition returns the optional condition of whichever variant is set.
func (e Entry) Condition() *Condition {
	switch e.Type() {
	case EntryFile:
		return e.File.Condition
	case EntrySymbolicLink:
		return e.SymbolicLink.Condition
	case EntryDirectory:
		return e.Directory.Condition
	default:
		return nil
	}
}

// Condition restricts an entry to matching hosts.
type Condition struct {
	OS platform.OS `yaml:"os,omitempty" toml:"os,omitempty"`
}

// Matches reports whether the condition holds on a host of the given OS.
// A nil condition or an empty OS always matches.
func (c *Condition) Matches(host platform.OS) bool {
	if c == nil || c.OS == platform.Unknown {
		return true
	}
	return c.OS == host
}

// Clone returns a deep copy.
func (c *Condition) Clone() *Condition {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// File places a file whose content is copied from the configuration root.
type File struct {
	Description string     `yaml:"description,omitempty" toml:"description,omitempty"`
	Condition   *Condition `yaml:"condition,omitempty" toml:"condition,omitempty"`

	// Destination.
	EnvPath `yaml:",inline"`

	ContentFrom string `yaml:"content_from" toml:"content_from" validate:"required"`
	Mode        string `yaml:"mode" toml:"mode" validate:"required"`
}

// DestPath resolves the destination path.
func (f File) DestPath() (string, error) {
	return f.EnvPath.Resolve()
}

// SrcPath returns the content source joined with the configuration root.
// Absolute content sources are returned unchanged.
func (f File) SrcPath(root string) string {
	return joinRoot(root, f.ContentFrom)
}

// Permission parses the mode text.
func (f File) Permission() (os.FileMode, error) {
	return ParseMode(f.Mode)
}

// Clone returns a deep copy.
func (f File) Clone() File {
	f.Condition = f.Condition.Clone()
	return f
}

// SymbolicLink creates a link at Link pointing to Original.
type SymbolicLink struct {
	Description string     `yaml:"description,omitempty" toml:"description,omitempty"`
	Condition   *Condition `yaml:"condition,omitempty" toml:"condition,omitempty"`
	Original    EnvPath    `yaml:"original" toml:"original"`
	Link        EnvPath    `yaml:"link" toml:"link"`
}

// OriginalPath resolves the link target.
func (s SymbolicLink) OriginalPath() (string, error) {
	return s.Original.Resolve()
}

// LinkPath resolves the link location.
func (s SymbolicLink) LinkPath() (string, error) {
	return s.Link.Resolve()
}

// Clone returns a deep copy.
func (s SymbolicLink) Clone() SymbolicLink {
	s.Condition = s.Condition.Clone()
	return s
}

// Directory is accepted by the loader but not yet planned.
type Directory struct {
	Description string     `yaml:"description,omitempty" toml:"description,omitempty"`
	Condition   *Condition `yaml:"condition,omitempty" toml:"condition,omitempty"`
	EnvPath     `yaml:",inline"`
}
