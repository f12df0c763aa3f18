package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/atomikpanda/localenv/internal/errors"
)

// FileNames are the config file names looked up in a configuration
// directory, in order.
var FileNames = []string{"localenv.yaml", "localenv.yml", "localenv.toml"}

// FindFile returns the first config file present in dir.
func FindFile(dir string) (string, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", errors.ConfigFileNotFound(filepath.Join(dir, FileNames[0]))
}

// LoadDir locates and loads the config file in dir. The returned config's
// RootDir is the absolute form of dir.
func LoadDir(dir string) (*Config, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Context(errors.Io(err), "resolve configuration directory")
	}
	path, err := FindFile(abs)
	if err != nil {
		return nil, err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.RootDir = abs
	return cfg, nil
}

// Load reads, decodes and validates a config file. The decoder is chosen
// by file extension. RootDir is set to the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.ConfigFileNotFound(path)
	}
	if err != nil {
		return nil, errors.Context(errors.Io(err), "read config file")
	}

	cfg, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return nil, errors.ConfigFileParseFailed(path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigFileParseFailed(path, err)
	}
	cfg.RootDir = filepath.Dir(path)
	return cfg, nil
}

// Decode parses config data. ext selects the format (".toml", otherwise YAML).
// Unknown fields are rejected.
func Decode(data []byte, ext string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, err
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks required fields and that every filesystem entry sets
// exactly one variant.
func (c *Config) Validate() error {
	var errs error
	if err := validate.Struct(c); err != nil {
		errs = multierr.Append(errs, err)
	}
	for i, entry := range c.Spec.Filesystem.Entries {
		if entry.Type() == EntryUnknown {
			errs = multierr.Append(errs, fmt.Errorf(
				"spec.filesystem.entries[%d]: exactly one of file, symbolic_link or directory must be set", i))
		}
	}
	return errs
}
