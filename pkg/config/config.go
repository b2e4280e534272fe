// Package config handles tinyjvm.toml configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/daimatz/tinyjvm/pkg/classfile"
)

// FileName is the name FindAndLoad looks for.
const FileName = "tinyjvm.toml"

// Config represents a tinyjvm.toml configuration.
type Config struct {
	Log    Log    `toml:"log"`
	Parser Parser `toml:"parser"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// Log configures diagnostic logging.
type Log struct {
	// Verbosity is the commonlog verbosity: 0 quiet, 1 info, 2 debug.
	Verbosity int `toml:"verbosity"`
	// File receives log output. Empty means stderr.
	File string `toml:"file"`
}

// Parser configures class-file decoding.
type Parser struct {
	MaxAttributeDepth int `toml:"max_attribute_depth"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Parser: Parser{MaxAttributeDepth: classfile.DefaultMaxAttributeDepth},
	}
}

// Load parses the configuration file at path. Keys the file omits keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in %s", undecoded[0].String(), path)
	}
	if c.Log.Verbosity < 0 {
		return nil, fmt.Errorf("%s: log.verbosity must not be negative, got %d", path, c.Log.Verbosity)
	}
	if c.Parser.MaxAttributeDepth <= 0 {
		return nil, fmt.Errorf("%s: parser.max_attribute_depth must be positive, got %d", path, c.Parser.MaxAttributeDepth)
	}

	c.Path = path
	return c, nil
}

// FindAndLoad walks up from startDir to find a tinyjvm.toml file and loads
// it. Without one it returns Default().
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// ParserOptions returns a classfile.Parser configured from c.
func (c *Config) ParserOptions() *classfile.Parser {
	return &classfile.Parser{MaxAttributeDepth: c.Parser.MaxAttributeDepth}
}
