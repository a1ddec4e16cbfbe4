package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultFileNames are tried in order when no config path is given.
var DefaultFileNames = []string{"embedls.toml", "embedls.yaml", "embedls.yml"}

// File is the decoded form of a config file.
type File struct {
	Locale string `toml:"locale" yaml:"locale"`

	// Root is the workspace root, as a URI or a path relative to the file.
	Root string `toml:"root" yaml:"root"`

	// Workspace holds arbitrary settings served to rules by dotted section.
	Workspace map[string]any `toml:"workspace" yaml:"workspace"`

	Lint LintSection `toml:"lint" yaml:"lint"`
}

// LintSection configures the rule pass.
type LintSection struct {
	Settings   map[string]any    `toml:"settings" yaml:"settings"`
	Severities map[string]string `toml:"severities" yaml:"severities"`

	// RuleTimeout bounds each Lua hook call, as a Go duration string.
	RuleTimeout string `toml:"rule_timeout" yaml:"rule_timeout"`

	// Rules run in the order listed.
	Rules []RuleEntry `toml:"rules" yaml:"rules"`
}

// RuleEntry declares one Lua rule.
type RuleEntry struct {
	Name string `toml:"name" yaml:"name"`

	// Script is a path to the rule file, relative to the config file.
	Script string `toml:"script" yaml:"script"`

	// Source is inline Lua, used when Script is empty.
	Source string `toml:"source" yaml:"source"`

	// Files restricts the rule to documents matching any of these globs.
	Files []string `toml:"files" yaml:"files"`

	Severity string `toml:"severity" yaml:"severity"`
	Disabled bool   `toml:"disabled" yaml:"disabled"`
}

// FileSystem is an abstraction for file system reads, so configs and rule
// scripts can be loaded from memory in tests.
type FileSystem interface {
	fs.FS
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
	// Stat returns file info for path.
	Stat(path string) (fs.FileInfo, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// Open implements fs.FS.
func (OSFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Stat returns file info for path.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// Decode parses config data. The format is chosen by the extension of path.
func Decode(path string, data []byte) (*File, error) {
	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &f); err != nil {
			perr := &ParseError{Path: path, Message: err.Error(), Err: err}
			var de *toml.DecodeError
			if errors.As(err, &de) {
				perr.Line, perr.Column = de.Position()
			}
			return nil, perr
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, &ParseError{Path: path, Message: err.Error(), Err: err}
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return &f, nil
}

// ReadFile reads and decodes a config file.
func ReadFile(fsys FileSystem, path string) (*File, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Decode(path, data)
}

// Find returns the first default config file present in dir, or "" if none
// exists.
func Find(fsys FileSystem, dir string) string {
	for _, name := range DefaultFileNames {
		p := filepath.Join(dir, name)
		if info, err := fsys.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}
