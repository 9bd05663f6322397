// Package config loads typemeld.yaml / typemeld.cue project files and
// validates them against an embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"cuelang.org/go/encoding/yaml"

	"github.com/glemin5011/typemeld/internal/build"
	"github.com/glemin5011/typemeld/internal/langdef"
	"github.com/glemin5011/typemeld/internal/plugin"
)

//go:embed schema.cue
var schemaSource string

// FileNames are the config files looked up in a project directory, in order.
var FileNames = []string{"typemeld.yaml", "typemeld.yml", "typemeld.cue"}

// DefaultOutDir is where generated files go unless configured.
const DefaultOutDir = "dist"

// DefaultLanguages are generated when no targets are configured.
var DefaultLanguages = []string{langdef.TypeScript, langdef.Swift, langdef.Rust}

// Config is a project configuration.
type Config struct {
	// Path is the file the config was loaded from, empty for defaults.
	Path string `json:"-"`

	Inputs     []string                     `json:"inputs,omitempty"`
	OutDir     string                       `json:"out_dir,omitempty"`
	Strict     bool                         `json:"strict,omitempty"`
	Store      string                       `json:"store,omitempty"`
	Targets    []build.Target               `json:"targets,omitempty"`
	Primitives map[string]map[string]string `json:"primitives,omitempty"`
	Plugins    []plugin.Plugin              `json:"plugins,omitempty"`
}

// Error is a config validation error with its source position.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	field := e.Field
	if field == "" {
		field = "config"
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), field, e.Message)
	}
	return fmt.Sprintf("%s: %s", field, e.Message)
}

// Default returns the configuration used without a config file.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Discover returns the first config file present in dir, or "" if none.
func Discover(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// LoadDir loads the config discovered in dir, or the defaults.
func LoadDir(dir string) (*Config, error) {
	path := Discover(dir)
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Load reads and validates a config file. The format follows the
// extension: .cue files are CUE, anything else YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	c.Path = path
	return c, nil
}

// Parse validates data against the config schema and decodes it.
func Parse(filename string, data []byte) (*Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Default(), nil
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("config schema: %w", err)
	}

	var v cue.Value
	if filepath.Ext(filename) == ".cue" {
		v = ctx.CompileBytes(data, cue.Filename(filename))
	} else {
		file, err := yaml.Extract(filename, data)
		if err != nil {
			return nil, formatCUEError(err, filename)
		}
		v = ctx.BuildFile(file)
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err, filename)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err, filename)
	}

	c := &Config{}
	if err := unified.Decode(c); err != nil {
		return nil, formatCUEError(err, filename)
	}
	c.applyDefaults()
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.OutDir == "" {
		c.OutDir = DefaultOutDir
	}
	if len(c.Targets) == 0 {
		c.Targets = build.Targets(DefaultLanguages...)
	}
	for i, p := range c.Plugins {
		if p.Name == "" {
			c.Plugins[i].Name = filepath.Base(p.Command)
		}
	}
}

// Languages returns the configured target languages in order.
func (c *Config) Languages() []string {
	langs := make([]string, len(c.Targets))
	for i, t := range c.Targets {
		langs[i] = t.Language
	}
	return langs
}

// Table returns the built-in primitive table extended with the configured
// primitives.
func (c *Config) Table() (*langdef.Table, error) {
	table, err := langdef.Load()
	if err != nil {
		return nil, err
	}
	if len(c.Primitives) > 0 {
		if err := table.Extend(c.Primitives); err != nil {
			return nil, fmt.Errorf("config primitives: %w", err)
		}
	}
	return table, nil
}

// formatCUEError converts the first CUE error into an *Error, preferring a
// position inside the config file over one in the schema.
func formatCUEError(err error, filename string) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	format, args := first.Msg()
	e := &Error{
		Field:   strings.Join(first.Path(), "."),
		Message: fmt.Sprintf(format, args...),
	}
	for _, pos := range errors.Positions(first) {
		if pos.Filename() == filename {
			e.Pos = pos
			break
		}
		if !e.Pos.IsValid() {
			e.Pos = pos
		}
	}
	return e
}
