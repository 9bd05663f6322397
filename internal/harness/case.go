package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/glemin5011/typemeld/internal/generator"
)

// Case is a conformance case: a schema, the diagnostics it must produce and
// assertions over the generated outputs.
type Case struct {
	// Name uniquely identifies this case and prefixes its golden files.
	Name string `yaml:"name"`

	// Description explains what this case covers.
	Description string `yaml:"description"`

	// Source is the inline schema.
	Source string `yaml:"source,omitempty"`

	// File is a schema file, relative to the case file. Exactly one of
	// Source and File is set.
	File string `yaml:"file,omitempty"`

	// Targets lists the languages to generate. Empty means all.
	Targets []string `yaml:"targets,omitempty"`

	// Strict turns unknown type references into errors.
	Strict bool `yaml:"strict,omitempty"`

	// Expect lists the diagnostic codes the case must produce.
	Expect Expect `yaml:"expect"`

	// Assertions validate the generated outputs.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	path string
}

// Expect lists expected diagnostic codes. Order is irrelevant; repeated
// codes must repeat.
type Expect struct {
	Errors   []string `yaml:"errors,omitempty"`
	Warnings []string `yaml:"warnings,omitempty"`
}

// Assertion validates generated output.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Language selects the output (output_* assertions).
	Language string `yaml:"language,omitempty"`

	// Text is the expected substring (output_contains, output_excludes).
	Text string `yaml:"text,omitempty"`

	// Texts are substrings that must appear in order (output_order).
	Texts []string `yaml:"texts,omitempty"`

	// Count is the expected number of declarations (decl_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertOutputContains = "output_contains"
	AssertOutputExcludes = "output_excludes"
	AssertOutputOrder    = "output_order"
	AssertDeclCount      = "decl_count"
)

// Path returns the file the case was loaded from, if any.
func (c *Case) Path() string { return c.path }

// Languages returns the targets of the case, defaulting to every built-in
// language.
func (c *Case) Languages() []string {
	if len(c.Targets) == 0 {
		return generator.Languages()
	}
	return c.Targets
}

// LoadCase reads and parses a case YAML file. Unknown fields are rejected.
// A `file:` reference is read relative to the case file.
func LoadCase(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read case file: %w", err)
	}

	c, err := ParseCase(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.path = path

	if c.File != "" {
		src, err := os.ReadFile(filepath.Join(filepath.Dir(path), c.File))
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read schema: %w", path, err)
		}
		c.Source = string(src)
	}
	return c, nil
}

// ParseCase decodes and validates a case.
func ParseCase(data []byte) (*Case, error) {
	var c Case
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateCase(&c); err != nil {
		return nil, fmt.Errorf("invalid case: %w", err)
	}
	return &c, nil
}

// LoadCases loads every *.yaml case in dir, sorted by file name. Case
// names must be unique.
func LoadCases(dir string) ([]*Case, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	cases := make([]*Case, 0, len(paths))
	seen := make(map[string]string)
	for _, p := range paths {
		c, err := LoadCase(p)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[c.Name]; ok {
			return nil, fmt.Errorf("duplicate case name %q in %s and %s", c.Name, prev, p)
		}
		seen[c.Name] = p
		cases = append(cases, c)
	}
	return cases, nil
}

func validateCase(c *Case) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Description == "" {
		return fmt.Errorf("description is required")
	}
	if (c.Source == "") == (c.File == "") {
		return fmt.Errorf("exactly one of source and file is required")
	}

	known := generator.Languages()
	for i, l := range c.Targets {
		if !slices.Contains(known, l) {
			return fmt.Errorf("targets[%d]: unknown language %q", i, l)
		}
	}

	for i, a := range c.Assertions {
		if err := validateAssertion(i, a, c.Languages()); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion, languages []string) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertOutputContains, AssertOutputExcludes, AssertOutputOrder:
		if !slices.Contains(languages, a.Language) {
			return fmt.Errorf("assertions[%d]: language %q is not a target", index, a.Language)
		}
		if a.Type == AssertOutputOrder {
			if len(a.Texts) < 2 {
				return fmt.Errorf("assertions[%d]: texts needs at least two entries for %s", index, a.Type)
			}
		} else if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertDeclCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for decl_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
