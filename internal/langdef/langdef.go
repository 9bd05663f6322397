// Package langdef holds the primitive type table shared by the checker and
// the code generators.
package langdef

import (
	"bytes"
	_ "embed"
	"fmt"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"
)

// Target language identifiers.
const (
	TypeScript = "typescript"
	Swift      = "swift"
	Rust       = "rust"
	Go         = "go"
)

//go:embed primitives.yaml
var builtin []byte

type tableFile struct {
	Languages  []string                     `yaml:"languages"`
	Primitives map[string]map[string]string `yaml:"primitives"`
}

// Table maps DSL primitive names to per-language type spellings.
type Table struct {
	languages  []string
	primitives map[string]map[string]string
}

// Load returns the built-in primitive table.
func Load() (*Table, error) {
	return Parse(builtin)
}

// MustLoad is Load for package-level initialisation and tests.
func MustLoad() *Table {
	t, err := Load()
	if err != nil {
		panic(err)
	}
	return t
}

// Parse decodes a primitive table. Unknown keys are rejected and every
// mapping must name a declared language.
func Parse(data []byte) (*Table, error) {
	var f tableFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse primitive table: %w", err)
	}
	if len(f.Languages) == 0 {
		return nil, fmt.Errorf("primitive table declares no languages")
	}

	t := &Table{
		languages:  slices.Clone(f.Languages),
		primitives: make(map[string]map[string]string, len(f.Primitives)),
	}
	if err := t.Extend(f.Primitives); err != nil {
		return nil, err
	}
	return t, nil
}

// Extend merges overrides into the table. A new name becomes a primitive;
// an existing one has only the given languages replaced.
func (t *Table) Extend(overrides map[string]map[string]string) error {
	for _, name := range sortedKeys(overrides) {
		langs := overrides[name]
		for lang, spelling := range langs {
			if !slices.Contains(t.languages, lang) {
				return fmt.Errorf("primitive %s: unknown language %q", name, lang)
			}
			if spelling == "" {
				return fmt.Errorf("primitive %s: empty %s type", name, lang)
			}
		}
		m, ok := t.primitives[name]
		if !ok {
			m = make(map[string]string, len(langs))
			t.primitives[name] = m
		}
		for lang, spelling := range langs {
			m[lang] = spelling
		}
	}
	return nil
}

// Clone returns an independent copy, so config overrides never leak into
// other tables.
func (t *Table) Clone() *Table {
	c := &Table{
		languages:  slices.Clone(t.languages),
		primitives: make(map[string]map[string]string, len(t.primitives)),
	}
	for name, langs := range t.primitives {
		m := make(map[string]string, len(langs))
		for k, v := range langs {
			m[k] = v
		}
		c.primitives[name] = m
	}
	return c
}

// Lookup returns the spelling of primitive name in lang.
func (t *Table) Lookup(lang, name string) (string, bool) {
	langs, ok := t.primitives[name]
	if !ok {
		return "", false
	}
	s, ok := langs[lang]
	return s, ok
}

// Map is Lookup with pass-through: unknown names are returned unchanged.
func (t *Table) Map(lang, name string) string {
	if s, ok := t.Lookup(lang, name); ok {
		return s
	}
	return name
}

// IsPrimitive reports whether name is a primitive in the table.
func (t *Table) IsPrimitive(name string) bool {
	_, ok := t.primitives[name]
	return ok
}

// Names returns the primitive names, sorted.
func (t *Table) Names() []string {
	return sortedKeys(t.primitives)
}

// Languages returns the languages the table covers, in declaration order.
func (t *Table) Languages() []string {
	return slices.Clone(t.languages)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
