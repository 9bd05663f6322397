// Package generator renders a checked schema as type declarations for the
// supported target languages.
//
// Every generator keeps declaration order, separates declarations with one
// blank line and starts its output with Header. Names that are not
// primitives are passed through unchanged, so references to declared or
// external types survive as written.
package generator

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/glemin5011/typemeld/internal/ast"
	"github.com/glemin5011/typemeld/internal/diag"
	"github.com/glemin5011/typemeld/internal/langdef"
)

// Header is the first line of every generated file.
const Header = "// Code generated by typemeld. DO NOT EDIT."

// Generator diagnostic codes (W200-W299).
const (
	CodeFormatFailed = "W201" // Go output could not be gofmt'ed
	CodeNameClash    = "W202" // two members export to the same Go name
)

// DefaultGoPackage is the package clause used when none is configured.
const DefaultGoPackage = "typemeld"

// Generator renders a schema for one target language.
type Generator interface {
	// Language returns the target identifier, e.g. "rust".
	Language() string
	// FileName returns the default output file name.
	FileName() string
	// Generate renders schema. Recoverable problems are returned as
	// diagnostics on the output.
	Generate(schema *ast.Schema) (*Output, error)
}

// Output is the rendered form of a schema.
type Output struct {
	Language    string
	Content     []byte
	Diagnostics diag.List
}

// Options configures generators.
type Options struct {
	// GoPackage is the package clause of Go output.
	GoPackage string
}

// Languages returns the built-in targets in their canonical order.
func Languages() []string {
	return []string{langdef.TypeScript, langdef.Swift, langdef.Rust, langdef.Go}
}

// New returns the generator for lang.
func New(lang string, table *langdef.Table, opts Options) (Generator, error) {
	if table == nil {
		return nil, fmt.Errorf("generator %s: nil primitive table", lang)
	}
	switch lang {
	case langdef.TypeScript:
		return &typeScript{table: table}, nil
	case langdef.Swift:
		return &swift{table: table}, nil
	case langdef.Rust:
		return &rust{table: table}, nil
	case langdef.Go:
		pkg := opts.GoPackage
		if pkg == "" {
			pkg = DefaultGoPackage
		}
		return &golang{table: table, pkg: pkg}, nil
	}
	return nil, fmt.Errorf("unknown target language %q (supported: %s)",
		lang, strings.Join(Languages(), ", "))
}

// codeWriter accumulates generated source. Each block is preceded by a
// blank line, so the output is header, blank, block, blank, block.
type codeWriter struct {
	buf    bytes.Buffer
	indent string
}

func newCodeWriter(indent string) *codeWriter {
	w := &codeWriter{indent: indent}
	w.buf.WriteString(Header)
	w.buf.WriteByte('\n')
	return w
}

func (w *codeWriter) block() {
	w.buf.WriteByte('\n')
}

func (w *codeWriter) line(depth int, format string, args ...any) {
	w.buf.WriteString(strings.Repeat(w.indent, depth))
	fmt.Fprintf(&w.buf, format, args...)
	w.buf.WriteByte('\n')
}

func (w *codeWriter) bytes() []byte {
	return w.buf.Bytes()
}

func checkSchema(lang string, schema *ast.Schema) error {
	if schema == nil {
		return fmt.Errorf("generate %s: nil schema", lang)
	}
	for i, d := range schema.Decls {
		if d.Name() == "" {
			return fmt.Errorf("generate %s: declaration %d has no %s body", lang, i, d.Kind)
		}
	}
	return nil
}

func typeParams(left, right string, params []string) string {
	if len(params) == 0 {
		return ""
	}
	return left + strings.Join(params, ", ") + right
}

func joinTypes(refs []*ast.TypeRef, render func(*ast.TypeRef) string) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = render(r)
	}
	return strings.Join(parts, ", ")
}
