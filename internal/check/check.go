// Package check validates a parsed schema: names, references and
// inheritance. It reports every problem it finds as a diagnostic and never
// stops early.
package check

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/glemin5011/typemeld/internal/ast"
	"github.com/glemin5011/typemeld/internal/diag"
	"github.com/glemin5011/typemeld/internal/langdef"
)

// Check diagnostic codes (E100-E199).
const (
	CodeDuplicateDecl     = "E101" // two declarations share a name
	CodeUnknownType       = "E102" // reference to an undeclared type
	CodeUnknownParent     = "E103" // extends target not declared
	CodeParentKind        = "E104" // struct extends non-struct, interface extends non-interface
	CodeInheritanceCycle  = "E105" // extends chain loops back
	CodeDuplicateMember   = "E106" // field, method, parameter or type parameter declared twice
	CodeConflictingMember = "E107" // inherited member redeclared with another type
	CodeInvalidIdentifier = "E108" // name is not a valid identifier
	CodeTypeArity         = "E109" // Array or Record with the wrong number of type arguments
	CodeGenericParent     = "E110" // extends names a generic declaration
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Options tunes the checker.
type Options struct {
	// Strict turns unknown type references into errors.
	Strict bool
}

type checker struct {
	schema *ast.Schema
	table  *langdef.Table
	opts   Options
	decls  map[string]ast.Decl
	diags  diag.List
}

// Check validates schema against the primitive table and returns all
// diagnostics sorted by position.
func Check(schema *ast.Schema, table *langdef.Table, opts Options) diag.List {
	c := &checker{
		schema: schema,
		table:  table,
		opts:   opts,
		decls:  make(map[string]ast.Decl, len(schema.Decls)),
	}

	for _, d := range schema.Decls {
		name := d.Name()
		if prev, dup := c.decls[name]; dup {
			c.report(d, "", diag.Errorf(CodeDuplicateDecl, d.Line(),
				"%s %s already declared at %s", d.Kind, name, position(prev)))
			continue
		}
		c.decls[name] = d
	}

	for _, d := range schema.Decls {
		c.checkIdent(d, "", d.Name(), d.Line())
		c.checkTypeParams(d)

		switch d.Kind {
		case ast.KindTypeAlias:
			c.checkType(d, "", d.Alias.Type, d.Alias.Line)
		case ast.KindStruct:
			c.checkStruct(d)
		case ast.KindInterface:
			c.checkInterface(d)
		case ast.KindFunction:
			c.checkParams(d, "", d.Function.Params, d.Function.Line)
			c.checkType(d, "", d.Function.Returns, d.Function.Line)
		}
	}

	c.checkCycles()

	c.diags.Sort()
	return c.diags
}

func (c *checker) report(d ast.Decl, member string, dg diag.Diagnostic) {
	dg.File = d.File
	dg.Decl = d.Name()
	dg.Field = member
	c.diags = append(c.diags, dg)
}

func (c *checker) checkIdent(d ast.Decl, member, name string, line int) {
	if !identPattern.MatchString(name) {
		c.report(d, member, diag.Errorf(CodeInvalidIdentifier, line, "invalid identifier %q", name))
	}
}

func (c *checker) checkTypeParams(d ast.Decl) {
	seen := make(map[string]bool)
	for _, p := range d.TypeParams() {
		c.checkIdent(d, "", p, d.Line())
		if seen[p] {
			c.report(d, "", diag.Errorf(CodeDuplicateMember, d.Line(), "duplicate type parameter %s", p))
		}
		seen[p] = true
	}
}

func (c *checker) checkStruct(d ast.Decl) {
	st := d.Struct
	seen := make(map[string]bool, len(st.Fields))
	for _, f := range st.Fields {
		c.checkIdent(d, f.Name, f.Name, f.Line)
		if seen[f.Name] {
			c.report(d, f.Name, diag.Errorf(CodeDuplicateMember, f.Line, "duplicate field %s", f.Name))
		}
		seen[f.Name] = true
		c.checkType(d, f.Name, f.Type, f.Line)
	}

	parent, ok := c.checkParent(d, st.Extends, ast.KindStruct)
	if !ok {
		return
	}
	inherited := make(map[string]ast.Field)
	for _, f := range c.schema.AllFields(parent.Struct) {
		inherited[f.Name] = f
	}
	for _, f := range st.Fields {
		base, ok := inherited[f.Name]
		if ok && !base.Type.Equal(f.Type) {
			c.report(d, f.Name, diag.Errorf(CodeConflictingMember, f.Line,
				"field %s redeclared as %s, inherited from %s as %s",
				f.Name, f.Type, parent.Name(), base.Type))
		}
	}
}

func (c *checker) checkInterface(d ast.Decl) {
	iface := d.Interface
	seen := make(map[string]bool, len(iface.Methods))
	for _, m := range iface.Methods {
		c.checkIdent(d, m.Name, m.Name, m.Line)
		if seen[m.Name] {
			c.report(d, m.Name, diag.Errorf(CodeDuplicateMember, m.Line, "duplicate method %s", m.Name))
		}
		seen[m.Name] = true
		c.checkParams(d, m.Name, m.Params, m.Line)
		c.checkType(d, m.Name, m.Returns, m.Line)
	}

	parent, ok := c.checkParent(d, iface.Extends, ast.KindInterface)
	if !ok {
		return
	}
	inherited := make(map[string]string)
	for _, anc := range c.interfaceAncestors(parent.Interface) {
		for _, m := range anc.Methods {
			if _, ok := inherited[m.Name]; !ok {
				inherited[m.Name] = ast.Signature(m.Params, m.Returns)
			}
		}
	}
	for _, m := range iface.Methods {
		base, ok := inherited[m.Name]
		if sig := ast.Signature(m.Params, m.Returns); ok && base != sig {
			c.report(d, m.Name, diag.Errorf(CodeConflictingMember, m.Line,
				"method %s redeclared as %s, inherited as %s", m.Name, sig, base))
		}
	}
}

// interfaceAncestors returns iface and the interfaces it extends, nearest
// first, stopping at a cycle or an unresolved parent.
func (c *checker) interfaceAncestors(iface *ast.Interface) []*ast.Interface {
	chain := []*ast.Interface{iface}
	seen := map[string]bool{iface.Name: true}
	for cur := iface; cur.Extends != ""; {
		d, ok := c.decls[cur.Extends]
		if !ok || d.Kind != ast.KindInterface || seen[d.Name()] {
			break
		}
		seen[d.Name()] = true
		chain = append(chain, d.Interface)
		cur = d.Interface
	}
	return chain
}

// checkParent resolves an extends clause. It returns the parent only when
// it exists and has the expected kind.
func (c *checker) checkParent(d ast.Decl, extends string, want ast.Kind) (ast.Decl, bool) {
	if extends == "" {
		return ast.Decl{}, false
	}
	parent, ok := c.decls[extends]
	if !ok {
		c.report(d, "", diag.Errorf(CodeUnknownParent, d.Line(),
			"%s %s extends undeclared %s", d.Kind, d.Name(), extends))
		return ast.Decl{}, false
	}
	if parent.Kind != want {
		c.report(d, "", diag.Errorf(CodeParentKind, d.Line(),
			"%s %s cannot extend %s %s", d.Kind, d.Name(), parent.Kind, extends))
		return ast.Decl{}, false
	}
	// extends has no syntax for type arguments.
	if params := parent.TypeParams(); len(params) > 0 {
		c.report(d, "", diag.Errorf(CodeGenericParent, d.Line(),
			"%s %s cannot extend generic %s %s<%s>: extends takes no type arguments",
			d.Kind, d.Name(), parent.Kind, extends, strings.Join(params, ", ")))
		return ast.Decl{}, false
	}
	return parent, true
}

func (c *checker) checkParams(d ast.Decl, member string, params []ast.Field, line int) {
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		c.checkIdent(d, member, p.Name, line)
		if seen[p.Name] {
			c.report(d, member, diag.Errorf(CodeDuplicateMember, line, "duplicate parameter %s", p.Name))
		}
		seen[p.Name] = true
		c.checkType(d, member, p.Type, line)
	}
}

// checkType validates every name referenced by ref.
func (c *checker) checkType(d ast.Decl, member string, ref *ast.TypeRef, line int) {
	params := make(map[string]bool)
	for _, p := range d.TypeParams() {
		params[p] = true
	}

	ref.Walk(func(t *ast.TypeRef) {
		switch t.Name {
		case ast.TypeArray:
			if len(t.Args) != 1 {
				c.report(d, member, diag.Errorf(CodeTypeArity, line,
					"Array takes one type argument, got %d", len(t.Args)))
			}
			return
		case ast.TypeRecord:
			switch {
			case len(t.Fields) > 0:
			case t.Fields == nil && len(t.Args) == 0:
				// Inline records always carry a (possibly empty) field list.
				c.report(d, member, diag.Errorf(CodeTypeArity, line,
					"Record takes two type arguments, got none"))
			case len(t.Args) != 0 && len(t.Args) != 2:
				c.report(d, member, diag.Errorf(CodeTypeArity, line,
					"Record takes two type arguments, got %d", len(t.Args)))
			}
			for _, f := range t.Fields {
				c.checkIdent(d, member, f.Name, line)
			}
			return
		}
		if params[t.Name] || c.table.IsPrimitive(t.Name) {
			return
		}
		if _, ok := c.decls[t.Name]; ok {
			return
		}

		dg := diag.Warnf(CodeUnknownType, line, "unknown type %s", t.Name)
		if c.opts.Strict {
			dg.Severity = diag.SeverityError
		}
		c.report(d, member, dg)
	})
}

func position(d ast.Decl) string {
	if d.File != "" {
		return fmt.Sprintf("%s:%d", d.File, d.Line())
	}
	return fmt.Sprintf("line %d", d.Line())
}
