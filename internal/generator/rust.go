package generator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/glemin5011/typemeld/internal/ast"
	"github.com/glemin5011/typemeld/internal/langdef"
)

// rust flattens struct inheritance like swift and hoists inline records
// into named structs, since Rust has no anonymous struct types.
type rust struct {
	table *langdef.Table
}

func (g *rust) Language() string { return langdef.Rust }
func (g *rust) FileName() string { return "output.rs" }

// rustEmitter carries per-run state: names already taken and the structs
// hoisted while rendering the current declaration.
type rustEmitter struct {
	table   *langdef.Table
	taken   map[string]bool
	pending [][]string
}

func (g *rust) Generate(schema *ast.Schema) (*Output, error) {
	if err := checkSchema(g.Language(), schema); err != nil {
		return nil, err
	}

	e := &rustEmitter{table: g.table, taken: make(map[string]bool)}
	for _, d := range schema.Decls {
		e.taken[d.Name()] = true
	}

	w := newCodeWriter("  ")
	for _, d := range schema.Decls {
		lines := e.decl(schema, d)
		for _, hoisted := range e.pending {
			w.block()
			for _, l := range hoisted {
				w.line(0, "%s", l)
			}
		}
		e.pending = nil

		w.block()
		for _, l := range lines {
			w.line(0, "%s", l)
		}
	}

	return &Output{Language: g.Language(), Content: w.bytes()}, nil
}

func (e *rustEmitter) decl(schema *ast.Schema, d ast.Decl) []string {
	params := d.TypeParams()
	switch d.Kind {
	case ast.KindTypeAlias:
		a := d.Alias
		if a.Type.IsObject() {
			return e.structLines(a.Name, params, a.Type.Fields, params)
		}
		return []string{fmt.Sprintf("type %s%s = %s;",
			a.Name, typeParams("<", ">", params), e.typ(a.Name, params, a.Type))}
	case ast.KindStruct:
		return e.structLines(d.Struct.Name, params, schema.AllFields(d.Struct), params)
	case ast.KindInterface:
		iface := d.Interface
		header := "trait " + iface.Name + typeParams("<", ">", params)
		if iface.Extends != "" {
			header += ": " + iface.Extends
		}
		if len(iface.Methods) == 0 {
			return []string{header + " {}"}
		}
		lines := []string{header + " {"}
		for _, m := range iface.Methods {
			ctx := iface.Name + titleCase(m.Name)
			lines = append(lines, fmt.Sprintf("  fn %s(%s) -> %s;",
				rustIdent(m.Name), e.params(ctx, params, m.Params), e.typ(ctx+"Result", params, m.Returns)))
		}
		return append(lines, "}")
	case ast.KindFunction:
		fn := d.Function
		ctx := titleCase(fn.Name)
		return []string{fmt.Sprintf("fn %s%s(%s) -> %s;",
			rustIdent(fn.Name), typeParams("<", ">", params),
			e.params(ctx, params, fn.Params), e.typ(ctx+"Result", params, fn.Returns))}
	}
	return nil
}

// structLines renders a struct. declParams are the generic parameters in
// scope for nested inline records.
func (e *rustEmitter) structLines(name string, params []string, fields []ast.Field, declParams []string) []string {
	header := "struct " + name + typeParams("<", ">", params)
	if len(fields) == 0 {
		return []string{header + " {}"}
	}
	lines := []string{header + " {"}
	for _, f := range fields {
		lines = append(lines, fmt.Sprintf("  %s: %s,",
			rustIdent(f.Name), e.field(name+titleCase(f.Name), declParams, f)))
	}
	return append(lines, "}")
}

func (e *rustEmitter) field(ctx string, declParams []string, f ast.Field) string {
	t := e.typ(ctx, declParams, f.Type)
	if f.Optional {
		return "Option<" + t + ">"
	}
	return t
}

func (e *rustEmitter) params(ctx string, declParams []string, params []ast.Field) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = rustIdent(p.Name) + ": " + e.field(ctx+titleCase(p.Name), declParams, p)
	}
	return strings.Join(parts, ", ")
}

// typ renders t. ctx names the struct an inline record at this position is
// hoisted into.
func (e *rustEmitter) typ(ctx string, declParams []string, t *ast.TypeRef) string {
	switch {
	case t.IsVoid():
		return e.table.Map(langdef.Rust, ast.TypeVoid)
	case t.IsArray():
		return "Vec<" + e.typ(ctx, declParams, t.Elem()) + ">"
	case t.IsMap():
		return "std::collections::HashMap<" + e.typ(ctx+"Key", declParams, t.Args[0]) + ", " +
			e.typ(ctx, declParams, t.Args[1]) + ">"
	case t.IsObject():
		return e.hoist(ctx, declParams, t)
	case len(t.Args) > 0:
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = e.typ(ctx, declParams, a)
		}
		return e.table.Map(langdef.Rust, t.Name) + "<" + strings.Join(args, ", ") + ">"
	}
	return e.table.Map(langdef.Rust, t.Name)
}

// hoist emits an inline record as a named struct and returns a reference
// to it. Generic parameters the record uses are carried over.
func (e *rustEmitter) hoist(ctx string, declParams []string, t *ast.TypeRef) string {
	name := ctx
	for i := 2; e.taken[name]; i++ {
		name = fmt.Sprintf("%s%d", ctx, i)
	}
	e.taken[name] = true

	used := usedParams(t, declParams)
	lines := e.structLines(name, used, t.Fields, declParams)
	e.pending = append(e.pending, lines)
	return name + typeParams("<", ">", used)
}

// usedParams returns the members of params referenced inside t, in
// declaration order.
func usedParams(t *ast.TypeRef, params []string) []string {
	var used []string
	t.Walk(func(r *ast.TypeRef) {
		if len(r.Args) == 0 && len(r.Fields) == 0 && slices.Contains(params, r.Name) && !slices.Contains(used, r.Name) {
			used = append(used, r.Name)
		}
	})
	slices.SortStableFunc(used, func(a, b string) int {
		return slices.Index(params, a) - slices.Index(params, b)
	})
	return used
}
