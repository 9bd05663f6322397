package generator

import (
	"strings"

	"github.com/glemin5011/typemeld/internal/ast"
	"github.com/glemin5011/typemeld/internal/langdef"
)

// swift flattens struct inheritance: a struct that extends another carries
// every inherited field. Protocol inheritance is kept.
type swift struct {
	table *langdef.Table
}

func (g *swift) Language() string { return langdef.Swift }
func (g *swift) FileName() string { return "output.swift" }

func (g *swift) Generate(schema *ast.Schema) (*Output, error) {
	if err := checkSchema(g.Language(), schema); err != nil {
		return nil, err
	}

	w := newCodeWriter("  ")
	for _, d := range schema.Decls {
		w.block()
		switch d.Kind {
		case ast.KindTypeAlias:
			a := d.Alias
			if a.Type.IsObject() {
				g.writeStruct(w, a.Name, a.TypeParams, a.Type.Fields)
				continue
			}
			w.line(0, "typealias %s%s = %s", a.Name, typeParams("<", ">", a.TypeParams), g.typ(a.Type))
		case ast.KindStruct:
			g.writeStruct(w, d.Struct.Name, d.Struct.TypeParams, schema.AllFields(d.Struct))
		case ast.KindInterface:
			iface := d.Interface
			header := "protocol " + iface.Name
			if iface.Extends != "" {
				header += ": " + iface.Extends
			}
			if len(iface.Methods) == 0 && len(iface.TypeParams) == 0 {
				w.line(0, "%s {}", header)
				continue
			}
			w.line(0, "%s {", header)
			for _, p := range iface.TypeParams {
				w.line(1, "associatedtype %s", p)
			}
			for _, m := range iface.Methods {
				w.line(1, "func %s(%s) -> %s", swiftIdent(m.Name), g.params(m.Params), g.typ(m.Returns))
			}
			w.line(0, "}")
		case ast.KindFunction:
			fn := d.Function
			w.line(0, "func %s%s(%s) -> %s",
				swiftIdent(fn.Name), typeParams("<", ">", fn.TypeParams), g.params(fn.Params), g.typ(fn.Returns))
		}
	}

	return &Output{Language: g.Language(), Content: w.bytes()}, nil
}

func (g *swift) writeStruct(w *codeWriter, name string, params []string, fields []ast.Field) {
	header := "struct " + name + typeParams("<", ">", params)
	if len(fields) == 0 {
		w.line(0, "%s {}", header)
		return
	}
	w.line(0, "%s {", header)
	for _, f := range fields {
		w.line(1, "var %s", g.field(f))
	}
	w.line(0, "}")
}

func (g *swift) field(f ast.Field) string {
	s := swiftIdent(f.Name) + ": " + g.typ(f.Type)
	if f.Optional {
		s += "?"
	}
	return s
}

func (g *swift) params(params []ast.Field) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = g.field(p)
	}
	return strings.Join(parts, ", ")
}

func (g *swift) typ(t *ast.TypeRef) string {
	switch {
	case t.IsVoid():
		return g.table.Map(langdef.Swift, ast.TypeVoid)
	case t.IsArray():
		return "[" + g.typ(t.Elem()) + "]"
	case t.IsMap():
		return "[" + g.typ(t.Args[0]) + ": " + g.typ(t.Args[1]) + "]"
	case t.IsObject():
		// Inline records become named tuples.
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = g.field(f)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case len(t.Args) > 0:
		return g.table.Map(langdef.Swift, t.Name) + "<" + joinTypes(t.Args, g.typ) + ">"
	}
	return g.table.Map(langdef.Swift, t.Name)
}
