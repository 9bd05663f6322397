package generator

import (
	"strings"

	"github.com/glemin5011/typemeld/internal/ast"
	"github.com/glemin5011/typemeld/internal/langdef"
)

type typeScript struct {
	table *langdef.Table
}

func (g *typeScript) Language() string { return langdef.TypeScript }
func (g *typeScript) FileName() string { return "output.ts" }

func (g *typeScript) Generate(schema *ast.Schema) (*Output, error) {
	if err := checkSchema(g.Language(), schema); err != nil {
		return nil, err
	}

	w := newCodeWriter("  ")
	for _, d := range schema.Decls {
		w.block()
		switch d.Kind {
		case ast.KindTypeAlias:
			a := d.Alias
			w.line(0, "export type %s%s = %s;", a.Name, typeParams("<", ">", a.TypeParams), g.typ(a.Type))
		case ast.KindStruct:
			st := d.Struct
			header := "export interface " + st.Name + typeParams("<", ">", st.TypeParams)
			if st.Extends != "" {
				header += " extends " + st.Extends
			}
			if len(st.Fields) == 0 {
				w.line(0, "%s {}", header)
				continue
			}
			w.line(0, "%s {", header)
			for _, f := range st.Fields {
				w.line(1, "%s;", g.field(f))
			}
			w.line(0, "}")
		case ast.KindInterface:
			iface := d.Interface
			header := "export interface " + iface.Name + typeParams("<", ">", iface.TypeParams)
			if iface.Extends != "" {
				header += " extends " + iface.Extends
			}
			if len(iface.Methods) == 0 {
				w.line(0, "%s {}", header)
				continue
			}
			w.line(0, "%s {", header)
			for _, m := range iface.Methods {
				w.line(1, "%s(%s): %s;", m.Name, g.params(m.Params), g.typ(m.Returns))
			}
			w.line(0, "}")
		case ast.KindFunction:
			fn := d.Function
			w.line(0, "export declare function %s%s(%s): %s;",
				fn.Name, typeParams("<", ">", fn.TypeParams), g.params(fn.Params), g.typ(fn.Returns))
		}
	}

	return &Output{Language: g.Language(), Content: w.bytes()}, nil
}

func (g *typeScript) field(f ast.Field) string {
	if f.Optional {
		return f.Name + "?: " + g.typ(f.Type)
	}
	return f.Name + ": " + g.typ(f.Type)
}

func (g *typeScript) params(params []ast.Field) string {
	parts := make([]string, len(params))
	for i, p := range params {
		p.Name = tsParamName(p.Name)
		parts[i] = g.field(p)
	}
	return strings.Join(parts, ", ")
}

func (g *typeScript) typ(t *ast.TypeRef) string {
	switch {
	case t.IsVoid():
		return g.table.Map(langdef.TypeScript, ast.TypeVoid)
	case t.IsArray():
		if t.Elem().IsObject() {
			return "Array<" + g.typ(t.Elem()) + ">"
		}
		return g.typ(t.Elem()) + "[]"
	case t.IsMap():
		return "Record<" + g.typ(t.Args[0]) + ", " + g.typ(t.Args[1]) + ">"
	case t.IsObject():
		if len(t.Fields) == 0 {
			return "{}"
		}
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = g.field(f)
		}
		return "{ " + strings.Join(parts, "; ") + " }"
	case len(t.Args) > 0:
		return g.table.Map(langdef.TypeScript, t.Name) + "<" + joinTypes(t.Args, g.typ) + ">"
	}
	return g.table.Map(langdef.TypeScript, t.Name)
}
