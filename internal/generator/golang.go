package generator

import (
	"fmt"
	"go/format"
	"strings"

	"github.com/glemin5011/typemeld/internal/ast"
	"github.com/glemin5011/typemeld/internal/diag"
	"github.com/glemin5011/typemeld/internal/langdef"
)

// golang embeds parent structs and interfaces instead of flattening them.
// Declared names are exported; JSON tags keep the DSL spelling.
type golang struct {
	table *langdef.Table
	pkg   string
}

func (g *golang) Language() string { return langdef.Go }
func (g *golang) FileName() string { return "output.go" }

func (g *golang) Generate(schema *ast.Schema) (*Output, error) {
	if err := checkSchema(g.Language(), schema); err != nil {
		return nil, err
	}

	declared := make(map[string]bool, len(schema.Decls))
	for _, d := range schema.Decls {
		declared[d.Name()] = true
	}
	r := &goRenderer{table: g.table, declared: declared}

	w := newCodeWriter("\t")
	w.block()
	w.line(0, "package %s", g.pkg)
	for _, d := range schema.Decls {
		w.block()
		r.decl(w, d)
	}

	out := &Output{Language: g.Language(), Diagnostics: r.diags}
	src := w.bytes()
	formatted, err := format.Source(src)
	if err != nil {
		out.Content = src
		out.Diagnostics = append(out.Diagnostics, diag.Warnf(CodeFormatFailed, 0, "gofmt: %v", err))
		return out, nil
	}
	out.Content = formatted
	return out, nil
}

type goRenderer struct {
	table    *langdef.Table
	declared map[string]bool

	current string // declaration being rendered
	diags   diag.List
}

func (r *goRenderer) decl(w *codeWriter, d ast.Decl) {
	r.current = d.Name()
	params := goTypeParams(d.TypeParams())
	switch d.Kind {
	case ast.KindTypeAlias:
		a := d.Alias
		if a.Type.IsObject() {
			r.writeStruct(w, exportedName(a.Name)+params, "", a.Type.Fields)
			return
		}
		w.line(0, "type %s%s = %s", exportedName(a.Name), params, r.typ(a.Type))
	case ast.KindStruct:
		st := d.Struct
		r.writeStruct(w, exportedName(st.Name)+params, st.Extends, st.Fields)
	case ast.KindInterface:
		iface := d.Interface
		w.line(0, "type %s%s interface {", exportedName(iface.Name), params)
		if iface.Extends != "" {
			w.line(1, "%s", exportedName(iface.Extends))
		}
		members := make([]member, len(iface.Methods))
		for i, m := range iface.Methods {
			members[i] = member{name: m.Name, line: m.Line}
		}
		names := r.memberNames(members, "")
		for i, m := range iface.Methods {
			w.line(1, "%s(%s)%s", names[i], r.params(m.Params), r.results(m.Returns))
		}
		w.line(0, "}")
	case ast.KindFunction:
		fn := d.Function
		w.line(0, "type %sFunc%s func(%s)%s",
			exportedName(fn.Name), params, r.params(fn.Params), r.results(fn.Returns))
	}
}

func (r *goRenderer) writeStruct(w *codeWriter, name, embed string, fields []ast.Field) {
	w.line(0, "type %s struct {", name)
	if embed != "" {
		embed = exportedName(embed)
		w.line(1, "%s", embed)
	}
	for _, f := range r.fields(fields, embed) {
		w.line(1, "%s", f)
	}
	w.line(0, "}")
}

// fields renders struct fields with unique exported names. taken is a name
// already in use, such as an embedded parent.
func (r *goRenderer) fields(fields []ast.Field, taken string) []string {
	members := make([]member, len(fields))
	for i, f := range fields {
		members[i] = member{name: f.Name, line: f.Line}
	}
	names := r.memberNames(members, taken)

	out := make([]string, len(fields))
	for i, f := range fields {
		tag := f.Name
		if f.Optional {
			tag += ",omitempty"
		}
		out[i] = fmt.Sprintf("%s %s `json:%q`", names[i], r.fieldType(f), tag)
	}
	return out
}

type member struct {
	name string
	line int
}

// memberNames exports every member name. A name that is already taken,
// as with id and ID, gets underscores appended and a W202 warning.
func (r *goRenderer) memberNames(members []member, taken string) []string {
	used := make(map[string]bool, len(members)+1)
	if taken != "" {
		used[taken] = true
	}
	names := make([]string, len(members))
	for i, m := range members {
		want := exportedName(m.name)
		name := want
		for used[name] {
			name += "_"
		}
		if name != want {
			dg := diag.Warnf(CodeNameClash, m.line,
				"%s exports as %s, which is already taken; renamed to %s", m.name, want, name)
			dg.Decl = r.current
			dg.Field = m.name
			r.diags = append(r.diags, dg)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// fieldType renders optional values as pointers. Slices and maps already
// have a nil state and stay as they are.
func (r *goRenderer) fieldType(f ast.Field) string {
	t := r.typ(f.Type)
	if f.Optional && !f.Type.IsArray() && !f.Type.IsMap() {
		return "*" + t
	}
	return t
}

func (r *goRenderer) params(params []ast.Field) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = goParamName(p.Name) + " " + r.fieldType(p)
	}
	return strings.Join(parts, ", ")
}

func (r *goRenderer) results(t *ast.TypeRef) string {
	if t.IsVoid() {
		return ""
	}
	return " " + r.typ(t)
}

func (r *goRenderer) typ(t *ast.TypeRef) string {
	switch {
	case t.IsVoid():
		return r.table.Map(langdef.Go, ast.TypeVoid)
	case t.IsArray():
		return "[]" + r.typ(t.Elem())
	case t.IsMap():
		return "map[" + r.typ(t.Args[0]) + "]" + r.typ(t.Args[1])
	case t.IsObject():
		parts := r.fields(t.Fields, "")
		if len(parts) == 0 {
			return "struct{}"
		}
		return "struct {\n" + strings.Join(parts, "\n") + "\n}"
	}

	name := r.table.Map(langdef.Go, t.Name)
	if r.declared[t.Name] {
		name = exportedName(t.Name)
	}
	if len(t.Args) > 0 {
		return name + "[" + joinTypes(t.Args, r.typ) + "]"
	}
	return name
}

func goTypeParams(params []string) string {
	if len(params) == 0 {
		return ""
	}
	return "[" + strings.Join(params, ", ") + " any]"
}
