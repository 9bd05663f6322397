package diff

import (
	"fmt"
	"strings"

	"github.com/glemin5011/typemeld/internal/ast"
)

// Compare computes the changes that turn base into head.
//
// Changes are ordered by head declaration order, members in head order
// with removals last, followed by declarations removed from base in base
// order. Struct fields are compared as declared; inherited fields show up
// on the parent.
func Compare(base, head *ast.Schema) *SchemaDiff {
	if base == nil {
		base = &ast.Schema{}
	}
	if head == nil {
		head = &ast.Schema{}
	}

	d := &SchemaDiff{Changes: []Change{}}
	baseDecls := index(base)
	headDecls := index(head)

	for _, h := range head.Decls {
		name := h.Name()
		if _, dup := headDecls[name]; !dup {
			continue
		}
		delete(headDecls, name) // first declaration wins

		b, ok := baseDecls[name]
		if !ok {
			d.Changes = append(d.Changes, Change{
				Kind:   KindDecl,
				Decl:   name,
				Action: ActionAdded,
				After:  Header(h),
			})
			continue
		}
		d.Changes = append(d.Changes, compareDecl(b, h)...)
	}

	headNames := index(head)
	seen := make(map[string]bool)
	for _, b := range base.Decls {
		name := b.Name()
		if _, ok := headNames[name]; ok || seen[name] {
			continue
		}
		seen[name] = true
		d.Changes = append(d.Changes, Change{
			Kind:     KindDecl,
			Decl:     name,
			Action:   ActionRemoved,
			Before:   Header(b),
			Breaking: true,
		})
	}

	d.ComputeSummary()
	return d
}

func index(s *ast.Schema) map[string]ast.Decl {
	m := make(map[string]ast.Decl, len(s.Decls))
	for _, d := range s.Decls {
		if _, ok := m[d.Name()]; !ok {
			m[d.Name()] = d
		}
	}
	return m
}

func compareDecl(b, h ast.Decl) []Change {
	name := h.Name()
	if b.Kind != h.Kind {
		return []Change{{
			Kind:     KindDecl,
			Decl:     name,
			Action:   ActionModified,
			Before:   Header(b),
			After:    Header(h),
			Breaking: true,
		}}
	}

	var changes []Change
	if bp, hp := typeParamList(b.TypeParams()), typeParamList(h.TypeParams()); bp != hp {
		changes = append(changes, modified(KindTypeParams, name, "", bp, hp))
	}

	switch h.Kind {
	case ast.KindTypeAlias:
		if bt, ht := b.Alias.Type.String(), h.Alias.Type.String(); bt != ht {
			changes = append(changes, modified(KindAliasType, name, "", bt, ht))
		}
	case ast.KindStruct:
		if b.Struct.Extends != h.Struct.Extends {
			changes = append(changes, modified(KindExtends, name, "", b.Struct.Extends, h.Struct.Extends))
		}
		changes = append(changes, compareFields(name, b.Struct.Fields, h.Struct.Fields)...)
	case ast.KindInterface:
		if b.Interface.Extends != h.Interface.Extends {
			changes = append(changes, modified(KindExtends, name, "", b.Interface.Extends, h.Interface.Extends))
		}
		changes = append(changes, compareMethods(name, b.Interface.Methods, h.Interface.Methods)...)
	case ast.KindFunction:
		bs := ast.Signature(b.Function.Params, b.Function.Returns)
		hs := ast.Signature(h.Function.Params, h.Function.Returns)
		if bs != hs {
			changes = append(changes, modified(KindSignature, name, "", bs, hs))
		}
	}
	return changes
}

func modified(kind ChangeKind, decl, member, before, after string) Change {
	return Change{
		Kind:     kind,
		Decl:     decl,
		Member:   member,
		Action:   ActionModified,
		Before:   before,
		After:    after,
		Breaking: true,
	}
}

func compareFields(decl string, base, head []ast.Field) []Change {
	baseByName := make(map[string]ast.Field, len(base))
	for _, f := range base {
		baseByName[f.Name] = f
	}
	headByName := make(map[string]bool, len(head))

	var changes []Change
	for _, h := range head {
		headByName[h.Name] = true
		b, ok := baseByName[h.Name]
		if !ok {
			changes = append(changes, Change{
				Kind:     KindField,
				Decl:     decl,
				Member:   h.Name,
				Action:   ActionAdded,
				After:    fieldType(h),
				Breaking: !h.Optional,
			})
			continue
		}
		typeChanged := !b.Type.Equal(h.Type)
		if typeChanged || b.Optional != h.Optional {
			changes = append(changes, Change{
				Kind:   KindField,
				Decl:   decl,
				Member: h.Name,
				Action: ActionModified,
				Before: fieldType(b),
				After:  fieldType(h),
				// Relaxing a required field to optional keeps existing
				// values valid.
				Breaking: typeChanged || !h.Optional,
			})
		}
	}

	for _, b := range base {
		if !headByName[b.Name] {
			changes = append(changes, Change{
				Kind:     KindField,
				Decl:     decl,
				Member:   b.Name,
				Action:   ActionRemoved,
				Before:   fieldType(b),
				Breaking: true,
			})
		}
	}
	return changes
}

func compareMethods(decl string, base, head []ast.Method) []Change {
	baseByName := make(map[string]ast.Method, len(base))
	for _, m := range base {
		baseByName[m.Name] = m
	}
	headByName := make(map[string]bool, len(head))

	var changes []Change
	for _, h := range head {
		headByName[h.Name] = true
		hs := ast.Signature(h.Params, h.Returns)
		b, ok := baseByName[h.Name]
		if !ok {
			// Implementations of the interface must add the method.
			changes = append(changes, Change{
				Kind:     KindMethod,
				Decl:     decl,
				Member:   h.Name,
				Action:   ActionAdded,
				After:    hs,
				Breaking: true,
			})
			continue
		}
		if bs := ast.Signature(b.Params, b.Returns); bs != hs {
			changes = append(changes, modified(KindMethod, decl, h.Name, bs, hs))
		}
	}

	for _, b := range base {
		if !headByName[b.Name] {
			changes = append(changes, Change{
				Kind:     KindMethod,
				Decl:     decl,
				Member:   b.Name,
				Action:   ActionRemoved,
				Before:   ast.Signature(b.Params, b.Returns),
				Breaking: true,
			})
		}
	}
	return changes
}

func fieldType(f ast.Field) string {
	if f.Optional {
		return f.Type.String() + "?"
	}
	return f.Type.String()
}

func typeParamList(params []string) string {
	if len(params) == 0 {
		return ""
	}
	return "<" + strings.Join(params, ", ") + ">"
}

// Header renders the DSL header of a declaration, e.g.
// "struct Engineer extends Person" or "function hire(p: Person): Boolean".
func Header(d ast.Decl) string {
	name := d.Name() + typeParamList(d.TypeParams())
	switch d.Kind {
	case ast.KindTypeAlias:
		return fmt.Sprintf("type %s = %s", name, d.Alias.Type)
	case ast.KindStruct:
		if d.Struct.Extends != "" {
			return fmt.Sprintf("struct %s extends %s", name, d.Struct.Extends)
		}
		return "struct " + name
	case ast.KindInterface:
		if d.Interface.Extends != "" {
			return fmt.Sprintf("interface %s extends %s", name, d.Interface.Extends)
		}
		return "interface " + name
	case ast.KindFunction:
		return "function " + name + ast.Signature(d.Function.Params, d.Function.Returns)
	}
	return string(d.Kind) + " " + name
}
