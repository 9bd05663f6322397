package ast

// Lookup returns the first declaration named name.
func (s *Schema) Lookup(name string) (Decl, bool) {
	for _, d := range s.Decls {
		if d.Name() == name {
			return d, true
		}
	}
	return Decl{}, false
}

// Merge appends the declarations of other to s.
func (s *Schema) Merge(other *Schema) {
	if other == nil {
		return
	}
	s.Decls = append(s.Decls, other.Decls...)
}

// Ancestors returns the chain of structs st extends, nearest parent first.
// The walk stops at a missing parent, a non-struct parent or a cycle.
func (s *Schema) Ancestors(st *Struct) []*Struct {
	var chain []*Struct
	seen := map[string]bool{st.Name: true}
	for cur := st; cur.Extends != ""; {
		d, ok := s.Lookup(cur.Extends)
		if !ok || d.Kind != KindStruct || seen[d.Struct.Name] {
			break
		}
		seen[d.Struct.Name] = true
		chain = append(chain, d.Struct)
		cur = d.Struct
	}
	return chain
}

// AllFields returns the fields of st including inherited ones. Fields of the
// root-most ancestor come first; a field redeclared further down the chain
// replaces the inherited one in place.
func (s *Schema) AllFields(st *Struct) []Field {
	ancestors := s.Ancestors(st)
	chain := make([]*Struct, 0, len(ancestors)+1)
	for i := len(ancestors) - 1; i >= 0; i-- {
		chain = append(chain, ancestors[i])
	}
	chain = append(chain, st)

	var fields []Field
	index := make(map[string]int)
	for _, cur := range chain {
		for _, f := range cur.Fields {
			if j, ok := index[f.Name]; ok {
				fields[j] = f
				continue
			}
			index[f.Name] = len(fields)
			fields = append(fields, f)
		}
	}
	return fields
}
