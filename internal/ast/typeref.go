package ast

import "strings"

// Named returns a reference to a named type with optional generic arguments.
func Named(name string, args ...*TypeRef) *TypeRef {
	return &TypeRef{Name: name, Args: args}
}

// ArrayOf returns a reference to an array of elem.
func ArrayOf(elem *TypeRef) *TypeRef {
	return &TypeRef{Name: TypeArray, Args: []*TypeRef{elem}}
}

// MapOf returns a reference to Record<key, value>.
func MapOf(key, value *TypeRef) *TypeRef {
	return &TypeRef{Name: TypeRecord, Args: []*TypeRef{key, value}}
}

// Object returns an inline record type.
func Object(fields ...Field) *TypeRef {
	return &TypeRef{Name: TypeRecord, Fields: fields}
}

// IsArray reports whether t is T[].
func (t *TypeRef) IsArray() bool {
	return t != nil && t.Name == TypeArray && len(t.Args) == 1
}

// IsMap reports whether t is Record<K, V>.
func (t *TypeRef) IsMap() bool {
	return t != nil && t.Name == TypeRecord && len(t.Args) == 2
}

// IsObject reports whether t is an inline record { ... }.
func (t *TypeRef) IsObject() bool {
	return t != nil && t.Name == TypeRecord && len(t.Args) == 0
}

// IsVoid reports whether t is the unit type. A nil reference is Void.
func (t *TypeRef) IsVoid() bool {
	return t == nil || (t.Name == TypeVoid && len(t.Args) == 0)
}

// Elem returns the element type of an array, or nil.
func (t *TypeRef) Elem() *TypeRef {
	if !t.IsArray() {
		return nil
	}
	return t.Args[0]
}

// String renders t in DSL syntax.
func (t *TypeRef) String() string {
	if t == nil {
		return TypeVoid
	}
	switch {
	case t.IsArray():
		return t.Args[0].String() + "[]"
	case t.IsObject():
		if len(t.Fields) == 0 {
			return "{}"
		}
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = f.String()
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case len(t.Args) > 0:
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = a.String()
		}
		return t.Name + "<" + strings.Join(args, ", ") + ">"
	}
	return t.Name
}

// Equal reports whether two references denote the same type.
func (t *TypeRef) Equal(o *TypeRef) bool {
	return t.String() == o.String()
}

// Walk calls fn for t and every type nested inside it, depth first.
func (t *TypeRef) Walk(fn func(*TypeRef)) {
	if t == nil {
		return
	}
	fn(t)
	for _, a := range t.Args {
		a.Walk(fn)
	}
	for _, f := range t.Fields {
		f.Type.Walk(fn)
	}
}

// String renders a field as `name: Type` with a trailing `?` when optional.
func (f Field) String() string {
	s := f.Name + ": " + f.Type.String()
	if f.Optional {
		s += "?"
	}
	return s
}

// Signature renders a parameter list and return type, e.g. `(a: Int32): Void`.
func Signature(params []Field, returns *TypeRef) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ", ") + "): " + returns.String()
}
