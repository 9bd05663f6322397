package ast

// NewAliasDecl wraps a type alias in a Decl.
func NewAliasDecl(a *TypeAlias) Decl { return Decl{Kind: KindTypeAlias, Alias: a} }

// NewStructDecl wraps a struct in a Decl.
func NewStructDecl(s *Struct) Decl { return Decl{Kind: KindStruct, Struct: s} }

// NewInterfaceDecl wraps an interface in a Decl.
func NewInterfaceDecl(i *Interface) Decl { return Decl{Kind: KindInterface, Interface: i} }

// NewFunctionDecl wraps a function in a Decl.
func NewFunctionDecl(f *Function) Decl { return Decl{Kind: KindFunction, Function: f} }

// Name returns the declared name.
func (d Decl) Name() string {
	switch d.Kind {
	case KindTypeAlias:
		if d.Alias != nil {
			return d.Alias.Name
		}
	case KindStruct:
		if d.Struct != nil {
			return d.Struct.Name
		}
	case KindInterface:
		if d.Interface != nil {
			return d.Interface.Name
		}
	case KindFunction:
		if d.Function != nil {
			return d.Function.Name
		}
	}
	return ""
}

// Line returns the source line of the declaration header, or 0 if unknown.
func (d Decl) Line() int {
	switch {
	case d.Alias != nil:
		return d.Alias.Line
	case d.Struct != nil:
		return d.Struct.Line
	case d.Interface != nil:
		return d.Interface.Line
	case d.Function != nil:
		return d.Function.Line
	}
	return 0
}

// TypeParams returns the generic parameters declared on d.
func (d Decl) TypeParams() []string {
	switch {
	case d.Alias != nil:
		return d.Alias.TypeParams
	case d.Struct != nil:
		return d.Struct.TypeParams
	case d.Interface != nil:
		return d.Interface.TypeParams
	case d.Function != nil:
		return d.Function.TypeParams
	}
	return nil
}
