package ast

// Kind identifies a top-level declaration.
type Kind string

const (
	KindTypeAlias Kind = "type"
	KindStruct    Kind = "struct"
	KindInterface Kind = "interface"
	KindFunction  Kind = "function"
)

// Builtin type names with structural meaning.
const (
	TypeArray  = "Array"
	TypeRecord = "Record"
	TypeVoid   = "Void"
)

// TypeRef is a reference to a type as written in the DSL.
//
// Shapes:
//   - T[]            -> {Name: "Array", Args: [T]}
//   - Record<K, V>   -> {Name: "Record", Args: [K, V]}
//   - { a: T }       -> {Name: "Record", Fields: [a]}
//   - Name<A, B>     -> {Name: "Name", Args: [A, B]}
type TypeRef struct {
	Name   string     `json:"name"`
	Args   []*TypeRef `json:"args,omitempty"`
	Fields []Field    `json:"fields,omitempty"`
}

// Field is a named, typed member of a struct, inline record or parameter list.
type Field struct {
	Name     string   `json:"name"`
	Type     *TypeRef `json:"type"`
	Optional bool     `json:"optional,omitempty"`
	Line     int      `json:"-"`
}

// TypeAlias is a `type Name = ...` declaration.
type TypeAlias struct {
	Name       string   `json:"name"`
	TypeParams []string `json:"type_params,omitempty"`
	Type       *TypeRef `json:"type"`
	Line       int      `json:"-"`
}

// Struct is a record declaration, optionally extending another struct.
type Struct struct {
	Name       string   `json:"name"`
	TypeParams []string `json:"type_params,omitempty"`
	Extends    string   `json:"extends,omitempty"`
	Fields     []Field  `json:"fields"`
	Line       int      `json:"-"`
}

// Interface is a capability declaration: a named set of method signatures.
type Interface struct {
	Name       string   `json:"name"`
	TypeParams []string `json:"type_params,omitempty"`
	Extends    string   `json:"extends,omitempty"`
	Methods    []Method `json:"methods"`
	Line       int      `json:"-"`
}

// Method is a signature inside an interface.
type Method struct {
	Name    string   `json:"name"`
	Params  []Field  `json:"params"`
	Returns *TypeRef `json:"returns"`
	Line    int      `json:"-"`
}

// Function is a free function signature. Functions never carry bodies.
type Function struct {
	Name       string   `json:"name"`
	TypeParams []string `json:"type_params,omitempty"`
	Params     []Field  `json:"params"`
	Returns    *TypeRef `json:"returns"`
	Line       int      `json:"-"`
}

// Decl is a top-level declaration. Exactly one of the pointer fields is set,
// selected by Kind.
type Decl struct {
	Kind      Kind       `json:"kind"`
	Alias     *TypeAlias `json:"alias,omitempty"`
	Struct    *Struct    `json:"struct,omitempty"`
	Interface *Interface `json:"interface,omitempty"`
	Function  *Function  `json:"function,omitempty"`
	File      string     `json:"-"`
}

// Schema is an ordered list of declarations.
type Schema struct {
	Decls []Decl `json:"decls"`
}
