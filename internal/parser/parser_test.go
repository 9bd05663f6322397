package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glemin5011/typemeld/internal/ast"
)

func parseOne(t *testing.T, src string) ast.Decl {
	t.Helper()
	schema, diags := Parse("test.tm", src)
	require.Empty(t, diags, "unexpected diagnostics: %v", diags)
	require.Len(t, schema.Decls, 1)
	return schema.Decls[0]
}

func TestParseStruct(t *testing.T) {
	d := parseOne(t, `
		struct Person {
			id: Int32
			name: String
		}
	`)

	require.Equal(t, ast.KindStruct, d.Kind)
	st := d.Struct
	assert.Equal(t, "Person", st.Name)
	assert.Equal(t, "test.tm", d.File)
	assert.Equal(t, 2, st.Line)
	require.Len(t, st.Fields, 2)
	assert.Equal(t, "id", st.Fields[0].Name)
	assert.Equal(t, "Int32", st.Fields[0].Type.Name)
	assert.False(t, st.Fields[0].Optional)
	assert.Equal(t, 3, st.Fields[0].Line)
	assert.Equal(t, "name", st.Fields[1].Name)
	assert.Equal(t, "String", st.Fields[1].Type.Name)
}

func TestParseStructWithInheritance(t *testing.T) {
	d := parseOne(t, `
		struct Engineer extends Person {
			specialty: String
			isWorking: Boolean
		}
	`)

	st := d.Struct
	assert.Equal(t, "Engineer", st.Name)
	assert.Equal(t, "Person", st.Extends)
	require.Len(t, st.Fields, 2)
	assert.Equal(t, "isWorking", st.Fields[1].Name)
	assert.Equal(t, "Boolean", st.Fields[1].Type.Name)
}

func TestParseGenericStruct(t *testing.T) {
	d := parseOne(t, `
		struct SomeThing<T> {
			property: T
			another: Void
		}
	`)

	st := d.Struct
	assert.Equal(t, "SomeThing", st.Name)
	assert.Equal(t, []string{"T"}, st.TypeParams)
	assert.Equal(t, "T", st.Fields[0].Type.Name)
	assert.True(t, st.Fields[1].Type.IsVoid())
}

func TestParseSingleLineStruct(t *testing.T) {
	d := parseOne(t, `struct Point { x: Int32, y: Int32 }`)

	require.Len(t, d.Struct.Fields, 2)
	assert.Equal(t, "y", d.Struct.Fields[1].Name)
}

func TestParseTrailingCommas(t *testing.T) {
	d := parseOne(t, `
		struct Person {
			id: Int32,
			tags: String[],
		}
	`)

	require.Len(t, d.Struct.Fields, 2)
	assert.True(t, d.Struct.Fields[1].Type.IsArray())
}

func TestParseInterface(t *testing.T) {
	d := parseOne(t, `
		interface Worker {
			work(hours: Int32): Void
			report(): String
		}
	`)

	require.Equal(t, ast.KindInterface, d.Kind)
	iface := d.Interface
	assert.Equal(t, "Worker", iface.Name)
	require.Len(t, iface.Methods, 2)
	assert.Equal(t, "work", iface.Methods[0].Name)
	require.Len(t, iface.Methods[0].Params, 1)
	assert.Equal(t, "hours", iface.Methods[0].Params[0].Name)
	assert.Equal(t, "Int32", iface.Methods[0].Params[0].Type.Name)
	assert.Equal(t, "Void", iface.Methods[0].Returns.Name)
	assert.Equal(t, "report", iface.Methods[1].Name)
	assert.Empty(t, iface.Methods[1].Params)
	assert.Equal(t, "String", iface.Methods[1].Returns.Name)
}

func TestParseInterfaceExtends(t *testing.T) {
	d := parseOne(t, `
		interface AdvancedWorker extends Worker {
			lead(teamSize: Int32): Void
		}
	`)

	assert.Equal(t, "Worker", d.Interface.Extends)
	assert.Equal(t, "lead", d.Interface.Methods[0].Name)
}

func TestParseMethodWithoutReturnTypeIsVoid(t *testing.T) {
	d := parseOne(t, `
		interface Closer {
			close()
		}
	`)

	assert.True(t, d.Interface.Methods[0].Returns.IsVoid())
}

func TestParseFunction(t *testing.T) {
	d := parseOne(t, "function hire(person: Person, position: String): Boolean")

	require.Equal(t, ast.KindFunction, d.Kind)
	fn := d.Function
	assert.Equal(t, "hire", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "person", fn.Params[0].Name)
	assert.Equal(t, "Person", fn.Params[0].Type.Name)
	assert.Equal(t, "position", fn.Params[1].Name)
	assert.Equal(t, "String", fn.Params[1].Type.Name)
	assert.Equal(t, "Boolean", fn.Returns.Name)
}

func TestParseGenericFunction(t *testing.T) {
	d := parseOne(t, "function fetchData<T>(url: String): ApiResponse<T>")

	fn := d.Function
	assert.Equal(t, "fetchData", fn.Name)
	assert.Equal(t, []string{"T"}, fn.TypeParams)
	require.Len(t, fn.Params, 1)
	assert.Equal(t, "url", fn.Params[0].Name)
	assert.Equal(t, "ApiResponse", fn.Returns.Name)
	require.Len(t, fn.Returns.Args, 1)
	assert.Equal(t, "T", fn.Returns.Args[0].Name)
}

func TestParseArrayTypes(t *testing.T) {
	d := parseOne(t, `
		struct Team {
			members: String[]
			projectIds: Int32[]
			boxes: Box<T>[]
		}
	`)

	fields := d.Struct.Fields
	assert.Equal(t, "Array", fields[0].Type.Name)
	assert.Equal(t, "String", fields[0].Type.Elem().Name)
	assert.Equal(t, "Int32", fields[1].Type.Elem().Name)
	assert.Equal(t, "Box<T>", fields[2].Type.Elem().String())
}

func TestParseRecordType(t *testing.T) {
	d := parseOne(t, `
		struct LogEntry {
			message: String
			timestamp: { seconds: Int32, nanos: Int32 }
		}
	`)

	fields := d.Struct.Fields
	require.Len(t, fields, 2)
	ts := fields[1].Type
	assert.Equal(t, "Record", ts.Name)
	assert.True(t, ts.IsObject())
	require.Len(t, ts.Fields, 2)
	assert.Equal(t, "seconds", ts.Fields[0].Name)
	assert.Equal(t, "Int32", ts.Fields[0].Type.Name)
	assert.Equal(t, "nanos", ts.Fields[1].Name)
}

func TestParseKeyValueRecord(t *testing.T) {
	d := parseOne(t, `
		struct Index {
			counts: Record<String, Int32>
		}
	`)

	ref := d.Struct.Fields[0].Type
	assert.True(t, ref.IsMap())
	assert.Equal(t, "String", ref.Args[0].Name)
	assert.Equal(t, "Int32", ref.Args[1].Name)
}

func TestParseTypeAlias(t *testing.T) {
	d := parseOne(t, "type KeyValue = { key: String, value: Int32 }")

	require.Equal(t, ast.KindTypeAlias, d.Kind)
	alias := d.Alias
	assert.Equal(t, "KeyValue", alias.Name)
	require.Len(t, alias.Type.Fields, 2)
	assert.Equal(t, "key", alias.Type.Fields[0].Name)
	assert.Equal(t, "String", alias.Type.Fields[0].Type.Name)
	assert.Equal(t, "value", alias.Type.Fields[1].Name)
	assert.Equal(t, "Int32", alias.Type.Fields[1].Type.Name)
}

func TestParseMultiLineTypeAlias(t *testing.T) {
	d := parseOne(t, `
		type KeyValue = {
			key: String,
			value: Int32
		}
	`)

	assert.Equal(t, "{ key: String, value: Int32 }", d.Alias.Type.String())
}

func TestParseOptionalFields(t *testing.T) {
	d := parseOne(t, `
		struct User {
			id: Int32
			name: String?
			age: Int32?
		}
	`)

	fields := d.Struct.Fields
	require.Len(t, fields, 3)
	assert.False(t, fields[0].Optional)
	assert.True(t, fields[1].Optional)
	assert.Equal(t, "String", fields[1].Type.Name)
	assert.True(t, fields[2].Optional)
	assert.Equal(t, "Int32", fields[2].Type.Name)
}

func TestParseKeepsSourceOrder(t *testing.T) {
	schema, diags := Parse("", `
		// workforce
		interface Worker {
			work(hours: Int32): Void
		}

		struct Engineer extends Person {
			specialty: String
		}

		function hire(person: Person, position: String): Boolean

		struct Person {
			id: Int32
		}

		type KeyValue = { key: String, value: Int32 }
	`)

	require.Empty(t, diags)
	names := make([]string, len(schema.Decls))
	for i, d := range schema.Decls {
		names[i] = d.Name()
	}
	assert.Equal(t, []string{"Worker", "Engineer", "hire", "Person", "KeyValue"}, names)
}

func TestParseInvalidSyntax(t *testing.T) {
	schema, diags := Parse("", "strct InvalidStruct { name: String }")

	assert.Empty(t, schema.Decls)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeUnrecognizedLine, diags[0].Code)
	assert.False(t, diags.HasErrors())
}

func TestParseEmptyInput(t *testing.T) {
	schema, diags := Parse("", "")

	assert.Empty(t, schema.Decls)
	assert.Empty(t, diags)
}

func TestParseCommentsOnly(t *testing.T) {
	schema, diags := Parse("", "// nothing here\n\n   // still nothing\n")

	assert.Empty(t, schema.Decls)
	assert.Empty(t, diags)
}

func TestParseMalformedFieldIsSkipped(t *testing.T) {
	schema, diags := Parse("people.tm", `
		struct Person {
			id: Int32
			this is not a field
			name: String
		}
	`)

	require.Len(t, schema.Decls, 1)
	assert.Len(t, schema.Decls[0].Struct.Fields, 2)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeMalformedField, diags[0].Code)
	assert.Equal(t, 4, diags[0].Line)
	assert.Equal(t, "people.tm", diags[0].File)
	assert.Equal(t, "Person", diags[0].Decl)
}

func TestParseMalformedMethodAndParam(t *testing.T) {
	schema, diags := Parse("", `
		interface Worker {
			work(hours Int32, rate: Double): Void
			not a method
		}
	`)

	require.Len(t, schema.Decls, 1)
	methods := schema.Decls[0].Interface.Methods
	require.Len(t, methods, 1)
	require.Len(t, methods[0].Params, 1)
	assert.Equal(t, "rate", methods[0].Params[0].Name)
	assert.Equal(t, []string{CodeMalformedParam, CodeMalformedMethod}, diags.Codes())
}

func TestParseUnterminatedBlock(t *testing.T) {
	schema, diags := Parse("", `
		struct Person {
			id: Int32
		struct Team {
			size: Int32
		}
	`)

	require.Len(t, schema.Decls, 2)
	assert.Equal(t, "Person", schema.Decls[0].Name())
	assert.Len(t, schema.Decls[0].Struct.Fields, 1)
	assert.Equal(t, "Team", schema.Decls[1].Name())
	require.Len(t, diags, 1)
	assert.Equal(t, CodeUnterminatedBlock, diags[0].Code)
	assert.True(t, diags.HasErrors())
}

func TestParseUnterminatedAtEOF(t *testing.T) {
	schema, diags := Parse("", "interface Worker {\n  work(): Void\n")

	require.Len(t, schema.Decls, 1)
	assert.Equal(t, []string{CodeUnterminatedBlock}, diags.Codes())
}

func TestParseUnterminatedRecordAlias(t *testing.T) {
	schema, diags := Parse("", `
type Pair = {
  key: String
  value: Int32
struct Person {
  id: Int32
}
function hire(person: Person): Boolean
`)

	require.Len(t, schema.Decls, 2)
	assert.Equal(t, "Person", schema.Decls[0].Name())
	assert.Len(t, schema.Decls[0].Struct.Fields, 1)
	assert.Equal(t, "hire", schema.Decls[1].Name())
	require.Len(t, diags, 1)
	assert.Equal(t, CodeUnterminatedBlock, diags[0].Code)
	assert.Equal(t, "Pair", diags[0].Decl)
	assert.Equal(t, 2, diags[0].Line)
}

func TestParseMalformedHeaders(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"struct without name", "struct {\n  id: Int32\n}"},
		{"function without parens", "function hire: Boolean"},
		{"type without equals", "type KeyValue { key: String }"},
		{"type with bad rhs", "type Broken = Box<"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, diags := Parse("", tt.src)
			assert.Empty(t, schema.Decls)
			require.NotEmpty(t, diags)
			assert.Equal(t, CodeMalformedHeader, diags[0].Code)
			assert.Len(t, diags, 1, "block body should be skipped: %v", diags)
		})
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "String", want: "String"},
		{in: " Int32 ", want: "Int32"},
		{in: "String[][]", want: "String[][]"},
		{in: "Record<String, Int32>", want: "Record<String, Int32>"},
		{in: "Record<String, Box<T>>", want: "Record<String, Box<T>>"},
		{in: "Pair<A, B>[]", want: "Pair<A, B>[]"},
		{in: "{ a: Int32, b: { c: String } }", want: "{ a: Int32, b: { c: String } }"},
		{in: "{ a: Int32? }", want: "{ a: Int32? }"},
		{in: "{}", want: "{}"},
		{in: "", wantErr: true},
		{in: "Box<", wantErr: true},
		{in: "<T>", wantErr: true},
		{in: "Box<>", wantErr: true},
		{in: "{ a: Int32", wantErr: true},
		{in: "two words", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestSplitTopLevel(t *testing.T) {
	assert.Equal(t,
		[]string{"a: Record<K, V>", "b: { x: Int32, y: Int32 }", "c: T"},
		splitTopLevel("a: Record<K, V>, b: { x: Int32, y: Int32 }, c: T,", ','))
	assert.Empty(t, splitTopLevel("  ", ','))
}
