package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glemin5011/typemeld/internal/ast"
	"github.com/glemin5011/typemeld/internal/diag"
	"github.com/glemin5011/typemeld/internal/langdef"
	"github.com/glemin5011/typemeld/internal/parser"
)

func generate(t *testing.T, lang, src string) string {
	t.Helper()
	schema, diags := parser.Parse("", src)
	require.Empty(t, diags)

	g, err := New(lang, langdef.MustLoad(), Options{})
	require.NoError(t, err)
	out, err := g.Generate(schema)
	require.NoError(t, err)
	require.Empty(t, out.Diagnostics)
	assert.Equal(t, lang, out.Language)
	return string(out.Content)
}

func body(s string) string {
	return strings.TrimPrefix(s, Header+"\n\n")
}

func TestNewUnknownLanguage(t *testing.T) {
	_, err := New("kotlin", langdef.MustLoad(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kotlin")
	assert.Contains(t, err.Error(), "typescript, swift, rust, go")
}

func TestGeneratorsMetadata(t *testing.T) {
	files := map[string]string{
		langdef.TypeScript: "output.ts",
		langdef.Swift:      "output.swift",
		langdef.Rust:       "output.rs",
		langdef.Go:         "output.go",
	}
	for _, lang := range Languages() {
		g, err := New(lang, langdef.MustLoad(), Options{})
		require.NoError(t, err)
		assert.Equal(t, lang, g.Language())
		assert.Equal(t, files[lang], g.FileName())
	}
}

func TestGenerateEmptySchema(t *testing.T) {
	for _, lang := range []string{langdef.TypeScript, langdef.Swift, langdef.Rust} {
		t.Run(lang, func(t *testing.T) {
			assert.Equal(t, Header+"\n", generate(t, lang, ""))
		})
	}
	t.Run(langdef.Go, func(t *testing.T) {
		assert.Equal(t, Header+"\n\npackage typemeld\n", generate(t, langdef.Go, ""))
	})
}

func TestGenerateRejectsNilSchema(t *testing.T) {
	for _, lang := range Languages() {
		g, err := New(lang, langdef.MustLoad(), Options{})
		require.NoError(t, err)
		_, err = g.Generate(nil)
		assert.Error(t, err, lang)
	}
}

func TestGenerateRejectsBrokenDecl(t *testing.T) {
	g, err := New(langdef.Rust, langdef.MustLoad(), Options{})
	require.NoError(t, err)
	_, err = g.Generate(&ast.Schema{Decls: []ast.Decl{{Kind: ast.KindStruct}}})
	assert.Error(t, err)
}

const inheritance = `
struct Person {
  id: Int32
  name: String?
}
struct Engineer extends Person {
  specialty: String
}
`

func TestTypeScriptKeepsExtends(t *testing.T) {
	got := body(generate(t, langdef.TypeScript, inheritance))
	assert.Equal(t, `export interface Person {
  id: number;
  name?: string;
}

export interface Engineer extends Person {
  specialty: string;
}
`, got)
}

func TestSwiftFlattensStructs(t *testing.T) {
	got := body(generate(t, langdef.Swift, inheritance))
	assert.Equal(t, `struct Person {
  var id: Int
  var name: String?
}

struct Engineer {
  var id: Int
  var name: String?
  var specialty: String
}
`, got)
}

func TestRustFlattensStructs(t *testing.T) {
	got := body(generate(t, langdef.Rust, inheritance))
	assert.Equal(t, `struct Person {
  id: i32,
  name: Option<String>,
}

struct Engineer {
  id: i32,
  name: Option<String>,
  specialty: String,
}
`, got)
}

func TestGoEmbedsParent(t *testing.T) {
	got := body(generate(t, langdef.Go, inheritance))
	assert.Equal(t, "package typemeld\n\n"+
		"type Person struct {\n"+
		"\tID   int32   `json:\"id\"`\n"+
		"\tName *string `json:\"name,omitempty\"`\n"+
		"}\n\n"+
		"type Engineer struct {\n"+
		"\tPerson\n"+
		"\tSpecialty string `json:\"specialty\"`\n"+
		"}\n", got)
}

func TestGoPackageOption(t *testing.T) {
	g, err := New(langdef.Go, langdef.MustLoad(), Options{GoPackage: "models"})
	require.NoError(t, err)
	out, err := g.Generate(&ast.Schema{})
	require.NoError(t, err)
	assert.Contains(t, string(out.Content), "package models\n")
}

func TestGoFormatFailureIsWarning(t *testing.T) {
	g, err := New(langdef.Go, langdef.MustLoad(), Options{GoPackage: "not a package"})
	require.NoError(t, err)
	out, err := g.Generate(&ast.Schema{})
	require.NoError(t, err)
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, CodeFormatFailed, out.Diagnostics[0].Code)
	assert.Equal(t, diag.SeverityWarning, out.Diagnostics[0].Severity)
	assert.Contains(t, string(out.Content), "package not a package")
}

const interfaces = `
interface Worker {
  work(hours: Int32): Void
  report(): String
}
interface AdvancedWorker extends Worker {
  lead(teamSize: Int32)
}
`

func TestInterfaces(t *testing.T) {
	tests := []struct {
		lang string
		want string
	}{
		{langdef.TypeScript, `export interface Worker {
  work(hours: number): void;
  report(): string;
}

export interface AdvancedWorker extends Worker {
  lead(teamSize: number): void;
}
`},
		{langdef.Swift, `protocol Worker {
  func work(hours: Int) -> Void
  func report() -> String
}

protocol AdvancedWorker: Worker {
  func lead(teamSize: Int) -> Void
}
`},
		{langdef.Rust, `trait Worker {
  fn work(hours: i32) -> ();
  fn report() -> String;
}

trait AdvancedWorker: Worker {
  fn lead(teamSize: i32) -> ();
}
`},
		{langdef.Go, `package typemeld

type Worker interface {
	Work(hours int32)
	Report() string
}

type AdvancedWorker interface {
	Worker
	Lead(teamSize int32)
}
`},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			assert.Equal(t, tt.want, body(generate(t, tt.lang, interfaces)))
		})
	}
}

func TestFunctions(t *testing.T) {
	src := "function fetchData<T>(url: String, retries: Int8?): ApiResponse<T>\nfunction ping()"

	tests := []struct {
		lang string
		want string
	}{
		{langdef.TypeScript, "export declare function fetchData<T>(url: string, retries?: number): ApiResponse<T>;\n\n" +
			"export declare function ping(): void;\n"},
		{langdef.Swift, "func fetchData<T>(url: String, retries: Int?) -> ApiResponse<T>\n\n" +
			"func ping() -> Void\n"},
		{langdef.Rust, "fn fetchData<T>(url: String, retries: Option<i8>) -> ApiResponse<T>;\n\n" +
			"fn ping() -> ();\n"},
		{langdef.Go, "package typemeld\n\n" +
			"type FetchDataFunc[T any] func(url string, retries *int8) ApiResponse[T]\n\n" +
			"type PingFunc func()\n"},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			assert.Equal(t, tt.want, body(generate(t, tt.lang, src)))
		})
	}
}

func TestCollectionsAndAliases(t *testing.T) {
	src := `
type Tags = String[]
type Scores = Record<String, Double>
type KeyValue = { key: String, value: Int32 }
`

	tests := []struct {
		lang string
		want string
	}{
		{langdef.TypeScript, `export type Tags = string[];

export type Scores = Record<string, number>;

export type KeyValue = { key: string; value: number };
`},
		{langdef.Swift, `typealias Tags = [String]

typealias Scores = [String: Double]

struct KeyValue {
  var key: String
  var value: Int
}
`},
		{langdef.Rust, `type Tags = Vec<String>;

type Scores = std::collections::HashMap<String, f64>;

struct KeyValue {
  key: String,
  value: i32,
}
`},
		{langdef.Go, "package typemeld\n\n" +
			"type Tags = []string\n\n" +
			"type Scores = map[string]float64\n\n" +
			"type KeyValue struct {\n" +
			"\tKey   string `json:\"key\"`\n" +
			"\tValue int32  `json:\"value\"`\n" +
			"}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			assert.Equal(t, tt.want, body(generate(t, tt.lang, src)))
		})
	}
}

func TestInlineRecords(t *testing.T) {
	src := `
struct LogEntry {
  timestamp: { seconds: Int64, nanos: Int32 }
  labels: { key: String }[]
}
`

	ts := body(generate(t, langdef.TypeScript, src))
	assert.Contains(t, ts, "  timestamp: { seconds: number; nanos: number };\n")
	assert.Contains(t, ts, "  labels: Array<{ key: string }>;\n")

	sw := body(generate(t, langdef.Swift, src))
	assert.Contains(t, sw, "  var timestamp: (seconds: Int, nanos: Int)\n")
	assert.Contains(t, sw, "  var labels: [(key: String)]\n")

	assert.Equal(t, `struct LogEntryTimestamp {
  seconds: i64,
  nanos: i32,
}

struct LogEntryLabels {
  key: String,
}

struct LogEntry {
  timestamp: LogEntryTimestamp,
  labels: Vec<LogEntryLabels>,
}
`, body(generate(t, langdef.Rust, src)))

	goSrc := body(generate(t, langdef.Go, src))
	assert.Contains(t, goSrc, "Seconds int64 `json:\"seconds\"`")
	assert.Regexp(t, `Labels\s+\[\]struct \{`, goSrc)
	assert.Contains(t, goSrc, "} `json:\"labels\"`")
}

func TestRustHoistedNamesAvoidCollisions(t *testing.T) {
	src := `
struct LogEntryMeta {
  id: Int32
}
struct LogEntry {
  meta: { id: Int32 }
}
`
	got := body(generate(t, langdef.Rust, src))
	assert.Contains(t, got, "struct LogEntryMeta2 {\n  id: i32,\n}\n")
	assert.Contains(t, got, "  meta: LogEntryMeta2,\n")
}

func TestRustHoistedStructsCarryTypeParams(t *testing.T) {
	src := `
struct Page<T, C> {
  items: { value: T }[]
  cursor: C
}
`
	got := body(generate(t, langdef.Rust, src))
	assert.Equal(t, `struct PageItems<T> {
  value: T,
}

struct Page<T, C> {
  items: Vec<PageItems<T>>,
  cursor: C,
}
`, got)
}

func TestRustEscapesKeywords(t *testing.T) {
	got := body(generate(t, langdef.Rust, "struct Token {\n  type: String\n}"))
	assert.Contains(t, got, "  r#type: String,\n")
}

func TestSwiftEscapesKeywords(t *testing.T) {
	got := body(generate(t, langdef.Swift, `
struct Toggle {
  default: Boolean
  label: String
}
interface Switch {
  class(in: Int32): Void
}
`))
	assert.Contains(t, got, "  var `default`: Bool\n")
	assert.Contains(t, got, "  var label: String\n")
	assert.Contains(t, got, "  func `class`(`in`: Int) -> Void\n")
}

func TestTypeScriptRenamesReservedParams(t *testing.T) {
	got := body(generate(t, langdef.TypeScript, `
struct Toggle {
  default: Boolean
}
function toggle(default: Boolean, class: String): Void
`))
	assert.Contains(t, got, "  default: boolean;\n", "reserved words are valid property names")
	assert.Contains(t, got, "export declare function toggle(default_: boolean, class_: string): void;\n")
}

func TestGoRenamesClashingMembers(t *testing.T) {
	schema, diags := parser.Parse("", `
struct User {
  id: String
  ID: Int32
}
struct Admin extends User {
  user: String
}
interface Lookup {
  find(): String
  Find(): Int32
}
`)
	require.Empty(t, diags)

	g, err := New(langdef.Go, langdef.MustLoad(), Options{})
	require.NoError(t, err)
	out, err := g.Generate(schema)
	require.NoError(t, err)

	got := body(string(out.Content))
	assert.Contains(t, got, "ID  string `json:\"id\"`")
	assert.Contains(t, got, "ID_ int32  `json:\"ID\"`")
	assert.Contains(t, got, "User_ string `json:\"user\"`")
	assert.Contains(t, got, "Find_() int32")

	require.Len(t, out.Diagnostics, 3)
	assert.Equal(t, []string{CodeNameClash, CodeNameClash, CodeNameClash}, out.Diagnostics.Codes())
	assert.Equal(t, "User", out.Diagnostics[0].Decl)
	assert.Equal(t, "ID", out.Diagnostics[0].Field)
	assert.Equal(t, "ID exports as ID, which is already taken; renamed to ID_", out.Diagnostics[0].Message)
	assert.Equal(t, "Admin", out.Diagnostics[1].Decl)
	assert.Equal(t, "Lookup", out.Diagnostics[2].Decl)
}

func TestGoNaming(t *testing.T) {
	src := `
struct Account {
  userId: Int32
  homeUrl: String
  api: String
  paid: Boolean
}
function lookup(type: String): Account
`
	got := body(generate(t, langdef.Go, src))
	assert.Contains(t, got, "UserID  int32")
	assert.Contains(t, got, "HomeURL string")
	assert.Contains(t, got, "API     string")
	assert.Contains(t, got, "Paid    bool")
	assert.Contains(t, got, "type LookupFunc func(type_ string) Account\n")
}

func TestCustomPrimitives(t *testing.T) {
	table := langdef.MustLoad()
	require.NoError(t, table.Extend(map[string]map[string]string{
		"UUID": {langdef.Rust: "uuid::Uuid", langdef.TypeScript: "string"},
	}))
	schema, _ := parser.Parse("", "struct User {\n  id: UUID\n}")

	g, err := New(langdef.Rust, table, Options{})
	require.NoError(t, err)
	out, err := g.Generate(schema)
	require.NoError(t, err)
	assert.Contains(t, string(out.Content), "  id: uuid::Uuid,\n")

	g, err = New(langdef.Swift, table, Options{})
	require.NoError(t, err)
	out, err = g.Generate(schema)
	require.NoError(t, err)
	assert.Contains(t, string(out.Content), "  var id: UUID\n", "unmapped language passes the name through")
}

func TestSwiftGenericProtocol(t *testing.T) {
	got := body(generate(t, langdef.Swift, "interface Repo<T> {\n  get(id: Int32): T\n}"))
	assert.Equal(t, `protocol Repo {
  associatedtype T
  func get(id: Int) -> T
}
`, got)
}

func TestExportedName(t *testing.T) {
	tests := map[string]string{
		"id":        "ID",
		"url":       "URL",
		"isWorking": "IsWorking",
		"personId":  "PersonID",
		"paid":      "Paid",
		"Person":    "Person",
		"teamSize":  "TeamSize",
		"apiKey":    "ApiKey",
	}
	for in, want := range tests {
		assert.Equal(t, want, exportedName(in), in)
	}
}
