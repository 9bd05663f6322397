package generator

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// initialisms are spelled in upper case when they form a whole name or the
// trailing word of one, as golint expects.
var initialisms = map[string]string{
	"id":   "ID",
	"url":  "URL",
	"uri":  "URI",
	"uuid": "UUID",
	"api":  "API",
	"http": "HTTP",
	"json": "JSON",
}

// titleCase upper-cases the first letter of every word in name and leaves
// the rest untouched, so "isWorking" becomes "IsWorking".
func titleCase(name string) string {
	// A Caser is stateful; one per call keeps generators safe to run in
	// parallel.
	return cases.Title(language.Und, cases.NoLower).String(name)
}

// exportedName turns a DSL identifier into an exported Go identifier.
func exportedName(name string) string {
	if up, ok := initialisms[strings.ToLower(name)]; ok {
		return up
	}
	s := titleCase(name)
	for lower, up := range initialisms {
		// personId -> PersonID, but never Paid -> PaID.
		suffix := titleCase(lower)
		if strings.HasSuffix(s, suffix) && len(s) > len(suffix) {
			prev := s[len(s)-len(suffix)-1]
			if prev >= 'a' && prev <= 'z' || prev >= '0' && prev <= '9' {
				return s[:len(s)-len(suffix)] + up
			}
		}
	}
	return s
}

var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
}

// goParamName keeps parameter names as written unless they collide with a
// Go keyword.
func goParamName(name string) string {
	if goKeywords[name] {
		return name + "_"
	}
	return name
}

var rustKeywords = map[string]bool{
	"as": true, "break": true, "const": true, "continue": true, "crate": true,
	"else": true, "enum": true, "extern": true, "false": true, "fn": true,
	"for": true, "if": true, "impl": true, "in": true, "let": true, "loop": true,
	"match": true, "mod": true, "move": true, "mut": true, "pub": true, "ref": true,
	"return": true, "static": true, "struct": true, "trait": true, "true": true,
	"type": true, "unsafe": true, "use": true, "where": true, "while": true,
}

// rustIdent escapes names that are Rust keywords as raw identifiers.
func rustIdent(name string) string {
	if rustKeywords[name] {
		return "r#" + name
	}
	return name
}

var swiftKeywords = map[string]bool{
	"associatedtype": true, "class": true, "deinit": true, "enum": true,
	"extension": true, "fileprivate": true, "func": true, "import": true,
	"init": true, "inout": true, "internal": true, "let": true, "open": true,
	"operator": true, "private": true, "protocol": true, "public": true,
	"rethrows": true, "static": true, "struct": true, "subscript": true,
	"typealias": true, "var": true, "break": true, "case": true, "catch": true,
	"continue": true, "default": true, "defer": true, "do": true, "else": true,
	"fallthrough": true, "for": true, "guard": true, "if": true, "in": true,
	"repeat": true, "return": true, "throw": true, "switch": true, "where": true,
	"while": true, "as": true, "false": true, "is": true, "nil": true,
	"self": true, "Self": true, "super": true, "throws": true, "true": true,
	"try": true, "Any": true,
}

// swiftIdent quotes names that are Swift keywords in backticks.
func swiftIdent(name string) string {
	if swiftKeywords[name] {
		return "`" + name + "`"
	}
	return name
}

// tsReserved are the words TypeScript rejects as parameter names. Property
// and method names may use them freely.
var tsReserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true,
	"do": true, "else": true, "enum": true, "export": true, "extends": true,
	"false": true, "finally": true, "for": true, "function": true, "if": true,
	"import": true, "in": true, "instanceof": true, "new": true, "null": true,
	"return": true, "super": true, "switch": true, "this": true, "throw": true,
	"true": true, "try": true, "typeof": true, "var": true, "void": true,
	"while": true, "with": true, "implements": true, "interface": true,
	"let": true, "package": true, "private": true, "protected": true,
	"public": true, "static": true, "yield": true, "await": true,
}

// tsParamName renames parameters that collide with a reserved word.
func tsParamName(name string) string {
	if tsReserved[name] {
		return name + "_"
	}
	return name
}
