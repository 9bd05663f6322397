package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/glemin5011/typemeld/internal/ast"
	"github.com/glemin5011/typemeld/internal/diag"
)

// Parser diagnostic codes (E010-E019, W011-W014).
const (
	CodeUnterminatedBlock = "E010" // block reaches end of input or next declaration
	CodeMalformedField    = "W011" // struct field line skipped
	CodeMalformedMethod   = "W012" // interface method line skipped
	CodeMalformedParam    = "W013" // parameter skipped
	CodeUnrecognizedLine  = "W014" // top-level line is not a declaration
	CodeMalformedHeader   = "E015" // declaration header could not be parsed
)

var (
	blockHeaderPattern = regexp.MustCompile(`^(struct|interface)\s+([A-Za-z_]\w*)\s*(?:<([^<>]*)>)?\s*(?:extends\s+([A-Za-z_]\w*))?\s*\{(.*)$`)
	aliasPattern       = regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s*(?:<([^<>]*)>)?\s*=\s*(.+?)\s*;?$`)
	functionPattern    = regexp.MustCompile(`^function\s+([A-Za-z_]\w*)\s*(?:<([^<>]*)>)?\s*\((.*)\)\s*(?::\s*(.+?))?\s*;?$`)
	methodPattern      = regexp.MustCompile(`^([A-Za-z_]\w*)\s*\((.*)\)\s*(?::\s*(.+?))?\s*[,;]?$`)
	typeNamePattern    = regexp.MustCompile(`^[A-Za-z_][\w.]*$`)
)

type sourceLine struct {
	text string
	num  int
}

type parser struct {
	lines  []sourceLine
	pos    int
	diags  diag.List
	schema *ast.Schema
	file   string
}

// Parse parses DSL source. file is used for diagnostics and may be empty.
// Parse never fails outright: problems are reported as diagnostics and the
// schema contains every declaration that could be recovered.
func Parse(file, src string) (*ast.Schema, diag.List) {
	p := &parser{
		lines:  splitLines(src),
		schema: &ast.Schema{Decls: []ast.Decl{}},
		file:   file,
	}
	p.run()
	return p.schema, p.diags.WithFile(file)
}

// splitLines trims every line and drops blank lines and comment lines,
// keeping original line numbers.
func splitLines(src string) []sourceLine {
	raw := strings.Split(src, "\n")
	lines := make([]sourceLine, 0, len(raw))
	for i, l := range raw {
		text := strings.TrimSpace(l)
		if text == "" || strings.HasPrefix(text, "//") {
			continue
		}
		lines = append(lines, sourceLine{text: text, num: i + 1})
	}
	return lines
}

func (p *parser) run() {
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		p.pos++

		switch {
		case strings.HasPrefix(line.text, "type "):
			p.parseAlias(line)
		case strings.HasPrefix(line.text, "struct "), strings.HasPrefix(line.text, "interface "):
			p.parseBlock(line)
		case strings.HasPrefix(line.text, "function "):
			p.parseFunction(line)
		default:
			p.diags = append(p.diags, diag.Warnf(CodeUnrecognizedLine, line.num,
				"unrecognized line %q", line.text))
		}
	}
}

func (p *parser) add(d ast.Decl) {
	d.File = p.file
	p.schema.Decls = append(p.schema.Decls, d)
}

func (p *parser) parseAlias(line sourceLine) {
	m := aliasPattern.FindStringSubmatch(line.text)
	if m == nil {
		p.diags = append(p.diags, diag.Errorf(CodeMalformedHeader, line.num,
			"malformed type declaration %q, expected \"type Name = Type\"", line.text))
		return
	}
	name, rhs := m[1], m[3]

	// Inline records may continue over several lines.
	if strings.HasPrefix(rhs, "{") && braceDepth(rhs) > 0 {
		var ok bool
		rhs, ok = p.continueRecord(rhs)
		if !ok {
			p.diags = append(p.diags, diagFor(diag.Errorf(CodeUnterminatedBlock, line.num,
				"unterminated record in type %s", name), name, ""))
			return
		}
	}

	typ, err := parseType(rhs)
	if err != nil {
		p.diags = append(p.diags, diagFor(diag.Errorf(CodeMalformedHeader, line.num,
			"type %s: %v", name, err), name, ""))
		return
	}

	p.add(ast.NewAliasDecl(&ast.TypeAlias{
		Name:       name,
		TypeParams: splitTypeParams(m[2]),
		Type:       typ,
		Line:       line.num,
	}))
}

// continueRecord joins following lines onto an open inline record until its
// braces balance. Like collectMembers it gives up, without consuming, at a
// line that starts a new declaration.
func (p *parser) continueRecord(rhs string) (string, bool) {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(rhs))
	for p.pos < len(p.lines) {
		if startsDecl(p.lines[p.pos].text) {
			return "", false
		}
		next := strings.TrimSuffix(p.lines[p.pos].text, ";")
		p.pos++

		cur := strings.TrimSuffix(b.String(), ",")
		b.Reset()
		b.WriteString(cur)
		if !strings.HasSuffix(cur, "{") && !strings.HasPrefix(next, "}") {
			b.WriteString(",")
		}
		b.WriteString(" ")
		b.WriteString(next)

		if braceDepth(b.String()) == 0 {
			return b.String(), true
		}
	}
	return "", false
}

func (p *parser) parseBlock(line sourceLine) {
	m := blockHeaderPattern.FindStringSubmatch(line.text)
	if m == nil {
		p.diags = append(p.diags, diag.Errorf(CodeMalformedHeader, line.num,
			"malformed declaration header %q", line.text))
		if strings.Contains(line.text, "{") && !strings.Contains(line.text, "}") {
			p.skipBlock()
		}
		return
	}

	keyword, name, params, extends := m[1], m[2], m[3], m[4]
	rest := strings.TrimSpace(m[5])

	var members []sourceLine
	terminated := true
	if idx := strings.LastIndex(rest, "}"); idx >= 0 {
		// Single-line block: struct Point { x: Int32, y: Int32 }
		body := strings.TrimSpace(rest[:idx])
		sep := byte(',')
		if keyword == "interface" {
			sep = ';'
		}
		for _, part := range splitTopLevel(body, sep) {
			members = append(members, sourceLine{text: part, num: line.num})
		}
	} else {
		if rest != "" {
			members = append(members, sourceLine{text: rest, num: line.num})
		}
		members, terminated = p.collectMembers(members)
	}

	if !terminated {
		p.diags = append(p.diags, diagFor(diag.Errorf(CodeUnterminatedBlock, line.num,
			"%s %s is missing a closing \"}\"", keyword, name), name, ""))
	}

	switch keyword {
	case "struct":
		st := &ast.Struct{
			Name:       name,
			TypeParams: splitTypeParams(params),
			Extends:    extends,
			Fields:     []ast.Field{},
			Line:       line.num,
		}
		for _, ml := range members {
			if f, ok := p.parseField(name, ml); ok {
				st.Fields = append(st.Fields, f)
			}
		}
		p.add(ast.NewStructDecl(st))
	case "interface":
		iface := &ast.Interface{
			Name:       name,
			TypeParams: splitTypeParams(params),
			Extends:    extends,
			Methods:    []ast.Method{},
			Line:       line.num,
		}
		for _, ml := range members {
			if meth, ok := p.parseMethod(name, ml); ok {
				iface.Methods = append(iface.Methods, meth)
			}
		}
		p.add(ast.NewInterfaceDecl(iface))
	}
}

// collectMembers consumes lines up to the closing brace. It stops early,
// without consuming, at a line that starts a new declaration.
func (p *parser) collectMembers(members []sourceLine) ([]sourceLine, bool) {
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		if strings.HasPrefix(line.text, "}") {
			p.pos++
			return members, true
		}
		if startsDecl(line.text) {
			return members, false
		}
		members = append(members, line)
		p.pos++
	}
	return members, false
}

func (p *parser) skipBlock() {
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		p.pos++
		if strings.HasPrefix(line.text, "}") {
			return
		}
	}
}

func (p *parser) parseField(decl string, line sourceLine) (ast.Field, bool) {
	text := strings.TrimRight(line.text, ",;")
	f, err := parseFieldText(text)
	if err != nil {
		p.diags = append(p.diags, diagFor(diag.Warnf(CodeMalformedField, line.num,
			"skipping malformed field %q: %v", line.text, err), decl, ""))
		return ast.Field{}, false
	}
	f.Line = line.num
	return f, true
}

func (p *parser) parseMethod(decl string, line sourceLine) (ast.Method, bool) {
	m := methodPattern.FindStringSubmatch(line.text)
	if m == nil {
		p.diags = append(p.diags, diagFor(diag.Warnf(CodeMalformedMethod, line.num,
			"skipping malformed method signature %q", line.text), decl, ""))
		return ast.Method{}, false
	}

	returns, err := parseReturn(m[3])
	if err != nil {
		p.diags = append(p.diags, diagFor(diag.Warnf(CodeMalformedMethod, line.num,
			"skipping method %s: %v", m[1], err), decl, m[1]))
		return ast.Method{}, false
	}

	return ast.Method{
		Name:    m[1],
		Params:  p.parseParams(decl+"."+m[1], m[2], line.num),
		Returns: returns,
		Line:    line.num,
	}, true
}

func (p *parser) parseFunction(line sourceLine) {
	m := functionPattern.FindStringSubmatch(line.text)
	if m == nil {
		p.diags = append(p.diags, diag.Errorf(CodeMalformedHeader, line.num,
			"malformed function signature %q", line.text))
		return
	}

	returns, err := parseReturn(m[4])
	if err != nil {
		p.diags = append(p.diags, diagFor(diag.Errorf(CodeMalformedHeader, line.num,
			"function %s: %v", m[1], err), m[1], ""))
		return
	}

	p.add(ast.NewFunctionDecl(&ast.Function{
		Name:       m[1],
		TypeParams: splitTypeParams(m[2]),
		Params:     p.parseParams(m[1], m[3], line.num),
		Returns:    returns,
		Line:       line.num,
	}))
}

func (p *parser) parseParams(owner, list string, lineNum int) []ast.Field {
	params := []ast.Field{}
	for _, raw := range splitTopLevel(list, ',') {
		f, err := parseFieldText(raw)
		if err != nil {
			p.diags = append(p.diags, diagFor(diag.Warnf(CodeMalformedParam, lineNum,
				"skipping malformed parameter %q: %v", raw, err), owner, ""))
			continue
		}
		f.Line = lineNum
		params = append(params, f)
	}
	return params
}

func parseReturn(s string) (*ast.TypeRef, error) {
	if strings.TrimSpace(s) == "" {
		return ast.Named(ast.TypeVoid), nil
	}
	return parseType(s)
}

// parseFieldText parses `name: Type` or `name: Type?`.
func parseFieldText(text string) (ast.Field, error) {
	name, typ, ok := strings.Cut(text, ":")
	if !ok {
		return ast.Field{}, fmt.Errorf("expected \"name: Type\"")
	}
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, " \t{}<>()[]") {
		return ast.Field{}, fmt.Errorf("invalid field name %q", name)
	}

	typ = strings.TrimSpace(typ)
	optional := strings.HasSuffix(typ, "?")
	typ = strings.TrimSpace(strings.TrimSuffix(typ, "?"))

	ref, err := parseType(typ)
	if err != nil {
		return ast.Field{}, err
	}
	return ast.Field{Name: name, Type: ref, Optional: optional}, nil
}

// parseType parses a type expression. Array suffixes bind loosest, so
// Box<T>[] is an array of Box<T>.
func parseType(s string) (*ast.TypeRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("missing type")
	}

	if strings.HasSuffix(s, "[]") {
		elem, err := parseType(s[:len(s)-2])
		if err != nil {
			return nil, err
		}
		return ast.ArrayOf(elem), nil
	}

	if strings.HasPrefix(s, "{") {
		if !strings.HasSuffix(s, "}") || braceDepth(s) != 0 {
			return nil, fmt.Errorf("unbalanced braces in %q", s)
		}
		fields := []ast.Field{}
		for _, part := range splitTopLevel(s[1:len(s)-1], ',') {
			f, err := parseFieldText(strings.TrimRight(part, ";"))
			if err != nil {
				return nil, fmt.Errorf("record field %q: %w", part, err)
			}
			fields = append(fields, f)
		}
		return ast.Object(fields...), nil
	}

	if i := strings.IndexByte(s, '<'); i >= 0 {
		if i == 0 || !strings.HasSuffix(s, ">") {
			return nil, fmt.Errorf("malformed generic type %q", s)
		}
		base := strings.TrimSpace(s[:i])
		if !typeNamePattern.MatchString(base) {
			return nil, fmt.Errorf("invalid type name %q", base)
		}
		var args []*ast.TypeRef
		for _, part := range splitTopLevel(s[i+1:len(s)-1], ',') {
			arg, err := parseType(part)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("generic type %q has no arguments", s)
		}
		return ast.Named(base, args...), nil
	}

	if !typeNamePattern.MatchString(s) {
		return nil, fmt.Errorf("invalid type %q", s)
	}
	return ast.Named(s), nil
}

// splitTopLevel splits s on sep, ignoring separators nested in brackets.
// Empty parts are dropped.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '{', '(', '[':
			depth++
		case '>', '}', ')', ']':
			depth--
		case sep:
			if depth == 0 {
				parts = appendPart(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return appendPart(parts, s[start:])
}

func appendPart(parts []string, part string) []string {
	part = strings.TrimSpace(part)
	if part == "" {
		return parts
	}
	return append(parts, part)
}

func splitTypeParams(s string) []string {
	return splitTopLevel(s, ',')
}

func braceDepth(s string) int {
	return strings.Count(s, "{") - strings.Count(s, "}")
}

// startsDecl reports whether a line inside a block looks like the start of a
// new top-level declaration, which means the current block was never closed.
func startsDecl(text string) bool {
	switch {
	case strings.HasPrefix(text, "struct "), strings.HasPrefix(text, "interface "):
		return strings.Contains(text, "{")
	case strings.HasPrefix(text, "type "):
		return strings.Contains(text, "=")
	case strings.HasPrefix(text, "function "):
		return strings.Contains(text, "(")
	}
	return false
}

func diagFor(d diag.Diagnostic, decl, field string) diag.Diagnostic {
	d.Decl = decl
	d.Field = field
	return d
}
