// Package diag defines the diagnostics reported by the parser and checker.
//
// Diagnostics are values, not errors: every stage collects all of them
// instead of stopping at the first problem.
package diag

import (
	"fmt"
	"sort"
	"strings"
)

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a single problem found in a schema.
type Diagnostic struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Decl     string   `json:"decl,omitempty"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
}

// Error implements the error interface.
// Format: [CODE] file:line: decl.field: message
func (d Diagnostic) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ", d.Code)

	switch {
	case d.File != "" && d.Line > 0:
		fmt.Fprintf(&b, "%s:%d: ", d.File, d.Line)
	case d.File != "":
		fmt.Fprintf(&b, "%s: ", d.File)
	case d.Line > 0:
		fmt.Fprintf(&b, "line %d: ", d.Line)
	}

	switch {
	case d.Decl != "" && d.Field != "":
		fmt.Fprintf(&b, "%s.%s: ", d.Decl, d.Field)
	case d.Decl != "":
		fmt.Fprintf(&b, "%s: ", d.Decl)
	case d.Field != "":
		fmt.Fprintf(&b, "%s: ", d.Field)
	}

	b.WriteString(d.Message)
	return b.String()
}

// IsError reports whether d has error severity.
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// Errorf builds an error diagnostic.
func Errorf(code string, line int, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Severity: SeverityError, Line: line, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning diagnostic.
func Warnf(code string, line int, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Severity: SeverityWarning, Line: line, Message: fmt.Sprintf(format, args...)}
}

// List is an ordered collection of diagnostics.
type List []Diagnostic

// HasErrors reports whether any diagnostic is an error.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.IsError() {
			return true
		}
	}
	return false
}

// Errors returns only the error diagnostics.
func (l List) Errors() List {
	return l.filter(SeverityError)
}

// Warnings returns only the warning diagnostics.
func (l List) Warnings() List {
	return l.filter(SeverityWarning)
}

func (l List) filter(sev Severity) List {
	var out List
	for _, d := range l {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// Codes returns the diagnostic codes in order.
func (l List) Codes() []string {
	codes := make([]string, len(l))
	for i, d := range l {
		codes[i] = d.Code
	}
	return codes
}

// WithFile sets File on every diagnostic that has none.
func (l List) WithFile(file string) List {
	for i := range l {
		if l[i].File == "" {
			l[i].File = file
		}
	}
	return l
}

// Sort orders diagnostics by file, line and code. The sort is stable so
// diagnostics at the same position keep their discovery order.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		if l[i].File != l[j].File {
			return l[i].File < l[j].File
		}
		if l[i].Line != l[j].Line {
			return l[i].Line < l[j].Line
		}
		return l[i].Code < l[j].Code
	})
}
