package harness

import (
	"github.com/glemin5011/typemeld/internal/ast"
	"github.com/glemin5011/typemeld/internal/diag"
)

// Result is the outcome of running a case.
type Result struct {
	// Pass is true when diagnostics and assertions match the case.
	Pass bool `json:"pass"`

	// Schema is the parsed schema, possibly partial when parsing reported
	// errors.
	Schema *ast.Schema `json:"schema"`

	// Diagnostics holds parse, check and generator diagnostics, sorted.
	Diagnostics diag.List `json:"diagnostics"`

	// Outputs maps a language to its generated file. It is empty when the
	// schema has errors.
	Outputs map[string][]byte `json:"-"`

	// Errors contains verification failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Schema:  &ast.Schema{Decls: []ast.Decl{}},
		Outputs: make(map[string][]byte),
		Errors:  []string{},
	}
}

// AddError adds a verification error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
