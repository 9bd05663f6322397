package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/glemin5011/typemeld/internal/build"
	"github.com/glemin5011/typemeld/internal/check"
	"github.com/glemin5011/typemeld/internal/diag"
	"github.com/glemin5011/typemeld/internal/generator"
	"github.com/glemin5011/typemeld/internal/langdef"
	"github.com/glemin5011/typemeld/internal/parser"
)

// Run parses, checks and generates a case, then verifies the result.
//
// Generation is skipped when parsing or checking reports errors, so an
// error case is verified on its diagnostics alone. The returned error is
// reserved for failures of the pipeline itself; expectation mismatches are
// recorded on the result.
func Run(c *Case) (*Result, error) {
	return RunContext(context.Background(), c)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, c *Case) (*Result, error) {
	table, err := langdef.Load()
	if err != nil {
		return nil, err
	}

	result := NewResult()
	schema, diags := parser.Parse(sourceName(c), c.Source)
	result.Schema = schema
	diags = append(diags, check.Check(schema, table, check.Options{Strict: c.Strict})...)

	if !diags.HasErrors() {
		artifacts, err := build.Generate(ctx, schema, build.Targets(c.Languages()...), table, generator.Options{})
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", c.Name, err)
		}
		for _, a := range artifacts {
			result.Outputs[a.Language] = a.Content
		}
		diags = append(diags, build.Diagnostics(artifacts)...)
	}

	diags.Sort()
	result.Diagnostics = diags
	Verify(c, result)
	return result, nil
}

func sourceName(c *Case) string {
	if c.File != "" {
		return c.File
	}
	return c.Name + ".tm"
}

// Verify compares the result's diagnostic codes with the case expectation
// and evaluates the case's assertions. Failures are added to result.
func Verify(c *Case, result *Result) {
	if msg := compareCodes("errors", c.Expect.Errors, result.Diagnostics.Errors()); msg != "" {
		result.AddError(msg)
	}
	if msg := compareCodes("warnings", c.Expect.Warnings, result.Diagnostics.Warnings()); msg != "" {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(result, c.Assertions) {
		result.AddError(msg)
	}
}

func compareCodes(what string, want []string, got diag.List) string {
	w := slices.Clone(want)
	g := got.Codes()
	slices.Sort(w)
	slices.Sort(g)
	if slices.Equal(w, g) {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s mismatch: expected [%s], got [%s]", what, strings.Join(w, " "), strings.Join(g, " "))
	for _, d := range got {
		fmt.Fprintf(&b, "\n  %s", d.Error())
	}
	return b.String()
}
