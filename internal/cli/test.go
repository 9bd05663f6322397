package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/glemin5011/typemeld/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Golden string // golden directory
	Update bool   // regenerate golden files
	Filter string // case filter (glob pattern)
}

// CaseResult holds the result of a single case.
type CaseResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Cases  []CaseResult `json:"cases"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Total  int          `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <cases-dir>",
		Short: "Run conformance cases",
		Long: `Run the YAML conformance cases in a directory.

Each case is parsed, checked and generated. Diagnostic codes and
assertions are verified, and every output is compared with its golden
file when one exists.

Exit codes:
  0 - All cases passed
  1 - One or more cases failed
  2 - Command error (invalid paths, etc.)

Examples:
  typemeld test ./testdata/cases
  typemeld test ./testdata/cases --filter "work*"
  typemeld test ./testdata/cases --update
  typemeld test ./testdata/cases --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Golden, "golden", "", "golden directory (default: golden next to the cases directory)")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter cases by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, casesDir string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	if info, err := os.Stat(casesDir); err != nil || !info.IsDir() {
		return fail(out, withCode(ErrCodeNotFound, fmt.Errorf("cases directory not found: %s", casesDir)))
	}

	cases, err := harness.LoadCases(casesDir)
	if err != nil {
		return fail(out, err)
	}
	cases, err = filterCases(cases, opts.Filter)
	if err != nil {
		return fail(out, err)
	}

	goldenDir := opts.Golden
	if goldenDir == "" {
		goldenDir = filepath.Join(filepath.Dir(filepath.Clean(casesDir)), "golden")
	}

	if len(cases) == 0 {
		if out.IsJSON() {
			return outputTestJSON(out, TestResult{Cases: []CaseResult{}})
		}
		fmt.Fprintln(out.Writer, "No cases found.")
		return nil
	}

	result := TestResult{
		Cases: make([]CaseResult, 0, len(cases)),
		Total: len(cases),
	}
	for _, c := range cases {
		cr := runCase(out, c, goldenDir, opts.Update, cmd)
		result.Cases = append(result.Cases, cr)
		if cr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if out.IsJSON() {
		return outputTestJSON(out, result)
	}
	return outputTestText(out, result)
}

func filterCases(cases []*harness.Case, filter string) ([]*harness.Case, error) {
	if filter == "" {
		return cases, nil
	}
	var kept []*harness.Case
	for _, c := range cases {
		matched, err := filepath.Match(filter, c.Name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if matched {
			kept = append(kept, c)
		}
	}
	return kept, nil
}

// runCase runs one case and checks or updates its golden files.
func runCase(out *OutputFormatter, c *harness.Case, goldenDir string, update bool, cmd *cobra.Command) CaseResult {
	w := out.Writer

	result, err := harness.RunContext(cmd.Context(), c)
	if err != nil {
		return reportCase(out, CaseResult{
			Name:   c.Name,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		})
	}

	if update {
		if err := harness.UpdateGolden(goldenDir, c, result); err != nil {
			result.AddError(fmt.Sprintf("golden update failed: %v", err))
		} else if result.Pass && !out.IsJSON() {
			fmt.Fprintf(w, "✓ %s (golden updated)\n", c.Name)
			return CaseResult{Name: c.Name, Pass: true}
		}
	} else if hasGolden(goldenDir, c) {
		for _, msg := range harness.CheckGolden(goldenDir, c, result) {
			result.AddError("golden mismatch: " + msg + " (run with --update to regenerate)")
		}
	}

	return reportCase(out, CaseResult{Name: c.Name, Pass: result.Pass, Errors: result.Errors})
}

// hasGolden reports whether any golden file of c exists. Cases without
// golden files are verified on their expectations alone.
func hasGolden(dir string, c *harness.Case) bool {
	for _, lang := range c.Languages() {
		if _, err := os.Stat(harness.GoldenPath(dir, c.Name, lang)); err == nil {
			return true
		}
	}
	return false
}

func reportCase(out *OutputFormatter, cr CaseResult) CaseResult {
	if out.IsJSON() {
		return cr
	}
	if cr.Pass {
		fmt.Fprintf(out.Writer, "✓ %s\n", cr.Name)
		return cr
	}
	fmt.Fprintf(out.Writer, "✗ %s\n", cr.Name)
	for _, e := range cr.Errors {
		fmt.Fprintf(out.Writer, "  %s\n", e)
	}
	return cr
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(out *OutputFormatter, result TestResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeTestFailed,
			Message: fmt.Sprintf("%d case(s) failed", result.Failed),
		}
	}

	if err := out.encode(response); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d case(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test summary as text.
func outputTestText(out *OutputFormatter, result TestResult) error {
	w := out.Writer

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d case(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All cases passed")
	return nil
}
