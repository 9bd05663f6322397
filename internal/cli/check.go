package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glemin5011/typemeld/internal/diag"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Strict bool
}

// CheckResult holds the outcome of a check.
type CheckResult struct {
	Valid       bool      `json:"valid"`
	Inputs      []string  `json:"inputs"`
	DeclCount   int       `json:"decl_count"`
	Diagnostics diag.List `json:"diagnostics"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check [inputs...]",
		Short: "Report diagnostics without generating",
		Long: `Parse and check the schema and print every diagnostic.

Nothing is written. Faster than generate for editor and CI feedback.

Exit codes:
  0 - No errors (warnings may be present)
  1 - The schema has errors
  2 - Command error`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat unknown type warnings as errors")

	return cmd
}

func runCheck(opts *CheckOptions, args []string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	proj, err := loadProject(opts.RootOptions)
	if err != nil {
		return fail(out, err)
	}

	loaded, diags, err := proj.Load(cmd, args, true, opts.Strict || proj.Config.Strict)
	if err != nil {
		return fail(out, err)
	}
	out.VerboseLog("Checked %s", describeInputs(loaded))

	if diags.HasErrors() {
		return fail(out, &schemaError{diags: diags})
	}

	if out.IsJSON() {
		return out.Success(CheckResult{
			Valid:       true,
			Inputs:      loaded.Paths(),
			DeclCount:   len(loaded.Schema.Decls),
			Diagnostics: diags,
		})
	}

	out.Diagnostics(out.Writer, diags)
	fmt.Fprintf(out.Writer, "✓ %d declaration(s) in %d file(s), %d warning(s)\n",
		len(loaded.Schema.Decls), len(loaded.Files), len(diags.Warnings()))
	return nil
}
