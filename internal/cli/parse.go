package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse [inputs...]",
		Short: "Print the parsed schema as JSON",
		Long: `Parse the inputs and print the merged schema as JSON.

This is the document plugins receive as "schema". Only syntax is checked.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(rootOpts, args, cmd)
		},
	}
}

func runParse(opts *RootOptions, args []string, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd)

	proj, err := loadProject(opts)
	if err != nil {
		return fail(out, err)
	}

	loaded, diags, err := proj.Load(cmd, args, false, false)
	if err != nil {
		return fail(out, err)
	}
	if diags.HasErrors() {
		return fail(out, &schemaError{diags: diags})
	}
	out.Diagnostics(out.GetErrWriter(), diags)

	if out.IsJSON() {
		return out.Success(loaded.Schema)
	}

	data, err := json.MarshalIndent(loaded.Schema, "", "  ")
	if err != nil {
		return fail(out, err)
	}
	fmt.Fprintln(out.Writer, string(data))
	return nil
}
