package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glemin5011/typemeld/internal/ast"
	"github.com/glemin5011/typemeld/internal/diff"
	"github.com/glemin5011/typemeld/internal/store"
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	*RootOptions
	DB             string
	FailOnBreaking bool
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff <base> <head>",
		Short: "Compare two schemas and classify breaking changes",
		Long: `Compare two schemas and list what changed between them.

Without --db, base and head are inputs (files, directories or globs).
With --db they are snapshot refs and head defaults to latest.

Each line starts with + (added), - (removed) or ~ (modified); a ! in the
second column marks a change that breaks consumers of the generated types.

Exit codes:
  0 - Compared (no breaking changes with --fail-on-breaking)
  1 - Breaking changes found with --fail-on-breaking, or an invalid schema
  2 - Command error

Examples:
  typemeld diff old.tm new.tm
  typemeld diff --db .typemeld/history.db latest~1
  typemeld diff --db .typemeld/history.db 3 5 --fail-on-breaking`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "compare snapshots in this history database")
	cmd.Flags().BoolVar(&opts.FailOnBreaking, "fail-on-breaking", false, "exit 1 when a change is breaking")

	return cmd
}

func runDiff(opts *DiffOptions, args []string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	var (
		d   *diff.SchemaDiff
		err error
	)
	if opts.DB != "" {
		d, err = diffSnapshots(cmd.Context(), opts, args)
	} else {
		d, err = diffInputs(opts, args, cmd)
	}
	if err != nil {
		return fail(out, err)
	}

	if out.IsJSON() {
		if err := out.Success(d); err != nil {
			return err
		}
	} else if err := diff.Format(out.Writer, d); err != nil {
		return err
	}

	if opts.FailOnBreaking && d.HasBreaking() {
		msg := fmt.Sprintf("%d breaking change(s)", d.Summary.Breaking)
		if !out.IsJSON() {
			_ = out.Error(ErrCodeBreaking, msg, nil)
		}
		return NewExitError(ExitFailure, msg)
	}
	return nil
}

func diffInputs(opts *DiffOptions, args []string, cmd *cobra.Command) (*diff.SchemaDiff, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("diff needs a base and a head input (or --db with snapshot refs)")
	}

	proj, err := loadProject(opts.RootOptions)
	if err != nil {
		return nil, err
	}

	schemas := make([]*ast.Schema, 2)
	for i, arg := range args {
		loaded, diags, err := proj.Load(cmd, []string{arg}, false, false)
		if err != nil {
			return nil, err
		}
		if diags.HasErrors() {
			return nil, &schemaError{diags: diags}
		}
		schemas[i] = loaded.Schema
	}

	d := diff.Compare(schemas[0], schemas[1])
	d.Base, d.Head = args[0], args[1]
	return d, nil
}

func diffSnapshots(ctx context.Context, opts *DiffOptions, args []string) (*diff.SchemaDiff, error) {
	st, err := openHistory(opts.RootOptions, opts.DB)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	refs := []string{args[0], "latest"}
	if len(args) == 2 {
		refs[1] = args[1]
	}

	var (
		schemas [2]*ast.Schema
		names   [2]string
	)
	for i, ref := range refs {
		snap, err := st.Resolve(ctx, ref)
		if err != nil {
			return nil, withCode(ErrCodeStore, err)
		}
		schema, err := st.LoadSchema(ctx, snap.ID)
		if err != nil {
			return nil, withCode(ErrCodeStore, err)
		}
		schemas[i] = schema
		names[i] = snapshotName(snap)
	}

	d := diff.Compare(schemas[0], schemas[1])
	d.Base, d.Head = names[0], names[1]
	return d, nil
}

func snapshotName(s store.Snapshot) string {
	return fmt.Sprintf("%d:%s", s.Seq, shortID(s.ID))
}
