package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glemin5011/typemeld/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB     string
	Limit  int
	Source bool
}

// SnapshotDetail is one snapshot with the files generated from it.
type SnapshotDetail struct {
	store.Snapshot
	Source  string         `json:"source,omitempty"`
	Outputs []store.Output `json:"outputs"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [ref]",
		Short: "List recorded schema snapshots",
		Long: `List the schema snapshots recorded by generate --db, newest first.

With a ref, show one snapshot and the files generated from it. A ref is
"latest", "latest~N", a sequence number, or a snapshot id or id prefix.

Examples:
  typemeld history --db .typemeld/history.db
  typemeld history latest~1 --db .typemeld/history.db --source`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "history database (default from config)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum snapshots to list (0 for all)")
	cmd.Flags().BoolVar(&opts.Source, "source", false, "print the recorded source of the snapshot")

	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	st, err := openHistory(opts.RootOptions, opts.DB)
	if err != nil {
		return fail(out, err)
	}
	defer st.Close()

	ctx := cmd.Context()

	if len(args) == 0 {
		snapshots, err := st.ListSnapshots(ctx, opts.Limit)
		if err != nil {
			return fail(out, withCode(ErrCodeStore, err))
		}
		if out.IsJSON() {
			return out.Success(snapshots)
		}
		if len(snapshots) == 0 {
			fmt.Fprintln(out.Writer, "No snapshots recorded.")
			return nil
		}
		tw := tabwriter.NewWriter(out.Writer, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SEQ\tID\tDIGEST\tDECLS\tLABEL")
		for _, s := range snapshots {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", s.Seq, shortID(s.ID), shortDigest(s.Digest), s.DeclCount, s.Label)
		}
		return tw.Flush()
	}

	snap, err := st.Resolve(ctx, args[0])
	if err != nil {
		return fail(out, withCode(ErrCodeStore, err))
	}
	outputs, err := st.Outputs(ctx, snap.ID)
	if err != nil {
		return fail(out, withCode(ErrCodeStore, err))
	}

	detail := SnapshotDetail{Snapshot: snap, Outputs: outputs}
	if opts.Source {
		detail.Source = snap.Source
	}
	if out.IsJSON() {
		return out.Success(detail)
	}

	w := out.Writer
	fmt.Fprintf(w, "Snapshot %d\n", snap.Seq)
	fmt.Fprintf(w, "  id:         %s\n", snap.ID)
	fmt.Fprintf(w, "  digest:     %s\n", snap.Digest)
	if snap.Label != "" {
		fmt.Fprintf(w, "  label:      %s\n", snap.Label)
	}
	fmt.Fprintf(w, "  decls:      %d\n", snap.DeclCount)
	fmt.Fprintf(w, "  ir version: %s\n", snap.IRVersion)
	if len(outputs) > 0 {
		fmt.Fprintln(w, "Outputs:")
		for _, o := range outputs {
			fmt.Fprintf(w, "  %-10s  %s  %s\n", o.Language, shortDigest(o.Digest), o.Path)
		}
	}
	if opts.Source {
		fmt.Fprintln(w)
		fmt.Fprint(w, snap.Source)
	}
	return nil
}

// openHistory opens an existing history database. The path comes from
// the flag, then the config's store.
func openHistory(opts *RootOptions, db string) (*store.Store, error) {
	if db == "" {
		proj, err := loadProject(opts)
		if err != nil {
			return nil, err
		}
		db = proj.Resolve(proj.Config.Store)
	}
	if db == "" {
		return nil, withCode(ErrCodeStore, errors.New("no history database: pass --db or set store in the config"))
	}
	if _, err := os.Stat(db); err != nil {
		return nil, withCode(ErrCodeStore, fmt.Errorf("history database not found: %s", db))
	}

	st, err := store.Open(db)
	if err != nil {
		return nil, withCode(ErrCodeStore, err)
	}
	return st, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
