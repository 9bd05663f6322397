package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glemin5011/typemeld/internal/generator"
)

// LanguagesResult lists the targets and the primitive table.
type LanguagesResult struct {
	Languages  []string                     `json:"languages"`
	Primitives map[string]map[string]string `json:"primitives"`
}

// NewLanguagesCommand creates the languages command.
func NewLanguagesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List target languages and primitive mappings",
		Long: `List the target languages and how each primitive maps onto them.

Primitives added in the config's primitives section are included.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLanguages(rootOpts, cmd)
		},
	}
}

func runLanguages(opts *RootOptions, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd)

	proj, err := loadProject(opts)
	if err != nil {
		return fail(out, err)
	}

	langs := generator.Languages()
	table := proj.Table
	names := table.Names()

	if out.IsJSON() {
		result := LanguagesResult{
			Languages:  langs,
			Primitives: make(map[string]map[string]string, len(names)),
		}
		for _, name := range names {
			row := make(map[string]string, len(langs))
			for _, lang := range langs {
				row[lang] = table.Map(lang, name)
			}
			result.Primitives[name] = row
		}
		return out.Success(result)
	}

	tw := tabwriter.NewWriter(out.Writer, 0, 4, 2, ' ', 0)
	header := []string{"PRIMITIVE"}
	for _, lang := range langs {
		header = append(header, strings.ToUpper(lang))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, name := range names {
		row := []string{name}
		for _, lang := range langs {
			row = append(row, table.Map(lang, name))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
