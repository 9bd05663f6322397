package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/glemin5011/typemeld/internal/build"
	"github.com/glemin5011/typemeld/internal/diag"
	"github.com/glemin5011/typemeld/internal/generator"
	"github.com/glemin5011/typemeld/internal/loader"
	"github.com/glemin5011/typemeld/internal/plugin"
	"github.com/glemin5011/typemeld/internal/store"
	"github.com/glemin5011/typemeld/internal/watch"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Out       string   // output directory
	Languages []string // target languages
	DB        string   // history database
	Label     string   // snapshot label
	Plugins   []string // plugin specs
	Strict    bool
	Stdout    bool
	Watch     bool
}

// GeneratedFile is one file in a generate result.
type GeneratedFile struct {
	Language string `json:"language"`
	Path     string `json:"path"`
	Digest   string `json:"digest"`
	Content  string `json:"content,omitempty"`
}

// GenerateResult is the outcome of one generation run.
type GenerateResult struct {
	Inputs      []string        `json:"inputs"`
	DeclCount   int             `json:"decl_count"`
	Files       []GeneratedFile `json:"files"`
	Snapshot    *store.Snapshot `json:"snapshot,omitempty"`
	Recorded    bool            `json:"recorded"`
	Plugins     []string        `json:"plugins,omitempty"`
	Diagnostics diag.List       `json:"diagnostics,omitempty"`

	stdout bool
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate [inputs...]",
		Short: "Generate declarations for the target languages",
		Long: `Generate type declarations for every target language.

Inputs are files, directories (searched for *.tm and *.typemeld) or globs.
Without inputs the config's inputs are used, then the working directory.
Use - to read the schema from standard input.

Examples:
  typemeld generate schema.tm
  typemeld generate ./schemas -l typescript -l go -o ./gen
  typemeld generate --db .typemeld/history.db --label v2
  typemeld generate --plugin "gen-docs --style short:out=./dist/docs"
  typemeld generate --watch`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output directory (default from config, then dist)")
	cmd.Flags().StringSliceVarP(&opts.Languages, "lang", "l", nil, "target language (repeatable)")
	cmd.Flags().StringVar(&opts.DB, "db", "", "record a snapshot in this history database")
	cmd.Flags().StringVar(&opts.Label, "label", "", "label for the recorded snapshot")
	cmd.Flags().StringArrayVar(&opts.Plugins, "plugin", nil, `run an external generator ("cmd args:out=dir")`)
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat unknown type warnings as errors")
	cmd.Flags().BoolVar(&opts.Stdout, "stdout", false, "print generated files instead of writing them")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "regenerate when input files change")

	return cmd
}

// generation is a resolved generate invocation.
type generation struct {
	project *project
	args    []string
	targets []build.Target
	outDir  string
	db      string
	label   string
	plugins []plugin.Plugin
	strict  bool
	stdout  bool
}

func runGenerate(opts *GenerateOptions, args []string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	proj, err := loadProject(opts.RootOptions)
	if err != nil {
		return fail(out, err)
	}

	g, err := newGeneration(opts, proj, args)
	if err != nil {
		return fail(out, err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Watch {
		return watchGenerate(ctx, out, g, cmd)
	}

	result, err := g.run(ctx, out, cmd)
	if err != nil {
		return fail(out, err)
	}
	return outputGenerateSuccess(out, result)
}

func newGeneration(opts *GenerateOptions, proj *project, args []string) (*generation, error) {
	cfg := proj.Config
	g := &generation{
		project: proj,
		args:    args,
		outDir:  opts.Out,
		db:      opts.DB,
		label:   opts.Label,
		strict:  opts.Strict || cfg.Strict,
		stdout:  opts.Stdout,
	}

	if g.outDir == "" {
		g.outDir = proj.Resolve(cfg.OutDir)
	}
	if g.db == "" {
		g.db = proj.Resolve(cfg.Store)
	}

	targets, err := selectTargets(cfg.Targets, opts.Languages)
	if err != nil {
		return nil, err
	}
	g.targets = targets

	for _, p := range cfg.Plugins {
		p.OutDir = proj.Resolve(p.OutDir)
		g.plugins = append(g.plugins, p)
	}
	for _, spec := range opts.Plugins {
		p, err := plugin.ParseSpec(spec)
		if err != nil {
			return nil, withCode(ErrCodePlugin, err)
		}
		g.plugins = append(g.plugins, p)
	}

	if opts.Watch && slices.Contains(args, loader.Stdin) {
		return nil, errors.New("--watch cannot read from standard input")
	}
	return g, nil
}

// selectTargets keeps the configured targets, narrowed to langs when given.
// A language without a configured target gets the defaults.
func selectTargets(configured []build.Target, langs []string) ([]build.Target, error) {
	if len(langs) == 0 {
		return configured, nil
	}

	known := generator.Languages()
	targets := make([]build.Target, 0, len(langs))
	for _, lang := range langs {
		if !slices.Contains(known, lang) {
			return nil, fmt.Errorf("unknown language %q: must be one of %v", lang, known)
		}
		target := build.Target{Language: lang}
		for _, t := range configured {
			if t.Language == lang {
				target = t
				break
			}
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// run loads, checks and generates once. Warnings are printed to the error
// writer; a schema with errors fails before anything is written.
func (g *generation) run(ctx context.Context, out *OutputFormatter, cmd *cobra.Command) (*GenerateResult, error) {
	loaded, diags, err := g.project.Load(cmd, g.args, true, g.strict)
	if err != nil {
		return nil, err
	}
	out.VerboseLog("Loaded %s", describeInputs(loaded))
	if diags.HasErrors() {
		return nil, &schemaError{diags: diags}
	}

	artifacts, err := build.Generate(ctx, loaded.Schema, g.targets, g.project.Table, generator.Options{})
	if err != nil {
		return nil, err
	}
	diags = append(diags, build.Diagnostics(artifacts)...)
	diags.Sort()
	out.Diagnostics(out.GetErrWriter(), diags)

	result := &GenerateResult{
		Inputs:      loaded.Paths(),
		DeclCount:   len(loaded.Schema.Decls),
		Files:       make([]GeneratedFile, len(artifacts)),
		Diagnostics: diags,
		stdout:      g.stdout,
	}

	paths := make([]string, len(artifacts))
	if g.stdout {
		for i, a := range artifacts {
			paths[i] = a.Path
		}
	} else {
		written, err := build.Write(g.outDir, artifacts)
		if err != nil {
			return nil, withCode(ErrCodeWriteFailed, err)
		}
		copy(paths, written)
	}
	for i, a := range artifacts {
		result.Files[i] = GeneratedFile{Language: a.Language, Path: paths[i], Digest: a.Digest}
		if g.stdout {
			result.Files[i].Content = string(a.Content)
		}
		out.VerboseLog("Generated %s (%s)", paths[i], a.Language)
	}

	if g.db != "" {
		snap, inserted, err := g.record(ctx, loaded, result.Files)
		if err != nil {
			return nil, withCode(ErrCodeStore, err)
		}
		result.Snapshot = &snap
		result.Recorded = inserted
	}

	if len(g.plugins) > 0 {
		runner := plugin.NewRunner(out.logger())
		if err := runner.Run(ctx, g.plugins, loaded.Schema); err != nil {
			return nil, withCode(ErrCodePlugin, err)
		}
		for _, p := range g.plugins {
			result.Plugins = append(result.Plugins, p.Name)
		}
	}

	return result, nil
}

// record saves a snapshot of the schema and the files generated from it.
func (g *generation) record(ctx context.Context, loaded *loader.LoadResult, files []GeneratedFile) (store.Snapshot, bool, error) {
	if dir := filepath.Dir(g.db); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return store.Snapshot{}, false, fmt.Errorf("create database directory: %w", err)
		}
	}

	st, err := store.Open(g.db)
	if err != nil {
		return store.Snapshot{}, false, err
	}
	defer st.Close()

	snap, inserted, err := st.SaveSnapshot(ctx, loaded.Schema, g.label, loaded.Source())
	if err != nil {
		return store.Snapshot{}, false, err
	}
	for _, f := range files {
		err := st.RecordOutput(ctx, store.Output{
			SnapshotID: snap.ID,
			Language:   f.Language,
			Path:       filepath.ToSlash(f.Path),
			Digest:     f.Digest,
		})
		if err != nil {
			return store.Snapshot{}, false, err
		}
	}
	return snap, inserted, nil
}

// watchGenerate generates once, then again whenever a source file below
// the input directories settles. Failed runs are reported and watching
// continues until interrupted.
func watchGenerate(ctx context.Context, out *OutputFormatter, g *generation, cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := g.project.Discover(g.args)
	if err != nil {
		return fail(out, err)
	}
	dirs := watchDirs(paths)

	rebuild := func(ctx context.Context) {
		result, err := g.run(ctx, out, cmd)
		if err != nil {
			_ = fail(out, err)
			return
		}
		_ = outputGenerateSuccess(out, result)
	}

	rebuild(ctx)
	out.logger().Info("Watching for changes", zap.Strings("dirs", dirs))

	w := &watch.Watcher{Logger: out.logger(), Debounce: watch.DefaultDebounce}
	err = w.Run(ctx, dirs, loader.IsSource, func(ctx context.Context, changed []string) error {
		out.logger().Info("Change detected", zap.Strings("paths", changed))
		rebuild(ctx)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fail(out, err)
	}
	return nil
}

// watchDirs returns the distinct directories holding paths.
func watchDirs(paths []string) []string {
	var dirs []string
	for _, p := range paths {
		dir := filepath.Dir(p)
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	slices.Sort(dirs)
	return dirs
}

// outputGenerateSuccess outputs a successful generation.
func outputGenerateSuccess(out *OutputFormatter, result *GenerateResult) error {
	if out.IsJSON() {
		return out.Success(result)
	}

	w := out.Writer
	if result.stdout {
		for _, f := range result.Files {
			fmt.Fprint(w, f.Content)
		}
		return nil
	}

	fmt.Fprintf(w, "✓ Generated %d file(s) from %d declaration(s)\n", len(result.Files), result.DeclCount)
	for _, f := range result.Files {
		fmt.Fprintf(w, "  %-10s  %s\n", f.Language, f.Path)
	}
	if result.Snapshot != nil {
		state := "unchanged"
		if result.Recorded {
			state = "recorded"
		}
		fmt.Fprintf(w, "Snapshot %d (%s) %s\n", result.Snapshot.Seq, shortID(result.Snapshot.ID), state)
	}
	for _, name := range result.Plugins {
		fmt.Fprintf(w, "Plugin %s done\n", name)
	}
	return nil
}
