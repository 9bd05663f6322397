package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/glemin5011/typemeld/internal/check"
	"github.com/glemin5011/typemeld/internal/config"
	"github.com/glemin5011/typemeld/internal/diag"
	"github.com/glemin5011/typemeld/internal/langdef"
	"github.com/glemin5011/typemeld/internal/loader"
	"github.com/glemin5011/typemeld/internal/logging"
)

// newFormatter builds the formatter for one command invocation.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
		Logger:    logging.NewWriter(cmd.ErrOrStderr(), opts.Verbose),
	}
}

// project is the configuration a command runs with.
type project struct {
	Config *config.Config
	Table  *langdef.Table
}

// loadProject loads the --config file, or the config discovered in the
// working directory, and builds its primitive table.
func loadProject(opts *RootOptions) (*project, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.Config != "" {
		cfg, err = config.Load(opts.Config)
	} else {
		var cwd string
		cwd, err = os.Getwd()
		if err != nil {
			return nil, err
		}
		cfg, err = config.LoadDir(cwd)
	}
	if err != nil {
		return nil, err
	}

	table, err := cfg.Table()
	if err != nil {
		return nil, withCode(ErrCodeInvalidConfig, err)
	}
	return &project{Config: cfg, Table: table}, nil
}

// Dir is the directory config-relative paths resolve against.
func (p *project) Dir() string {
	if p.Config.Path == "" {
		return ""
	}
	return filepath.Dir(p.Config.Path)
}

// Resolve makes a config-relative path usable from the working directory.
func (p *project) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || p.Dir() == "" {
		return path
	}
	return filepath.Join(p.Dir(), path)
}

// Discover expands command inputs. Without arguments the config's inputs
// are used, and without those the working directory.
func (p *project) Discover(args []string) ([]string, error) {
	if len(args) > 0 {
		return loader.Discover(args, "")
	}
	if len(p.Config.Inputs) > 0 {
		return loader.Discover(p.Config.Inputs, p.Dir())
	}
	return loader.Discover([]string{"."}, "")
}

// Load discovers, reads and parses the inputs. When validate is set the
// merged schema is also checked. Diagnostics are sorted.
func (p *project) Load(cmd *cobra.Command, args []string, validate bool, strict bool) (*loader.LoadResult, diag.List, error) {
	paths, err := p.Discover(args)
	if err != nil {
		return nil, nil, err
	}

	l := &loader.Loader{Mode: loader.LoadModeFailFast, Stdin: cmd.InOrStdin()}
	result, errs := l.Load(paths)
	if len(errs) > 0 {
		return nil, nil, errs[0]
	}

	diags := append(diag.List{}, result.Diagnostics...)
	if validate {
		diags = append(diags, check.Check(result.Schema, p.Table, check.Options{Strict: strict})...)
	}
	diags.Sort()
	return result, diags, nil
}

// describeInputs names the loaded files for log lines.
func describeInputs(result *loader.LoadResult) string {
	if len(result.Files) == 1 {
		return result.Files[0].Path
	}
	return fmt.Sprintf("%d files", len(result.Files))
}
