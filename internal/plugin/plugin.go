// Package plugin runs external generators.
//
// A plugin is declared as `command args:out=dir`. The runner serializes the
// schema once, patches output_base for each plugin and pipes the request to
// the plugin's stdin.
package plugin

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/glemin5011/typemeld/internal/ast"
	sdk "github.com/glemin5011/typemeld/plugin"
)

const (
	outMarker = ":out="
	errPrefix = "[typemeld:plugin]"
)

// Plugin is an external generator invocation.
type Plugin struct {
	Name    string            `json:"name"`
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	OutDir  string            `json:"out"`
	Options map[string]string `json:"options,omitempty"`
}

// ParseSpec parses a plugin flag value:
//
//	--plugin="gen-docs --style short:out=./dist/docs"
func ParseSpec(value string) (Plugin, error) {
	idx := strings.LastIndex(value, outMarker)
	if idx < 0 {
		return Plugin{}, fmt.Errorf("invalid plugin value (missing %q): %s", outMarker[1:], value)
	}

	fields := strings.Fields(value[:idx])
	if len(fields) == 0 {
		return Plugin{}, fmt.Errorf("invalid plugin value (bad command): %s", value)
	}
	out := strings.TrimSpace(value[idx+len(outMarker):])
	if out == "" {
		return Plugin{}, fmt.Errorf("invalid plugin out value: %s", value)
	}

	p := Plugin{
		Name:    filepath.Base(fields[0]),
		Command: fields[0],
		OutDir:  out,
	}
	if len(fields) > 1 {
		p.Args = fields[1:]
	}
	return p, nil
}

func (p Plugin) String() string {
	return fmt.Sprintf("plugin command: %s, output: [%s]", strings.Join(append([]string{p.Command}, p.Args...), " "), p.OutDir)
}

// Runner executes plugins.
type Runner struct {
	Logger *zap.Logger
}

// NewRunner returns a Runner logging to logger. A nil logger discards output.
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Logger: logger}
}

// Run invokes every plugin in order with schema. All plugins run even when
// one fails; the returned error joins one error per failed plugin.
func (r *Runner) Run(ctx context.Context, plugins []Plugin, schema *ast.Schema) error {
	if len(plugins) == 0 {
		return nil
	}
	if schema == nil {
		schema = &ast.Schema{Decls: []ast.Decl{}}
	}

	base, err := json.Marshal(sdk.Request{IRVersion: ast.IRVersion, Schema: schema})
	if err != nil {
		return fmt.Errorf("encode plugin request: %w", err)
	}

	var errs []error
	for _, p := range plugins {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if err := r.runOne(ctx, p, base); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", errPrefix, p.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Runner) runOne(ctx context.Context, p Plugin, base []byte) error {
	// Patch the per-plugin values instead of re-encoding the schema.
	req, err := sjson.SetBytes(base, "output_base", p.OutDir)
	if err != nil {
		return err
	}
	if len(p.Options) > 0 {
		if req, err = sjson.SetBytes(req, "options", p.Options); err != nil {
			return err
		}
	}

	path, err := exec.LookPath(p.Command)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p.OutDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, p.Args...)
	cmd.Stdin = bytes.NewReader(req)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.Logger.Debug("Running plugin",
		zap.String("plugin", p.Name),
		zap.String("path", path),
		zap.String("out", p.OutDir))

	runErr := cmd.Run()
	r.logLines(p.Name, "stdout", stdout.Bytes(), r.Logger.Info)
	r.logLines(p.Name, "stderr", stderr.Bytes(), r.Logger.Warn)

	if runErr != nil {
		if msg := lastLine(stderr.Bytes()); msg != "" {
			return fmt.Errorf("%w: %s", runErr, msg)
		}
		return runErr
	}
	return nil
}

func (r *Runner) logLines(name, stream string, data []byte, log func(string, ...zap.Field)) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			log("Plugin output", zap.String("plugin", name), zap.String("stream", stream), zap.String("line", line))
		}
	}
}

func lastLine(data []byte) string {
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
