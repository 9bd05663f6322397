// Package build runs the target generators over a schema and writes the
// results to an output directory.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/glemin5011/typemeld/internal/ast"
	"github.com/glemin5011/typemeld/internal/diag"
	"github.com/glemin5011/typemeld/internal/generator"
	"github.com/glemin5011/typemeld/internal/langdef"
)

// Target selects a generator and where its output goes.
type Target struct {
	Language string `json:"language"`
	// File overrides the generator's default file name, relative to the
	// output directory.
	File string `json:"file,omitempty"`
	// Package overrides the Go package clause.
	Package string `json:"package,omitempty"`
}

// Targets returns one default Target per language.
func Targets(languages ...string) []Target {
	targets := make([]Target, len(languages))
	for i, l := range languages {
		targets[i] = Target{Language: l}
	}
	return targets
}

// Artifact is one generated file.
type Artifact struct {
	Language    string    `json:"language"`
	Path        string    `json:"path"`
	Content     []byte    `json:"-"`
	Digest      string    `json:"digest"`
	Diagnostics diag.List `json:"diagnostics,omitempty"`
}

// Generate renders schema for every target concurrently. Artifacts are
// returned in target order. The first generator error cancels the rest.
func Generate(ctx context.Context, schema *ast.Schema, targets []Target, table *langdef.Table, opts generator.Options) ([]Artifact, error) {
	gens := make([]generator.Generator, len(targets))
	for i, t := range targets {
		o := opts
		if t.Package != "" {
			o.GoPackage = t.Package
		}
		gen, err := generator.New(t.Language, table, o)
		if err != nil {
			return nil, err
		}
		gens[i] = gen
	}

	artifacts := make([]Artifact, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i := range targets {
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			out, err := gens[i].Generate(schema)
			if err != nil {
				return fmt.Errorf("generate %s: %w", targets[i].Language, err)
			}
			path := targets[i].File
			if path == "" {
				path = gens[i].FileName()
			}
			artifacts[i] = Artifact{
				Language:    out.Language,
				Path:        filepath.ToSlash(path),
				Content:     out.Content,
				Digest:      ast.ContentDigest(out.Content),
				Diagnostics: out.Diagnostics,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// Write creates outDir and writes every artifact below it. It returns the
// written paths.
func Write(outDir string, artifacts []Artifact) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	paths := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		if !filepath.IsLocal(filepath.FromSlash(a.Path)) {
			return paths, fmt.Errorf("artifact path %q escapes %s", a.Path, outDir)
		}
		path := filepath.Join(outDir, filepath.FromSlash(a.Path))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return paths, fmt.Errorf("create directory for %s: %w", a.Path, err)
		}
		if err := os.WriteFile(path, a.Content, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", a.Path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Diagnostics collects the diagnostics of all artifacts.
func Diagnostics(artifacts []Artifact) diag.List {
	var all diag.List
	for _, a := range artifacts {
		all = append(all, a.Diagnostics...)
	}
	return all
}
