// Package loader discovers DSL source files and parses them into a single
// schema.
package loader

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/glemin5011/typemeld/internal/ast"
	"github.com/glemin5011/typemeld/internal/diag"
	"github.com/glemin5011/typemeld/internal/parser"
)

// LoadMode controls how errors are handled during loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Error codes shared with the CLI.
const (
	ErrCodeScanError  = "E002" // directory or glob scan failed
	ErrCodeNoFiles    = "E003" // no DSL files matched
	ErrCodeReadFailed = "E004" // file could not be read
	ErrCodeNotFound   = "E005" // path does not exist
)

// Stdin is the input name that reads source from standard input.
const Stdin = "-"

// SourcePattern matches DSL files below a directory.
const SourcePattern = "**/*.{tm,typemeld}"

// LoadError represents an error that occurred while discovering or reading
// input files.
type LoadError struct {
	Code    string
	Message string
	Path    string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// File is one loaded source file.
type File struct {
	Path   string
	Source string
}

// LoadResult contains the merged schema and everything found on the way.
type LoadResult struct {
	Schema      *ast.Schema
	Files       []File
	Diagnostics diag.List
}

// Paths returns the paths of the loaded files in load order.
func (r *LoadResult) Paths() []string {
	paths := make([]string, len(r.Files))
	for i, f := range r.Files {
		paths[i] = f.Path
	}
	return paths
}

// Source returns the concatenated source of all files, each preceded by a
// comment naming it.
func (r *LoadResult) Source() string {
	var b strings.Builder
	for _, f := range r.Files {
		fmt.Fprintf(&b, "// file: %s\n%s", f.Path, f.Source)
		if !strings.HasSuffix(f.Source, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Discover expands patterns into a sorted, de-duplicated list of files.
// A pattern is Stdin, a file, a directory (searched recursively for
// SourcePattern) or a doublestar glob. Relative patterns are resolved
// against baseDir.
func Discover(patterns []string, baseDir string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, pattern := range patterns {
		if pattern == Stdin {
			add(Stdin)
			continue
		}

		path := pattern
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}

		if isGlob(pattern) {
			matches, err := glob(path)
			if err != nil {
				return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("bad pattern: %v", err), Path: pattern}
			}
			for _, m := range matches {
				add(m)
			}
			continue
		}

		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: "no such file or directory", Path: pattern}
		}
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing input: %v", err), Path: pattern}
		}
		if !info.IsDir() {
			add(path)
			continue
		}

		found, err := FindSourceFiles(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err), Path: pattern}
		}
		for _, f := range found {
			add(f)
		}
	}

	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no DSL files found in %s", strings.Join(patterns, ", "))}
	}

	sort.Strings(files)
	return files, nil
}

// FindSourceFiles walks dir and returns every file matching SourcePattern.
func FindSourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if ok, _ := doublestar.Match(SourcePattern, filepath.ToSlash(rel)); ok {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// IsSource reports whether path names a DSL file.
func IsSource(path string) bool {
	ok, _ := doublestar.Match(SourcePattern, filepath.ToSlash(filepath.Base(path)))
	return ok
}

func isGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

func glob(pattern string) ([]string, error) {
	base, pat := doublestar.SplitPattern(filepath.ToSlash(pattern))
	if !doublestar.ValidatePattern(pat) {
		return nil, doublestar.ErrBadPattern
	}
	matches, err := doublestar.Glob(os.DirFS(filepath.FromSlash(base)), pat, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = filepath.Join(filepath.FromSlash(base), filepath.FromSlash(m))
	}
	return out, nil
}

// Loader reads and parses DSL files.
type Loader struct {
	Mode  LoadMode
	Stdin io.Reader
}

// Load reads and parses paths with standard input wired to os.Stdin.
func Load(paths []string, mode LoadMode) (*LoadResult, []error) {
	l := &Loader{Mode: mode, Stdin: os.Stdin}
	return l.Load(paths)
}

// Load reads every path, parses it and merges the declarations into one
// schema in path order. Parse problems are diagnostics on the result; only
// I/O failures are errors.
func (l *Loader) Load(paths []string) (*LoadResult, []error) {
	result := &LoadResult{Schema: &ast.Schema{Decls: []ast.Decl{}}}
	if len(paths) == 0 {
		return result, []error{&LoadError{Code: ErrCodeNoFiles, Message: "no input files"}}
	}

	var errs []error
	for _, path := range paths {
		src, err := l.read(path)
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeReadFailed, Message: err.Error(), Path: path})
			if l.Mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}

		name := path
		if path == Stdin {
			name = "<stdin>"
		}
		schema, diags := parser.Parse(name, src)
		result.Schema.Merge(schema)
		result.Files = append(result.Files, File{Path: name, Source: src})
		result.Diagnostics = append(result.Diagnostics, diags...)
	}

	return result, errs
}

func (l *Loader) read(path string) (string, error) {
	if path == Stdin {
		if l.Stdin == nil {
			return "", fmt.Errorf("standard input is not available")
		}
		data, err := io.ReadAll(l.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading standard input: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return string(data), nil
}
