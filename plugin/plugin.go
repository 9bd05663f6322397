// Package plugin is the SDK for external typemeld generators.
//
// A plugin is an executable. typemeld writes a JSON Request to its stdin
// and the plugin writes its own files under Request.OutputBase:
//
//	func main() {
//		plugin.Init("gen-docs", func(req *plugin.Request) error {
//			return req.WriteFile("types.md", render(req.Schema))
//		})
//	}
package plugin

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/glemin5011/typemeld/internal/ast"
)

// IRVersion is the request format version this SDK understands.
const IRVersion = ast.IRVersion

// Request is the payload a plugin receives on stdin.
type Request struct {
	IRVersion  string            `json:"ir_version"`
	Schema     *ast.Schema       `json:"schema"`
	OutputBase string            `json:"output_base"`
	Options    map[string]string `json:"options,omitempty"`
}

// Func defines plugin behavior.
type Func func(req *Request) error

// Serve decodes a Request from r and passes it to fn.
func Serve(r io.Reader, fn Func) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}

	// Check the version before decoding so a newer schema layout is
	// reported as a version mismatch instead of a decode error.
	version := gjson.GetBytes(data, "ir_version")
	if !version.Exists() {
		return fmt.Errorf("request has no ir_version")
	}
	if version.String() != IRVersion {
		return fmt.Errorf("unsupported ir_version %q (plugin supports %q)", version.String(), IRVersion)
	}

	req := &Request{}
	if err := json.Unmarshal(data, req); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	if req.Schema == nil {
		req.Schema = &ast.Schema{}
	}
	return fn(req)
}

// Init is called from a plugin's main. It serves the request on stdin and
// exits with status 1 after reporting any error on stderr.
func Init(name string, fn Func) {
	if err := Serve(os.Stdin, fn); err != nil {
		fmt.Fprintf(os.Stderr, "[typemeld:plugin] %s: %v\n", name, err)
		os.Exit(1)
	}
}

// WriteFile writes data to rel under the request's output base, creating
// parent directories. rel must stay inside the output base.
func (r *Request) WriteFile(rel string, data []byte) error {
	if !filepath.IsLocal(rel) {
		return fmt.Errorf("path %q escapes the output base", rel)
	}
	path := filepath.Join(r.OutputBase, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}
