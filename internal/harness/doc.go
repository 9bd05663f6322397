// Package harness runs the typemeld conformance corpus.
//
// # Case Format
//
// Cases are YAML files under testdata/cases:
//
//	name: workforce
//	description: "What this case covers"
//	source: |
//	  struct Person {
//	    id: Int32
//	  }
//	targets: [typescript, rust]   # default: every built-in language
//	strict: false
//	expect:
//	  errors: []
//	  warnings: [E102]
//	assertions:
//	  - type: output_contains
//	    language: rust
//	    text: "struct Person {"
//
// Instead of inline source a case may name a file relative to the case
// with `file:`.
//
// # Assertion Types
//
//   - output_contains: the language's output contains text
//   - output_excludes: the language's output does not contain text
//   - output_order: the texts appear in the output in the given order
//   - decl_count: the parsed schema has exactly count declarations
//
// # Golden Files
//
// RunWithGolden compares every generated file against
// testdata/golden/<case>.<language>.golden. To regenerate them, run:
//
//	go test ./internal/harness -update
package harness
