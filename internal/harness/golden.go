package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenDir is where golden outputs live, relative to the test's package.
const GoldenDir = "testdata/golden"

// GoldenName returns the golden file name of one output of a case, without
// the .golden suffix.
func GoldenName(caseName, language string) string {
	return caseName + "." + language
}

// RunWithGolden runs a case, fails t on any verification error and compares
// every generated output with its golden file.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, c *Case) (*Result, error) {
	t.Helper()

	result, err := Run(c)
	if err != nil {
		return nil, err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}
	AssertGolden(t, c, result)
	return result, nil
}

// AssertGolden compares the outputs of an existing result with the golden
// files, in target order.
func AssertGolden(t *testing.T, c *Case, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	for _, lang := range c.Languages() {
		out, ok := result.Outputs[lang]
		if !ok {
			continue
		}
		g.Assert(t, GoldenName(c.Name, lang), out)
	}
}

// GoldenPath returns the golden file of one output below dir.
func GoldenPath(dir, caseName, language string) string {
	return filepath.Join(dir, GoldenName(caseName, language)+".golden")
}

// CheckGolden compares the outputs of result with the golden files below
// dir without a testing.T. A missing golden file is a mismatch.
func CheckGolden(dir string, c *Case, result *Result) []string {
	var mismatches []string
	for _, lang := range c.Languages() {
		out, ok := result.Outputs[lang]
		if !ok {
			continue
		}
		path := GoldenPath(dir, c.Name, lang)
		want, err := os.ReadFile(path)
		if err != nil {
			mismatches = append(mismatches, fmt.Sprintf("%s: %v", lang, err))
			continue
		}
		if !bytes.Equal(want, out) {
			mismatches = append(mismatches, fmt.Sprintf("%s: output does not match %s", lang, path))
		}
	}
	return mismatches
}

// UpdateGolden writes the outputs of result as the golden files below dir.
func UpdateGolden(dir string, c *Case, result *Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	for _, lang := range c.Languages() {
		out, ok := result.Outputs[lang]
		if !ok {
			continue
		}
		if err := os.WriteFile(GoldenPath(dir, c.Name, lang), out, 0o644); err != nil {
			return fmt.Errorf("failed to write golden file: %w", err)
		}
	}
	return nil
}
