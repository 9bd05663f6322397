package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Language string // Output under test, if any
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Output   string // Full output for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Language != "" {
		fmt.Fprintf(&buf, " (%s)", e.Language)
	}
	buf.WriteByte('\n')
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Output != "" {
		fmt.Fprintf(&buf, "\nFull output:\n")
		for i, line := range strings.Split(strings.TrimRight(e.Output, "\n"), "\n") {
			fmt.Fprintf(&buf, "  %3d %s\n", i+1, line)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion against result and returns one
// message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertOutputContains, AssertOutputExcludes, AssertOutputOrder:
			out, ok := result.Outputs[a.Language]
			if !ok {
				err = fmt.Errorf("assertion[%d]: no %s output (schema has errors or language not targeted)", i, a.Language)
				break
			}
			switch a.Type {
			case AssertOutputContains:
				err = assertOutputContains(string(out), a)
			case AssertOutputExcludes:
				err = assertOutputExcludes(string(out), a)
			default:
				err = assertOutputOrder(string(out), a)
			}
		case AssertDeclCount:
			err = assertDeclCount(result, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

func assertOutputContains(out string, a Assertion) error {
	if strings.Contains(out, a.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOutputContains,
		Language: a.Language,
		Expected: fmt.Sprintf("output contains %q", a.Text),
		Actual:   "not found",
		Output:   out,
	}
}

func assertOutputExcludes(out string, a Assertion) error {
	idx := strings.Index(out, a.Text)
	if idx < 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertOutputExcludes,
		Language: a.Language,
		Expected: fmt.Sprintf("output does not contain %q", a.Text),
		Actual:   fmt.Sprintf("found on line %d", strings.Count(out[:idx], "\n")+1),
		Output:   out,
	}
}

// assertOutputOrder checks that texts appear in order. They need not be
// adjacent.
func assertOutputOrder(out string, a Assertion) error {
	pos := 0
	for i, text := range a.Texts {
		idx := strings.Index(out[pos:], text)
		if idx < 0 {
			actual := fmt.Sprintf("missing %q", text)
			if strings.Contains(out, text) {
				actual = fmt.Sprintf("%q appears before %q", text, a.Texts[i-1])
			}
			return &AssertionError{
				Type:     AssertOutputOrder,
				Language: a.Language,
				Expected: fmt.Sprintf("texts in order: %q", a.Texts),
				Actual:   actual,
				Output:   out,
			}
		}
		pos += idx + len(text)
	}
	return nil
}

func assertDeclCount(result *Result, a Assertion) error {
	count := 0
	if result.Schema != nil {
		count = len(result.Schema.Decls)
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertDeclCount,
			Expected: fmt.Sprintf("%d declarations", a.Count),
			Actual:   fmt.Sprintf("%d declarations", count),
		}
	}
	return nil
}
