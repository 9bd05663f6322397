package diff

import (
	"fmt"
	"io"
	"strings"
)

// Format writes d as one line per change followed by a summary line.
//
//	+  struct Manager extends Person
//	~! field Person.tags: String[] -> Vec<String>
//	-! method Worker.report: (): String
//
// The second column is `!` for breaking changes.
func Format(w io.Writer, d *SchemaDiff) error {
	var sb strings.Builder
	if d.Base != "" || d.Head != "" {
		fmt.Fprintf(&sb, "diff %s..%s\n", orNone(d.Base), orNone(d.Head))
	}
	for _, c := range d.Changes {
		sb.WriteString(FormatChange(c))
		sb.WriteByte('\n')
	}
	sb.WriteString(formatSummary(d.Summary, len(d.Changes)))
	sb.WriteByte('\n')
	_, err := io.WriteString(w, sb.String())
	return err
}

// FormatChange renders a single change line without a trailing newline.
func FormatChange(c Change) string {
	mark := " "
	if c.Breaking {
		mark = "!"
	}
	prefix := actionChar(c.Action) + mark + " "

	if c.Kind == KindDecl {
		switch c.Action {
		case ActionAdded:
			return prefix + c.After
		case ActionRemoved:
			return prefix + c.Before
		}
		return prefix + c.Decl + ": " + c.Before + " -> " + c.After
	}

	name := c.Decl
	if c.Member != "" {
		name += "." + c.Member
	}
	var detail string
	switch c.Action {
	case ActionAdded:
		detail = orNone(c.After)
	case ActionRemoved:
		detail = orNone(c.Before)
	default:
		detail = orNone(c.Before) + " -> " + orNone(c.After)
	}
	return fmt.Sprintf("%s%s %s: %s", prefix, kindLabel(c.Kind), name, detail)
}

func actionChar(a Action) string {
	switch a {
	case ActionAdded:
		return "+"
	case ActionRemoved:
		return "-"
	default:
		return "~"
	}
}

func kindLabel(k ChangeKind) string {
	switch k {
	case KindTypeParams:
		return "type params"
	case KindAliasType:
		return "alias"
	}
	return string(k)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func formatSummary(s Summary, total int) string {
	if total == 0 {
		return "no changes"
	}
	noun := "changes"
	if total == 1 {
		noun = "change"
	}
	return fmt.Sprintf("%d %s (%d added, %d modified, %d removed), %d breaking",
		total, noun, s.Added, s.Modified, s.Removed, s.Breaking)
}
