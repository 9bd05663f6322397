package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glemin5011/typemeld/internal/ast"
	"github.com/glemin5011/typemeld/internal/diff"
	"github.com/glemin5011/typemeld/internal/store"
)

const (
	personV1 = "struct Person {\n  id: Int32\n  name: String\n}\n"
	personV2 = "struct Person {\n  id: Int64\n  name: String\n  email: String?\n}\n"
)

func TestCheck_Valid(t *testing.T) {
	stdout, _, err := execute(t, "check", writeWorkforce(t))
	require.NoError(t, err)
	assert.Equal(t, "✓ 8 declaration(s) in 1 file(s), 0 warning(s)\n", stdout)
}

func TestCheck_Warnings(t *testing.T) {
	input := writeFile(t, t.TempDir(), "order.tm", "struct Order {\n  total: Money\n}\n")

	stdout, _, err := execute(t, "check", input)
	require.NoError(t, err)
	assert.Contains(t, stdout, "warning [E102] "+input+":2: Order.total: unknown type Money\n")
	assert.Contains(t, stdout, "1 warning(s)")
}

func TestCheck_Errors(t *testing.T) {
	input := writeFile(t, t.TempDir(), "cycle.tm",
		"struct Manager extends Lead {\n  reports: Int32\n}\n\nstruct Lead extends Manager {\n  team: String\n}\n")

	stdout, _, err := execute(t, "check", input)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "[E105]")
	assert.Contains(t, stdout, "Error [E_SCHEMA_INVALID]")
}

func TestCheck_JSON(t *testing.T) {
	stdout, _, err := execute(t, "check", writeWorkforce(t), "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   CheckResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 8, resp.Data.DeclCount)
	assert.Empty(t, resp.Data.Diagnostics)
}

func TestCheck_JSONErrors(t *testing.T) {
	input := writeFile(t, t.TempDir(), "bad.tm", "struct A {\n  x: Int32\n  x: String\n}\n")

	stdout, _, err := execute(t, "check", input, "--format", "json")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeSchemaInvalid, resp.Error.Code)
	assert.NotNil(t, resp.Error.Details)
}

func TestCheck_NoFiles(t *testing.T) {
	stdout, _, err := execute(t, "check", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E003]")
}

func TestParse(t *testing.T) {
	input := writeFile(t, t.TempDir(), "person.tm", personV1)

	stdout, _, err := execute(t, "parse", input)
	require.NoError(t, err)

	var schema ast.Schema
	require.NoError(t, json.Unmarshal([]byte(stdout), &schema))
	require.Len(t, schema.Decls, 1)
	assert.Equal(t, "Person", schema.Decls[0].Name())
	require.NotNil(t, schema.Decls[0].Struct)
	assert.Len(t, schema.Decls[0].Struct.Fields, 2)
}

func TestParse_SyntaxError(t *testing.T) {
	input := writeFile(t, t.TempDir(), "broken.tm", "struct Person {\n  id Int32\n")

	stdout, _, err := execute(t, "parse", input)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E_SCHEMA_INVALID]")
}

func TestLanguages(t *testing.T) {
	stdout, _, err := execute(t, "languages")
	require.NoError(t, err)
	assert.Contains(t, stdout, "PRIMITIVE")
	assert.Contains(t, stdout, "TYPESCRIPT")
	assert.Regexp(t, `Int32\s+number\s+Int\s+i32\s+int32`, stdout)
	assert.Regexp(t, `Void\s+void\s+Void\s+\(\)\s+struct\{\}`, stdout)
}

func TestLanguages_ConfigPrimitives(t *testing.T) {
	cfg := writeFile(t, t.TempDir(), "typemeld.yaml", `primitives:
  Date:
    typescript: Date
    swift: Date
    rust: String
    go: time.Time
`)

	stdout, _, err := execute(t, "--config", cfg, "languages", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data LanguagesResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, []string{"typescript", "swift", "rust", "go"}, resp.Data.Languages)
	assert.Equal(t, map[string]string{
		"typescript": "Date",
		"swift":      "Date",
		"rust":       "String",
		"go":         "time.Time",
	}, resp.Data.Primitives["Date"])
}

func TestDiff_Files(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "v1.tm", personV1)
	head := writeFile(t, dir, "v2.tm", personV2)

	stdout, _, err := execute(t, "diff", base, head)
	require.NoError(t, err)

	want := "diff " + base + ".." + head + "\n" +
		"~! field Person.id: Int32 -> Int64\n" +
		"+  field Person.email: String?\n" +
		"2 changes (1 added, 1 modified, 0 removed), 1 breaking\n"
	if d := cmp.Diff(want, stdout); d != "" {
		t.Errorf("diff output mismatch (-want +got):\n%s", d)
	}
}

func TestDiff_FailOnBreaking(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "v1.tm", personV1)
	head := writeFile(t, dir, "v2.tm", personV2)

	stdout, _, err := execute(t, "diff", base, head, "--fail-on-breaking")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E_BREAKING_CHANGE]: 1 breaking change(s)")

	_, _, err = execute(t, "diff", head, head, "--fail-on-breaking")
	assert.NoError(t, err)
}

func TestDiff_JSON(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "v1.tm", personV1)
	head := writeFile(t, dir, "v2.tm", personV2)

	stdout, _, err := execute(t, "diff", base, head, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data diff.SchemaDiff `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, diff.Summary{Added: 1, Modified: 1, Breaking: 1}, resp.Data.Summary)
}

func TestDiff_NeedsTwoInputs(t *testing.T) {
	stdout, _, err := execute(t, "diff", writeWorkforce(t))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "needs a base and a head")
}

// recordVersions generates each source in turn into one history database.
func recordVersions(t *testing.T, sources ...string) string {
	t.Helper()
	dir := t.TempDir()
	db := filepath.Join(dir, "history.db")
	input := filepath.Join(dir, "schema.tm")
	for i, src := range sources {
		writeFile(t, dir, "schema.tm", src)
		_, _, err := execute(t, "generate", input, "-o", filepath.Join(dir, "dist"), "--db", db,
			"--label", "v"+string(rune('1'+i)))
		require.NoError(t, err)
	}
	return db
}

func TestDiff_Snapshots(t *testing.T) {
	db := recordVersions(t, personV1, personV2)

	stdout, _, err := execute(t, "diff", "--db", db, "latest~1")
	require.NoError(t, err)
	assert.Regexp(t, `^diff 1:[0-9a-f]{8}\.\.2:[0-9a-f]{8}\n`, stdout)
	assert.Contains(t, stdout, "~! field Person.id: Int32 -> Int64\n")

	stdout, _, err = execute(t, "diff", "--db", db, "2", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "-! field Person.email: String?\n")
}

func TestHistory_List(t *testing.T) {
	db := recordVersions(t, personV1, personV2)

	stdout, _, err := execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Regexp(t, `SEQ\s+ID\s+DIGEST\s+DECLS\s+LABEL`, stdout)
	assert.Regexp(t, `(?m)^2\s+[0-9a-f]{8}\s+\S{12}\s+1\s+v2$`, stdout)
	assert.Regexp(t, `(?m)^1\s+[0-9a-f]{8}\s+\S{12}\s+1\s+v1$`, stdout)
	assert.Less(t, strings.Index(stdout, "v2"), strings.Index(stdout, "v1"))
}

func TestHistory_Detail(t *testing.T) {
	db := recordVersions(t, personV1)

	stdout, _, err := execute(t, "history", "latest", "--db", db, "--source")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Snapshot 1\n")
	assert.Contains(t, stdout, "  label:      v1\n")
	assert.Contains(t, stdout, "Outputs:\n")
	assert.Contains(t, stdout, "output.ts")
	assert.Contains(t, stdout, personV1)
}

func TestHistory_JSON(t *testing.T) {
	db := recordVersions(t, personV1)

	stdout, _, err := execute(t, "history", "1", "--db", db, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data SnapshotDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, int64(1), resp.Data.Seq)
	assert.Equal(t, 1, resp.Data.DeclCount)
	assert.Len(t, resp.Data.Outputs, 3)
	assert.Empty(t, resp.Data.Source)
}

func TestHistory_Errors(t *testing.T) {
	stdout, _, err := execute(t, "history")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E008]: no history database")

	stdout, _, err = execute(t, "history", "--db", filepath.Join(t.TempDir(), "none.db"))
	require.Error(t, err)
	assert.Contains(t, stdout, "history database not found")

	db := recordVersions(t, personV1)
	stdout, _, err = execute(t, "history", "7", "--db", db)
	require.Error(t, err)
	assert.Contains(t, stdout, store.ErrNotFound.Error())
}
