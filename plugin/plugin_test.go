package plugin

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe(t *testing.T) {
	input := `{"ir_version":"1","schema":{"decls":[{"kind":"struct","struct":{"name":"Person","fields":[]}}]},"output_base":"out","options":{"style":"short"}}`

	var got *Request
	err := Serve(strings.NewReader(input), func(req *Request) error {
		got = req
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "out", got.OutputBase)
	assert.Equal(t, "short", got.Options["style"])
	require.Len(t, got.Schema.Decls, 1)
	assert.Equal(t, "Person", got.Schema.Decls[0].Name())
}

func TestServeVersionCheck(t *testing.T) {
	called := false
	fn := func(*Request) error {
		called = true
		return nil
	}

	err := Serve(strings.NewReader(`{"schema":{"decls":[]}}`), fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ir_version")

	// The schema is not valid for this version, but the version is checked first.
	err = Serve(strings.NewReader(`{"ir_version":"2","schema":"v2-layout"}`), fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported ir_version "2"`)

	assert.False(t, called)
}

func TestServeEmptySchema(t *testing.T) {
	err := Serve(strings.NewReader(`{"ir_version":"1","output_base":"x"}`), func(req *Request) error {
		require.NotNil(t, req.Schema)
		assert.Empty(t, req.Schema.Decls)
		return nil
	})
	require.NoError(t, err)
}

func TestServeReturnsFuncError(t *testing.T) {
	err := Serve(strings.NewReader(`{"ir_version":"1"}`), func(*Request) error {
		return os.ErrPermission
	})
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	req := &Request{OutputBase: dir}

	require.NoError(t, req.WriteFile(filepath.Join("nested", "types.md"), []byte("# Types\n")))
	data, err := os.ReadFile(filepath.Join(dir, "nested", "types.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Types\n", string(data))

	err = req.WriteFile("../escape.txt", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes the output base")
}
