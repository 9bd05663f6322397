package ast

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalSortsKeys(t *testing.T) {
	got, err := Canonical(map[string]any{"b": 1, "a": "x", "c": []any{true, nil}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1,"c":[true,null]}`, string(got))
}

func TestCanonicalNoHTMLEscaping(t *testing.T) {
	got, err := Canonical(map[string]any{"t": "Box<T> & more"})
	require.NoError(t, err)
	assert.Equal(t, `{"t":"Box<T> & more"}`, string(got))
}

func TestCanonicalNFC(t *testing.T) {
	decomposed, err := Canonical(map[string]any{"name": "Cafe\u0301"})
	require.NoError(t, err)
	composed, err := Canonical(map[string]any{"name": "Caf\u00e9"})
	require.NoError(t, err)
	assert.Equal(t, string(composed), string(decomposed))
}

func TestCanonicalSchemaOmitsPositions(t *testing.T) {
	a := workforce()
	b := workforce()
	b.Decls[0].Struct.Line = 42
	b.Decls[0].File = "other.tm"
	b.Decls[0].Struct.Fields[0].Line = 7

	ca, err := Canonical(a)
	require.NoError(t, err)
	cb, err := Canonical(b)
	require.NoError(t, err)
	assert.Equal(t, string(ca), string(cb))
}

func TestCanonicalRoundTrip(t *testing.T) {
	s := workforce()
	data, err := Canonical(s)
	require.NoError(t, err)

	var back Schema
	require.NoError(t, json.Unmarshal(data, &back))
	require.Len(t, back.Decls, 3)
	assert.Equal(t, "Engineer", back.Decls[0].Name())
	assert.Equal(t, "Person", back.Decls[0].Struct.Extends)
	assert.True(t, back.Decls[1].Struct.Fields[2].Type.IsArray())
}
