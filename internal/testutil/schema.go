// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/glemin5011/typemeld/internal/ast"
	"github.com/glemin5011/typemeld/internal/parser"
)

// Workforce is the sample schema used across tests: two capabilities, the
// Person/Engineer records, a record alias, a generic record and free
// functions.
const Workforce = `interface Worker {
  work(hours: Int32): Void
  report(): String
}

interface AdvancedWorker extends Worker {
  lead(teamSize: Int32): Void
}

struct Engineer extends Person {
  specialty: String
  isWorking: Boolean
}

function hire(person: Person, position: String): Boolean

struct Person {
  id: Int32
  name: String
  tags: String[]
}

type KeyValue = { key: String, value: Int32 }

function addTags(person: Person, newTags: String[]): Person

struct SomeThing<T> {
  property: T
  another: Void
}
`

// MustParse parses src and fails the test on any diagnostic.
func MustParse(t testing.TB, src string) *ast.Schema {
	t.Helper()
	schema, diags := parser.Parse("", src)
	if len(diags) > 0 {
		t.Fatalf("parse: %v", diags)
	}
	return schema
}
