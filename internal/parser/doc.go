// Package parser turns typemeld DSL source into an ast.Schema.
//
// The language is line oriented:
//
//	// comments and blank lines are ignored
//	type KeyValue = { key: String, value: Int32 }
//
//	struct Engineer extends Person {
//	  specialty: String
//	  isWorking: Boolean
//	}
//
//	interface AdvancedWorker extends Worker {
//	  lead(teamSize: Int32): Void
//	}
//
//	function hire(person: Person, position: String): Boolean
//
// Malformed member lines are skipped with a warning so one typo does not hide
// the rest of the schema. Structural problems (bad headers, unterminated
// blocks) are errors.
package parser
