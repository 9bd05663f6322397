// Package diff compares two schemas and classifies every change as
// breaking or compatible for consumers of the generated types.
package diff

// Action represents the type of change.
type Action string

const (
	ActionAdded    Action = "added"
	ActionModified Action = "modified"
	ActionRemoved  Action = "removed"
)

// ChangeKind names what changed.
type ChangeKind string

const (
	KindDecl       ChangeKind = "decl"        // whole declaration, or its kind
	KindField      ChangeKind = "field"       // struct field
	KindMethod     ChangeKind = "method"      // interface method
	KindExtends    ChangeKind = "extends"     // parent of a struct or interface
	KindTypeParams ChangeKind = "type_params" // generic parameter list
	KindSignature  ChangeKind = "signature"   // function parameters or result
	KindAliasType  ChangeKind = "alias_type"  // target of a type alias
)

// Change is a single difference between base and head.
//
// Before and After hold the DSL rendering of the changed part: a
// declaration header for KindDecl, a type for fields and aliases, a
// signature for methods and functions.
type Change struct {
	Kind     ChangeKind `json:"kind"`
	Decl     string     `json:"decl"`
	Member   string     `json:"member,omitempty"`
	Action   Action     `json:"action"`
	Before   string     `json:"before,omitempty"`
	After    string     `json:"after,omitempty"`
	Breaking bool       `json:"breaking"`
}

// Summary provides aggregate statistics.
type Summary struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Removed  int `json:"removed"`
	Breaking int `json:"breaking"`
}

// SchemaDiff is the complete difference between two schemas.
type SchemaDiff struct {
	Base    string   `json:"base,omitempty"` // base snapshot id or file
	Head    string   `json:"head,omitempty"` // head snapshot id or file
	Changes []Change `json:"changes"`
	Summary Summary  `json:"summary"`
}

// ComputeSummary calculates the summary from changes.
func (d *SchemaDiff) ComputeSummary() {
	d.Summary = Summary{}
	for _, c := range d.Changes {
		switch c.Action {
		case ActionAdded:
			d.Summary.Added++
		case ActionModified:
			d.Summary.Modified++
		case ActionRemoved:
			d.Summary.Removed++
		}
		if c.Breaking {
			d.Summary.Breaking++
		}
	}
}

// HasBreaking reports whether any change is breaking.
func (d *SchemaDiff) HasBreaking() bool {
	return d.Summary.Breaking > 0
}

// Empty reports whether the schemas are equivalent.
func (d *SchemaDiff) Empty() bool {
	return len(d.Changes) == 0
}
