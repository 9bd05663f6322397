package ast

// Version constants for the schema model and the tool.
const (
	// IRVersion is the schema JSON version handed to plugins and stored in snapshots.
	IRVersion = "1"

	// Version is the typemeld release version.
	Version = "0.1.0"
)
