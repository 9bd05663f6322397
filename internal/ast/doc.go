// Package ast provides the schema model produced by the typemeld parser.
//
// This package contains type definitions and pure helpers only. Every other
// internal package imports ast; ast imports nothing internal.
//
// Key design constraints:
//   - Declarations keep source order; generators never reorder them
//   - Source positions are not serialized, so the canonical form and digest
//     of a schema only change when its meaning changes
//   - All JSON tags use snake_case
package ast
