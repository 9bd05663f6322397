// Package store provides SQLite-backed history of schema snapshots.
//
// Every successful generate run records the schema it compiled. A snapshot
// is only written when the schema digest differs from the latest one, so
// regenerating an unchanged schema leaves the history untouched.
//
// # Layout
//
//   - snapshots: one row per distinct schema, ordered by the logical seq
//     column. The payload is canonical schema JSON compressed with zstd.
//   - outputs: the files generated from a snapshot with their digests.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Snapshot ids are random UUIDs; digests come from ast.Digest (BLAKE3 with
// domain separation).
package store
