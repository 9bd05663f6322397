package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/glemin5011/typemeld/internal/ast"
)

var (
	// ErrNotFound is returned when a snapshot reference matches nothing.
	ErrNotFound = errors.New("snapshot not found")
	// ErrAmbiguous is returned when an id prefix matches several snapshots.
	ErrAmbiguous = errors.New("ambiguous snapshot reference")
)

// Snapshot is one recorded schema version.
type Snapshot struct {
	ID        string `json:"id"`
	Seq       int64  `json:"seq"`
	Digest    string `json:"digest"`
	Label     string `json:"label,omitempty"`
	Source    string `json:"-"`
	DeclCount int    `json:"decl_count"`
	IRVersion string `json:"ir_version"`
}

// Output is a file generated from a snapshot.
type Output struct {
	SnapshotID string `json:"snapshot_id"`
	Language   string `json:"language"`
	Path       string `json:"path"`
	Digest     string `json:"digest"`
}

const snapshotColumns = `id, seq, digest, label, source, decl_count, ir_version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (Snapshot, error) {
	var snap Snapshot
	err := row.Scan(
		&snap.ID,
		&snap.Seq,
		&snap.Digest,
		&snap.Label,
		&snap.Source,
		&snap.DeclCount,
		&snap.IRVersion,
	)
	return snap, err
}

// ListSnapshots returns snapshots newest first. A limit of zero or less
// returns all of them.
//
// Returns an empty slice (not nil) if the history is empty.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snapshots, nil
}

// Resolve finds a snapshot by reference:
//
//   - "latest" (or empty): the newest snapshot
//   - "latest~N": N snapshots before the newest
//   - a number: the snapshot with that seq
//   - anything else: a snapshot id or unique id prefix
func (s *Store) Resolve(ctx context.Context, ref string) (Snapshot, error) {
	ref = strings.TrimSpace(ref)

	switch {
	case ref == "" || ref == "latest":
		return s.queryOne(ctx, ref, `ORDER BY seq DESC LIMIT 1`)
	case strings.HasPrefix(ref, "latest~"):
		n, err := strconv.Atoi(strings.TrimPrefix(ref, "latest~"))
		if err != nil || n < 0 {
			return Snapshot{}, fmt.Errorf("resolve %q: invalid offset", ref)
		}
		return s.queryOne(ctx, ref, `ORDER BY seq DESC LIMIT 1 OFFSET ?`, n)
	}

	if seq, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.queryOne(ctx, ref, `WHERE seq = ?`, seq)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM snapshots
		WHERE id = ? OR substr(id, 1, ?) = ?
		ORDER BY seq ASC
		LIMIT 2
	`, ref, len(ref), ref)
	if err != nil {
		return Snapshot{}, fmt.Errorf("resolve %q: %w", ref, err)
	}
	defer rows.Close()

	var matches []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return Snapshot{}, fmt.Errorf("resolve %q: %w", ref, err)
		}
		if snap.ID == ref {
			return snap, nil
		}
		matches = append(matches, snap)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("resolve %q: %w", ref, err)
	}

	switch len(matches) {
	case 0:
		return Snapshot{}, fmt.Errorf("resolve %q: %w", ref, ErrNotFound)
	case 1:
		return matches[0], nil
	}
	return Snapshot{}, fmt.Errorf("resolve %q: %w", ref, ErrAmbiguous)
}

func (s *Store) queryOne(ctx context.Context, ref, clause string, args ...any) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM snapshots `+clause, args...)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("resolve %q: %w", ref, ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("resolve %q: %w", ref, err)
	}
	return snap, nil
}

// LoadSchema decodes the schema recorded in snapshot id.
func (s *Store) LoadSchema(ctx context.Context, id string) (*ast.Schema, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load schema %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", id, err)
	}

	schema, err := decodePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", id, err)
	}
	return schema, nil
}

// Outputs returns the files recorded for snapshot id, ordered by language
// and path.
func (s *Store) Outputs(ctx context.Context, id string) ([]Output, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT snapshot_id, language, path, digest
		FROM outputs
		WHERE snapshot_id = ?
		ORDER BY language COLLATE BINARY ASC, path COLLATE BINARY ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query outputs: %w", err)
	}
	defer rows.Close()

	outputs := []Output{}
	for rows.Next() {
		var o Output
		if err := rows.Scan(&o.SnapshotID, &o.Language, &o.Path, &o.Digest); err != nil {
			return nil, fmt.Errorf("scan output: %w", err)
		}
		outputs = append(outputs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outputs: %w", err)
	}
	return outputs, nil
}
