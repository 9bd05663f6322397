package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/glemin5011/typemeld/internal/ast"
)

// SaveSnapshot records schema as the newest snapshot.
//
// When the latest snapshot already has the same digest nothing is written
// and that snapshot is returned with inserted=false. Labels and sources of
// unchanged schemas are therefore not recorded.
func (s *Store) SaveSnapshot(ctx context.Context, schema *ast.Schema, label, source string) (Snapshot, bool, error) {
	digest, err := ast.Digest(schema)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("save snapshot: %w", err)
	}
	payload, err := encodePayload(schema)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("save snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("save snapshot: begin: %w", err)
	}
	defer tx.Rollback()

	latest, err := scanSnapshot(tx.QueryRowContext(ctx, `
		SELECT id, seq, digest, label, source, decl_count, ir_version
		FROM snapshots
		ORDER BY seq DESC
		LIMIT 1
	`))
	switch {
	case err == nil && latest.Digest == digest:
		return latest, false, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return Snapshot{}, false, fmt.Errorf("save snapshot: read latest: %w", err)
	}

	snap := Snapshot{
		ID:        s.newID(),
		Seq:       latest.Seq + 1,
		Digest:    digest,
		Label:     label,
		Source:    source,
		DeclCount: len(schema.Decls),
		IRVersion: ast.IRVersion,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots
		(id, seq, digest, label, source, decl_count, ir_version, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		snap.ID,
		snap.Seq,
		snap.Digest,
		snap.Label,
		snap.Source,
		snap.DeclCount,
		snap.IRVersion,
		payload,
	)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("save snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, false, fmt.Errorf("save snapshot: commit: %w", err)
	}
	return snap, true, nil
}

// RecordOutput records a file generated from a snapshot. Recording the same
// language and path again replaces the digest.
//
// Note: The snapshot must exist (foreign key constraint).
func (s *Store) RecordOutput(ctx context.Context, out Output) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outputs (snapshot_id, language, path, digest)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(snapshot_id, language, path) DO UPDATE SET digest = excluded.digest
	`,
		out.SnapshotID,
		out.Language,
		out.Path,
		out.Digest,
	)
	if err != nil {
		return fmt.Errorf("record output: %w", err)
	}
	return nil
}
