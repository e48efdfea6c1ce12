package queue

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped on incompatible table changes. There are no
// migrations; an old database must be removed (or `tolk reset` run on a
// compatible one).
const schemaVersion = 1

// ErrSchemaMismatch reports a database written by an incompatible release.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Initialize creates missing tables and checks the stored schema version. It
// is idempotent.
func (s *Store) Initialize(ctx context.Context) error {
	return s.initSchema(ensureContext(ctx))
}

func (s *Store) initSchema(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		var version int
		err := tx.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&version)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, schemaVersion); err != nil {
				return fmt.Errorf("record schema version: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("read schema version: %w", err)
		case version != schemaVersion:
			return fmt.Errorf("%w: %s has version %d, expected %d",
				ErrSchemaMismatch, s.path, version, schemaVersion)
		}
		return nil
	})
}
