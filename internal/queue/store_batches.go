package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const batchColumns = `id, source_path, source_hash, src_lang, target_lang, status, chunk_count, created_at, updated_at`

// CreateBatch records a new batch and enqueues its chunks in one transaction,
// so a crash never leaves a batch without its chunks.
func (s *Store) CreateBatch(ctx context.Context, spec BatchSpec, texts []string) (*Batch, []int64, error) {
	ctx = ensureContext(ctx)
	batch := &Batch{
		ID:         uuid.NewString(),
		SourcePath: spec.SourcePath,
		SourceHash: spec.SourceHash,
		SrcLang:    spec.SrcLang,
		TargetLang: spec.TargetLang,
		Status:     BatchTranslating,
		ChunkCount: len(texts),
	}

	var ids []int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		timestamp := nowTimestamp()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO batches (`+batchColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			batch.ID, batch.SourcePath, batch.SourceHash, batch.SrcLang, batch.TargetLang,
			batch.Status, batch.ChunkCount, timestamp, timestamp,
		); err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}
		var insertErr error
		ids, insertErr = insertChunks(ctx, tx, batch.ID, texts)
		if insertErr != nil {
			return insertErr
		}
		batch.CreatedAt = parseTimeString(timestamp)
		batch.UpdatedAt = batch.CreatedAt
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create batch: %w", err)
	}
	return batch, ids, nil
}

// ActiveBatch returns the most recent batch, or nil when the queue holds none.
func (s *Store) ActiveBatch(ctx context.Context) (*Batch, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+batchColumns+` FROM batches ORDER BY created_at DESC, rowid DESC LIMIT 1`)
	batch, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active batch: %w", err)
	}
	return batch, nil
}

// GetBatch fetches a batch by id.
func (s *Store) GetBatch(ctx context.Context, id string) (*Batch, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+batchColumns+` FROM batches WHERE id = ?`, id)
	batch, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get batch %s: %w", id, ErrBatchNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get batch %s: %w", id, err)
	}
	return batch, nil
}

// MarkBatchTranslated records that every chunk of the batch has a translation.
func (s *Store) MarkBatchTranslated(ctx context.Context, id string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE batches SET status = ?, updated_at = ? WHERE id = ?`,
		BatchTranslated, nowTimestamp(), id,
	)
	if err != nil {
		return fmt.Errorf("mark batch %s translated: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark batch %s translated: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("mark batch %s translated: %w", id, ErrBatchNotFound)
	}
	return nil
}

func scanBatch(scanner rowScanner) (*Batch, error) {
	var (
		batch     Batch
		status    string
		createdAt string
		updatedAt string
	)
	if err := scanner.Scan(
		&batch.ID,
		&batch.SourcePath,
		&batch.SourceHash,
		&batch.SrcLang,
		&batch.TargetLang,
		&status,
		&batch.ChunkCount,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	parsed, ok := ParseBatchStatus(status)
	if !ok {
		return nil, fmt.Errorf("unknown batch status %q", status)
	}
	batch.Status = parsed
	batch.CreatedAt = parseTimeString(createdAt)
	batch.UpdatedAt = parseTimeString(updatedAt)
	return &batch, nil
}
