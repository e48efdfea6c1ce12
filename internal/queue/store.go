package queue

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

func nowTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Enqueue appends texts as pending chunks in input order and returns their
// ids. An empty batchID stores the chunks without a batch association.
func (s *Store) Enqueue(ctx context.Context, batchID string, texts []string) ([]int64, error) {
	ctx = ensureContext(ctx)
	var ids []int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var insertErr error
		ids, insertErr = insertChunks(ctx, tx, batchID, texts)
		return insertErr
	})
	if err != nil {
		return nil, fmt.Errorf("enqueue chunks: %w", err)
	}
	return ids, nil
}

func insertChunks(ctx context.Context, tx *sql.Tx, batchID string, texts []string) ([]int64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (batch_id, chunk, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	timestamp := nowTimestamp()
	ids := make([]int64, 0, len(texts))
	for _, text := range texts {
		res, err := stmt.ExecContext(ctx, nullableString(batchID), text, ChunkPending, timestamp, timestamp)
		if err != nil {
			return nil, fmt.Errorf("insert chunk: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Pending returns every chunk that still needs translation, in ascending id
// order.
func (s *Store) Pending(ctx context.Context) ([]Chunk, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, batch_id, chunk, status FROM chunks WHERE status = ? ORDER BY id`,
		ChunkPending,
	)
	if err != nil {
		return nil, fmt.Errorf("query pending chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending chunks: %w", err)
	}
	return chunks, nil
}

// PendingCount returns the number of chunks awaiting translation.
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM chunks WHERE status = ?`, ChunkPending,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending chunks: %w", err)
	}
	return count, nil
}

// MarkDone flags a chunk as translated. Unknown ids are ignored.
func (s *Store) MarkDone(ctx context.Context, id int64) error {
	if _, err := s.execWithRetry(ctx,
		`UPDATE chunks SET status = ?, updated_at = ? WHERE id = ?`,
		ChunkDone, nowTimestamp(), id,
	); err != nil {
		return fmt.Errorf("mark chunk %d done: %w", id, err)
	}
	return nil
}

// RecordTranslation appends a translated chunk that is not tied to a source
// chunk id and returns its id.
func (s *Store) RecordTranslation(ctx context.Context, text string) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`INSERT INTO translated_chunks (translated_chunk, created_at) VALUES (?, ?)`,
		text, nowTimestamp(),
	)
	if err != nil {
		return 0, fmt.Errorf("record translation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("translation id: %w", err)
	}
	return id, nil
}

// CompleteChunk stores the translation of a chunk and marks it done in one
// transaction. Repeating the call for the same chunk replaces the stored
// translation instead of adding a second one.
func (s *Store) CompleteChunk(ctx context.Context, chunkID int64, translated string) error {
	ctx = ensureContext(ctx)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		timestamp := nowTimestamp()
		res, err := tx.ExecContext(ctx,
			`UPDATE chunks SET status = ?, updated_at = ? WHERE id = ?`,
			ChunkDone, timestamp, chunkID,
		)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrChunkNotFound
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO translated_chunks (chunk_id, translated_chunk, created_at) VALUES (?, ?, ?)
             ON CONFLICT(chunk_id) DO UPDATE SET translated_chunk = excluded.translated_chunk`,
			chunkID, translated, timestamp,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("complete chunk %d: %w", chunkID, err)
	}
	return nil
}

// AllTranslations returns every stored translation in ascending id order.
// Translations are recorded in chunk order, so the result follows source
// order.
func (s *Store) AllTranslations(ctx context.Context) ([]string, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT translated_chunk FROM translated_chunks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query translations: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan translation: %w", err)
		}
		out = append(out, text)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate translations: %w", err)
	}
	return out, nil
}

// Reset deletes every chunk, translation, and batch. Ids are not reused
// afterwards.
func (s *Store) Reset(ctx context.Context) error {
	ctx = ensureContext(ctx)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM translated_chunks`,
			`DELETE FROM chunks`,
			`DELETE FROM batches`,
		} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reset queue: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChunk(scanner rowScanner) (Chunk, error) {
	var (
		chunk   Chunk
		batchID sql.NullString
		status  int
	)
	if err := scanner.Scan(&chunk.ID, &batchID, &chunk.Text, &status); err != nil {
		return Chunk{}, fmt.Errorf("scan chunk: %w", err)
	}
	chunk.BatchID = batchID.String
	chunk.Status = ChunkStatus(status)
	return chunk, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
