package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrLocked is returned when another run holds the queue lock.
	ErrLocked = errors.New("another translation run is in progress")
	// ErrBatchMismatch is returned when the queue holds an unfinished batch for
	// a different source document.
	ErrBatchMismatch = errors.New("queue holds a batch for a different source")
)

// ChunkError reports the chunk that halted a translation pass.
type ChunkError struct {
	ChunkID int64
	Err     error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d: %v", e.ChunkID, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}
