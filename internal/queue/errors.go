package queue

import "errors"

// ErrChunkNotFound is returned by CompleteChunk when the chunk id does not exist.
var ErrChunkNotFound = errors.New("chunk not found")

// ErrBatchNotFound is returned when a batch id does not exist.
var ErrBatchNotFound = errors.New("batch not found")
