package queue

import (
	"strings"
	"time"
)

// ChunkStatus is the two-valued translation progress of a chunk. The values
// match the integers persisted in chunks.status.
type ChunkStatus int

const (
	ChunkPending ChunkStatus = 0
	ChunkDone    ChunkStatus = 1
)

func (s ChunkStatus) String() string {
	switch s {
	case ChunkPending:
		return "pending"
	case ChunkDone:
		return "done"
	default:
		return "unknown"
	}
}

// Chunk is a bounded segment of source text queued for translation.
type Chunk struct {
	ID      int64
	BatchID string
	Text    string
	Status  ChunkStatus
}

// BatchStatus tracks whether every chunk of a batch has been translated.
type BatchStatus string

const (
	BatchTranslating BatchStatus = "translating"
	BatchTranslated  BatchStatus = "translated"
)

// ParseBatchStatus converts a string into a known BatchStatus.
func ParseBatchStatus(value string) (BatchStatus, bool) {
	switch BatchStatus(strings.ToLower(strings.TrimSpace(value))) {
	case BatchTranslating:
		return BatchTranslating, true
	case BatchTranslated:
		return BatchTranslated, true
	default:
		return "", false
	}
}

// Batch is the set of chunks derived from one source document. It is the
// explicit marker that separates "never started" from "drained but not yet
// assembled".
type Batch struct {
	ID         string
	SourcePath string
	SourceHash string
	SrcLang    string
	TargetLang string
	Status     BatchStatus
	ChunkCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BatchSpec describes a batch about to be created.
type BatchSpec struct {
	SourcePath string
	SourceHash string
	SrcLang    string
	TargetLang string
}

// Stats summarizes the queue contents.
type Stats struct {
	Pending      int
	Done         int
	Translations int
	Batch        *Batch
}

// Total returns the number of chunks in the queue.
func (s Stats) Total() int {
	return s.Pending + s.Done
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	TablesPresent    []string
	MissingTables    []string
	IntegrityCheck   bool
	Error            string
}
