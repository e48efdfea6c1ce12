package logging

import (
	"context"
	"log/slog"

	"tolk/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldBatchID identifies the batch (source document run) a record belongs to.
	FieldBatchID = "batch_id"
	// FieldChunkID identifies the chunk a record belongs to.
	FieldChunkID = "chunk_id"
	// FieldStage is the standardized structured logging key for workflow state names.
	FieldStage = "stage"
	// FieldEventType classifies a record for filtering (e.g. chunk_failed).
	FieldEventType = "event_type"
	// FieldErrorHint carries a short next step for the operator.
	FieldErrorHint = "error_hint"
	// FieldErrorKind is "transient" or "permanent".
	FieldErrorKind = "error_kind"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.BatchIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldBatchID, id))
	}
	if id, ok := services.ChunkIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldChunkID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
