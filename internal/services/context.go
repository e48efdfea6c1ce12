package services

import "context"

// scope is the set of identifiers a unit of work carries through the call
// chain. It is stored by value so each annotation copies rather than mutates.
type scope struct {
	batchID  string
	chunkID  int64
	hasChunk bool
	stage    string
}

type scopeKey struct{}

func scopeFrom(ctx context.Context) scope {
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

func withScope(ctx context.Context, update func(*scope)) context.Context {
	s := scopeFrom(ctx)
	update(&s)
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithBatchID records the batch being processed. Empty ids are ignored.
func WithBatchID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return withScope(ctx, func(s *scope) { s.batchID = id })
}

func BatchIDFromContext(ctx context.Context) (string, bool) {
	id := scopeFrom(ctx).batchID
	return id, id != ""
}

// WithChunkID records the chunk being translated.
func WithChunkID(ctx context.Context, id int64) context.Context {
	return withScope(ctx, func(s *scope) { s.chunkID, s.hasChunk = id, true })
}

func ChunkIDFromContext(ctx context.Context) (int64, bool) {
	s := scopeFrom(ctx)
	return s.chunkID, s.hasChunk
}

// WithStage records the workflow stage. Empty names are ignored.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return withScope(ctx, func(s *scope) { s.stage = stage })
}

func StageFromContext(ctx context.Context) (string, bool) {
	stage := scopeFrom(ctx).stage
	return stage, stage != ""
}
