package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tolk/internal/config"
	"tolk/internal/logging"
	"tolk/internal/queue"
	"tolk/internal/services"
	"tolk/internal/testsupport"
	"tolk/internal/translate"
	"tolk/internal/workflow"
)

var enFr = workflow.Languages{Source: "en", Target: "fr"}

type sleepRecorder struct {
	delays []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func pendingChunks(t *testing.T, store *queue.Store) []queue.Chunk {
	t.Helper()
	chunks, err := store.Pending(context.Background())
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	return chunks
}

func transient(msg string) error {
	return services.Wrap(services.ErrTransient, "translate", "test", msg, nil)
}

func TestInvokerFailFastDoesNotRetry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.Enqueue(t, store, "one.", "two.")

	fake := testsupport.NewFakeTranslator().FailWith("one.", transient("busy"))
	recorder := &sleepRecorder{}
	inv := workflow.NewInvoker(cfg, store, fake, logging.NewNop(), workflow.WithSleeper(recorder.sleep))

	translated, err := inv.Run(context.Background(), pendingChunks(t, store), enFr)
	if err == nil {
		t.Fatal("expected failure")
	}
	if translated != 0 || fake.CallCount() != 1 || len(recorder.delays) != 0 {
		t.Fatalf("unexpected translated=%d calls=%d delays=%v", translated, fake.CallCount(), recorder.delays)
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker preserved, got %v", err)
	}
	if len(pendingChunks(t, store)) != 2 {
		t.Fatal("expected both chunks to stay pending")
	}
}

func TestInvokerRetriesTransientFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFailurePolicy(config.PolicyRetry, 3))
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.Enqueue(t, store, "one.", "two.")

	fake := testsupport.NewFakeTranslator().FailWith("one.", transient("busy"), transient("still busy"))
	recorder := &sleepRecorder{}
	inv := workflow.NewInvoker(cfg, store, fake, logging.NewNop(),
		workflow.WithSleeper(recorder.sleep),
		workflow.WithRetryDelay(100*time.Millisecond, 150*time.Millisecond),
	)

	translated, err := inv.Run(context.Background(), pendingChunks(t, store), enFr)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if translated != 2 || fake.CallCount() != 4 {
		t.Fatalf("translated=%d calls=%d, want 2 and 4", translated, fake.CallCount())
	}
	want := []time.Duration{100 * time.Millisecond, 150 * time.Millisecond}
	if len(recorder.delays) != len(want) || recorder.delays[0] != want[0] || recorder.delays[1] != want[1] {
		t.Fatalf("delays = %v, want %v", recorder.delays, want)
	}
	translations, err := store.AllTranslations(context.Background())
	if err != nil {
		t.Fatalf("AllTranslations failed: %v", err)
	}
	if len(translations) != 2 || translations[0] != "[fr] one." || translations[1] != "[fr] two." {
		t.Fatalf("unexpected translations %v", translations)
	}
}

func TestInvokerRetryGivesUpAfterAttempts(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFailurePolicy(config.PolicyRetry, 2))
	store := testsupport.MustOpenStore(t, cfg)
	ids := testsupport.Enqueue(t, store, "one.")

	fake := testsupport.NewFakeTranslator().FailWith("one.", transient("a"), transient("b"), transient("c"))
	inv := workflow.NewInvoker(cfg, store, fake, logging.NewNop(), workflow.WithSleeper((&sleepRecorder{}).sleep))

	_, err := inv.Run(context.Background(), pendingChunks(t, store), enFr)
	var chunkErr *workflow.ChunkError
	if !errors.As(err, &chunkErr) || chunkErr.ChunkID != ids[0] {
		t.Fatalf("expected ChunkError for %d, got %v", ids[0], err)
	}
	if fake.CallCount() != 2 {
		t.Fatalf("calls = %d, want 2", fake.CallCount())
	}
}

func TestInvokerRetrySkipsPermanentFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFailurePolicy(config.PolicyRetry, 5))
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.Enqueue(t, store, "one.")

	permanent := services.Wrap(services.ErrValidation, "translate", "test", "bad request", nil)
	fake := testsupport.NewFakeTranslator().FailWith("one.", permanent)
	inv := workflow.NewInvoker(cfg, store, fake, logging.NewNop(), workflow.WithSleeper((&sleepRecorder{}).sleep))

	_, err := inv.Run(context.Background(), pendingChunks(t, store), enFr)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fake.CallCount() != 1 {
		t.Fatalf("calls = %d, want 1", fake.CallCount())
	}
}

func TestInvokerBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFailurePolicy(config.PolicyRetry, 5))
	cfg.Workflow.BreakerThreshold = 2
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.Enqueue(t, store, "one.")

	fake := testsupport.NewFakeTranslator()
	fake.Fn = func(context.Context, translate.Request) (string, error) {
		return "", transient("down")
	}
	inv := workflow.NewInvoker(cfg, store, fake, logging.NewNop(), workflow.WithSleeper((&sleepRecorder{}).sleep))

	_, err := inv.Run(context.Background(), pendingChunks(t, store), enFr)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected breaker error, got %v", err)
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected last backend error to be kept, got %v", err)
	}
	if fake.CallCount() != 2 {
		t.Fatalf("calls = %d, want 2", fake.CallCount())
	}
}

func TestInvokerEmptyChunkList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	fake := testsupport.NewFakeTranslator()
	inv := workflow.NewInvoker(cfg, store, fake, nil)

	translated, err := inv.Run(context.Background(), nil, enFr)
	if err != nil || translated != 0 || fake.CallCount() != 0 {
		t.Fatalf("unexpected translated=%d err=%v calls=%d", translated, err, fake.CallCount())
	}
}

func TestAssemblerJoinsAndResets(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	ids := testsupport.Enqueue(t, store, "a", "b", "c")
	for i, id := range ids {
		if err := store.CompleteChunk(ctx, id, []string{"A", "B", "C"}[i]); err != nil {
			t.Fatalf("CompleteChunk failed: %v", err)
		}
	}

	path := filepath.Join(cfg.Paths.OutputDir, "out.txt")
	count, err := workflow.NewAssembler(store, logging.NewNop()).Assemble(ctx, path)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
	if got := testsupport.ReadFile(t, path); got != "A B C" {
		t.Fatalf("unexpected output %q", got)
	}
	if stats := mustStats(t, store); stats.Total() != 0 || stats.Translations != 0 {
		t.Fatalf("expected queue reset, got %+v", stats)
	}
}

func TestAssemblerWriteFailureKeepsQueue(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	ids := testsupport.Enqueue(t, store, "a")
	if err := store.CompleteChunk(ctx, ids[0], "A"); err != nil {
		t.Fatalf("CompleteChunk failed: %v", err)
	}

	blocker := filepath.Join(testsupport.BaseDir(cfg), "blocker")
	if err := os.WriteFile(blocker, []byte("file"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	_, err := workflow.NewAssembler(store, logging.NewNop()).Assemble(ctx, filepath.Join(blocker, "out.txt"))
	if err == nil {
		t.Fatal("expected write failure")
	}
	if stats := mustStats(t, store); stats.Done != 1 || stats.Translations != 1 {
		t.Fatalf("expected queue untouched, got %+v", stats)
	}
}

func TestChunkErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &workflow.ChunkError{ChunkID: 7, Err: inner}
	if !errors.Is(err, inner) {
		t.Fatal("expected ChunkError to unwrap")
	}
	if err.Error() != "chunk 7: inner" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
