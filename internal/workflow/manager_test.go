package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"tolk/internal/config"
	"tolk/internal/fileutil"
	"tolk/internal/logging"
	"tolk/internal/notifications"
	"tolk/internal/queue"
	"tolk/internal/services"
	"tolk/internal/testsupport"
	"tolk/internal/translate"
	"tolk/internal/workflow"
)

const twoSentences = "First sentence here. Second sentence here."

func newManager(t *testing.T, cfg *config.Config, translator translate.Translator, opts ...workflow.ManagerOption) (*workflow.Manager, *queue.Store) {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	opts = append(opts, workflow.WithInvokerOptions(workflow.WithSleeper(func(context.Context, time.Duration) error { return nil })))
	return workflow.NewManager(cfg, store, translator, logging.NewNop(), opts...), store
}

func outputPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.OutputDir, "input-fr.txt")
}

func sha256Hex(t *testing.T, path string) string {
	t.Helper()
	hash, err := fileutil.HashFile(path)
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}
	return hash
}

func mustStats(t *testing.T, store *queue.Store) queue.Stats {
	t.Helper()
	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	return stats
}

func TestRunSingleChunkEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxChunkLength(100))
	testsupport.WriteSource(t, cfg, "Hello world. This is a test.")

	fake := testsupport.NewFakeTranslator().Respond("Hello world. This is a test.", "Bonjour le monde. Ceci est un test.")
	var transitions []workflow.State
	mgr, store := newManager(t, cfg, fake, workflow.WithStateHook(func(_, to workflow.State) {
		transitions = append(transitions, to)
	}))

	result, err := mgr.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.State != workflow.StateDone || mgr.State() != workflow.StateDone {
		t.Fatalf("expected done, got %s", result.State)
	}
	if result.Chunks != 1 || result.Translated != 1 || result.Resumed {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.BatchID == "" {
		t.Fatal("expected batch id")
	}
	if result.OutputPath != outputPath(cfg) {
		t.Fatalf("output path = %q, want %q", result.OutputPath, outputPath(cfg))
	}
	if got := testsupport.ReadFile(t, result.OutputPath); got != "Bonjour le monde. Ceci est un test." {
		t.Fatalf("unexpected output %q", got)
	}

	calls := fake.Calls()
	if len(calls) != 1 || calls[0].Text != "Hello world. This is a test." {
		t.Fatalf("unexpected calls %+v", calls)
	}
	if calls[0].SourceLang != "en" || calls[0].TargetLang != "fr" {
		t.Fatalf("unexpected languages %+v", calls[0])
	}

	stats := mustStats(t, store)
	if stats.Total() != 0 || stats.Translations != 0 || stats.Batch != nil {
		t.Fatalf("expected empty queue after run, got %+v", stats)
	}

	want := []workflow.State{workflow.StatePopulating, workflow.StateTranslating, workflow.StateAssembling, workflow.StateDone}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", transitions, want)
		}
	}
}

func TestRunHaltsOnChunkFailureAndResumes(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxChunkLength(25))
	testsupport.WriteSource(t, cfg, twoSentences)

	fake := testsupport.NewFakeTranslator().
		Respond("First sentence here.", "Premiere phrase ici.").
		Respond("Second sentence here.", "Deuxieme phrase ici.").
		FailWith("Second sentence here.", errors.New("model exploded"))
	mgr, store := newManager(t, cfg, fake)
	ctx := context.Background()

	result, err := mgr.Run(ctx)
	if err == nil {
		t.Fatal("expected run to fail")
	}
	var chunkErr *workflow.ChunkError
	if !errors.As(err, &chunkErr) {
		t.Fatalf("expected ChunkError, got %v", err)
	}
	if result.State != workflow.StateFailed || result.Translated != 1 {
		t.Fatalf("unexpected result %+v", result)
	}

	pending, err := store.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].Text != "Second sentence here." {
		t.Fatalf("expected second chunk pending, got %+v", pending)
	}
	if chunkErr.ChunkID != pending[0].ID {
		t.Fatalf("ChunkError id = %d, want %d", chunkErr.ChunkID, pending[0].ID)
	}
	stats := mustStats(t, store)
	if stats.Done != 1 || stats.Translations != 1 {
		t.Fatalf("expected one done chunk with one translation, got %+v", stats)
	}
	if stats.Batch == nil || stats.Batch.Status != queue.BatchTranslating {
		t.Fatalf("expected unfinished batch, got %+v", stats.Batch)
	}
	if _, err := os.Stat(outputPath(cfg)); !os.IsNotExist(err) {
		t.Fatalf("expected no output file, stat err = %v", err)
	}

	result, err = mgr.Run(ctx)
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if !result.Resumed || result.Translated != 1 || result.Chunks != 2 {
		t.Fatalf("unexpected resume result %+v", result)
	}
	if got := testsupport.ReadFile(t, outputPath(cfg)); got != "Premiere phrase ici. Deuxieme phrase ici." {
		t.Fatalf("unexpected output %q", got)
	}
	firstCalls := 0
	for _, call := range fake.Calls() {
		if call.Text == "First sentence here." {
			firstCalls++
		}
	}
	if firstCalls != 1 {
		t.Fatalf("first chunk translated %d times, want 1", firstCalls)
	}
}

func TestRunRejectsChangedSource(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxChunkLength(25))
	testsupport.WriteSource(t, cfg, twoSentences)

	fake := testsupport.NewFakeTranslator().FailWith("Second sentence here.", errors.New("boom"))
	mgr, store := newManager(t, cfg, fake)
	if _, err := mgr.Run(context.Background()); err == nil {
		t.Fatal("expected first run to fail")
	}

	testsupport.WriteSource(t, cfg, "A different document.")
	_, err := mgr.Run(context.Background())
	if !errors.Is(err, workflow.ErrBatchMismatch) {
		t.Fatalf("expected ErrBatchMismatch, got %v", err)
	}
	if stats := mustStats(t, store); stats.Pending != 1 {
		t.Fatalf("mismatch must not touch the queue, got %+v", stats)
	}

	resetMgr := workflow.NewManager(cfg, store, fake, logging.NewNop(), workflow.WithReset(true))
	result, err := resetMgr.Run(context.Background())
	if err != nil {
		t.Fatalf("run with reset failed: %v", err)
	}
	if result.Resumed || result.Chunks != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if got := testsupport.ReadFile(t, outputPath(cfg)); got != "[fr] A different document." {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRunRejectsDifferentSourcePath(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxChunkLength(25))
	testsupport.WriteSource(t, cfg, twoSentences)

	fake := testsupport.NewFakeTranslator().FailWith("Second sentence here.", errors.New("boom"))
	mgr, store := newManager(t, cfg, fake)
	if _, err := mgr.Run(context.Background()); err == nil {
		t.Fatal("expected first run to fail")
	}

	other := filepath.Join(cfg.Paths.ResourcesDir, "other.txt")
	testsupport.WriteFile(t, other, twoSentences)
	otherMgr := workflow.NewManager(cfg, store, fake, logging.NewNop(), workflow.WithSourcePath(other))
	if _, err := otherMgr.Run(context.Background()); !errors.Is(err, workflow.ErrBatchMismatch) {
		t.Fatalf("expected ErrBatchMismatch, got %v", err)
	}
}

func TestRunFailsWhenLocked(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteSource(t, cfg, "Locked out.")
	mgr, _ := newManager(t, cfg, testsupport.NewFakeTranslator())

	lock := flock.New(cfg.DatabasePath() + ".lock")
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock failed: ok=%v err=%v", ok, err)
	}
	defer lock.Unlock()

	result, err := mgr.Run(context.Background())
	if !errors.Is(err, workflow.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if result.State != workflow.StateFailed {
		t.Fatalf("expected failed state, got %s", result.State)
	}
}

func TestRunEmptySourceWritesEmptyOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteSource(t, cfg, "   \n")
	fake := testsupport.NewFakeTranslator()
	mgr, _ := newManager(t, cfg, fake)

	result, err := mgr.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Chunks != 0 || fake.CallCount() != 0 {
		t.Fatalf("expected no chunks, got %+v (calls %d)", result, fake.CallCount())
	}
	if got := testsupport.ReadFile(t, result.OutputPath); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestRunMissingSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	mgr, _ := newManager(t, cfg, testsupport.NewFakeTranslator())

	result, err := mgr.Run(context.Background())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if result.State != workflow.StateFailed {
		t.Fatalf("expected failed state, got %s", result.State)
	}
}

func TestRunResumesLegacyQueue(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.Enqueue(t, store, "Legacy one.", "Legacy two.")

	fake := testsupport.NewFakeTranslator()
	mgr := workflow.NewManager(cfg, store, fake, logging.NewNop())
	result, err := mgr.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !result.Resumed || result.BatchID != "" || result.Translated != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if got := testsupport.ReadFile(t, outputPath(cfg)); got != "[fr] Legacy one. [fr] Legacy two." {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRunAssemblesTranslatedBatchWithoutCallingModel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	source := testsupport.WriteSource(t, cfg, "Only one.")
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	hash := sha256Hex(t, source)
	abs, err := filepath.Abs(source)
	if err != nil {
		t.Fatalf("Abs failed: %v", err)
	}
	batch, ids, err := store.CreateBatch(ctx, queue.BatchSpec{
		SourcePath: abs,
		SourceHash: hash,
		SrcLang:    "en",
		TargetLang: "de",
	}, []string{"Only one."})
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}
	if err := store.CompleteChunk(ctx, ids[0], "Nur eins."); err != nil {
		t.Fatalf("CompleteChunk failed: %v", err)
	}
	if err := store.MarkBatchTranslated(ctx, batch.ID); err != nil {
		t.Fatalf("MarkBatchTranslated failed: %v", err)
	}

	fake := testsupport.NewFakeTranslator()
	mgr := workflow.NewManager(cfg, store, fake, logging.NewNop())
	result, err := mgr.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if fake.CallCount() != 0 {
		t.Fatalf("expected no model calls, got %d", fake.CallCount())
	}
	// The batch keeps its own target language.
	want := filepath.Join(cfg.Paths.OutputDir, "input-de.txt")
	if result.OutputPath != want {
		t.Fatalf("output path = %q, want %q", result.OutputPath, want)
	}
	if got := testsupport.ReadFile(t, want); got != "Nur eins." {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRunCancellationLeavesQueueResumable(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxChunkLength(25))
	testsupport.WriteSource(t, cfg, twoSentences)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fake := testsupport.NewFakeTranslator()
	fake.Fn = func(_ context.Context, req translate.Request) (string, error) {
		cancel()
		return "translated " + req.Text, nil
	}
	mgr, store := newManager(t, cfg, fake)

	result, err := mgr.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.State != workflow.StateFailed || result.Translated != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	stats := mustStats(t, store)
	if stats.Done != 1 || stats.Pending != 1 || stats.Translations != 1 {
		t.Fatalf("expected one chunk kept and one pending, got %+v", stats)
	}
}

type recordingNotifier struct {
	events   []notifications.Event
	payloads []notifications.Payload
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
	return nil
}

func TestRunPublishesNotifications(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxChunkLength(25))
	testsupport.WriteSource(t, cfg, twoSentences)

	fake := testsupport.NewFakeTranslator().FailWith("Second sentence here.", errors.New("upstream 503"))
	notifier := &recordingNotifier{}
	mgr, _ := newManager(t, cfg, fake, workflow.WithNotifier(notifier))

	if _, err := mgr.Run(context.Background()); err == nil {
		t.Fatal("expected first run to fail")
	}
	if len(notifier.events) != 2 || notifier.events[0] != notifications.EventBatchStarted || notifier.events[1] != notifications.EventBatchFailed {
		t.Fatalf("unexpected events %v", notifier.events)
	}
	if pending := notifier.payloads[1]["pending"]; pending != 1 {
		t.Fatalf("pending = %v, want 1", pending)
	}

	if _, err := mgr.Run(context.Background()); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	last := notifier.events[len(notifier.events)-1]
	if last != notifications.EventBatchCompleted {
		t.Fatalf("expected completion event, got %v", notifier.events)
	}
	if out := notifier.payloads[len(notifier.payloads)-1]["output"]; out != outputPath(cfg) {
		t.Fatalf("output = %v, want %s", out, outputPath(cfg))
	}
}

func TestStateString(t *testing.T) {
	states := map[workflow.State]string{
		workflow.StateIdle:        "idle",
		workflow.StatePopulating:  "populating",
		workflow.StateTranslating: "translating",
		workflow.StateAssembling:  "assembling",
		workflow.StateDone:        "done",
		workflow.StateFailed:      "failed",
		workflow.State(99):        "unknown",
	}
	for state, want := range states {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(state), got, want)
		}
	}
	if !workflow.StateDone.Terminal() || !workflow.StateFailed.Terminal() || workflow.StateTranslating.Terminal() {
		t.Fatal("unexpected Terminal results")
	}
}
