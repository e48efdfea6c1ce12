package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"tolk/internal/chunker"
	"tolk/internal/config"
	"tolk/internal/fileutil"
	"tolk/internal/logging"
	"tolk/internal/notifications"
	"tolk/internal/output"
	"tolk/internal/queue"
	"tolk/internal/services"
	"tolk/internal/translate"
)

// Result summarizes one run.
type Result struct {
	State      State
	BatchID    string
	SourcePath string
	OutputPath string
	// Chunks is the number of chunks in the batch.
	Chunks int
	// Translated counts chunks translated during this run only.
	Translated int
	Resumed    bool
	// Replaced is set when assembly overwrote an existing output file.
	Replaced bool
}

// Manager sequences a single translation run over the queue.
type Manager struct {
	cfg        *config.Config
	store      *queue.Store
	logger     *slog.Logger
	invoker    *Invoker
	assembler  *Assembler
	sourcePath string
	lockPath   string
	reset      bool
	onState    func(from, to State)
	notifier   notifications.Service

	mu    sync.RWMutex
	state State
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*managerOptions)

type managerOptions struct {
	reset      bool
	sourcePath string
	onState    func(from, to State)
	notifier   notifications.Service
	invokerOps []InvokerOption
}

// WithReset clears the queue before the run starts.
func WithReset(reset bool) ManagerOption {
	return func(o *managerOptions) {
		o.reset = reset
	}
}

// WithSourcePath overrides the source document resolved from the config.
func WithSourcePath(path string) ManagerOption {
	return func(o *managerOptions) {
		o.sourcePath = path
	}
}

// WithStateHook registers a callback invoked on every state transition.
func WithStateHook(fn func(from, to State)) ManagerOption {
	return func(o *managerOptions) {
		o.onState = fn
	}
}

// WithNotifier overrides the notifier built from the config.
func WithNotifier(notifier notifications.Service) ManagerOption {
	return func(o *managerOptions) {
		o.notifier = notifier
	}
}

// WithInvokerOptions passes options through to the Invoker.
func WithInvokerOptions(opts ...InvokerOption) ManagerOption {
	return func(o *managerOptions) {
		o.invokerOps = append(o.invokerOps, opts...)
	}
}

// NewManager constructs a workflow manager. Every collaborator is passed in;
// the manager holds no global state.
func NewManager(cfg *config.Config, store *queue.Store, translator translate.Translator, logger *slog.Logger, opts ...ManagerOption) *Manager {
	options := &managerOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	sourcePath := strings.TrimSpace(options.sourcePath)
	if sourcePath == "" {
		sourcePath = cfg.SourcePath()
	}
	if abs, err := filepath.Abs(sourcePath); err == nil {
		sourcePath = abs
	}
	notifier := options.notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Manager{
		cfg:        cfg,
		store:      store,
		logger:     logging.NewComponentLogger(logger, "workflow"),
		invoker:    NewInvoker(cfg, store, translator, logger, options.invokerOps...),
		assembler:  NewAssembler(store, logger),
		sourcePath: sourcePath,
		lockPath:   LockPath(cfg),
		reset:      options.reset,
		onState:    options.onState,
		notifier:   notifier,
		state:      StateIdle,
	}
}

// State returns the current state of the run.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) transition(to State) {
	m.mu.Lock()
	from := m.state
	m.state = to
	m.mu.Unlock()
	if from == to {
		return
	}
	m.logger.Debug("state transition",
		logging.String("from", from.String()),
		logging.String("to", to.String()),
	)
	if m.onState != nil {
		m.onState(from, to)
	}
}

// Run performs one pass through the state machine: populate the queue when it
// is empty, translate every pending chunk, then assemble the output and clear
// the queue. A failed or interrupted run leaves the queue ready to resume.
func (m *Manager) Run(ctx context.Context) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()
	result := Result{SourcePath: m.sourcePath}

	lock, err := AcquireLock(m.lockPath)
	if err != nil {
		return m.fail(ctx, result, err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			m.logger.Warn("failed to release queue lock", logging.Error(err))
		}
	}()

	m.transition(StateIdle)
	if m.reset {
		if err := m.store.Reset(ctx); err != nil {
			return m.fail(ctx, result, err)
		}
		m.logger.Info("queue cleared before run", logging.String(logging.FieldEventType, "queue_reset"))
	}

	plan, err := m.plan(ctx)
	if err != nil {
		return m.fail(ctx, result, err)
	}
	result.Resumed = plan.resumed
	result.BatchID = plan.batchID
	result.Chunks = plan.chunks
	if plan.sourcePath != "" {
		result.SourcePath = plan.sourcePath
	}

	if plan.populate {
		m.transition(StatePopulating)
		batch, err := m.populate(ctx)
		if err != nil {
			return m.fail(ctx, result, err)
		}
		result.BatchID = batch.ID
		result.Chunks = batch.ChunkCount
		plan.langs = Languages{Source: batch.SrcLang, Target: batch.TargetLang}
		m.notify(ctx, notifications.EventBatchStarted, notifications.Payload{
			"source": filepath.Base(result.SourcePath),
			"chunks": batch.ChunkCount,
		})
	}
	if result.BatchID != "" {
		ctx = services.WithBatchID(ctx, result.BatchID)
	}

	if !plan.assembleOnly {
		m.transition(StateTranslating)
		translated, err := m.translate(ctx, result.BatchID, plan.langs)
		result.Translated = translated
		if err != nil {
			return m.fail(ctx, result, err)
		}
	}

	m.transition(StateAssembling)
	result.OutputPath = output.Path(m.cfg.Paths.OutputDir, filepath.Base(result.SourcePath), plan.langs.Target)
	if output.Exists(result.OutputPath) {
		result.Replaced = true
		logging.WithContext(ctx, m.logger).Warn("replacing existing output",
			logging.String("output", result.OutputPath),
			logging.String(logging.FieldEventType, "output_replaced"),
		)
	}
	if _, err := m.assembler.Assemble(services.WithStage(ctx, StateAssembling.String()), result.OutputPath); err != nil {
		return m.fail(ctx, result, err)
	}

	m.transition(StateDone)
	result.State = StateDone
	logging.WithContext(ctx, m.logger).Info("translation complete",
		logging.String("output", result.OutputPath),
		logging.Int("chunks", result.Chunks),
		logging.Int("translated", result.Translated),
		logging.Bool("resumed", result.Resumed),
		logging.Duration("elapsed", time.Since(started)),
		logging.String(logging.FieldEventType, "run_complete"),
	)
	m.notify(ctx, notifications.EventBatchCompleted, notifications.Payload{
		"source":    filepath.Base(result.SourcePath),
		"languages": plan.langs.Source + " -> " + plan.langs.Target,
		"duration":  time.Since(started),
		"output":    result.OutputPath,
	})
	return result, nil
}

// notify publishes an event; delivery failures never fail the run.
func (m *Manager) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := m.notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		m.logger.Warn("notification failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldEventType, "notify_failed"),
		)
	}
}

type runPlan struct {
	populate     bool
	assembleOnly bool
	resumed      bool
	batchID      string
	sourcePath   string
	chunks       int
	langs        Languages
}

// plan inspects the queue and decides where the run starts.
func (m *Manager) plan(ctx context.Context) (runPlan, error) {
	stats, err := m.store.Stats(ctx)
	if err != nil {
		return runPlan{}, err
	}
	configured := Languages{Source: m.cfg.Translation.SrcLang, Target: m.cfg.Translation.TargetLang}

	batch := stats.Batch
	if batch == nil {
		switch {
		case stats.Pending > 0:
			m.logger.Warn("resuming queue without batch record; source identity cannot be verified",
				logging.Int("pending", stats.Pending),
				logging.Int("done", stats.Done),
				logging.String(logging.FieldEventType, "legacy_resume"),
			)
			return runPlan{resumed: true, chunks: stats.Total(), langs: configured}, nil
		case stats.Translations > 0:
			m.logger.Warn("assembling leftover translations without batch record",
				logging.Int("translations", stats.Translations),
				logging.String(logging.FieldEventType, "legacy_assemble"),
			)
			return runPlan{resumed: true, assembleOnly: true, chunks: stats.Total(), langs: configured}, nil
		default:
			return runPlan{populate: true, langs: configured}, nil
		}
	}

	if err := m.verifySource(batch); err != nil {
		return runPlan{}, err
	}
	langs := Languages{Source: batch.SrcLang, Target: batch.TargetLang}
	if !strings.EqualFold(batch.TargetLang, configured.Target) || !strings.EqualFold(batch.SrcLang, configured.Source) {
		m.logger.Warn("resuming batch with its original languages",
			logging.String("batch_languages", batch.SrcLang+"->"+batch.TargetLang),
			logging.String("configured_languages", configured.Source+"->"+configured.Target),
			logging.String(logging.FieldErrorHint, "run with --reset to start over with the configured languages"),
		)
	}
	m.logger.Info("resuming batch",
		logging.String(logging.FieldBatchID, batch.ID),
		logging.Int("pending", stats.Pending),
		logging.Int("done", stats.Done),
		logging.String("batch_status", string(batch.Status)),
		logging.String(logging.FieldEventType, "batch_resume"),
	)
	return runPlan{
		resumed:      true,
		assembleOnly: batch.Status == queue.BatchTranslated && stats.Pending == 0,
		batchID:      batch.ID,
		sourcePath:   batch.SourcePath,
		chunks:       batch.ChunkCount,
		langs:        langs,
	}, nil
}

// verifySource confirms that the active batch was created from the document
// this run points at.
func (m *Manager) verifySource(batch *queue.Batch) error {
	if filepath.Clean(batch.SourcePath) != filepath.Clean(m.sourcePath) {
		return fmt.Errorf("%w: batch %s translates %s, this run targets %s (use --reset to discard it)",
			ErrBatchMismatch, batch.ID, batch.SourcePath, m.sourcePath)
	}
	hash, err := fileutil.HashFile(m.sourcePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrNotFound, "workflow", "verify source",
				fmt.Sprintf("source %s of batch %s is missing", m.sourcePath, batch.ID), err)
		}
		return fmt.Errorf("hash source: %w", err)
	}
	if hash != batch.SourceHash {
		return fmt.Errorf("%w: %s changed since batch %s was created (use --reset to start over)",
			ErrBatchMismatch, m.sourcePath, batch.ID)
	}
	return nil
}

func (m *Manager) populate(ctx context.Context) (*queue.Batch, error) {
	data, err := os.ReadFile(m.sourcePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "workflow", "read source",
				fmt.Sprintf("source document %s not found", m.sourcePath), err)
		}
		return nil, fmt.Errorf("read source: %w", err)
	}

	chunks := chunker.Split(string(data), m.cfg.Translation.MaxChunkLength)
	batch, _, err := m.store.CreateBatch(ctx, queue.BatchSpec{
		SourcePath: m.sourcePath,
		SourceHash: fileutil.HashBytes(data),
		SrcLang:    m.cfg.Translation.SrcLang,
		TargetLang: m.cfg.Translation.TargetLang,
	}, chunks)
	if err != nil {
		return nil, err
	}
	logging.WithContext(services.WithBatchID(ctx, batch.ID), m.logger).Info("queue populated",
		logging.String("source", m.sourcePath),
		logging.Int("bytes", len(data)),
		logging.Int("chunks", len(chunks)),
		logging.Int("max_chunk_length", m.cfg.Translation.MaxChunkLength),
		logging.String(logging.FieldEventType, "queue_populated"),
	)
	return batch, nil
}

func (m *Manager) translate(ctx context.Context, batchID string, langs Languages) (int, error) {
	ctx = services.WithStage(ctx, StateTranslating.String())
	pending, err := m.store.Pending(ctx)
	if err != nil {
		return 0, err
	}
	translated, err := m.invoker.Run(ctx, pending, langs)
	if err != nil {
		return translated, err
	}
	if batchID != "" {
		if err := m.store.MarkBatchTranslated(ctx, batchID); err != nil {
			return translated, err
		}
	}
	return translated, nil
}

func (m *Manager) fail(ctx context.Context, result Result, err error) (Result, error) {
	from := m.State()
	m.transition(StateFailed)
	result.State = StateFailed

	logger := logging.WithContext(ctx, m.logger)
	attrs := []logging.Attr{
		logging.Error(err),
		logging.String("failed_in", from.String()),
		logging.String(logging.FieldErrorKind, services.FailureKind(err)),
	}
	var chunkErr *ChunkError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Warn("translation run interrupted; re-run to resume", logging.Args(attrs...)...)
		return result, err
	case errors.As(err, &chunkErr):
		attrs = append(attrs,
			logging.Int64(logging.FieldChunkID, chunkErr.ChunkID),
			logging.String(logging.FieldErrorHint, "re-run to resume from the first pending chunk"),
		)
	case errors.Is(err, ErrBatchMismatch):
		attrs = append(attrs, logging.String(logging.FieldErrorHint, "run with --reset to discard the unfinished batch"))
	case errors.Is(err, ErrLocked):
		attrs = append(attrs, logging.String(logging.FieldErrorHint, "wait for the other run to finish"))
	}
	logging.ErrorWithContext(logger, "translation run failed", "run_failed", attrs...)
	if !errors.Is(err, ErrLocked) {
		payload := notifications.Payload{"source": filepath.Base(result.SourcePath), "error": err}
		if pending, countErr := m.store.PendingCount(context.WithoutCancel(ctx)); countErr == nil && pending > 0 {
			payload["pending"] = pending
		}
		m.notify(ctx, notifications.EventBatchFailed, payload)
	}
	return result, err
}
