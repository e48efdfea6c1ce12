package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"tolk/internal/config"
	"tolk/internal/logging"
	"tolk/internal/queue"
	"tolk/internal/services"
	"tolk/internal/translate"
)

const (
	defaultRetryBaseDelay = time.Second
	defaultRetryMaxDelay  = 30 * time.Second
)

// Languages names the source and target language of a batch.
type Languages struct {
	Source string
	Target string
}

// Invoker translates pending chunks one at a time and persists each result
// before moving to the next chunk.
type Invoker struct {
	store      *queue.Store
	translator translate.Translator
	logger     *slog.Logger

	policy    string
	attempts  int
	breaker   *gobreaker.CircuitBreaker
	baseDelay time.Duration
	maxDelay  time.Duration
	sleep     func(context.Context, time.Duration) error
	progress  io.Writer
}

// InvokerOption customizes an Invoker.
type InvokerOption func(*Invoker)

// WithSleeper replaces the backoff sleep (used in tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) InvokerOption {
	return func(inv *Invoker) {
		if sleep != nil {
			inv.sleep = sleep
		}
	}
}

// WithRetryDelay overrides the retry backoff delays.
func WithRetryDelay(base, maxDelay time.Duration) InvokerOption {
	return func(inv *Invoker) {
		if base > 0 {
			inv.baseDelay = base
		}
		if maxDelay > 0 {
			inv.maxDelay = maxDelay
		}
	}
}

// WithProgressWriter renders a progress bar on w when it is a terminal.
// Without a terminal, progress is reported through the logger.
func WithProgressWriter(w io.Writer) InvokerOption {
	return func(inv *Invoker) {
		inv.progress = w
	}
}

// NewInvoker builds an Invoker using the workflow failure policy from cfg.
func NewInvoker(cfg *config.Config, store *queue.Store, translator translate.Translator, logger *slog.Logger, opts ...InvokerOption) *Invoker {
	if logger == nil {
		logger = logging.NewNop()
	}
	inv := &Invoker{
		store:      store,
		translator: translator,
		logger:     logging.NewComponentLogger(logger, "invoker"),
		policy:     config.PolicyFailFast,
		attempts:   1,
		baseDelay:  defaultRetryBaseDelay,
		maxDelay:   defaultRetryMaxDelay,
		sleep:      sleepWithContext,
	}
	if cfg != nil && cfg.Workflow.FailurePolicy == config.PolicyRetry {
		inv.policy = config.PolicyRetry
		inv.attempts = max(cfg.Workflow.RetryAttempts, 1)
		inv.breaker = newBreaker(translator.Name(), cfg.Workflow.BreakerThreshold, inv.logger)
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

func newBreaker(name string, threshold int, logger *slog.Logger) *gobreaker.CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	limit := uint32(threshold)
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= limit
		},
		// Only backend outages count against the breaker; a rejected request
		// says nothing about backend health.
		IsSuccessful: func(err error) bool {
			return err == nil || !services.IsRetryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("translation circuit breaker changed state",
				logging.String("backend", name),
				logging.String("from", from.String()),
				logging.String("to", to.String()),
				logging.String(logging.FieldEventType, "breaker_state_changed"),
			)
		},
	})
}

// Run translates chunks in the given order. The first chunk that cannot be
// translated stops the pass and is returned as a *ChunkError; chunks finished
// before it stay recorded and later chunks stay pending. Cancellation is
// checked between chunks. Run returns the number of chunks translated.
func (inv *Invoker) Run(ctx context.Context, chunks []queue.Chunk, langs Languages) (_ int, runErr error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	progress := newProgress(inv.progress, len(chunks), inv.logger)
	defer func() { progress.Done(runErr) }()

	translated := 0
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			inv.logger.Warn("translation interrupted; pending chunks remain queued",
				logging.Int("translated", translated),
				logging.Int("remaining", len(chunks)-translated),
				logging.String(logging.FieldEventType, "translation_interrupted"),
			)
			return translated, err
		}

		chunkCtx := services.WithChunkID(ctx, chunk.ID)
		logger := logging.WithContext(chunkCtx, inv.logger)
		started := time.Now()

		text, err := inv.translateChunk(chunkCtx, logger, translate.Request{
			Text:       chunk.Text,
			SourceLang: langs.Source,
			TargetLang: langs.Target,
		})
		if err != nil {
			logging.ErrorWithContext(logger, "chunk translation failed", "chunk_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorKind, services.FailureKind(err)),
				logging.String(logging.FieldErrorHint, "re-run to resume from this chunk"),
			)
			return translated, &ChunkError{ChunkID: chunk.ID, Err: err}
		}

		// A translation that came back is kept even when the run is being
		// interrupted.
		if err := inv.store.CompleteChunk(context.WithoutCancel(chunkCtx), chunk.ID, text); err != nil {
			logging.ErrorWithContext(logger, "failed to record translation", "chunk_record_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
			return translated, &ChunkError{ChunkID: chunk.ID, Err: err}
		}
		translated++
		logger.Debug("chunk translated",
			logging.Int("source_chars", len(chunk.Text)),
			logging.Int("translated_chars", len(text)),
			logging.Duration("elapsed", time.Since(started)),
		)
		progress.Update(translated)
	}
	return translated, nil
}

func (inv *Invoker) translateChunk(ctx context.Context, logger *slog.Logger, req translate.Request) (string, error) {
	if inv.policy != config.PolicyRetry {
		return inv.translator.Translate(ctx, req)
	}

	delay := inv.baseDelay
	var lastErr error
	for attempt := 1; attempt <= inv.attempts; attempt++ {
		result, err := inv.breaker.Execute(func() (interface{}, error) {
			return inv.translator.Translate(ctx, req)
		})
		if err == nil {
			text, _ := result.(string)
			return text, nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			if lastErr != nil {
				return "", services.Wrap(services.ErrExternalTool, "workflow", "translate",
					"circuit breaker open", lastErr)
			}
			return "", services.Wrap(services.ErrExternalTool, "workflow", "translate",
				"circuit breaker open", err)
		}
		lastErr = err
		if !services.IsRetryable(err) || attempt == inv.attempts {
			break
		}
		logger.Warn("chunk translation failed; retrying",
			logging.Error(err),
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", inv.attempts),
			logging.Duration("backoff", delay),
			logging.String(logging.FieldEventType, "chunk_retry"),
		)
		if err := inv.sleep(ctx, delay); err != nil {
			return "", err
		}
		delay = min(delay*2, inv.maxDelay)
	}
	if inv.attempts > 1 && services.IsRetryable(lastErr) {
		return "", fmt.Errorf("after %d attempts: %w", inv.attempts, lastErr)
	}
	return "", lastErr
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
