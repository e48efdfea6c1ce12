package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tolk/internal/logging"
	"tolk/internal/output"
	"tolk/internal/queue"
)

// Assembler joins stored translations into the output document.
type Assembler struct {
	store  *queue.Store
	logger *slog.Logger
}

// NewAssembler constructs an Assembler over store.
func NewAssembler(store *queue.Store, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Assembler{store: store, logger: logging.NewComponentLogger(logger, "assembler")}
}

// Assemble writes every stored translation, in insertion order and separated
// by single spaces, to path and then clears the queue. When the write fails
// the queue is left untouched so the next run can assemble again. It returns
// the number of translations written.
func (a *Assembler) Assemble(ctx context.Context, path string) (int, error) {
	translations, err := a.store.AllTranslations(ctx)
	if err != nil {
		return 0, fmt.Errorf("load translations: %w", err)
	}

	if err := output.Write(path, strings.Join(translations, " ")); err != nil {
		return 0, fmt.Errorf("write output %s: %w", path, err)
	}
	a.logger.Info("output written",
		logging.String("path", path),
		logging.Int("translations", len(translations)),
	)

	if err := a.store.Reset(ctx); err != nil {
		return len(translations), fmt.Errorf("clear queue after writing %s: %w", path, err)
	}
	return len(translations), nil
}
