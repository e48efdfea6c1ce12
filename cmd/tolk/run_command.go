package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tolk/internal/config"
	"tolk/internal/queue"
	"tolk/internal/workflow"
)

type runOptions struct {
	target    string
	source    string
	maxLength int
	backend   string
	reset     bool
}

func bindRunFlags(cmd *cobra.Command, opts *runOptions) {
	flags := cmd.Flags()
	flags.StringVarP(&opts.target, "target", "t", "", "Target language (overrides translation.target_lang)")
	flags.StringVarP(&opts.source, "source-lang", "s", "", "Source language (overrides translation.src_lang)")
	flags.IntVar(&opts.maxLength, "max-length", 0, "Maximum chunk length in characters")
	flags.StringVar(&opts.backend, "backend", "", "Model backend: llm, openai, gemini, or libretranslate")
	flags.BoolVar(&opts.reset, "reset", false, "Discard any unfinished batch before starting")
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Translate a document, resuming an unfinished run when present",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslation(cmd, ctx, opts, args)
		},
	}
	bindRunFlags(cmd, &opts)
	return cmd
}

func runTranslation(cmd *cobra.Command, ctx *commandContext, opts runOptions, args []string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	overrides := config.Overrides{
		SrcLang:        opts.source,
		TargetLang:     opts.target,
		MaxChunkLength: opts.maxLength,
		Backend:        opts.backend,
	}
	if len(args) == 1 {
		overrides.FileName = args[0]
	}
	if err := cfg.Apply(overrides); err != nil {
		return err
	}
	if cfg.Translation.FileName == "" {
		return errors.New("no source document: pass a file or set translation.file_name")
	}

	logger, closeLog, err := ctx.logger()
	if err != nil {
		return err
	}
	defer closeLog()
	translator, err := newTranslator(cmd.Context(), cfg.GetModel())
	if err != nil {
		return err
	}

	return ctx.withStore(func(store *queue.Store) error {
		out := cmd.OutOrStdout()
		mgr := workflow.NewManager(cfg, store, translator, logger,
			workflow.WithReset(opts.reset),
			workflow.WithInvokerOptions(workflow.WithProgressWriter(cmd.ErrOrStderr())),
		)
		result, err := mgr.Run(cmd.Context())
		if err != nil {
			return describeFailure(cmd, store, result, err)
		}
		if result.Resumed {
			fmt.Fprintf(out, "Resumed batch %s\n", displayBatchID(result.BatchID))
		}
		fmt.Fprintf(out, "Translation complete: %d chunks (%d translated this run)\n", result.Chunks, result.Translated)
		if result.Replaced {
			fmt.Fprintf(out, "Replaced existing %s\n", result.OutputPath)
		}
		fmt.Fprintf(out, "Output: %s\n", result.OutputPath)
		return nil
	})
}

func describeFailure(cmd *cobra.Command, store *queue.Store, result workflow.Result, err error) error {
	switch {
	case errors.Is(err, workflow.ErrBatchMismatch), errors.Is(err, workflow.ErrLocked):
		return err
	}
	var chunkErr *workflow.ChunkError
	if errors.As(err, &chunkErr) {
		pending, countErr := store.PendingCount(cmd.Context())
		if countErr == nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d chunks translated this run; %d remain queued. Run tolk again to resume.\n",
				result.Translated, pending)
		}
		return fmt.Errorf("translation failed: %w", err)
	}
	return err
}

func displayBatchID(id string) string {
	if id == "" {
		return "(unrecorded)"
	}
	return id
}
