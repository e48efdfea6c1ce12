package preflight

import (
	"context"

	"tolk/internal/config"
	"tolk/internal/queue"
	"tolk/internal/translate"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}

// RunAll executes every preflight check for the given config. The store and
// translator are optional; their checks are skipped when nil.
func RunAll(ctx context.Context, cfg *config.Config, store *queue.Store, translator translate.Translator) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckSourceFile(cfg.SourcePath()),
		CheckDirectoryAccess("Database directory", cfg.Paths.DatabaseDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDiskSpace("Output disk space", cfg.Paths.OutputDir, MinFreeBytes),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if store != nil {
		results = append(results, CheckQueue(ctx, store))
	}
	if translator != nil {
		results = append(results, CheckModel(ctx, translator))
	}
	return results
}
