package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"tolk/internal/queue"
)

// CheckSourceFile verifies that the source document exists and is readable.
func CheckSourceFile(path string) Result {
	const name = "Source document"

	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "translation.file_name is not set"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d bytes)", path, info.Size())}
}

// CheckQueue reports queue database health.
func CheckQueue(ctx context.Context, store *queue.Store) Result {
	const name = "Queue database"

	health, err := store.CheckHealth(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", health.DBPath, err)}
	}
	switch {
	case !health.DatabaseExists:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: missing)", health.DBPath)}
	case len(health.MissingTables) > 0:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: missing tables %s)", health.DBPath, strings.Join(health.MissingTables, ", "))}
	case !health.IntegrityCheck:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: integrity check failed)", health.DBPath)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (schema v%d)", health.DBPath, health.SchemaVersion)}
}
