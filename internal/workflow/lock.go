package workflow

import (
	"fmt"

	"github.com/gofrs/flock"

	"tolk/internal/config"
)

// LockPath is the run lock file kept next to the queue database.
func LockPath(cfg *config.Config) string {
	return cfg.DatabasePath() + ".lock"
}

// AcquireLock takes the run lock without waiting. It returns ErrLocked when
// another run (or reset) holds it. Callers release it with Unlock.
func AcquireLock(path string) (*flock.Flock, error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrLocked, path)
	}
	return lock, nil
}
