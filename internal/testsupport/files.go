package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"tolk/internal/config"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteSource writes the configured source document and returns its path.
func WriteSource(t testing.TB, cfg *config.Config, content string) string {
	t.Helper()

	path := cfg.SourcePath()
	WriteFile(t, path, content)
	return path
}

// ReadFile returns the content of path, failing the test when it is missing.
func ReadFile(t testing.TB, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
