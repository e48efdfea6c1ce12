package testsupport

import (
	"path/filepath"
	"testing"

	"tolk/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ResourcesDir = filepath.Join(base, "resources")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.DatabaseDir = filepath.Join(base, "database")
	cfgVal.Translation.FileName = "input.txt"
	cfgVal.Model.APIKey = "test"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithLanguages overrides the source and target languages.
func WithLanguages(src, target string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Translation.SrcLang = src
		b.cfg.Translation.TargetLang = target
	}
}

// WithFileName sets the source document name.
func WithFileName(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Translation.FileName = name
	}
}

// WithMaxChunkLength overrides the chunk length bound.
func WithMaxChunkLength(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Translation.MaxChunkLength = n
	}
}

// WithFailurePolicy sets the workflow failure policy and retry attempts.
func WithFailurePolicy(policy string, attempts int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.FailurePolicy = policy
		b.cfg.Workflow.RetryAttempts = attempts
	}
}

// WithLogDir enables file logging under the temp directory.
func WithLogDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.LogDir = filepath.Join(b.baseDir, "logs")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DatabaseDir)
}
