package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration. Relative values resolve against the
// working directory.
type Paths struct {
	ResourcesDir string `toml:"resources_dir"`
	OutputDir    string `toml:"output_dir"`
	DatabaseDir  string `toml:"database_dir"`
	LogDir       string `toml:"log_dir"`
}

// Translation describes the document being translated.
type Translation struct {
	FileName       string `toml:"file_name"`
	SrcLang        string `toml:"src_lang"`
	TargetLang     string `toml:"target_lang"`
	MaxChunkLength int    `toml:"max_chunk_length"`
}

// Model contains the connection settings for the translation backend.
type Model struct {
	Backend        string `toml:"backend"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	// Keyring enables looking up the API key in the system keyring when it is
	// not set in the file or environment.
	Keyring bool `toml:"keyring"`
}

// Workflow contains the chunk failure policy.
type Workflow struct {
	FailurePolicy    string `toml:"failure_policy"`
	RetryAttempts    int    `toml:"retry_attempts"`
	BreakerThreshold int    `toml:"breaker_threshold"`
}

// Notifications configures ntfy delivery of run outcomes.
type Notifications struct {
	// NtfyTopic is the full topic URL, e.g. https://ntfy.sh/my-topic. Empty disables notifications.
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for tolk.
//
// Configuration sections by subsystem:
//   - Paths: input, output, database, and log directories
//   - Translation: source document and language pair
//   - Model: translation backend selection and credentials
//   - Workflow: failure policy for chunk translation
//   - Notifications: optional ntfy topic
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Translation   Translation   `toml:"translation"`
	Model         Model         `toml:"model"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// legacyConfig mirrors the flat config.json accepted by earlier releases.
type legacyConfig struct {
	FileName   string `json:"file_name"`
	SrcLang    string `json:"src_lang"`
	TargetLang string `json:"target_lang"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/tolk/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. Paths ending in .json are read as the legacy
// flat format.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		if err := decodeFile(resolvedPath, &cfg); err != nil {
			return nil, "", false, err
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		var legacy legacyConfig
		if err := json.NewDecoder(file).Decode(&legacy); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
		cfg.Translation.FileName = legacy.FileName
		cfg.Translation.SrcLang = legacy.SrcLang
		cfg.Translation.TargetLang = legacy.TargetLang
		return nil
	}

	decoder := toml.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tolk.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the database and output directories. The log
// directory is only created when file logging is configured.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DatabaseDir, c.Paths.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
			return fmt.Errorf("create log directory %q: %w", c.Paths.LogDir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the queue database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DatabaseDir, "translation.db")
}

// SourcePath resolves the configured source document. Bare file names are
// looked up in the resources directory; anything containing a path separator
// is used as given.
func (c *Config) SourcePath() string {
	return c.ResolveSource(c.Translation.FileName)
}

// ResolveSource applies the SourcePath rules to an arbitrary file name.
func (c *Config) ResolveSource(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) || strings.ContainsRune(name, os.PathSeparator) || strings.Contains(name, "/") {
		if abs, err := expandPath(name); err == nil {
			return abs
		}
		return name
	}
	return filepath.Join(c.Paths.ResourcesDir, name)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ModelConfig contains the resolved translation backend settings.
type ModelConfig struct {
	Backend        string
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
	Keyring        bool
}

// GetModel returns the translation backend settings with whitespace trimmed.
func (c *Config) GetModel() ModelConfig {
	return ModelConfig{
		Backend:        strings.TrimSpace(c.Model.Backend),
		APIKey:         strings.TrimSpace(c.Model.APIKey),
		BaseURL:        strings.TrimSpace(c.Model.BaseURL),
		Model:          strings.TrimSpace(c.Model.Model),
		Referer:        strings.TrimSpace(c.Model.Referer),
		Title:          strings.TrimSpace(c.Model.Title),
		TimeoutSeconds: c.Model.TimeoutSeconds,
		Keyring:        c.Model.Keyring,
	}
}
