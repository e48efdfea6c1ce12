package config

import (
	"fmt"
	"os"
	"strings"

	"tolk/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTranslation(); err != nil {
		return err
	}
	c.normalizeModel()
	c.normalizeWorkflow()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ResourcesDir) == "" {
		c.Paths.ResourcesDir = defaultResourcesDir
	}
	if c.Paths.ResourcesDir, err = expandPath(c.Paths.ResourcesDir); err != nil {
		return fmt.Errorf("paths.resources_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DatabaseDir) == "" {
		c.Paths.DatabaseDir = defaultDatabaseDir
	}
	if c.Paths.DatabaseDir, err = expandPath(c.Paths.DatabaseDir); err != nil {
		return fmt.Errorf("paths.database_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
			return fmt.Errorf("paths.log_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeTranslation() error {
	c.Translation.FileName = strings.TrimSpace(c.Translation.FileName)
	src, err := language.Normalize(c.Translation.SrcLang)
	if err != nil {
		return fmt.Errorf("translation.src_lang: %w", err)
	}
	c.Translation.SrcLang = src
	target, err := language.Normalize(c.Translation.TargetLang)
	if err != nil {
		return fmt.Errorf("translation.target_lang: %w", err)
	}
	c.Translation.TargetLang = target
	if c.Translation.MaxChunkLength == 0 {
		c.Translation.MaxChunkLength = defaultMaxChunkLength
	}
	return nil
}

func (c *Config) normalizeModel() {
	c.Model.Backend = strings.ToLower(strings.TrimSpace(c.Model.Backend))
	if c.Model.Backend == "" {
		c.Model.Backend = defaultBackend
	}
	c.Model.APIKey = strings.TrimSpace(c.Model.APIKey)
	if c.Model.APIKey == "" {
		for _, name := range apiKeyEnvVars(c.Model.Backend) {
			if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
				c.Model.APIKey = strings.TrimSpace(value)
				break
			}
		}
	}
	c.Model.BaseURL = strings.TrimSpace(c.Model.BaseURL)
	c.Model.Model = strings.TrimSpace(c.Model.Model)
	switch c.Model.Backend {
	case BackendLLM:
		if c.Model.BaseURL == "" {
			c.Model.BaseURL = defaultLLMBaseURL
		}
		if c.Model.Model == "" {
			c.Model.Model = defaultLLMModel
		}
	case BackendOpenAI:
		if c.Model.Model == "" {
			c.Model.Model = defaultOpenAIModel
		}
	case BackendGemini:
		if c.Model.Model == "" {
			c.Model.Model = defaultGeminiModel
		}
	case BackendLibreTranslate:
		if c.Model.BaseURL == "" {
			c.Model.BaseURL = defaultLibreTranslateURL
		}
	}
	c.Model.Referer = strings.TrimSpace(c.Model.Referer)
	c.Model.Title = strings.TrimSpace(c.Model.Title)
	if c.Model.Title == "" {
		c.Model.Title = defaultModelTitle
	}
}

// apiKeyEnvVars lists the environment variables consulted for a backend's API
// key, in priority order.
func apiKeyEnvVars(backend string) []string {
	switch backend {
	case BackendOpenAI:
		return []string{"TOLK_API_KEY", "OPENAI_API_KEY"}
	case BackendGemini:
		return []string{"TOLK_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"}
	case BackendLibreTranslate:
		return []string{"TOLK_API_KEY", "LIBRETRANSLATE_API_KEY"}
	default:
		return []string{"TOLK_API_KEY", "OPENROUTER_API_KEY"}
	}
}

func (c *Config) normalizeWorkflow() {
	c.Workflow.FailurePolicy = strings.ToLower(strings.TrimSpace(c.Workflow.FailurePolicy))
	if c.Workflow.FailurePolicy == "" {
		c.Workflow.FailurePolicy = defaultFailurePolicy
	}
	if c.Workflow.RetryAttempts == 0 {
		c.Workflow.RetryAttempts = defaultRetryAttempts
	}
	if c.Workflow.BreakerThreshold == 0 {
		c.Workflow.BreakerThreshold = defaultBreakerThreshold
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
