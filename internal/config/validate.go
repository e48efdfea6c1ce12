package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateModel(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if c.Translation.SrcLang == "" {
		return errors.New("translation.src_lang must be set")
	}
	if c.Translation.TargetLang == "" {
		return errors.New("translation.target_lang must be set")
	}
	if c.Translation.SrcLang == c.Translation.TargetLang {
		return fmt.Errorf("translation.target_lang must differ from translation.src_lang (both %q)", c.Translation.SrcLang)
	}
	if c.Translation.MaxChunkLength < 0 {
		return errors.New("translation.max_chunk_length must be positive")
	}
	return nil
}

func (c *Config) validateModel() error {
	switch c.Model.Backend {
	case BackendLLM, BackendOpenAI, BackendGemini, BackendLibreTranslate:
	default:
		return fmt.Errorf("model.backend: unsupported value %q (expected llm, openai, gemini, or libretranslate)", c.Model.Backend)
	}
	if c.Model.TimeoutSeconds < 0 {
		return errors.New("model.timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	switch c.Workflow.FailurePolicy {
	case PolicyFailFast, PolicyRetry:
	default:
		return fmt.Errorf("workflow.failure_policy: unsupported value %q (expected fail_fast or retry)", c.Workflow.FailurePolicy)
	}
	if c.Workflow.RetryAttempts < 1 {
		return errors.New("workflow.retry_attempts must be at least 1")
	}
	if c.Workflow.BreakerThreshold < 1 {
		return errors.New("workflow.breaker_threshold must be at least 1")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be a full http(s) URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
