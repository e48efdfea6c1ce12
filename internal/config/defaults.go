package config

// Backend identifiers accepted by model.backend.
const (
	BackendLLM            = "llm"
	BackendOpenAI         = "openai"
	BackendGemini         = "gemini"
	BackendLibreTranslate = "libretranslate"
)

// Failure policies accepted by workflow.failure_policy.
const (
	PolicyFailFast = "fail_fast"
	PolicyRetry    = "retry"
)

const (
	defaultResourcesDir      = "resources"
	defaultOutputDir         = "output"
	defaultDatabaseDir       = "database"
	defaultSrcLang           = "en"
	defaultTargetLang        = "fr"
	defaultMaxChunkLength    = 512
	defaultBackend           = BackendLLM
	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "google/gemini-3-flash-preview"
	defaultOpenAIModel       = "gpt-4o-mini"
	defaultGeminiModel       = "gemini-2.0-flash"
	defaultLibreTranslateURL = "http://127.0.0.1:5000"
	defaultModelReferer      = "https://github.com/tolk-dev/tolk"
	defaultModelTitle        = "tolk"
	defaultFailurePolicy     = PolicyFailFast
	defaultRetryAttempts     = 3
	defaultBreakerThreshold  = 5
	defaultNtfyTimeout       = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ResourcesDir: defaultResourcesDir,
			OutputDir:    defaultOutputDir,
			DatabaseDir:  defaultDatabaseDir,
		},
		Translation: Translation{
			SrcLang:        defaultSrcLang,
			TargetLang:     defaultTargetLang,
			MaxChunkLength: defaultMaxChunkLength,
		},
		Model: Model{
			Backend: defaultBackend,
			Referer: defaultModelReferer,
			Title:   defaultModelTitle,
		},
		Workflow: Workflow{
			FailurePolicy:    defaultFailurePolicy,
			RetryAttempts:    defaultRetryAttempts,
			BreakerThreshold: defaultBreakerThreshold,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
