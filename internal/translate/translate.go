package translate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tolk/internal/config"
	"tolk/internal/services"
)

// Request is a single chunk translation request.
type Request struct {
	Text       string
	SourceLang string
	TargetLang string
}

// Translator turns one chunk of source text into the target language.
// Implementations return the translation with surrounding whitespace removed
// and tag failures with services markers so callers can decide whether to
// retry.
type Translator interface {
	Name() string
	Translate(ctx context.Context, req Request) (string, error)
}

// HealthChecker is implemented by backends that can verify credentials and
// reachability without translating real content.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Option customizes backend construction.
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient overrides the HTTP client used by every backend.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// New constructs the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.ModelConfig, opts ...Option) (Translator, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		// A zero timeout means requests wait as long as the model needs.
		o.httpClient = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	}

	apiKey, err := resolveAPIKey(cfg)
	if err != nil {
		return nil, err
	}
	cfg.APIKey = apiKey

	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	switch backend {
	case "", config.BackendLLM:
		if err := requireAPIKey(config.BackendLLM, cfg.APIKey); err != nil {
			return nil, err
		}
		return newLLMTranslator(cfg, o.httpClient), nil
	case config.BackendOpenAI:
		if err := requireAPIKey(backend, cfg.APIKey); err != nil {
			return nil, err
		}
		return newOpenAITranslator(cfg, o.httpClient), nil
	case config.BackendGemini:
		if err := requireAPIKey(backend, cfg.APIKey); err != nil {
			return nil, err
		}
		return newGeminiTranslator(ctx, cfg, o.httpClient)
	case config.BackendLibreTranslate:
		return newLibreTranslator(cfg, o.httpClient), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "translate", "new backend",
			fmt.Sprintf("unsupported backend %q", cfg.Backend), nil)
	}
}

func requireAPIKey(backend, key string) error {
	if strings.TrimSpace(key) != "" {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "translate", backend,
		"api key required (set model.api_key, an environment variable, or enable model.keyring)", nil)
}

func validateRequest(backend string, req Request) error {
	if strings.TrimSpace(req.TargetLang) == "" {
		return services.Wrap(services.ErrValidation, "translate", backend, "target language required", nil)
	}
	return nil
}

// finishText trims a backend reply and rejects empty output.
func finishText(backend, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", services.Wrap(services.ErrTransient, "translate", backend, "empty response", nil)
	}
	return text, nil
}
