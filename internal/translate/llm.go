package translate

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"tolk/internal/config"
	"tolk/internal/services"
	"tolk/internal/services/llm"
)

type llmTranslator struct {
	client *llm.Client
}

func newLLMTranslator(cfg config.ModelConfig, httpClient *http.Client) *llmTranslator {
	return &llmTranslator{
		client: llm.NewClient(llm.Config{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			Model:          cfg.Model,
			Referer:        cfg.Referer,
			Title:          cfg.Title,
			TimeoutSeconds: cfg.TimeoutSeconds,
		}, llm.WithHTTPClient(httpClient)),
	}
}

func (t *llmTranslator) Name() string { return config.BackendLLM }

func (t *llmTranslator) Translate(ctx context.Context, req Request) (string, error) {
	if err := validateRequest(t.Name(), req); err != nil {
		return "", err
	}
	if strings.TrimSpace(req.Text) == "" {
		return "", nil
	}
	content, err := t.client.CompleteText(ctx, buildSystemPrompt(req), req.Text)
	if err != nil {
		return "", t.classify(err)
	}
	return finishText(t.Name(), content)
}

func (t *llmTranslator) HealthCheck(ctx context.Context) error {
	if err := t.client.HealthCheck(ctx); err != nil {
		return t.classify(err)
	}
	return nil
}

func (t *llmTranslator) classify(err error) error {
	var statusErr *llm.StatusError
	switch {
	case errors.As(err, &statusErr):
		return classifyStatus(t.Name(), statusErr.StatusCode, err)
	case llm.IsEmptyContent(err):
		return services.Wrap(services.ErrTransient, "translate", t.Name(), "empty response", err)
	default:
		return classifyTransport(t.Name(), err)
	}
}
