package translate

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"tolk/internal/config"
)

type openAITranslator struct {
	client *openai.Client
	model  string
}

func newOpenAITranslator(cfg config.ModelConfig, httpClient *http.Client) *openAITranslator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.BaseURL = strings.TrimRight(base, "/")
	}
	clientCfg.HTTPClient = httpClient
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = openai.GPT4oMini
	}
	return &openAITranslator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

func (t *openAITranslator) Name() string { return config.BackendOpenAI }

func (t *openAITranslator) Translate(ctx context.Context, req Request) (string, error) {
	if err := validateRequest(t.Name(), req); err != nil {
		return "", err
	}
	if strings.TrimSpace(req.Text) == "" {
		return "", nil
	}
	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: req.Text},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", t.classify(err)
	}
	if len(resp.Choices) == 0 {
		return finishText(t.Name(), "")
	}
	return finishText(t.Name(), resp.Choices[0].Message.Content)
}

func (t *openAITranslator) HealthCheck(ctx context.Context) error {
	if _, err := t.client.GetModel(ctx, t.model); err != nil {
		return t.classify(err)
	}
	return nil
}

func (t *openAITranslator) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return classifyStatus(t.Name(), apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return classifyStatus(t.Name(), reqErr.HTTPStatusCode, err)
	}
	return classifyTransport(t.Name(), err)
}
