package translate

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"tolk/internal/config"
	"tolk/internal/services"
)

const defaultGeminiModel = "gemini-2.0-flash"

type geminiTranslator struct {
	client *genai.Client
	model  string
}

func newGeminiTranslator(ctx context.Context, cfg config.ModelConfig, httpClient *http.Client) (*geminiTranslator, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "translate", config.BackendGemini, "create client", err)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultGeminiModel
	}
	return &geminiTranslator{client: client, model: model}, nil
}

func (t *geminiTranslator) Name() string { return config.BackendGemini }

func (t *geminiTranslator) Translate(ctx context.Context, req Request) (string, error) {
	if err := validateRequest(t.Name(), req); err != nil {
		return "", err
	}
	if strings.TrimSpace(req.Text) == "" {
		return "", nil
	}
	resp, err := t.client.Models.GenerateContent(ctx, t.model, genai.Text(req.Text), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(buildSystemPrompt(req), genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
	})
	if err != nil {
		return "", t.classify(err)
	}
	return finishText(t.Name(), resp.Text())
}

func (t *geminiTranslator) HealthCheck(ctx context.Context) error {
	if _, err := t.client.Models.Get(ctx, t.model, nil); err != nil {
		return t.classify(err)
	}
	return nil
}

func (t *geminiTranslator) classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code > 0 {
		return classifyStatus(t.Name(), apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr.Code > 0 {
		return classifyStatus(t.Name(), apiErrPtr.Code, err)
	}
	return classifyTransport(t.Name(), err)
}
