package translate

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"tolk/internal/config"
	"tolk/internal/language"
)

const defaultLibreTranslateURL = "http://127.0.0.1:5000"

// libreTranslator talks to a LibreTranslate server, a self-hosted
// sequence-to-sequence machine translation service.
type libreTranslator struct {
	http   *resty.Client
	apiKey string
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
}

type libreError struct {
	Error string `json:"error"`
}

func newLibreTranslator(cfg config.ModelConfig, httpClient *http.Client) *libreTranslator {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultLibreTranslateURL
	}
	client := resty.NewWithClient(httpClient).
		SetBaseURL(base).
		SetHeader("Accept", "application/json")
	return &libreTranslator{http: client, apiKey: cfg.APIKey}
}

func (t *libreTranslator) Name() string { return config.BackendLibreTranslate }

func (t *libreTranslator) Translate(ctx context.Context, req Request) (string, error) {
	if err := validateRequest(t.Name(), req); err != nil {
		return "", err
	}
	if strings.TrimSpace(req.Text) == "" {
		return "", nil
	}
	source := language.ToISO2(req.SourceLang)
	if source == "" {
		source = "auto"
	}
	target := language.ToISO2(req.TargetLang)
	if target == "" {
		target = strings.TrimSpace(req.TargetLang)
	}
	var (
		result  libreResponse
		failure libreError
	)
	resp, err := t.http.R().
		SetContext(ctx).
		SetBody(libreRequest{
			Q:      req.Text,
			Source: source,
			Target: target,
			Format: "text",
			APIKey: t.apiKey,
		}).
		SetResult(&result).
		SetError(&failure).
		Post("/translate")
	if err != nil {
		return "", classifyTransport(t.Name(), err)
	}
	if resp.IsError() {
		var detail error
		if msg := strings.TrimSpace(failure.Error); msg != "" {
			detail = errors.New(msg)
		}
		return "", classifyStatus(t.Name(), resp.StatusCode(), detail)
	}
	return finishText(t.Name(), result.TranslatedText)
}

func (t *libreTranslator) HealthCheck(ctx context.Context) error {
	resp, err := t.http.R().SetContext(ctx).Get("/languages")
	if err != nil {
		return classifyTransport(t.Name(), err)
	}
	if resp.IsError() {
		return classifyStatus(t.Name(), resp.StatusCode(), nil)
	}
	return nil
}
