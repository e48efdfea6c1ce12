package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultEndpoint       = "https://openrouter.ai/api/v1/chat/completions"
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	snippetLimit          = 240
)

// Config captures the settings needed to reach an OpenRouter-compatible
// chat completion endpoint.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Client sends chat completion requests. Transport-level retries are handled
// here; callers see only the final outcome.
type Client struct {
	cfg  Config
	http *resty.Client
}

type options struct {
	httpClient *http.Client
	attempts   int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// Option customizes the client.
type Option func(*options)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithRetry sets the attempt count and backoff bounds. attempts < 1 disables
// retries.
func WithRetry(attempts int, baseDelay, maxDelay time.Duration) Option {
	return func(o *options) {
		o.attempts = attempts
		o.baseDelay = baseDelay
		o.maxDelay = maxDelay
	}
}

// NewClient constructs a client for cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	o := options{
		attempts:  defaultRetryAttempts,
		baseDelay: defaultRetryBaseDelay,
		maxDelay:  defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	}
	if o.attempts < 1 {
		o.attempts = 1
	}

	cfg = Config{
		APIKey:         strings.TrimSpace(cfg.APIKey),
		BaseURL:        strings.TrimSpace(cfg.BaseURL),
		Model:          strings.TrimSpace(cfg.Model),
		Referer:        strings.TrimSpace(cfg.Referer),
		Title:          strings.TrimSpace(cfg.Title),
		TimeoutSeconds: cfg.TimeoutSeconds,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultEndpoint
	}

	rc := resty.NewWithClient(o.httpClient).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(o.attempts - 1).
		SetRetryWaitTime(o.baseDelay).
		SetRetryMaxWaitTime(o.maxDelay).
		SetRetryAfter(retryAfter).
		AddRetryCondition(shouldRetry)
	if cfg.APIKey != "" {
		rc.SetAuthToken(cfg.APIKey)
	}
	if cfg.Referer != "" {
		rc.SetHeader("HTTP-Referer", cfg.Referer)
		rc.SetHeader("Referer", cfg.Referer)
	}
	if cfg.Title != "" {
		rc.SetHeader("X-Title", cfg.Title)
	}
	return &Client{cfg: cfg, http: rc}
}

// StatusError reports a non-2xx response from the chat endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.StatusCode, e.Body)
}

// IsEmptyContent reports whether err means the model answered without usable
// text.
func IsEmptyContent(err error) bool {
	var target *emptyContentError
	return errors.As(err, &target)
}

type emptyContentError struct {
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf("llm complete: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.FinishReason, e.Refusal, e.Snippet)
}

// CompleteText sends a system and user prompt and returns the trimmed reply.
func (c *Client) CompleteText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	if systemPrompt == "" {
		return "", errors.New("llm complete: system prompt required")
	}
	if strings.TrimSpace(userPrompt) == "" {
		return "", errors.New("llm complete: user prompt required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("llm complete: api key required")
	}
	return c.complete(ctx, chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
}

// HealthCheck sends a one-word prompt to verify the key and model.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("llm health: api key required")
	}
	_, err := c.complete(ctx, chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "Reply with the single word OK."},
			{Role: "user", Content: "ping"},
		},
		MaxTokens: 5,
	})
	if err != nil {
		return fmt.Errorf("llm health: %w", err)
	}
	return nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatReply `json:"message"`
		// Some providers return the streaming schema even when stream=false.
		Delta        chatReply `json:"delta"`
		Text         string    `json:"text"`
		FinishReason string    `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatReply struct {
	Content string `json:"content"`
	Refusal string `json:"refusal"`
}

func (c *Client) complete(ctx context.Context, payload chatRequest) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("llm request: %w", err)
	}
	if resp.IsError() {
		return "", &StatusError{StatusCode: resp.StatusCode(), Body: strings.TrimSpace(string(resp.Body()))}
	}
	var completion chatResponse
	if err := json.Unmarshal(resp.Body(), &completion); err != nil {
		return "", fmt.Errorf("llm request: decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("llm request: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	content, finishReason, refusal := completion.extract()
	if content == "" {
		return "", &emptyContentError{
			FinishReason: finishReason,
			Refusal:      refusal,
			Snippet:      snippet(resp.Body()),
		}
	}
	return content, nil
}

// extract returns the first non-empty content across choices along with the
// first finish reason and refusal seen.
func (r chatResponse) extract() (content, finishReason, refusal string) {
	for _, choice := range r.Choices {
		if finishReason == "" {
			finishReason = strings.TrimSpace(choice.FinishReason)
		}
		if refusal == "" {
			refusal = firstNonEmpty(choice.Message.Refusal, choice.Delta.Refusal)
		}
		if text := firstNonEmpty(choice.Message.Content, choice.Delta.Content, choice.Text); text != "" {
			return text, finishReason, refusal
		}
	}
	return "", finishReason, refusal
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func snippet(body []byte) string {
	text := strings.Join(strings.Fields(string(body)), " ")
	if len(text) > snippetLimit {
		text = text[:snippetLimit] + "..."
	}
	return strconv.Quote(text)
}

// shouldRetry retries throttling, server errors, timeouts, and 2xx replies
// without content.
func shouldRetry(resp *resty.Response, err error) bool {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		var netErr net.Error
		return errors.As(err, &netErr) && netErr.Timeout()
	}
	if resp == nil {
		return false
	}
	status := resp.StatusCode()
	switch {
	case status == http.StatusRequestTimeout,
		status == http.StatusTooManyRequests,
		status >= http.StatusInternalServerError:
		return true
	case status >= http.StatusMultipleChoices:
		return false
	}
	var completion chatResponse
	if json.Unmarshal(resp.Body(), &completion) != nil || completion.Error != nil {
		return false
	}
	content, _, _ := completion.extract()
	return content == ""
}

// retryAfter honours a Retry-After header in seconds; zero falls back to the
// exponential backoff.
func retryAfter(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
	if resp == nil {
		return 0, nil
	}
	value := strings.TrimSpace(resp.Header().Get("Retry-After"))
	if value == "" {
		return 0, nil
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second, nil
	}
	if when, err := http.ParseTime(value); err == nil {
		if d := time.Until(when); d > 0 {
			return d, nil
		}
	}
	return 0, nil
}
