package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func reply(t *testing.T, w http.ResponseWriter, choice map[string]any) {
	t.Helper()
	if err := json.NewEncoder(w).Encode(map[string]any{"choices": []any{choice}}); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func fastRetry(attempts int) Option {
	return WithRetry(attempts, time.Millisecond, 5*time.Millisecond)
}

func TestCompleteTextSendsPromptsAndHeaders(t *testing.T) {
	var received chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "tolk" {
			t.Errorf("unexpected title header %q", got)
		}
		if got := r.Header.Get("HTTP-Referer"); got != "https://example.test" {
			t.Errorf("unexpected referer header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		reply(t, w, map[string]any{
			"finish_reason": "stop",
			"message":       map[string]any{"content": "  Bonjour le monde.  "},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model", Title: "tolk", Referer: "https://example.test"})
	content, err := client.CompleteText(context.Background(), "Translate.", "Hello world.")
	if err != nil {
		t.Fatalf("CompleteText failed: %v", err)
	}
	if content != "Bonjour le monde." {
		t.Fatalf("unexpected content %q", content)
	}
	if received.Model != "demo-model" || len(received.Messages) != 2 || received.Temperature != 0 {
		t.Fatalf("unexpected request: %#v", received)
	}
	if received.Messages[0].Role != "system" || received.Messages[1].Content != "Hello world." {
		t.Fatalf("unexpected messages %#v", received.Messages)
	}
}

func TestCompleteTextValidatesInput(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1", Model: "demo"})
	if _, err := client.CompleteText(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected missing api key to fail")
	}
	client = NewClient(Config{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	if _, err := client.CompleteText(context.Background(), " ", "user"); err == nil {
		t.Fatal("expected missing system prompt to fail")
	}
	if _, err := client.CompleteText(context.Background(), "system", "\n"); err == nil {
		t.Fatal("expected missing user prompt to fail")
	}
}

func TestCompleteTextAcceptsDeltaAndLegacyText(t *testing.T) {
	cases := map[string]map[string]any{
		"delta": {"delta": map[string]any{"content": "Hallo."}},
		"text":  {"finish_reason": "stop", "text": "Hallo."},
	}
	for name, choice := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reply(t, w, choice)
			}))
			defer server.Close()

			client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
			content, err := client.CompleteText(context.Background(), "system", "Hello.")
			if err != nil {
				t.Fatalf("CompleteText failed: %v", err)
			}
			if content != "Hallo." {
				t.Fatalf("unexpected content %q", content)
			}
		})
	}
}

func TestCompleteTextRetriesThrottling(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limited"}`))
			return
		}
		reply(t, w, map[string]any{"message": map[string]any{"content": "Hola."}})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL}, fastRetry(3))
	started := time.Now()
	content, err := client.CompleteText(context.Background(), "system", "Hello.")
	if err != nil {
		t.Fatalf("CompleteText failed: %v", err)
	}
	if content != "Hola." || calls.Load() != 2 {
		t.Fatalf("content=%q calls=%d", content, calls.Load())
	}
	if elapsed := time.Since(started); elapsed > 900*time.Millisecond {
		t.Fatalf("Retry-After should be capped by the max delay, waited %s", elapsed)
	}
}

func TestCompleteTextDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad model"}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL}, fastRetry(5))
	_, err := client.CompleteText(context.Background(), "system", "Hello.")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 StatusError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestCompleteTextServerErrorExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL}, fastRetry(3))
	_, err := client.CompleteText(context.Background(), "system", "Hello.")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 StatusError, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestCompleteTextRetriesEmptyContent(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := ""
		if calls.Add(1) >= 3 {
			content = "Ciao."
		}
		reply(t, w, map[string]any{"finish_reason": "stop", "message": map[string]any{"content": content}})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL}, fastRetry(5))
	content, err := client.CompleteText(context.Background(), "system", "Hello.")
	if err != nil {
		t.Fatalf("CompleteText failed: %v", err)
	}
	if content != "Ciao." || calls.Load() != 3 {
		t.Fatalf("content=%q calls=%d", content, calls.Load())
	}
}

func TestCompleteTextEmptyContentReportsSnippet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply(t, w, map[string]any{
			"finish_reason": "content_filter",
			"message":       map[string]any{"content": "", "refusal": "cannot help"},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL}, WithRetry(0, 0, 0))
	_, err := client.CompleteText(context.Background(), "system", "user")
	if !IsEmptyContent(err) {
		t.Fatalf("expected empty-content error, got %v", err)
	}
	for _, want := range []string{`finish_reason="content_filter"`, `refusal="cannot help"`, "response_snippet="} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply(t, w, map[string]any{"message": map[string]any{"content": "OK"}})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
}

func TestHealthCheckUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL})
	err := client.HealthCheck(context.Background())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 StatusError, got %v", err)
	}
}

func TestCompleteTextStopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := NewClient(Config{APIKey: "test", BaseURL: server.URL}, fastRetry(5))
	if _, err := client.CompleteText(ctx, "system", "Hello."); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
