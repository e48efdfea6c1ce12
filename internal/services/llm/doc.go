// Package llm is a small client for OpenRouter-compatible chat completion
// endpoints, used as the default translation backend.
//
// Requests go through resty. HTTP 408/429/5xx, network timeouts, and 2xx
// replies with no content are retried with exponential backoff (3 attempts,
// 1s base, 10s cap by default); Retry-After is honoured. Non-2xx responses
// that survive the retries surface as *StatusError so callers can classify
// them.
package llm
