// Package translate adapts translation models to a single Translator
// interface used by the workflow.
//
// Backends:
//   - llm: OpenRouter-compatible chat completions (services/llm client)
//   - openai: OpenAI chat completions via go-openai
//   - gemini: Google Gemini via the genai SDK
//   - libretranslate: a self-hosted LibreTranslate server via resty
//
// Every backend trims its reply, reports an empty reply as a transient
// failure, and tags HTTP and transport errors with services markers
// (408/429/5xx and timeouts are transient, other 4xx are permanent).
// API keys come from config, environment variables resolved by config, or
// the system keyring when model.keyring is enabled.
package translate
