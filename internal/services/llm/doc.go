// Package llm provides a chat completion client for OpenAI-compatible APIs.
//
// The transcript refinement stage uses it to rewrite segment text in one
// JSON request. DeepSeek is the default endpoint; any provider exposing the
// /chat/completions schema works.
//
// # Entry Points
//
// NewClient: construct a client from Config.
// Client.CompleteJSON: send system/user prompts, receive the raw JSON content.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: decode model output, tolerating code fences and stray prose.
//
// # Retry Behaviour
//
// The client retries HTTP 408/429/5xx, empty completions, and network
// timeouts with exponential backoff (base 1s, max 10s, 5 attempts by
// default). WithRetryMaxAttempts(1) disables retries. Context cancellation
// aborts immediately.
package llm
