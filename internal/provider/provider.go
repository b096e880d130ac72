// Package provider selects an LLM backend for a request and implements the
// transports that talk to each backend's REST API.
package provider

import "context"

// GenerateRequest is a normalized single-turn generation request.
type GenerateRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	// MaxTokens and Temperature are sent only when non-nil.
	MaxTokens   *int
	Temperature *float64
}

// Usage represents token usage metadata when available.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// GenerateResponse is a normalized provider response.
type GenerateResponse struct {
	// Text is the assistant content. It may be empty; callers decide
	// what an empty reply means.
	Text string
	// FinishReason is provider stop reason, when available.
	FinishReason string
	// Usage is token usage metadata, when available.
	Usage Usage
}

// Client sends generation requests to one LLM backend.
type Client interface {
	// Generate sends the request and returns the backend reply. Transport
	// failures and non-2xx statuses are returned as errors.
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)

	// Name returns the provider name (e.g., "openai").
	Name() string

	// Model returns the model used when a request leaves Model empty.
	Model() string
}
