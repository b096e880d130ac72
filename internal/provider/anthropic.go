package provider

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	defaultAnthropicEndpoint = "https://api.anthropic.com/v1"
	anthropicVersion         = "2023-06-01"
	// The Messages API requires max_tokens on every request.
	anthropicFallbackMaxTokens = 4096
)

// AnthropicClient implements Client using the Anthropic Messages API.
type AnthropicClient struct {
	transport
	host   string
	model  string
	apiKey string
}

// NewAnthropic creates an AnthropicClient. An empty endpoint uses the public API.
func NewAnthropic(endpoint, model, apiKey string, timeout time.Duration, retries int) *AnthropicClient {
	return &AnthropicClient{
		transport: newTransport(Anthropic.String(), timeout, retries),
		host:      baseURL(endpoint, defaultAnthropicEndpoint),
		model:     model,
		apiKey:    apiKey,
	}
}

func (a *AnthropicClient) Name() string  { return Anthropic.String() }
func (a *AnthropicClient) Model() string { return a.model }

// Generate sends the prompt to /messages and joins the text content blocks.
func (a *AnthropicClient) Generate(ctx context.Context, genReq GenerateRequest) (GenerateResponse, error) {
	type anthropicMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type anthropicRequest struct {
		Model       string             `json:"model"`
		System      string             `json:"system,omitempty"`
		Messages    []anthropicMessage `json:"messages"`
		MaxTokens   int                `json:"max_tokens"`
		Temperature *float64           `json:"temperature,omitempty"`
	}

	maxTokens := anthropicFallbackMaxTokens
	if genReq.MaxTokens != nil {
		maxTokens = *genReq.MaxTokens
	}
	reqBody := anthropicRequest{
		Model:       resolveModel(genReq.Model, a.model),
		System:      genReq.SystemPrompt,
		Messages:    []anthropicMessage{{Role: "user", Content: genReq.UserPrompt}},
		MaxTokens:   maxTokens,
		Temperature: genReq.Temperature,
	}

	var decoded struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		StopReason string `json:"stop_reason"`
		Usage      struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}
	if err := a.postJSON(ctx, a.host+"/messages", headers, reqBody, &decoded); err != nil {
		return GenerateResponse{}, fmt.Errorf("anthropic generate: %w", err)
	}

	var text strings.Builder
	for _, block := range decoded.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return GenerateResponse{
		Text:         text.String(),
		FinishReason: decoded.StopReason,
		Usage: Usage{
			InputTokens:  decoded.Usage.InputTokens,
			OutputTokens: decoded.Usage.OutputTokens,
			TotalTokens:  decoded.Usage.InputTokens + decoded.Usage.OutputTokens,
		},
	}, nil
}
