package provider

import (
	"context"
	"fmt"
	"time"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1"

// OpenAIClient implements Client using the OpenAI Chat Completions API.
type OpenAIClient struct {
	transport
	host   string
	model  string
	apiKey string
}

// NewOpenAI creates an OpenAIClient. An empty endpoint uses the public API.
func NewOpenAI(endpoint, model, apiKey string, timeout time.Duration, retries int) *OpenAIClient {
	return &OpenAIClient{
		transport: newTransport(OpenAI.String(), timeout, retries),
		host:      baseURL(endpoint, defaultOpenAIEndpoint),
		model:     model,
		apiKey:    apiKey,
	}
}

func (o *OpenAIClient) Name() string  { return OpenAI.String() }
func (o *OpenAIClient) Model() string { return o.model }

// Generate sends a system+user conversation to /chat/completions.
func (o *OpenAIClient) Generate(ctx context.Context, genReq GenerateRequest) (GenerateResponse, error) {
	type openAIMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type openAIChatRequest struct {
		Model       string          `json:"model"`
		Messages    []openAIMessage `json:"messages"`
		MaxTokens   *int            `json:"max_tokens,omitempty"`
		Temperature *float64        `json:"temperature,omitempty"`
	}

	reqBody := openAIChatRequest{
		Model:       resolveModel(genReq.Model, o.model),
		MaxTokens:   genReq.MaxTokens,
		Temperature: genReq.Temperature,
	}
	if genReq.SystemPrompt != "" {
		reqBody.Messages = append(reqBody.Messages, openAIMessage{Role: "system", Content: genReq.SystemPrompt})
	}
	reqBody.Messages = append(reqBody.Messages, openAIMessage{Role: "user", Content: genReq.UserPrompt})

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}
	if err := o.postJSON(ctx, o.host+"/chat/completions", headers, reqBody, &decoded); err != nil {
		return GenerateResponse{}, fmt.Errorf("openai generate: %w", err)
	}

	usage := Usage{
		InputTokens:  decoded.Usage.PromptTokens,
		OutputTokens: decoded.Usage.CompletionTokens,
		TotalTokens:  decoded.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}

	if len(decoded.Choices) == 0 {
		return GenerateResponse{Usage: usage}, nil
	}
	return GenerateResponse{
		Text:         decoded.Choices[0].Message.Content,
		FinishReason: decoded.Choices[0].FinishReason,
		Usage:        usage,
	}, nil
}
