package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient implements Client using the Gemini generateContent API.
type GeminiClient struct {
	transport
	host   string
	model  string
	apiKey string
}

// NewGemini creates a GeminiClient. An empty endpoint uses the public API.
func NewGemini(endpoint, model, apiKey string, timeout time.Duration, retries int) *GeminiClient {
	return &GeminiClient{
		transport: newTransport(Gemini.String(), timeout, retries),
		host:      baseURL(endpoint, defaultGeminiEndpoint),
		model:     model,
		apiKey:    apiKey,
	}
}

func (g *GeminiClient) Name() string  { return Gemini.String() }
func (g *GeminiClient) Model() string { return g.model }

// Generate calls models/{model}:generateContent and joins the text parts of
// the first candidate.
func (g *GeminiClient) Generate(ctx context.Context, genReq GenerateRequest) (GenerateResponse, error) {
	type geminiPart struct {
		Text string `json:"text"`
	}
	type geminiContent struct {
		Role  string       `json:"role,omitempty"`
		Parts []geminiPart `json:"parts"`
	}
	type generationConfig struct {
		MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
		Temperature     *float64 `json:"temperature,omitempty"`
	}
	type geminiRequest struct {
		SystemInstruction *geminiContent    `json:"systemInstruction,omitempty"`
		Contents          []geminiContent   `json:"contents"`
		GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: genReq.UserPrompt}}}},
	}
	if genReq.SystemPrompt != "" {
		reqBody.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: genReq.SystemPrompt}}}
	}
	if genReq.MaxTokens != nil || genReq.Temperature != nil {
		reqBody.GenerationConfig = &generationConfig{
			MaxOutputTokens: genReq.MaxTokens,
			Temperature:     genReq.Temperature,
		}
	}

	var decoded struct {
		Candidates []struct {
			Content struct {
				Parts []geminiPart `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		UsageMetadata struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
			TotalTokenCount      int `json:"totalTokenCount"`
		} `json:"usageMetadata"`
	}

	model := resolveModel(genReq.Model, g.model)
	endpoint := g.host + "/models/" + url.PathEscape(model) + ":generateContent"
	headers := map[string]string{"x-goog-api-key": g.apiKey}
	if err := g.postJSON(ctx, endpoint, headers, reqBody, &decoded); err != nil {
		return GenerateResponse{}, fmt.Errorf("gemini generate: %w", err)
	}

	usage := Usage{
		InputTokens:  decoded.UsageMetadata.PromptTokenCount,
		OutputTokens: decoded.UsageMetadata.CandidatesTokenCount,
		TotalTokens:  decoded.UsageMetadata.TotalTokenCount,
	}
	if len(decoded.Candidates) == 0 {
		return GenerateResponse{Usage: usage}, nil
	}

	var text strings.Builder
	for _, part := range decoded.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return GenerateResponse{
		Text:         text.String(),
		FinishReason: decoded.Candidates[0].FinishReason,
		Usage:        usage,
	}, nil
}
