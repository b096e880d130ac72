package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGeminiGenerate(t *testing.T) {
	t.Parallel()

	var got struct {
		SystemInstruction *struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"systemInstruction"`
		Contents []struct {
			Role  string `json:"role"`
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
		GenerationConfig map[string]any `json:"generationConfig"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-2.5-flash:generateContent" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if key := r.Header.Get("x-goog-api-key"); key != "g-key" {
			t.Errorf("x-goog-api-key = %q", key)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"candidates":[{"content":{"parts":[{"text":"SELECT"},{"text":" 2"}]},"finishReason":"STOP"}],
			"usageMetadata":{"promptTokenCount":8,"candidatesTokenCount":2,"totalTokenCount":10}
		}`))
	}))
	defer srv.Close()

	maxTokens := 1024
	resp, err := NewGemini(srv.URL, "gemini-2.5-flash", "g-key", time.Second, 0).
		Generate(context.Background(), GenerateRequest{
			SystemPrompt: "sys",
			UserPrompt:   "two",
			MaxTokens:    &maxTokens,
		})
	if err != nil {
		t.Fatalf("Generate() unexpected error: %v", err)
	}
	if resp.Text != "SELECT 2" || resp.FinishReason != "STOP" || resp.Usage.TotalTokens != 10 {
		t.Errorf("resp = %+v", resp)
	}

	if got.SystemInstruction == nil || len(got.SystemInstruction.Parts) != 1 || got.SystemInstruction.Parts[0].Text != "sys" {
		t.Errorf("systemInstruction = %+v", got.SystemInstruction)
	}
	if len(got.Contents) != 1 || got.Contents[0].Role != "user" || got.Contents[0].Parts[0].Text != "two" {
		t.Errorf("contents = %+v", got.Contents)
	}
	if got.GenerationConfig["maxOutputTokens"] != float64(1024) {
		t.Errorf("generationConfig = %v", got.GenerationConfig)
	}
}

func TestGeminiGenerateNoCandidates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	resp, err := NewGemini(srv.URL, "gemini-2.5-flash", "g-key", time.Second, 0).
		Generate(context.Background(), GenerateRequest{UserPrompt: "hi"})
	if err != nil {
		t.Fatalf("Generate() unexpected error: %v", err)
	}
	if resp.Text != "" {
		t.Errorf("Text = %q, want empty", resp.Text)
	}
}
