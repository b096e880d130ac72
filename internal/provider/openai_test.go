package provider

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

func TestOpenAIGenerate(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"choices":[{"message":{"content":"{\"sql\":\"SELECT 1\"}"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":12,"completion_tokens":5}
		}`))
	}))
	defer srv.Close()

	c := NewOpenAI(srv.URL+"/", "gpt-4o", "sk-test", time.Second, 0)
	maxTokens := 256
	resp, err := c.Generate(context.Background(), GenerateRequest{
		SystemPrompt: "system",
		UserPrompt:   "user",
		MaxTokens:    &maxTokens,
	})
	if err != nil {
		t.Fatalf("Generate() unexpected error: %v", err)
	}
	if resp.Text != `{"sql":"SELECT 1"}` {
		t.Errorf("Text = %q", resp.Text)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("FinishReason = %q, want stop", resp.FinishReason)
	}
	if resp.Usage.TotalTokens != 17 {
		t.Errorf("TotalTokens = %d, want 17", resp.Usage.TotalTokens)
	}

	if got["model"] != "gpt-4o" {
		t.Errorf("model = %v, want gpt-4o", got["model"])
	}
	if got["max_tokens"] != float64(256) {
		t.Errorf("max_tokens = %v, want 256", got["max_tokens"])
	}
	if _, ok := got["temperature"]; ok {
		t.Error("temperature sent although unset")
	}
	msgs, _ := got["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %v, want system and user", got["messages"])
	}
	first, _ := msgs[0].(map[string]any)
	if first["role"] != "system" || first["content"] != "system" {
		t.Errorf("first message = %v", first)
	}
}

func TestOpenAIGenerateEmptyChoices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	resp, err := NewOpenAI(srv.URL, "gpt-4o", "sk-test", time.Second, 0).
		Generate(context.Background(), GenerateRequest{UserPrompt: "hi"})
	if err != nil {
		t.Fatalf("Generate() unexpected error: %v", err)
	}
	if resp.Text != "" {
		t.Errorf("Text = %q, want empty", resp.Text)
	}
}

func TestOpenAIGenerateStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"Incorrect API key"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAI(srv.URL, "gpt-4o", "bad", time.Second, 3).
		Generate(context.Background(), GenerateRequest{UserPrompt: "hi"})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Generate() error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", statusErr.StatusCode)
	}
	if got := FormatAPIError(err); got != "Incorrect API key" {
		t.Errorf("FormatAPIError() = %q", got)
	}
}

func TestOpenAIGenerateRetriesServerErrors(t *testing.T) {
	noSleep(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	resp, err := NewOpenAI(srv.URL, "gpt-4o", "sk-test", time.Second, 3).
		Generate(context.Background(), GenerateRequest{UserPrompt: "hi"})
	if err != nil {
		t.Fatalf("Generate() unexpected error: %v", err)
	}
	if resp.Text != "ok" {
		t.Errorf("Text = %q, want ok", resp.Text)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestOpenAIGenerateMalformedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewOpenAI(srv.URL, "gpt-4o", "sk-test", time.Second, 3).
		Generate(context.Background(), GenerateRequest{UserPrompt: "hi"})
	if err == nil || !strings.Contains(err.Error(), "decoding openai response") {
		t.Fatalf("Generate() error = %v, want decode error", err)
	}
}
