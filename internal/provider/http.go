package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const errorBodyLimit = 2048

// StatusError is a non-2xx reply from a backend.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request failed with status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// decodeError marks a reply that arrived but could not be understood.
// Retrying would not help.
type decodeError struct {
	provider string
	err      error
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("decoding %s response: %v", e.provider, e.err)
}

func (e *decodeError) Unwrap() error { return e.err }

// transport is the HTTP plumbing shared by the backend clients.
type transport struct {
	name   string
	client *http.Client
	retry  RetryConfig
}

func newTransport(name string, timeout time.Duration, retries int) transport {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return transport{
		name:   name,
		client: &http.Client{Timeout: timeout},
		retry:  DefaultRetryConfig(retries),
	}
}

// postJSON sends body to url with headers and decodes a 2xx reply into out,
// retrying rate limits, server errors and network failures.
func (t transport) postJSON(ctx context.Context, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", t.name, err)
	}

	return retry(ctx, t.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return &decodeError{provider: t.name, err: fmt.Errorf("building request: %w", err)}
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := t.client.Do(req)
		if err != nil {
			return fmt.Errorf("%s request: %w", t.name, err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= http.StatusBadRequest {
			return &StatusError{Provider: t.name, StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body)}
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &decodeError{provider: t.name, err: err}
		}
		return nil
	})
}

func readErrorBody(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, errorBodyLimit))
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "unknown error"
	}
	return text
}

func baseURL(endpoint, fallback string) string {
	base := strings.TrimSpace(endpoint)
	if base == "" {
		base = fallback
	}
	return strings.TrimRight(base, "/")
}
