package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRunServe(t *testing.T) {
	restore := saveCmdVars(t)
	defer restore()
	isolateHome(t)
	captureOutput()
	useFakeClient(&fakeClient{text: `{"sql":"SELECT 1"}`})

	var handler http.Handler
	var gotAddr string
	serveHTTP = func(_ context.Context, addr string, h http.Handler, _ time.Duration, _ *slog.Logger) error {
		gotAddr, handler = addr, h
		return nil
	}

	if err := runServe(serveCmd, nil); err != nil {
		t.Fatalf("runServe() error: %v", err)
	}
	if gotAddr != ":8080" {
		t.Errorf("addr = %q, want default :8080", gotAddr)
	}

	rr := httptest.NewRecorder()
	body := `{"natural_language":"one","api_key":"sk-body","provider":"openai"}`
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader(body)))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"generated_query":"SELECT 1"`) {
		t.Errorf("generate: %d %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/metrics", nil))
	for _, want := range []string{"go_goroutines", `sqlbud_generate_requests_total{outcome="success",provider="openai"} 1`} {
		if !strings.Contains(rr.Body.String(), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}
