// Package server exposes the generator over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hpkotak/sqlbud/internal/observability"
	"github.com/hpkotak/sqlbud/internal/query"
)

const maxBodyBytes = 1 << 20

// Generator is the pipeline the handler serves.
type Generator interface {
	Generate(ctx context.Context, req query.Request) query.Result
}

type Dependencies struct {
	Logger  *slog.Logger
	Metrics *observability.Metrics
	// Gatherer backs /v1/metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
	Version  string
}

type generateRequest struct {
	NaturalLanguage   string `json:"natural_language"`
	APIKey            string `json:"api_key"`
	Provider          string `json:"provider"`
	Model             string `json:"model"`
	AllowSystemTables bool   `json:"allow_system_tables"`
}

func NewHandler(gen Generator, deps Dependencies) http.Handler {
	if deps.Logger == nil {
		deps.Logger = observability.Discard()
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": "sqlbud", "version": deps.Version})
	})
	mux.Handle("GET /v1/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("POST /v1/generate", func(w http.ResponseWriter, r *http.Request) {
		handleGenerate(gen, w, r)
	})

	var h http.Handler = mux
	h = deps.Metrics.Middleware(h)
	h = observability.LoggingMiddleware(deps.Logger)(h)
	return observability.RequestIDMiddleware(h)
}

func handleGenerate(gen Generator, w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	res := gen.Generate(r.Context(), query.Request{
		NaturalLanguage:   body.NaturalLanguage,
		APIKey:            body.APIKey,
		Provider:          body.Provider,
		Model:             body.Model,
		AllowSystemTables: body.AllowSystemTables,
	})
	if res.Warnings == nil {
		res.Warnings = []string{}
	}

	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error":      message,
		"request_id": observability.RequestIDFromContext(ctx),
	})
}

// Serve runs handler on addr until ctx is cancelled, then shuts down,
// giving in-flight requests up to grace to finish.
func Serve(ctx context.Context, addr string, handler http.Handler, grace time.Duration, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
