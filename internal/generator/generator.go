// Package generator runs the NL-to-SQL pipeline: select a provider, build
// the prompt, call the backend once and validate its reply.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hpkotak/sqlbud/internal/config"
	"github.com/hpkotak/sqlbud/internal/observability"
	"github.com/hpkotak/sqlbud/internal/parser"
	"github.com/hpkotak/sqlbud/internal/prompt"
	"github.com/hpkotak/sqlbud/internal/provider"
	"github.com/hpkotak/sqlbud/internal/query"
	"github.com/hpkotak/sqlbud/internal/schema"
)

// EmptyResponseMessage is the failure for a backend reply with no text.
const EmptyResponseMessage = "Empty response from AI service"

// ClientFactory builds a backend client for a selection.
type ClientFactory func(provider.Selection, provider.ClientOptions) (provider.Client, error)

// Options are the optional collaborators of a Generator.
type Options struct {
	// Introspector supplies schema context; nil disables it.
	Introspector schema.Introspector
	Logger       *slog.Logger
	Metrics      *observability.Metrics
	// NewClient defaults to provider.NewClient.
	NewClient ClientFactory
}

// Generator is safe for concurrent use. Its config is never modified.
type Generator struct {
	cfg       *config.Config
	selector  *provider.Selector
	newClient ClientFactory
	schema    schema.Introspector
	logger    *slog.Logger
	metrics   *observability.Metrics
}

func New(cfg *config.Config, opts Options) *Generator {
	logger := opts.Logger
	if logger == nil {
		logger = observability.Discard()
	}
	newClient := opts.NewClient
	if newClient == nil {
		newClient = provider.NewClient
	}
	return &Generator{
		cfg:       cfg,
		selector:  provider.NewSelector(provider.ProfilesFromConfig(cfg), logger),
		newClient: newClient,
		schema:    opts.Introspector,
		logger:    logger,
		metrics:   opts.Metrics,
	}
}

// Generate turns req into a validated query. Every failure is reported in
// the returned Result; Generate itself never fails.
func (g *Generator) Generate(ctx context.Context, req query.Request) (res query.Result) {
	requestID := observability.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	logger := g.logger.With(slog.String("request_id", requestID))

	providerName := ""
	outcome := observability.OutcomeSuccess
	defer func() {
		if r := recover(); r != nil {
			logger.Error("generate panicked", slog.Any("panic", r))
			res = query.Failure(fmt.Sprintf("Internal error: %v", r))
			outcome = observability.OutcomeRejected
		}
		g.metrics.ObserveGenerate(providerName, outcome)
	}()

	if msg := query.ValidateRequest(req.NaturalLanguage, g.cfg.Query.MaxQueryLength); msg != "" {
		outcome = observability.OutcomeInvalidRequest
		return query.Failure(msg)
	}

	sel, err := g.selector.Select(req.APIKey, req.Provider)
	if err != nil {
		outcome = observability.OutcomeNoCredential
		logger.Warn("provider selection failed", slog.String("error", err.Error()))
		return query.Failure(err.Error())
	}
	providerName = sel.Identity.String()
	logger.Info("provider selected",
		slog.String("provider", providerName),
		slog.String("key_source", sel.KeySource),
		slog.Bool("explicit", sel.Explicit))

	timeout := time.Duration(g.cfg.General.RequestTimeoutMS) * time.Millisecond
	client, err := g.newClient(sel, provider.ClientOptions{
		Timeout:    timeout,
		MaxRetries: g.cfg.General.MaxRetries,
		Model:      req.Model,
	})
	if err != nil {
		outcome = observability.OutcomeClientError
		return query.Failure(err.Error())
	}

	genReq := provider.GenerateRequest{
		Model:        client.Model(),
		SystemPrompt: prompt.SystemPrompt(g.cfg.Query.EnforceLimit, g.cfg.Query.DefaultLimit),
		UserPrompt:   prompt.Build(req.NaturalLanguage, prompt.GatherContext(ctx, g.schema, req.NaturalLanguage, logger)),
	}
	if sel.Profile != nil {
		genReq.MaxTokens = sel.Profile.MaxTokens
		genReq.Temperature = sel.Profile.Temperature
	}
	logModelSettings(logger, genReq)

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := client.Generate(callCtx, genReq)
	g.metrics.ObserveBackendLatency(providerName, time.Since(start))
	if err != nil {
		outcome = observability.OutcomeBackendError
		logger.Warn("backend call failed", slog.String("error", err.Error()))
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("backend call timed out", slog.Duration("timeout", timeout))
		}
		return query.Failure("AI API error: " + provider.FormatAPIError(err))
	}
	if resp.Text == "" {
		outcome = observability.OutcomeEmptyResponse
		return query.Failure(EmptyResponseMessage)
	}

	doc := parser.Extract(resp.Text)
	g.metrics.ObserveExtraction(doc.Stage().String())
	logger.Debug("backend reply extracted", slog.String("stage", doc.Stage().String()))

	res = parser.Validate(doc, req.AllowSystemTables || g.cfg.Query.AllowSystemTables)
	if !res.Success {
		outcome = observability.OutcomeRejected
		logger.Info("backend reply rejected", slog.String("reason", res.ErrorMessage))
	}
	return res
}

func logModelSettings(logger *slog.Logger, req provider.GenerateRequest) {
	attrs := []any{slog.String("model", req.Model)}
	if req.MaxTokens != nil {
		attrs = append(attrs, slog.Int("max_tokens", *req.MaxTokens))
	}
	if req.Temperature != nil {
		attrs = append(attrs, slog.Float64("temperature", *req.Temperature))
	}
	logger.Info("using model", attrs...)
}
