package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hpkotak/sqlbud/internal/config"
	"github.com/hpkotak/sqlbud/internal/generator"
	"github.com/hpkotak/sqlbud/internal/observability"
	"github.com/hpkotak/sqlbud/internal/query"
	"github.com/hpkotak/sqlbud/internal/render"
	"github.com/hpkotak/sqlbud/internal/schema"
)

// app is the wiring shared by the generate, chat and serve commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *observability.Metrics
	gen      *generator.Generator
	closeDB  func() error
}

func newApp(ctx context.Context) (*app, error) {
	lazy := config.NewLazy("")
	cfg := lazy.Get()
	logger := observability.NewLogger(cfg.General, ioErr)
	if err := lazy.Err(); err != nil {
		_, _ = fmt.Fprintf(ioErr, "Warning: %v; using defaults\n", err)
		logger.Warn("config unusable, using defaults", slog.String("error", err.Error()))
	}

	registry := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		metrics:  metrics,
		closeDB:  func() error { return nil },
	}

	var introspector schema.Introspector
	dsn := dsnFlag
	if dsn == "" {
		dsn = cfg.Database.DSN
	}
	if dsn != "" {
		in, closeFn, err := openIntrospector(ctx, dsn)
		if err != nil {
			// Schema context is optional; generation still works without it.
			_, _ = fmt.Fprintf(ioErr, "Warning: schema context unavailable: %v\n", err)
			logger.Warn("schema introspection disabled", slog.String("error", err.Error()))
		} else {
			introspector = in
			a.closeDB = closeFn
		}
	}

	a.gen = generator.New(cfg, generator.Options{
		Introspector: introspector,
		Logger:       logger,
		Metrics:      metrics,
		NewClient:    newClient,
	})
	return a, nil
}

func defaultOpenIntrospector(ctx context.Context, dsn string) (schema.Introspector, func() error, error) {
	db, err := schema.Open(ctx, schema.DBConfig{DSN: dsn, MaxOpenConns: 2})
	if err != nil {
		return nil, nil, err
	}
	return schema.NewPostgres(db), db.Close, nil
}

// request builds a generation request from the command-line flags.
func (a *app) request(text string) query.Request {
	return query.Request{
		NaturalLanguage:   text,
		APIKey:            apiKeyFlag,
		Provider:          providerFlag,
		Model:             modelFlag,
		AllowSystemTables: allowSystemTablesFlag,
	}
}

func (a *app) renderOptions() render.Options {
	opts := render.OptionsFromConfig(a.cfg.Response)
	if jsonFlag {
		opts.JSON = true
	}
	return opts
}

// close releases the database and writes the metrics textfile if one is
// configured. Failures are reported but never fail the command.
func (a *app) close() {
	if err := a.closeDB(); err != nil {
		a.logger.Warn("closing schema db", slog.String("error", err.Error()))
	}
	path := a.cfg.General.MetricsTextfile
	if path == "" {
		return
	}
	if err := observability.WriteTextfile(path, a.registry); err != nil {
		_, _ = fmt.Fprintf(ioErr, "Warning: %v\n", err)
	}
}
