package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hpkotak/sqlbud/internal/generator"
	"github.com/hpkotak/sqlbud/internal/provider"
	"github.com/hpkotak/sqlbud/internal/render"
	"github.com/hpkotak/sqlbud/internal/safety"
)

var (
	providerFlag          string
	apiKeyFlag            string
	modelFlag             string
	dsnFlag               string
	allowSystemTablesFlag bool
	jsonFlag              bool
)

// Package-level function variables for testability.
// Tests override these to avoid real backend and database calls.
var (
	newClient        generator.ClientFactory = provider.NewClient
	openIntrospector                         = defaultOpenIntrospector
	ioIn             io.Reader               = os.Stdin
	ioOut            io.Writer               = os.Stdout
	ioErr            io.Writer               = os.Stderr
)

// errQueryFailed makes the process exit non-zero after the failure has
// already been printed.
var errQueryFailed = errors.New("query generation failed")

var rootCmd = &cobra.Command{
	Use:   "sqb [natural language request]",
	Short: "Translate natural language to PostgreSQL",
	Long: `SQLBud (sqb) translates natural language requests into PostgreSQL queries.

Examples:
  sqb show the ten most recent orders
  sqb --provider anthropic count users per country
  sqb --dsn postgres://localhost/shop --json top customers by revenue`,
	Args:              cobra.ArbitraryArgs,
	RunE:              runGenerate,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&providerFlag, "provider", "", "provider to use (openai/anthropic/gemini, default auto)")
	flags.StringVar(&apiKeyFlag, "api-key", "", "API key for this request instead of the configured one")
	flags.StringVar(&modelFlag, "model", "", "override model for this request")
	flags.StringVar(&dsnFlag, "dsn", "", "PostgreSQL DSN for schema context (overrides database.dsn)")
	flags.BoolVar(&allowSystemTablesFlag, "allow-system-tables", false, "allow queries against information_schema and pg_catalog")
	flags.BoolVar(&jsonFlag, "json", false, "print the result as JSON")
}

func Execute() error {
	return rootCmd.Execute()
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	ctx := commandContext(cmd)
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	res := a.gen.Generate(ctx, a.request(strings.Join(args, " ")))

	text, err := render.Format(res, a.renderOptions())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(ioOut, text)

	if !res.Success {
		return errQueryFailed
	}
	if w := safety.Classify(res.GeneratedQuery).Warning(); w != "" {
		_, _ = fmt.Fprintf(ioErr, "Warning: %s\n", w)
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}
