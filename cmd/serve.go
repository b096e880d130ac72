package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/hpkotak/sqlbud/internal/server"
)

var (
	addrFlag  string
	graceFlag time.Duration
)

var serveHTTP = server.Serve

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve query generation over HTTP",
	Long: `Run an HTTP server exposing:
  POST /v1/generate  translate a request (JSON body)
  GET  /v1/health    liveness
  GET  /v1/metrics   Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", ":8080", "listen address")
	serveCmd.Flags().DurationVar(&graceFlag, "shutdown-grace", 10*time.Second, "time allowed for in-flight requests on shutdown")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handler := server.NewHandler(a.gen, server.Dependencies{
		Logger:   a.logger,
		Metrics:  a.metrics,
		Gatherer: a.registry,
		Version:  version,
	})
	return serveHTTP(ctx, addrFlag, handler, graceFlag, a.logger)
}
