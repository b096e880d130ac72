package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hpkotak/sqlbud/internal/config"
)

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Update a configuration value",
	Long: `Update a configuration value. Supported keys:
  provider.<id>.api_key                  API key (id: openai/anthropic/gemini)
  provider.<id>.model                    Model name (e.g., gpt-4o)
  provider.<id>.max_tokens               Completion token limit
  provider.<id>.temperature              Sampling temperature (0-2)
  provider.<id>.endpoint                 API base URL override
  general.log_level                      debug/info/warn/error
  general.request_timeout_ms             Backend request timeout
  general.max_retries                    Retries for failed backend calls
  query.allow_system_tables              Allow information_schema/pg_catalog
  query.max_query_length                 Maximum request length in characters
  response.use_formatted_response        Print JSON instead of SQL
  response.show_explanation              Include the explanation
  response.show_warnings                 Include warnings
  response.show_suggested_visualization  Include the visualization hint
  database.dsn                           PostgreSQL DSN for schema context`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configSetCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], strings.TrimSpace(args[1])

	cfg, err := config.LoadFile()
	if err != nil {
		if !errors.Is(err, config.ErrNotFound) {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = config.Default()
	}

	if strings.HasPrefix(key, "provider.") {
		err = setProviderKey(cfg, key, value)
	} else {
		err = setKey(cfg, key, value)
	}
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.Save(cfg); err != nil {
		return err
	}

	shown := value
	if strings.HasSuffix(key, ".api_key") {
		shown = cfg.Masked().Providers[strings.Split(key, ".")[1]].APIKey
	}
	_, _ = fmt.Fprintf(ioOut, "Set %s = %s\n", key, shown)
	return nil
}

func setKey(cfg *config.Config, key, value string) error {
	var err error
	switch key {
	case "general.log_level":
		if _, err := config.ParseLevel(value); err != nil {
			return err
		}
		cfg.General.LogLevel = strings.ToLower(value)
	case "general.request_timeout_ms":
		cfg.General.RequestTimeoutMS, err = parseInt(key, value)
	case "general.max_retries":
		cfg.General.MaxRetries, err = parseInt(key, value)
	case "query.allow_system_tables":
		cfg.Query.AllowSystemTables, err = parseBool(key, value)
	case "query.max_query_length":
		cfg.Query.MaxQueryLength, err = parseInt(key, value)
	case "response.use_formatted_response":
		cfg.Response.UseFormattedResponse, err = parseBool(key, value)
	case "response.show_explanation":
		cfg.Response.ShowExplanation, err = parseBool(key, value)
	case "response.show_warnings":
		cfg.Response.ShowWarnings, err = parseBool(key, value)
	case "response.show_suggested_visualization":
		cfg.Response.ShowSuggestedVisualization, err = parseBool(key, value)
	case "database.dsn":
		cfg.Database.DSN = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return err
}

func setProviderKey(cfg *config.Config, key, value string) error {
	parts := strings.Split(key, ".")
	if len(parts) != 3 {
		return fmt.Errorf("unknown config key: %s", key)
	}
	name, field := parts[1], parts[2]
	defaults, ok := config.DefaultsFor(name)
	if !ok {
		return fmt.Errorf("invalid provider %q (use %s)", name, strings.Join(config.ProviderNames, "/"))
	}

	if cfg.Providers == nil {
		cfg.Providers = map[string]config.ProviderConfig{}
	}
	p, exists := cfg.Providers[name]
	if !exists {
		mt, t := defaults.MaxTokens, config.DefaultTemperature
		p = config.ProviderConfig{Model: defaults.Model, MaxTokens: &mt, Temperature: &t}
	}

	switch field {
	case "api_key":
		if value == "" {
			return fmt.Errorf("api_key cannot be empty")
		}
		p.APIKey = value
	case "model":
		if value == "" {
			return fmt.Errorf("model cannot be empty")
		}
		p.Model = value
	case "max_tokens":
		n, err := parseInt(key, value)
		if err != nil {
			return err
		}
		p.MaxTokens = &n
	case "temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s must be a number, got %q", key, value)
		}
		p.Temperature = &f
	case "endpoint":
		if value != "" {
			if _, err := url.ParseRequestURI(value); err != nil {
				return fmt.Errorf("invalid URL %q: %w", value, err)
			}
		}
		p.Endpoint = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	cfg.Providers[name] = p
	return nil
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return n, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false, got %q", key, value)
	}
	return b, nil
}
