// Package config manages the sqlbud configuration file at ~/.sqlbud/config.yaml.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrNotFound = errors.New("config file not found")

// Provider section names, in canonical selection order.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// ProviderNames lists the known provider sections in canonical order.
var ProviderNames = []string{ProviderOpenAI, ProviderAnthropic, ProviderGemini}

const (
	DefaultRequestTimeoutMS = 30000
	DefaultMaxRetries       = 3
	DefaultLimit            = 1000
	DefaultMaxQueryLength   = 4000
	DefaultTemperature      = 0.7
)

// ProviderDefaults holds the per-provider values used when a section omits them.
type ProviderDefaults struct {
	Model     string
	MaxTokens int
}

var providerDefaults = map[string]ProviderDefaults{
	ProviderOpenAI:    {Model: "gpt-4o", MaxTokens: 4096},
	ProviderAnthropic: {Model: "claude-sonnet-4-5-20250929", MaxTokens: 8192},
	ProviderGemini:    {Model: "gemini-2.5-flash", MaxTokens: 8192},
}

// DefaultsFor returns the built-in defaults for a provider section.
func DefaultsFor(name string) (ProviderDefaults, bool) {
	d, ok := providerDefaults[name]
	return d, ok
}

type Config struct {
	General   General                   `yaml:"general"`
	Query     Query                     `yaml:"query"`
	Response  Response                  `yaml:"response"`
	Database  Database                  `yaml:"database"`
	Providers map[string]ProviderConfig `yaml:"providers"`
}

type General struct {
	LogLevel         string `yaml:"log_level"`
	EnableLogging    bool   `yaml:"enable_logging"`
	LogJSON          bool   `yaml:"log_json"`
	RequestTimeoutMS int    `yaml:"request_timeout_ms"`
	MaxRetries       int    `yaml:"max_retries"`
	MetricsTextfile  string `yaml:"metrics_textfile,omitempty"`
}

type Query struct {
	EnforceLimit      bool `yaml:"enforce_limit"`
	DefaultLimit      int  `yaml:"default_limit"`
	MaxQueryLength    int  `yaml:"max_query_length"`
	AllowSystemTables bool `yaml:"allow_system_tables"`
}

type Response struct {
	ShowExplanation            bool `yaml:"show_explanation"`
	ShowWarnings               bool `yaml:"show_warnings"`
	ShowSuggestedVisualization bool `yaml:"show_suggested_visualization"`
	UseFormattedResponse       bool `yaml:"use_formatted_response"`
}

type Database struct {
	DSN string `yaml:"dsn"`
}

// ProviderConfig is one provider section. MaxTokens and Temperature are
// pointers so an explicit zero can be told apart from "not configured".
type ProviderConfig struct {
	APIKey      string   `yaml:"api_key"`
	Model       string   `yaml:"model"`
	MaxTokens   *int     `yaml:"max_tokens,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	Endpoint    string   `yaml:"endpoint,omitempty"`
}

// Dir returns the config directory path (~/.sqlbud).
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".sqlbud")
}

// Path returns the config file path (~/.sqlbud/config.yaml).
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Exists checks if the config file exists.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// Load reads and parses the config file. Returns ErrNotFound if it doesn't exist.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config at path, fills provider defaults, applies
// environment overrides and validates the result.
func LoadFrom(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg, envLookup)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads the config file as written, without environment
// overrides. Commands that save the config back start from this so keys
// taken from the environment are never persisted.
func LoadFile() (*Config, error) {
	cfg, err := read(Path())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	// Sections absent from the file keep their defaults. Providers are
	// replaced wholesale when the file declares any.
	cfg := Default()
	cfg.Providers = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Providers == nil {
		cfg.Providers = Default().Providers
	}
	cfg.fillProviderDefaults()
	return cfg, nil
}

func (c *Config) fillProviderDefaults() {
	for name, p := range c.Providers {
		d, ok := providerDefaults[name]
		if !ok {
			continue
		}
		if strings.TrimSpace(p.Model) == "" {
			p.Model = d.Model
		}
		if p.MaxTokens == nil {
			p.MaxTokens = intPtr(d.MaxTokens)
		}
		if p.Temperature == nil {
			p.Temperature = floatPtr(DefaultTemperature)
		}
		c.Providers[name] = p
	}
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(string) (string, bool)

// envLookup is swapped in tests.
var envLookup LookupFunc = os.LookupEnv

var envKeys = map[string]string{
	ProviderOpenAI:    "SQLBUD_OPENAI_API_KEY",
	ProviderAnthropic: "SQLBUD_ANTHROPIC_API_KEY",
	ProviderGemini:    "SQLBUD_GEMINI_API_KEY",
}

func applyEnvOverrides(cfg *Config, lookup LookupFunc) {
	for _, name := range ProviderNames {
		key, ok := lookup(envKeys[name])
		if !ok || strings.TrimSpace(key) == "" {
			continue
		}
		p, exists := cfg.Providers[name]
		if !exists {
			d := providerDefaults[name]
			p = ProviderConfig{
				Model:       d.Model,
				MaxTokens:   intPtr(d.MaxTokens),
				Temperature: floatPtr(DefaultTemperature),
			}
		}
		p.APIKey = strings.TrimSpace(key)
		cfg.Providers[name] = p
	}
	if dsn, ok := lookup("SQLBUD_DSN"); ok && strings.TrimSpace(dsn) != "" {
		cfg.Database.DSN = strings.TrimSpace(dsn)
	}
}

// Validate checks the config for values the rest of the program cannot use.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.General.LogLevel); err != nil {
		return err
	}
	if c.General.RequestTimeoutMS <= 0 {
		return fmt.Errorf("request_timeout_ms must be positive, got %d", c.General.RequestTimeoutMS)
	}
	if c.General.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", c.General.MaxRetries)
	}
	if c.Query.MaxQueryLength <= 0 {
		return fmt.Errorf("max_query_length must be positive, got %d", c.Query.MaxQueryLength)
	}
	if c.Query.DefaultLimit <= 0 {
		return fmt.Errorf("default_limit must be positive, got %d", c.Query.DefaultLimit)
	}

	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := providerDefaults[name]; !ok {
			return fmt.Errorf("invalid provider %q (use %s)", name, strings.Join(ProviderNames, "/"))
		}
		p := c.Providers[name]
		if p.MaxTokens != nil && *p.MaxTokens <= 0 {
			return fmt.Errorf("%s.max_tokens must be positive, got %d", name, *p.MaxTokens)
		}
		if p.Temperature != nil && (*p.Temperature < 0 || *p.Temperature > 2) {
			return fmt.Errorf("%s.temperature must be between 0 and 2, got %g", name, *p.Temperature)
		}
	}
	return nil
}

// ParseLevel maps a config log level to a slog level. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q", level)
	}
}

// Save writes the config to disk, creating the directory if needed.
// The file holds API keys, so it is only readable by the owner.
func Save(cfg *Config) error {
	if err := os.MkdirAll(Dir(), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := marshalConfig(cfg)
	if err != nil {
		return err
	}

	if err := os.WriteFile(Path(), data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func marshalConfig(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}

// Masked returns a copy of cfg with API keys shortened for display.
func (c *Config) Masked() *Config {
	out := *c
	out.Providers = make(map[string]ProviderConfig, len(c.Providers))
	for name, p := range c.Providers {
		p.APIKey = maskKey(p.APIKey)
		out.Providers[name] = p
	}
	return &out
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// Default returns a config with sensible defaults.
func Default() *Config {
	d := providerDefaults[ProviderOpenAI]
	return &Config{
		General: General{
			LogLevel:         "info",
			RequestTimeoutMS: DefaultRequestTimeoutMS,
			MaxRetries:       DefaultMaxRetries,
		},
		Query: Query{
			EnforceLimit:   true,
			DefaultLimit:   DefaultLimit,
			MaxQueryLength: DefaultMaxQueryLength,
		},
		Response: Response{
			ShowExplanation: true,
			ShowWarnings:    true,
		},
		Providers: map[string]ProviderConfig{
			ProviderOpenAI: {
				Model:       d.Model,
				MaxTokens:   intPtr(d.MaxTokens),
				Temperature: floatPtr(DefaultTemperature),
			},
		},
	}
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
