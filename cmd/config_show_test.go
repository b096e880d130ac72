package cmd

import (
	"strings"
	"testing"

	"github.com/hpkotak/sqlbud/internal/config"
)

func TestRunConfigShow(t *testing.T) {
	t.Run("config exists", func(t *testing.T) {
		restore := saveCmdVars(t)
		defer restore()
		isolateHome(t)
		out, _ := captureOutput()

		cfg := config.Default()
		p := cfg.Providers[config.ProviderOpenAI]
		p.APIKey = "sk-proj-abcdefghijkl"
		cfg.Providers[config.ProviderOpenAI] = p
		if err := config.Save(cfg); err != nil {
			t.Fatalf("save config: %v", err)
		}

		if err := runConfigShow(nil, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := out.String()
		if !strings.Contains(got, "Config file: "+config.Path()) {
			t.Errorf("output missing path:\n%s", got)
		}
		if strings.Contains(got, "sk-proj-abcdefghijkl") {
			t.Errorf("API key shown unmasked:\n%s", got)
		}
		if !strings.Contains(got, "api_key: sk-p...ijkl") {
			t.Errorf("masked key missing:\n%s", got)
		}
	})

	t.Run("config missing", func(t *testing.T) {
		restore := saveCmdVars(t)
		defer restore()
		isolateHome(t)
		captureOutput()

		err := runConfigShow(nil, nil)
		if err == nil {
			t.Fatal("expected error for missing config, got nil")
		}
		if !strings.Contains(err.Error(), "sqb setup") {
			t.Errorf("error = %q, want substring %q", err.Error(), "sqb setup")
		}
	})
}
