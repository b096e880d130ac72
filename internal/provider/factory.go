package provider

import (
	"fmt"
	"strings"
	"time"

	"github.com/hpkotak/sqlbud/internal/config"
)

// ClientOptions are the runtime settings applied to every backend client.
type ClientOptions struct {
	Timeout    time.Duration
	MaxRetries int
	// Model overrides the profile model when non-empty.
	Model string
}

// NewClient builds the backend client for a successful selection. The model
// is taken from opts, then the stored profile, then the built-in default.
func NewClient(sel Selection, opts ClientOptions) (Client, error) {
	if strings.TrimSpace(sel.APIKey) == "" {
		return nil, fmt.Errorf("%s api key is empty", sel.Identity)
	}

	var endpoint, profileModel string
	if sel.Profile != nil {
		endpoint = sel.Profile.Endpoint
		profileModel = sel.Profile.Model
	}
	model := resolveModel(opts.Model, resolveModel(profileModel, defaultModel(sel.Identity)))

	switch sel.Identity {
	case OpenAI:
		return NewOpenAI(endpoint, model, sel.APIKey, opts.Timeout, opts.MaxRetries), nil
	case Anthropic:
		return NewAnthropic(endpoint, model, sel.APIKey, opts.Timeout, opts.MaxRetries), nil
	case Gemini:
		return NewGemini(endpoint, model, sel.APIKey, opts.Timeout, opts.MaxRetries), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", sel.Identity)
	}
}

func defaultModel(id Identity) string {
	d, _ := config.DefaultsFor(id.String())
	return d.Model
}
