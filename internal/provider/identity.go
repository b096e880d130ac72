package provider

import "github.com/hpkotak/sqlbud/internal/config"

// Identity names one of the supported text-generation backends.
type Identity int

const (
	Unknown Identity = iota
	OpenAI
	Anthropic
	Gemini
)

// CanonicalOrder is the order used for automatic selection.
var CanonicalOrder = []Identity{OpenAI, Anthropic, Gemini}

func (id Identity) String() string {
	switch id {
	case OpenAI:
		return config.ProviderOpenAI
	case Anthropic:
		return config.ProviderAnthropic
	case Gemini:
		return config.ProviderGemini
	default:
		return "unknown"
	}
}

// DisplayName is the human-facing provider name used in messages.
func (id Identity) DisplayName() string {
	switch id {
	case OpenAI:
		return "OpenAI"
	case Anthropic:
		return "Anthropic"
	case Gemini:
		return "Gemini"
	default:
		return "Unknown"
	}
}

// ParseIdentity matches token against the canonical lower-case names.
// Matching is exact: "OpenAI" or "OPENAI" yield Unknown.
func ParseIdentity(token string) Identity {
	for _, id := range CanonicalOrder {
		if token == id.String() {
			return id
		}
	}
	return Unknown
}
