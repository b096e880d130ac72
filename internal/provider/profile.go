package provider

import "github.com/hpkotak/sqlbud/internal/config"

// Profile is the stored settings for one identity.
type Profile struct {
	Identity    Identity
	APIKey      string
	Model       string
	MaxTokens   *int
	Temperature *float64
	Endpoint    string
}

// Profiles is a read-only profile table keyed by identity.
type Profiles map[Identity]Profile

// ProfilesFromConfig builds the profile table from the provider sections
// of cfg. Sections for unknown names are ignored.
func ProfilesFromConfig(cfg *config.Config) Profiles {
	profiles := make(Profiles, len(cfg.Providers))
	for _, id := range CanonicalOrder {
		p, ok := cfg.Providers[id.String()]
		if !ok {
			continue
		}
		profiles[id] = Profile{
			Identity:    id,
			APIKey:      p.APIKey,
			Model:       p.Model,
			MaxTokens:   p.MaxTokens,
			Temperature: p.Temperature,
			Endpoint:    p.Endpoint,
		}
	}
	return profiles
}

func (p Profiles) lookup(id Identity) *Profile {
	prof, ok := p[id]
	if !ok {
		return nil
	}
	return &prof
}
