package provider

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Key sources recorded on a Selection.
const KeySourceParameter = "parameter"

// Selection is the outcome of a successful provider selection.
type Selection struct {
	Identity Identity
	APIKey   string
	// Profile is nil when no profile is stored for Identity.
	Profile *Profile
	// KeySource is "parameter" or "<identity>_config".
	KeySource string
	// Explicit is true when the caller named the provider.
	Explicit bool
}

// SelectionErrorKind distinguishes the two ways selection can fail.
type SelectionErrorKind int

const (
	// NoCredentialAvailable: an explicitly chosen provider has no key.
	NoCredentialAvailable SelectionErrorKind = iota + 1
	// NoCredentialFound: automatic selection found no key anywhere.
	NoCredentialFound
)

// SelectionError reports why no provider/credential pair could be chosen.
type SelectionError struct {
	Kind     SelectionErrorKind
	Identity Identity
}

func (e *SelectionError) Error() string {
	if e.Kind == NoCredentialAvailable {
		return fmt.Sprintf("No API key available for %s provider. Please provide API key as parameter or configure it in ~/.sqlbud/config.yaml.", e.Identity)
	}
	names := make([]string, len(CanonicalOrder))
	for i, id := range CanonicalOrder {
		names[i] = id.DisplayName()
	}
	return fmt.Sprintf("API key required. Pass as parameter or set %s, or %s API key in ~/.sqlbud/config.yaml.",
		strings.Join(names[:len(names)-1], ", "), names[len(names)-1])
}

// Selector picks a provider and credential from a fixed profile table.
// It holds no mutable state and is safe for concurrent use.
type Selector struct {
	profiles Profiles
	logger   *slog.Logger
}

// NewSelector returns a Selector over profiles. A nil logger discards logs.
func NewSelector(profiles Profiles, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Selector{profiles: profiles, logger: logger}
}

// Select resolves the provider and API key for a request.
//
// A preference equal to one of the canonical tokens selects that provider
// explicitly. Anything else (empty, "auto", other spellings) selects
// automatically: a caller key binds to the first canonical provider,
// otherwise the first profile with a stored key wins.
func (s *Selector) Select(apiKey, preference string) (Selection, error) {
	if id := ParseIdentity(preference); id != Unknown {
		return s.selectExplicit(apiKey, id)
	}
	return s.selectAuto(apiKey)
}

func (s *Selector) selectExplicit(apiKey string, id Identity) (Selection, error) {
	sel := Selection{
		Identity: id,
		Profile:  s.profiles.lookup(id),
		Explicit: true,
	}
	s.logger.Info("explicit provider selection", slog.String("provider", id.String()))

	switch {
	case apiKey != "":
		sel.APIKey = apiKey
		sel.KeySource = KeySourceParameter
	case sel.Profile != nil && sel.Profile.APIKey != "":
		sel.APIKey = sel.Profile.APIKey
		sel.KeySource = configSource(id)
		s.logger.Info("using api key from configuration", slog.String("provider", id.String()))
	default:
		return Selection{}, &SelectionError{Kind: NoCredentialAvailable, Identity: id}
	}
	return sel, nil
}

func (s *Selector) selectAuto(apiKey string) (Selection, error) {
	if apiKey != "" {
		first := CanonicalOrder[0]
		s.logger.Info("auto-selecting provider for api key parameter", slog.String("provider", first.String()))
		return Selection{
			Identity:  first,
			APIKey:    apiKey,
			Profile:   s.profiles.lookup(first),
			KeySource: KeySourceParameter,
		}, nil
	}

	for _, id := range CanonicalOrder {
		prof := s.profiles.lookup(id)
		if prof == nil || prof.APIKey == "" {
			continue
		}
		s.logger.Info("auto-selecting provider from configuration", slog.String("provider", id.String()))
		return Selection{
			Identity:  id,
			APIKey:    prof.APIKey,
			Profile:   prof,
			KeySource: configSource(id),
		}, nil
	}

	s.logger.Warn("no api key found in config")
	return Selection{}, &SelectionError{Kind: NoCredentialFound}
}

func configSource(id Identity) string {
	return id.String() + "_config"
}
