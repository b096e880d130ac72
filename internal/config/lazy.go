package config

import (
	"errors"
	"sync"
)

// Lazy loads a config snapshot once, on first use. A missing or unreadable
// file falls back to Default so concurrent first callers always get a usable
// value. The snapshot must not be mutated after Get returns it.
type Lazy struct {
	path string
	once sync.Once
	cfg  *Config
	err  error
}

// NewLazy returns a Lazy reading from path. An empty path means Path().
func NewLazy(path string) *Lazy {
	return &Lazy{path: path}
}

// Get returns the loaded config, or the defaults when loading failed.
func (l *Lazy) Get() *Config {
	l.once.Do(func() {
		path := l.path
		if path == "" {
			path = Path()
		}
		cfg, err := LoadFrom(path)
		if err != nil {
			l.err = err
			cfg = Default()
			// A missing file is the normal first-run case; environment
			// keys still apply.
			applyEnvOverrides(cfg, envLookup)
		}
		l.cfg = cfg
	})
	return l.cfg
}

// Err reports why Get fell back to defaults, if it did. ErrNotFound is not
// treated as a failure.
func (l *Lazy) Err() error {
	l.Get()
	if errors.Is(l.err, ErrNotFound) {
		return nil
	}
	return l.err
}
