package internal

import "github.com/starford/raido/internal/store"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *Config
	provider store.Provider
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithProvider overrides the link store, bypassing SQLite. Used in tests.
func WithProvider(p store.Provider) Option {
	return func(a *application) {
		a.provider = p
	}
}
