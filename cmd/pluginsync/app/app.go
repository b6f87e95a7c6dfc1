// Package app provides the application context and dependency management
// for the pluginsync CLI: configuration, logging, store selection and the
// lazily built sync client.
package app

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pluginsync/pluginsync"
	"github.com/pluginsync/pluginsync/internal/sources/cache"
	"github.com/pluginsync/pluginsync/internal/sources/github"
	"github.com/pluginsync/pluginsync/pkg/errors"
	"github.com/pluginsync/pluginsync/pkg/reconciler"
)

// App represents the pluginsync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Client is built on first use; the dev flag selects the store token.
	mu     sync.Mutex
	client *pluginsync.Client
	closer io.Closer
	opener StoreOpener
}

// StoreOpener opens the store a command writes to. The returned closer may be nil.
type StoreOpener func(ctx context.Context, cfg *Config, dev bool) (reconciler.Store, io.Closer, error)

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		opener:  OpenStore,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.NewConfigError("app", "load config", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Client returns the sync client, opening the configured store on first use.
func (a *App) Client(ctx context.Context, dev bool) (*pluginsync.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	store, closer, err := a.opener(ctx, a.config, dev)
	if err != nil {
		return nil, err
	}

	client, err := pluginsync.New(store, a.clientOptions()...)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}

	a.client = client
	a.closer = closer
	return client, nil
}

func (a *App) clientOptions() []pluginsync.Option {
	opts := []pluginsync.Option{
		pluginsync.WithCache(cache.New(a.config.CachePath)),
		pluginsync.WithReporter(reconciler.NewLogReporter(a.logger)),
	}
	if a.config.GitHubToken != "" {
		opts = append(opts, pluginsync.WithGitHub(github.New(github.WithToken(a.config.GitHubToken))))
	}
	return opts
}

// Shutdown releases the store connection, if one was opened.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	a.client = nil
	return err
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a prebuilt sync client (useful for testing).
func WithClient(client *pluginsync.Client) Option {
	return func(a *App) error {
		a.client = client
		return nil
	}
}

// WithStoreOpener replaces store selection.
func WithStoreOpener(opener StoreOpener) Option {
	return func(a *App) error {
		if opener == nil {
			return errors.NewValidationError("opener", nil, "store opener cannot be nil")
		}
		a.opener = opener
		return nil
	}
}
