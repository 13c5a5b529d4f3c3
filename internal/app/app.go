// Package app wires configuration, logging and the document services
// together for the folio command. It owns component lifecycles: bootstrap
// in dependency order, live configuration reload, and orderly shutdown.
package app

import (
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dshills/folio/internal/api"
	"github.com/dshills/folio/internal/codec"
	"github.com/dshills/folio/internal/config"
	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/logging"
	"github.com/dshills/folio/internal/media"
	"github.com/dshills/folio/internal/script"
)

// Application is the central coordinator for folio's components.
type Application struct {
	mu sync.RWMutex

	// Core infrastructure
	config  *config.Config
	watcher *config.Watcher
	logger  *logging.Logger

	// Document services
	codec    *codec.Codec
	uploader media.Uploader
	scripts  *script.Host
	metrics  *Metrics

	// State
	running atomic.Bool
	closed  atomic.Bool

	opts Options
}

// Options configures the application.
type Options struct {
	// ConfigPath is the TOML or YAML configuration file. Empty uses the
	// defaults plus environment overrides.
	ConfigPath string

	// LogLevel overrides logging.level when set.
	LogLevel string

	// Addr overrides server.addr when set.
	Addr string

	// ReadOnly opens every engine read-only.
	ReadOnly bool

	// Stderr receives console log output. Defaults to os.Stderr.
	Stderr io.Writer

	// Stdout receives script print output. Defaults to os.Stdout.
	Stdout io.Writer
}

// New creates a new Application with the given options.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts:    opts,
		metrics: NewMetrics(),
	}
	if err := newBootstrapper(app).bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Config returns the active configuration.
func (app *Application) Config() *config.Config {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.config
}

// Logger returns the process logger.
func (app *Application) Logger() *zap.Logger {
	return app.logger.Logger
}

// Codec returns the configured codec.
func (app *Application) Codec() *codec.Codec {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.codec
}

// Uploader returns the configured media uploader.
func (app *Application) Uploader() media.Uploader {
	return app.uploader
}

// Scripts returns the Lua host.
func (app *Application) Scripts() *script.Host {
	return app.scripts
}

// Metrics returns the application's metrics.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}

// NewEngine creates an engine configured from the editor and codec
// settings. Its changes are counted in Metrics.
func (app *Application) NewEngine() *engine.Engine {
	cfg := app.Config()
	opts := []engine.Option{
		engine.WithLogger(logging.Component(app.Logger(), "engine")),
		engine.WithCodec(app.Codec()),
		engine.WithMaxUndoEntries(cfg.Editor.MaxUndoEntries),
		engine.WithCoalesceWindow(cfg.Editor.CoalesceWindow.Duration),
	}
	if cfg.Editor.ReadOnly || app.opts.ReadOnly {
		opts = append(opts, engine.WithReadOnly())
	}
	e := engine.New(opts...)
	app.metrics.Observe(e)
	return e
}

// NewServer creates the HTTP API from the server and media settings.
func (app *Application) NewServer() *api.Server {
	cfg := app.Config()
	return api.NewServer(
		api.WithLogger(app.Logger()),
		api.WithEngineFactory(app.NewEngine),
		api.WithCodec(app.Codec()),
		api.WithUploader(app.uploader),
		api.WithMediaDir(cfg.Media.UploadDir, mediaPrefix(cfg.Media.BaseURL)),
		api.WithSessionTTL(cfg.Server.SessionTTL.Duration),
		api.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
	)
}

// reconfigure applies a reloaded configuration. Logging follows the
// notifier on its own; the codec is rebuilt for engines created after
// the reload.
func (app *Application) reconfigure(cfg *config.Config) {
	if app.opts.LogLevel != "" {
		cfg = cfg.Clone()
		cfg.Logging.Level = app.opts.LogLevel
	}
	app.mu.Lock()
	app.config = cfg
	app.codec = newCodec(cfg.Codec)
	app.mu.Unlock()
}

// Shutdown releases every component. It is safe to call more than once.
func (app *Application) Shutdown() error {
	if !app.closed.CompareAndSwap(false, true) {
		return nil
	}
	errs := &ErrorList{}
	if app.watcher != nil {
		app.watcher.Close()
	}
	snap := app.metrics.Snapshot()
	app.Logger().Debug("shutdown",
		zap.Duration("uptime", snap.Uptime),
		zap.Uint64("commits", snap.Commits),
		zap.Uint64("renders", snap.RenderCount),
		zap.Uint64("scripts", snap.ScriptRuns),
	)
	if err := app.logger.Close(); err != nil {
		errs.Add(NewComponentError("logging", "close", err))
	}
	return errs.AsError()
}
