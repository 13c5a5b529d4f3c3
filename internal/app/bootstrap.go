package app

import (
	"net/url"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/folio/internal/codec"
	"github.com/dshills/folio/internal/config"
	"github.com/dshills/folio/internal/config/notify"
	"github.com/dshills/folio/internal/logging"
	"github.com/dshills/folio/internal/media"
	"github.com/dshills/folio/internal/script"
)

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

// newBootstrapper creates a new bootstrapper for the application.
func newBootstrapper(app *Application) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      app.opts,
		initOrder: make([]string, 0, 5),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []struct {
		name string
		init func() error
	}{
		{"config", b.initConfig},
		{"logging", b.initLogging},
		{"codec", b.initCodec},
		{"media", b.initMedia},
		{"script", b.initScripts},
		{"watch", b.initWatch},
	}
	for _, step := range steps {
		if err := step.init(); err != nil {
			b.cleanup()
			return NewComponentError(step.name, "init", err)
		}
		b.initOrder = append(b.initOrder, step.name)
	}
	b.app.Logger().Debug("bootstrap complete", zap.Strings("components", b.initOrder))
	return nil
}

// cleanup releases components in reverse initialization order.
func (b *bootstrapper) cleanup() {
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		switch b.initOrder[i] {
		case "logging":
			_ = b.app.logger.Close()
		case "watch":
			b.app.watcher.Close()
		}
	}
}

func (b *bootstrapper) initConfig() error {
	cfg, err := config.Load(b.opts.ConfigPath)
	if err != nil {
		return err
	}
	if b.opts.LogLevel != "" {
		if _, err := logging.ParseLevel(b.opts.LogLevel); err != nil {
			return err
		}
		cfg.Logging.Level = b.opts.LogLevel
	}
	b.app.config = cfg
	return nil
}

func (b *bootstrapper) initLogging() error {
	console := b.opts.Stderr
	if console == nil {
		console = os.Stderr
	}
	logger, err := logging.New(b.app.config.Logging, logging.WithConsole(console))
	if err != nil {
		return err
	}
	b.app.logger = logger
	return nil
}

func (b *bootstrapper) initCodec() error {
	b.app.codec = newCodec(b.app.config.Codec)
	return nil
}

func (b *bootstrapper) initMedia() error {
	cfg := b.app.config.Media
	var up media.Uploader = media.NewDirUploader(
		cfg.UploadDir, cfg.BaseURL, cfg.MaxBytes,
		logging.Component(b.app.Logger(), "media"),
	)
	if cfg.CacheTTL.Duration > 0 {
		up = media.NewCachingUploader(up, cfg.CacheTTL.Duration)
	}
	b.app.uploader = up
	return nil
}

func (b *bootstrapper) initScripts() error {
	cfg := b.app.config.Script
	opts := []script.Option{
		script.WithTimeout(cfg.Timeout.Duration),
		script.WithMaxCommands(cfg.MaxCommands),
		script.WithLogger(b.app.Logger()),
		script.WithUploader(b.app.uploader),
	}
	if b.opts.Stdout != nil {
		opts = append(opts, script.WithOutput(b.opts.Stdout))
	}
	b.app.scripts = script.New(opts...)
	return nil
}

// initWatch prepares live reload of the configuration file. The watcher
// only runs while serving.
func (b *bootstrapper) initWatch() error {
	if b.opts.ConfigPath == "" {
		return nil
	}
	w := config.NewWatcher(b.opts.ConfigPath, b.app.config,
		config.WithWatchLogger(logging.Component(b.app.Logger(), "config")))
	if b.opts.LogLevel == "" {
		b.app.logger.Follow(w.Notifier())
	}
	w.Notifier().Subscribe(func(c notify.Change) {
		if c.Type != notify.ChangeReload {
			return
		}
		if cfg, ok := c.NewValue.(*config.Config); ok {
			b.app.reconfigure(cfg)
		}
	})
	b.app.watcher = w
	return nil
}

func newCodec(cfg config.CodecConfig) *codec.Codec {
	return codec.New(
		codec.WithVideoSize(cfg.VideoWidth, cfg.VideoHeight),
		codec.WithVideoTitle(cfg.VideoTitle),
		codec.WithMaxInputBytes(cfg.MaxInputBytes),
	)
}

// mediaPrefix is the URL path below which uploads are served.
func mediaPrefix(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || strings.Trim(u.Path, "/") == "" {
		return "media"
	}
	return strings.Trim(u.Path, "/")
}
