// Package logging builds Folio's zap loggers.
//
// The process logger writes to stderr in console or JSON form and, when a
// file is configured, also to a size-rotated JSON log. Components derive
// their loggers with Component so that every line carries its origin.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dshills/folio/internal/config"
	"github.com/dshills/folio/internal/config/notify"
)

// Logger bundles a zap logger with the level that gates it.
type Logger struct {
	*zap.Logger

	// Level can be changed at runtime.
	Level zap.AtomicLevel

	rotator *lumberjack.Logger
}

// Option configures New.
type Option func(*options)

type options struct {
	console io.Writer
}

// WithConsole redirects the console output, which defaults to stderr.
func WithConsole(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.console = w
		}
	}
}

// New builds a logger from cfg.
func New(cfg config.LoggingConfig, opts ...Option) (*Logger, error) {
	o := options{console: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	level := zap.NewAtomicLevelAt(lvl)

	var consoleEncoder zapcore.Encoder
	switch cfg.Format {
	case "json":
		consoleEncoder = zapcore.NewJSONEncoder(jsonEncoderConfig())
	case "console", "":
		consoleEncoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(zapcore.AddSync(o.console)), level),
	}

	var rotator *lumberjack.Logger
	if cfg.File != "" {
		rotator = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(jsonEncoderConfig()),
			zapcore.AddSync(rotator),
			level,
		))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return &Logger{Logger: l, Level: level, rotator: rotator}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop(), Level: zap.NewAtomicLevelAt(zapcore.InfoLevel)}
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.MessageKey = "message"
	enc.LevelKey = "level"
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	return enc
}

// ParseLevel parses debug, info, warn or error. The empty string means info.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
}

// Component returns a logger whose lines are tagged with the component name.
func Component(l *zap.Logger, name string) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l.Named(name)
}

// Follow keeps the level in step with the "logging" section of reloaded
// configurations. Other logging settings need a restart.
func (l *Logger) Follow(n *notify.Notifier) *notify.Subscription {
	return n.SubscribePath("logging", func(c notify.Change) {
		cfg, ok := c.NewValue.(config.LoggingConfig)
		if !ok {
			return
		}
		lvl, err := ParseLevel(cfg.Level)
		if err != nil {
			l.Warn("ignoring log level", zap.String("level", cfg.Level), zap.Error(err))
			return
		}
		if lvl != l.Level.Level() {
			l.Level.SetLevel(lvl)
			l.Info("log level changed", zap.Stringer("level", lvl))
		}
	})
}

// Close flushes buffered output and closes the log file.
func (l *Logger) Close() error {
	_ = l.Sync()
	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}
