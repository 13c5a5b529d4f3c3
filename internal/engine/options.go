package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/dshills/folio/internal/codec"
	"github.com/dshills/folio/internal/engine/history"
)

// Default configuration values.
const (
	DefaultMaxUndoEntries = history.DefaultMaxEntries
	DefaultCoalesceWindow = history.DefaultWindow
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithLogger sets the logger. The engine logs under the "engine" name.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCodec sets the codec used for import and export.
func WithCodec(c *codec.Codec) Option {
	return func(e *Engine) {
		if c != nil {
			e.codec = c
		}
	}
}

// WithMaxUndoEntries sets the maximum number of undo history entries.
func WithMaxUndoEntries(max int) Option {
	return func(e *Engine) {
		if max > 0 {
			e.maxUndoEntries = max
		}
	}
}

// WithCoalesceWindow sets how close in time two coalescable commands must
// be to share an undo step. Zero disables coalescing.
func WithCoalesceWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.window = d
		}
	}
}

// WithClock overrides the time source used to stamp history entries.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.clock = now
	}
}

// WithReadOnly creates a read-only engine.
// Dispatch returns ErrReadOnly; Initialize still loads content.
func WithReadOnly() Option {
	return func(e *Engine) {
		e.readOnly = true
	}
}
