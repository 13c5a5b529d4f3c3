package history

import (
	"sync"
	"time"
)

// Defaults for a new History.
const (
	DefaultWindow     = 300 * time.Millisecond
	DefaultMaxEntries = 1000
)

// Option configures a History.
type Option func(*History)

// WithWindow sets the coalescing window.
func WithWindow(d time.Duration) Option {
	return func(h *History) {
		if d >= 0 {
			h.window = d
		}
	}
}

// WithMaxEntries bounds the undo stack.
func WithMaxEntries(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.maxEntries = n
		}
	}
}

// WithClock overrides the time source used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(h *History) {
		if now != nil {
			h.now = now
		}
	}
}

// History manages the undo/redo stacks of one engine.
type History struct {
	mu sync.Mutex

	undoStack []*Entry
	redoStack []*Entry

	// broken suppresses coalescing for the next record.
	broken bool

	// Grouping state
	grouping   bool
	groupName  string
	groupItems []*Entry

	// Configuration
	window     time.Duration
	maxEntries int
	now        func() time.Time
}

// New creates a history manager.
func New(opts ...Option) *History {
	h := &History{
		window:     DefaultWindow,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Now returns the current time from the history clock.
func (h *History) Now() time.Time {
	return h.now()
}

// Record pushes a committed entry and clears the redo stack.
// A zero Timestamp is filled from the clock. If the entry coalesces with
// the top of the stack, the top is replaced by a merged entry. Record
// returns the entry now on top.
func (h *History) Record(e *Entry) *Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = h.now()
	}
	h.redoStack = nil

	if h.grouping {
		h.groupItems = append(h.groupItems, e)
		return e
	}
	return h.pushLocked(e)
}

// pushLocked adds an entry without acquiring the lock.
func (h *History) pushLocked(e *Entry) *Entry {
	if n := len(h.undoStack); n > 0 && !h.broken {
		if top := h.undoStack[n-1]; top.canCoalesce(e, h.window) {
			merged := top.merge(e)
			h.undoStack[n-1] = merged
			return merged
		}
	}
	h.broken = false
	h.undoStack = append(h.undoStack, e)

	// Enforce max entries
	if len(h.undoStack) > h.maxEntries {
		excess := len(h.undoStack) - h.maxEntries
		h.undoStack = append([]*Entry(nil), h.undoStack[excess:]...)
	}
	return e
}

// Undo pops the most recent entry and moves it to the redo stack.
// The caller restores e.Before and e.BeforeSelection. It returns false
// when there is nothing to undo.
func (h *History) Undo() (*Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undoStack) == 0 {
		return nil, false
	}
	e := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = append(h.redoStack, e)
	h.broken = true
	return e, true
}

// Redo pops the most recently undone entry and moves it back to the undo
// stack. The caller restores e.After and e.AfterSelection.
func (h *History) Redo() (*Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redoStack) == 0 {
		return nil, false
	}
	e := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = append(h.undoStack, e)
	h.broken = true
	return e, true
}

// Break forces the next record to start a new entry.
func (h *History) Break() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broken = true
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

// UndoCount returns the number of undo steps available.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// RedoCount returns the number of redo steps available.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// Clear removes all undo/redo history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.undoStack = nil
	h.redoStack = nil
	h.broken = false
	h.grouping = false
	h.groupItems = nil
}

// UndoInfo returns the undo stack, oldest first.
func (h *History) UndoInfo() []Info {
	h.mu.Lock()
	defer h.mu.Unlock()
	return infos(h.undoStack)
}

// RedoInfo returns the redo stack, oldest first.
func (h *History) RedoInfo() []Info {
	h.mu.Lock()
	defer h.mu.Unlock()
	return infos(h.redoStack)
}

func infos(stack []*Entry) []Info {
	result := make([]Info, len(stack))
	for i, e := range stack {
		result[i] = e.info()
	}
	return result
}

// PeekUndo returns the next entry to undo without removing it.
func (h *History) PeekUndo() (*Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.undoStack) == 0 {
		return nil, false
	}
	return h.undoStack[len(h.undoStack)-1], true
}

// PeekRedo returns the next entry to redo without removing it.
func (h *History) PeekRedo() (*Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.redoStack) == 0 {
		return nil, false
	}
	return h.redoStack[len(h.redoStack)-1], true
}
