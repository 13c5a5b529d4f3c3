package engine

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/folio/internal/codec"
	"github.com/dshills/folio/internal/engine/command"
	"github.com/dshills/folio/internal/engine/history"
	"github.com/dshills/folio/internal/engine/node"
	"github.com/dshills/folio/internal/engine/selection"
)

// KindInitialize is the change kind emitted when content is loaded.
const KindInitialize command.Kind = "INITIALIZE"

// State is the dispatch state of an engine.
type State uint8

// Engine states.
const (
	StateIdle State = iota
	StateInTransaction
)

// String returns the state name.
func (s State) String() string {
	if s == StateInTransaction {
		return "in-transaction"
	}
	return "idle"
}

// Result describes the outcome of a dispatched command.
type Result struct {
	// TransactionID identifies the transaction, or for undo and redo the
	// history entry that was restored. It is empty when nothing ran.
	TransactionID string
	Kind          command.Kind
	Revision      uint64

	// Changed is false when the command left the document as it was.
	Changed bool
}

// Change is emitted to observers after the document changes.
type Change struct {
	Revision      uint64
	TransactionID string
	Kind          command.Kind
	HTML          string
}

// Engine is the main facade for the document engine.
// It combines the document tree, the current selection, undo/redo history
// and the HTML codec into a unified, thread-safe API.
//
// Committed documents are never modified; every transaction works on a
// fresh clone, so history entries can share them.
type Engine struct {
	mu    sync.Mutex
	state State

	doc      *node.Document
	sel      selection.Selection
	html     string
	revision uint64

	history *history.History
	codec   *codec.Codec
	logger  *zap.Logger

	obsMu     sync.RWMutex
	observers map[int]func(Change)
	nextObs   int

	// Configuration
	maxUndoEntries int
	window         time.Duration
	clock          func() time.Time
	readOnly       bool
}

// New creates an Engine holding one empty paragraph.
func New(opts ...Option) *Engine {
	e := &Engine{
		codec:          codec.Default(),
		logger:         zap.NewNop(),
		maxUndoEntries: DefaultMaxUndoEntries,
		window:         DefaultCoalesceWindow,
		observers:      make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("engine")

	hopts := []history.Option{
		history.WithMaxEntries(e.maxUndoEntries),
		history.WithWindow(e.window),
	}
	if e.clock != nil {
		hopts = append(hopts, history.WithClock(e.clock))
	}
	e.history = history.New(hopts...)

	e.doc = node.NewDocument()
	e.sel = startSelection(e.doc)
	e.html, _ = e.codec.Export(e.doc)
	return e
}

func startSelection(doc *node.Document) selection.Selection {
	return selection.Caret(selection.Canonical(doc, selection.Start(doc)))
}

// ============================================================================
// Content
// ============================================================================

// Initialize replaces the content with imported HTML, clears history and
// places the caret at the start of the document. Elements the codec could
// not represent exactly are reported as warnings.
func (e *Engine) Initialize(src string) ([]codec.Warning, error) {
	doc, warns, err := e.codec.Import(src)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return warns, e.load(doc, warns)
}

// InitializeMarkdown is like Initialize for markdown source.
func (e *Engine) InitializeMarkdown(src []byte) ([]codec.Warning, error) {
	doc, warns, err := e.codec.ImportMarkdown(src)
	if err != nil {
		return nil, fmt.Errorf("initialize markdown: %w", err)
	}
	return warns, e.load(doc, warns)
}

func (e *Engine) load(doc *node.Document, warns []codec.Warning) error {
	for _, w := range warns {
		e.logger.Debug("import degraded", zap.Stringer("warning", w))
	}
	html, err := e.codec.Export(doc)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	e.mu.Lock()
	if e.state != StateIdle || e.history.IsGrouping() {
		e.mu.Unlock()
		return ErrBusy
	}
	e.doc = doc
	e.sel = startSelection(doc)
	e.html = html
	e.revision++
	e.history.Clear()
	ch := Change{Revision: e.revision, Kind: KindInitialize, HTML: html}
	e.mu.Unlock()

	e.emit(ch)
	return nil
}

// HTML returns the exported HTML of the committed document.
func (e *Engine) HTML() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.html
}

// Publish returns the committed document as compacted HTML.
func (e *Engine) Publish() (string, error) {
	return e.codec.Compact(e.HTML())
}

// Document returns a copy of the committed document.
func (e *Engine) Document() *node.Document {
	return e.Snapshot().Clone()
}

// Snapshot returns the committed document without copying it. The result
// is shared with history and must not be modified.
func (e *Engine) Snapshot() *node.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc
}

// View returns the committed document and selection as one consistent
// pair. The document must not be modified.
func (e *Engine) View() (*node.Document, selection.Selection) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc, e.sel
}

// Revision returns the number of changes since the engine was created.
func (e *Engine) Revision() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revision
}

// State returns the dispatch state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ============================================================================
// Selection
// ============================================================================

// Selection returns the current selection.
func (e *Engine) Selection() selection.Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel
}

// Select sets the selection. Points that do not resolve in the committed
// document are rejected with a StaleSelectionError.
func (e *Engine) Select(sel selection.Selection) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, p := range []selection.Point{sel.Anchor, sel.Focus} {
		if !selection.Valid(e.doc, p) {
			return &command.StaleSelectionError{Point: p}
		}
	}
	e.sel = sel
	return nil
}

// SelectAll selects the whole document.
func (e *Engine) SelectAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel = selection.All(e.doc)
}

// ============================================================================
// Dispatch
// ============================================================================

// Dispatch applies cmd as one transaction. On success the working copy is
// committed, recorded in history and emitted to observers. On error, or if
// the command panics, the committed document is left untouched.
//
// Undo and Redo are handled here rather than applied as mutations; with an
// empty stack they succeed without changing anything.
func (e *Engine) Dispatch(cmd command.Command) (res Result, err error) {
	if cmd == nil {
		return Result{}, fmt.Errorf("%w: nil command", command.ErrInvalidArgument)
	}
	kind := cmd.Kind()
	switch kind {
	case command.KindUndo:
		return e.restore(kind, e.history.Undo)
	case command.KindRedo:
		return e.restore(kind, e.history.Redo)
	}

	doc, sel, err := e.begin()
	if err != nil {
		return Result{Kind: kind}, err
	}
	committed := false
	defer func() {
		if r := recover(); r != nil {
			if committed {
				panic(r)
			}
			e.end()
			res, err = Result{Kind: kind}, fmt.Errorf("%w: %s: %v", command.ErrCommandPanic, kind, r)
			e.logger.Error("command panicked", zap.String("kind", string(kind)), zap.Any("panic", r))
		}
	}()

	tx, err := command.Run(doc, sel, cmd)
	if err != nil {
		e.end()
		e.logger.Warn("command rejected", zap.String("kind", string(kind)), zap.Error(err))
		return Result{Kind: kind}, err
	}

	if !tx.Changed() {
		e.mu.Lock()
		e.sel = tx.Selection
		e.state = StateIdle
		rev := e.revision
		e.mu.Unlock()
		return Result{TransactionID: tx.ID.String(), Kind: kind, Revision: rev}, nil
	}

	html, err := e.codec.Export(tx.Doc)
	if err != nil {
		e.end()
		e.logger.Error("export failed", zap.String("kind", string(kind)), zap.Error(err))
		return Result{Kind: kind}, fmt.Errorf("export after %s: %w", kind, err)
	}
	e.debugValidate(tx)

	e.mu.Lock()
	top := e.history.Record(&history.Entry{
		ID:              tx.ID.String(),
		Kind:            string(kind),
		Description:     cmd.Description(),
		Coalescable:     kind.Coalescable(),
		Before:          tx.Before(),
		After:           tx.Doc,
		BeforeSelection: tx.BeforeSelection(),
		AfterSelection:  tx.Selection,
	})
	e.doc = tx.Doc
	e.sel = tx.Selection
	e.html = html
	e.revision++
	e.state = StateIdle
	ch := Change{Revision: e.revision, TransactionID: tx.ID.String(), Kind: kind, HTML: html}
	e.mu.Unlock()
	committed = true

	e.logger.Debug("commit",
		zap.String("kind", string(kind)),
		zap.String("tx", ch.TransactionID),
		zap.Uint64("revision", ch.Revision),
		zap.Int("merged", top.Merged),
	)
	e.emit(ch)
	return Result{TransactionID: ch.TransactionID, Kind: kind, Revision: ch.Revision, Changed: true}, nil
}

// begin moves the engine to InTransaction and returns the state to work on.
func (e *Engine) begin() (*node.Document, selection.Selection, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return nil, selection.Selection{}, ErrReadOnly
	}
	if e.state != StateIdle {
		return nil, selection.Selection{}, ErrBusy
	}
	e.state = StateInTransaction
	return e.doc, e.sel, nil
}

// end returns the engine to Idle without committing.
func (e *Engine) end() {
	e.mu.Lock()
	e.state = StateIdle
	e.mu.Unlock()
}

// debugValidate checks the committed tree when debug logging is enabled.
func (e *Engine) debugValidate(tx *command.Transaction) {
	ce := e.logger.Check(zap.DebugLevel, "validate")
	if ce == nil {
		return
	}
	errs := node.Validate(tx.Doc)
	if len(errs) == 0 {
		return
	}
	e.logger.Error("invariant violated",
		zap.String("kind", string(tx.Kind)),
		zap.String("tx", tx.ID.String()),
		zap.Errors("errors", errs),
	)
}

// restore applies an undo or redo step.
func (e *Engine) restore(kind command.Kind, pop func() (*history.Entry, bool)) (Result, error) {
	e.mu.Lock()
	if e.readOnly {
		e.mu.Unlock()
		return Result{Kind: kind}, ErrReadOnly
	}
	if e.state != StateIdle || e.history.IsGrouping() {
		e.mu.Unlock()
		return Result{Kind: kind}, ErrBusy
	}

	entry, ok := pop()
	if !ok {
		rev := e.revision
		e.mu.Unlock()
		return Result{Kind: kind, Revision: rev}, nil
	}

	doc, sel := entry.Before, entry.BeforeSelection
	if kind == command.KindRedo {
		doc, sel = entry.After, entry.AfterSelection
	}
	html, err := e.codec.Export(doc)
	if err != nil {
		// Put the entry back where it was.
		if kind == command.KindUndo {
			e.history.Redo()
		} else {
			e.history.Undo()
		}
		e.mu.Unlock()
		return Result{Kind: kind}, fmt.Errorf("export after %s: %w", kind, err)
	}

	e.doc = doc
	e.sel = sel
	e.html = html
	e.revision++
	ch := Change{Revision: e.revision, TransactionID: entry.ID, Kind: kind, HTML: html}
	e.mu.Unlock()

	e.logger.Debug("history",
		zap.String("kind", string(kind)),
		zap.String("entry", entry.Description),
		zap.Uint64("revision", ch.Revision),
	)
	e.emit(ch)
	return Result{TransactionID: entry.ID, Kind: kind, Revision: ch.Revision, Changed: true}, nil
}

// Batch runs fn with history grouping so every command it dispatches is
// undone as one step named name. If fn returns an error or panics, the
// document and selection are restored to their state before the batch
// and the error is returned. Undo and Redo fail with ErrBusy inside fn.
func (e *Engine) Batch(name string, fn func() error) (err error) {
	e.mu.Lock()
	if e.readOnly {
		e.mu.Unlock()
		return ErrReadOnly
	}
	if e.state != StateIdle || e.history.IsGrouping() {
		e.mu.Unlock()
		return ErrBusy
	}
	e.history.BeginGroup(name)
	e.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: batch %q: %v", command.ErrCommandPanic, name, r)
		}
		if err != nil {
			e.cancelBatch(name, err)
			return
		}
		e.mu.Lock()
		e.history.EndGroup()
		e.mu.Unlock()
	}()
	return fn()
}

func (e *Engine) cancelBatch(name string, cause error) {
	e.mu.Lock()
	entry := e.history.CancelGroup()
	if entry == nil {
		e.mu.Unlock()
		return
	}
	html, err := e.codec.Export(entry.Before)
	if err != nil {
		e.mu.Unlock()
		e.logger.Error("batch rollback failed", zap.String("batch", name), zap.Error(err))
		return
	}
	e.doc = entry.Before
	e.sel = entry.BeforeSelection
	e.html = html
	e.revision++
	ch := Change{Revision: e.revision, TransactionID: entry.ID, Kind: command.KindUndo, HTML: html}
	e.mu.Unlock()

	e.logger.Warn("batch rolled back", zap.String("batch", name), zap.Error(cause))
	e.emit(ch)
}

// ============================================================================
// History
// ============================================================================

// CanUndo returns true if undo is available.
func (e *Engine) CanUndo() bool {
	return e.history.CanUndo()
}

// CanRedo returns true if redo is available.
func (e *Engine) CanRedo() bool {
	return e.history.CanRedo()
}

// UndoLabel describes the step Undo would revert, or "" when there is none.
func (e *Engine) UndoLabel() string {
	if entry, ok := e.history.PeekUndo(); ok {
		return entry.Description
	}
	return ""
}

// RedoLabel describes the step Redo would reapply, or "" when there is none.
func (e *Engine) RedoLabel() string {
	if entry, ok := e.history.PeekRedo(); ok {
		return entry.Description
	}
	return ""
}

// UndoInfo describes the undo stack, oldest first.
func (e *Engine) UndoInfo() []history.Info {
	return e.history.UndoInfo()
}

// RedoInfo describes the redo stack, oldest first.
func (e *Engine) RedoInfo() []history.Info {
	return e.history.RedoInfo()
}

// BreakCoalescing makes the next command start a new undo step even if
// it would otherwise merge with the previous one.
func (e *Engine) BreakCoalescing() {
	e.history.Break()
}

// ============================================================================
// Observers
// ============================================================================

// OnChange registers fn to be called after every change. The returned
// function removes the registration.
func (e *Engine) OnChange(fn func(Change)) (cancel func()) {
	e.obsMu.Lock()
	id := e.nextObs
	e.nextObs++
	e.observers[id] = fn
	e.obsMu.Unlock()

	return func() {
		e.obsMu.Lock()
		delete(e.observers, id)
		e.obsMu.Unlock()
	}
}

func (e *Engine) emit(ch Change) {
	e.obsMu.RLock()
	ids := make([]int, 0, len(e.observers))
	for id := range e.observers {
		ids = append(ids, id)
	}
	fns := make([]func(Change), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, e.observers[id])
	}
	e.obsMu.RUnlock()

	for _, fn := range fns {
		fn(ch)
	}
}
