package toolbar

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/engine/command"
	"github.com/dshills/folio/internal/engine/node"
	"github.com/dshills/folio/internal/engine/selection"
	"github.com/dshills/folio/internal/media"
)

// Option configures a Controller.
type Option func(*Controller)

// WithUploader sets the capability used by InsertImageFile.
func WithUploader(u media.Uploader) Option {
	return func(c *Controller) {
		c.uploader = u
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Controller forwards toolbar actions to an engine and keeps the toolbar
// state current.
type Controller struct {
	engine   *engine.Engine
	uploader media.Uploader
	logger   *zap.Logger

	mu        sync.Mutex
	listeners map[int]func(State)
	nextID    int

	detach func()
}

// NewController creates a controller for e. Close releases its engine
// subscription.
func NewController(e *engine.Engine, opts ...Option) *Controller {
	c := &Controller{
		engine:    e,
		logger:    zap.NewNop(),
		listeners: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("toolbar")
	c.detach = e.OnChange(func(engine.Change) { c.refresh() })
	return c
}

// Close stops listening to the engine.
func (c *Controller) Close() {
	if c.detach != nil {
		c.detach()
		c.detach = nil
	}
}

// State computes the current toolbar state.
func (c *Controller) State() State {
	doc, sel := c.engine.View()
	st := Compute(doc, sel)
	st.CanUndo = c.engine.CanUndo()
	st.CanRedo = c.engine.CanRedo()
	st.UndoLabel = c.engine.UndoLabel()
	st.RedoLabel = c.engine.RedoLabel()
	return st
}

// OnUpdate registers fn to receive the recomputed state after every
// change and selection update. The returned function removes it.
func (c *Controller) OnUpdate(fn func(State)) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Controller) refresh() {
	c.mu.Lock()
	if len(c.listeners) == 0 {
		c.mu.Unlock()
		return
	}
	fns := make([]func(State), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	st := c.State()
	for _, fn := range fns {
		fn(st)
	}
}

// Dispatch forwards cmd to the engine. A command that only moves the
// selection still refreshes listeners.
func (c *Controller) Dispatch(cmd command.Command) (engine.Result, error) {
	res, err := c.engine.Dispatch(cmd)
	if err != nil {
		return res, err
	}
	if !res.Changed {
		c.refresh()
	}
	return res, nil
}

// Select sets the engine selection and refreshes listeners.
func (c *Controller) Select(sel selection.Selection) error {
	if err := c.engine.Select(sel); err != nil {
		return err
	}
	c.refresh()
	return nil
}

// ============================================================================
// Formatting actions
// ============================================================================

// Toggle flips a format flag on the selection.
func (c *Controller) Toggle(f node.Format) (engine.Result, error) {
	return c.Dispatch(command.FormatText{Format: f})
}

// SetBlockType converts the selected blocks.
func (c *Controller) SetBlockType(t command.BlockType) (engine.Result, error) {
	return c.Dispatch(command.SetBlockType{Type: t})
}

// SetAlignment aligns the selected blocks.
func (c *Controller) SetAlignment(a node.Align) (engine.Result, error) {
	return c.Dispatch(command.SetAlignment{Align: a})
}

// Indent increases the indent of the selected blocks.
func (c *Controller) Indent() (engine.Result, error) {
	return c.Dispatch(command.Indent{})
}

// Outdent decreases the indent of the selected blocks.
func (c *Controller) Outdent() (engine.Result, error) {
	return c.Dispatch(command.Outdent{})
}

// Link links the selection to url, or unlinks when url is empty.
func (c *Controller) Link(url string) (engine.Result, error) {
	return c.Dispatch(command.ToggleLink{URL: url})
}

// SetFontFamily sets the font family of the selected text.
func (c *Controller) SetFontFamily(v string) (engine.Result, error) {
	return c.Dispatch(command.SetTextStyle{Property: node.StyleFontFamily, Value: v})
}

// SetFontSize sets the font size of the selected text.
func (c *Controller) SetFontSize(v string) (engine.Result, error) {
	return c.Dispatch(command.SetTextStyle{Property: node.StyleFontSize, Value: v})
}

// SetColor sets the text color of the selected text.
func (c *Controller) SetColor(v string) (engine.Result, error) {
	return c.Dispatch(command.SetTextStyle{Property: node.StyleColor, Value: v})
}

// ClearFormatting removes flags and styles from the selected text.
func (c *Controller) ClearFormatting() (engine.Result, error) {
	return c.Dispatch(command.ClearFormatting{})
}

// Undo restores the previous history entry.
func (c *Controller) Undo() (engine.Result, error) {
	return c.Dispatch(command.Undo{})
}

// Redo re-applies the last undone entry.
func (c *Controller) Redo() (engine.Result, error) {
	return c.Dispatch(command.Redo{})
}

// ============================================================================
// Media actions
// ============================================================================

// InsertImageURL inserts an image at the selection. A malformed src is
// returned as a *media.ValidationError without dispatching.
func (c *Controller) InsertImageURL(src, alt string) (engine.Result, error) {
	u, err := media.ValidateImageURL(src)
	if err != nil {
		return engine.Result{Kind: command.KindInsertNode}, err
	}
	return c.Dispatch(command.InsertNode{Node: node.NewImage(node.Image{Src: u, Alt: alt})})
}

// InsertImageFile uploads blob and inserts the stored image. Nothing is
// dispatched if the upload fails or ctx ends first.
func (c *Controller) InsertImageFile(ctx context.Context, blob media.Blob, alt string) (engine.Result, error) {
	res := engine.Result{Kind: command.KindInsertNode}
	if c.uploader == nil {
		return res, ErrNoUploader
	}
	url, err := c.uploader.Upload(ctx, blob)
	if err != nil {
		c.logger.Warn("upload failed", zap.String("name", blob.Name), zap.Error(err))
		return res, fmt.Errorf("upload %s: %w", blob.Name, err)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	c.logger.Debug("uploaded", zap.String("name", blob.Name), zap.String("url", url))
	return c.InsertImageURL(url, alt)
}

// InsertVideoURL inserts a video embed for a recognized video URL. Other
// input is returned as a *media.ValidationError without dispatching.
func (c *Controller) InsertVideoURL(raw string) (engine.Result, error) {
	id, err := media.ParseVideoURL(raw)
	if err != nil {
		return engine.Result{Kind: command.KindInsertNode}, err
	}
	return c.Dispatch(command.InsertNode{Node: node.NewVideo(node.Video{ID: id})})
}
