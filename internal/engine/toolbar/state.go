// Package toolbar projects the document and selection into the formatting
// state a toolbar shows, and forwards toolbar actions to an engine.
package toolbar

import (
	"github.com/dshills/folio/internal/engine/command"
	"github.com/dshills/folio/internal/engine/node"
	"github.com/dshills/folio/internal/engine/selection"
)

// State is what a toolbar shows for a selection. String fields are empty
// when the selection mixes values.
type State struct {
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool

	// Link is set when every selected character is inside a link.
	// LinkURL is the target when they share one.
	Link    bool
	LinkURL string

	BlockType command.BlockType
	Align     node.Align
	Indent    int

	FontFamily string
	FontSize   string
	Color      string

	Collapsed  bool
	CanIndent  bool
	CanOutdent bool
	CanUndo    bool
	CanRedo    bool

	// UndoLabel and RedoLabel describe the next undo and redo steps.
	UndoLabel string
	RedoLabel string
}

// Active reports whether format f is shown as active.
func (s State) Active(f node.Format) bool {
	switch f {
	case node.Bold:
		return s.Bold
	case node.Italic:
		return s.Italic
	case node.Underline:
		return s.Underline
	case node.Strikethrough:
		return s.Strikethrough
	}
	return false
}

// Compute derives the toolbar state for sel in doc. It never modifies doc.
// History availability and labels are not part of the document and are
// left empty.
func Compute(doc *node.Document, sel selection.Selection) State {
	st := State{Collapsed: sel.IsCollapsed()}
	if !selection.ValidSelection(doc, sel) {
		return st
	}
	start, end := sel.Ordered(doc)
	start, end = selection.Canonical(doc, start), selection.Canonical(doc, end)

	var texts []*node.Node
	if st.Collapsed {
		if t := caretText(doc, start); t != nil {
			texts = []*node.Node{t}
		}
	} else {
		texts = rangeTexts(doc, start, end)
	}
	st.applyTexts(texts)

	blocks := units(doc, start, end)
	// A range ending at the very start of a block does not select it.
	if n := len(blocks); n > 1 && selection.Compare(doc, end, selection.StartOf(blocks[n-1])) <= 0 {
		blocks = blocks[:n-1]
	}
	st.applyBlocks(blocks)
	return st
}

func (st *State) applyTexts(texts []*node.Node) {
	if len(texts) == 0 {
		return
	}
	all := ^node.Format(0)
	for _, t := range texts {
		all &= t.Format
	}
	st.Bold = all.Has(node.Bold)
	st.Italic = all.Has(node.Italic)
	st.Underline = all.Has(node.Underline)
	st.Strikethrough = all.Has(node.Strikethrough)

	st.FontFamily = uniform(texts, func(t *node.Node) string { return t.Style[node.StyleFontFamily] })
	st.FontSize = uniform(texts, func(t *node.Node) string { return t.Style[node.StyleFontSize] })
	st.Color = uniform(texts, func(t *node.Node) string { return t.Style[node.StyleColor] })

	st.Link = true
	for _, t := range texts {
		if t.Ancestor(node.TypeLink) == nil {
			st.Link = false
			break
		}
	}
	if st.Link {
		st.LinkURL = uniform(texts, func(t *node.Node) string { return t.Ancestor(node.TypeLink).URL })
	}
}

func (st *State) applyBlocks(blocks []*node.Node) {
	var containers []*node.Node
	for _, b := range blocks {
		if b.Type.IsContainer() {
			containers = append(containers, b)
		}
	}
	if len(containers) == 0 {
		return
	}
	st.BlockType = command.BlockType(uniform(containers, func(c *node.Node) string {
		return string(command.BlockTypeOf(c))
	}))
	st.Align = node.Align(uniform(containers, func(c *node.Node) string { return string(c.Block.Align) }))

	st.Indent = containers[0].Block.Indent
	for _, c := range containers {
		if c.Block.Indent != st.Indent {
			st.Indent = 0
		}
		if c.Block.Indent < node.MaxIndent {
			st.CanIndent = true
		}
		if c.Block.Indent > 0 {
			st.CanOutdent = true
		}
	}
}

// uniform returns the common value of f over nodes, or "" if they differ.
func uniform(nodes []*node.Node, f func(*node.Node) string) string {
	v := f(nodes[0])
	for _, n := range nodes[1:] {
		if f(n) != v {
			return ""
		}
	}
	return v
}

// caretText returns the text whose formatting applies at a caret.
// At an element point inside a container the preceding text wins.
func caretText(doc *node.Document, p selection.Point) *node.Node {
	n := doc.Get(p.Key)
	if n == nil {
		return nil
	}
	if n.Type == node.TypeText {
		return n
	}
	if !n.Type.IsContainer() && n.Type != node.TypeLink {
		return nil
	}
	if p.Offset > 0 && p.Offset <= len(n.Children) {
		if ts := n.Children[p.Offset-1].Texts(); len(ts) > 0 {
			return ts[len(ts)-1]
		}
	}
	if p.Offset < len(n.Children) {
		if ts := n.Children[p.Offset].Texts(); len(ts) > 0 {
			return ts[0]
		}
	}
	return nil
}

// rangeTexts returns the text nodes sharing at least one character with
// the range [start, end).
func rangeTexts(doc *node.Document, start, end selection.Point) []*node.Node {
	var out []*node.Node
	for _, t := range doc.Texts() {
		first := selection.Point{Key: t.Key}
		last := selection.Point{Key: t.Key, Offset: t.Len()}
		if selection.Compare(doc, start, last) < 0 && selection.Compare(doc, first, end) < 0 {
			out = append(out, t)
		}
	}
	return out
}

// units returns the flow units from the one holding start to the one
// holding end.
func units(doc *node.Document, start, end selection.Point) []*node.Node {
	su, eu := unitAt(doc, start), unitAt(doc, end)
	if su == nil || eu == nil {
		return nil
	}
	var out []*node.Node
	in := false
	for _, u := range doc.Flow() {
		if u == su {
			in = true
		}
		if in {
			out = append(out, u)
		}
		if in && u == eu {
			break
		}
	}
	return out
}

func unitAt(doc *node.Document, p selection.Point) *node.Node {
	n := doc.Get(p.Key)
	if n == nil {
		return nil
	}
	switch {
	case n.Type.IsAtomic():
		return n
	case n.Type == node.TypeRoot || n.Type == node.TypeList:
		if len(n.Children) == 0 {
			return nil
		}
		i := min(p.Offset, len(n.Children)-1)
		return unitAt(doc, selection.StartOf(n.Children[i]))
	}
	return n.Container()
}
