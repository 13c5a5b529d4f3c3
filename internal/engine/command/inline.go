package command

import (
	"github.com/rivo/uniseg"

	"github.com/dshills/folio/internal/engine/node"
	"github.com/dshills/folio/internal/engine/selection"
)

// graphemeBounds returns the rune offsets at which grapheme clusters of s
// start, followed by the rune length of s.
func graphemeBounds(s string) []int {
	bounds := []int{0}
	g := uniseg.NewGraphemes(s)
	n := 0
	for g.Next() {
		n += len(g.Runes())
		bounds = append(bounds, n)
	}
	return bounds
}

// snapOffset moves off down to the nearest cluster boundary.
func snapOffset(s string, off int) int {
	best := 0
	for _, b := range graphemeBounds(s) {
		if b > off {
			break
		}
		best = b
	}
	return best
}

// prevBoundary returns the last cluster boundary before off.
func prevBoundary(s string, off int) int {
	best := 0
	for _, b := range graphemeBounds(s) {
		if b >= off {
			break
		}
		best = b
	}
	return best
}

// nextBoundary returns the first cluster boundary after off.
func nextBoundary(s string, off int) int {
	bounds := graphemeBounds(s)
	for _, b := range bounds {
		if b > off {
			return b
		}
	}
	return bounds[len(bounds)-1]
}

// cutRunes removes runes [from, to) from s.
func cutRunes(s string, from, to int) string {
	r := []rune(s)
	return string(r[:from]) + string(r[to:])
}

// insertRunes inserts ins at rune offset off of s.
func insertRunes(s string, off int, ins string) string {
	r := []rune(s)
	return string(r[:off]) + ins + string(r[off:])
}

// splitText splits t at a grapheme boundary at or before off and returns
// the index in t's parent where the boundary lies. The left part keeps the
// key; selection points past the boundary move to the right part.
func (tx *Transaction) splitText(t *node.Node, off int) int {
	off = snapOffset(t.Text, off)
	if off <= 0 {
		return t.Index()
	}
	if off >= t.Len() {
		return t.Index() + 1
	}
	r := []rune(t.Text)
	right := t.Clone()
	right.Key = ""
	right.Text = string(r[off:])
	t.Text = string(r[:off])
	must(tx.Doc.InsertAfter(t, right))

	parent := t.Parent()
	at := right.Index()
	for _, p := range []*selection.Point{&tx.Selection.Anchor, &tx.Selection.Focus} {
		switch {
		case p.Key == t.Key && p.Offset > off:
			*p = selection.Point{Key: right.Key, Offset: p.Offset - off}
		case p.Key == parent.Key && p.Offset >= at:
			p.Offset++
		}
	}
	return at
}

// splitElement moves the children of n from index i onward into a copy of
// n inserted after it. It returns the index in n's parent where the
// boundary lies, and the copy if one was made.
func (tx *Transaction) splitElement(n *node.Node, i int) (int, *node.Node) {
	if i <= 0 && len(n.Children) > 0 {
		return n.Index(), nil
	}
	if i >= len(n.Children) {
		return n.Index() + 1, nil
	}
	right := n.Clone()
	right.Key = ""
	moved := append([]*node.Node(nil), n.Children[i:]...)
	must(tx.Doc.InsertAfter(n, right))
	must(tx.Doc.Attach(right, 0, moved...))
	for _, p := range []*selection.Point{&tx.Selection.Anchor, &tx.Selection.Focus} {
		if p.Key == n.Key && p.Offset >= i {
			*p = selection.Point{Key: right.Key, Offset: p.Offset - i}
		}
	}
	return right.Index(), right
}

// splitInline splits the inline content of container c at p and returns the
// child index of c at which p now lies. Links around p are split too.
func (tx *Transaction) splitInline(c *node.Node, p selection.Point) int {
	n := tx.Doc.Get(p.Key)
	switch {
	case n == nil:
		return len(c.Children)
	case n == c:
		return p.Offset
	case n.Type == node.TypeText:
		parent := n.Parent()
		i := tx.splitText(n, p.Offset)
		if parent == c {
			return i
		}
		at, _ := tx.splitElement(parent, i)
		return at
	case n.Type == node.TypeLink:
		at, _ := tx.splitElement(n, p.Offset)
		return at
	}
	return len(c.Children)
}

// unitAt returns the flow unit (text container or atomic leaf) holding p.
func (tx *Transaction) unitAt(p selection.Point) *node.Node {
	n := tx.Doc.Get(p.Key)
	if n == nil {
		return nil
	}
	if n.IsAtomic() {
		return n
	}
	if c := n.Container(); c != nil {
		return c
	}
	q := selection.Canonical(tx.Doc, p)
	if q != p {
		return tx.unitAt(q)
	}
	return nil
}

// selectedTexts splits text at the selection boundaries and returns the
// text nodes that lie entirely inside the selection, in document order. The
// selection is narrowed to exactly those nodes.
func (tx *Transaction) selectedTexts() []*node.Node {
	if tx.Selection.IsCollapsed() {
		return nil
	}
	tx.canonicalize()
	start, end := tx.bounds()

	// Split the end first so the start offset stays valid.
	if n := tx.Doc.Get(end.Key); n != nil && n.Type == node.TypeText {
		tx.splitText(n, end.Offset)
	}
	if n := tx.Doc.Get(start.Key); n != nil && n.Type == node.TypeText {
		tx.splitText(n, start.Offset)
	}

	var out []*node.Node
	for _, t := range tx.Doc.Texts() {
		first := selection.Point{Key: t.Key}
		last := selection.Point{Key: t.Key, Offset: t.Len()}
		if selection.Compare(tx.Doc, *start, first) <= 0 && selection.Compare(tx.Doc, last, *end) <= 0 {
			out = append(out, t)
		}
	}
	if len(out) > 0 {
		*start = selection.Point{Key: out[0].Key}
		*end = selection.Point{Key: out[len(out)-1].Key, Offset: out[len(out)-1].Len()}
	}
	return out
}

// selectedUnits returns the flow units from the one holding the selection
// start to the one holding its end. A range ending at the very start of a
// unit does not select that unit.
func (tx *Transaction) selectedUnits() []*node.Node {
	tx.canonicalize()
	start, end := tx.bounds()
	su, eu := tx.unitAt(*start), tx.unitAt(*end)
	if su == nil || eu == nil {
		return nil
	}
	var out []*node.Node
	in := false
	for _, u := range tx.Doc.Flow() {
		if u == su {
			in = true
		}
		if in {
			out = append(out, u)
		}
		if u == eu && in {
			break
		}
	}
	if n := len(out); n > 1 && selection.Compare(tx.Doc, *end, selection.StartOf(out[n-1])) <= 0 {
		out = out[:n-1]
	}
	return out
}

// textUnits filters units down to text containers.
func textUnits(units []*node.Node) []*node.Node {
	out := units[:0:0]
	for _, u := range units {
		if u.Type.IsContainer() {
			out = append(out, u)
		}
	}
	return out
}

// atContainerStart reports whether p is at the very start of container c.
func atContainerStart(doc *node.Document, c *node.Node, p selection.Point) bool {
	return selection.Compare(doc, p, selection.StartOf(c)) <= 0
}

// atContainerEnd reports whether p is at the very end of container c.
func atContainerEnd(doc *node.Document, c *node.Node, p selection.Point) bool {
	return selection.Compare(doc, p, selection.EndOf(c)) >= 0
}
