package command

import (
	"github.com/dshills/folio/internal/engine/node"
	"github.com/dshills/folio/internal/engine/selection"
)

// DeleteBackward deletes the range, or the grapheme cluster before a caret.
// At the start of a block it joins the block with the previous one; at the
// start of a list item it lifts the item out of its list.
type DeleteBackward struct{}

// Kind implements Command.
func (DeleteBackward) Kind() Kind { return KindDeleteBackward }

// Description implements Command.
func (DeleteBackward) Description() string { return "Delete backward" }

// Apply implements Command.
func (DeleteBackward) Apply(tx *Transaction) error {
	if !tx.Selection.IsCollapsed() {
		tx.deleteRange()
		return nil
	}
	tx.canonicalize()
	p := tx.Selection.Focus
	u := tx.unitAt(p)
	if u == nil {
		return nil
	}
	switch {
	case u.IsAtomic() && p.Offset > 0:
		tx.removeAtomic(u, true)
	case u.IsAtomic():
		tx.joinBackward(u)
	case !atContainerStart(tx.Doc, u, p):
		tx.deleteCluster(u, p, true)
	case u.Type == node.TypeListItem:
		tx.liftItem(u, node.TypeParagraph, 0)
	default:
		tx.joinBackward(u)
	}
	return nil
}

// DeleteForward deletes the range, or the grapheme cluster after a caret.
// At the end of a block it pulls the next block into it.
type DeleteForward struct{}

// Kind implements Command.
func (DeleteForward) Kind() Kind { return KindDeleteForward }

// Description implements Command.
func (DeleteForward) Description() string { return "Delete forward" }

// Apply implements Command.
func (DeleteForward) Apply(tx *Transaction) error {
	if !tx.Selection.IsCollapsed() {
		tx.deleteRange()
		return nil
	}
	tx.canonicalize()
	p := tx.Selection.Focus
	u := tx.unitAt(p)
	if u == nil {
		return nil
	}
	switch {
	case u.IsAtomic() && p.Offset == 0:
		tx.removeAtomic(u, false)
	case u.IsAtomic():
		tx.joinForward(u)
	case !atContainerEnd(tx.Doc, u, p):
		tx.deleteCluster(u, p, false)
	default:
		tx.joinForward(u)
	}
	return nil
}

// neighbours returns the flow units before and after u.
func (tx *Transaction) neighbours(u *node.Node) (prev, next *node.Node) {
	flow := tx.Doc.Flow()
	for i, f := range flow {
		if f != u {
			continue
		}
		if i > 0 {
			prev = flow[i-1]
		}
		if i+1 < len(flow) {
			next = flow[i+1]
		}
		break
	}
	return prev, next
}

// removeUnit detaches a flow unit from the tree.
func (tx *Transaction) removeUnit(u *node.Node) {
	tx.Doc.Detach(u)
}

// removeAtomic removes an atomic leaf and places the caret on the
// neighbouring unit in the direction of deletion.
func (tx *Transaction) removeAtomic(u *node.Node, backward bool) {
	prev, next := tx.neighbours(u)
	tx.removeUnit(u)
	switch {
	case backward && prev != nil:
		tx.caret(selection.EndOf(prev))
	case next != nil:
		tx.caret(selection.StartOf(next))
	case prev != nil:
		tx.caret(selection.EndOf(prev))
	default:
		tx.caret(selection.Point{})
	}
}

// joinBackward handles a backward delete at the start of u.
func (tx *Transaction) joinBackward(u *node.Node) {
	prev, _ := tx.neighbours(u)
	switch {
	case prev == nil:
	case prev.IsAtomic():
		tx.removeUnit(prev)
	case u.IsAtomic() && len(prev.Children) == 0:
		tx.removeUnit(prev)
	case u.IsAtomic():
		tx.caret(selection.EndOf(prev))
	default:
		tx.caret(selection.EndOf(prev))
		tx.mergeInto(prev, u)
	}
}

// joinForward handles a forward delete at the end of u.
func (tx *Transaction) joinForward(u *node.Node) {
	_, next := tx.neighbours(u)
	switch {
	case next == nil:
	case next.IsAtomic():
		tx.removeUnit(next)
	case u.IsAtomic() && len(next.Children) == 0:
		tx.removeUnit(next)
	case u.IsAtomic():
		tx.caret(selection.StartOf(next))
	default:
		tx.mergeInto(u, next)
	}
}

// mergeInto appends the inline content of src to dst and removes src.
func (tx *Transaction) mergeInto(dst, src *node.Node) {
	moved := append([]*node.Node(nil), src.Children...)
	must(tx.Doc.Append(dst, moved...))
	tx.removeUnit(src)
}

// deleteCluster removes one grapheme cluster next to caret p inside u.
func (tx *Transaction) deleteCluster(u *node.Node, p selection.Point, backward bool) {
	texts := u.Texts()
	t := tx.Doc.Get(p.Key)
	idx := -1
	for i, x := range texts {
		if x == t {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	off := p.Offset
	if backward {
		for off == 0 && idx > 0 {
			idx--
			t = texts[idx]
			off = t.Len()
		}
		if off == 0 {
			return
		}
		b := prevBoundary(t.Text, off)
		t.Text = cutRunes(t.Text, b, off)
		tx.caret(selection.Point{Key: t.Key, Offset: b})
		return
	}
	for off == t.Len() && idx+1 < len(texts) {
		idx++
		t = texts[idx]
		off = 0
	}
	if off == t.Len() {
		return
	}
	t.Text = cutRunes(t.Text, off, nextBoundary(t.Text, off))
	if t.Key == p.Key {
		tx.caret(p)
	} else {
		tx.caret(selection.Point{Key: t.Key})
	}
}

// deleteRange removes the selected content and collapses the selection at
// the deletion point. Blocks at both ends of a multi-block range are
// joined.
func (tx *Transaction) deleteRange() {
	if tx.Selection.IsCollapsed() {
		return
	}
	tx.canonicalize()
	start, end := tx.bounds()
	s, e := *start, *end
	su, eu := tx.unitAt(s), tx.unitAt(e)
	if su == nil || eu == nil {
		return
	}

	if su == eu {
		if su.IsAtomic() {
			if s.Offset == 0 && e.Offset == 1 {
				tx.removeAtomic(su, false)
			}
			return
		}
		j := tx.splitInline(su, e)
		n := len(su.Children)
		i := tx.splitInline(su, s)
		j += len(su.Children) - n
		tx.removeChildren(su, i, j)
		tx.caret(selection.Point{Key: su.Key, Offset: i})
		return
	}

	_, last := tx.neighbours(eu)
	in := false
	for _, u := range tx.Doc.Flow() {
		if u == eu {
			break
		}
		if in {
			tx.removeUnit(u)
		}
		if u == su {
			in = true
		}
	}

	keepStart := !su.IsAtomic()
	if su.IsAtomic() && s.Offset == 0 {
		tx.removeUnit(su)
	}
	if keepStart {
		i := tx.splitInline(su, s)
		tx.removeChildren(su, i, len(su.Children))
	}

	keepEnd := true
	if eu.IsAtomic() {
		if e.Offset == 1 {
			tx.removeUnit(eu)
			keepEnd = false
		}
	} else {
		j := tx.splitInline(eu, e)
		tx.removeChildren(eu, 0, j)
	}

	switch {
	case keepStart && keepEnd && !eu.IsAtomic():
		tx.caret(selection.Point{Key: su.Key, Offset: len(su.Children)})
		tx.mergeInto(su, eu)
	case keepStart:
		tx.caret(selection.Point{Key: su.Key, Offset: len(su.Children)})
	case keepEnd:
		tx.caret(selection.StartOf(eu))
	case last != nil:
		tx.caret(selection.StartOf(last))
	default:
		tx.caret(selection.Point{})
	}
}

// removeChildren detaches the children of n in [from, to).
func (tx *Transaction) removeChildren(n *node.Node, from, to int) {
	if from >= to {
		return
	}
	for _, c := range append([]*node.Node(nil), n.Children[from:to]...) {
		tx.Doc.Detach(c)
	}
}
