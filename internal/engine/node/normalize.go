package node

import "unicode/utf8"

// EventKind identifies a structural change made by Normalize.
type EventKind uint8

const (
	// EventMerged means a text node was folded into its previous sibling.
	EventMerged EventKind = iota + 1
	// EventRemoved means a node was dropped from the tree.
	EventRemoved
)

// Event describes a node that disappeared during normalization.
type Event struct {
	Kind EventKind
	// Key is the node that was merged away or removed.
	Key Key
	// Into is the surviving node for EventMerged.
	Into Key
	// Delta is the rune offset at which Key's text starts inside Into.
	Delta int
	// Parent and Index locate Key before the event.
	Parent Key
	Index  int
}

// RemapFunc receives normalization events so callers can move positions
// that referenced vanished nodes.
type RemapFunc func(Event)

// Normalize restores the canonical tree shape:
//
//   - empty text nodes are removed
//   - adjacent text siblings with identical format and style are merged
//   - links and lists without children are removed
//   - adjacent links with the same URL are joined
//   - atomic leaves lose any children, format, or style
//   - an empty root receives one empty paragraph
//
// It returns true if the tree changed. remap may be nil.
func (d *Document) Normalize(remap RemapFunc) bool {
	if remap == nil {
		remap = func(Event) {}
	}
	n := &normalizer{doc: d, remap: remap}
	n.visit(d.root)
	if len(d.root.Children) == 0 {
		_ = d.Append(d.root, NewParagraph())
		n.changed = true
	}
	return n.changed
}

type normalizer struct {
	doc     *Document
	remap   RemapFunc
	changed bool
}

func (z *normalizer) visit(n *Node) {
	for _, c := range append([]*Node(nil), n.Children...) {
		z.visit(c)
	}

	if n.Type.IsAtomic() {
		if len(n.Children) > 0 || n.Format != 0 || n.Style != nil {
			for _, c := range append([]*Node(nil), n.Children...) {
				z.remove(n, c)
			}
			n.Format = 0
			n.Style = nil
			z.changed = true
		}
		return
	}

	for i := 0; i < len(n.Children); {
		c := n.Children[i]
		switch {
		case c.Type == TypeText && c.Text == "":
			z.remove(n, c)
			continue
		case (c.Type == TypeLink || c.Type == TypeList) && len(c.Children) == 0:
			z.remove(n, c)
			continue
		case c.Type == TypeText && i > 0:
			prev := n.Children[i-1]
			if prev.Type == TypeText && SameMarks(prev, c) {
				z.merge(n, prev, c, i)
				continue
			}
		case c.Type == TypeLink && i > 0:
			prev := n.Children[i-1]
			if prev.Type == TypeLink && prev.URL == c.URL {
				z.joinLinks(n, prev, c)
				continue
			}
		}
		i++
	}
}

// joinLinks moves the children of c into prev and drops c.
func (z *normalizer) joinLinks(parent, prev, c *Node) {
	moved := append([]*Node(nil), c.Children...)
	_ = z.doc.Attach(prev, -1, moved...)
	z.remove(parent, c)
	z.visit(prev)
}

func (z *normalizer) remove(parent, c *Node) {
	ev := Event{Kind: EventRemoved, Key: c.Key, Parent: parent.Key, Index: c.Index()}
	z.doc.Detach(c)
	z.changed = true
	z.remap(ev)
}

func (z *normalizer) merge(parent, into, c *Node, index int) {
	ev := Event{
		Kind:   EventMerged,
		Key:    c.Key,
		Into:   into.Key,
		Delta:  utf8.RuneCountInString(into.Text),
		Parent: parent.Key,
		Index:  index,
	}
	into.Text += c.Text
	z.doc.Detach(c)
	z.changed = true
	z.remap(ev)
}
