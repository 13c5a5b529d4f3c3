// Package selection addresses positions and ranges within a node.Document.
//
// A Point names a node by key plus an offset. For text nodes the offset is
// measured in runes; for elements it is a child index; for atomic leaves 0
// is before the leaf and 1 after it. A Selection is an anchor/focus pair
// that may be backwards; use Ordered to get document order.
//
// Points are plain values. They survive transactions as long as their node
// does; Resolve moves stale points to the nearest surviving neighbour.
package selection

import (
	"fmt"

	"github.com/dshills/folio/internal/engine/node"
)

// Point is a position in the document.
type Point struct {
	Key    node.Key
	Offset int
}

// String returns a debug representation.
func (p Point) String() string {
	return fmt.Sprintf("%s:%d", p.Key, p.Offset)
}

// IsZero returns true for the zero point.
func (p Point) IsZero() bool {
	return p.Key == "" && p.Offset == 0
}

// Selection is an anchor/focus pair.
type Selection struct {
	Anchor Point
	Focus  Point
}

// Caret returns a collapsed selection at p.
func Caret(p Point) Selection {
	return Selection{Anchor: p, Focus: p}
}

// Range returns a selection from anchor to focus.
func Range(anchor, focus Point) Selection {
	return Selection{Anchor: anchor, Focus: focus}
}

// IsCollapsed returns true if anchor and focus are the same point.
func (s Selection) IsCollapsed() bool {
	return s.Anchor == s.Focus
}

// IsBackward returns true if the focus precedes the anchor.
func (s Selection) IsBackward(doc *node.Document) bool {
	return Compare(doc, s.Focus, s.Anchor) < 0
}

// Ordered returns the start and end of the selection in document order.
func (s Selection) Ordered(doc *node.Document) (start, end Point) {
	if s.IsBackward(doc) {
		return s.Focus, s.Anchor
	}
	return s.Anchor, s.Focus
}

// String returns a debug representation.
func (s Selection) String() string {
	if s.IsCollapsed() {
		return "caret(" + s.Anchor.String() + ")"
	}
	return "range(" + s.Anchor.String() + ".." + s.Focus.String() + ")"
}

// Valid reports whether p addresses an existing node with an in-range offset.
func Valid(doc *node.Document, p Point) bool {
	n := doc.Get(p.Key)
	if n == nil {
		return false
	}
	return p.Offset >= 0 && p.Offset <= n.Len()
}

// ValidSelection reports whether both ends of s are valid.
func ValidSelection(doc *node.Document, s Selection) bool {
	return Valid(doc, s.Anchor) && Valid(doc, s.Focus)
}

// Compare returns -1, 0, or 1 as a sorts before, with, or after b.
// Points are ordered by the child-index path of their node followed by the
// offset; a point on an element sorts before points inside the child at the
// same index. Unknown keys sort after every known point.
func Compare(doc *node.Document, a, b Point) int {
	pa, okA := position(doc, a)
	pb, okB := position(doc, b)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	}
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if pa[i] < pb[i] {
			return -1
		}
		if pa[i] > pb[i] {
			return 1
		}
	}
	switch {
	case len(pa) < len(pb):
		return -1
	case len(pa) > len(pb):
		return 1
	}
	return 0
}

func position(doc *node.Document, p Point) ([]int, bool) {
	n := doc.Get(p.Key)
	if n == nil {
		return nil, false
	}
	return append(n.Path(), p.Offset), true
}

// StartOf returns the first caret position inside n.
func StartOf(n *node.Node) Point {
	for len(n.Children) > 0 {
		n = n.Children[0]
	}
	return Point{Key: n.Key}
}

// EndOf returns the last caret position inside n.
func EndOf(n *node.Node) Point {
	for len(n.Children) > 0 {
		n = n.Children[len(n.Children)-1]
	}
	return Point{Key: n.Key, Offset: n.Len()}
}

// Start returns the first position of the document.
func Start(doc *node.Document) Point {
	return StartOf(doc.Root())
}

// End returns the last position of the document.
func End(doc *node.Document) Point {
	return EndOf(doc.Root())
}

// All returns a selection spanning the whole document.
func All(doc *node.Document) Selection {
	return Range(Start(doc), End(doc))
}

// Canonical moves an element point inside a container onto the adjacent
// text node, preferring the following one. Other points are returned
// unchanged.
func Canonical(doc *node.Document, p Point) Point {
	n := doc.Get(p.Key)
	if n == nil || n.Type == node.TypeText || n.IsAtomic() {
		return p
	}
	if p.Offset < len(n.Children) {
		return StartOf(n.Children[p.Offset])
	}
	if p.Offset > 0 && p.Offset <= len(n.Children) {
		return EndOf(n.Children[p.Offset-1])
	}
	return p
}

// Resolve returns p if it is still valid in doc. Otherwise it falls back to
// the end of the nearest surviving previous sibling of the vanished node, then
// the start of the nearest next sibling, walking up the ancestors recorded in
// before. If nothing survives, the document start is returned.
func Resolve(doc, before *node.Document, p Point) Point {
	if n := doc.Get(p.Key); n != nil {
		return Point{Key: p.Key, Offset: clamp(p.Offset, 0, n.Len())}
	}
	if before == nil {
		return Start(doc)
	}
	old := before.Get(p.Key)
	if old == nil {
		return Start(doc)
	}
	for c := old; c.Parent() != nil; c = c.Parent() {
		for s := c.PrevSibling(); s != nil; s = s.PrevSibling() {
			if n := doc.Get(s.Key); n != nil {
				return EndOf(n)
			}
		}
		for s := c.NextSibling(); s != nil; s = s.NextSibling() {
			if n := doc.Get(s.Key); n != nil {
				return StartOf(n)
			}
		}
		if par := doc.Get(c.Parent().Key); par != nil && par.Type != node.TypeRoot {
			return StartOf(par)
		}
	}
	return Start(doc)
}

// ResolveSelection resolves both ends of s.
func ResolveSelection(doc, before *node.Document, s Selection) Selection {
	return Selection{
		Anchor: Resolve(doc, before, s.Anchor),
		Focus:  Resolve(doc, before, s.Focus),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
