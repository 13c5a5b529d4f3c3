package selection

import "github.com/dshills/folio/internal/engine/node"

// Remap moves p across a normalization event.
func (p Point) Remap(ev node.Event) Point {
	switch ev.Kind {
	case node.EventMerged:
		if p.Key == ev.Key {
			return Point{Key: ev.Into, Offset: p.Offset + ev.Delta}
		}
		if p.Key == ev.Parent {
			switch {
			case p.Offset == ev.Index:
				return Point{Key: ev.Into, Offset: ev.Delta}
			case p.Offset > ev.Index:
				return Point{Key: p.Key, Offset: p.Offset - 1}
			}
		}
	case node.EventRemoved:
		if p.Key == ev.Key {
			return Point{Key: ev.Parent, Offset: ev.Index}
		}
		if p.Key == ev.Parent && p.Offset > ev.Index {
			return Point{Key: p.Key, Offset: p.Offset - 1}
		}
	}
	return p
}

// Remap moves both ends of s across a normalization event.
func (s Selection) Remap(ev node.Event) Selection {
	return Selection{Anchor: s.Anchor.Remap(ev), Focus: s.Focus.Remap(ev)}
}

// Tracker returns a node.RemapFunc that keeps *s current while a document
// is normalized.
func Tracker(s *Selection) node.RemapFunc {
	return func(ev node.Event) {
		*s = s.Remap(ev)
	}
}
