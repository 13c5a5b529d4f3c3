package node

import "unicode/utf8"

// Key identifies a node within its Document.
// Keys are stable across transactions until the node is removed.
type Key string

// Node is a single element of the document tree.
//
// Only the payload fields that belong to Type are meaningful; the rest stay
// at their zero values. Children must only be modified through Document so
// the key index and parent links stay consistent.
type Node struct {
	Key  Key
	Type Type

	// Text payload.
	Text   string
	Format Format
	Style  Style

	// Block payload (paragraph, heading, quote, code, list item).
	Block Block
	Level int

	// List payload.
	Ordered bool

	// Link payload.
	URL string

	// Atomic payloads.
	Image Image
	Video Video

	Children []*Node

	parent *Node
}

// New creates a detached node of the given type with default payload.
func New(t Type) *Node {
	n := &Node{Type: t}
	if t == TypeHeading {
		n.Level = 1
	}
	return n
}

// NewRoot creates a detached root holding the given blocks.
func NewRoot(children ...*Node) *Node {
	return withChildren(New(TypeRoot), children)
}

// NewText creates a text run.
func NewText(text string, format Format) *Node {
	return &Node{Type: TypeText, Text: text, Format: format}
}

// NewStyledText creates a text run carrying a style map.
func NewStyledText(text string, format Format, style Style) *Node {
	return &Node{Type: TypeText, Text: text, Format: format, Style: style.Clone()}
}

// NewParagraph creates a paragraph holding the given inline nodes.
func NewParagraph(children ...*Node) *Node {
	return withChildren(New(TypeParagraph), children)
}

// NewHeading creates a heading. Levels outside 1-3 are clamped.
func NewHeading(level int, children ...*Node) *Node {
	n := withChildren(New(TypeHeading), children)
	n.Level = ClampLevel(level)
	return n
}

// NewQuote creates a block quote.
func NewQuote(children ...*Node) *Node {
	return withChildren(New(TypeQuote), children)
}

// NewCode creates a code block.
func NewCode(children ...*Node) *Node {
	return withChildren(New(TypeCode), children)
}

// NewList creates a list of the given items.
func NewList(ordered bool, items ...*Node) *Node {
	n := withChildren(New(TypeList), items)
	n.Ordered = ordered
	return n
}

// NewListItem creates a list item holding the given inline nodes.
func NewListItem(children ...*Node) *Node {
	return withChildren(New(TypeListItem), children)
}

// NewLink creates a link wrapping the given text nodes.
func NewLink(url string, children ...*Node) *Node {
	n := withChildren(New(TypeLink), children)
	n.URL = url
	return n
}

// NewImage creates an atomic image node.
func NewImage(img Image) *Node {
	return &Node{Type: TypeImage, Image: img}
}

// NewVideo creates an atomic video embed node.
func NewVideo(v Video) *Node {
	return &Node{Type: TypeVideo, Video: v}
}

// NewRule creates an atomic horizontal rule.
func NewRule() *Node {
	return New(TypeRule)
}

// ClampLevel limits a heading level to 1-3.
func ClampLevel(level int) int {
	switch {
	case level < 1:
		return 1
	case level > 3:
		return 3
	}
	return level
}

func withChildren(n *Node, children []*Node) *Node {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

// Parent returns the node's parent, or nil for the root and detached nodes.
func (n *Node) Parent() *Node {
	return n.parent
}

// IsAtomic returns true if the node is an atomic leaf.
func (n *Node) IsAtomic() bool {
	return n.Type.IsAtomic()
}

// Len returns the length of a node in selection units: runes for text,
// children for elements, and 1 for atomic leaves.
func (n *Node) Len() int {
	switch {
	case n.Type == TypeText:
		return utf8.RuneCountInString(n.Text)
	case n.Type.IsAtomic():
		return 1
	}
	return len(n.Children)
}

// Index returns the node's position among its siblings, or -1 if detached.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.Children {
		if c == n {
			return i
		}
	}
	return -1
}

// PrevSibling returns the previous sibling or nil.
func (n *Node) PrevSibling() *Node {
	i := n.Index()
	if i <= 0 {
		return nil
	}
	return n.parent.Children[i-1]
}

// NextSibling returns the next sibling or nil.
func (n *Node) NextSibling() *Node {
	i := n.Index()
	if i < 0 || i+1 >= len(n.parent.Children) {
		return nil
	}
	return n.parent.Children[i+1]
}

// Ancestor returns the closest ancestor (or the node itself) of type t.
func (n *Node) Ancestor(t Type) *Node {
	for c := n; c != nil; c = c.parent {
		if c.Type == t {
			return c
		}
	}
	return nil
}

// Container returns the closest text container holding the node,
// the node itself if it is a container, or nil.
func (n *Node) Container() *Node {
	for c := n; c != nil; c = c.parent {
		if c.Type.IsContainer() {
			return c
		}
	}
	return nil
}

// Path returns the child indices leading from the root to the node.
func (n *Node) Path() []int {
	var path []int
	for c := n; c.parent != nil; c = c.parent {
		path = append(path, c.Index())
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// PlainText returns the concatenated text of the subtree.
func (n *Node) PlainText() string {
	if n.Type == TypeText {
		return n.Text
	}
	var buf []byte
	for _, c := range n.Children {
		buf = append(buf, c.PlainText()...)
	}
	return string(buf)
}

// Texts returns the text nodes of the subtree in document order.
func (n *Node) Texts() []*Node {
	if n.Type == TypeText {
		return []*Node{n}
	}
	var out []*Node
	for _, c := range n.Children {
		out = append(out, c.Texts()...)
	}
	return out
}

// Clone returns a detached copy of the node's payload and key without children.
func (n *Node) Clone() *Node {
	c := *n
	c.Style = n.Style.Clone()
	c.Children = nil
	c.parent = nil
	return &c
}

// CloneTree returns a detached deep copy of the subtree, keys included.
func (n *Node) CloneTree() *Node {
	c := n.Clone()
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			cc := child.CloneTree()
			cc.parent = c
			c.Children[i] = cc
		}
	}
	return c
}

// SameMarks returns true if two text nodes have identical format and style.
func SameMarks(a, b *Node) bool {
	return a.Format == b.Format && a.Style.Equal(b.Style)
}
