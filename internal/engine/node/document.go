package node

import (
	"fmt"
	"strconv"
)

// Document owns a tree of nodes and indexes them by key.
//
// Document is not safe for concurrent use. The engine serializes access and
// mutates only private clones inside transactions.
type Document struct {
	root  *Node
	index map[Key]*Node
	next  uint64
}

// NewDocument creates a document holding one empty paragraph.
func NewDocument() *Document {
	d, _ := FromRoot(NewRoot(NewParagraph()))
	return d
}

// FromRoot adopts a detached tree. Keyless and duplicate-key nodes get
// fresh keys. The tree is not normalized.
func FromRoot(root *Node) (*Document, error) {
	if root == nil || root.Type != TypeRoot {
		return nil, fmt.Errorf("adopt tree: %w: root required", ErrInvalidChild)
	}
	root.parent = nil
	d := &Document{root: root, index: make(map[Key]*Node)}
	d.register(root)
	return d, nil
}

// Root returns the root node.
func (d *Document) Root() *Node {
	return d.root
}

// Get returns the node with the given key, or nil.
func (d *Document) Get(key Key) *Node {
	return d.index[key]
}

// Has returns true if the key is attached to the document.
func (d *Document) Has(key Key) bool {
	_, ok := d.index[key]
	return ok
}

// Contains returns true if n is attached to this document.
func (d *Document) Contains(n *Node) bool {
	return n != nil && d.index[n.Key] == n
}

// Len returns the number of nodes in the document, root included.
func (d *Document) Len() int {
	return len(d.index)
}

// Blocks returns the direct children of the root.
func (d *Document) Blocks() []*Node {
	return d.root.Children
}

// Clone returns an independent deep copy with identical keys.
func (d *Document) Clone() *Document {
	c := &Document{
		root:  d.root.CloneTree(),
		index: make(map[Key]*Node, len(d.index)),
		next:  d.next,
	}
	c.walk(c.root, func(n *Node) {
		c.index[n.Key] = n
	})
	return c
}

// Walk visits the tree depth-first in document order. Returning false from
// fn skips the node's children.
func (d *Document) Walk(fn func(n *Node) bool) {
	var visit func(n *Node)
	visit = func(n *Node) {
		if !fn(n) {
			return
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(d.root)
}

// Flow returns the text containers and atomic leaves in document order.
// These are the units a caret moves between.
func (d *Document) Flow() []*Node {
	var out []*Node
	d.Walk(func(n *Node) bool {
		if n.Type.IsContainer() || n.Type.IsAtomic() {
			out = append(out, n)
			return false
		}
		return true
	})
	return out
}

// Texts returns every text node in document order.
func (d *Document) Texts() []*Node {
	return d.root.Texts()
}

// Attach inserts nodes as children of parent starting at index.
// A negative index appends. Nodes already attached elsewhere in the
// document are moved and keep their keys; nodes without a key, or whose key
// is taken by another node, get fresh keys.
func (d *Document) Attach(parent *Node, index int, nodes ...*Node) error {
	if parent == nil {
		return fmt.Errorf("attach: nil parent: %w", ErrNotFound)
	}
	if !d.Contains(parent) {
		return fmt.Errorf("attach: parent %q: %w", parent.Key, ErrNotFound)
	}
	if index < 0 {
		index = len(parent.Children)
	}
	if index > len(parent.Children) {
		return fmt.Errorf("attach at %d: %w", index, ErrIndexOutOfRange)
	}
	for _, n := range nodes {
		if !Allows(parent.Type, n.Type) {
			return fmt.Errorf("attach %s to %s: %w", n.Type, parent.Type, ErrInvalidChild)
		}
		for p := parent; p != nil; p = p.parent {
			if p == n {
				return fmt.Errorf("attach %s into its own subtree: %w", n.Type, ErrInvalidChild)
			}
		}
	}
	for _, n := range nodes {
		if n.parent != nil {
			if n.parent == parent && n.Index() < index {
				index--
			}
			n.parent.removeChild(n)
		}
	}

	children := make([]*Node, 0, len(parent.Children)+len(nodes))
	children = append(children, parent.Children[:index]...)
	children = append(children, nodes...)
	children = append(children, parent.Children[index:]...)
	parent.Children = children

	for _, n := range nodes {
		n.parent = parent
		d.register(n)
	}
	return nil
}

// Append attaches nodes at the end of parent.
func (d *Document) Append(parent *Node, nodes ...*Node) error {
	return d.Attach(parent, -1, nodes...)
}

// InsertBefore attaches nodes immediately before ref.
func (d *Document) InsertBefore(ref *Node, nodes ...*Node) error {
	if ref.parent == nil {
		return ErrRootRemoval
	}
	return d.Attach(ref.parent, ref.Index(), nodes...)
}

// InsertAfter attaches nodes immediately after ref.
func (d *Document) InsertAfter(ref *Node, nodes ...*Node) error {
	if ref.parent == nil {
		return ErrRootRemoval
	}
	return d.Attach(ref.parent, ref.Index()+1, nodes...)
}

// Remove detaches the subtree rooted at key and drops it from the index.
// The detached nodes keep their keys so they can be reattached.
func (d *Document) Remove(key Key) (*Node, error) {
	n := d.index[key]
	if n == nil {
		return nil, fmt.Errorf("remove %q: %w", key, ErrNotFound)
	}
	if n == d.root {
		return nil, ErrRootRemoval
	}
	d.Detach(n)
	return n, nil
}

// Detach removes n from its parent and the index. It is a no-op for
// detached nodes.
func (d *Document) Detach(n *Node) {
	if n.parent == nil {
		return
	}
	n.parent.removeChild(n)
	n.parent = nil
	d.unregister(n)
}

// Replace swaps the node at oldKey for n, preserving its position.
// Setting n.Key to oldKey keeps the key stable across the replacement.
func (d *Document) Replace(oldKey Key, n *Node) error {
	old := d.index[oldKey]
	if old == nil {
		return fmt.Errorf("replace %q: %w", oldKey, ErrNotFound)
	}
	if old == d.root {
		return ErrRootRemoval
	}
	parent := old.parent
	if !Allows(parent.Type, n.Type) {
		return fmt.Errorf("replace %s with %s: %w", old.Type, n.Type, ErrInvalidChild)
	}
	i := old.Index()
	d.Detach(old)
	return d.Attach(parent, i, n)
}

// Unwrap replaces n with its children.
func (d *Document) Unwrap(n *Node) error {
	parent := n.parent
	if parent == nil {
		return ErrRootRemoval
	}
	i := n.Index()
	children := append([]*Node(nil), n.Children...)
	for _, c := range children {
		if !Allows(parent.Type, c.Type) {
			return fmt.Errorf("unwrap %s into %s: %w", c.Type, parent.Type, ErrInvalidChild)
		}
	}
	for _, c := range children {
		c.parent = nil
	}
	n.Children = nil
	d.Detach(n)
	for _, c := range children {
		d.unregister(c)
	}
	return d.Attach(parent, i, children...)
}

// NewKey allocates an unused key.
func (d *Document) NewKey() Key {
	for {
		d.next++
		k := Key("n" + strconv.FormatUint(d.next, 10))
		if _, taken := d.index[k]; !taken {
			return k
		}
	}
}

func (d *Document) register(n *Node) {
	d.walk(n, func(c *Node) {
		if existing, ok := d.index[c.Key]; c.Key == "" || (ok && existing != c) {
			c.Key = d.NewKey()
		}
		d.index[c.Key] = c
	})
	for _, c := range n.Children {
		c.parent = n
	}
}

func (d *Document) unregister(n *Node) {
	d.walk(n, func(c *Node) {
		if d.index[c.Key] == c {
			delete(d.index, c.Key)
		}
	})
}

func (d *Document) walk(n *Node, fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.parent = n
		d.walk(c, fn)
	}
}

func (n *Node) removeChild(c *Node) {
	for i, x := range n.Children {
		if x == c {
			n.Children = append(n.Children[:i:i], n.Children[i+1:]...)
			return
		}
	}
}

// Allows reports whether a node of type child may be a child of parent.
func Allows(parent, child Type) bool {
	switch parent {
	case TypeRoot:
		return child.IsTopLevel()
	case TypeParagraph, TypeHeading, TypeQuote, TypeCode, TypeListItem:
		return child.IsInline()
	case TypeList:
		return child == TypeListItem
	case TypeLink:
		return child == TypeText
	}
	return false
}
