package command

import (
	"fmt"
	"strings"

	"github.com/dshills/folio/internal/engine/node"
)

// BlockType is a block conversion target.
type BlockType string

// Block types accepted by SetBlockType.
const (
	BlockParagraph BlockType = "paragraph"
	BlockH1        BlockType = "h1"
	BlockH2        BlockType = "h2"
	BlockH3        BlockType = "h3"
	BlockQuote     BlockType = "quote"
	BlockCode      BlockType = "code"
	BlockBullet    BlockType = "bullet"
	BlockNumber    BlockType = "number"
)

// BlockTypes lists every block type in toolbar order.
var BlockTypes = []BlockType{
	BlockParagraph, BlockH1, BlockH2, BlockH3, BlockBullet, BlockNumber, BlockQuote, BlockCode,
}

// ParseBlockType parses a block type name.
func ParseBlockType(s string) (BlockType, error) {
	b := BlockType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range BlockTypes {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: block type %q", ErrInvalidArgument, s)
}

// IsList reports whether b converts blocks into list items.
func (b BlockType) IsList() bool {
	return b == BlockBullet || b == BlockNumber
}

func (b BlockType) target() (node.Type, int) {
	switch b {
	case BlockH1:
		return node.TypeHeading, 1
	case BlockH2:
		return node.TypeHeading, 2
	case BlockH3:
		return node.TypeHeading, 3
	case BlockQuote:
		return node.TypeQuote, 0
	case BlockCode:
		return node.TypeCode, 0
	}
	return node.TypeParagraph, 0
}

// BlockTypeOf returns the block type label of a text container.
func BlockTypeOf(n *node.Node) BlockType {
	switch n.Type {
	case node.TypeHeading:
		switch n.Level {
		case 2:
			return BlockH2
		case 3:
			return BlockH3
		}
		return BlockH1
	case node.TypeQuote:
		return BlockQuote
	case node.TypeCode:
		return BlockCode
	case node.TypeListItem:
		if p := n.Parent(); p != nil && p.Ordered {
			return BlockNumber
		}
		return BlockBullet
	}
	return BlockParagraph
}

func setType(n *node.Node, t node.Type, level int) {
	n.Type = t
	n.Level = 0
	if t == node.TypeHeading {
		n.Level = node.ClampLevel(level)
	}
}

// SetBlockType converts the blocks intersected by the selection. List items
// converted to other types are lifted out of their list, which is split so
// the surrounding items keep their structure.
type SetBlockType struct {
	Type BlockType
}

// Kind implements Command.
func (SetBlockType) Kind() Kind { return KindSetBlockType }

// Description implements Command.
func (c SetBlockType) Description() string { return "Set block type " + string(c.Type) }

// Validate implements Validator.
func (c SetBlockType) Validate() error {
	_, err := ParseBlockType(string(c.Type))
	return err
}

// Apply implements Command.
func (c SetBlockType) Apply(tx *Transaction) error {
	units := textUnits(tx.selectedUnits())
	if c.Type.IsList() {
		tx.wrapInList(units, c.Type == BlockNumber)
		return nil
	}
	t, level := c.Type.target()
	for _, u := range units {
		if u.Type == node.TypeListItem {
			tx.liftItem(u, t, level)
			continue
		}
		setType(u, t, level)
	}
	return nil
}

// liftItem moves a list item out of its list as a block of type t. Items
// after it move to a new list following the lifted block.
func (tx *Transaction) liftItem(item *node.Node, t node.Type, level int) {
	list := item.Parent()
	tx.splitElement(list, item.Index()+1)
	setType(item, t, level)
	must(tx.Doc.InsertAfter(list, item))
}

// wrapInList converts units into items of lists of the given kind. Lists
// touched by the conversion merge with adjacent lists of the same kind.
func (tx *Transaction) wrapInList(units []*node.Node, ordered bool) {
	touched := make(map[*node.Node]bool)
	for _, u := range units {
		if u.Type == node.TypeListItem {
			list := u.Parent()
			list.Ordered = ordered
			touched[list] = true
			continue
		}
		list := u.PrevSibling()
		if list == nil || list.Type != node.TypeList || list.Ordered != ordered {
			list = node.NewList(ordered)
			must(tx.Doc.InsertBefore(u, list))
		}
		setType(u, node.TypeListItem, 0)
		must(tx.Doc.Append(list, u))
		touched[list] = true
	}

	var prev *node.Node
	for _, b := range append([]*node.Node(nil), tx.Doc.Blocks()...) {
		if b.Type == node.TypeList && prev != nil && prev.Type == node.TypeList &&
			prev.Ordered == b.Ordered && (touched[prev] || touched[b]) {
			must(tx.Doc.Append(prev, append([]*node.Node(nil), b.Children...)...))
			touched[prev] = true
			continue
		}
		prev = b
	}
}

// SetAlignment sets the alignment of the selected blocks.
type SetAlignment struct {
	Align node.Align
}

// Kind implements Command.
func (SetAlignment) Kind() Kind { return KindSetAlignment }

// Description implements Command.
func (c SetAlignment) Description() string {
	if c.Align == node.AlignNone {
		return "Reset alignment"
	}
	return "Align " + string(c.Align)
}

// Validate implements Validator.
func (c SetAlignment) Validate() error {
	if _, err := node.ParseAlign(string(c.Align)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return nil
}

// Apply implements Command.
func (c SetAlignment) Apply(tx *Transaction) error {
	for _, u := range textUnits(tx.selectedUnits()) {
		u.Block.Align = c.Align
	}
	return nil
}

// Indent increases the indent level of the selected blocks.
type Indent struct{}

// Kind implements Command.
func (Indent) Kind() Kind { return KindIndent }

// Description implements Command.
func (Indent) Description() string { return "Indent" }

// Apply implements Command.
func (Indent) Apply(tx *Transaction) error {
	return shiftIndent(tx, 1)
}

// Outdent decreases the indent level of the selected blocks.
type Outdent struct{}

// Kind implements Command.
func (Outdent) Kind() Kind { return KindOutdent }

// Description implements Command.
func (Outdent) Description() string { return "Outdent" }

// Apply implements Command.
func (Outdent) Apply(tx *Transaction) error {
	return shiftIndent(tx, -1)
}

func shiftIndent(tx *Transaction, delta int) error {
	for _, u := range textUnits(tx.selectedUnits()) {
		u.Block.Indent = node.ClampIndent(u.Block.Indent + delta)
	}
	return nil
}
