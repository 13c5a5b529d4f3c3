package command

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dshills/folio/internal/engine/node"
	"github.com/dshills/folio/internal/engine/selection"
	"github.com/dshills/folio/internal/media"
)

// InsertNode inserts an atomic leaf (image, video embed, rule) at the
// selection. A selected range is deleted first; a block holding the caret
// mid-text is split. The caret moves to the start of the block that
// follows the new node, which is created as an empty paragraph when the
// node would otherwise end the document.
type InsertNode struct {
	Node *node.Node
}

// Kind implements Command.
func (InsertNode) Kind() Kind { return KindInsertNode }

// Description implements Command.
func (c InsertNode) Description() string {
	if c.Node == nil {
		return "Insert node"
	}
	return "Insert " + c.Node.Type.String()
}

// Validate implements Validator.
func (c InsertNode) Validate() error {
	_, err := c.prepare()
	return err
}

// Apply implements Command.
func (c InsertNode) Apply(tx *Transaction) error {
	n, err := c.prepare()
	if err != nil {
		return err
	}
	return InsertNodes(tx, n)
}

// prepare validates the payload and returns a detached copy ready to attach.
// Video sources are resolved to provider IDs here.
func (c InsertNode) prepare() (*node.Node, error) {
	if c.Node == nil {
		return nil, &InvalidNodePayloadError{Field: "Node", Reason: "is required"}
	}
	n := c.Node.Clone()
	n.Key = ""
	if !n.IsAtomic() {
		return nil, &InvalidNodePayloadError{Type: n.Type, Field: "Type", Reason: "is not an embeddable leaf"}
	}
	if len(c.Node.Children) > 0 {
		return nil, &InvalidNodePayloadError{Type: n.Type, Field: "Children", Reason: "must be empty"}
	}
	if n.Type == node.TypeImage {
		n.Image.Src = node.NormalizeText(strings.TrimSpace(n.Image.Src))
		n.Image.Alt = node.NormalizeText(n.Image.Alt)
		n.Image.Caption = node.CollapseBreaks(node.NormalizeText(n.Image.Caption))
	}
	if err := node.ValidatePayload(n); err != nil {
		return nil, payloadError(err)
	}
	if n.Type == node.TypeVideo {
		switch {
		case n.Video.ID != "":
			if !media.ValidVideoID(n.Video.ID) {
				return nil, &InvalidNodePayloadError{Type: n.Type, Field: "ID", Reason: "is not a valid video ID"}
			}
		default:
			id, err := media.ParseVideoURL(n.Video.Source)
			if err != nil {
				return nil, &InvalidNodePayloadError{Type: n.Type, Field: "Source", Reason: "is not a recognized video URL", Err: err}
			}
			n.Video.ID = id
		}
		n.Video.Source = ""
	}
	return n, nil
}

// InsertNodes inserts top-level nodes at the selection, splitting the block
// at the caret so they land on a root boundary. The caret moves to the
// start of the following block.
func InsertNodes(tx *Transaction, nodes ...*node.Node) error {
	for _, n := range nodes {
		if !n.Type.IsTopLevel() {
			return fmt.Errorf("%w: %s cannot be inserted at block level", ErrInvalidArgument, n.Type)
		}
	}
	if len(nodes) == 0 {
		return nil
	}
	tx.deleteRange()
	tx.canonicalize()

	root := tx.Doc.Root()
	at := tx.rootBoundary(tx.Selection.Focus)
	must(tx.Doc.Attach(root, at, nodes...))

	after := at + len(nodes)
	var next *node.Node
	if after < len(root.Children) {
		next = root.Children[after]
	} else {
		next = node.NewParagraph()
		must(tx.Doc.Append(root, next))
	}
	tx.caret(selection.StartOf(next))
	return nil
}

// rootBoundary splits the tree at p up to the root and returns the root
// child index at which p now lies.
func (tx *Transaction) rootBoundary(p selection.Point) int {
	u := tx.unitAt(p)
	if u == nil {
		return len(tx.Doc.Root().Children)
	}
	if u.IsAtomic() {
		if p.Offset == 0 {
			return u.Index()
		}
		return u.Index() + 1
	}

	var at int
	switch {
	case atContainerStart(tx.Doc, u, p):
		at = u.Index()
	case atContainerEnd(tx.Doc, u, p):
		at = u.Index() + 1
	default:
		at, _ = tx.splitElement(u, tx.splitInline(u, p))
	}
	if u.Type != node.TypeListItem {
		return at
	}
	at, _ = tx.splitElement(u.Parent(), at)
	return at
}

// InsertText types text at the selection, replacing a selected range.
// Text is normalized to NFC and every line break becomes "\n".
type InsertText struct {
	Text string
}

// Kind implements Command.
func (InsertText) Kind() Kind { return KindInsertText }

// Description implements Command.
func (InsertText) Description() string { return "Typing" }

// Apply implements Command.
func (c InsertText) Apply(tx *Transaction) error {
	s := node.NormalizeText(c.Text)
	if s == "" {
		return nil
	}
	tx.deleteRange()
	tx.canonicalize()
	p := tx.Selection.Focus
	n := tx.Doc.Get(p.Key)
	if n == nil {
		return &StaleSelectionError{Point: p}
	}
	size := utf8.RuneCountInString(s)

	switch {
	case n.Type == node.TypeText:
		n.Text = insertRunes(n.Text, p.Offset, s)
		tx.caret(selection.Point{Key: n.Key, Offset: p.Offset + size})
	case n.IsAtomic():
		t := node.NewText(s, 0)
		para := node.NewParagraph(t)
		if p.Offset == 0 {
			must(tx.Doc.InsertBefore(n, para))
		} else {
			must(tx.Doc.InsertAfter(n, para))
		}
		tx.caret(selection.Point{Key: t.Key, Offset: size})
	case n.Type.IsContainer() || n.Type == node.TypeLink:
		t := node.NewText(s, 0)
		must(tx.Doc.Attach(n, p.Offset, t))
		tx.caret(selection.Point{Key: t.Key, Offset: size})
	default:
		return fmt.Errorf("%w: cannot type into %s", ErrInvalidArgument, n.Type)
	}
	return nil
}

// InsertParagraph splits the block at the caret. Splitting a heading or
// quote at its end starts a paragraph; in a code block a line break is
// typed instead; in an empty list item the item is lifted out of the list.
type InsertParagraph struct{}

// Kind implements Command.
func (InsertParagraph) Kind() Kind { return KindInsertParagraph }

// Description implements Command.
func (InsertParagraph) Description() string { return "New paragraph" }

// Apply implements Command.
func (InsertParagraph) Apply(tx *Transaction) error {
	tx.deleteRange()
	tx.canonicalize()
	p := tx.Selection.Focus
	u := tx.unitAt(p)
	if u == nil {
		return &StaleSelectionError{Point: p}
	}

	if u.IsAtomic() {
		para := node.NewParagraph()
		if p.Offset == 0 {
			must(tx.Doc.InsertBefore(u, para))
			return nil
		}
		must(tx.Doc.InsertAfter(u, para))
		tx.caret(selection.Point{Key: para.Key})
		return nil
	}
	if u.Type == node.TypeCode {
		return InsertText{Text: "\n"}.Apply(tx)
	}
	if u.Type == node.TypeListItem && len(u.Texts()) == 0 {
		tx.liftItem(u, node.TypeParagraph, 0)
		return nil
	}

	atEnd := atContainerEnd(tx.Doc, u, p)
	i := tx.splitInline(u, p)
	right := u.Clone()
	right.Key = ""
	moved := append([]*node.Node(nil), u.Children[i:]...)
	must(tx.Doc.InsertAfter(u, right))
	must(tx.Doc.Append(right, moved...))
	if atEnd && (u.Type == node.TypeHeading || u.Type == node.TypeQuote) {
		setType(right, node.TypeParagraph, 0)
	}
	tx.caret(selection.StartOf(right))
	return nil
}
