package command

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dshills/folio/internal/engine/node"
	"github.com/dshills/folio/internal/engine/selection"
)

// Transaction is one all-or-nothing mutation of a document.
//
// Doc is a private working copy; Before is the committed document it was
// cloned from and is never modified.
type Transaction struct {
	ID        uuid.UUID
	Kind      Kind
	Doc       *node.Document
	Selection selection.Selection

	before    *node.Document
	beforeSel selection.Selection
}

// Begin opens a transaction over a clone of doc.
func Begin(doc *node.Document, sel selection.Selection, kind Kind) *Transaction {
	return &Transaction{
		ID:        uuid.New(),
		Kind:      kind,
		Doc:       doc.Clone(),
		Selection: sel,
		before:    doc,
		beforeSel: sel,
	}
}

// Before returns the document the transaction started from.
func (tx *Transaction) Before() *node.Document {
	return tx.before
}

// BeforeSelection returns the selection the transaction started with.
func (tx *Transaction) BeforeSelection() selection.Selection {
	return tx.beforeSel
}

// Changed reports whether the working copy differs structurally from the
// starting document.
func (tx *Transaction) Changed() bool {
	return !node.Equal(tx.before, tx.Doc)
}

// Finish normalizes the working copy and resolves the selection against it.
func (tx *Transaction) Finish() {
	tx.Doc.Normalize(selection.Tracker(&tx.Selection))
	sel := selection.ResolveSelection(tx.Doc, tx.before, tx.Selection)
	tx.Selection = selection.Selection{
		Anchor: selection.Canonical(tx.Doc, sel.Anchor),
		Focus:  selection.Canonical(tx.Doc, sel.Focus),
	}
}

// Run validates cmd, applies it to a transaction over doc and finishes the
// transaction. On error the returned transaction is nil and doc is
// unchanged. Panics inside the command are recovered as ErrCommandPanic.
func Run(doc *node.Document, sel selection.Selection, cmd Command) (tx *Transaction, err error) {
	if v, ok := cmd.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	for _, p := range []selection.Point{sel.Anchor, sel.Focus} {
		if !selection.Valid(doc, p) {
			return nil, &StaleSelectionError{Point: p}
		}
	}

	defer func() {
		if r := recover(); r != nil {
			tx = nil
			err = fmt.Errorf("%w: %s: %v", ErrCommandPanic, cmd.Kind(), r)
		}
	}()

	tx = Begin(doc, sel, cmd.Kind())
	if err := cmd.Apply(tx); err != nil {
		return nil, err
	}
	tx.Finish()
	return tx, nil
}

// bounds returns pointers to the start and end points of the selection in
// document order.
func (tx *Transaction) bounds() (start, end *selection.Point) {
	if tx.Selection.IsBackward(tx.Doc) {
		return &tx.Selection.Focus, &tx.Selection.Anchor
	}
	return &tx.Selection.Anchor, &tx.Selection.Focus
}

// canonicalize moves element points onto adjacent text where possible.
func (tx *Transaction) canonicalize() {
	tx.Selection.Anchor = selection.Canonical(tx.Doc, tx.Selection.Anchor)
	tx.Selection.Focus = selection.Canonical(tx.Doc, tx.Selection.Focus)
}

// caret collapses the selection to p.
func (tx *Transaction) caret(p selection.Point) {
	tx.Selection = selection.Caret(p)
}

// must panics on tree errors that indicate a bug in a command. Run turns
// the panic into ErrCommandPanic and discards the working copy.
func must(err error) {
	if err != nil {
		panic(err)
	}
}
