// Package command implements the mutation protocol of the document engine.
//
// Every change to a document goes through a Command applied inside a
// Transaction. The transaction works on a private clone of the document, so
// a failing or panicking command leaves the committed document untouched;
// the caller decides whether to swap the working copy in.
//
// Commands never hold references to nodes. They address the document
// through the transaction's selection, which is validated before the
// command runs and re-resolved after it finishes.
package command

import (
	"fmt"
)

// Kind names a command type.
type Kind string

// Command kinds.
const (
	KindFormatText      Kind = "FORMAT_TEXT"
	KindSetBlockType    Kind = "SET_BLOCK_TYPE"
	KindSetAlignment    Kind = "SET_ALIGNMENT"
	KindIndent          Kind = "INDENT"
	KindOutdent         Kind = "OUTDENT"
	KindToggleLink      Kind = "TOGGLE_LINK"
	KindInsertNode      Kind = "INSERT_NODE"
	KindInsertText      Kind = "INSERT_TEXT"
	KindInsertParagraph Kind = "INSERT_PARAGRAPH"
	KindDeleteBackward  Kind = "DELETE_BACKWARD"
	KindDeleteForward   Kind = "DELETE_FORWARD"
	KindSetTextStyle    Kind = "SET_TEXT_STYLE"
	KindClearFormatting Kind = "CLEAR_FORMATTING"
	KindUndo            Kind = "UNDO"
	KindRedo            Kind = "REDO"
)

// Coalescable reports whether consecutive commands of kind k may share one
// undo step.
func (k Kind) Coalescable() bool {
	switch k {
	case KindFormatText, KindInsertText, KindSetTextStyle:
		return true
	}
	return false
}

// Command is a named document mutation.
type Command interface {
	// Kind returns the command type.
	Kind() Kind

	// Apply mutates tx.Doc and tx.Selection.
	Apply(tx *Transaction) error

	// Description returns a human-readable description for history display.
	Description() string
}

// Validator is implemented by commands that check their arguments before
// a transaction is opened.
type Validator interface {
	Validate() error
}

// Undo asks the engine to restore the previous history entry.
type Undo struct{}

// Kind implements Command.
func (Undo) Kind() Kind { return KindUndo }

// Apply implements Command. History commands are handled by the engine.
func (Undo) Apply(*Transaction) error { return fmt.Errorf("%w: %s", ErrHistoryCommand, KindUndo) }

// Description implements Command.
func (Undo) Description() string { return "Undo" }

// Redo asks the engine to re-apply the most recently undone entry.
type Redo struct{}

// Kind implements Command.
func (Redo) Kind() Kind { return KindRedo }

// Apply implements Command. History commands are handled by the engine.
func (Redo) Apply(*Transaction) error { return fmt.Errorf("%w: %s", ErrHistoryCommand, KindRedo) }

// Description implements Command.
func (Redo) Description() string { return "Redo" }
