// Package engine provides the document editing engine for Folio.
//
// The engine package serves as the main facade, combining the node model,
// the command layer, undo/redo history and the HTML codec into a single
// thread-safe API that hosts (the HTTP server, the scripting runtime, the
// CLI) drive.
//
// # Architecture
//
// The engine is built on several sub-packages:
//
//   - node: the document tree and its invariants
//   - selection: points, selections and their resolution after edits
//   - command: the Command interface, transactions and all mutations
//   - history: snapshot based undo/redo with coalescing
//   - toolbar: the read-only projection of formatting state
//
// # States
//
// An engine is either Idle or InTransaction. Dispatch moves it to
// InTransaction, applies the command to a private working copy and either
// commits the copy or discards it, returning to Idle in both cases. A
// dispatch that arrives while a transaction is open fails with ErrBusy.
//
// # Basic Usage
//
//	e := engine.New()
//	warnings, err := e.Initialize("<p>Hello</p>")
//
//	e.SelectAll()
//	res, err := e.Dispatch(command.FormatText{Format: node.Bold})
//
//	e.HTML() // "<p><strong>Hello</strong></p>"
//
//	e.Dispatch(command.Undo{})
//	e.HTML() // "<p>Hello</p>"
//
// # Observing Changes
//
// OnChange registers a function called after every committed transaction,
// undo and redo. Observers run after the engine lock is released and may
// call back into the engine.
//
//	cancel := e.OnChange(func(c engine.Change) {
//		save(c.HTML)
//	})
//	defer cancel()
//
// # Batches
//
// Batch groups several dispatches into one undo step:
//
//	err := e.Batch("Apply template", func() error {
//		if _, err := e.Dispatch(command.InsertText{Text: "Title"}); err != nil {
//			return err
//		}
//		_, err := e.Dispatch(command.SetBlockType{Type: command.BlockH1})
//		return err
//	})
//
// If the function returns an error the document is restored to its state
// before the batch.
package engine
