// Package history provides undo/redo for the document engine.
//
// History stores frozen document snapshots rather than inverse operations.
// Every transaction mutates a private clone of the document, so the
// document that was current before a commit and the one produced by it can
// both be kept without copying again. Undo restores an entry's Before
// snapshot; redo restores its After snapshot.
//
// # Entries
//
// An Entry records one committed transaction:
//   - the command kind and a human readable description
//   - Before/After document snapshots
//   - Before/After selections
//   - the commit timestamp
//
// Entries are immutable once recorded. Coalescing replaces the top entry
// with a new merged entry instead of modifying it.
//
// # Coalescing
//
// Rapid sequences of the same coalescable kind (typing, formatting, text
// style) are merged into one undo step:
//
//	h := history.New(history.WithWindow(300 * time.Millisecond))
//	h.Record(e1) // typing "a"
//	h.Record(e2) // typing "b" 80ms later, caret where e1 left it
//	h.UndoCount() // 1
//
// Break forces the next record to start a new entry.
//
// # Grouping
//
// Multiple records can be grouped as a single undo unit:
//
//	h.BeginGroup("Apply template")
//	// ... several commits ...
//	h.EndGroup()
//
// The group keeps the Before of its first record and the After of its last.
package history
