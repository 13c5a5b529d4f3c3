package history

import (
	"time"

	"github.com/dshills/folio/internal/engine/node"
	"github.com/dshills/folio/internal/engine/selection"
)

// Entry is one undoable step. Entries must not be modified after Record.
type Entry struct {
	ID          string
	Kind        string
	Description string

	// Coalescable marks kinds that may merge with a following entry of the
	// same kind.
	Coalescable bool

	Before          *node.Document
	After           *node.Document
	BeforeSelection selection.Selection
	AfterSelection  selection.Selection

	Timestamp time.Time

	// Merged counts the records folded into this entry after the first.
	Merged int
}

// Info summarizes an entry for display.
type Info struct {
	ID          string
	Kind        string
	Description string
	Timestamp   time.Time
	Merged      int
}

func (e *Entry) info() Info {
	return Info{
		ID:          e.ID,
		Kind:        e.Kind,
		Description: e.Description,
		Timestamp:   e.Timestamp,
		Merged:      e.Merged,
	}
}

// canCoalesce reports whether next may be folded into e.
func (e *Entry) canCoalesce(next *Entry, window time.Duration) bool {
	if !e.Coalescable || !next.Coalescable || e.Kind != next.Kind {
		return false
	}
	gap := next.Timestamp.Sub(e.Timestamp)
	if gap < 0 || gap > window {
		return false
	}
	return e.AfterSelection == next.BeforeSelection
}

// merge returns a new entry spanning e and next.
func (e *Entry) merge(next *Entry) *Entry {
	return &Entry{
		ID:              e.ID,
		Kind:            e.Kind,
		Description:     e.Description,
		Coalescable:     true,
		Before:          e.Before,
		BeforeSelection: e.BeforeSelection,
		After:           next.After,
		AfterSelection:  next.AfterSelection,
		Timestamp:       next.Timestamp,
		Merged:          e.Merged + next.Merged + 1,
	}
}

// combine builds a group entry from the records made while grouping.
func combine(name string, entries []*Entry) *Entry {
	first, last := entries[0], entries[len(entries)-1]
	merged := len(entries) - 1
	for _, e := range entries {
		merged += e.Merged
	}
	return &Entry{
		ID:              first.ID,
		Kind:            "GROUP",
		Description:     name,
		Before:          first.Before,
		BeforeSelection: first.BeforeSelection,
		After:           last.After,
		AfterSelection:  last.AfterSelection,
		Timestamp:       last.Timestamp,
		Merged:          merged,
	}
}
