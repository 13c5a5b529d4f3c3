package history

// BeginGroup starts a record group.
// Entries recorded while grouping are combined into a single undo unit.
func (h *History) BeginGroup(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.grouping {
		// Already grouping, ignore nested calls
		return
	}

	h.grouping = true
	h.groupName = name
	h.groupItems = nil
}

// EndGroup finishes a record group and pushes the combined entry.
// It returns nil if nothing was recorded.
func (h *History) EndGroup() *Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.grouping {
		return nil
	}
	h.grouping = false
	items := h.groupItems
	h.groupItems = nil
	if len(items) == 0 {
		return nil
	}

	h.broken = true
	e := h.pushLocked(combine(h.groupName, items))
	h.broken = true
	return e
}

// CancelGroup ends a group without recording it. The combined entry is
// returned so the caller can restore its Before snapshot; it is nil if
// nothing was recorded.
func (h *History) CancelGroup() *Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.grouping {
		return nil
	}
	h.grouping = false
	items := h.groupItems
	h.groupItems = nil
	if len(items) == 0 {
		return nil
	}
	return combine(h.groupName, items)
}

// IsGrouping returns true if currently in a record group.
func (h *History) IsGrouping() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.grouping
}
