package node

// Equal reports whether two documents have the same structure and content.
// Keys are ignored, as is the transient Video.Source.
func Equal(a, b *Document) bool {
	if a == nil || b == nil {
		return a == b
	}
	return EqualNodes(a.root, b.root)
}

// EqualNodes compares two subtrees ignoring keys.
func EqualNodes(a, b *Node) bool {
	if a.Type != b.Type || len(a.Children) != len(b.Children) {
		return false
	}
	switch a.Type {
	case TypeText:
		if a.Text != b.Text || !SameMarks(a, b) {
			return false
		}
	case TypeHeading:
		if a.Level != b.Level || a.Block != b.Block {
			return false
		}
	case TypeParagraph, TypeQuote, TypeCode, TypeListItem:
		if a.Block != b.Block {
			return false
		}
	case TypeList:
		if a.Ordered != b.Ordered {
			return false
		}
	case TypeLink:
		if a.URL != b.URL {
			return false
		}
	case TypeImage:
		if a.Image != b.Image {
			return false
		}
	case TypeVideo:
		if a.Video.ID != b.Video.ID {
			return false
		}
	}
	for i := range a.Children {
		if !EqualNodes(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
