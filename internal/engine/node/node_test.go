package node

import (
	"errors"
	"testing"
)

func sampleDoc(t *testing.T) *Document {
	t.Helper()
	root := NewRoot(
		NewHeading(1, NewText("Title", 0)),
		NewParagraph(NewText("Hello ", 0), NewText("world", Bold)),
		NewImage(Image{Src: "https://x/a.png", Alt: "A"}),
		NewList(false, NewListItem(NewText("one", 0)), NewListItem(NewText("two", 0))),
	)
	d, err := FromRoot(root)
	if err != nil {
		t.Fatalf("FromRoot: %v", err)
	}
	return d
}

func TestNewDocument(t *testing.T) {
	d := NewDocument()
	if got := len(d.Blocks()); got != 1 {
		t.Fatalf("blocks = %d, want 1", got)
	}
	if d.Blocks()[0].Type != TypeParagraph {
		t.Errorf("first block = %s, want paragraph", d.Blocks()[0].Type)
	}
	if errs := Validate(d); len(errs) != 0 {
		t.Errorf("Validate() = %v", errs)
	}
}

func TestFromRootAssignsUniqueKeys(t *testing.T) {
	d := sampleDoc(t)
	seen := map[Key]bool{}
	d.Walk(func(n *Node) bool {
		if n.Key == "" {
			t.Errorf("%s has no key", n.Type)
		}
		if seen[n.Key] {
			t.Errorf("duplicate key %s", n.Key)
		}
		seen[n.Key] = true
		return true
	})
	if len(seen) != d.Len() {
		t.Errorf("walked %d nodes, index has %d", len(seen), d.Len())
	}
}

func TestFromRootRejectsNonRoot(t *testing.T) {
	if _, err := FromRoot(NewParagraph()); !errors.Is(err, ErrInvalidChild) {
		t.Errorf("FromRoot(paragraph) error = %v, want ErrInvalidChild", err)
	}
}

func TestAttachRules(t *testing.T) {
	d := sampleDoc(t)
	para := d.Blocks()[1]
	img := d.Blocks()[2]

	tests := []struct {
		name   string
		parent *Node
		child  *Node
		ok     bool
	}{
		{"text in paragraph", para, NewText("x", 0), true},
		{"link in paragraph", para, NewLink("https://a", NewText("x", 0)), true},
		{"paragraph in paragraph", para, NewParagraph(), false},
		{"image in paragraph", para, NewRule(), false},
		{"text in image", img, NewText("x", 0), false},
		{"rule at root", d.Root(), NewRule(), true},
		{"text at root", d.Root(), NewText("x", 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.Append(tt.parent, tt.child)
			if tt.ok && err != nil {
				t.Errorf("Append() error = %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidChild) {
				t.Errorf("Append() error = %v, want ErrInvalidChild", err)
			}
		})
	}
}

func TestAttachClonedTreeGetsFreshKeys(t *testing.T) {
	d := sampleDoc(t)
	para := d.Blocks()[1]
	dup := para.CloneTree()
	if dup.Key != para.Key {
		t.Fatal("CloneTree should keep keys")
	}
	if err := d.InsertAfter(para, dup); err != nil {
		t.Fatalf("InsertAfter: %v", err)
	}
	if dup.Key == para.Key {
		t.Error("attached clone kept a duplicate key")
	}
	if d.Get(para.Key) != para {
		t.Error("original lost its key")
	}
	if errs := Validate(d); len(errs) != 0 {
		t.Errorf("Validate() = %v", errs)
	}
}

func TestRemoveAndReattachKeepsKey(t *testing.T) {
	d := sampleDoc(t)
	para := d.Blocks()[1]
	key := para.Key

	removed, err := d.Remove(key)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if d.Has(key) {
		t.Error("removed key still indexed")
	}
	for _, txt := range removed.Texts() {
		if d.Has(txt.Key) {
			t.Errorf("descendant %s still indexed", txt.Key)
		}
	}
	if err := d.Attach(d.Root(), 0, removed); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if removed.Key != key {
		t.Errorf("key = %s, want %s", removed.Key, key)
	}
	if d.Blocks()[0] != removed {
		t.Error("node not reattached at index 0")
	}
}

func TestRemoveRoot(t *testing.T) {
	d := sampleDoc(t)
	if _, err := d.Remove(d.Root().Key); !errors.Is(err, ErrRootRemoval) {
		t.Errorf("Remove(root) error = %v", err)
	}
	if _, err := d.Remove("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove(missing) error = %v", err)
	}
}

func TestReplaceKeepsPosition(t *testing.T) {
	d := sampleDoc(t)
	para := d.Blocks()[1]
	quote := NewQuote()
	quote.Key = para.Key
	for _, c := range append([]*Node(nil), para.Children...) {
		d.Detach(c)
		quote.Children = append(quote.Children, c)
	}
	if err := d.Replace(para.Key, quote); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if d.Blocks()[1] != quote || quote.Key != para.Key {
		t.Error("replacement not in place")
	}
	if quote.PlainText() != "Hello world" {
		t.Errorf("text = %q", quote.PlainText())
	}
	if errs := Validate(d); len(errs) != 0 {
		t.Errorf("Validate() = %v", errs)
	}
}

func TestMoveWithinParent(t *testing.T) {
	d := sampleDoc(t)
	blocks := append([]*Node(nil), d.Blocks()...)
	if err := d.Attach(d.Root(), len(blocks), blocks[0]); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	got := d.Blocks()
	if got[len(got)-1] != blocks[0] || got[0] != blocks[1] {
		t.Errorf("move produced %v", got)
	}
	if errs := Validate(d); len(errs) != 0 {
		t.Errorf("Validate() = %v", errs)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	d := sampleDoc(t)
	c := d.Clone()
	if !Equal(d, c) {
		t.Fatal("clone not equal")
	}
	txt := c.Texts()[0]
	if d.Get(txt.Key) == txt {
		t.Fatal("clone shares nodes")
	}
	txt.Text = "Changed"
	if Equal(d, c) {
		t.Error("mutating clone affected equality with original")
	}
	if d.Texts()[0].Text != "Title" {
		t.Error("original mutated")
	}
}

func TestFlow(t *testing.T) {
	d := sampleDoc(t)
	flow := d.Flow()
	want := []Type{TypeHeading, TypeParagraph, TypeImage, TypeListItem, TypeListItem}
	if len(flow) != len(want) {
		t.Fatalf("flow length = %d, want %d", len(flow), len(want))
	}
	for i, n := range flow {
		if n.Type != want[i] {
			t.Errorf("flow[%d] = %s, want %s", i, n.Type, want[i])
		}
	}
}

func TestPath(t *testing.T) {
	d := sampleDoc(t)
	item := d.Blocks()[3].Children[1].Children[0]
	path := item.Path()
	want := []int{3, 1, 0}
	if len(path) != len(want) {
		t.Fatalf("path = %v", path)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Errorf("path = %v, want %v", path, want)
		}
	}
}

func TestEqualIgnoresKeysAndVideoSource(t *testing.T) {
	a, _ := FromRoot(NewRoot(NewVideo(Video{ID: "dQw4w9WgXcQ", Source: "https://youtu.be/dQw4w9WgXcQ"})))
	b, _ := FromRoot(NewRoot(NewParagraph(), NewVideo(Video{ID: "dQw4w9WgXcQ"})))
	if _, err := b.Remove(b.Blocks()[0].Key); err != nil {
		t.Fatal(err)
	}
	if !Equal(a, b) {
		t.Error("documents should be equal")
	}
}

func TestValidatePayload(t *testing.T) {
	tests := []struct {
		name  string
		node  *Node
		field string
	}{
		{"image ok", NewImage(Image{Src: "https://x/a.png"}), ""},
		{"image missing src", NewImage(Image{Alt: "a"}), "Src"},
		{"image relative src", NewImage(Image{Src: "/a.png"}), "Src"},
		{"image negative width", NewImage(Image{Src: "https://x/a.png", Width: -1}), "Width"},
		{"video empty", NewVideo(Video{}), "ID"},
		{"link javascript", NewLink("javascript:alert(1)"), "URL"},
		{"link relative", NewLink("/about"), ""},
		{"rule", NewRule(), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePayload(tt.node)
			if tt.field == "" {
				if err != nil {
					t.Errorf("ValidatePayload() = %v", err)
				}
				return
			}
			var pe *PayloadError
			if !errors.As(err, &pe) {
				t.Fatalf("ValidatePayload() = %v, want PayloadError", err)
			}
			if pe.Field != tt.field {
				t.Errorf("field = %s, want %s", pe.Field, tt.field)
			}
			if !errors.Is(err, ErrInvalidPayload) {
				t.Error("error should match ErrInvalidPayload")
			}
		})
	}
}

func TestSafeURL(t *testing.T) {
	tests := map[string]bool{
		"https://example.org":       true,
		"http://example.org/a?b=c":  true,
		"mailto:team@example.org":   true,
		"tel:+15551234":             true,
		"/events/2024":              true,
		"#section":                  true,
		"javascript:alert(1)":       false,
		"JavaScript:alert(1)":       false,
		"data:text/html;base64,xxx": false,
		"vbscript:msgbox":           false,
		"":                          false,
	}
	for raw, want := range tests {
		if got := SafeURL(raw); got != want {
			t.Errorf("SafeURL(%q) = %v, want %v", raw, got, want)
		}
	}
}
