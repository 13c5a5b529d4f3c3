package selection

import (
	"testing"

	"github.com/dshills/folio/internal/engine/node"
)

func newDoc(t *testing.T) *node.Document {
	t.Helper()
	d, err := node.FromRoot(node.NewRoot(
		node.NewParagraph(node.NewText("Hello ", 0), node.NewText("world", node.Bold)),
		node.NewRule(),
		node.NewParagraph(node.NewText("Second", 0)),
	))
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestCompare(t *testing.T) {
	d := newDoc(t)
	p1 := d.Blocks()[0]
	hello, world := p1.Children[0], p1.Children[1]
	rule := d.Blocks()[1]
	second := d.Blocks()[2].Children[0]

	tests := []struct {
		name string
		a, b Point
		want int
	}{
		{"same", Point{hello.Key, 2}, Point{hello.Key, 2}, 0},
		{"same node offsets", Point{hello.Key, 1}, Point{hello.Key, 4}, -1},
		{"sibling texts", Point{world.Key, 0}, Point{hello.Key, 6}, 1},
		{"before rule", Point{world.Key, 5}, Point{rule.Key, 0}, -1},
		{"rule before after", Point{rule.Key, 1}, Point{rule.Key, 0}, 1},
		{"across blocks", Point{second.Key, 0}, Point{rule.Key, 1}, 1},
		{"element before child", Point{p1.Key, 1}, Point{world.Key, 0}, -1},
		{"unknown sorts last", Point{"gone", 0}, Point{second.Key, 6}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(d, tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestOrdered(t *testing.T) {
	d := newDoc(t)
	hello := d.Blocks()[0].Children[0]
	second := d.Blocks()[2].Children[0]
	s := Range(Point{second.Key, 3}, Point{hello.Key, 1})
	if !s.IsBackward(d) {
		t.Fatal("expected backward selection")
	}
	start, end := s.Ordered(d)
	if start.Key != hello.Key || end.Key != second.Key {
		t.Errorf("Ordered() = %v, %v", start, end)
	}
}

func TestStartEnd(t *testing.T) {
	d := newDoc(t)
	if got := Start(d); got != (Point{d.Blocks()[0].Children[0].Key, 0}) {
		t.Errorf("Start() = %v", got)
	}
	if got := End(d); got != (Point{d.Blocks()[2].Children[0].Key, 6}) {
		t.Errorf("End() = %v", got)
	}
	empty := node.NewDocument()
	if got := Start(empty); got != (Point{empty.Blocks()[0].Key, 0}) {
		t.Errorf("Start(empty) = %v", got)
	}
}

func TestValid(t *testing.T) {
	d := newDoc(t)
	hello := d.Blocks()[0].Children[0]
	rule := d.Blocks()[1]
	if !Valid(d, Point{hello.Key, 6}) {
		t.Error("end of text should be valid")
	}
	if Valid(d, Point{hello.Key, 7}) {
		t.Error("past end should be invalid")
	}
	if Valid(d, Point{rule.Key, 2}) {
		t.Error("rule offset 2 should be invalid")
	}
	if Valid(d, Point{"missing", 0}) {
		t.Error("missing key should be invalid")
	}
}

func TestResolveFallsBackToPreviousSibling(t *testing.T) {
	before := newDoc(t)
	after := before.Clone()
	rule := after.Blocks()[1]
	if _, err := after.Remove(rule.Key); err != nil {
		t.Fatal(err)
	}
	got := Resolve(after, before, Point{rule.Key, 1})
	want := Point{after.Blocks()[0].Children[1].Key, 5}
	if got != want {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolveFallsBackToNextSibling(t *testing.T) {
	before := newDoc(t)
	after := before.Clone()
	first := after.Blocks()[0]
	if _, err := after.Remove(first.Key); err != nil {
		t.Fatal(err)
	}
	got := Resolve(after, before, Point{before.Blocks()[0].Children[0].Key, 3})
	want := Point{after.Blocks()[0].Key, 0}
	if got != want {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolveClampsOffset(t *testing.T) {
	d := newDoc(t)
	second := d.Blocks()[2].Children[0]
	if got := Resolve(d, nil, Point{second.Key, 99}); got.Offset != 6 {
		t.Errorf("Resolve() offset = %d, want 6", got.Offset)
	}
}

func TestRemapThroughNormalize(t *testing.T) {
	d, err := node.FromRoot(node.NewRoot(
		node.NewParagraph(node.NewText("ab", 0), node.NewText("", 0), node.NewText("cd", 0)),
	))
	if err != nil {
		t.Fatal(err)
	}
	cd := d.Blocks()[0].Children[2]
	s := Caret(Point{cd.Key, 1})
	d.Normalize(Tracker(&s))

	texts := d.Texts()
	if len(texts) != 1 || texts[0].Text != "abcd" {
		t.Fatalf("texts = %v", texts)
	}
	want := Point{texts[0].Key, 3}
	if s.Focus != want || s.Anchor != want {
		t.Errorf("selection = %v, want caret at %v", s, want)
	}
}

func TestCanonical(t *testing.T) {
	d := newDoc(t)
	p1 := d.Blocks()[0]
	got := Canonical(d, Point{p1.Key, 1})
	if got != (Point{p1.Children[1].Key, 0}) {
		t.Errorf("Canonical(mid) = %v", got)
	}
	got = Canonical(d, Point{p1.Key, 2})
	if got != (Point{p1.Children[1].Key, 5}) {
		t.Errorf("Canonical(end) = %v", got)
	}
}
