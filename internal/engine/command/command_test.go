package command

import (
	"errors"
	"testing"

	"github.com/dshills/folio/internal/engine/node"
	"github.com/dshills/folio/internal/engine/selection"
)

func build(t *testing.T, blocks ...*node.Node) *node.Document {
	t.Helper()
	d, err := node.FromRoot(node.NewRoot(blocks...))
	if err != nil {
		t.Fatalf("FromRoot: %v", err)
	}
	return d
}

// textNode returns the first text node with the given content.
func textNode(t *testing.T, d *node.Document, text string) *node.Node {
	t.Helper()
	for _, n := range d.Texts() {
		if n.Text == text {
			return n
		}
	}
	t.Fatalf("no text node %q", text)
	return nil
}

func at(n *node.Node, off int) selection.Point {
	return selection.Point{Key: n.Key, Offset: off}
}

func run(t *testing.T, d *node.Document, sel selection.Selection, cmd Command) *Transaction {
	t.Helper()
	tx, err := Run(d, sel, cmd)
	if err != nil {
		t.Fatalf("Run(%s): %v", cmd.Kind(), err)
	}
	if errs := node.Validate(tx.Doc); len(errs) != 0 {
		t.Fatalf("invalid tree after %s: %v", cmd.Kind(), errs)
	}
	if !selection.ValidSelection(tx.Doc, tx.Selection) {
		t.Fatalf("selection %v does not resolve after %s", tx.Selection, cmd.Kind())
	}
	return tx
}

func blockTypes(d *node.Document) []node.Type {
	var out []node.Type
	for _, b := range d.Blocks() {
		out = append(out, b.Type)
	}
	return out
}

func sameTypes(a, b []node.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRunDoesNotTouchInput(t *testing.T) {
	d := build(t, node.NewParagraph(node.NewText("Hello", 0)))
	orig := d.Clone()
	txt := d.Texts()[0]
	tx := run(t, d, selection.Range(at(txt, 0), at(txt, 5)), FormatText{Format: node.Bold})
	if !tx.Changed() {
		t.Fatal("expected a change")
	}
	if !node.Equal(d, orig) {
		t.Error("committed document mutated by transaction")
	}
	if tx.Before() != d {
		t.Error("Before() should be the input document")
	}
}

func TestStaleSelection(t *testing.T) {
	d := build(t, node.NewParagraph(node.NewText("Hello", 0)))
	txt := d.Texts()[0]

	tests := []struct {
		name string
		sel  selection.Selection
	}{
		{"missing key", selection.Caret(selection.Point{Key: "gone"})},
		{"offset past end", selection.Caret(at(txt, 9))},
		{"range end missing", selection.Range(at(txt, 0), selection.Point{Key: "gone"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := Run(d, tt.sel, InsertText{Text: "x"})
			var stale *StaleSelectionError
			if !errors.As(err, &stale) || tx != nil {
				t.Fatalf("Run() = %v, %v; want StaleSelectionError", tx, err)
			}
			if !errors.Is(err, ErrStaleSelection) {
				t.Error("error should match ErrStaleSelection")
			}
		})
	}
	if d.Texts()[0].Text != "Hello" {
		t.Error("tree changed")
	}
}

type panicky struct{}

func (panicky) Kind() Kind { return "PANIC" }

func (panicky) Description() string { return "panic" }

func (panicky) Apply(tx *Transaction) error { panic("boom") }

func TestRunRecoversPanic(t *testing.T) {
	d := build(t, node.NewParagraph())
	tx, err := Run(d, selection.Caret(selection.Start(d)), panicky{})
	if tx != nil || !errors.Is(err, ErrCommandPanic) {
		t.Fatalf("Run() = %v, %v; want ErrCommandPanic", tx, err)
	}
}

func TestHistoryCommandsAreNotMutations(t *testing.T) {
	d := build(t, node.NewParagraph())
	for _, cmd := range []Command{Undo{}, Redo{}} {
		if _, err := Run(d, selection.Caret(selection.Start(d)), cmd); !errors.Is(err, ErrHistoryCommand) {
			t.Errorf("Run(%s) error = %v", cmd.Kind(), err)
		}
	}
}

func TestCoalescableKinds(t *testing.T) {
	for _, k := range []Kind{KindFormatText, KindInsertText, KindSetTextStyle} {
		if !k.Coalescable() {
			t.Errorf("%s should coalesce", k)
		}
	}
	for _, k := range []Kind{KindSetBlockType, KindInsertNode, KindDeleteBackward, KindToggleLink, KindSetAlignment, KindIndent} {
		if k.Coalescable() {
			t.Errorf("%s should not coalesce", k)
		}
	}
}
