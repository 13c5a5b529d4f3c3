package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/folio/internal/engine/command"
	"github.com/dshills/folio/internal/engine/node"
	"github.com/dshills/folio/internal/script"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want Format
		err  bool
	}{
		{"a.html", FormatHTML, false},
		{"a.HTM", FormatHTML, false},
		{"notes.md", FormatMarkdown, false},
		{"notes.markdown", FormatMarkdown, false},
		{"a.txt", "", true},
	}
	for _, tt := range tests {
		got, err := FormatOf(tt.path)
		if tt.err {
			if !errors.Is(err, ErrUnsupportedDocument) {
				t.Errorf("FormatOf(%q) err = %v, want ErrUnsupportedDocument", tt.path, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("FormatOf(%q) = %q, %v; want %q", tt.path, got, err, tt.want)
		}
	}
}

func TestOpenDocument(t *testing.T) {
	app := newTestApp(t, Options{})
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	writeFile(t, path, "<p>Hi <b>there</b></p><div>x</div>")

	doc, err := app.OpenDocument(path)
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	if doc.Name != "page.html" || doc.Format != FormatHTML {
		t.Errorf("doc = %q %q", doc.Name, doc.Format)
	}
	if got := doc.Engine.HTML(); got != "<p>Hi <strong>there</strong></p><p>x</p>" {
		t.Errorf("HTML = %q", got)
	}
	if len(doc.Warnings) == 0 {
		t.Error("expected a warning for the div")
	}
	if doc.IsModified() {
		t.Error("new document should not be modified")
	}
}

func TestOpenDocument_Markdown(t *testing.T) {
	app := newTestApp(t, Options{})
	path := filepath.Join(t.TempDir(), "notes.md")
	writeFile(t, path, "# Title\n\nSome *words*.\n")

	doc, err := app.OpenDocument(path)
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	html := doc.Engine.HTML()
	if !strings.Contains(html, "<h1>Title</h1>") || !strings.Contains(html, "<em>words</em>") {
		t.Errorf("HTML = %q", html)
	}

	err = doc.Save()
	if !errors.Is(err, ErrReadOnly) {
		t.Errorf("Save() = %v, want ErrReadOnly", err)
	}
}

func TestOpenDocument_Missing(t *testing.T) {
	app := newTestApp(t, Options{})
	path := filepath.Join(t.TempDir(), "new.html")

	doc, err := app.OpenDocument(path)
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	if got := doc.Engine.HTML(); got != "<p></p>" {
		t.Errorf("HTML = %q, want an empty paragraph", got)
	}

	if _, err := app.OpenDocument(filepath.Join(t.TempDir(), "x.rtf")); !errors.Is(err, ErrUnsupportedDocument) {
		t.Errorf("err = %v, want ErrUnsupportedDocument", err)
	}
}

func TestDocumentSave(t *testing.T) {
	app := newTestApp(t, Options{})
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	writeFile(t, path, "<p>hello</p>")

	doc, err := app.OpenDocument(path)
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	doc.Engine.SelectAll()
	if _, err := doc.Engine.Dispatch(command.FormatText{Format: node.Bold}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !doc.IsModified() {
		t.Fatal("document should be modified")
	}

	if err := doc.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "<p><strong>hello</strong></p>" {
		t.Errorf("saved = %q", data)
	}
	if doc.IsModified() {
		t.Error("document should be clean after save")
	}

	out := filepath.Join(dir, "out", "page.min.html")
	if err := doc.SaveAs(out, true); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	if _, err := os.Stat(out + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestRender(t *testing.T) {
	app := newTestApp(t, Options{})
	path := filepath.Join(t.TempDir(), "a.md")
	writeFile(t, path, "Plain **bold**")

	out, _, err := app.Render(path, false)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "<p>Plain <strong>bold</strong></p>" {
		t.Errorf("Render = %q", out)
	}
	if got := app.Metrics().Snapshot().RenderCount; got != 1 {
		t.Errorf("RenderCount = %d, want 1", got)
	}
}

func TestRunScript(t *testing.T) {
	app := newTestApp(t, Options{})
	dir := t.TempDir()
	page := filepath.Join(dir, "page.html")
	writeFile(t, page, "<p>Hello world</p>")
	lua := filepath.Join(dir, "bold.lua")
	writeFile(t, lua, `folio.find("world")
folio.format("bold")
`)

	doc, err := app.OpenDocument(page)
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	res, err := app.RunScript(context.Background(), lua, doc)
	if err != nil {
		t.Fatalf("RunScript: %v", err)
	}
	if res.Commands != 1 {
		t.Errorf("Commands = %d, want 1", res.Commands)
	}
	if got := doc.Engine.HTML(); got != "<p>Hello <strong>world</strong></p>" {
		t.Errorf("HTML = %q", got)
	}

	bad := filepath.Join(dir, "bad.lua")
	writeFile(t, bad, "folio.format(")
	if _, err := app.RunScript(context.Background(), bad, doc); !errors.Is(err, script.ErrCompile) {
		t.Errorf("err = %v, want ErrCompile", err)
	}

	snap := app.Metrics().Snapshot()
	if snap.ScriptRuns != 1 || snap.ScriptCommands != 1 {
		t.Errorf("metrics = %+v", snap)
	}
}

func TestWatchRender(t *testing.T) {
	app := newTestApp(t, Options{})
	dir := t.TempDir()
	src := filepath.Join(dir, "doc.md")
	dst := filepath.Join(dir, "doc.html")
	writeFile(t, src, "first")

	renders := make(chan error, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- app.WatchRender(ctx, src, dst, false, func(err error) {
			select {
			case renders <- err:
			default:
			}
		})
	}()

	wait := func(want string) {
		t.Helper()
		deadline := time.After(5 * time.Second)
		for {
			select {
			case err := <-renders:
				if err != nil {
					t.Fatalf("render: %v", err)
				}
				data, _ := os.ReadFile(dst)
				if string(data) == want {
					return
				}
			case <-deadline:
				data, _ := os.ReadFile(dst)
				t.Fatalf("output = %q, want %q", data, want)
			}
		}
	}

	wait("<p>first</p>")
	writeFile(t, src, "second")
	wait("<p>second</p>")

	cancel()
	if err := <-done; err != nil {
		t.Errorf("WatchRender = %v", err)
	}
}
