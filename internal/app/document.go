package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/folio/internal/codec"
	"github.com/dshills/folio/internal/engine"
)

// Format is the source format of a document file.
type Format string

// Document formats.
const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return FormatHTML, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedDocument, path)
}

// Document is a file loaded into an engine.
type Document struct {
	// Path is the file the document was read from.
	Path string

	// Name is the display name.
	Name string

	Format   Format
	Engine   *engine.Engine
	Warnings []codec.Warning

	// savedRevision is the engine revision last written to disk.
	savedRevision uint64
}

// OpenDocument reads path into a new engine. A missing file opens as an
// empty document that Save will create.
func (app *Application) OpenDocument(path string) (*Document, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, NewOperationError("open", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, NewOperationError("open", path, err)
	}

	e := app.NewEngine()
	var warns []codec.Warning
	if format == FormatMarkdown {
		warns, err = e.InitializeMarkdown(data)
	} else {
		warns, err = e.Initialize(string(data))
	}
	if err != nil {
		return nil, NewOperationError("open", path, err)
	}

	for _, w := range warns {
		app.Logger().Debug("import degraded", zap.String("path", path), zap.Stringer("warning", w))
	}
	return &Document{
		Path:          path,
		Name:          filepath.Base(path),
		Format:        format,
		Engine:        e,
		Warnings:      warns,
		savedRevision: e.Revision(),
	}, nil
}

// IsModified reports whether the engine changed since the last save.
func (d *Document) IsModified() bool {
	return d.Engine.Revision() != d.savedRevision
}

// HTML returns the canonical export, or the compacted publishing form.
func (d *Document) HTML(published bool) (string, error) {
	if published {
		return d.Engine.Publish()
	}
	return d.Engine.HTML(), nil
}

// SaveAs writes the HTML export to path. The write goes through a
// temporary file so readers never see a partial document.
func (d *Document) SaveAs(path string, published bool) error {
	out, err := d.HTML(published)
	if err != nil {
		return NewOperationError("save", path, err)
	}
	if err := writeFileAtomic(path, []byte(out)); err != nil {
		return NewOperationError("save", path, err)
	}
	d.savedRevision = d.Engine.Revision()
	return nil
}

// Save writes the document back to its own path. Markdown sources cannot
// be written back.
func (d *Document) Save() error {
	if d.Format != FormatHTML {
		return NewOperationError("save", d.Path, ErrReadOnly).WithContext("markdown source")
	}
	return d.SaveAs(d.Path, false)
}

// Render converts the document at path to HTML.
func (app *Application) Render(path string, published bool) (string, []codec.Warning, error) {
	timer := StartTimer()
	doc, err := app.OpenDocument(path)
	if err != nil {
		return "", nil, err
	}
	out, err := doc.HTML(published)
	if err != nil {
		return "", nil, NewOperationError("render", path, err)
	}
	app.metrics.RecordRender(timer.Elapsed())
	return out, doc.Warnings, nil
}

func writeFileAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
