package api

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/dshills/folio/internal/codec"
	"github.com/dshills/folio/internal/engine/node"
	"github.com/dshills/folio/internal/engine/toolbar"
	"github.com/dshills/folio/internal/media"
)

type renderResponse struct {
	HTML      string   `json:"html"`
	Published string   `json:"published"`
	Warnings  []string `json:"warnings,omitempty"`
}

// handleRender normalizes {"html": "..."} or {"markdown": "..."} without
// creating a session.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	body, err := s.readJSON(w, r)
	if err != nil {
		s.fail(w, r, &Error{Op: "render", Err: err})
		return
	}

	var (
		doc   *node.Document
		warns []codec.Warning
	)
	switch {
	case body.Get("markdown").Exists():
		doc, warns, err = s.codec.ImportMarkdown([]byte(body.Get("markdown").String()))
	case body.Get("html").Exists():
		doc, warns, err = s.codec.Import(body.Get("html").String())
	default:
		err = badRequest("html or markdown is required")
	}
	if err != nil {
		s.fail(w, r, &Error{Op: "render", Err: err})
		return
	}

	out, err := s.codec.Export(doc)
	if err != nil {
		s.fail(w, r, &Error{Op: "render", Err: err})
		return
	}
	published, err := s.codec.Compact(out)
	if err != nil {
		s.fail(w, r, &Error{Op: "render", Err: err})
		return
	}
	writeJSON(w, http.StatusOK, renderResponse{
		HTML:      out,
		Published: published,
		Warnings:  warningStrings(warns),
	})
}

// readFile reads the "file" part of a multipart form.
func (s *Server) readFile(w http.ResponseWriter, r *http.Request) (media.Blob, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	f, hdr, err := r.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return media.Blob{}, err
		}
		return media.Blob{}, badRequest("multipart file is required")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return media.Blob{}, err
	}
	return media.Blob{Name: hdr.Filename, Data: data}, nil
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.uploader == nil {
		s.fail(w, r, &Error{Op: "upload", Err: toolbar.ErrNoUploader})
		return
	}
	blob, err := s.readFile(w, r)
	if err != nil {
		s.fail(w, r, &Error{Op: "upload", Err: err})
		return
	}
	url, err := s.uploader.Upload(r.Context(), blob)
	if err != nil {
		s.fail(w, r, &Error{Op: "upload", Err: err})
		return
	}
	s.logger.Info("uploaded", zap.String("name", blob.Name), zap.Int("bytes", len(blob.Data)))
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

// handleInsertImage uploads the "file" part and inserts it at the
// selection, with the optional "alt" field as alternative text.
func (s *Server) handleInsertImage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	blob, err := s.readFile(w, r)
	if err != nil {
		s.fail(w, r, &Error{Op: "insert image", Err: err})
		return
	}
	res, err := sess.Toolbar.InsertImageFile(r.Context(), blob, r.FormValue("alt"))
	if err != nil {
		s.fail(w, r, &Error{Op: "insert image", Err: err})
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{
		Results:     []resultJSON{toResultJSON(res)},
		sessionView: viewOf(sess),
	})
}
