package api

import (
	"net/http"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/dshills/folio/internal/codec"
	"github.com/dshills/folio/internal/engine/command"
	"github.com/dshills/folio/internal/engine/selection"
)

// handleCreateSession starts a session from {"html": "..."} or
// {"markdown": "..."}. An empty body starts an empty document.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	body, err := s.readJSON(w, r)
	if err != nil {
		s.fail(w, r, &Error{Op: "create session", Err: err})
		return
	}

	e := s.newEngine()
	var warns []codec.Warning
	if md := body.Get("markdown"); md.Exists() {
		warns, err = e.InitializeMarkdown([]byte(md.String()))
	} else {
		warns, err = e.Initialize(body.Get("html").String())
	}
	if err != nil {
		s.fail(w, r, &Error{Op: "create session", Err: err})
		return
	}

	sess := s.sessions.Create(e, s.toolbarOptions()...)
	s.logger.Debug("session created", zap.String("session", sess.ID), zap.Int("warnings", len(warns)))

	view := viewOf(sess)
	view.Warnings = warningStrings(warns)
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewOf(sessionFrom(r)))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.Delete(sessionFrom(r).ID)
	w.WriteHeader(http.StatusNoContent)
}

// handleSessionHTML returns the canonical HTML, or the compacted
// publishing form with ?format=published.
func (s *Server) handleSessionHTML(w http.ResponseWriter, r *http.Request) {
	e := sessionFrom(r).Engine
	out := e.HTML()
	if r.URL.Query().Get("format") == "published" {
		var err error
		if out, err = e.Publish(); err != nil {
			s.fail(w, r, &Error{Op: "publish", Err: err})
			return
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(out))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	e := sessionFrom(r).Engine
	writeJSON(w, http.StatusOK, map[string]any{
		"undo": toHistoryJSON(e.UndoInfo()),
		"redo": toHistoryJSON(e.RedoInfo()),
	})
}

// handleSelect sets the selection from {"anchor": {"key", "offset"},
// "focus": {...}} or selects everything with {"all": true}. A missing
// focus collapses the selection at the anchor.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	body, err := s.readJSON(w, r)
	if err != nil {
		s.fail(w, r, &Error{Op: "select", Err: err})
		return
	}

	if body.Get("all").Bool() {
		sess.Engine.SelectAll()
		writeJSON(w, http.StatusOK, viewOf(sess))
		return
	}

	anchor, err := parsePoint(body.Get("anchor"))
	if err != nil {
		s.fail(w, r, &Error{Op: "select", Err: err})
		return
	}
	focus := anchor
	if f := body.Get("focus"); f.Exists() {
		if focus, err = parsePoint(f); err != nil {
			s.fail(w, r, &Error{Op: "select", Err: err})
			return
		}
	}
	if err := sess.Toolbar.Select(selection.Range(anchor, focus)); err != nil {
		s.fail(w, r, &Error{Op: "select", Err: err})
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// handleCommands dispatches one command object, an array of them, or
// {"commands": [...]}. Several commands run as one batch: they share an
// undo step and none is applied unless all succeed.
func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	body, err := s.readJSON(w, r)
	if err != nil {
		s.fail(w, r, &Error{Op: "dispatch", Err: err})
		return
	}

	cmds, err := parseCommands(body)
	if err != nil {
		s.fail(w, r, &Error{Op: "dispatch", Err: err})
		return
	}

	results := make([]resultJSON, 0, len(cmds))
	run := func() error {
		for _, cmd := range cmds {
			res, err := sess.Toolbar.Dispatch(cmd)
			if err != nil {
				return &Error{Op: "dispatch " + string(cmd.Kind()), Err: err}
			}
			results = append(results, toResultJSON(res))
		}
		return nil
	}
	if len(cmds) == 1 {
		err = run()
	} else {
		err = sess.Engine.Batch(body.Get("name").String(), run)
	}
	if err != nil {
		if _, ok := err.(*Error); !ok {
			err = &Error{Op: "dispatch", Err: err}
		}
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Results: results, sessionView: viewOf(sess)})
}

func parseCommands(body gjson.Result) ([]command.Command, error) {
	var items []gjson.Result
	switch {
	case body.IsArray():
		items = body.Array()
	case body.Get("commands").IsArray():
		items = body.Get("commands").Array()
	case body.IsObject():
		items = []gjson.Result{body}
	}
	if len(items) == 0 {
		return nil, badRequest("no commands")
	}

	cmds := make([]command.Command, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			return nil, badRequest("command must be an object")
		}
		kind, err := command.ParseKind(item.Get("kind").String())
		if err != nil {
			return nil, err
		}
		cmd, err := command.Parse(kind, jsonArgs{obj: item})
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.history(w, r, command.Undo{})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.history(w, r, command.Redo{})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request, cmd command.Command) {
	sess := sessionFrom(r)
	res, err := sess.Toolbar.Dispatch(cmd)
	if err != nil {
		s.fail(w, r, &Error{Op: string(cmd.Kind()), Err: err})
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{
		Results:     []resultJSON{toResultJSON(res)},
		sessionView: viewOf(sess),
	})
}
