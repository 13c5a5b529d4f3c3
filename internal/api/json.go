package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/dshills/folio/internal/codec"
	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/engine/history"
	"github.com/dshills/folio/internal/engine/node"
	"github.com/dshills/folio/internal/engine/selection"
	"github.com/dshills/folio/internal/engine/toolbar"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Op    string `json:"op,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error()}
	if e, ok := err.(*Error); ok {
		body.Op = e.Op
		body.Error = e.Err.Error()
	}
	writeJSON(w, statusOf(err), body)
}

// fail writes err and logs server-side failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if status := statusOf(err); status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeError(w, err)
}

// readJSON reads a bounded JSON body. An empty body reads as {}.
func (s *Server) readJSON(w http.ResponseWriter, r *http.Request) (gjson.Result, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		return gjson.Result{}, err
	}
	if len(data) == 0 {
		return gjson.Parse("{}"), nil
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, badRequest("body is not valid JSON")
	}
	return gjson.ParseBytes(data), nil
}

// jsonArgs reads command arguments from a JSON object.
type jsonArgs struct {
	obj gjson.Result
}

func (a jsonArgs) String(name string) string {
	return a.obj.Get(gjson.Escape(name)).String()
}

type pointJSON struct {
	Key    node.Key `json:"key"`
	Offset int      `json:"offset"`
}

type selectionJSON struct {
	Anchor    pointJSON `json:"anchor"`
	Focus     pointJSON `json:"focus"`
	Collapsed bool      `json:"collapsed"`
}

func toSelectionJSON(sel selection.Selection) selectionJSON {
	return selectionJSON{
		Anchor:    pointJSON{Key: sel.Anchor.Key, Offset: sel.Anchor.Offset},
		Focus:     pointJSON{Key: sel.Focus.Key, Offset: sel.Focus.Offset},
		Collapsed: sel.IsCollapsed(),
	}
}

func parsePoint(v gjson.Result) (selection.Point, error) {
	if !v.IsObject() || !v.Get("key").Exists() {
		return selection.Point{}, badRequest("point needs a key")
	}
	return selection.Point{
		Key:    node.Key(v.Get("key").String()),
		Offset: int(v.Get("offset").Int()),
	}, nil
}

type toolbarJSON struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Underline     bool   `json:"underline"`
	Strikethrough bool   `json:"strikethrough"`
	Link          bool   `json:"link"`
	LinkURL       string `json:"link_url,omitempty"`
	BlockType     string `json:"block_type,omitempty"`
	Align         string `json:"align,omitempty"`
	Indent        int    `json:"indent"`
	FontFamily    string `json:"font_family,omitempty"`
	FontSize      string `json:"font_size,omitempty"`
	Color         string `json:"color,omitempty"`
	CanIndent     bool   `json:"can_indent"`
	CanOutdent    bool   `json:"can_outdent"`
	CanUndo       bool   `json:"can_undo"`
	CanRedo       bool   `json:"can_redo"`
	UndoLabel     string `json:"undo_label,omitempty"`
	RedoLabel     string `json:"redo_label,omitempty"`
}

func toToolbarJSON(st toolbar.State) toolbarJSON {
	return toolbarJSON{
		Bold:          st.Bold,
		Italic:        st.Italic,
		Underline:     st.Underline,
		Strikethrough: st.Strikethrough,
		Link:          st.Link,
		LinkURL:       st.LinkURL,
		BlockType:     string(st.BlockType),
		Align:         string(st.Align),
		Indent:        st.Indent,
		FontFamily:    st.FontFamily,
		FontSize:      st.FontSize,
		Color:         st.Color,
		CanIndent:     st.CanIndent,
		CanOutdent:    st.CanOutdent,
		CanUndo:       st.CanUndo,
		CanRedo:       st.CanRedo,
		UndoLabel:     st.UndoLabel,
		RedoLabel:     st.RedoLabel,
	}
}

type sessionView struct {
	ID        string        `json:"id"`
	Revision  uint64        `json:"revision"`
	HTML      string        `json:"html"`
	Selection selectionJSON `json:"selection"`
	Toolbar   toolbarJSON   `json:"toolbar"`
	Warnings  []string      `json:"warnings,omitempty"`
}

func viewOf(s *Session) sessionView {
	return sessionView{
		ID:        s.ID,
		Revision:  s.Engine.Revision(),
		HTML:      s.Engine.HTML(),
		Selection: toSelectionJSON(s.Engine.Selection()),
		Toolbar:   toToolbarJSON(s.Toolbar.State()),
	}
}

type resultJSON struct {
	TransactionID string `json:"transaction_id,omitempty"`
	Kind          string `json:"kind"`
	Revision      uint64 `json:"revision"`
	Changed       bool   `json:"changed"`
}

func toResultJSON(res engine.Result) resultJSON {
	return resultJSON{
		TransactionID: res.TransactionID,
		Kind:          string(res.Kind),
		Revision:      res.Revision,
		Changed:       res.Changed,
	}
}

type commandResponse struct {
	Results []resultJSON `json:"results"`
	sessionView
}

type historyJSON struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	Merged      int       `json:"merged,omitempty"`
}

func toHistoryJSON(infos []history.Info) []historyJSON {
	out := make([]historyJSON, len(infos))
	for i, in := range infos {
		out[i] = historyJSON{
			ID:          in.ID,
			Kind:        in.Kind,
			Description: in.Description,
			Timestamp:   in.Timestamp,
			Merged:      in.Merged,
		}
	}
	return out
}

func warningStrings(warns []codec.Warning) []string {
	if len(warns) == 0 {
		return nil
	}
	out := make([]string, len(warns))
	for i, w := range warns {
		out[i] = w.String()
	}
	return out
}
