package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/engine/command"
	"github.com/dshills/folio/internal/engine/toolbar"
	"github.com/dshills/folio/internal/media"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	s := NewServer(opts...)
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func createSession(t *testing.T, s *Server, body string) *Session {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/sessions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sess, ok := s.Sessions().Get(decode(t, rec)["id"].(string))
	require.True(t, ok)
	return sess
}

func multipartBody(t *testing.T, name string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	createSession(t, s, "")

	rec := do(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["sessions"])
}

func TestRender(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/render", `{"html": "<p>Hi <b>there</b></p>"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "<p>Hi <strong>there</strong></p>", body["html"])
	assert.NotEmpty(t, body["published"])

	rec = do(t, s, http.MethodPost, "/api/render", `{"markdown": "# Title"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, decode(t, rec)["html"], "<h1>Title</h1>")
}

func TestRenderRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"missing source", `{}`, http.StatusBadRequest},
		{"invalid json", `{"html": `, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/render", tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, "render", decode(t, rec)["op"])
		})
	}
}

func TestBodyLimit(t *testing.T) {
	s := newTestServer(t, WithMaxBodyBytes(16))
	rec := do(t, s, http.MethodPost, "/api/render", `{"html": "<p>far too long for the limit</p>"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/sessions", `{"html": "<p>hello</p>"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	view := decode(t, rec)
	id := view["id"].(string)
	assert.Equal(t, "<p>hello</p>", view["html"])
	assert.Equal(t, 1, s.Sessions().Len())

	rec = do(t, s, http.MethodGet, "/api/sessions/"+id+"/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decode(t, rec)["id"])

	rec = do(t, s, http.MethodDelete, "/api/sessions/"+id+"/", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/sessions/"+id+"/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, s.Sessions().Len())
}

func TestCreateSessionReportsWarnings(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/sessions", `{"html": "<p>a</p><div>b</div>"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["warnings"])
}

func TestCreateSessionFromMarkdown(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, `{"markdown": "## Notes"}`)
	assert.Contains(t, sess.Engine.HTML(), "<h2>Notes</h2>")
}

func TestCommands(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, `{"html": "<p>hello</p>"}`)
	base := "/api/sessions/" + sess.ID

	rec := do(t, s, http.MethodPut, base+"/selection", `{"all": true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, base+"/commands", `{"kind": "format_text", "format": "bold"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "<p><strong>hello</strong></p>", body["html"])
	assert.Equal(t, true, body["toolbar"].(map[string]any)["bold"])
	results := body["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, true, results[0].(map[string]any)["changed"])

	rec = do(t, s, http.MethodPost, base+"/undo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p>hello</p>", decode(t, rec)["html"])

	rec = do(t, s, http.MethodPost, base+"/redo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p><strong>hello</strong></p>", decode(t, rec)["html"])
}

func TestCommandBatch(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, `{"html": "<p>hello</p>"}`)
	base := "/api/sessions/" + sess.ID
	sess.Engine.SelectAll()

	rec := do(t, s, http.MethodPost, base+"/commands", `{"name": "heading", "commands": [
		{"kind": "SET_BLOCK_TYPE", "type": "h1"},
		{"kind": "SET_ALIGNMENT", "align": "center"}
	]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode(t, rec)["results"], 2)
	assert.Equal(t, `<h1 style="text-align: center">hello</h1>`, sess.Engine.HTML())
	assert.Len(t, sess.Engine.UndoInfo(), 1, "a batch is one undo step")

	rec = do(t, s, http.MethodGet, base+"/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	hist := decode(t, rec)
	assert.Len(t, hist["undo"], 1)
	assert.Empty(t, hist["redo"])
}

func TestCommandBatchRollsBack(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, `{"html": "<p>hello</p>"}`)
	sess.Engine.SelectAll()

	rec := do(t, s, http.MethodPost, "/api/sessions/"+sess.ID+"/commands", `[
		{"kind": "FORMAT_TEXT", "format": "italic"},
		{"kind": "INSERT_NODE", "node": "video", "url": "https://example.com/not-a-video"}
	]`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Equal(t, "dispatch INSERT_NODE", decode(t, rec)["op"])
	assert.Equal(t, "<p>hello</p>", sess.Engine.HTML())
	assert.False(t, sess.Engine.CanUndo())
}

func TestCommandErrors(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, `{"html": "<p>hello</p>"}`)
	path := "/api/sessions/" + sess.ID + "/commands"

	tests := []struct {
		name string
		body string
		code int
	}{
		{"empty", `[]`, http.StatusBadRequest},
		{"not an object", `[1]`, http.StatusBadRequest},
		{"unknown kind", `{"kind": "SHOUT"}`, http.StatusUnprocessableEntity},
		{"bad format", `{"kind": "FORMAT_TEXT", "format": "blink"}`, http.StatusUnprocessableEntity},
		{"bad dimension", `{"kind": "INSERT_NODE", "node": "image", "src": "https://a.example/x.png", "width": "wide"}`, http.StatusUnprocessableEntity},
		{"nothing to undo", `{"kind": "UNDO"}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, path, tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
	assert.Equal(t, "<p>hello</p>", sess.Engine.HTML())
}

func TestSelection(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, `{"html": "<p>ab<strong>cd</strong></p>"}`)
	path := "/api/sessions/" + sess.ID + "/selection"
	texts := sess.Engine.Snapshot().Texts()
	require.Len(t, texts, 2)

	body := `{"anchor": {"key": "` + string(texts[1].Key) + `", "offset": 0},
		"focus": {"key": "` + string(texts[1].Key) + `", "offset": 2}}`
	rec := do(t, s, http.MethodPut, path, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode(t, rec)
	assert.Equal(t, true, view["toolbar"].(map[string]any)["bold"])
	assert.Equal(t, false, view["selection"].(map[string]any)["collapsed"])

	rec = do(t, s, http.MethodPut, path, `{"anchor": {"key": "`+string(texts[0].Key)+`", "offset": 1}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["selection"].(map[string]any)["collapsed"])

	rec = do(t, s, http.MethodPut, path, `{"anchor": {"key": "missing", "offset": 0}}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodPut, path, `{"focus": {}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionHTML(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, `{"html": "<p>a</p><p>b</p>"}`)
	path := "/api/sessions/" + sess.ID + "/html"

	rec := do(t, s, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p>a</p><p>b</p>", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	rec = do(t, s, http.MethodGet, path+"?format=published", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<p>a")
}

func TestInsertImage(t *testing.T) {
	var got media.Blob
	up := media.UploaderFunc(func(_ context.Context, b media.Blob) (string, error) {
		got = b
		return "https://cdn.example/" + b.Name, nil
	})
	s := newTestServer(t, WithUploader(up))
	sess := createSession(t, s, `{"html": "<p>x</p>"}`)

	body, ctype := multipartBody(t, "a.png", []byte("png"), map[string]string{"alt": "A"})
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sess.ID+"/images", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "a.png", got.Name)
	assert.Equal(t, []byte("png"), got.Data)
	assert.Contains(t, decode(t, rec)["html"], `<img src="https://cdn.example/a.png" alt="A"/>`)
}

func TestInsertImageWithoutUploader(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, `{"html": "<p>x</p>"}`)

	body, ctype := multipartBody(t, "a.png", []byte("png"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sess.ID+"/images", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, "<p>x</p>", sess.Engine.HTML())
}

func TestUpload(t *testing.T) {
	up := media.UploaderFunc(func(_ context.Context, b media.Blob) (string, error) {
		if len(b.Data) > 4 {
			return "", media.ErrTooLarge
		}
		return "https://cdn.example/" + b.Name, nil
	})
	s := newTestServer(t, WithUploader(up))

	post := func(data string) *httptest.ResponseRecorder {
		body, ctype := multipartBody(t, "b.gif", []byte(data), nil)
		req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
		req.Header.Set("Content-Type", ctype)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		return rec
	}

	rec := post("gif")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "https://cdn.example/b.gif", decode(t, rec)["url"])

	rec = post("too big")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/uploads", "{}")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMediaDir(t *testing.T) {
	dir := t.TempDir()
	up := media.NewDirUploader(dir, "http://localhost/media", 0, nil)
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	url, err := up.Upload(context.Background(), media.Blob{Name: "x.png", Data: png})
	require.NoError(t, err)

	s := newTestServer(t, WithMediaDir(dir, "media"))
	rec := do(t, s, http.MethodGet, strings.TrimPrefix(url, "http://localhost"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, png, rec.Body.Bytes())
}

func TestStoreExpiry(t *testing.T) {
	st := NewStore(0)
	sess := st.Create(engine.New())
	_, ok := st.Get(sess.ID)
	assert.True(t, ok)

	assert.True(t, st.Delete(sess.ID))
	assert.False(t, st.Delete(sess.ID))
	_, ok = st.Get(sess.ID)
	assert.False(t, ok)

	st.Create(engine.New())
	st.Create(engine.New())
	assert.Equal(t, 2, st.Len())
	st.Flush()
	assert.Equal(t, 0, st.Len())
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&Error{Op: "x", Err: ErrSessionNotFound}, http.StatusNotFound},
		{badRequest("nope"), http.StatusBadRequest},
		{media.ErrEmpty, http.StatusBadRequest},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{media.ErrUnsupportedType, http.StatusUnsupportedMediaType},
		{engine.ErrBusy, http.StatusConflict},
		{&command.StaleSelectionError{}, http.StatusConflict},
		{engine.ErrReadOnly, http.StatusForbidden},
		{&media.ValidationError{Field: "url"}, http.StatusUnprocessableEntity},
		{command.ErrHistoryCommand, http.StatusUnprocessableEntity},
		{toolbar.ErrNoUploader, http.StatusNotImplemented},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), "%v", tt.err)
	}
}
