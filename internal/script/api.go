package script

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/engine/command"
	"github.com/dshills/folio/internal/engine/node"
	"github.com/dshills/folio/internal/engine/selection"
	"github.com/dshills/folio/internal/engine/toolbar"
	"github.com/dshills/folio/internal/media"
)

// run is the state of one script execution.
type run struct {
	host   *Host
	engine *engine.Engine
	ctrl   *toolbar.Controller
	ctx    context.Context
	name   string

	result Result

	// err is the last Go error raised into Lua.
	err error
}

// install registers the folio table.
func (r *run) install(L *lua.LState) {
	folio := L.NewTable()
	L.SetFuncs(folio, map[string]lua.LGFunction{
		// document
		"html":     r.luaHTML,
		"publish":  r.luaPublish,
		"revision": r.luaRevision,
		"state":    r.luaState,
		"log":      r.luaLog,

		// selection
		"select_all":   r.luaSelectAll,
		"select_start": r.luaSelectStart,
		"select_end":   r.luaSelectEnd,
		"find":         r.luaFind,

		// commands
		"dispatch":  r.luaDispatch,
		"format":    r.luaFormat,
		"block":     r.luaBlock,
		"align":     r.luaAlign,
		"indent":    r.simple(command.Indent{}),
		"outdent":   r.simple(command.Outdent{}),
		"link":      r.luaLink,
		"type":      r.luaType,
		"paragraph": r.simple(command.InsertParagraph{}),
		"backspace": r.simple(command.DeleteBackward{}),
		"delete":    r.simple(command.DeleteForward{}),
		"style":     r.luaStyle,
		"clear":     r.simple(command.ClearFormatting{}),
		"rule":      r.simple(command.InsertNode{Node: node.NewRule()}),
		"image":     r.luaImage,
		"video":     r.luaVideo,
		"upload":    r.luaUpload,
		"undo":      r.simple(command.Undo{}),
		"redo":      r.simple(command.Redo{}),
		"batch":     r.luaBatch,
	})
	L.SetGlobal("folio", folio)
}

// fail records err and raises it as a Lua error.
func (r *run) fail(L *lua.LState, err error) int {
	r.err = err
	L.RaiseError("%s", err.Error())
	return 0
}

// do runs one engine action against the command budget and pushes whether
// it changed the document.
func (r *run) do(L *lua.LState, action func() (engine.Result, error)) int {
	if r.result.Commands >= r.host.maxCommands {
		return r.fail(L, ErrCommandLimit)
	}
	r.result.Commands++
	res, err := action()
	if err != nil {
		return r.fail(L, err)
	}
	if res.Changed {
		r.result.Changed++
	}
	L.Push(lua.LBool(res.Changed))
	return 1
}

func (r *run) dispatch(L *lua.LState, cmd command.Command) int {
	return r.do(L, func() (engine.Result, error) { return r.ctrl.Dispatch(cmd) })
}

func (r *run) simple(cmd command.Command) lua.LGFunction {
	return func(L *lua.LState) int { return r.dispatch(L, cmd) }
}

func (r *run) luaHTML(L *lua.LState) int {
	L.Push(lua.LString(r.engine.HTML()))
	return 1
}

func (r *run) luaPublish(L *lua.LState) int {
	out, err := r.engine.Publish()
	if err != nil {
		return r.fail(L, err)
	}
	L.Push(lua.LString(out))
	return 1
}

func (r *run) luaRevision(L *lua.LState) int {
	L.Push(lua.LNumber(r.engine.Revision()))
	return 1
}

func (r *run) luaState(L *lua.LState) int {
	st := r.ctrl.State()
	t := L.NewTable()
	t.RawSetString("bold", lua.LBool(st.Bold))
	t.RawSetString("italic", lua.LBool(st.Italic))
	t.RawSetString("underline", lua.LBool(st.Underline))
	t.RawSetString("strikethrough", lua.LBool(st.Strikethrough))
	t.RawSetString("link", lua.LBool(st.Link))
	t.RawSetString("link_url", lua.LString(st.LinkURL))
	t.RawSetString("block", lua.LString(st.BlockType))
	t.RawSetString("align", lua.LString(st.Align))
	t.RawSetString("indent", lua.LNumber(st.Indent))
	t.RawSetString("font_family", lua.LString(st.FontFamily))
	t.RawSetString("font_size", lua.LString(st.FontSize))
	t.RawSetString("color", lua.LString(st.Color))
	t.RawSetString("collapsed", lua.LBool(st.Collapsed))
	t.RawSetString("can_undo", lua.LBool(st.CanUndo))
	t.RawSetString("can_redo", lua.LBool(st.CanRedo))
	t.RawSetString("undo_label", lua.LString(st.UndoLabel))
	t.RawSetString("redo_label", lua.LString(st.RedoLabel))
	L.Push(t)
	return 1
}

func (r *run) luaLog(L *lua.LState) int {
	r.host.logger.Info(L.CheckString(1), zap.String("script", r.name))
	return 0
}

func (r *run) luaSelectAll(L *lua.LState) int {
	r.engine.SelectAll()
	return 0
}

func (r *run) luaSelectStart(L *lua.LState) int {
	doc, _ := r.engine.View()
	return r.selectPoint(L, selection.Start(doc))
}

func (r *run) luaSelectEnd(L *lua.LState) int {
	doc, _ := r.engine.View()
	return r.selectPoint(L, selection.End(doc))
}

func (r *run) selectPoint(L *lua.LState, p selection.Point) int {
	if err := r.ctrl.Select(selection.Caret(p)); err != nil {
		return r.fail(L, err)
	}
	return 0
}

// luaFind selects the first occurrence of a string within one text node,
// searching after the current selection when the second argument is true.
func (r *run) luaFind(L *lua.LState) int {
	needle := L.CheckString(1)
	after := L.OptBool(2, false)
	if needle == "" {
		L.Push(lua.LFalse)
		return 1
	}

	doc, sel := r.engine.View()
	_, end := sel.Ordered(doc)
	for _, t := range doc.Texts() {
		from := 0
		if after {
			switch c := selection.Compare(doc, selection.Point{Key: t.Key, Offset: utf8.RuneCountInString(t.Text)}, end); {
			case c <= 0:
				continue
			case end.Key == t.Key:
				from = runeIndex(t.Text, end.Offset)
			}
		}
		i := strings.Index(t.Text[from:], needle)
		if i < 0 {
			continue
		}
		start := utf8.RuneCountInString(t.Text[:from+i])
		rng := selection.Range(
			selection.Point{Key: t.Key, Offset: start},
			selection.Point{Key: t.Key, Offset: start + utf8.RuneCountInString(needle)},
		)
		if err := r.ctrl.Select(rng); err != nil {
			return r.fail(L, err)
		}
		L.Push(lua.LTrue)
		return 1
	}
	L.Push(lua.LFalse)
	return 1
}

// runeIndex converts a rune offset into a byte offset.
func runeIndex(s string, runes int) int {
	for i := range s {
		if runes == 0 {
			return i
		}
		runes--
	}
	return len(s)
}

// luaDispatch runs any command by kind with a table of string arguments:
// folio.dispatch("SET_BLOCK_TYPE", {type = "h2"}).
func (r *run) luaDispatch(L *lua.LState) int {
	kind, err := command.ParseKind(L.CheckString(1))
	if err != nil {
		return r.fail(L, err)
	}
	args := tableArgs(L.OptTable(2, L.NewTable()))
	cmd, err := command.Parse(kind, args)
	if err != nil {
		return r.fail(L, err)
	}
	return r.dispatch(L, cmd)
}

func (r *run) luaFormat(L *lua.LState) int {
	return r.parsed(L, command.KindFormatText, command.MapArgs{"format": L.CheckString(1)})
}

func (r *run) luaBlock(L *lua.LState) int {
	return r.parsed(L, command.KindSetBlockType, command.MapArgs{"type": L.CheckString(1)})
}

func (r *run) luaAlign(L *lua.LState) int {
	return r.parsed(L, command.KindSetAlignment, command.MapArgs{"align": L.CheckString(1)})
}

func (r *run) luaLink(L *lua.LState) int {
	return r.dispatch(L, command.ToggleLink{URL: L.OptString(1, "")})
}

func (r *run) luaType(L *lua.LState) int {
	return r.dispatch(L, command.InsertText{Text: L.CheckString(1)})
}

func (r *run) luaStyle(L *lua.LState) int {
	return r.dispatch(L, command.SetTextStyle{Property: L.CheckString(1), Value: L.OptString(2, "")})
}

func (r *run) parsed(L *lua.LState, kind command.Kind, args command.MapArgs) int {
	cmd, err := command.Parse(kind, args)
	if err != nil {
		return r.fail(L, err)
	}
	return r.dispatch(L, cmd)
}

func (r *run) luaImage(L *lua.LState) int {
	src, alt := L.CheckString(1), L.OptString(2, "")
	return r.do(L, func() (engine.Result, error) { return r.ctrl.InsertImageURL(src, alt) })
}

func (r *run) luaVideo(L *lua.LState) int {
	raw := L.CheckString(1)
	return r.do(L, func() (engine.Result, error) { return r.ctrl.InsertVideoURL(raw) })
}

// luaUpload uploads an image file and inserts it: folio.upload(path, alt).
func (r *run) luaUpload(L *lua.LState) int {
	path, alt := L.CheckString(1), L.OptString(2, "")
	data, err := os.ReadFile(path)
	if err != nil {
		return r.fail(L, err)
	}
	blob := media.Blob{Name: filepath.Base(path), Data: data}
	return r.do(L, func() (engine.Result, error) { return r.ctrl.InsertImageFile(r.ctx, blob, alt) })
}

// luaBatch runs fn as one undo step. An error inside fn rolls back every
// command it dispatched and is raised again.
func (r *run) luaBatch(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)
	before := r.result.Changed
	err := r.engine.Batch(name, func() error {
		return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
	})
	if err != nil {
		r.result.Changed = before
		if r.err != nil && strings.Contains(err.Error(), r.err.Error()) {
			err = r.err
		}
		return r.fail(L, err)
	}
	return 0
}

// tableArgs converts a Lua table of scalars into command arguments.
func tableArgs(t *lua.LTable) command.MapArgs {
	args := command.MapArgs{}
	t.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			return
		}
		switch v := v.(type) {
		case lua.LString:
			args[string(key)] = string(v)
		case lua.LNumber:
			f := float64(v)
			if f == float64(int64(f)) {
				args[string(key)] = strconv.FormatInt(int64(f), 10)
			} else {
				args[string(key)] = strconv.FormatFloat(f, 'f', -1, 64)
			}
		case lua.LBool:
			args[string(key)] = strconv.FormatBool(bool(v))
		}
	})
	return args
}
