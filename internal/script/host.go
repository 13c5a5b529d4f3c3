package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	"go.uber.org/zap"

	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/engine/toolbar"
	"github.com/dshills/folio/internal/media"
)

// Default limits.
const (
	DefaultTimeout     = 5 * time.Second
	DefaultMaxCommands = 10_000
)

// Option configures a Host.
type Option func(*Host)

// WithTimeout bounds the wall-clock time of one run. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(h *Host) {
		if d >= 0 {
			h.timeout = d
		}
	}
}

// WithMaxCommands bounds the number of commands one run may dispatch.
func WithMaxCommands(n int) Option {
	return func(h *Host) {
		if n > 0 {
			h.maxCommands = n
		}
	}
}

// WithLogger sets the logger that folio.log writes to.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithOutput redirects print, which defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(h *Host) {
		if w != nil {
			h.output = w
		}
	}
}

// WithUploader enables folio.upload.
func WithUploader(u media.Uploader) Option {
	return func(h *Host) {
		h.uploader = u
	}
}

// Host runs scripts against engines. A Host holds no per-run state and
// may run scripts concurrently on different engines.
type Host struct {
	timeout     time.Duration
	maxCommands int
	logger      *zap.Logger
	output      io.Writer
	uploader    media.Uploader
}

// New creates a Host.
func New(opts ...Option) *Host {
	h := &Host{
		timeout:     DefaultTimeout,
		maxCommands: DefaultMaxCommands,
		logger:      zap.NewNop(),
		output:      os.Stdout,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.Named("script")
	return h
}

// Script is a compiled script.
type Script struct {
	Name  string
	proto *lua.FunctionProto
}

// Compile parses and compiles src.
func Compile(name string, src io.Reader) (*Script, error) {
	chunk, err := parse.Parse(src, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCompile, name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCompile, name, err)
	}
	return &Script{Name: name, proto: proto}, nil
}

// CompileFile compiles the script at path.
func CompileFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Compile(path, f)
}

// Result summarizes a run.
type Result struct {
	// Commands is the number of commands dispatched.
	Commands int
	// Changed is the number of those commands that changed the document.
	Changed int
	// Revision is the engine revision when the script ended.
	Revision uint64
}

// RunString compiles and runs src.
func (h *Host) RunString(ctx context.Context, e *engine.Engine, name, src string) (Result, error) {
	s, err := Compile(name, strings.NewReader(src))
	if err != nil {
		return Result{}, err
	}
	return h.Run(ctx, e, s)
}

// Run executes s against e. Commands dispatched before a failure stay
// applied unless they ran inside folio.batch.
func (h *Host) Run(ctx context.Context, e *engine.Engine, s *Script) (Result, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	L := newSandbox(h.output)
	defer L.Close()
	L.SetContext(ctx)

	ctrl := toolbar.NewController(e, toolbar.WithLogger(h.logger), toolbar.WithUploader(h.uploader))
	defer ctrl.Close()

	r := &run{host: h, engine: e, ctrl: ctrl, ctx: ctx, name: s.Name}
	r.install(L)

	started := time.Now()
	L.Push(L.NewFunctionFromProto(s.proto))
	err := L.PCall(0, lua.MultRet, nil)
	r.result.Revision = e.Revision()
	if err != nil {
		err = r.cause(err)
		h.logger.Warn("script failed", zap.String("script", s.Name), zap.Int("commands", r.result.Commands), zap.Error(err))
		return r.result, &Error{Script: s.Name, Err: err}
	}

	h.logger.Debug("script finished",
		zap.String("script", s.Name),
		zap.Int("commands", r.result.Commands),
		zap.Int("changed", r.result.Changed),
		zap.Duration("elapsed", time.Since(started)),
	)
	return r.result, nil
}

// cause maps a Lua error to the error that raised it.
func (r *run) cause(err error) error {
	if ctxErr := r.ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctxErr
	}
	if r.err != nil && strings.Contains(err.Error(), r.err.Error()) {
		return r.err
	}
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return errors.New(apiErr.Object.String())
	}
	return err
}

// newSandbox creates a state with only the base, table, string and math
// libraries and without the functions that load code from disk or strings.
func newSandbox(out io.Writer) *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:        true,
		CallStackSize:       128,
		MinimizeStackMemory: true,
	})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}

	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, n)
		for i := 1; i <= n; i++ {
			parts[i-1] = L.ToStringMeta(L.Get(i)).String()
		}
		fmt.Fprintln(out, strings.Join(parts, "\t"))
		return 0
	}))
	return L
}
