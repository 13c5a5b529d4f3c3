package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/dshills/folio/internal/script"
)

// Lifecycle defaults.
const (
	ShutdownTimeout = 10 * time.Second
	RenderDebounce  = 100 * time.Millisecond
)

// Serve runs the HTTP API on the configured address until ctx is done.
func (app *Application) Serve(ctx context.Context) error {
	addr := app.Config().Server.Addr
	if app.opts.Addr != "" {
		addr = app.opts.Addr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return NewComponentError("server", "listen", err)
	}
	return app.ServeListener(ctx, ln)
}

// ServeListener runs the HTTP API on ln until ctx is done, then drains
// in-flight requests. The configuration file is watched while serving.
func (app *Application) ServeListener(ctx context.Context, ln net.Listener) error {
	if !app.running.CompareAndSwap(false, true) {
		_ = ln.Close()
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if app.watcher != nil {
		go func() {
			if err := app.watcher.Run(ctx); err != nil {
				app.Logger().Warn("config watch stopped", zap.Error(err))
			}
		}()
	}

	handler := app.NewServer()
	defer handler.Close()

	cfg := app.Config().Server
	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout.Duration,
		WriteTimeout: cfg.WriteTimeout.Duration,
		ErrorLog:     zap.NewStdLog(app.Logger()),
	}

	errCh := make(chan error, 1)
	go func() {
		app.Logger().Info("serving", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return NewComponentError("server", "serve", err)
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrShutdownTimeout
		}
		return NewComponentError("server", "shutdown", err)
	}
	app.Logger().Info("server stopped")
	return nil
}

// RunScript compiles the Lua file at path and runs it against doc.
func (app *Application) RunScript(ctx context.Context, path string, doc *Document) (script.Result, error) {
	s, err := script.CompileFile(path)
	if err != nil {
		return script.Result{}, NewOperationError("run", path, err)
	}
	res, err := app.scripts.Run(ctx, doc.Engine, s)
	app.metrics.RecordScript(res.Commands, err)
	if err != nil {
		return res, NewOperationError("run", path, err)
	}
	app.Logger().Debug("script finished",
		zap.String("script", path),
		zap.String("document", doc.Path),
		zap.Int("commands", res.Commands),
		zap.Int("changed", res.Changed),
	)
	return res, nil
}

// WatchRender renders src to dst now and again whenever src changes, until
// ctx is done. Every render result is passed to onRender, which may be nil.
// A failed render leaves the previous output in place.
func (app *Application) WatchRender(ctx context.Context, src, dst string, published bool, onRender func(error)) error {
	abs, err := filepath.Abs(src)
	if err != nil {
		return NewOperationError("watch", src, err)
	}

	render := func() {
		out, _, err := app.Render(abs, published)
		if err == nil {
			err = writeFileAtomic(dst, []byte(out))
		}
		if err != nil {
			app.Logger().Warn("render failed", zap.String("path", src), zap.Error(err))
		} else {
			app.Logger().Info("rendered", zap.String("path", src), zap.String("output", dst))
		}
		if onRender != nil {
			onRender(err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return NewOperationError("watch", src, err)
	}
	defer fsw.Close()
	// Watch the directory so editors that replace the file are followed.
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return NewOperationError("watch", src, err)
	}

	render()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(RenderDebounce)
			} else {
				timer.Reset(RenderDebounce)
			}
			fire = timer.C
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			app.Logger().Warn("watch error", zap.String("path", src), zap.Error(err))
		case <-fire:
			fire = nil
			render()
		}
	}
}
