package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/folio/internal/config"
	"github.com/dshills/folio/internal/config/notify"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
		err  bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"", zapcore.InfoLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{" error ", zapcore.ErrorLevel, false},
		{"trace", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.err {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewJSONConsole(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default().Logging
	cfg.Format = "json"

	l, err := New(cfg, WithConsole(&buf))
	require.NoError(t, err)
	Component(l.Logger, "engine").Info("committed", zap.Uint64("revision", 3))
	l.Debug("hidden")
	require.NoError(t, l.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "committed", entry["message"])
	assert.Equal(t, "engine", entry["logger"])
	assert.EqualValues(t, 3, entry["revision"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(config.Default().Logging, WithConsole(&buf))
	require.NoError(t, err)
	l.Warn("slow upload", zap.String("file", "a.png"))

	out := buf.String()
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "slow upload")
	assert.Contains(t, out, `"file": "a.png"`)
}

func TestNewWithFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default().Logging
	cfg.File = filepath.Join(dir, "folio.log")

	var console bytes.Buffer
	l, err := New(cfg, WithConsole(&console))
	require.NoError(t, err)
	l.Info("to both")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(cfg.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"to both"`)
	assert.Contains(t, console.String(), "to both")
}

func TestNewRejectsBadSettings(t *testing.T) {
	cfg := config.Default().Logging
	cfg.Level = "loud"
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = config.Default().Logging
	cfg.Format = "xml"
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestFollow(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(config.Default().Logging, WithConsole(&buf))
	require.NoError(t, err)

	n := notify.New()
	defer n.Close()
	sub := l.Follow(n)

	l.Debug("before")
	debug := config.Default().Logging
	debug.Level = "debug"
	n.NotifySet("logging", config.Default().Logging, debug, "test")
	assert.Equal(t, zapcore.DebugLevel, l.Level.Level())
	l.Debug("after")

	bad := debug
	bad.Level = "loud"
	n.NotifySet("logging", debug, bad, "test")
	assert.Equal(t, zapcore.DebugLevel, l.Level.Level())

	sub.Unsubscribe()
	n.NotifySet("logging", debug, config.Default().Logging, "test")
	assert.Equal(t, zapcore.DebugLevel, l.Level.Level())

	out := buf.String()
	assert.NotContains(t, out, "before")
	assert.Contains(t, out, "after")
	assert.Contains(t, out, "ignoring log level")
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("nothing")
	assert.NoError(t, l.Close())
	assert.NotNil(t, Component(nil, "x"))
}
