package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 300*time.Millisecond, cfg.Editor.CoalesceWindow.Duration)
	assert.Equal(t, 1000, cfg.Editor.MaxUndoEntries)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want Format
		err  bool
	}{
		{"folio.toml", FormatTOML, false},
		{"folio.TOML", FormatTOML, false},
		{"folio.yaml", FormatYAML, false},
		{"folio.yml", FormatYAML, false},
		{"folio.json", "", true},
		{"folio", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatOf(tt.path)
			if tt.err {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "folio.toml", `
[editor]
coalesce_window = "1s"
max_undo_entries = 50

[logging]
level = "debug"
format = "json"

[server]
addr = "127.0.0.1:9000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Editor.CoalesceWindow.Duration)
	assert.Equal(t, 50, cfg.Editor.MaxUndoEntries)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)

	// Untouched settings keep their defaults.
	assert.Equal(t, 560, cfg.Codec.VideoWidth)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL.Duration)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "folio.yaml", `
editor:
  coalesce_window: 250ms
  read_only: true
media:
  upload_dir: /srv/uploads
  base_url: https://cdn.example.com/
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Editor.CoalesceWindow.Duration)
	assert.True(t, cfg.Editor.ReadOnly)
	assert.Equal(t, "/srv/uploads", cfg.Media.UploadDir)
	assert.Equal(t, "https://cdn.example.com/", cfg.Media.BaseURL)
}

func TestLoadEmptyYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "folio.yml", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "folio.json", "{}")

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadParseError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "folio.toml", "[editor]\nmax_undo_entries = \n")

	_, err := Load(path)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, path, pe.Path)
	assert.Positive(t, pe.Line)
	assert.Contains(t, pe.Error(), "at line")
}

func TestLoadUnknownKey(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "folio.toml", "[editor]\nundo_depth = 5\n")

	_, err := Load(path)
	var pe *ParseError
	assert.True(t, errors.As(err, &pe))
}

func TestLoadBadDuration(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "folio.toml", "[server]\nsession_ttl = \"soon\"\n")

	_, err := Load(path)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Error(), "invalid duration")
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "folio.toml", "[logging]\nlevel = \"warn\"\n")

	t.Setenv("FOLIO_LOG_LEVEL", "error")
	t.Setenv("FOLIO_SESSION_TTL", "5m")
	t.Setenv("FOLIO_MAX_UNDO", "42")
	t.Setenv("FOLIO_READ_ONLY", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, 5*time.Minute, cfg.Server.SessionTTL.Duration)
	assert.Equal(t, 42, cfg.Editor.MaxUndoEntries)
	assert.True(t, cfg.Editor.ReadOnly)
}

func TestLoadEnvBadValue(t *testing.T) {
	t.Setenv("FOLIO_MAX_UNDO", "many")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FOLIO_MAX_UNDO")
	assert.Contains(t, err.Error(), "editor.max_undo_entries")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "folio.toml", "")
	writeFile(t, dir, ".env", "FOLIO_ADDR=:7000\nFOLIO_LOG_FORMAT=json\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "json", cfg.Logging.Format)

	// The process environment wins over .env.
	t.Setenv("FOLIO_ADDR", ":7001")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7001", cfg.Server.Addr)
	_, set := os.LookupEnv("FOLIO_LOG_FORMAT")
	assert.False(t, set, ".env must not leak into the process environment")
}

func TestValidationErrors(t *testing.T) {
	cfg, err := Parse([]byte(`
[editor]
max_undo_entries = 0

[logging]
level = "verbose"

[server]
addr = ""
`), FormatTOML)
	assert.Nil(t, cfg)
	require.ErrorIs(t, err, ErrValidationFailed)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	paths := make([]string, len(ve.Fields))
	for i, f := range ve.Fields {
		paths[i] = f.Path
	}
	assert.ElementsMatch(t, []string{"editor.max_undo_entries", "logging.level", "server.addr"}, paths)
	assert.Contains(t, ve.Error(), "logging.level: must satisfy oneof=debug info warn error (value: verbose)")
}

func TestValidateNegativeDuration(t *testing.T) {
	cfg := Default()
	cfg.Editor.CoalesceWindow = Duration{-time.Second}

	var ve *ValidationError
	require.True(t, errors.As(cfg.Validate(), &ve))
	require.Len(t, ve.Fields, 1)
	assert.Equal(t, "editor.coalesce_window", ve.Fields[0].Path)
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Logging.File = "/var/log/folio.log"
	cfg.Script.Timeout = Duration{2 * time.Second}

	for _, format := range []Format{FormatTOML, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Marshal(cfg, format)
			require.NoError(t, err)
			got, err := Parse(data, format)
			require.NoError(t, err)
			assert.Equal(t, cfg, got)
		})
	}
}

func TestEnvNames(t *testing.T) {
	names := EnvNames()
	assert.Equal(t, "logging.level", names["FOLIO_LOG_LEVEL"])
	for name := range names {
		assert.Contains(t, name, EnvPrefix)
	}
}

func TestClone(t *testing.T) {
	cfg := Default()
	cp := cfg.Clone()
	cp.Server.Addr = ":1"
	assert.Equal(t, ":8080", cfg.Server.Addr)
}
