package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FOLIO_"

// envSetting maps one environment variable onto a setting.
type envSetting struct {
	name string
	path string
	set  func(c *Config, v string) error
}

var envSettings = []envSetting{
	{"FOLIO_LOG_LEVEL", "logging.level", func(c *Config, v string) error { c.Logging.Level = v; return nil }},
	{"FOLIO_LOG_FORMAT", "logging.format", func(c *Config, v string) error { c.Logging.Format = v; return nil }},
	{"FOLIO_LOG_FILE", "logging.file", func(c *Config, v string) error { c.Logging.File = v; return nil }},
	{"FOLIO_ADDR", "server.addr", func(c *Config, v string) error { c.Server.Addr = v; return nil }},
	{"FOLIO_SESSION_TTL", "server.session_ttl", func(c *Config, v string) error {
		return setDuration(&c.Server.SessionTTL, v)
	}},
	{"FOLIO_MAX_BODY_BYTES", "server.max_body_bytes", func(c *Config, v string) error {
		return setInt64(&c.Server.MaxBodyBytes, v)
	}},
	{"FOLIO_UPLOAD_DIR", "media.upload_dir", func(c *Config, v string) error { c.Media.UploadDir = v; return nil }},
	{"FOLIO_MEDIA_BASE_URL", "media.base_url", func(c *Config, v string) error { c.Media.BaseURL = v; return nil }},
	{"FOLIO_MEDIA_MAX_BYTES", "media.max_bytes", func(c *Config, v string) error {
		return setInt64(&c.Media.MaxBytes, v)
	}},
	{"FOLIO_COALESCE_WINDOW", "editor.coalesce_window", func(c *Config, v string) error {
		return setDuration(&c.Editor.CoalesceWindow, v)
	}},
	{"FOLIO_MAX_UNDO", "editor.max_undo_entries", func(c *Config, v string) error {
		return setInt(&c.Editor.MaxUndoEntries, v)
	}},
	{"FOLIO_READ_ONLY", "editor.read_only", func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.Editor.ReadOnly = b
		return nil
	}},
	{"FOLIO_SCRIPT_TIMEOUT", "script.timeout", func(c *Config, v string) error {
		return setDuration(&c.Script.Timeout, v)
	}},
}

// EnvNames returns the supported environment variables and the settings
// they override.
func EnvNames() map[string]string {
	out := make(map[string]string, len(envSettings))
	for _, s := range envSettings {
		out[s.name] = s.path
	}
	return out
}

// applyEnv applies overrides from the process environment, falling back
// to values read from a .env file.
func applyEnv(cfg *Config, dotenv map[string]string) error {
	for _, s := range envSettings {
		v, ok := os.LookupEnv(s.name)
		if !ok {
			v, ok = dotenv[s.name]
		}
		if !ok {
			continue
		}
		if err := s.set(cfg, v); err != nil {
			return fmt.Errorf("env %s (%s): %w", s.name, s.path, err)
		}
	}
	return nil
}

func setDuration(d *Duration, v string) error {
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setInt64(dst *int64, v string) error {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}
