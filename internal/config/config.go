package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the complete Folio configuration.
type Config struct {
	Editor  EditorConfig  `toml:"editor" yaml:"editor"`
	Codec   CodecConfig   `toml:"codec" yaml:"codec"`
	Media   MediaConfig   `toml:"media" yaml:"media"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
	Server  ServerConfig  `toml:"server" yaml:"server"`
	Script  ScriptConfig  `toml:"script" yaml:"script"`
}

// EditorConfig configures engines.
type EditorConfig struct {
	// CoalesceWindow is how close together coalescable commands must be
	// to share an undo step. Zero disables coalescing.
	CoalesceWindow Duration `toml:"coalesce_window" yaml:"coalesce_window" validate:"gte=0"`
	MaxUndoEntries int      `toml:"max_undo_entries" yaml:"max_undo_entries" validate:"gte=1,lte=100000"`
	ReadOnly       bool     `toml:"read_only" yaml:"read_only"`
}

// CodecConfig configures HTML import and export.
type CodecConfig struct {
	VideoWidth    int    `toml:"video_width" yaml:"video_width" validate:"gte=1,lte=4096"`
	VideoHeight   int    `toml:"video_height" yaml:"video_height" validate:"gte=1,lte=4096"`
	VideoTitle    string `toml:"video_title" yaml:"video_title" validate:"max=200"`
	MaxInputBytes int    `toml:"max_input_bytes" yaml:"max_input_bytes" validate:"gte=1024"`
}

// MediaConfig configures uploads.
type MediaConfig struct {
	UploadDir string   `toml:"upload_dir" yaml:"upload_dir" validate:"required"`
	BaseURL   string   `toml:"base_url" yaml:"base_url" validate:"required"`
	MaxBytes  int64    `toml:"max_bytes" yaml:"max_bytes" validate:"gte=1"`
	CacheTTL  Duration `toml:"cache_ttl" yaml:"cache_ttl" validate:"gte=0"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" yaml:"format" validate:"oneof=json console"`

	// File enables a rotated log file in addition to stderr.
	File       string `toml:"file" yaml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" yaml:"max_size_mb" validate:"gte=1"`
	MaxBackups int    `toml:"max_backups" yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `toml:"max_age_days" yaml:"max_age_days" validate:"gte=0"`
	Compress   bool   `toml:"compress" yaml:"compress"`
}

// ServerConfig configures the HTTP host.
type ServerConfig struct {
	Addr         string   `toml:"addr" yaml:"addr" validate:"required"`
	SessionTTL   Duration `toml:"session_ttl" yaml:"session_ttl" validate:"gte=0"`
	ReadTimeout  Duration `toml:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout Duration `toml:"write_timeout" yaml:"write_timeout" validate:"gte=0"`
	MaxBodyBytes int64    `toml:"max_body_bytes" yaml:"max_body_bytes" validate:"gte=1024"`
}

// ScriptConfig configures the Lua scripting host.
type ScriptConfig struct {
	Timeout     Duration `toml:"timeout" yaml:"timeout" validate:"gte=0"`
	MaxCommands int      `toml:"max_commands" yaml:"max_commands" validate:"gte=1"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Editor: EditorConfig{
			CoalesceWindow: Duration{300 * time.Millisecond},
			MaxUndoEntries: 1000,
		},
		Codec: CodecConfig{
			VideoWidth:    560,
			VideoHeight:   315,
			VideoTitle:    "Embedded video",
			MaxInputBytes: 4 << 20,
		},
		Media: MediaConfig{
			UploadDir: "uploads",
			BaseURL:   "/media/",
			MaxBytes:  10 << 20,
			CacheTTL:  Duration{time.Hour},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			SessionTTL:   Duration{30 * time.Minute},
			ReadTimeout:  Duration{15 * time.Second},
			WriteTimeout: Duration{15 * time.Second},
			MaxBodyBytes: 16 << 20,
		},
		Script: ScriptConfig{
			Timeout:     Duration{5 * time.Second},
			MaxCommands: 10000,
		},
	}
}

// Duration is a time.Duration written as a string such as "300ms" in
// configuration files.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(Duration); ok {
			return d.Duration
		}
		return nil
	}, Duration{})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every setting and reports all failures in one
// *ValidationError.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.Fields = append(ve.Fields, FieldError{
			Path:  settingPath(fe.Namespace()),
			Rule:  fe.Tag(),
			Param: fe.Param(),
			Value: fe.Value(),
		})
	}
	return ve
}

// settingPath turns "Config.logging.level" into "logging.level".
func settingPath(ns string) string {
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		return ns
	}
	return rest
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
