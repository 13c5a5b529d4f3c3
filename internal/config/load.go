package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file syntax.
type Format string

// Supported formats.
const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatOf returns the format implied by a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Load builds the configuration from defaults, the file at path, a .env
// file next to it and FOLIO_* environment variables, in increasing order
// of precedence, and validates the result. An empty path skips the file;
// the .env file is then looked up in the working directory.
func Load(path string) (*Config, error) {
	cfg := Default()
	dir := "."
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
			}
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		format, err := FormatOf(path)
		if err != nil {
			return nil, err
		}
		if err := decode(cfg, path, data, format); err != nil {
			return nil, err
		}
		dir = filepath.Dir(path)
	}

	env, err := dotenv(filepath.Join(dir, ".env"))
	if err != nil {
		return nil, err
	}
	if err := applyEnv(cfg, env); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes data over the defaults without consulting the
// environment, and validates the result.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := Default()
	if err := decode(cfg, "<input>", data, format); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(cfg *Config, source string, data []byte, format Format) error {
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			pe := &ParseError{Path: source, Message: err.Error(), Err: err}
			var de *toml.DecodeError
			if errors.As(err, &de) {
				pe.Line, _ = de.Position()
			}
			return pe
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return &ParseError{Path: source, Message: err.Error(), Err: err}
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return nil
}

// dotenv reads a .env file. A missing file yields no variables.
func dotenv(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return env, nil
}

// Marshal encodes cfg in the given format.
func Marshal(cfg *Config, format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		return toml.Marshal(cfg)
	case FormatYAML:
		return yaml.Marshal(cfg)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}
