package runtimeconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var ErrConfigFormatUnknown = errors.New("cmsnav config: unsupported config file extension")

// LoadFile reads a YAML or TOML file on top of DefaultConfig. The format is
// picked from the file extension and the result is validated.
func LoadFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cmsnav config: read %s: %w", path, err)
	}
	cfg, err := Decode(filepath.Ext(path), raw)
	if err != nil {
		return Config{}, fmt.Errorf("cmsnav config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses raw config bytes. ext is a file extension such as ".yaml".
func Decode(ext string, raw []byte) (Config, error) {
	cfg := DefaultConfig()
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), ".")) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, err
		}
	case "toml":
		if _, err := toml.Decode(string(raw), &cfg); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrConfigFormatUnknown, ext)
	}
	cfg.Placeholders = lowerPlaceholderKeys(cfg.Placeholders)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func lowerPlaceholderKeys(in map[string]PlaceholderConfig) map[string]PlaceholderConfig {
	out := make(map[string]PlaceholderConfig, len(in))
	for name, placeholder := range in {
		out[strings.ToLower(strings.TrimSpace(name))] = placeholder
	}
	return out
}
