// Package config loads the quote service configuration with koanf and
// checks it with validator before anything is wired.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix marks the environment variables that override file values.
	EnvPrefix = "APP_"

	// EnvConfigDir overrides DefaultDir.
	EnvConfigDir = "APP_CONFIG_DIR"

	// DefaultDir holds base.yaml and the <profile>.yaml overlays.
	DefaultDir = "configs"
)

// Config is the root configuration.
type Config struct {
	App       AppConfig       `koanf:"app"       validate:"required"`
	Server    ServerConfig    `koanf:"server"    validate:"required"`
	Log       LogConfig       `koanf:"log"       validate:"required"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Auth      AuthConfig      `koanf:"auth"`
	Client    ClientConfig    `koanf:"client"    validate:"required"`
	Services  ServicesConfig  `koanf:"services"  validate:"required"`
	Storage   StorageConfig   `koanf:"storage"   validate:"required"`
	Session   SessionConfig   `koanf:"session"   validate:"required"`
	Sync      SyncConfig      `koanf:"sync"`
	Export    ExportConfig    `koanf:"export"`
}

// Load reads the configuration for profile from the directory named by
// APP_CONFIG_DIR, or DefaultDir when unset.
func Load(profile string) (*Config, error) {
	dir := os.Getenv(EnvConfigDir)
	if dir == "" {
		dir = DefaultDir
	}

	return LoadFrom(dir, profile)
}

// LoadFrom layers, lowest first: built-in defaults, dir/base.yaml,
// dir/<profile>.yaml and APP_* environment variables. Missing files are
// skipped.
func LoadFrom(dir, profile string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	layers := []string{"base"}
	if profile != "" {
		layers = append(layers, profile)
	}

	for _, name := range layers {
		if err := loadYAML(k, filepath.Join(dir, name+".yaml")); err != nil {
			return nil, fmt.Errorf("loading %s config: %w", name, err)
		}
	}

	// Env names are resolved against the keys known so far, so that
	// APP_STORAGE_QUOTES_KEY lands on storage.quotes_key.
	known := make(map[string]string)
	for _, key := range k.Keys() {
		known[strings.ReplaceAll(key, ".", "_")] = key
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(name string) string {
		return envKey(name, known)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &cfg, nil
}

func loadYAML(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return k.Load(file.Provider(path), yaml.Parser())
}

// envKey maps APP_FOO_BAR to a koanf key. Names that match no known key
// treat every underscore as a level separator.
func envKey(name string, known map[string]string) string {
	flat := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	if key, ok := known[flat]; ok {
		return key
	}

	return strings.ReplaceAll(flat, "_", ".")
}
