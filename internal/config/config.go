package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no file is given.
const DefaultFile = "cardflow.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CARDFLOW_"

// Config holds the settings shared by the CLI commands.
type Config struct {
	Store    StoreConfig `mapstructure:"store"`
	Addr     string      `mapstructure:"addr" validate:"required"`
	LogLevel string      `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	Metrics  bool        `mapstructure:"metrics"`
}

// StoreConfig selects and configures the flow store.
type StoreConfig struct {
	Driver     string        `mapstructure:"driver" validate:"oneof=memory file redis loam sqlite"`
	Dir        string        `mapstructure:"dir"`
	Format     string        `mapstructure:"format" validate:"omitempty,oneof=json yaml"`
	RedisURL   string        `mapstructure:"redis_url"`
	Prefix     string        `mapstructure:"prefix"`
	TTL        time.Duration `mapstructure:"ttl"`
	SQLitePath string        `mapstructure:"sqlite_path"`
	Lock       bool          `mapstructure:"distributed_lock"`
	// EncryptionKey is a base64 AES-256 key. When set, flows are stored encrypted.
	EncryptionKey string   `mapstructure:"encryption_key" validate:"omitempty,base64"`
	FallbackKeys  []string `mapstructure:"fallback_keys" validate:"dive,base64"`
}

// envKeys maps environment variables (without the prefix) to config paths.
var envKeys = map[string][]string{
	"ADDR":             {"addr"},
	"LOG_LEVEL":        {"log_level"},
	"METRICS":          {"metrics"},
	"STORE":            {"store", "driver"},
	"STORE_DIR":        {"store", "dir"},
	"STORE_FORMAT":     {"store", "format"},
	"REDIS_URL":        {"store", "redis_url"},
	"STORE_PREFIX":     {"store", "prefix"},
	"STORE_TTL":        {"store", "ttl"},
	"SQLITE_PATH":      {"store", "sqlite_path"},
	"DISTRIBUTED_LOCK": {"store", "distributed_lock"},
	"ENCRYPTION_KEY":   {"store", "encryption_key"},
}

func defaults() map[string]any {
	return map[string]any{
		"addr":      ":8080",
		"log_level": "info",
		"metrics":   true,
		"store": map[string]any{
			"driver":      "file",
			"dir":         ".cardflow/flows",
			"format":      "json",
			"redis_url":   "redis://localhost:6379/0",
			"prefix":      "cardflow:flow:",
			"sqlite_path": ".cardflow/flows.db",
		},
	}
}

var validate = validator.New()

// Load reads the YAML file at path (DefaultFile when empty and present),
// applies CARDFLOW_* environment overrides and decodes the result.
func Load(path string) (*Config, error) {
	raw := defaults()

	file := path
	if file == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			file = DefaultFile
		}
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		var fromFile map[string]any
		if err := yaml.Unmarshal(data, &fromFile); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", file, err)
		}
		merge(raw, fromFile)
	}

	applyEnv(raw, os.LookupEnv)

	return Decode(raw)
}

// Decode converts a raw settings map into a validated Config.
func Decode(raw map[string]any) (*Config, error) {
	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s: %q is not allowed", strings.ToLower(verrs[0].Namespace()), verrs[0].Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// merge overlays src onto dst, recursing into nested maps.
func merge(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				merge(existing, sub)
				continue
			}
		}
		dst[k] = v
	}
}

func applyEnv(raw map[string]any, lookup func(string) (string, bool)) {
	for key, path := range envKeys {
		val, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		node := raw
		for _, p := range path[:len(path)-1] {
			next, ok := node[p].(map[string]any)
			if !ok {
				next = map[string]any{}
				node[p] = next
			}
			node = next
		}
		node[path[len(path)-1]] = val
	}
}
