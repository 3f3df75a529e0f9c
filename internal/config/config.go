// Package config loads lattice settings from a YAML file and LATTICE_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/lattice/pkg/validation"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "lattice.yaml"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverBadger = "badger"
)

// Config holds every runtime setting.
type Config struct {
	Listen       string `yaml:"listen" json:"listen" validate:"required"`
	LogLevel     string `yaml:"log_level" json:"log_level" validate:"omitempty,oneof=debug info warn error"`
	Store        Store  `yaml:"store" json:"store"`
	Remote       Remote `yaml:"remote" json:"remote"`
	TemplatesDir string `yaml:"templates_dir" json:"templates_dir"`
	MaxInputSize int    `yaml:"max_input_size" json:"max_input_size" validate:"min=0"`
}

// Store selects the key-value backend for drafts, metadata backups and sessions.
type Store struct {
	Driver        string        `yaml:"driver" json:"driver" validate:"oneof=memory file redis badger"`
	Path          string        `yaml:"path" json:"path" validate:"required_if=Driver badger"`
	RedisAddr     string        `yaml:"redis_addr" json:"redis_addr" validate:"required_if=Driver redis"`
	RedisPassword string        `yaml:"redis_password" json:"redis_password"`
	RedisDB       int           `yaml:"redis_db" json:"redis_db" validate:"min=0"`
	RedisPrefix   string        `yaml:"redis_prefix" json:"redis_prefix"`
	TTL           time.Duration `yaml:"ttl" json:"ttl" validate:"min=0"`
	// EncryptionKeys are base64 AES-256 keys. The first encrypts, the others
	// only decrypt values written before a rotation.
	EncryptionKeys []string `yaml:"encryption_keys" json:"encryption_keys" validate:"dive,base64"`
}

// Remote configures the scenario service. An empty endpoint runs offline against
// an in-memory service.
type Remote struct {
	Endpoint string        `yaml:"endpoint" json:"endpoint" validate:"omitempty,url"`
	Token    string        `yaml:"token" json:"token"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout" validate:"min=0"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Listen:   ":8080",
		LogLevel: "info",
		Store: Store{
			Driver:      DriverFile,
			Path:        ".lattice/store",
			RedisPrefix: "lattice:",
		},
		Remote: Remote{Timeout: 30 * time.Second},
	}
}

// Load reads path over the defaults, applies environment overrides and validates
// the result. A missing file at the default path is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings.
func (c Config) Validate() error {
	return validation.Struct(c)
}

// ApplyEnv overrides settings from LATTICE_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"LATTICE_LISTEN":          &c.Listen,
		"LATTICE_LOG_LEVEL":       &c.LogLevel,
		"LATTICE_STORE_DRIVER":    &c.Store.Driver,
		"LATTICE_STORE_PATH":      &c.Store.Path,
		"LATTICE_REDIS_ADDR":      &c.Store.RedisAddr,
		"LATTICE_REDIS_PASSWORD":  &c.Store.RedisPassword,
		"LATTICE_REDIS_PREFIX":    &c.Store.RedisPrefix,
		"LATTICE_REMOTE_ENDPOINT": &c.Remote.Endpoint,
		"LATTICE_REMOTE_TOKEN":    &c.Remote.Token,
		"LATTICE_TEMPLATES_DIR":   &c.TemplatesDir,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}

	if v, ok := lookup("LATTICE_STORE_ENCRYPTION_KEYS"); ok {
		c.Store.EncryptionKeys = nil
		for _, k := range strings.Split(v, ",") {
			if k = strings.TrimSpace(k); k != "" {
				c.Store.EncryptionKeys = append(c.Store.EncryptionKeys, k)
			}
		}
	}

	ints := map[string]*int{
		"LATTICE_REDIS_DB":       &c.Store.RedisDB,
		"LATTICE_MAX_INPUT_SIZE": &c.MaxInputSize,
	}
	for name, dst := range ints {
		if v, ok := lookup(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", name, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"LATTICE_STORE_TTL":      &c.Store.TTL,
		"LATTICE_REMOTE_TIMEOUT": &c.Remote.Timeout,
	}
	for name, dst := range durations {
		if v, ok := lookup(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", name, err)
			}
			*dst = d
		}
	}
	return nil
}
