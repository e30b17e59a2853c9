package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/dyluth/pinboard/pkg/board"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the working directory
const DefaultFileName = "pinboard.yml"

const (
	DefaultNamespace      = "default"
	DefaultActivityLimit  = 20
	DefaultRequestTimeout = 10 * time.Second
	DefaultLogLevel       = "warn"
)

// Environment variables that override the file
const (
	EnvRedisURL  = "PINBOARD_REDIS_URL"
	EnvNamespace = "PINBOARD_NAMESPACE"
	EnvUser      = "PINBOARD_USER"
	EnvBoard     = "PINBOARD_BOARD"
)

// namespacePattern is DNS-compatible: lowercase alphanumeric and inner hyphens
var namespacePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

// PinboardConfig represents the top-level pinboard.yml configuration
type PinboardConfig struct {
	Version  string      `yaml:"version"`
	Store    StoreConfig `yaml:"store"`
	User     UserConfig  `yaml:"user,omitempty"`
	Board    string      `yaml:"board,omitempty"` // Default board for board-scoped commands
	Sync     *SyncConfig `yaml:"sync,omitempty"`
	LogLevel string      `yaml:"log_level,omitempty"`
}

// StoreConfig says where boards are kept
type StoreConfig struct {
	RedisURL  string `yaml:"redis_url,omitempty"` // Takes precedence over instance
	Namespace string `yaml:"namespace"`
	Instance  string `yaml:"instance,omitempty"` // Local docker instance started with `pinboard up`
}

// UserConfig identifies the acting user
type UserConfig struct {
	ID          string `yaml:"id,omitempty"`
	DisplayName string `yaml:"display_name,omitempty"`
}

// SyncConfig tunes how sessions talk to the store
type SyncConfig struct {
	ActivityLimit  int           `yaml:"activity_limit,omitempty"`  // Default: 20
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"` // Default: 10s
}

// Default returns a configuration with every default applied.
func Default() *PinboardConfig {
	c := &PinboardConfig{Version: "1.0"}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills in unset optional fields.
func (c *PinboardConfig) ApplyDefaults() {
	if c.Store.Namespace == "" {
		c.Store.Namespace = DefaultNamespace
	}
	if c.Sync == nil {
		c.Sync = &SyncConfig{}
	}
	if c.Sync.ActivityLimit == 0 {
		c.Sync.ActivityLimit = DefaultActivityLimit
	}
	if c.Sync.RequestTimeout == 0 {
		c.Sync.RequestTimeout = DefaultRequestTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// ApplyEnv overrides fields from PINBOARD_* environment variables.
func (c *PinboardConfig) ApplyEnv() {
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Store.RedisURL = v
	}
	if v := os.Getenv(EnvNamespace); v != "" {
		c.Store.Namespace = v
	}
	if v := os.Getenv(EnvUser); v != "" {
		c.User.ID = v
	}
	if v := os.Getenv(EnvBoard); v != "" {
		c.Board = v
	}
}

// Validate performs strict validation on the configuration
func (c *PinboardConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if !namespacePattern.MatchString(c.Store.Namespace) || len(c.Store.Namespace) > 63 {
		return fmt.Errorf("invalid store.namespace '%s': must be lowercase alphanumeric with hyphens (not at start/end)", c.Store.Namespace)
	}

	if c.Store.RedisURL != "" {
		if _, err := redis.ParseURL(c.Store.RedisURL); err != nil {
			return fmt.Errorf("invalid store.redis_url: %w", err)
		}
	}

	if c.User.ID != "" && !board.IsPermanentID(c.User.ID) {
		return fmt.Errorf("invalid user.id '%s': must be a UUID", c.User.ID)
	}

	if c.Board != "" && !board.IsPermanentID(c.Board) {
		return fmt.Errorf("invalid board '%s': must be a UUID", c.Board)
	}

	if c.Sync != nil {
		if c.Sync.ActivityLimit < 0 {
			return fmt.Errorf("sync.activity_limit must be > 0, got %d", c.Sync.ActivityLimit)
		}
		if c.Sync.RequestTimeout < 0 {
			return fmt.Errorf("sync.request_timeout must be positive, got %s", c.Sync.RequestTimeout)
		}
	}

	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("invalid log_level: %w", err)
		}
	}

	return nil
}

// Level returns the configured logrus level.
func (c *PinboardConfig) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.WarnLevel
	}
	return level
}

// RedisOptions parses the configured Redis URL.
func (c *PinboardConfig) RedisOptions() (*redis.Options, error) {
	if c.Store.RedisURL == "" {
		return nil, errors.New("no redis_url configured")
	}
	return redis.ParseURL(c.Store.RedisURL)
}

// Load reads and validates pinboard.yml from the specified path. Environment
// overrides are applied before defaults and validation.
func Load(path string) (*PinboardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config PinboardConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.ApplyEnv()
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault loads path if it exists and otherwise returns the defaults
// with environment overrides applied.
func LoadOrDefault(path string) (*PinboardConfig, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		config := Default()
		config.ApplyEnv()
		if err := config.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return config, nil
	}
	return Load(path)
}

// Write saves the configuration to path. An existing file is only replaced
// when force is set.
func Write(path string, config *PinboardConfig, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
