package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/thenoetrevino/crmboard/internal/config/colors"
)

// Config represents the application configuration
type Config struct {
	Database    DatabaseConfig     `yaml:"database"`
	Daemon      DaemonConfig       `yaml:"daemon"`
	Persistence PersistenceConfig  `yaml:"persistence"`
	Log         LogConfig          `yaml:"log"`
	Board       BoardConfig        `yaml:"board"`
	KeyMappings KeyMappings        `yaml:"key_mappings"`
	ColorScheme colors.ColorScheme `yaml:"theme"`
}

// DatabaseConfig locates the SQLite file
type DatabaseConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// DaemonConfig configures the live update socket and its queues
type DaemonConfig struct {
	Socket          string `yaml:"socket" validate:"required"`
	BroadcastBuffer int    `yaml:"broadcast_buffer" validate:"gte=1"`
	ClientBuffer    int    `yaml:"client_buffer" validate:"gte=1"`
	DebounceMS      int    `yaml:"debounce_ms" validate:"gte=1,lte=10000"`
}

// PersistenceConfig tunes the optimistic write path
type PersistenceConfig struct {
	TimeoutMS   int `yaml:"timeout_ms" validate:"gte=1"`
	MaxAttempts int `yaml:"max_attempts" validate:"gte=1,lte=10"`
	BaseDelayMS int `yaml:"base_delay_ms" validate:"gte=1"`
	QueueSize   int `yaml:"queue_size" validate:"gte=1"`
}

// LogConfig controls the log file
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	Path  string `yaml:"path" validate:"required"`
}

// BoardConfig holds board selection defaults
type BoardConfig struct {
	// Default is the board opened when no --board flag is given
	Default string `yaml:"default" validate:"omitempty,max=64"`
}

func (p PersistenceConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutMS) * time.Millisecond
}

func (p PersistenceConfig) BaseDelay() time.Duration {
	return time.Duration(p.BaseDelayMS) * time.Millisecond
}

func (d DaemonConfig) Debounce() time.Duration {
	return time.Duration(d.DebounceMS) * time.Millisecond
}

// dataDir is where the database, socket and logs live by default
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".crmboard"
	}
	return filepath.Join(home, ".crmboard")
}

// Default returns the configuration used when no file exists
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load loads config from the user's config directory.
// A missing file yields the defaults; env overrides apply either way.
func Load() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		cfg := Default()
		if err := cfg.finish(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return LoadFrom(configPath)
}

// LoadFrom loads config from path
func LoadFrom(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finish() error {
	if err := c.applyEnv(); err != nil {
		return err
	}
	return c.Validate()
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyEnv overrides file values with CRMBOARD_* environment variables
func (c *Config) applyEnv() error {
	if v := os.Getenv("CRMBOARD_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("CRMBOARD_SOCKET"); v != "" {
		c.Daemon.Socket = v
	}
	if v := os.Getenv("CRMBOARD_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("CRMBOARD_PERSIST_TIMEOUT_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CRMBOARD_PERSIST_TIMEOUT_MS %q: %w", v, err)
		}
		c.Persistence.TimeoutMS = ms
	}
	return nil
}

// Save saves the config to the user's config directory
func (c *Config) Save() error {
	configPath, err := getConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0o644)
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	// Try XDG_CONFIG_HOME first
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "crmboard", "config.yaml"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "crmboard", "config.yaml"), nil
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	dir := dataDir()

	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(dir, "crmboard.db")
	}

	if c.Daemon.Socket == "" {
		c.Daemon.Socket = filepath.Join(dir, "crmboard.sock")
	}
	setDefault(&c.Daemon.BroadcastBuffer, 100)
	setDefault(&c.Daemon.ClientBuffer, 10)
	setDefault(&c.Daemon.DebounceMS, 100)

	setDefault(&c.Persistence.TimeoutMS, 5000)
	setDefault(&c.Persistence.MaxAttempts, 3)
	setDefault(&c.Persistence.BaseDelayMS, 50)
	setDefault(&c.Persistence.QueueSize, 256)

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Path == "" {
		c.Log.Path = filepath.Join(dir, "logs", "crmboard.log")
	}

	c.KeyMappings.applyDefaults()
	c.ColorScheme.ApplyDefaults()
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}
