package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	StorageSQLite   = "sqlite"
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// Config holds user preferences
type Config struct {
	ConfirmDelete bool `yaml:"confirm_delete" json:"confirm_delete"` // Ask before deleting

	// Storage configuration
	Storage     string `yaml:"storage" json:"storage"`           // sqlite, postgres, redis or memory
	DataPath    string `yaml:"data_path" json:"data_path"`       // SQLite file
	DatabaseURL string `yaml:"database_url" json:"database_url"` // Postgres connection string
	RedisAddr   string `yaml:"redis_addr" json:"redis_addr"`     // host:port
	RedisPrefix string `yaml:"redis_prefix" json:"redis_prefix"` // Key namespace
	Encrypt     bool   `yaml:"encrypt" json:"encrypt"`           // Encrypt stored values with a passphrase

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging
}

// Dir returns the taskdeck home directory (~/.taskdeck, or $TASKDECK_HOME)
func Dir() (string, error) {
	if dir := os.Getenv("TASKDECK_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".taskdeck"), nil
}

// Path returns the config file location
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultConfig returns default settings, with environment overrides applied
func DefaultConfig() *Config {
	dir, _ := Dir()
	dataPath, logPath := "", ""
	if dir != "" {
		dataPath = filepath.Join(dir, "taskdeck.db")
		logPath = filepath.Join(dir, "logs", "taskdeck.log")
	}

	cfg := &Config{
		ConfirmDelete: true,
		Storage:       StorageSQLite,
		DataPath:      dataPath,
		DatabaseURL:   "postgres://localhost:5432/taskdeck?sslmode=disable",
		RedisAddr:     "localhost:6379",
		RedisPrefix:   "taskdeck:",
		LogLevel:      "INFO",
		LogFile:       logPath,
	}
	cfg.applyEnv()
	return cfg
}

// applyEnv overrides fields from TASKDECK_* variables
func (c *Config) applyEnv() {
	c.Storage = getEnv("TASKDECK_STORAGE", c.Storage)
	c.DataPath = getEnv("TASKDECK_DATA", c.DataPath)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.LogLevel = getEnv("TASKDECK_LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("TASKDECK_LOG_FILE", c.LogFile)
	if v := os.Getenv("TASKDECK_LOG_CONSOLE"); v != "" {
		c.LogConsole = v == "true"
	}
	if v := os.Getenv("TASKDECK_ENCRYPT"); v != "" {
		c.Encrypt = v == "true"
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Validate checks the storage settings
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageSQLite:
		if c.DataPath == "" {
			return fmt.Errorf("data_path is required for sqlite storage")
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required for postgres storage")
		}
	case StorageRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis_addr is required for redis storage")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage %q (valid: %s)", c.Storage,
			strings.Join([]string{StorageSQLite, StoragePostgres, StorageRedis, StorageMemory}, ", "))
	}
	return nil
}

// Load loads config from ~/.taskdeck/config.yaml
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config file at path. A missing file yields defaults.
// Environment variables win over the file.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnv()

	return cfg, nil
}

// Save saves config to ~/.taskdeck/config.yaml
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config file at path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file may hold a database password
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
