package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/subosito/gotenv"
)

const (
	DefaultServerAddress     = ":8000"
	DefaultTokenTTL          = 30 * 24 * time.Hour
	DefaultTokenPurgeEvery   = time.Hour
	DefaultCompletionTimeout = 30 * time.Second
	MaxHistoryLimit          = 5
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
	Providers   map[string]ProviderConfig `json:"providers"`
	Completion  CompletionConfig          `json:"completion"`
	Logging     LoggingConfig             `json:"logging"`
}

type BasicConfig struct {
	ServerAddress string `json:"server_address"`
	// Driver selects an entry of Databases; sqlite3 when empty.
	Driver               string `json:"driver"`
	TokenTTLHours        int    `json:"token_ttl_hours"`
	TokenPurgeMinutes    int    `json:"token_purge_minutes"`
	HistoryLimit         int    `json:"history_limit"`
	CompletionTimeoutSec int    `json:"completion_timeout_seconds"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

// RedisConfig is optional; an empty Host disables the token cache.
type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

// CompletionConfig picks the provider used for chat replies and sentiment.
type CompletionConfig struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type LoggingConfig struct {
	Level     string `json:"level"`
	AddSource bool   `json:"add_source"`
}

// LoadEnv applies a dotenv file to the process environment. A missing file is not an error.
func LoadEnv(path string) {
	if path == "" {
		path = ".env"
	}
	if err := gotenv.Load(path); err != nil {
		slog.Warn("[Config] no env file loaded, using OS environment", slog.String("path", path))
	}
}

// Load reads configuration from the provided path (defaults to config.json).
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.normalize(filepath.Dir(absPath)); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize(baseDir string) error {
	if c.BasicConfig.Driver == "" {
		c.BasicConfig.Driver = "sqlite3"
	}
	c.BasicConfig.Driver = strings.ToLower(c.BasicConfig.Driver)
	dbCfg, ok := c.Databases[c.BasicConfig.Driver]
	if !ok {
		return fmt.Errorf("database config for %s not found", c.BasicConfig.Driver)
	}
	if c.BasicConfig.Driver == "sqlite3" || c.BasicConfig.Driver == "sqlite" {
		if dbCfg.DSN == "" {
			return errors.New("sqlite dsn must be configured")
		}
		if dbCfg.DSN != ":memory:" && !strings.HasPrefix(dbCfg.DSN, "file:") && !filepath.IsAbs(dbCfg.DSN) {
			dbCfg.DSN = filepath.Join(baseDir, dbCfg.DSN)
			c.Databases[c.BasicConfig.Driver] = dbCfg
		}
	}
	if c.BasicConfig.HistoryLimit <= 0 || c.BasicConfig.HistoryLimit > MaxHistoryLimit {
		c.BasicConfig.HistoryLimit = MaxHistoryLimit
	}
	return nil
}

// ServerAddress returns the listen address with the default applied.
func (c *Config) ServerAddress() string {
	if c.BasicConfig.ServerAddress == "" {
		return DefaultServerAddress
	}
	return c.BasicConfig.ServerAddress
}

func (c *Config) TokenTTL() time.Duration {
	if c.BasicConfig.TokenTTLHours <= 0 {
		return DefaultTokenTTL
	}
	return time.Duration(c.BasicConfig.TokenTTLHours) * time.Hour
}

func (c *Config) TokenPurgeInterval() time.Duration {
	if c.BasicConfig.TokenPurgeMinutes <= 0 {
		return DefaultTokenPurgeEvery
	}
	return time.Duration(c.BasicConfig.TokenPurgeMinutes) * time.Minute
}

func (c *Config) CompletionTimeout() time.Duration {
	if c.BasicConfig.CompletionTimeoutSec <= 0 {
		return DefaultCompletionTimeout
	}
	return time.Duration(c.BasicConfig.CompletionTimeoutSec) * time.Second
}

// Provider resolves the configured completion provider. The API key falls back
// to <PROVIDER>_API_KEY from the environment. ok is false when no key is available.
func (c *Config) Provider() (name string, pc ProviderConfig, ok bool) {
	name = strings.ToLower(strings.TrimSpace(c.Completion.Provider))
	if name == "" {
		name = "openai"
	}
	pc = c.Providers[name]
	if c.Completion.Model != "" {
		pc.Model = c.Completion.Model
	}
	if pc.APIKey == "" {
		pc.APIKey = strings.TrimSpace(os.Getenv(strings.ToUpper(name) + "_API_KEY"))
	}
	return name, pc, pc.APIKey != ""
}
