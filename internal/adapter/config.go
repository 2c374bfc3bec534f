package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SourceType identifies the search backend
type SourceType string

const (
	SourceTypeVK      SourceType = "vk"
	SourceTypeCatalog SourceType = "catalog"
)

// Config holds all application configuration
type Config struct {
	Source  SourceConfig  `mapstructure:"source"`
	Player  PlayerConfig  `mapstructure:"player"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SourceConfig selects and tunes the search backend
type SourceConfig struct {
	Type       SourceType    `mapstructure:"type"`
	URL        string        `mapstructure:"url"`         // API base URL (vk)
	Token      string        `mapstructure:"token"`       // Overrides the stored token when set
	APIVersion string        `mapstructure:"api_version"` // vk only
	Catalog    string        `mapstructure:"catalog"`     // JSON catalog file (catalog)
	PageSize   int           `mapstructure:"page_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// PlayerConfig holds media player configuration
type PlayerConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// CacheConfig locates the settings and snapshot database
type CacheConfig struct {
	Dir      string `mapstructure:"dir"`
	Disabled bool   `mapstructure:"disabled"` // Keep everything in memory
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Type:       SourceTypeVK,
			URL:        "https://api.vk.com",
			APIVersion: "5.103",
			PageSize:   50,
			Timeout:    20 * time.Second,
		},
		Player: PlayerConfig{
			Command: "",
			Args:    []string{},
		},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "reel", "reel.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "reel", "reel.log")
	}
}

func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "reel")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "reel")
	}
}

func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "reel", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "reel", "cache")
	}
}

// newViper creates a viper instance that reads config.yaml from dirs and
// REEL_* environment overrides, e.g. REEL_SOURCE_TYPE=catalog.
func newViper(dirs ...string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix("REEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Env overrides only apply to keys viper knows about
	def := DefaultConfig()
	v.SetDefault("source.type", def.Source.Type)
	v.SetDefault("source.url", def.Source.URL)
	v.SetDefault("source.token", def.Source.Token)
	v.SetDefault("source.api_version", def.Source.APIVersion)
	v.SetDefault("source.catalog", def.Source.Catalog)
	v.SetDefault("source.page_size", def.Source.PageSize)
	v.SetDefault("source.timeout", def.Source.Timeout)
	v.SetDefault("player.command", def.Player.Command)
	v.SetDefault("player.args", def.Player.Args)
	v.SetDefault("cache.dir", def.Cache.Dir)
	v.SetDefault("cache.disabled", def.Cache.Disabled)
	v.SetDefault("logging.file", def.Logging.File)
	v.SetDefault("logging.level", def.Logging.Level)
	return v
}

// LoadConfig loads configuration from the user config dir, the working
// directory and the environment.
func LoadConfig() (*Config, error) {
	return loadConfig(newViper(defaultConfigPath(), "."))
}

func loadConfig(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file: defaults and env
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the source section
func (c *Config) Validate() error {
	switch c.Source.Type {
	case SourceTypeVK:
		if c.Source.URL == "" {
			return fmt.Errorf("source.url is required for %s", c.Source.Type)
		}
	case SourceTypeCatalog:
		if c.Source.Catalog == "" {
			return fmt.Errorf("source.catalog is required for %s", c.Source.Type)
		}
	default:
		return fmt.Errorf("unknown source type: %q", c.Source.Type)
	}
	if c.Source.PageSize <= 0 {
		return fmt.Errorf("source.page_size must be positive, got %d", c.Source.PageSize)
	}
	return nil
}

// NeedsToken reports whether the source authenticates with a token
func (c *Config) NeedsToken() bool {
	return c.Source.Type == SourceTypeVK
}

// CacheDir returns the database directory, or "" when caching is disabled
func (c *Config) CacheDir() string {
	if c.Cache.Disabled {
		return ""
	}
	return expandHome(c.Cache.Dir)
}

// SaveConfig writes cfg to the user config file
func SaveConfig(cfg *Config) error {
	return saveConfig(cfg, defaultConfigPath())
}

func saveConfig(cfg *Config, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually so keys stay snake_case. The token lives in
	// the settings database, not here.
	v := viper.New()
	v.Set("source.type", cfg.Source.Type)
	v.Set("source.url", cfg.Source.URL)
	v.Set("source.api_version", cfg.Source.APIVersion)
	v.Set("source.catalog", cfg.Source.Catalog)
	v.Set("source.page_size", cfg.Source.PageSize)
	v.Set("source.timeout", cfg.Source.Timeout.String())
	v.Set("player.command", cfg.Player.Command)
	v.Set("player.args", cfg.Player.Args)
	v.Set("cache.dir", cfg.Cache.Dir)
	v.Set("cache.disabled", cfg.Cache.Disabled)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ConfigFileExists reports whether the user config file has been written
func ConfigFileExists() bool {
	_, err := os.Stat(filepath.Join(defaultConfigPath(), "config.yaml"))
	return err == nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
