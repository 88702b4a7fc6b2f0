package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ShellConfig holds shell integration configuration.
type ShellConfig struct {
	CacheTTL     string `mapstructure:"cache_ttl"`
	DueIcon      string `mapstructure:"due_icon"`
	ClearIcon    string `mapstructure:"clear_icon"`
	ShowBackend  bool   `mapstructure:"show_backend"`
	ShowAccounts bool   `mapstructure:"show_accounts"`
}

// ThemeConfig selects a color preset and optional overrides.
type ThemeConfig struct {
	Preset        string `mapstructure:"preset"`
	Primary       string `mapstructure:"primary"`
	Secondary     string `mapstructure:"secondary"`
	Accent        string `mapstructure:"accent"`
	Muted         string `mapstructure:"muted"`
	Danger        string `mapstructure:"danger"`
	Background    string `mapstructure:"background"`
	MarkdownStyle string `mapstructure:"markdown_style"`
}

// ScheduleConfig controls how due requests are rendered.
type ScheduleConfig struct {
	PurchaseDurations string `mapstructure:"purchase_durations"`
	LegacyPayload     bool   `mapstructure:"legacy_payload"`
}

// CacheConfig selects where computed daily requests are cached.
type CacheConfig struct {
	Backend       string        `mapstructure:"backend"`
	TTL           time.Duration `mapstructure:"ttl"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
}

// ServeConfig holds HTTP API settings.
type ServeConfig struct {
	Addr    string `mapstructure:"addr"`
	Metrics bool   `mapstructure:"metrics"`
}

// Config holds the application configuration.
type Config struct {
	Storage      string         `mapstructure:"storage"`
	DataDir      string         `mapstructure:"data_dir"`
	SQLiteDriver string         `mapstructure:"sqlite_driver"`
	PostgresDSN  string         `mapstructure:"postgres_dsn"`
	Editor       string         `mapstructure:"editor"`
	LogLevel     string         `mapstructure:"log_level"`
	LogFormat    string         `mapstructure:"log_format"`
	Schedule     ScheduleConfig `mapstructure:"schedule"`
	Cache        CacheConfig    `mapstructure:"cache"`
	Serve        ServeConfig    `mapstructure:"serve"`
	Shell        ShellConfig    `mapstructure:"shell"`
	Theme        ThemeConfig    `mapstructure:"theme"`
}

var envReplacer = strings.NewReplacer(".", "_")

// DefaultDataDir returns the default data directory (~/.dailyctl/).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".dailyctl")
	}
	return filepath.Join(home, ".dailyctl")
}

// Load reads configuration from file, environment variables, and defaults.
// A .env file in the working directory is applied to the environment first.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	// Defaults
	v.SetDefault("storage", "sqlite")
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("sqlite_driver", "libsql")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("editor", "")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")
	v.SetDefault("schedule.purchase_durations", "jitter")
	v.SetDefault("schedule.legacy_payload", false)
	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("serve.addr", ":8080")
	v.SetDefault("serve.metrics", true)
	v.SetDefault("shell.cache_ttl", "5m")
	v.SetDefault("shell.due_icon", "●")
	v.SetDefault("shell.clear_icon", "✓")
	v.SetDefault("shell.show_backend", false)
	v.SetDefault("shell.show_accounts", false)
	v.SetDefault("theme.preset", "default-dark")
	v.SetDefault("theme.markdown_style", "")

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "dailyctl"))
		}
		v.AddConfigPath(DefaultDataDir())
		v.SetConfigName("config")
		v.SetConfigType("toml")
	}

	// Environment variables: DAILYCTL_STORAGE, DAILYCTL_DATA_DIR, etc.
	// Nested keys use underscores: DAILYCTL_CACHE_BACKEND.
	v.SetEnvPrefix("DAILYCTL")
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// An explicit path must exist and parse.
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
