// Package config loads client settings from flags, environment, and an
// optional YAML config file. Precedence is flags over TAXIKIT_* env vars
// over the config file over defaults.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved client configuration.
type Config struct {
	BaseURL   string
	Token     string
	DriverID  int64
	Year      int
	CachePath string
	Timeout   time.Duration
	LogLevel  string
	LogFormat string
}

// Init points viper at the config file and environment. When cfgFile is
// empty the standard locations are searched; a missing file is not an
// error.
func Init(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		viper.AddConfigPath(filepath.Join(home, ".config", "taxikit"))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("TAXIKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("api.base_url", "http://localhost:8000")
	viper.SetDefault("api.timeout", "30s")
	viper.SetDefault("tax.year", time.Now().Year()-1)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
}

// Load reads the resolved configuration. Init must have been called.
func Load() (Config, error) {
	cfg := Config{
		BaseURL:   viper.GetString("api.base_url"),
		Token:     viper.GetString("api.token"),
		DriverID:  viper.GetInt64("driver.id"),
		Year:      viper.GetInt("tax.year"),
		CachePath: viper.GetString("cache.path"),
		Timeout:   viper.GetDuration("api.timeout"),
		LogLevel:  viper.GetString("logging.level"),
		LogFormat: viper.GetString("logging.format"),
	}
	if cfg.CachePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.CachePath = filepath.Join(home, ".local", "share", "taxikit", "cache.db")
	}
	if cfg.Year < 2000 || cfg.Year > 2100 {
		return Config{}, fmt.Errorf("invalid tax year: %d", cfg.Year)
	}
	return cfg, nil
}

// SetupLogging installs the default slog logger per the configured
// level and format.
func SetupLogging(cfg Config) error {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch cfg.LogFormat {
	case "console":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}
