package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds the tool configuration.
type Config struct {
	// Home is the ndeploy state directory (environments, key pairs).
	Home string `mapstructure:"home"`

	// DeployUser overrides the ssh user for git-style backends.
	DeployUser string `mapstructure:"deploy_user"`

	// DefaultEnvironment is used by deploy/undeploy when no environment
	// flag is given, instead of prompting.
	DefaultEnvironment string `mapstructure:"default_environment"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment. Without an
// explicit path, <home>/.ndeploy/config.yaml is read when present.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	v.SetDefault("home", filepath.Join(home, ".ndeploy"))
	v.SetDefault("deploy_user", "")
	v.SetDefault("default_environment", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(home, ".ndeploy"))
	}
	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine, defaults apply. A file that exists but
		// does not parse is not.
		if _, ok := err.(viper.ConfigParseError); ok {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	v.SetEnvPrefix("NDEPLOY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
// Logs go to stderr so command output (listenv, keyenv) stays clean.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
