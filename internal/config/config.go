package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds settings shared by the command line and the terminal client.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Client   ClientConfig   `yaml:"client"`
}

// DatabaseConfig captures storage configuration.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LogConfig selects the logger level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// ClientConfig holds settings for the terminal client.
type ClientConfig struct {
	CommandPrefix rune `yaml:"-"`

	// Raw string value for YAML unmarshaling
	CommandPrefixRaw string `yaml:"command_prefix"`
}

const (
	defaultDatabasePath  = "NicknamesDirectory.db"
	defaultLogLevel      = "info"
	defaultCommandPrefix = "/"
)

// Load builds the configuration from defaults, the optional YAML file named
// by NICKDIR_CONFIG, and environment variables, in increasing precedence.
func Load() (Config, error) {
	cfg := Config{
		Database: DatabaseConfig{Path: defaultDatabasePath},
		Log:      LogConfig{Level: defaultLogLevel},
		Client:   ClientConfig{CommandPrefixRaw: defaultCommandPrefix},
	}

	if path, ok := os.LookupEnv("NICKDIR_CONFIG"); ok && path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.Database.Path = envOrDefault("NICKDIR_DB_PATH", cfg.Database.Path)
	cfg.Log.Level = envOrDefault("NICKDIR_LOG_LEVEL", cfg.Log.Level)
	cfg.Client.CommandPrefixRaw = envOrDefault("NICKDIR_COMMAND_PREFIX", cfg.Client.CommandPrefixRaw)
	cfg.Client.CommandPrefix = firstRune(cfg.Client.CommandPrefixRaw, '/')

	if cfg.Database.Path == "" {
		cfg.Database.Path = defaultDatabasePath
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

func envOrDefault(key, value string) string {
	if env, ok := os.LookupEnv(key); ok {
		return env
	}
	return value
}

func firstRune(value string, def rune) rune {
	runes := []rune(value)
	if len(runes) > 0 {
		return runes[0]
	}
	return def
}
