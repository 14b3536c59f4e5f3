// Package config loads the host's runtime configuration: where the
// persisted display state lives and which workarounds are enabled.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	// AppName is the name of the application folder in the user's config dir.
	AppName = "DisplayDevice"
	// SettingsFileName is the persisted state file within that folder.
	SettingsFileName = "settings.json"
)

// Workarounds holds runtime-adjustable behavior tweaks for known platform
// quirks, read from the config file/environment and converted into
// internal/settings.Workarounds at startup.
type Workarounds struct {
	HdrBlankDelay time.Duration `mapstructure:"hdr_blank_delay"`
}

// Config is the full set of values a host needs to construct the engine.
type Config struct {
	PersistencePath string      `mapstructure:"persistence_path"`
	Workarounds     Workarounds `mapstructure:"enabled_workarounds"`
	LogLevel        string      `mapstructure:"log_level"`
}

// DefaultConfig returns the configuration used when no file or environment
// override is present.
func DefaultConfig() *Config {
	return &Config{
		PersistencePath: defaultPersistencePath(),
		LogLevel:        "info",
	}
}

// Load reads an optional YAML/JSON config file plus DISPLAYDEVICE_*
// environment overrides, layered over DefaultConfig.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("displaydevice")
	v.SetConfigType("yaml")
	v.AddConfigPath(GetSettingsDirectory())
	v.AddConfigPath(".")

	v.SetEnvPrefix("DISPLAYDEVICE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal config: %w", err)
	}
	if cfg.PersistencePath == "" {
		cfg.PersistencePath = defaultPersistencePath()
	}
	return cfg, nil
}

// GetSettingsDirectory returns the path to the settings directory.
func GetSettingsDirectory() string {
	appData, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(appData, AppName)
}

// EnsureDirectoriesExist creates the settings directory if it doesn't exist.
func EnsureDirectoriesExist() error {
	return os.MkdirAll(GetSettingsDirectory(), 0o755)
}

func defaultPersistencePath() string {
	return filepath.Join(GetSettingsDirectory(), SettingsFileName)
}
