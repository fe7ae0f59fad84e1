// Package config loads and persists sshdeck configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	UI       UIConfig       `mapstructure:"ui"`
	Vault    VaultConfig    `mapstructure:"vault"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	// TransitionMs is the overlay enter/exit window in milliseconds.
	TransitionMs int    `mapstructure:"transition_ms"`
	Theme        string `mapstructure:"theme"`
}

// VaultConfig holds master-password vault settings.
type VaultConfig struct {
	// Enabled requires unlocking before profiles are readable.
	Enabled bool `mapstructure:"enabled"`
	// LockAfterMin re-locks the vault after this many idle minutes; 0 never.
	LockAfterMin int `mapstructure:"lock_after_min"`
}

// Load reads configuration from file and env. Env var overrides use prefix
// SSHDECK_, e.g. SSHDECK_DATABASE_PATH.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "sshdeck", "sshdeck.db"))
	v.SetDefault("ui.transition_ms", 120)
	v.SetDefault("ui.theme", "macchiato")
	v.SetDefault("vault.enabled", true)
	v.SetDefault("vault.lock_after_min", 15)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("SSHDECK_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "sshdeck"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("SSHDECK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if
// needed. Used by the settings drawer.
func Save(cfg Config) error {
	path := os.Getenv("SSHDECK_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "sshdeck", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("ui.transition_ms", cfg.UI.TransitionMs)
	v.Set("ui.theme", cfg.UI.Theme)
	v.Set("vault.enabled", cfg.Vault.Enabled)
	v.Set("vault.lock_after_min", cfg.Vault.LockAfterMin)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
