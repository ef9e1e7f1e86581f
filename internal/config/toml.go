// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Server  ServerConfig  `toml:"server"`
	UI      UIConfig      `toml:"ui"`
	History HistoryConfig `toml:"history"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig maps translation service settings.
type ServerConfig struct {
	URL                 *string  `toml:"url"`
	TimeoutSeconds      *int     `toml:"timeout-seconds"`
	PollIntervalSeconds *int     `toml:"poll-interval-seconds"`
	RequestsPerSecond   *float64 `toml:"requests-per-second"`
}

// UIConfig maps interface settings.
type UIConfig struct {
	LangPair            *string `toml:"lang-pair"`
	GPUNotice           *string `toml:"gpu-notice"`
	CharLimit           *int    `toml:"char-limit"`
	NotificationSeconds *int    `toml:"notification-seconds"`
}

// HistoryConfig maps translation history settings.
type HistoryConfig struct {
	Enabled *bool `toml:"enabled"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
