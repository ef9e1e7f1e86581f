package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvConfig holds overrides read from the environment. Empty means unset.
type EnvConfig struct {
	ServerURL string `env:"TUILATE_SERVER_URL"`
	LangPair  string `env:"TUILATE_LANG_PAIR"`
	LogLevel  string `env:"TUILATE_LOG_LEVEL"`
	LogFormat string `env:"TUILATE_LOG_FORMAT"`
}

// LoadEnv reads EnvConfig from the process environment.
func LoadEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("failed to parse env: %w", err)
	}
	return cfg, nil
}

// Overlay copies set environment values over the file config, so env wins
// over the file and flags still win over both.
func (e EnvConfig) Overlay(file FileConfig) FileConfig {
	file.Server.URL = overlayString(file.Server.URL, e.ServerURL)
	file.UI.LangPair = overlayString(file.UI.LangPair, e.LangPair)
	file.Log.Level = overlayString(file.Log.Level, e.LogLevel)
	file.Log.Format = overlayString(file.Log.Format, e.LogFormat)
	return file
}

func overlayString(current *string, value string) *string {
	if value == "" {
		return current
	}
	v := value
	return &v
}
