// Package config loads the host configuration for the knowledge subsystem
// from anketa.yaml plus ANKETA_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the runtime configuration of the knowledge tooling.
type Config struct {
	CategoriesDir   string `mapstructure:"categories_dir"`
	TemplatePath    string `mapstructure:"template_path"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds"`
	CacheSize       int    `mapstructure:"cache_size"`
	ContextBudget   int    `mapstructure:"context_budget"`
	LearningsWindow int    `mapstructure:"learnings_window"`
	LogLevel        string `mapstructure:"log_level"`
	LogFormat       string `mapstructure:"log_format"`
}

// Load reads anketa.yaml from the working directory or $HOME, then applies
// environment overrides. A missing file is fine; a malformed one is not.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("anketa")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")
	v.SetEnvPrefix("ANKETA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("categories_dir", "config/categories")
	v.SetDefault("template_path", "config/templates/interview_phases.yaml")
	v.SetDefault("cache_ttl_seconds", 300)
	v.SetDefault("cache_size", 256)
	v.SetDefault("context_budget", 4000)
	v.SetDefault("learnings_window", 5)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	normalize(&cfg)
	return cfg, nil
}

func normalize(cfg *Config) {
	cfg.CategoriesDir = strings.TrimSpace(cfg.CategoriesDir)
	cfg.TemplatePath = strings.TrimSpace(cfg.TemplatePath)
	cfg.LogLevel = strings.TrimSpace(cfg.LogLevel)
	cfg.LogFormat = strings.TrimSpace(cfg.LogFormat)
	if cfg.CacheTTLSeconds < 0 {
		cfg.CacheTTLSeconds = 0
	}
	if cfg.ContextBudget <= 0 {
		cfg.ContextBudget = 4000
	}
	if cfg.LearningsWindow <= 0 {
		cfg.LearningsWindow = 5
	}
}
