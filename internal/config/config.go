package config

import (
	"errors"
	"os"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Backend  BackendConfig `mapstructure:"backend"`
	LogLevel string        `mapstructure:"log_level"`
}

// BackendConfig holds the query-service configuration
type BackendConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	HistoryLimit int    `mapstructure:"history_limit"`
	Streaming    bool   `mapstructure:"streaming"`
	IncludeDebug bool   `mapstructure:"include_debug"`
}

// Load loads the configuration from the config.yaml file.
// A missing file is not an error; defaults apply.
func Load() (*Config, error) {
	viper.SetDefault("backend.base_url", "http://localhost:8000")
	viper.SetDefault("backend.history_limit", 50)
	viper.SetDefault("backend.streaming", true)
	viper.SetDefault("backend.include_debug", false)
	viper.SetDefault("log_level", "info")

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
