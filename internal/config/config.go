package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string `yaml:"env" env:"APP_ENV" env-default:"local"`
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-default:"dashboard.db"`

	Log struct {
		Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
		Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console"`
	} `yaml:"log"`

	Server struct {
		Host         string `yaml:"host" env:"SERVER_HOST" env-default:"localhost"`
		Port         int    `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
		ReadTimeout  int    `yaml:"read_timeout" env-default:"15"`
		WriteTimeout int    `yaml:"write_timeout" env-default:"15"`
		IdleTimeout  int    `yaml:"idle_timeout" env-default:"60"`
	} `yaml:"server"`

	Simpro struct {
		BaseURL string `yaml:"base_url" env:"SIMPRO_BASE_URL"`
		APIKey  string `yaml:"api_key" env:"SIMPRO_API_KEY"`
		Timeout int    `yaml:"timeout" env-default:"30"`
	} `yaml:"simpro"`

	Pipeline struct {
		PollInterval       int `yaml:"poll_interval" env:"POLL_INTERVAL" env-default:"60"`
		ScheduleWindowDays int `yaml:"schedule_window_days" env-default:"7"`
	} `yaml:"pipeline"`
}

// LoadConfig reads the YAML config file at path, applying environment
// variable overrides on top.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if cfg.Simpro.BaseURL == "" {
		return nil, fmt.Errorf("simpro.base_url is required")
	}
	if cfg.Pipeline.PollInterval <= 0 {
		return nil, fmt.Errorf("pipeline.poll_interval must be positive")
	}

	return &cfg, nil
}
