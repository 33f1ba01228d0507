// Package config loads process configuration from the environment, an
// optional .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"taskbridge/internal/backend/taskapi"
	"taskbridge/internal/planner"
	"taskbridge/internal/retry"
)

const (
	// AppName is the application name.
	AppName = "taskbridge"

	// EnvPrefix prefixes every environment variable, e.g. TASKBRIDGE_API_TOKEN.
	EnvPrefix = "TASKBRIDGE"
)

// Config holds all application configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api" validate:"required"`
	Retry   RetryConfig   `mapstructure:"retry" validate:"required"`
	Planner PlannerConfig `mapstructure:"planner" validate:"required"`
	Log     LogConfig     `mapstructure:"log" validate:"required"`
	Monitor MonitorConfig `mapstructure:"monitor"`
}

// APIConfig holds the remote task API connection settings.
type APIConfig struct {
	BaseURL   string `mapstructure:"base_url" validate:"required,url"`
	Token     string `mapstructure:"token"`
	UserAgent string `mapstructure:"user_agent"`
}

// RetryConfig holds the executor policy. Durations are in milliseconds.
type RetryConfig struct {
	MaxRetries        int   `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	BaseDelayMS       int   `mapstructure:"base_delay_ms" validate:"gte=0"`
	MaxDelayMS        int   `mapstructure:"max_delay_ms" validate:"gte=0,gtefield=BaseDelayMS"`
	AttemptTimeoutMS  int   `mapstructure:"attempt_timeout_ms" validate:"gt=0"`
	RetryableStatuses []int `mapstructure:"retryable_statuses" validate:"dive,gte=400,lte=599"`
}

// PlannerConfig holds the planning aggregator limits.
type PlannerConfig struct {
	DefaultMaxItems   int `mapstructure:"default_max_items" validate:"gt=0"`
	PerListLimit      int `mapstructure:"per_list_limit" validate:"gt=0,lte=100"`
	DueSoonDays       int `mapstructure:"due_soon_days" validate:"gt=0,lte=365"`
	FanOutConcurrency int `mapstructure:"fan_out_concurrency" validate:"gte=0"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// MonitorConfig holds the side server settings. An empty Addr disables it.
type MonitorConfig struct {
	Addr string `mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// LoadDotEnv loads variables from an env file into the process environment.
// Variables already set are not overridden. With an empty path, a ".env" in
// the working directory is loaded if present.
func LoadDotEnv(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8000/api/v1")
	v.SetDefault("api.token", "")
	v.SetDefault("api.user_agent", taskapi.DefaultUserAgent)

	v.SetDefault("retry.max_retries", retry.DefaultConfig.MaxRetries)
	v.SetDefault("retry.base_delay_ms", retry.DefaultConfig.BaseDelay.Milliseconds())
	v.SetDefault("retry.max_delay_ms", retry.DefaultConfig.MaxDelay.Milliseconds())
	v.SetDefault("retry.attempt_timeout_ms", retry.DefaultConfig.PerAttemptTimeout.Milliseconds())
	v.SetDefault("retry.retryable_statuses", retry.DefaultConfig.RetryableStatuses)

	v.SetDefault("planner.default_max_items", planner.DefaultConfig.DefaultMaxItems)
	v.SetDefault("planner.per_list_limit", planner.DefaultConfig.PerListLimit)
	v.SetDefault("planner.due_soon_days", planner.DefaultConfig.DueSoonDays)
	v.SetDefault("planner.fan_out_concurrency", planner.DefaultConfig.FanOutConcurrency)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("monitor.addr", "")
}

// Load reads configuration. Environment variables take precedence over the
// config file at path, which is optional; defaults fill the rest.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// RetryPolicy converts the retry settings for retry.New.
func (c *Config) RetryPolicy() retry.Config {
	return retry.Config{
		MaxRetries:        c.Retry.MaxRetries,
		BaseDelay:         time.Duration(c.Retry.BaseDelayMS) * time.Millisecond,
		MaxDelay:          time.Duration(c.Retry.MaxDelayMS) * time.Millisecond,
		PerAttemptTimeout: time.Duration(c.Retry.AttemptTimeoutMS) * time.Millisecond,
		RetryableStatuses: c.Retry.RetryableStatuses,
	}
}

// PlannerLimits converts the planner settings for planner.New.
func (c *Config) PlannerLimits() planner.Config {
	return planner.Config{
		DefaultMaxItems:   c.Planner.DefaultMaxItems,
		PerListLimit:      c.Planner.PerListLimit,
		DueSoonDays:       c.Planner.DueSoonDays,
		FanOutConcurrency: c.Planner.FanOutConcurrency,
	}
}

// Remote converts the API settings for taskapi.New.
func (c *Config) Remote() taskapi.Config {
	return taskapi.Config{
		BaseURL:   c.API.BaseURL,
		Token:     c.API.Token,
		UserAgent: c.API.UserAgent,
	}
}
