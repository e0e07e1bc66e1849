// Package config loads the application configuration from a yaml file with
// environment-variable overrides (prefix GOLDWATCH) and a .env file for
// local development secrets such as the goldapi.io access token.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the complete application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	GoldTraders GoldTradersConfig `mapstructure:"goldtraders"`
	GoldAPI     GoldAPIConfig     `mapstructure:"goldapi"`
	Alerts      AlertsConfig      `mapstructure:"alerts"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds the HTTP API configuration.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// GoldTradersConfig holds the official-quote extractor configuration.
type GoldTradersConfig struct {
	URL          string        `mapstructure:"url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// GoldAPIConfig holds the goldapi.io spot-price configuration. APIKey is
// normally supplied via GOLDWATCH_GOLDAPI_API_KEY (or a .env file) rather
// than the config file.
type GoldAPIConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// AlertsConfig holds the Telegram price-alert configuration.
type AlertsConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	MinMove        float64       `mapstructure:"min_move"` // THB on the official ask
	Cooldown       time.Duration `mapstructure:"cooldown"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds record-persistence configuration.
type StorageConfig struct {
	FilePath string `mapstructure:"file_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the given file plus environment overrides.
func Load(path string) (*Config, error) {
	// .env is optional; existing environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("GOLDWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")

	v.SetDefault("goldtraders.url", "https://www.goldtraders.or.th/")
	v.SetDefault("goldtraders.timeout", "15s")
	v.SetDefault("goldtraders.poll_interval", "1m")

	v.SetDefault("goldapi.base_url", "https://www.goldapi.io/api")
	v.SetDefault("goldapi.api_key", "")
	v.SetDefault("goldapi.timeout", "15s")
	v.SetDefault("goldapi.poll_interval", "1m")

	v.SetDefault("alerts.enabled", false)
	v.SetDefault("alerts.bot_token", "")
	v.SetDefault("alerts.chat_id", "")
	v.SetDefault("alerts.min_move", 100.0)
	v.SetDefault("alerts.cooldown", "1h")
	v.SetDefault("alerts.max_retries", 3)
	v.SetDefault("alerts.retry_delay_base", "1s")

	v.SetDefault("storage.file_path", "./data/gold_records_v1.json")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.GoldTraders.URL == "" {
		return fmt.Errorf("goldtraders.url is required")
	}
	if c.GoldTraders.PollInterval < 10*time.Second {
		return fmt.Errorf("goldtraders.poll_interval must be at least 10 seconds")
	}
	if c.GoldAPI.PollInterval < 10*time.Second {
		return fmt.Errorf("goldapi.poll_interval must be at least 10 seconds")
	}
	if c.Alerts.Enabled {
		if c.Alerts.BotToken == "" {
			return fmt.Errorf("alerts.bot_token is required when alerts are enabled")
		}
		if c.Alerts.ChatID == "" {
			return fmt.Errorf("alerts.chat_id is required when alerts are enabled")
		}
		if c.Alerts.MinMove <= 0 {
			return fmt.Errorf("alerts.min_move must be positive")
		}
	}
	if c.Storage.FilePath == "" {
		return fmt.Errorf("storage.file_path is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: text, json")
	}
	return nil
}
