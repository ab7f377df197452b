package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Registry RegistryConfig `yaml:"registry" mapstructure:"registry"`
	Profile  ProfileConfig  `yaml:"profile" mapstructure:"profile"`
	Collect  CollectConfig  `yaml:"collect" mapstructure:"collect"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// RegistryConfig configures the primary registry API client.
type RegistryConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	PageSize    int     `yaml:"page_size" mapstructure:"page_size"`
}

// ProfileConfig configures the secondary profile-page scraper.
type ProfileConfig struct {
	BaseURL         string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent       string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs     int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MinIntervalSecs int    `yaml:"min_interval_secs" mapstructure:"min_interval_secs"`
	MarkersPath     string `yaml:"markers_path" mapstructure:"markers_path"`
}

// CollectConfig configures the collection orchestrator.
type CollectConfig struct {
	Concurrency              int    `yaml:"concurrency" mapstructure:"concurrency"`
	LookupAttempts           int    `yaml:"lookup_attempts" mapstructure:"lookup_attempts"`
	RepresentativePrecedence string `yaml:"representative_precedence" mapstructure:"representative_precedence"`
}

// ExportConfig configures the spreadsheet export.
type ExportConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the JSON API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Timeout returns the registry client timeout as a duration.
func (c RegistryConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// Timeout returns the profile client timeout as a duration.
func (c ProfileConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// MinInterval returns the enforced spacing between profile lookups.
func (c ProfileConfig) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalSecs) * time.Second
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COLLECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "collector.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("registry.base_url", "https://thongtindoanhnghiep.co")
	v.SetDefault("registry.user_agent", "collector-cli/1.0")
	v.SetDefault("registry.timeout_secs", 30)
	v.SetDefault("registry.max_retries", 3)
	v.SetDefault("registry.rate_per_sec", 1.0)
	v.SetDefault("registry.page_size", 20)
	v.SetDefault("profile.base_url", "https://hsctvn.com")
	v.SetDefault("profile.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("profile.timeout_secs", 30)
	v.SetDefault("profile.min_interval_secs", 2)
	v.SetDefault("collect.concurrency", 1)
	v.SetDefault("collect.lookup_attempts", 3)
	v.SetDefault("collect.representative_precedence", "secondary")
	v.SetDefault("export.path", "companies.xlsx")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
