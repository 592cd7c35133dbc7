package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	HTTPAddr   string `mapstructure:"http_addr"`
	SyncAPIKey string `mapstructure:"sync_api_key"`

	DatabaseURL string `mapstructure:"database_url"`

	ProvidersFile  string `mapstructure:"providers_file"`
	PublishersFile string `mapstructure:"publishers_file"`

	SyncIntervalSeconds int64         `mapstructure:"sync_interval"`
	SyncInterval        time.Duration `mapstructure:"-"`
	SyncPageSize        int           `mapstructure:"sync_page_size"`
	RefreshOnResync     bool          `mapstructure:"sync_refresh_on_resync"`

	EnrichEnabled bool `mapstructure:"enrich_enabled"`

	RunLogPath           string        `mapstructure:"runlog_path"`
	RunLogTTLSeconds     int64         `mapstructure:"runlog_ttl_seconds"`
	RunLogCleanupSeconds int64         `mapstructure:"runlog_cleanup_interval_seconds"`
	RunLogTTL            time.Duration `mapstructure:"-"`
	RunLogCleanupEvery   time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "suhuf-ingest")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", ":8090")
	v.SetDefault("sync_api_key", "")
	v.SetDefault("database_url", "")
	v.SetDefault("providers_file", "./configs/providers.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("sync_interval", 3600) // seconds
	v.SetDefault("sync_page_size", 50)
	v.SetDefault("sync_refresh_on_resync", false)
	v.SetDefault("enrich_enabled", false)
	v.SetDefault("runlog_path", "./data/runlog.db")
	v.SetDefault("runlog_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("runlog_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database_url is required")
	}
	if cfg.SyncIntervalSeconds <= 0 {
		return nil, fmt.Errorf("invalid sync_interval (must be positive seconds)")
	}
	cfg.SyncInterval = time.Duration(cfg.SyncIntervalSeconds) * time.Second

	if cfg.SyncPageSize <= 0 {
		return nil, fmt.Errorf("invalid sync_page_size (must be positive)")
	}

	if cfg.RunLogTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid runlog_ttl_seconds (must be positive seconds)")
	}
	if cfg.RunLogCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid runlog_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.RunLogTTL = time.Duration(cfg.RunLogTTLSeconds) * time.Second
	cfg.RunLogCleanupEvery = time.Duration(cfg.RunLogCleanupSeconds) * time.Second

	return &cfg, nil
}
