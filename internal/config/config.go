package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName               string        `mapstructure:"app_name"`
	Env                   string        `mapstructure:"app_env"`
	LogLevel              string        `mapstructure:"log_level"`
	TargetsFile           string        `mapstructure:"targets_file"`
	NotifiersFile         string        `mapstructure:"notifiers_file"`
	ScrapeIntervalSeconds int64         `mapstructure:"scrape_interval"`
	ScrapeInterval        time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	PostgresURL            string        `mapstructure:"postgres_url"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`

	ListingWorkers       int           `mapstructure:"listing_workers"`
	DetailWorkers        int           `mapstructure:"detail_workers"`
	TargetTimeoutSeconds int64         `mapstructure:"target_timeout"`
	TargetTimeout        time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "ad-radar")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("targets_file", "./configs/targets.txt")
	v.SetDefault("notifiers_file", "./configs/notifiers.yaml")
	v.SetDefault("scrape_interval", 180) // seconds
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/seen.db")
	v.SetDefault("postgres_url", "")
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
	v.SetDefault("listing_workers", 4)
	v.SetDefault("detail_workers", 10)
	v.SetDefault("target_timeout", 120) // seconds

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.ScrapeIntervalSeconds <= 0 {
		return nil, fmt.Errorf("invalid scrape_interval (must be positive seconds)")
	}
	cfg.ScrapeInterval = time.Duration(cfg.ScrapeIntervalSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	if cfg.ListingWorkers < 1 {
		cfg.ListingWorkers = 1
	}
	if cfg.DetailWorkers < 1 {
		cfg.DetailWorkers = 1
	}
	if cfg.TargetTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid target_timeout (must be positive seconds)")
	}
	cfg.TargetTimeout = time.Duration(cfg.TargetTimeoutSeconds) * time.Second

	return &cfg, nil
}
