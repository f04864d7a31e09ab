// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Store     StoreConfig     `mapstructure:"store"`
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Normalize NormalizeConfig `mapstructure:"normalize"`
	Backup    BackupConfig    `mapstructure:"backup"`
	Notify    NotifyConfig    `mapstructure:"notify"`
}

// ServerConfig controls the read API.
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// StoreConfig selects the dump and catalog database.
type StoreConfig struct {
	Driver      string `mapstructure:"driver"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
	MaxConns    int32  `mapstructure:"max_conns"`
}

// CrawlerConfig governs source sessions and worker pacing.
type CrawlerConfig struct {
	UserAgent               string            `mapstructure:"user_agent"`
	RequestTimeoutSeconds   int               `mapstructure:"request_timeout_seconds"`
	RequestsPerSecond       float64           `mapstructure:"requests_per_second"`
	MaxAttempts             int               `mapstructure:"max_attempts"`
	PausesSeconds           []int             `mapstructure:"pauses_seconds"`
	InitialDelaySeconds     int               `mapstructure:"initial_delay_seconds"`
	DelayIncrementSeconds   int               `mapstructure:"delay_increment_seconds"`
	MaxDelaySeconds         int               `mapstructure:"max_delay_seconds"`
	BatchSize               int               `mapstructure:"batch_size"`
	BatchPauseSeconds       int               `mapstructure:"batch_pause_seconds"`
	CycleIntervalMinutes    int               `mapstructure:"cycle_interval_minutes"`
	RecoveryIntervalMinutes int               `mapstructure:"recovery_interval_minutes"`
	ExcludeSites            []string          `mapstructure:"exclude_sites"`
	StrictExclusions        bool              `mapstructure:"strict_exclusions"`
	ErrorsDir               string            `mapstructure:"errors_dir"`
	BaseURLs                map[string]string `mapstructure:"base_urls"`
}

// CatalogConfig locates the list of titles to crawl.
type CatalogConfig struct {
	Source       string   `mapstructure:"source"`
	Path         string   `mapstructure:"path"`
	URL          string   `mapstructure:"url"`
	LinkSelector string   `mapstructure:"link_selector"`
	Titles       []string `mapstructure:"titles"`
}

// CompressionRule merges two co-occurring genres into a compound one.
type CompressionRule struct {
	First    string `mapstructure:"first"`
	Second   string `mapstructure:"second"`
	Compound string `mapstructure:"compound"`
}

// NormalizeConfig controls where the normalizer keeps its artifacts.
type NormalizeConfig struct {
	DataDir     string            `mapstructure:"data_dir"`
	BackupDir   string            `mapstructure:"backup_dir"`
	Compression []CompressionRule `mapstructure:"compression"`
}

// BackupConfig selects where dump exports are written.
type BackupConfig struct {
	Driver    string   `mapstructure:"driver"`
	Prefix    string   `mapstructure:"prefix"`
	LocalDir  string   `mapstructure:"local_dir"`
	GCSBucket string   `mapstructure:"gcs_bucket"`
	S3        S3Config `mapstructure:"s3"`
}

// S3Config holds S3-compatible bucket settings.
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	PathStyle       bool   `mapstructure:"path_style"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// NotifyConfig selects the operator notification channel.
type NotifyConfig struct {
	Driver    string `mapstructure:"driver"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GENRES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5501)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "database/games.db")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("crawler.user_agent", "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0")
	v.SetDefault("crawler.request_timeout_seconds", 30)
	v.SetDefault("crawler.requests_per_second", 1.0)
	v.SetDefault("crawler.max_attempts", crawler.DefaultMaxAttempts)
	v.SetDefault("crawler.pauses_seconds", []int{60, 300, 600, 900})
	v.SetDefault("crawler.initial_delay_seconds", 3)
	v.SetDefault("crawler.delay_increment_seconds", 1)
	v.SetDefault("crawler.max_delay_seconds", 10)
	v.SetDefault("crawler.batch_size", crawler.DefaultBatchSize)
	v.SetDefault("crawler.batch_pause_seconds", 180)
	v.SetDefault("crawler.cycle_interval_minutes", 60)
	v.SetDefault("crawler.recovery_interval_minutes", 15)
	v.SetDefault("crawler.exclude_sites", []string{"metacritic_com"})
	v.SetDefault("crawler.strict_exclusions", false)
	v.SetDefault("crawler.errors_dir", "errors")
	v.SetDefault("catalog.source", "file")
	v.SetDefault("catalog.path", "games.txt")
	v.SetDefault("normalize.data_dir", "data")
	v.SetDefault("normalize.backup_dir", "data/backup")
	v.SetDefault("backup.driver", "local")
	v.SetDefault("backup.prefix", "dumps")
	v.SetDefault("backup.local_dir", "backup")
	v.SetDefault("backup.s3.region", "us-east-1")
	v.SetDefault("notify.driver", "log")

	// Keys without a meaningful default are registered so AutomaticEnv can
	// populate them during Unmarshal.
	for _, key := range []string{
		"store.postgres_dsn",
		"catalog.url",
		"catalog.link_selector",
		"backup.gcs_bucket",
		"backup.s3.bucket",
		"backup.s3.endpoint",
		"backup.s3.access_key_id",
		"backup.s3.secret_access_key",
		"notify.project_id",
		"notify.topic",
	} {
		v.SetDefault(key, "")
	}
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return invalid("server.port", "must be > 0")
	}
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return invalid("store.sqlite_path", "required for the sqlite driver")
		}
	case "postgres":
		if c.Store.PostgresDSN == "" {
			return invalid("store.postgres_dsn", "required for the postgres driver")
		}
	case "memory":
	default:
		return invalid("store.driver", fmt.Sprintf("unknown driver %q", c.Store.Driver))
	}
	if c.Crawler.RequestTimeoutSeconds <= 0 {
		return invalid("crawler.request_timeout_seconds", "must be > 0")
	}
	if c.Crawler.MaxAttempts <= 0 {
		return invalid("crawler.max_attempts", "must be > 0")
	}
	for _, p := range c.Crawler.PausesSeconds {
		if p < 0 {
			return invalid("crawler.pauses_seconds", "values must be >= 0")
		}
	}
	if c.Crawler.MaxDelaySeconds < c.Crawler.InitialDelaySeconds {
		return invalid("crawler.max_delay_seconds", "must be >= crawler.initial_delay_seconds")
	}
	if c.Crawler.CycleIntervalMinutes <= 0 || c.Crawler.RecoveryIntervalMinutes <= 0 {
		return invalid("crawler.cycle_interval_minutes", "cycle and recovery intervals must be > 0")
	}
	switch c.Catalog.Source {
	case "file":
		if c.Catalog.Path == "" {
			return invalid("catalog.path", "required for the file catalog")
		}
	case "url":
		if c.Catalog.URL == "" {
			return invalid("catalog.url", "required for the url catalog")
		}
	case "static":
		if len(c.Catalog.Titles) == 0 {
			return invalid("catalog.titles", "required for the static catalog")
		}
	default:
		return invalid("catalog.source", fmt.Sprintf("unknown source %q", c.Catalog.Source))
	}
	if c.Normalize.DataDir == "" {
		return invalid("normalize.data_dir", "required")
	}
	for i, rule := range c.Normalize.Compression {
		if rule.First == "" || rule.Second == "" || rule.Compound == "" {
			return invalid(fmt.Sprintf("normalize.compression[%d]", i), "first, second and compound are required")
		}
	}
	switch c.Backup.Driver {
	case "none":
	case "local":
		if c.Backup.LocalDir == "" {
			return invalid("backup.local_dir", "required for the local driver")
		}
	case "gcs":
		if c.Backup.GCSBucket == "" {
			return invalid("backup.gcs_bucket", "required for the gcs driver")
		}
	case "s3":
		if c.Backup.S3.Bucket == "" {
			return invalid("backup.s3.bucket", "required for the s3 driver")
		}
	default:
		return invalid("backup.driver", fmt.Sprintf("unknown driver %q", c.Backup.Driver))
	}
	switch c.Notify.Driver {
	case "log", "none":
	case "pubsub":
		if c.Notify.ProjectID == "" || c.Notify.Topic == "" {
			return invalid("notify.project_id", "project_id and topic are required for pubsub")
		}
	default:
		return invalid("notify.driver", fmt.Sprintf("unknown driver %q", c.Notify.Driver))
	}
	return nil
}

func invalid(field, reason string) error {
	return &crawler.ConfigurationError{Field: field, Reason: reason}
}

// Policy converts the pacing knobs into a worker schedule.
func (c Config) Policy() *crawler.SchedulePolicy {
	pauses := make([]time.Duration, 0, len(c.Crawler.PausesSeconds))
	for _, p := range c.Crawler.PausesSeconds {
		pauses = append(pauses, seconds(p))
	}
	return &crawler.SchedulePolicy{
		MaxAttempts:    c.Crawler.MaxAttempts,
		Pauses:         pauses,
		InitialDelay:   seconds(c.Crawler.InitialDelaySeconds),
		DelayIncrement: seconds(c.Crawler.DelayIncrementSeconds),
		MaxDelay:       seconds(c.Crawler.MaxDelaySeconds),
		BatchSize:      c.Crawler.BatchSize,
		BatchPause:     seconds(c.Crawler.BatchPauseSeconds),
	}
}

// RequestTimeout bounds a single outbound request.
func (c Config) RequestTimeout() time.Duration {
	return seconds(c.Crawler.RequestTimeoutSeconds)
}

// CycleInterval is the sleep between successful cycles.
func (c Config) CycleInterval() time.Duration {
	return time.Duration(c.Crawler.CycleIntervalMinutes) * time.Minute
}

// RecoveryInterval is the sleep after a failed cycle.
func (c Config) RecoveryInterval() time.Duration {
	return time.Duration(c.Crawler.RecoveryIntervalMinutes) * time.Minute
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// ServerTimeout bounds a single API request.
func (c Config) ServerTimeout() time.Duration {
	return seconds(c.Server.TimeoutSeconds)
}
