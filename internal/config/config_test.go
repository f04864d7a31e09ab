package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 5501, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Store.Driver)
	require.Equal(t, []string{"metacritic_com"}, cfg.Crawler.ExcludeSites)
	require.Equal(t, time.Hour, cfg.CycleInterval())
	require.Equal(t, 15*time.Minute, cfg.RecoveryInterval())
	require.Equal(t, 30*time.Second, cfg.RequestTimeout())
	require.Equal(t, 30*time.Second, cfg.ServerTimeout())

	policy := cfg.Policy()
	require.Equal(t, 5, policy.MaxAttempts)
	require.Equal(t, []time.Duration{time.Minute, 5 * time.Minute, 10 * time.Minute, 15 * time.Minute}, policy.Pauses)
	require.Equal(t, 3*time.Second, policy.InitialDelay)
	require.Equal(t, time.Second, policy.DelayIncrement)
	require.Equal(t, 10*time.Second, policy.MaxDelay)
	require.Equal(t, 50, policy.BatchSize)
	require.Equal(t, 3*time.Minute, policy.BatchPause)
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
logging:
  development: false
  level: warn
store:
  driver: postgres
  postgres_dsn: postgres://genres@localhost/genres
crawler:
  max_attempts: 3
  pauses_seconds: [1, 2]
  exclude_sites: []
  base_urls:
    stopgame_ru: http://127.0.0.1:9999
catalog:
  source: static
  titles: ["Foo", "Bar"]
normalize:
  data_dir: /tmp/genres
  compression:
    - first: Action
      second: Adventure
      compound: Action-adventure
backup:
  driver: s3
  s3:
    bucket: genres-backup
    endpoint: http://minio:9000
    path_style: true
notify:
  driver: pubsub
  project_id: demo
  topic: genres-alerts
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.False(t, cfg.Logging.Development)
	require.Equal(t, "warn", cfg.Logging.Level)
	require.Equal(t, "postgres", cfg.Store.Driver)
	require.Equal(t, 3, cfg.Crawler.MaxAttempts)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, cfg.Policy().Pauses)
	require.Empty(t, cfg.Crawler.ExcludeSites)
	require.Equal(t, "http://127.0.0.1:9999", cfg.Crawler.BaseURLs["stopgame_ru"])
	require.Equal(t, []string{"Foo", "Bar"}, cfg.Catalog.Titles)
	require.Len(t, cfg.Normalize.Compression, 1)
	require.Equal(t, "Action-adventure", cfg.Normalize.Compression[0].Compound)
	require.True(t, cfg.Backup.S3.PathStyle)
	require.Equal(t, "us-east-1", cfg.Backup.S3.Region)
	require.Equal(t, "genres-alerts", cfg.Notify.Topic)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidateReturnsConfigurationErrors(t *testing.T) {
	t.Parallel()

	base, err := Load("")
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"store driver", func(c *Config) { c.Store.Driver = "mongo" }, "store.driver"},
		{"postgres dsn", func(c *Config) { c.Store.Driver = "postgres" }, "store.postgres_dsn"},
		{"attempts", func(c *Config) { c.Crawler.MaxAttempts = 0 }, "crawler.max_attempts"},
		{"negative pause", func(c *Config) { c.Crawler.PausesSeconds = []int{-1} }, "crawler.pauses_seconds"},
		{"catalog url", func(c *Config) { c.Catalog.Source = "url" }, "catalog.url"},
		{"static catalog", func(c *Config) { c.Catalog.Source = "static" }, "catalog.titles"},
		{"compression", func(c *Config) {
			c.Normalize.Compression = []CompressionRule{{First: "Action"}}
		}, "normalize.compression[0]"},
		{"gcs bucket", func(c *Config) { c.Backup.Driver = "gcs" }, "backup.gcs_bucket"},
		{"pubsub", func(c *Config) { c.Notify.Driver = "pubsub" }, "notify.project_id"},
		{"notify driver", func(c *Config) { c.Notify.Driver = "email" }, "notify.driver"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			cfg.Crawler.PausesSeconds = append([]int(nil), base.Crawler.PausesSeconds...)
			tc.mutate(&cfg)
			err := cfg.Validate()
			var cfgErr *crawler.ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "expected ConfigurationError, got %v", err)
			require.Equal(t, tc.field, cfgErr.Field)
		})
	}
}
